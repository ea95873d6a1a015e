package match_test

import (
	"fmt"
	"reflect"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/questwork/pkg/match"
	"github.com/vanderheijden86/questwork/pkg/model"
)

func rewardTask(id string, rewards ...model.Reward) model.Task {
	return model.Task{
		ID:      id,
		Name:    "Task " + id,
		Trader:  model.Trader{ID: "tr-1", Name: "Prapor"},
		Rewards: rewards,
	}
}

func TestFindTasksByRewardEmptyQuery(t *testing.T) {
	tasks := []model.Task{rewardTask("a", itemReward("Salewa kit"))}
	for _, q := range []string{"", "   ", "\t\n"} {
		res := match.FindTasksByReward(tasks, q)
		if res.MatchedTaskIDs == nil || res.Matches == nil {
			t.Fatalf("query %q returned nil slices", q)
		}
		if len(res.MatchedTaskIDs) != 0 || len(res.Matches) != 0 {
			t.Errorf("query %q matched %d tasks, want 0", q, len(res.Matches))
		}
	}
}

func TestFindTasksByRewardScoringOrder(t *testing.T) {
	tasks := []model.Task{
		rewardTask("substr", itemReward("worn Salewa kit")),
		rewardTask("prefix", itemReward("Salewa kit")),
		rewardTask("exact", itemReward("Salewa")),
	}
	res := match.FindTasksByReward(tasks, "salewa")

	want := []string{"exact", "prefix", "substr"}
	if !reflect.DeepEqual(res.MatchedTaskIDs, want) {
		t.Fatalf("order = %v, want %v", res.MatchedTaskIDs, want)
	}
	scores := map[string]int{}
	for _, m := range res.Matches {
		scores[m.TaskID] = m.Score
	}
	if scores["exact"] != match.ScoreExact ||
		scores["prefix"] != match.ScorePrefix ||
		scores["substr"] != match.ScoreSubstring {
		t.Errorf("scores = %v, want 100/50/10", scores)
	}
}

func TestFindTasksByRewardSumsOverRewards(t *testing.T) {
	tasks := []model.Task{
		rewardTask("both", itemReward("Salewa"), itemReward("Salewa kit")),
		rewardTask("one", itemReward("Salewa")),
	}
	res := match.FindTasksByReward(tasks, "Salewa")

	if res.MatchedTaskIDs[0] != "both" {
		t.Fatalf("summed score should rank first, got %v", res.MatchedTaskIDs)
	}
	if got := res.Matches[0].Score; got != match.ScoreExact+match.ScorePrefix {
		t.Errorf("summed score = %d, want %d", got, match.ScoreExact+match.ScorePrefix)
	}
	if got := len(res.Matches[0].Rewards); got != 2 {
		t.Errorf("matched rewards = %d, want 2", got)
	}
}

func TestFindTasksByRewardExcludesUnmatched(t *testing.T) {
	tasks := []model.Task{
		rewardTask("money", model.Reward{Kind: model.RewardMoney, Number: 50000, IsNumeric: true}),
		rewardTask("gun", itemReward("突击步枪 x1")),
	}
	res := match.FindTasksByReward(tasks, "突击")

	if len(res.Matches) != 1 || res.Matches[0].TaskID != "gun" {
		t.Fatalf("matches = %v, want only gun", res.MatchedTaskIDs)
	}
	if res.Matches[0].TaskName != "Task gun" || res.Matches[0].Trader != "Prapor" {
		t.Errorf("match carries wrong task metadata: %+v", res.Matches[0])
	}
}

func TestFindTasksByRewardStableTies(t *testing.T) {
	tasks := []model.Task{
		rewardTask("first", itemReward("Salewa kit")),
		rewardTask("second", itemReward("Salewa pouch")),
		rewardTask("third", itemReward("Salewa crate")),
	}
	want := []string{"first", "second", "third"}
	for i := 0; i < 5; i++ {
		res := match.FindTasksByReward(tasks, "salewa")
		if !reflect.DeepEqual(res.MatchedTaskIDs, want) {
			t.Fatalf("run %d reordered equal scores: %v", i, res.MatchedTaskIDs)
		}
	}
}

func TestFindTasksByRewardRandomised(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(rt, "tasks")
		tasks := make([]model.Task, n)
		for i := range tasks {
			nRewards := rapid.IntRange(0, 3).Draw(rt, fmt.Sprintf("rewards%d", i))
			rewards := make([]model.Reward, nRewards)
			for j := range rewards {
				if rapid.Bool().Draw(rt, fmt.Sprintf("numeric%d_%d", i, j)) {
					rewards[j] = xpReward(float64(rapid.IntRange(1, 9999).Draw(rt, fmt.Sprintf("xp%d_%d", i, j))))
				} else {
					rewards[j] = itemReward(rapid.StringMatching(`[a-c]{1,6}`).Draw(rt, fmt.Sprintf("desc%d_%d", i, j)))
				}
			}
			tasks[i] = rewardTask(fmt.Sprintf("t%d", i), rewards...)
		}
		query := rapid.StringMatching(`[a-c]{1,3}`).Draw(rt, "query")

		res := match.FindTasksByReward(tasks, query)

		if len(res.MatchedTaskIDs) != len(res.Matches) {
			rt.Fatalf("id list (%d) and matches (%d) diverge", len(res.MatchedTaskIDs), len(res.Matches))
		}
		for i, m := range res.Matches {
			if res.MatchedTaskIDs[i] != m.TaskID {
				rt.Fatalf("id order diverges at %d: %s vs %s", i, res.MatchedTaskIDs[i], m.TaskID)
			}
			if m.Score <= 0 {
				rt.Fatalf("task %s returned with score %d", m.TaskID, m.Score)
			}
			if i > 0 && res.Matches[i-1].Score < m.Score {
				rt.Fatalf("scores not descending at %d: %d < %d", i, res.Matches[i-1].Score, m.Score)
			}
			anyMatch := false
			for _, r := range m.Rewards {
				if match.IsRewardMatched(r, query) {
					anyMatch = true
					break
				}
			}
			if !anyMatch {
				rt.Fatalf("task %s returned without a matching reward", m.TaskID)
			}
		}
	})
}
