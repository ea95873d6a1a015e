package match_test

import (
	"testing"

	"github.com/vanderheijden86/questwork/pkg/match"
	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/taskgraph"
)

func itemReward(desc string) model.Reward {
	return model.Reward{Kind: model.RewardItem, Value: desc, Description: desc}
}

func xpReward(n float64) model.Reward {
	return model.Reward{Kind: model.RewardExperience, Number: n, IsNumeric: true}
}

func combatTask() model.Task {
	return model.Task{
		ID:      "combat-1",
		Name:    "战斗任务",
		Trader:  model.Trader{ID: "tr-skier", Name: "Skier"},
		Rewards: []model.Reward{itemReward("突击步枪 x1")},
	}
}

func TestIsMatchedCombined(t *testing.T) {
	task := combatTask()

	base := match.Filters{Trader: "Skier", Search: "战斗", RewardTerm: "突击"}
	if !match.IsMatched(task, base) {
		t.Fatal("all three constraints satisfied but task did not match")
	}

	t.Run("wrong trader", func(t *testing.T) {
		f := base
		f.Trader = "Prapor"
		if match.IsMatched(task, f) {
			t.Error("trader mismatch should fail the whole conjunction")
		}
	})
	t.Run("wrong name term", func(t *testing.T) {
		f := base
		f.Search = "采集"
		if match.IsMatched(task, f) {
			t.Error("name mismatch should fail the whole conjunction")
		}
	})
	t.Run("wrong reward term", func(t *testing.T) {
		f := base
		f.RewardTerm = "手枪"
		if match.IsMatched(task, f) {
			t.Error("reward mismatch should fail the whole conjunction")
		}
	})
}

func TestIsMatchedNoConstraints(t *testing.T) {
	if !match.IsMatched(combatTask(), match.Filters{}) {
		t.Error("zero filters must match every task")
	}
	if (match.Filters{}).Active() {
		t.Error("zero filters reported active")
	}
	if !(match.Filters{Trader: "Skier"}).Active() {
		t.Error("trader filter not reported active")
	}
	if (match.Filters{Search: "   "}).Active() {
		t.Error("whitespace-only search reported active")
	}
}

func TestIsMatchedTraderCaseSensitive(t *testing.T) {
	task := combatTask()
	if match.IsMatched(task, match.Filters{Trader: "skier"}) {
		t.Error("trader filter must compare case-sensitively")
	}
	if !match.IsMatched(task, match.Filters{Trader: "Skier"}) {
		t.Error("exact trader name rejected")
	}
}

func TestIsMatchedSearchFoldsCaseAndTrims(t *testing.T) {
	task := model.Task{
		ID:     "t1",
		Name:   "Checking",
		Trader: model.Trader{Name: "Prapor"},
	}
	for _, term := range []string{"check", "CHECK", "  check  ", "prap"} {
		if !match.IsMatched(task, match.Filters{Search: term}) {
			t.Errorf("search %q did not match name/trader", term)
		}
	}
	// Inner whitespace is significant.
	if match.IsMatched(task, match.Filters{Search: "che ck"}) {
		t.Error("inner whitespace should not be collapsed")
	}
}

func TestIsRewardMatchedNumericValueIgnored(t *testing.T) {
	if match.IsRewardMatched(xpReward(4200), "4200") {
		t.Error("numeric value matched a text search")
	}
	r := xpReward(4200)
	r.Description = "combat experience"
	if !match.IsRewardMatched(r, "experience") {
		t.Error("description of a numeric reward should still match")
	}
	if match.IsRewardMatched(itemReward("突击步枪 x1"), "   ") {
		t.Error("whitespace-only term matched")
	}
}

func TestFilterTasksKeepsOrder(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", Name: "Debut", Trader: model.Trader{Name: "Prapor"}},
		{ID: "b", Name: "Checking", Trader: model.Trader{Name: "Prapor"}},
		{ID: "c", Name: "Friend From the West", Trader: model.Trader{Name: "Skier"}},
	}
	got := match.FilterTasks(tasks, match.Filters{Trader: "Prapor"})
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("filtered set = %v, want [a b] in input order", ids(got))
	}
}

func TestAnnotate(t *testing.T) {
	g := taskgraph.Build([]model.Task{
		{ID: "a", Name: "Debut", Trader: model.Trader{Name: "Prapor"}},
		{ID: "b", Name: "Friend From the West", Trader: model.Trader{Name: "Skier"}},
	})
	n := match.Annotate(g, match.Filters{Trader: "Skier"})
	if n != 1 {
		t.Fatalf("Annotate reported %d matches, want 1", n)
	}
	for _, node := range g.Nodes() {
		want := node.Task.ID == "b"
		if node.Matched != want {
			t.Errorf("node %s Matched = %v, want %v", node.Task.ID, node.Matched, want)
		}
	}

	// Clearing filters flips everything back on.
	if n := match.Annotate(g, match.Filters{}); n != 2 {
		t.Errorf("Annotate with zero filters = %d, want 2", n)
	}
}

func ids(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}
