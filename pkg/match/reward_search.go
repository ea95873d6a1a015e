package match

import (
	"sort"
	"strings"

	"github.com/vanderheijden86/questwork/pkg/metrics"
	"github.com/vanderheijden86/questwork/pkg/model"
)

// Scores per matched reward. A reward takes the best classification of
// its description and textual value against the normalised query.
const (
	ScoreExact     = 100
	ScorePrefix    = 50
	ScoreSubstring = 10
)

// RewardMatch is one task's entry in a reward search result.
type RewardMatch struct {
	TaskID   string         `json:"taskId"`
	TaskName string         `json:"taskName"`
	Trader   string         `json:"trader"`
	Rewards  []model.Reward `json:"rewards"`
	Score    int            `json:"score"`
}

// RewardSearchResult lists matching task IDs in rank order alongside
// the per-task detail.
type RewardSearchResult struct {
	MatchedTaskIDs []string      `json:"matchedTaskIds"`
	Matches        []RewardMatch `json:"matches"`
}

// FindTasksByReward ranks tasks by how well their rewards match the
// query. A task's score is the sum over its matched rewards; tasks with
// no matched reward are excluded. Ordering is by descending score with
// equal scores kept in input order. Empty or whitespace-only queries
// return an empty result.
func FindTasksByReward(tasks []model.Task, query string) RewardSearchResult {
	done := metrics.Timer(metrics.RewardSearch)
	defer done()

	res := RewardSearchResult{
		MatchedTaskIDs: []string{},
		Matches:        []RewardMatch{},
	}
	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return res
	}

	for _, t := range tasks {
		var matched []model.Reward
		score := 0
		for _, r := range t.Rewards {
			s := scoreReward(r, term)
			if s == 0 {
				continue
			}
			matched = append(matched, r)
			score += s
		}
		if len(matched) == 0 {
			continue
		}
		res.Matches = append(res.Matches, RewardMatch{
			TaskID:   t.ID,
			TaskName: t.Name,
			Trader:   t.Trader.Name,
			Rewards:  matched,
			Score:    score,
		})
	}

	sort.SliceStable(res.Matches, func(i, j int) bool {
		return res.Matches[i].Score > res.Matches[j].Score
	})
	for _, m := range res.Matches {
		res.MatchedTaskIDs = append(res.MatchedTaskIDs, m.TaskID)
	}
	return res
}

// scoreReward rates one reward against a normalised term: exact match
// of the whole field beats prefix beats substring; zero means no match.
func scoreReward(r model.Reward, term string) int {
	best := 0
	for _, field := range []string{r.Description, r.ValueText()} {
		f := strings.ToLower(field)
		if f == "" {
			continue
		}
		s := 0
		switch {
		case f == term:
			s = ScoreExact
		case strings.HasPrefix(f, term):
			s = ScorePrefix
		case strings.Contains(f, term):
			s = ScoreSubstring
		}
		if s > best {
			best = s
		}
	}
	return best
}
