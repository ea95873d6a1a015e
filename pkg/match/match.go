// Package match evaluates filter predicates and reward searches over
// task collections. Everything here is a pure function; the selection
// store owns the filter values and the UI owns what to do with the
// results.
package match

import (
	"strings"

	"github.com/vanderheijden86/questwork/pkg/metrics"
	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/taskgraph"
)

// Filters holds the three independent constraints a task must satisfy.
// Zero values disable the corresponding constraint, so the zero Filters
// matches every task.
type Filters struct {
	// Trader must equal the task's trader name exactly, case-sensitive.
	Trader string
	// Search matches the task name or trader name as a case-insensitive
	// substring. Surrounding whitespace is ignored, inner is not.
	Search string
	// RewardTerm requires at least one reward to match the term.
	RewardTerm string
}

// Active reports whether any constraint would actually filter.
func (f Filters) Active() bool {
	return f.Trader != "" ||
		strings.TrimSpace(f.Search) != "" ||
		strings.TrimSpace(f.RewardTerm) != ""
}

// IsMatched reports whether the task satisfies every active constraint.
func IsMatched(t model.Task, f Filters) bool {
	return matchesTrader(t, f.Trader) &&
		matchesSearch(t, f.Search) &&
		matchesReward(t, f.RewardTerm)
}

// IsRewardMatched reports whether a single reward matches the term.
// Only the description and textual values participate; numeric values
// never match a text search. Empty terms match nothing.
func IsRewardMatched(r model.Reward, term string) bool {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return false
	}
	if d := strings.ToLower(r.Description); d != "" && strings.Contains(d, needle) {
		return true
	}
	if v := strings.ToLower(r.ValueText()); v != "" && strings.Contains(v, needle) {
		return true
	}
	return false
}

// FilterTasks returns the tasks that satisfy every active constraint,
// preserving input order.
func FilterTasks(tasks []model.Task, f Filters) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if IsMatched(t, f) {
			out = append(out, t)
		}
	}
	return out
}

// Annotate sets the Matched flag on every node of the graph and returns
// how many nodes matched. The full set is computed in one pass so the
// list and the canvas agree on it regardless of what is on screen.
func Annotate(g *taskgraph.Graph, f Filters) int {
	done := metrics.Timer(metrics.MatchAnnotate)
	defer done()

	n := 0
	for _, node := range g.Nodes() {
		node.Matched = IsMatched(node.Task, f)
		if node.Matched {
			n++
		}
	}
	return n
}

func matchesTrader(t model.Task, trader string) bool {
	if trader == "" {
		return true
	}
	return t.Trader.Name == trader
}

func matchesSearch(t model.Task, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	return strings.Contains(strings.ToLower(t.Name), needle) ||
		strings.Contains(strings.ToLower(t.Trader.Name), needle)
}

func matchesReward(t model.Task, term string) bool {
	if strings.TrimSpace(term) == "" {
		return true
	}
	for _, r := range t.Rewards {
		if IsRewardMatched(r, term) {
			return true
		}
	}
	return false
}
