package taskgraph

import (
	"github.com/vanderheijden86/questwork/pkg/model"
)

// ComputeFollowUps inverts the task-type requirement relation over the full
// set: for every task that declares prerequisite p, the task is registered
// as a follow-up of p. Must run over the whole collection before any
// per-task use, since a task's follow-up list cannot be derived from the
// task alone.
//
// Each (prerequisite, task) pair contributes at most one entry even when the
// requirement is declared twice. Only prerequisites present in the set get
// entries; dangling references are dropped.
func ComputeFollowUps(tasks []model.Task) map[string][]model.FollowUp {
	present := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		present[t.ID] = true
	}

	followUps := make(map[string][]model.FollowUp)
	seen := make(map[[2]string]bool)
	for _, t := range tasks {
		for _, preID := range t.PrerequisiteIDs() {
			if preID == t.ID || !present[preID] {
				continue
			}
			key := [2]string{preID, t.ID}
			if seen[key] {
				continue
			}
			seen[key] = true
			followUps[preID] = append(followUps[preID], model.FollowUp{
				TaskID:     t.ID,
				TaskName:   t.Name,
				TraderName: t.Trader.Name,
			})
		}
	}
	return followUps
}

// ApplyFollowUps recomputes the follow-up relation and writes it back onto
// every task, replacing whatever was there. Tasks with no follow-ups get nil.
func ApplyFollowUps(tasks []model.Task) {
	followUps := ComputeFollowUps(tasks)
	for i := range tasks {
		tasks[i].FollowUps = followUps[tasks[i].ID]
	}
}
