package taskgraph_test

import (
	"testing"

	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/taskgraph"
)

func TestComputeFollowUps(t *testing.T) {
	tasks := []model.Task{
		task("a", "A"),
		task("b", "B", "a"),
		task("c", "C", "a", "b"),
	}
	followUps := taskgraph.ComputeFollowUps(tasks)

	a := followUps["a"]
	if len(a) != 2 {
		t.Fatalf("followUps[a] = %v, want b and c", a)
	}
	if a[0].TaskID != "b" || a[1].TaskID != "c" {
		t.Errorf("followUps[a] order = %v, want declaration order b, c", a)
	}
	if a[0].TaskName != "B" || a[0].TraderName != "Prapor" {
		t.Errorf("follow-up metadata wrong: %+v", a[0])
	}

	b := followUps["b"]
	if len(b) != 1 || b[0].TaskID != "c" {
		t.Errorf("followUps[b] = %v, want [c]", b)
	}
	if len(followUps["c"]) != 0 {
		t.Errorf("leaf task has follow-ups: %v", followUps["c"])
	}
}

// Every prerequisite relation appears in the inverse exactly once, even when
// a task declares the same requirement twice.
func TestComputeFollowUpsDuality(t *testing.T) {
	tasks := []model.Task{
		task("a", "A"),
		task("b", "B", "a", "a"),
		task("c", "C", "b"),
	}
	followUps := taskgraph.ComputeFollowUps(tasks)

	for _, tk := range tasks {
		for _, preID := range tk.PrerequisiteIDs() {
			count := 0
			for _, fu := range followUps[preID] {
				if fu.TaskID == tk.ID {
					count++
				}
			}
			if count != 1 {
				t.Errorf("task %s appears %d times in followUps[%s], want exactly 1",
					tk.ID, count, preID)
			}
		}
	}
}

func TestComputeFollowUpsDanglingDropped(t *testing.T) {
	tasks := []model.Task{task("b", "B", "ghost")}
	followUps := taskgraph.ComputeFollowUps(tasks)

	if len(followUps) != 0 {
		t.Errorf("dangling prerequisite produced follow-ups: %v", followUps)
	}
}

func TestApplyFollowUps(t *testing.T) {
	tasks := []model.Task{
		task("a", "A"),
		task("b", "B", "a"),
	}
	// Stale hand-edited entry that recomputation must replace.
	tasks[0].FollowUps = []model.FollowUp{{TaskID: "stale", TaskName: "Stale"}}
	tasks[1].FollowUps = []model.FollowUp{{TaskID: "stale", TaskName: "Stale"}}

	taskgraph.ApplyFollowUps(tasks)

	if len(tasks[0].FollowUps) != 1 || tasks[0].FollowUps[0].TaskID != "b" {
		t.Errorf("tasks[0].FollowUps = %v, want [b]", tasks[0].FollowUps)
	}
	if tasks[1].FollowUps != nil {
		t.Errorf("tasks[1].FollowUps = %v, want nil", tasks[1].FollowUps)
	}
}
