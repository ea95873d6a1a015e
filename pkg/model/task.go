// Package model defines the normalized quest task records that the rest of
// questwork consumes: traders, objectives, rewards, unlock requirements, and
// the derived follow-up relation.
//
// Rewards and requirements are closed unions keyed by a kind tag so that
// switches over them are exhaustiveness-checkable. Unknown kinds coming from
// upstream data decode into KindUnknown and surface as validation warnings
// rather than errors; the loaders decide how loudly to report them.
package model

import (
	"fmt"
	"strings"
)

// Trader identifies the quest giver.
type Trader struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Objective is a single step of a task. Order matters.
type Objective struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Kind        string `json:"type,omitempty"`
	Count       int    `json:"count,omitempty"`
	TargetItem  string `json:"targetItem,omitempty"`
	Optional    bool   `json:"optional,omitempty"`
}

// FollowUp is the inverse of a task-type requirement: a task that lists the
// current task as a prerequisite. Derived by taskgraph.ComputeFollowUps,
// never authored in source data.
type FollowUp struct {
	TaskID     string `json:"taskId"`
	TaskName   string `json:"taskName"`
	TraderName string `json:"traderName,omitempty"`
}

// Task is one quest record.
type Task struct {
	ID             string        `json:"taskId"`
	Name           string        `json:"taskName"`
	Group          string        `json:"taskGroup,omitempty"`
	Trader         Trader        `json:"trader"`
	Objectives     []Objective   `json:"objectives,omitempty"`
	Rewards        []Reward      `json:"rewards,omitempty"`
	Requirements   []Requirement `json:"unlockRequirements,omitempty"`
	FollowUps      []FollowUp    `json:"followUpTasks,omitempty"`
	MinPlayerLevel int           `json:"minPlayerLevel,omitempty"`
	WikiLink       string        `json:"wikiLink,omitempty"`
}

// PrerequisiteIDs returns the task IDs this task declares as task-type
// requirements, in declaration order. Dangling IDs are included; the graph
// builder decides whether an edge materializes.
func (t *Task) PrerequisiteIDs() []string {
	var ids []string
	for _, r := range t.Requirements {
		if r.Kind == RequirementTask && r.TaskID != "" {
			ids = append(ids, r.TaskID)
		}
	}
	return ids
}

// Validate returns human-readable warnings about the record. Absent
// collections are fine; only genuinely suspicious data is reported.
func (t *Task) Validate() []string {
	var warns []string
	if strings.TrimSpace(t.ID) == "" {
		warns = append(warns, "task has empty taskId")
	}
	if strings.TrimSpace(t.Name) == "" {
		warns = append(warns, fmt.Sprintf("task %s has empty taskName", t.ID))
	}
	if t.MinPlayerLevel < 0 {
		warns = append(warns, fmt.Sprintf("task %s has negative minPlayerLevel %d", t.ID, t.MinPlayerLevel))
	}
	for i, r := range t.Rewards {
		if r.Kind == KindUnknown {
			warns = append(warns, fmt.Sprintf("task %s reward %d has unknown type %q", t.ID, i, r.RawKind))
		}
	}
	for i, req := range t.Requirements {
		if req.Kind == RequirementUnknown {
			warns = append(warns, fmt.Sprintf("task %s requirement %d has unknown type %q", t.ID, i, req.RawKind))
		}
		if req.Kind == RequirementTask && req.TaskID == t.ID {
			warns = append(warns, fmt.Sprintf("task %s requires itself", t.ID))
		}
	}
	return warns
}
