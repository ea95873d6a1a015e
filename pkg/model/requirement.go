package model

import (
	json "github.com/goccy/go-json"
)

// RequirementKind discriminates the unlock requirement union.
type RequirementKind int

const (
	RequirementUnknown RequirementKind = iota
	RequirementTask
	RequirementLevel
	RequirementReputation
	RequirementSkill
)

var requirementKindNames = map[RequirementKind]string{
	RequirementTask:       "task",
	RequirementLevel:      "level",
	RequirementReputation: "reputation",
	RequirementSkill:      "skill",
}

func (k RequirementKind) String() string {
	if s, ok := requirementKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseRequirementKind maps a wire tag to its kind; unrecognized tags map to
// RequirementUnknown.
func ParseRequirementKind(s string) RequirementKind {
	for k, name := range requirementKindNames {
		if name == s {
			return k
		}
	}
	return RequirementUnknown
}

// Requirement is one unlock condition of a task. The populated fields depend
// on Kind: task carries TaskID/TaskName, level carries Level, reputation and
// skill carry Value/Description.
type Requirement struct {
	Kind        RequirementKind
	RawKind     string
	TaskID      string
	TaskName    string
	Level       int
	Value       string
	Description string
}

type requirementWire struct {
	Type        string `json:"type"`
	TaskID      string `json:"taskId,omitempty"`
	TaskName    string `json:"taskName,omitempty"`
	Level       int    `json:"level,omitempty"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
}

func (r *Requirement) UnmarshalJSON(data []byte) error {
	var w requirementWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.RawKind = w.Type
	r.Kind = ParseRequirementKind(w.Type)
	r.TaskID = w.TaskID
	r.TaskName = w.TaskName
	r.Level = w.Level
	r.Value = w.Value
	r.Description = w.Description
	return nil
}

func (r Requirement) MarshalJSON() ([]byte, error) {
	w := requirementWire{
		TaskID:      r.TaskID,
		TaskName:    r.TaskName,
		Level:       r.Level,
		Value:       r.Value,
		Description: r.Description,
	}
	if r.Kind == RequirementUnknown && r.RawKind != "" {
		w.Type = r.RawKind
	} else {
		w.Type = r.Kind.String()
	}
	return json.Marshal(w)
}
