package model

import (
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// RewardKind discriminates the reward union.
type RewardKind int

const (
	KindUnknown RewardKind = iota
	RewardExperience
	RewardMoney
	RewardItem
	RewardSkill
	RewardReputation
	RewardUnlock
)

var rewardKindNames = map[RewardKind]string{
	RewardExperience: "experience",
	RewardMoney:      "money",
	RewardItem:       "item",
	RewardSkill:      "skill",
	RewardReputation: "reputation",
	RewardUnlock:     "unlock",
}

func (k RewardKind) String() string {
	if s, ok := rewardKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseRewardKind maps a wire tag to its kind. Unrecognized tags map to
// KindUnknown; the caller keeps the raw tag for diagnostics.
func ParseRewardKind(s string) RewardKind {
	for k, name := range rewardKindNames {
		if name == s {
			return k
		}
	}
	return KindUnknown
}

// Reward is one entry of a task's reward list. Value is number-or-string on
// the wire; the distinction is preserved because reward search must only see
// textual values.
type Reward struct {
	Kind        RewardKind
	RawKind     string // original wire tag, kept for unknown kinds
	Value       string // textual value, or "" when the wire value was numeric
	Number      float64
	IsNumeric   bool
	Description string
}

// ValueText returns the textual value, or "" for numeric rewards. Search
// code must use this rather than formatting Number.
func (r Reward) ValueText() string {
	if r.IsNumeric {
		return ""
	}
	return r.Value
}

// Display returns a human-readable rendering for UI rows and exports.
func (r Reward) Display() string {
	var v string
	switch {
	case r.IsNumeric:
		v = strconv.FormatFloat(r.Number, 'f', -1, 64)
	default:
		v = r.Value
	}
	if r.Description != "" {
		if v == "" {
			return r.Description
		}
		return r.Description + " (" + v + ")"
	}
	if v == "" {
		return r.Kind.String()
	}
	return v
}

type rewardWire struct {
	Type        string          `json:"type"`
	Value       json.RawMessage `json:"value,omitempty"`
	Description string          `json:"description,omitempty"`
}

// UnmarshalJSON decodes the tagged wire form, preserving whether value was
// numeric or textual.
func (r *Reward) UnmarshalJSON(data []byte) error {
	var w rewardWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.RawKind = w.Type
	r.Kind = ParseRewardKind(w.Type)
	r.Description = w.Description
	r.Value = ""
	r.Number = 0
	r.IsNumeric = false

	if len(w.Value) == 0 || string(w.Value) == "null" {
		return nil
	}
	if w.Value[0] == '"' {
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return err
		}
		r.Value = s
		return nil
	}
	var f float64
	if err := json.Unmarshal(w.Value, &f); err != nil {
		// Tolerate odd shapes (objects, arrays) by keeping the raw text;
		// it still counts as textual for search purposes.
		r.Value = strings.TrimSpace(string(w.Value))
		return nil
	}
	r.Number = f
	r.IsNumeric = true
	return nil
}

// MarshalJSON re-emits the tagged wire form.
func (r Reward) MarshalJSON() ([]byte, error) {
	w := rewardWire{Description: r.Description}
	if r.Kind == KindUnknown && r.RawKind != "" {
		w.Type = r.RawKind
	} else {
		w.Type = r.Kind.String()
	}
	switch {
	case r.IsNumeric:
		b, err := json.Marshal(r.Number)
		if err != nil {
			return nil, err
		}
		w.Value = b
	case r.Value != "":
		b, err := json.Marshal(r.Value)
		if err != nil {
			return nil, err
		}
		w.Value = b
	}
	return json.Marshal(w)
}
