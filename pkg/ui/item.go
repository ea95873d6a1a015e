package ui

import (
	"strings"

	"github.com/vanderheijden86/questwork/pkg/model"
)

// TaskItem adapts one task record for the bubbles list. The list holds
// every task up front, in input order; filters never remove rows, they only
// change how the delegate paints them.
type TaskItem struct {
	Task *model.Task
}

func (i TaskItem) Title() string {
	return i.Task.Name
}

func (i TaskItem) Description() string {
	parts := []string{i.Task.Trader.Name}
	if i.Task.Group != "" {
		parts = append(parts, i.Task.Group)
	}
	if i.Task.MinPlayerLevel > 0 {
		parts = append(parts, formatLevel(i.Task.MinPlayerLevel))
	}
	return strings.Join(parts, " · ")
}

// FilterValue satisfies list.Item. The list's built-in filter stays
// disabled because matching is the filter engine's job, but the value is
// still meaningful if a caller enables it.
func (i TaskItem) FilterValue() string {
	return strings.Join([]string{
		i.Task.Name,
		i.Task.ID,
		i.Task.Trader.Name,
		i.Task.Group,
	}, " ")
}
