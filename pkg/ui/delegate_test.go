package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/list"
)

func fixtureItems() []list.Item {
	tasks := fixtureTasks()
	items := make([]list.Item, len(tasks))
	for i := range tasks {
		items[i] = TaskItem{Task: &tasks[i]}
	}
	return items
}

func renderRow(t *testing.T, d *TaskDelegate, width, index int) string {
	t.Helper()
	items := fixtureItems()
	l := list.New(items, d, 0, 0)
	l.SetWidth(width)
	var buf bytes.Buffer
	d.Render(&buf, l, index, items[index])
	return buf.String()
}

func TestTaskDelegateColumns(t *testing.T) {
	d := NewTaskDelegate(TestTheme())
	row := renderRow(t, d, 120, 1)
	for _, want := range []string{"Shootout Picnic", "Skier", "L5"} {
		if !strings.Contains(row, want) {
			t.Errorf("row missing %q: %q", want, row)
		}
	}
	if strings.Contains(row, "▸") {
		t.Errorf("unselected row carries the cursor marker: %q", row)
	}
}

func TestTaskDelegateSelectedRow(t *testing.T) {
	d := NewTaskDelegate(TestTheme())
	row := renderRow(t, d, 120, 0)
	if !strings.Contains(row, "▸") {
		t.Errorf("selected row missing cursor marker: %q", row)
	}
	if !strings.Contains(row, "Debut") {
		t.Errorf("selected row missing task name: %q", row)
	}
}

func TestTaskDelegateDimsUnmatchedRows(t *testing.T) {
	d := NewTaskDelegate(TestTheme())
	d.Matched = map[string]bool{"t-shootout": true}

	matched := renderRow(t, d, 120, 1)
	if !strings.Contains(matched, "●") {
		t.Errorf("matched row lost its trader marker: %q", matched)
	}
	if strings.Contains(matched, "·") {
		t.Errorf("matched row rendered dimmed: %q", matched)
	}

	dimmed := renderRow(t, d, 120, 2)
	if !strings.Contains(dimmed, "·") {
		t.Errorf("unmatched row not dimmed: %q", dimmed)
	}
	// De-emphasized, never hidden: the name must survive.
	if !strings.Contains(dimmed, "Forest Cleanup") {
		t.Errorf("dimmed row dropped the task name: %q", dimmed)
	}
}

func TestTaskDelegateScoreBar(t *testing.T) {
	d := NewTaskDelegate(TestTheme())
	d.Scores = map[string]int{"t-shootout": 100, "t-forest": 10}
	d.MaxScore = 100

	top := renderRow(t, d, 120, 1)
	if !strings.Contains(top, "█████") {
		t.Errorf("top-score row missing full bar: %q", top)
	}
	partial := renderRow(t, d, 120, 2)
	if !strings.Contains(partial, "█░░░░") {
		t.Errorf("low-score row missing partial bar: %q", partial)
	}
	none := renderRow(t, d, 120, 3)
	if strings.Contains(none, "█") {
		t.Errorf("zero-score row rendered a filled bar: %q", none)
	}
}

func TestTaskDelegateNarrowWidthDropsColumns(t *testing.T) {
	d := NewTaskDelegate(TestTheme())
	row := renderRow(t, d, 50, 1)
	if !strings.Contains(row, "Shootout Picnic") {
		t.Errorf("narrow row missing task name: %q", row)
	}
	if strings.Contains(row, "Skier") || strings.Contains(row, "L5") {
		t.Errorf("narrow row still renders wide columns: %q", row)
	}
}

func TestTaskDelegateWideWidthAddsGroup(t *testing.T) {
	d := NewTaskDelegate(TestTheme())
	row := renderRow(t, d, 160, 1)
	if !strings.Contains(row, "战斗任务") {
		t.Errorf("wide row missing group column: %q", row)
	}
}

func TestTaskDelegateTinyWidthRendersNothing(t *testing.T) {
	d := NewTaskDelegate(TestTheme())
	row := renderRow(t, d, 8, 0)
	if row != "" {
		t.Errorf("expected no output below the minimum width, got %q", row)
	}
}
