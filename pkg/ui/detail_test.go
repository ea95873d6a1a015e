package ui

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/questwork/pkg/model"
)

func TestTaskMarkdownSections(t *testing.T) {
	g, _ := fixtureGraph()
	md := taskMarkdown(fixtureTask(g, "t-debut"), g)

	for _, want := range []string{
		"# Debut",
		"`t-debut`",
		"**Prapor**",
		"level 1",
		"## Objectives",
		"1. Eliminate 5 scavs ×5",
		"2. Hand over a shotgun _(optional)_",
		"## Rewards",
		"- AK-74U assault rifle",
		"## Unlocks",
		"- Shootout Picnic",
		"- Forest Cleanup",
		"[Wiki](https://wiki.example/Debut)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "## Requires") {
		t.Errorf("root task rendered a Requires section:\n%s", md)
	}
}

func TestTaskMarkdownRequirements(t *testing.T) {
	g, _ := fixtureGraph()
	md := taskMarkdown(fixtureTask(g, "t-forest"), g)
	if !strings.Contains(md, "- task: Debut") {
		t.Errorf("markdown missing prerequisite task:\n%s", md)
	}
	if !strings.Contains(md, "- player level 7") {
		t.Errorf("markdown missing level requirement:\n%s", md)
	}

	md = taskMarkdown(fixtureTask(g, "t-final"), g)
	if !strings.Contains(md, "- Roubles (250000)") {
		t.Errorf("markdown missing described money reward:\n%s", md)
	}
}

func TestTaskMarkdownMinimal(t *testing.T) {
	task := &model.Task{ID: "t-bare", Name: "Bare"}
	md := taskMarkdown(task, nil)
	if !strings.Contains(md, "# Bare") {
		t.Errorf("markdown missing title:\n%s", md)
	}
	if strings.Contains(md, "## ") {
		t.Errorf("empty sections rendered:\n%s", md)
	}
}

func TestTaskMarkdownFollowUpFallback(t *testing.T) {
	// Without a graph the derived follow-ups still populate Unlocks.
	task := &model.Task{
		ID:   "t-orphan",
		Name: "Orphan",
		FollowUps: []model.FollowUp{
			{TaskID: "t-next", TaskName: "Next Step"},
		},
	}
	md := taskMarkdown(task, nil)
	if !strings.Contains(md, "## Unlocks") || !strings.Contains(md, "- Next Step") {
		t.Errorf("follow-up fallback missing:\n%s", md)
	}
}

func TestDetailModelView(t *testing.T) {
	g, _ := fixtureGraph()
	d := NewDetailModel(TestTheme())
	d.SetSize(60, 20)
	d.SetTask(fixtureTask(g, "t-debut"), g)

	out := d.View()
	if !strings.Contains(out, "Debut") {
		t.Errorf("detail view missing task name:\n%s", out)
	}
	if d.WikiLink() != "https://wiki.example/Debut" {
		t.Errorf("wiki link = %q", d.WikiLink())
	}
	if got := d.Task(); got == nil || got.ID != "t-debut" {
		t.Errorf("displayed task = %v", got)
	}
}

func TestDetailModelPlaceholder(t *testing.T) {
	d := NewDetailModel(TestTheme())
	if d.View() != "" {
		t.Error("view rendered before sizing")
	}
	d.SetSize(60, 10)
	if out := d.View(); !strings.Contains(out, "select a task") {
		t.Errorf("placeholder missing:\n%s", out)
	}
	if d.WikiLink() != "" {
		t.Errorf("wiki link without a task = %q", d.WikiLink())
	}
}

func TestMarkdownRendererFallback(t *testing.T) {
	var r MarkdownRenderer
	const src = "# Raw"
	if got := r.Render(src); got != src {
		t.Errorf("uninitialized renderer = %q, want raw input", got)
	}

	nr := NewMarkdownRenderer(0)
	if out := nr.Render("plain text"); out == "" {
		t.Error("renderer produced no output")
	}
}
