package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/taskgraph"
)

// DetailModel renders the selected task as scrollable markdown: header,
// objectives, rewards, unlock requirements and follow-ups.
type DetailModel struct {
	vp       viewport.Model
	renderer *MarkdownRenderer
	theme    Theme

	task  *model.Task
	graph *taskgraph.Graph
	ready bool
}

func NewDetailModel(theme Theme) DetailModel {
	return DetailModel{
		renderer: NewMarkdownRenderer(80),
		theme:    theme,
	}
}

func (d *DetailModel) SetSize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if !d.ready {
		d.vp = viewport.New(width, height)
		d.ready = true
	} else {
		d.vp.Width = width
		d.vp.Height = height
	}
	d.renderer.SetWidth(width - 2)
	d.refresh()
}

// SetTask swaps the displayed task. A nil task shows the placeholder. The
// graph supplies prerequisite and follow-up names.
func (d *DetailModel) SetTask(t *model.Task, g *taskgraph.Graph) {
	d.task = t
	d.graph = g
	d.refresh()
	if d.ready {
		d.vp.GotoTop()
	}
}

func (d *DetailModel) refresh() {
	if !d.ready {
		return
	}
	if d.task == nil {
		d.vp.SetContent(d.theme.MutedText.Render("select a task to see its details"))
		return
	}
	d.vp.SetContent(d.renderer.Render(taskMarkdown(d.task, d.graph)))
}

func (d DetailModel) Update(msg tea.Msg) (DetailModel, tea.Cmd) {
	if !d.ready {
		return d, nil
	}
	var cmd tea.Cmd
	d.vp, cmd = d.vp.Update(msg)
	return d, cmd
}

func (d DetailModel) View() string {
	if !d.ready {
		return ""
	}
	return d.vp.View()
}

func (d DetailModel) Task() *model.Task { return d.task }

// WikiLink returns the displayed task's wiki URL, or "".
func (d DetailModel) WikiLink() string {
	if d.task == nil {
		return ""
	}
	return d.task.WikiLink
}

// ScrollPercent reports the viewport position for the footer.
func (d DetailModel) ScrollPercent() float64 {
	if !d.ready {
		return 0
	}
	return d.vp.ScrollPercent()
}

// taskMarkdown builds the markdown document for one task. Empty sections
// are omitted entirely.
func taskMarkdown(t *model.Task, g *taskgraph.Graph) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", t.Name)

	meta := []string{fmt.Sprintf("`%s`", t.ID)}
	if t.Trader.Name != "" {
		meta = append(meta, "**"+t.Trader.Name+"**")
	}
	if t.Group != "" {
		meta = append(meta, t.Group)
	}
	if t.MinPlayerLevel > 0 {
		meta = append(meta, fmt.Sprintf("level %d", t.MinPlayerLevel))
	}
	b.WriteString(strings.Join(meta, " · ") + "\n")

	if len(t.Objectives) > 0 {
		b.WriteString("\n## Objectives\n\n")
		for i, o := range t.Objectives {
			line := o.Description
			if line == "" {
				line = o.TargetItem
			}
			if o.Count > 1 {
				line += fmt.Sprintf(" ×%d", o.Count)
			}
			if o.Optional {
				line += " _(optional)_"
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, line)
		}
	}

	if len(t.Rewards) > 0 {
		b.WriteString("\n## Rewards\n\n")
		for _, r := range t.Rewards {
			fmt.Fprintf(&b, "- %s\n", r.Display())
		}
	}

	if reqs := requirementLines(t, g); len(reqs) > 0 {
		b.WriteString("\n## Requires\n\n")
		for _, line := range reqs {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	if unlocks := unlockLines(t, g); len(unlocks) > 0 {
		b.WriteString("\n## Unlocks\n\n")
		for _, line := range unlocks {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	if t.WikiLink != "" {
		fmt.Fprintf(&b, "\n[Wiki](%s)\n", t.WikiLink)
	}
	return b.String()
}

func requirementLines(t *model.Task, g *taskgraph.Graph) []string {
	var out []string
	for _, r := range t.Requirements {
		switch r.Kind {
		case model.RequirementTask:
			name := r.TaskName
			if g != nil {
				if n, ok := g.Node(r.TaskID); ok && n.Task.Name != "" {
					name = n.Task.Name
				}
			}
			if name == "" {
				name = r.TaskID
			}
			out = append(out, "task: "+name)
		case model.RequirementLevel:
			out = append(out, fmt.Sprintf("player level %d", r.Level))
		default:
			line := r.Kind.String()
			if r.Description != "" {
				line += ": " + r.Description
			} else if r.Value != "" {
				line += ": " + r.Value
			}
			out = append(out, line)
		}
	}
	return out
}

func unlockLines(t *model.Task, g *taskgraph.Graph) []string {
	var out []string
	if g != nil {
		for _, id := range g.Successors(t.ID) {
			if n, ok := g.Node(id); ok && n.Task.Name != "" {
				out = append(out, n.Task.Name)
			} else {
				out = append(out, id)
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, f := range t.FollowUps {
		name := f.TaskName
		if name == "" {
			name = f.TaskID
		}
		out = append(out, name)
	}
	return out
}
