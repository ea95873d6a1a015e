package ui_test

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/questwork/pkg/config"
	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/ui"
)

func demoTasks() []model.Task {
	return []model.Task{
		{
			ID:             "t-debut",
			Name:           "Debut",
			Trader:         model.Trader{ID: "prapor", Name: "Prapor"},
			MinPlayerLevel: 1,
			Rewards: []model.Reward{
				{Kind: model.RewardItem, Value: "AK-74U assault rifle"},
			},
			WikiLink: "https://wiki.example/Debut",
		},
		{
			ID:     "t-shootout",
			Name:   "Shootout Picnic",
			Trader: model.Trader{ID: "skier", Name: "Skier"},
			Group:  "战斗任务",
			Requirements: []model.Requirement{
				{Kind: model.RequirementTask, TaskID: "t-debut"},
			},
			Rewards: []model.Reward{
				{Kind: model.RewardItem, Value: "突击步枪"},
			},
		},
		{
			ID:     "t-forest",
			Name:   "Forest Cleanup",
			Trader: model.Trader{ID: "prapor", Name: "Prapor"},
			Requirements: []model.Requirement{
				{Kind: model.RequirementTask, TaskID: "t-debut"},
			},
		},
		{
			ID:     "t-final",
			Name:   "Final Push",
			Trader: model.Trader{ID: "skier", Name: "Skier"},
			Requirements: []model.Requirement{
				{Kind: model.RequirementTask, TaskID: "t-shootout"},
				{Kind: model.RequirementTask, TaskID: "t-forest"},
			},
		},
	}
}

func newDemoModel(t *testing.T, mc ui.ModelConfig) ui.Model {
	t.Helper()
	if mc.Tasks == nil {
		mc.Tasks = demoTasks()
	}
	m := ui.NewModel(mc)
	t.Cleanup(m.Close)
	return m
}

func keyRune(r rune) tea.Msg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func update(t *testing.T, m ui.Model, msg tea.Msg) (ui.Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	um, ok := updated.(ui.Model)
	if !ok {
		t.Fatalf("Update returned %T", updated)
	}
	return um, cmd
}

func syncState(t *testing.T, m ui.Model) (ui.Model, tea.Cmd) {
	t.Helper()
	return update(t, m, ui.StateChangedMsg{State: m.Store().State()})
}

func TestNewModelCounts(t *testing.T) {
	m := newDemoModel(t, ui.ModelConfig{SourceName: "demo"})
	if m.TaskCount() != 4 {
		t.Errorf("task count = %d, want 4", m.TaskCount())
	}
	st := m.Stats()
	if st.NodeCount != 4 || st.EdgeCount != 4 {
		t.Errorf("stats = %d nodes %d edges, want 4 and 4", st.NodeCount, st.EdgeCount)
	}
	if m.MatchCount() != 4 {
		t.Errorf("match count without filters = %d, want 4", m.MatchCount())
	}
	if got := m.Traders(); len(got) != 2 || got[0] != "Prapor" || got[1] != "Skier" {
		t.Errorf("traders = %v", got)
	}
}

func TestModelViewRendersEverything(t *testing.T) {
	m := newDemoModel(t, ui.ModelConfig{SourceName: "demo"})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 150, Height: 45})

	out := m.View()
	for _, want := range []string{"questwork", "demo", "4 tasks · 4 edges", "Debut", "Shootout Picnic"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if !strings.Contains(out, "╭") {
		t.Error("split view missing the graph canvas")
	}
}

func TestModelNarrowTerminalDegradesToList(t *testing.T) {
	m := newDemoModel(t, ui.ModelConfig{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	if out := m.View(); !strings.Contains(out, "[list]") {
		t.Error("narrow split view did not degrade to the list")
	}
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 150, Height: 45})
	if out := m.View(); !strings.Contains(out, "[split]") {
		t.Error("wide terminal did not restore the split view")
	}
}

func TestModelTraderCycle(t *testing.T) {
	m := newDemoModel(t, ui.ModelConfig{})
	m, _ = update(t, m, keyRune('t'))
	if got := m.Store().State().TraderFilter; got != "Prapor" {
		t.Fatalf("first cycle = %q, want Prapor", got)
	}
	m, _ = update(t, m, keyRune('t'))
	if got := m.Store().State().TraderFilter; got != "Skier" {
		t.Fatalf("second cycle = %q, want Skier", got)
	}
	m, _ = update(t, m, keyRune('t'))
	if got := m.Store().State().TraderFilter; got != "" {
		t.Fatalf("third cycle = %q, want empty", got)
	}
	m, _ = update(t, m, keyRune('T'))
	if got := m.Store().State().TraderFilter; got != "Skier" {
		t.Fatalf("reverse cycle = %q, want Skier", got)
	}
}

func TestModelFavoriteKeys(t *testing.T) {
	m := newDemoModel(t, ui.ModelConfig{
		Config: config.Config{Favorites: map[int]string{1: "Skier"}},
	})
	m, _ = update(t, m, keyRune('1'))
	if got := m.Store().State().TraderFilter; got != "Skier" {
		t.Errorf("favorite 1 = %q, want Skier", got)
	}
	m, _ = update(t, m, keyRune('2'))
	if got := m.Store().State().TraderFilter; got != "Skier" {
		t.Errorf("unset favorite changed the filter to %q", got)
	}
}

func TestModelFilterAnnotatesEverything(t *testing.T) {
	m := newDemoModel(t, ui.ModelConfig{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 150, Height: 45})

	m.Store().SetTraderFilter("Skier")
	m, _ = syncState(t, m)
	if m.MatchCount() != 2 {
		t.Fatalf("trader filter match count = %d, want 2", m.MatchCount())
	}
	out := m.View()
	if !strings.Contains(out, "2/4 match") {
		t.Error("header missing the match counter")
	}
	// De-emphasized, never hidden.
	for _, want := range []string{"Debut", "Forest Cleanup"} {
		if !strings.Contains(out, want) {
			t.Errorf("filtered view dropped %q", want)
		}
	}

	m.Store().ClearFilters()
	m, _ = syncState(t, m)
	if m.MatchCount() != 4 {
		t.Errorf("match count after clear = %d, want 4", m.MatchCount())
	}
}

func TestModelCombinedFilters(t *testing.T) {
	m := newDemoModel(t, ui.ModelConfig{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 150, Height: 45})

	st := m.Store()
	st.SetTraderFilter("Skier")
	st.SetSearchTerm("picnic")
	st.SetRewardSearchTerm("突击步枪")
	m, _ = syncState(t, m)

	if m.MatchCount() != 1 {
		t.Fatalf("combined filters match count = %d, want 1", m.MatchCount())
	}
	out := m.View()
	if !strings.Contains(out, "1/4 match") {
		t.Error("header missing the combined match counter")
	}
	if !strings.Contains(out, "top: Shootout Picnic") {
		t.Error("search line missing the top reward match")
	}
}

func TestModelSelectAndFocusFlow(t *testing.T) {
	m := newDemoModel(t, ui.ModelConfig{
		Config: config.Config{Viewport: config.ViewportConfig{PanMs: 20, HighlightMs: 80}},
	})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 150, Height: 45})

	// Enter on the list cursor selects and requests a one-shot focus.
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	st := m.Store().State()
	if st.SelectedTaskID != "t-debut" {
		t.Fatalf("selected = %q, want t-debut", st.SelectedTaskID)
	}
	if st.FocusTaskID != "t-debut" {
		t.Fatalf("focus request = %q, want t-debut", st.FocusTaskID)
	}

	m, cmd := syncState(t, m)
	if cmd == nil {
		t.Fatal("focus consumption scheduled no repaints")
	}
	if st := m.Store().State(); st.FocusTaskID != "" {
		t.Fatalf("focus request not drained: %q", st.FocusTaskID)
	}
	if got := m.SelectedTask(); got == nil || got.ID != "t-debut" {
		t.Fatalf("selected task = %v", got)
	}

	gv := m.GraphView()
	pos, ok := gv.NodePosition("t-debut")
	if !ok {
		t.Fatal("selected node has no position")
	}
	cam := gv.Camera()
	if cam.X != pos.X+12 || cam.Y != pos.Y+2.5 {
		t.Errorf("camera = %v, want node centre", cam)
	}

	deadline := time.Now().Add(time.Second)
	for !gv.Highlighted("t-debut") {
		if time.Now().After(deadline) {
			t.Fatal("focus flash never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
	deadline = time.Now().Add(time.Second)
	for gv.Highlighted("t-debut") {
		if time.Now().After(deadline) {
			t.Fatal("focus flash never cleared")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Re-selecting the same task must not pan again without a new request.
	if id, ok := m.Store().TakeFocus(); ok {
		t.Errorf("stale focus request %q left behind", id)
	}
}

func TestModelEscClearsSelection(t *testing.T) {
	m := newDemoModel(t, ui.ModelConfig{})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Store().State().SelectedTaskID == "" {
		t.Fatal("enter selected nothing")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	if got := m.Store().State().SelectedTaskID; got != "" {
		t.Errorf("esc left %q selected", got)
	}
}

func TestModelViewModeKeys(t *testing.T) {
	m := newDemoModel(t, ui.ModelConfig{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 150, Height: 45})

	m, _ = update(t, m, keyRune('g'))
	if out := m.View(); !strings.Contains(out, "[graph]") {
		t.Error("g did not switch to the graph view")
	}
	m, _ = update(t, m, keyRune('g'))
	if out := m.View(); !strings.Contains(out, "[split]") {
		t.Error("g did not toggle back to the split view")
	}
	m, _ = update(t, m, keyRune('v'))
	if out := m.View(); !strings.Contains(out, "[list]") {
		t.Error("v did not cycle to the list view")
	}
}

func TestModelReload(t *testing.T) {
	next := append(demoTasks(),
		model.Task{ID: "t-extra", Name: "Extra Credit", Trader: model.Trader{Name: "Mechanic"}})
	m := newDemoModel(t, ui.ModelConfig{
		Reload: func() ([]model.Task, error) { return next, nil },
	})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 150, Height: 45})

	m.Store().SelectTask("t-debut")
	m, _ = syncState(t, m)

	m, cmd := update(t, m, ui.FileChangedMsg{})
	if cmd == nil {
		t.Fatal("reload returned no command")
	}
	if m.TaskCount() != 5 {
		t.Fatalf("task count after reload = %d, want 5", m.TaskCount())
	}
	if m.Stats().NodeCount != 5 {
		t.Errorf("stats not rebuilt: %d nodes", m.Stats().NodeCount)
	}
	// The surviving selection stays put.
	if got := m.Store().State().SelectedTaskID; got != "t-debut" {
		t.Errorf("selection lost on reload: %q", got)
	}
	if len(m.Traders()) != 3 {
		t.Errorf("traders not rebuilt: %v", m.Traders())
	}
}

func TestModelReloadDropsVanishedSelection(t *testing.T) {
	m := newDemoModel(t, ui.ModelConfig{
		Reload: func() ([]model.Task, error) { return demoTasks()[:2], nil },
	})
	m.Store().SelectTask("t-final")
	m, _ = syncState(t, m)

	m, _ = update(t, m, ui.FileChangedMsg{})
	if got := m.Store().State().SelectedTaskID; got != "" {
		t.Errorf("vanished task still selected: %q", got)
	}
}

func TestModelQuitKeys(t *testing.T) {
	m := newDemoModel(t, ui.ModelConfig{})
	_, cmd := update(t, m, keyRune('q'))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c did not quit")
	}
}

func TestModelSearchBarOwnsKeys(t *testing.T) {
	m := newDemoModel(t, ui.ModelConfig{
		Config: config.Config{Search: config.SearchConfig{DebounceMs: 10}},
	})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 150, Height: 45})

	// While the bar is focused, q types instead of quitting.
	m, _ = update(t, m, keyRune('/'))
	m, _ = update(t, m, keyRune('q'))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.Store().State().SearchTerm; got != "q" {
		t.Errorf("committed term = %q, want q", got)
	}
	if out := m.View(); !strings.Contains(out, "search=q") {
		t.Error("search line missing the applied filter")
	}
}

func TestModelHelpOverlay(t *testing.T) {
	m := newDemoModel(t, ui.ModelConfig{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 150, Height: 45})

	m, _ = update(t, m, keyRune('?'))
	out := m.View()
	if !strings.Contains(out, "navigate") {
		t.Error("help overlay not shown")
	}
	// The search hint must promise only what the match engine does.
	if !strings.Contains(out, "search by task or trader name") {
		t.Error("help overlay misdescribes the search scope")
	}
	// q dismisses the overlay instead of quitting.
	m, cmd := update(t, m, keyRune('q'))
	if cmd != nil {
		t.Error("q quit instead of closing help")
	}
	if out := m.View(); strings.Contains(out, "navigate") {
		t.Error("help overlay still up after dismissal")
	}
}
