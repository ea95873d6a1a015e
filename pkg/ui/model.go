package ui

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/questwork/pkg/config"
	"github.com/vanderheijden86/questwork/pkg/layout"
	"github.com/vanderheijden86/questwork/pkg/match"
	"github.com/vanderheijden86/questwork/pkg/metrics"
	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/selection"
	"github.com/vanderheijden86/questwork/pkg/taskgraph"
	"github.com/vanderheijden86/questwork/pkg/viewport"
	"github.com/vanderheijden86/questwork/pkg/watcher"
)

const (
	// SplitViewThreshold is the terminal width below which the split view
	// degrades to the list view.
	SplitViewThreshold = 100

	defaultWidth  = 120
	defaultHeight = 40

	refreshCooldown = time.Second
	statusLifetime  = 4 * time.Second
)

type viewMode int

const (
	viewSplit viewMode = iota
	viewList
	viewGraph
)

func parseViewMode(s string) viewMode {
	switch s {
	case "list":
		return viewList
	case "graph":
		return viewGraph
	default:
		return viewSplit
	}
}

func (v viewMode) String() string {
	switch v {
	case viewList:
		return "list"
	case viewGraph:
		return "graph"
	default:
		return "split"
	}
}

type paneFocus int

const (
	focusList paneFocus = iota
	focusGraph
	focusDetail
)

// StateChangedMsg is delivered whenever the selection store notifies. The
// handler re-reads the store, so coalesced notifications lose nothing.
type StateChangedMsg struct{ State selection.State }

// FileChangedMsg is delivered when the source watcher reports a change.
type FileChangedMsg struct{}

type autoCloseMsg struct{}

type repaintMsg struct{}

type statusExpireMsg struct{ id int }

func waitForStateCmd(ch <-chan selection.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return StateChangedMsg{State: st}
	}
}

func watchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

func repaintAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return repaintMsg{} })
}

func expireStatusCmd(id int) tea.Cmd {
	return tea.Tick(statusLifetime, func(time.Time) tea.Msg { return statusExpireMsg{id: id} })
}

// autoCloseDelay reads QW_TUI_AUTOCLOSE_MS. Smoke tests set it so the TUI
// starts, renders and exits without input.
func autoCloseDelay() time.Duration {
	raw := os.Getenv("QW_TUI_AUTOCLOSE_MS")
	if raw == "" {
		return 0
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// ModelConfig carries everything the root model needs at startup.
type ModelConfig struct {
	Tasks      []model.Task
	SourceName string // shown in the header
	WatchPath  string // file the watcher follows; empty disables watching
	Config     config.Config

	// Reload re-reads the source. Nil disables both the watcher and the
	// manual refresh key.
	Reload func() ([]model.Task, error)
}

// Model is the root program model. The task graph and its layout are
// rebuilt only when the underlying data changes; filter keystrokes just
// re-annotate the existing graph.
type Model struct {
	cfg    config.Config
	tasks  []model.Task
	graph  *taskgraph.Graph
	stats  taskgraph.Stats
	res    *layout.Result
	lcache *layout.Cache
	lopts  layout.Options

	store      *selection.Store
	controller *viewport.Controller
	watch      *watcher.Watcher
	reload     func() ([]model.Task, error)
	sourceName string

	theme     Theme
	list      list.Model
	delegate  *TaskDelegate
	graphview *GraphView
	detail    DetailModel
	searchbar SearchBar

	traders []string

	matchCount int
	rewardInfo string

	mode     viewMode
	focus    paneFocus
	showHelp bool

	width, height int
	bodyHeight    int
	listWidth     int
	rightWidth    int
	graphHeight   int
	detailHeight  int

	panDur   time.Duration
	flashDur time.Duration

	statusMsg   string
	statusIsErr bool
	statusID    int
	lastRefresh time.Time

	stateCh     chan selection.State
	unsubscribe func()
}

func NewModel(mc ModelConfig) Model {
	theme := DefaultTheme(lipgloss.DefaultRenderer())

	tasks := mc.Tasks
	grph := taskgraph.Build(tasks)

	lopts := TerminalLayoutOptions(mc.Config.LayoutOptions())
	lcache := layout.NewCache(0)
	res := lcache.Compute(grph, lopts)

	store := selection.NewStore()
	stateCh := make(chan selection.State, 16)
	unsub := store.Subscribe(func(st selection.State) {
		// Non-blocking: a full buffer means a wakeup is already queued
		// and the handler re-reads the store anyway.
		select {
		case stateCh <- st:
		default:
		}
	})

	gv := NewGraphView(theme, lopts)
	gv.SetData(grph, res)

	vopts := append(mc.Config.ViewportOptions(),
		viewport.WithNodeSize(lopts.NodeWidth, lopts.NodeHeight))
	controller := viewport.NewController(gv, vopts...)

	delegate := NewTaskDelegate(theme)
	items := make([]list.Item, 0, len(tasks))
	for i := range tasks {
		items = append(items, TaskItem{Task: &tasks[i]})
	}
	l := list.New(items, delegate, defaultWidth/3, defaultHeight-3)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.TitleBar = lipgloss.NewStyle()
	l.Styles.StatusBar = lipgloss.NewStyle()
	l.Styles.PaginationStyle = lipgloss.NewStyle()
	l.Styles.HelpStyle = lipgloss.NewStyle()

	panDur := viewport.DefaultPanDuration
	if mc.Config.Viewport.PanMs > 0 {
		panDur = time.Duration(mc.Config.Viewport.PanMs) * time.Millisecond
	}
	flashDur := viewport.DefaultHighlightDuration
	if mc.Config.Viewport.HighlightMs > 0 {
		flashDur = time.Duration(mc.Config.Viewport.HighlightMs) * time.Millisecond
	}

	m := Model{
		cfg:         mc.Config,
		tasks:       tasks,
		graph:       grph,
		stats:       taskgraph.ComputeStats(grph),
		res:         res,
		lcache:      lcache,
		lopts:       lopts,
		store:       store,
		controller:  controller,
		reload:      mc.Reload,
		sourceName:  mc.SourceName,
		theme:       theme,
		list:        l,
		delegate:    delegate,
		graphview:   gv,
		detail:      NewDetailModel(theme),
		searchbar:   NewSearchBar(store, mc.Config.SearchDebounce(), theme),
		mode:        parseViewMode(mc.Config.UI.DefaultView),
		panDur:      panDur,
		flashDur:    flashDur,
		stateCh:     stateCh,
		unsubscribe: unsub,
		// A sane default size keeps the first frame useful even before
		// the real WindowSizeMsg arrives.
		width:  defaultWidth,
		height: defaultHeight,
	}
	m.rebuildTraders()
	m.matchCount = match.Annotate(grph, store.State().Filters())

	if mc.WatchPath != "" && mc.Config.WatchEnabled() && mc.Reload != nil {
		w, err := watcher.NewWatcher(mc.WatchPath)
		if err != nil {
			m.statusMsg = "watch unavailable: " + err.Error()
			m.statusIsErr = true
		} else if err := w.Start(); err != nil {
			m.statusMsg = "watch unavailable: " + err.Error()
			m.statusIsErr = true
		} else {
			m.watch = w
		}
	}

	if m.mode == viewGraph {
		m.focus = focusGraph
	}
	m.recalcSizes()
	return m
}

// Close releases the watcher, the focus controller's timers and the store
// subscription. The caller runs it after the program loop exits.
func (m Model) Close() {
	if m.watch != nil {
		m.watch.Stop()
	}
	m.controller.Close()
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForStateCmd(m.stateCh)}
	if m.watch != nil {
		cmds = append(cmds, watchFileCmd(m.watch))
	}
	if d := autoCloseDelay(); d > 0 {
		cmds = append(cmds, tea.Tick(d, func(time.Time) tea.Msg { return autoCloseMsg{} }))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.recalcSizes()
		return m, nil

	case autoCloseMsg:
		return m, tea.Quit

	case repaintMsg:
		return m, nil

	case statusExpireMsg:
		if msg.id == m.statusID {
			m.statusMsg = ""
		}
		return m, nil

	case StateChangedMsg:
		cmd := m.applyState(msg.State)
		return m, tea.Batch(waitForStateCmd(m.stateCh), cmd)

	case FileChangedMsg:
		cmd := m.reloadTasks()
		if m.watch != nil {
			cmd = tea.Batch(watchFileCmd(m.watch), cmd)
		}
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.focusPane() == focusDetail {
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	return m, nil
}

// applyState reconciles every pane with the new selection state and drains
// a pending one-shot focus request. The returned command schedules repaints
// for the pan landing and the highlight expiry, which otherwise happen
// between frames.
func (m *Model) applyState(st selection.State) tea.Cmd {
	f := st.Filters()
	m.matchCount = match.Annotate(m.graph, f)

	if f.Active() {
		matched := make(map[string]bool, m.matchCount)
		for _, n := range m.graph.Nodes() {
			if n.Matched {
				matched[n.Task.ID] = true
			}
		}
		m.delegate.Matched = matched
		m.graphview.SetFilterActive(true)
	} else {
		m.delegate.Matched = nil
		m.graphview.SetFilterActive(false)
	}

	if st.RewardSearchTerm != "" {
		res := match.FindTasksByReward(m.tasks, st.RewardSearchTerm)
		scores := make(map[string]int, len(res.Matches))
		maxScore := 0
		for _, rm := range res.Matches {
			scores[rm.TaskID] = rm.Score
			if rm.Score > maxScore {
				maxScore = rm.Score
			}
		}
		m.delegate.Scores = scores
		m.delegate.MaxScore = maxScore
		m.rewardInfo = fmt.Sprintf("%d reward match(es)", len(res.Matches))
		if len(res.Matches) > 0 {
			m.rewardInfo += fmt.Sprintf(", top: %s", res.Matches[0].TaskName)
		}
	} else {
		m.delegate.Scores = nil
		m.delegate.MaxScore = 0
		m.rewardInfo = ""
	}

	if st.SelectedTaskID != "" {
		if i := m.indexOfTask(st.SelectedTaskID); i >= 0 && i != m.list.Index() {
			m.list.Select(i)
		}
		m.graphview.Select(st.SelectedTaskID)
		m.detail.SetTask(m.taskByID(st.SelectedTaskID), m.graph)
	} else {
		m.detail.SetTask(nil, m.graph)
	}

	if m.controller.ConsumeFocus(m.store) {
		return tea.Batch(
			repaintAfter(m.panDur+50*time.Millisecond),
			repaintAfter(m.panDur+m.flashDur+50*time.Millisecond),
		)
	}
	return nil
}

// reloadTasks re-reads the source and rebuilds everything derived from it,
// preserving filters and, when possible, the selection.
func (m *Model) reloadTasks() tea.Cmd {
	if m.reload == nil {
		return nil
	}
	tasks, err := m.reload()
	if err != nil {
		return m.setStatus("reload failed: "+err.Error(), true)
	}

	m.tasks = tasks
	m.graph = taskgraph.Build(tasks)
	m.stats = taskgraph.ComputeStats(m.graph)
	m.res = m.lcache.Compute(m.graph, m.lopts)
	m.graphview.SetData(m.graph, m.res)
	m.rebuildTraders()

	items := make([]list.Item, 0, len(m.tasks))
	for i := range m.tasks {
		items = append(items, TaskItem{Task: &m.tasks[i]})
	}
	setCmd := m.list.SetItems(items)

	// A selected task that vanished from the source must not linger.
	if id := m.store.State().SelectedTaskID; id != "" {
		if _, ok := m.graph.Node(id); !ok {
			m.store.SelectTask("")
		}
	}
	applyCmd := m.applyState(m.store.State())
	statusCmd := m.setStatus(fmt.Sprintf("reloaded %d tasks", len(tasks)), false)
	return tea.Batch(setCmd, applyCmd, statusCmd)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return *m, tea.Quit
	}
	if m.statusMsg != "" {
		m.statusMsg = ""
	}

	// The search bar owns the keyboard while it is focused.
	if m.searchbar.Focused() {
		if cmd, handled := m.searchbar.Update(msg); handled {
			return *m, cmd
		}
	}

	if m.showHelp {
		switch key {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return *m, nil
	}

	switch key {
	case "q":
		return *m, tea.Quit

	case "?":
		m.showHelp = true
		return *m, nil

	case "/":
		return *m, m.searchbar.Focus(SearchByName)

	case "r":
		return *m, m.searchbar.Focus(SearchByReward)

	case "t":
		m.cycleTrader(1)
		return *m, nil

	case "T":
		m.cycleTrader(-1)
		return *m, nil

	case "c":
		m.store.ClearFilters()
		return *m, nil

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		n, _ := strconv.Atoi(key)
		return *m, m.applyFavorite(n)

	case "v":
		m.mode = (m.mode + 1) % 3
		m.fixFocus()
		m.recalcSizes()
		return *m, nil

	case "g":
		if m.mode == viewGraph {
			m.mode = viewSplit
		} else {
			m.mode = viewGraph
		}
		m.fixFocus()
		m.recalcSizes()
		return *m, nil

	case "tab":
		m.cycleFocus()
		return *m, nil

	case "enter":
		m.activateCursor()
		return *m, nil

	case "esc":
		if m.store.State().SelectedTaskID != "" {
			m.store.SelectTask("")
		}
		return *m, nil

	case "f":
		if m.graphVisible() {
			m.graphview.FitView()
		}
		return *m, nil

	case "o":
		if m.graphVisible() {
			m.graphview.ToggleStrip()
		}
		return *m, nil

	case "+", "=":
		if m.graphVisible() {
			m.graphview.ZoomIn()
		}
		return *m, nil

	case "-":
		if m.graphVisible() {
			m.graphview.ZoomOut()
		}
		return *m, nil

	case "ctrl+r", "f5":
		if m.reload == nil {
			return *m, nil
		}
		if time.Since(m.lastRefresh) < refreshCooldown {
			return *m, m.setStatus("refresh already running", false)
		}
		m.lastRefresh = time.Now()
		return *m, m.reloadTasks()

	case "C":
		return *m, m.copyWikiLink()

	case "O":
		return *m, m.openWikiLink()
	}

	return m.handleNav(msg)
}

func (m *Model) handleNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.focusPane() {
	case focusGraph:
		m.graphNav(msg.String())
		return *m, nil
	case focusDetail:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return *m, cmd
	default:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return *m, cmd
	}
}

// graphNav maps movement keys onto rank traversal. With left-to-right flow
// the ranks run horizontally; top-to-bottom flips the axes.
func (m *Model) graphNav(key string) {
	horizontalRanks := m.lopts.Direction != layout.TopToBottom
	switch key {
	case "h", "left":
		if horizontalRanks {
			m.graphview.MoveRank(-1)
		} else {
			m.graphview.MoveWithinRank(-1)
		}
	case "l", "right":
		if horizontalRanks {
			m.graphview.MoveRank(1)
		} else {
			m.graphview.MoveWithinRank(1)
		}
	case "k", "up":
		if horizontalRanks {
			m.graphview.MoveWithinRank(-1)
		} else {
			m.graphview.MoveRank(-1)
		}
	case "j", "down":
		if horizontalRanks {
			m.graphview.MoveWithinRank(1)
		} else {
			m.graphview.MoveRank(1)
		}
	}
}

// activateCursor selects the task under the focused pane's cursor and
// requests a one-shot canvas focus on it.
func (m *Model) activateCursor() {
	switch m.focusPane() {
	case focusGraph:
		if id := m.graphview.Selected(); id != "" {
			m.store.SelectAndFocus(id)
		}
	case focusList:
		if it, ok := m.list.SelectedItem().(TaskItem); ok {
			m.store.SelectAndFocus(it.Task.ID)
		}
	}
}

func (m *Model) cycleTrader(delta int) {
	options := append([]string{""}, m.traders...)
	cur := m.store.State().TraderFilter
	idx := 0
	for i, name := range options {
		if strings.EqualFold(name, cur) {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(options)) % len(options)
	m.store.SetTraderFilter(options[idx])
}

func (m *Model) applyFavorite(n int) tea.Cmd {
	name := m.cfg.FavoriteTrader(n)
	if name == "" {
		return m.setStatus(fmt.Sprintf("no favorite trader on %d", n), false)
	}
	m.store.SetTraderFilter(name)
	return m.setStatus("trader: "+name, false)
}

func (m *Model) copyWikiLink() tea.Cmd {
	t := m.currentTask()
	if t == nil || t.WikiLink == "" {
		return m.setStatus("no wiki link", false)
	}
	if err := clipboard.WriteAll(t.WikiLink); err != nil {
		return m.setStatus("copy failed: "+err.Error(), true)
	}
	return m.setStatus("copied wiki link", false)
}

func (m *Model) openWikiLink() tea.Cmd {
	t := m.currentTask()
	if t == nil || t.WikiLink == "" {
		return m.setStatus("no wiki link", false)
	}
	if err := openURL(t.WikiLink); err != nil {
		return m.setStatus("open failed: "+err.Error(), true)
	}
	return m.setStatus("opening wiki", false)
}

func openURL(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

func (m *Model) setStatus(msg string, isErr bool) tea.Cmd {
	m.statusID++
	m.statusMsg = msg
	m.statusIsErr = isErr
	return expireStatusCmd(m.statusID)
}

func (m *Model) rebuildTraders() {
	seen := make(map[string]bool)
	m.traders = m.traders[:0]
	for _, t := range m.tasks {
		name := t.Trader.Name
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		m.traders = append(m.traders, name)
	}
	sort.Strings(m.traders)
}

// effectiveMode degrades the split view on narrow terminals.
func (m Model) effectiveMode() viewMode {
	if m.mode == viewSplit && m.width <= SplitViewThreshold {
		return viewList
	}
	return m.mode
}

func (m Model) graphVisible() bool {
	mode := m.effectiveMode()
	return mode == viewGraph || mode == viewSplit
}

// focusPane resolves the nominal focus against the panes the current mode
// actually shows.
func (m Model) focusPane() paneFocus {
	switch m.effectiveMode() {
	case viewGraph:
		return focusGraph
	case viewList:
		if m.focus == focusDetail {
			return focusDetail
		}
		return focusList
	default:
		return m.focus
	}
}

func (m *Model) fixFocus() {
	m.focus = m.focusPane()
}

func (m *Model) cycleFocus() {
	switch m.effectiveMode() {
	case viewGraph:
		m.focus = focusGraph
	case viewList:
		if m.focus == focusList {
			m.focus = focusDetail
		} else {
			m.focus = focusList
		}
	default:
		switch m.focus {
		case focusList:
			m.focus = focusGraph
		case focusGraph:
			m.focus = focusDetail
		default:
			m.focus = focusList
		}
	}
}

// recalcSizes recomputes the pane geometry. One header line, one search
// line and one footer line frame the body.
func (m *Model) recalcSizes() {
	m.bodyHeight = max(1, m.height-3)

	ratio := m.cfg.UI.SplitRatio
	if ratio < 0.2 || ratio > 0.8 {
		ratio = 0.35
	}

	switch m.effectiveMode() {
	case viewList:
		m.listWidth = max(20, m.width/2)
		m.rightWidth = max(10, m.width-m.listWidth-1)
		m.detail.SetSize(m.rightWidth, m.bodyHeight)
	case viewGraph:
		m.listWidth = 0
		m.rightWidth = m.width
	default:
		m.listWidth = clamp(int(float64(m.width)*ratio), 24, max(24, m.width-40))
		m.rightWidth = max(10, m.width-m.listWidth-1)
		m.graphHeight = m.bodyHeight * 2 / 3
		m.detailHeight = max(1, m.bodyHeight-m.graphHeight-1)
		m.detail.SetSize(m.rightWidth, m.detailHeight)
	}
	if m.listWidth > 0 {
		m.list.SetSize(m.listWidth, m.bodyHeight)
	}
	m.searchbar.SetWidth(m.width - 2)
}

func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()

	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	if m.showHelp {
		return m.renderHelp()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderSearchLine(),
		m.renderBody(),
		m.renderFooter(),
	)
	return lipgloss.NewStyle().Width(m.width).MaxHeight(m.height).Render(content)
}

func (m Model) renderBody() string {
	switch m.effectiveMode() {
	case viewGraph:
		return m.graphview.View(m.width, m.bodyHeight)

	case viewList:
		sep := paneSeparator(m.bodyHeight)
		return lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), sep, m.detail.View())

	default:
		sep := paneSeparator(m.bodyHeight)
		var right string
		if m.detail.Task() != nil {
			right = lipgloss.JoinVertical(lipgloss.Left,
				m.graphview.View(m.rightWidth, m.graphHeight),
				RenderDivider(m.rightWidth),
				m.detail.View(),
			)
		} else {
			right = m.graphview.View(m.rightWidth, m.bodyHeight)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), sep, right)
	}
}

func paneSeparator(height int) string {
	if height <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("│\n", height), "\n")
}

func (m Model) renderHeader() string {
	t := m.theme
	parts := []string{t.PrimaryBold.Render("questwork")}
	if m.sourceName != "" {
		parts = append(parts, t.MutedText.Render(m.sourceName))
	}
	parts = append(parts, t.BaseText.Render(
		fmt.Sprintf("%d tasks · %d edges", m.stats.NodeCount, m.stats.EdgeCount)))

	if m.delegate.Matched != nil {
		parts = append(parts, t.MatchedText.Render(
			fmt.Sprintf("%d/%d match", m.matchCount, m.stats.NodeCount)))
	}
	if n := len(m.graph.Warnings()); n > 0 {
		parts = append(parts, t.DangerText.Render(fmt.Sprintf("%d warning(s)", n)))
	}
	if m.stats.CycleCount > 0 {
		parts = append(parts, t.DangerText.Render(fmt.Sprintf("%d cycle(s)", m.stats.CycleCount)))
	}
	if m.watch != nil {
		if m.watch.IsPolling() {
			parts = append(parts, t.MutedText.Render("⟳ polling"))
		} else {
			parts = append(parts, t.MutedText.Render("⦿ watching"))
		}
	}
	line := strings.Join(parts, "  ")

	label := t.MutedText.Render("[" + m.effectiveMode().String() + "]")
	gap := m.width - lipgloss.Width(line) - lipgloss.Width(label) - 1
	if gap < 1 {
		return truncateLine(line, m.width-1)
	}
	return line + spaces(gap) + label
}

func (m Model) renderSearchLine() string {
	if m.searchbar.Focused() {
		return m.searchbar.View()
	}
	st := m.store.State()
	var parts []string
	if st.TraderFilter != "" {
		parts = append(parts, "trader="+st.TraderFilter)
	}
	if st.SearchTerm != "" {
		parts = append(parts, "search="+st.SearchTerm)
	}
	if st.RewardSearchTerm != "" {
		parts = append(parts, "reward="+st.RewardSearchTerm)
	}
	if len(parts) == 0 {
		return m.theme.MutedText.Render("press / to search, r for reward search, t to cycle traders")
	}
	line := m.theme.BaseText.Render("filters: "+strings.Join(parts, " · ")) +
		m.theme.MutedText.Render("  (c clears)")
	if m.rewardInfo != "" {
		line += m.theme.FlashBold.Render("  " + m.rewardInfo)
	}
	return truncateLine(line, m.width-1)
}

func (m Model) renderFooter() string {
	t := m.theme
	if m.statusMsg != "" {
		if m.statusIsErr {
			return t.DangerText.Render("✗ " + m.statusMsg)
		}
		return t.MatchedText.Render("✓ " + m.statusMsg)
	}

	var hints [][2]string
	switch m.focusPane() {
	case focusGraph:
		hints = [][2]string{
			{"hjkl", "move"}, {"enter", "focus"}, {"f", "fit"}, {"o", "overview"},
			{"+/-", "zoom"}, {"tab", "pane"}, {"v", "view"}, {"?", "help"}, {"q", "quit"},
		}
	case focusDetail:
		hints = [][2]string{
			{"j/k", "scroll"}, {"C", "copy wiki"}, {"O", "open wiki"},
			{"tab", "pane"}, {"esc", "clear"}, {"?", "help"}, {"q", "quit"},
		}
	default:
		hints = [][2]string{
			{"enter", "focus"}, {"/", "search"}, {"r", "rewards"}, {"t", "trader"},
			{"1-9", "favorites"}, {"tab", "pane"}, {"v", "view"}, {"?", "help"}, {"q", "quit"},
		}
	}

	segs := make([]string, 0, len(hints))
	for _, h := range hints {
		segs = append(segs, t.MutedText.Render(h[0]+":")+t.BaseText.Render(h[1]))
	}
	return truncateLine(strings.Join(segs, "  "), m.width-1)
}

func (m Model) renderHelp() string {
	t := m.theme
	var b strings.Builder
	b.WriteString(t.PrimaryBold.Render("questwork keys") + "\n\n")
	sections := []struct {
		title string
		keys  [][2]string
	}{
		{"navigate", [][2]string{
			{"j/k or arrows", "move cursor"},
			{"hjkl", "walk the graph"},
			{"tab", "switch pane"},
			{"enter", "select and focus the task"},
			{"esc", "clear selection"},
		}},
		{"filter", [][2]string{
			{"/", "search by task or trader name"},
			{"r", "search by reward"},
			{"tab (in search)", "toggle name/reward mode"},
			{"enter (in search)", "apply immediately"},
			{"t / T", "cycle trader filter"},
			{"1-9", "favorite traders"},
			{"c", "clear all filters"},
		}},
		{"canvas", [][2]string{
			{"f", "fit view"},
			{"o", "overview strip"},
			{"+/-", "zoom detail"},
		}},
		{"misc", [][2]string{
			{"v / g", "cycle or toggle views"},
			{"C / O", "copy or open wiki link"},
			{"ctrl+r", "reload source"},
			{"q", "quit"},
		}},
	}
	for _, sec := range sections {
		b.WriteString(t.FlashBold.Render(sec.title) + "\n")
		for _, k := range sec.keys {
			b.WriteString("  " + t.MutedText.Render(padToWidth(k[0], 20)) + t.BaseText.Render(k[1]) + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(t.MutedText.Render("press ? or esc to close"))
	box := PanelStyle.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) indexOfTask(id string) int {
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (m Model) taskByID(id string) *model.Task {
	if i := m.indexOfTask(id); i >= 0 {
		return &m.tasks[i]
	}
	return nil
}

func (m Model) currentTask() *model.Task {
	if t := m.detail.Task(); t != nil {
		return t
	}
	if it, ok := m.list.SelectedItem().(TaskItem); ok {
		return it.Task
	}
	return nil
}

// Accessors used by the command-line entry point and tests.

func (m Model) TaskCount() int { return len(m.tasks) }

func (m Model) MatchCount() int { return m.matchCount }

func (m Model) Store() *selection.Store { return m.store }

func (m Model) GraphView() *GraphView { return m.graphview }

func (m Model) Stats() taskgraph.Stats { return m.stats }

func (m Model) SelectedTask() *model.Task {
	return m.taskByID(m.store.State().SelectedTaskID)
}

func (m Model) Traders() []string { return m.traders }
