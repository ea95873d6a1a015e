package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/vanderheijden86/questwork/internal/datasource"
	"github.com/vanderheijden86/questwork/pkg/agents"
	"github.com/vanderheijden86/questwork/pkg/config"
	"github.com/vanderheijden86/questwork/pkg/export"
	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/taskgraph"
	"github.com/vanderheijden86/questwork/pkg/ui"
	"github.com/vanderheijden86/questwork/pkg/version"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	dataDir := flag.String("data", "", "Quest data directory (default: QUESTS_DIR or current directory)")
	traderFlag := flag.String("trader", "", "Limit tasks to one trader (case-insensitive, unique prefix accepted)")
	noWatch := flag.Bool("no-watch", false, "Disable live reload when the data file changes (TUI only)")

	robotTasks := flag.Bool("robot-tasks", false, "Print all tasks as JSON and exit")
	robotGraph := flag.Bool("robot-graph", false, "Print the laid-out graph as JSON and exit")
	robotRewardSearch := flag.String("robot-reward-search", "", "Print tasks ranked by reward match as JSON and exit")
	robotStats := flag.Bool("robot-stats", false, "Print graph statistics as JSON and exit")
	limitFlag := flag.Int("limit", 0, "Cap --robot-reward-search results (0 = all)")

	exportFlag := flag.String("export", "", "Export the graph (svg|png|html|dot|mermaid|json) and exit")
	outputFlag := flag.String("output", "", "Output path for --export (text formats print to stdout when empty)")
	titleFlag := flag.String("title", "", "Title for exported snapshots")
	presetFlag := flag.String("preset", "", "Snapshot node sizing: compact or roomy")
	exportWizard := flag.Bool("export-wizard", false, "Configure an export interactively and exit")
	exportCache := flag.String("export-cache", "", "Write a SQLite cache of the loaded tasks to this path and exit")

	checkSources := flag.Bool("check-sources", false, "Compare discovered data sources for inconsistencies and exit")
	profileSummary := flag.Bool("profile-summary", false, "Profile the startup pipeline and exit")
	profileJSON := flag.Bool("profile-json", false, "Emit --profile-summary as JSON")

	agentsBlurb := flag.Bool("agents-blurb", false, "Print the agent usage instructions and exit")
	agentsInstall := flag.Bool("agents-install", false, "Install the agent usage instructions into AGENTS.md and exit")
	flag.Parse()

	// CPU profiling support
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: qw [options]")
		fmt.Println("\nA terminal browser for quest dependency graphs.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("qw %s\n", version.Version)
		os.Exit(0)
	}

	if *agentsBlurb {
		fmt.Println(agents.AgentBlurb)
		os.Exit(0)
	}

	if *agentsInstall {
		path, action, err := installAgentsBlurb(".")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error installing agent instructions: %v\n", err)
			os.Exit(1)
		}
		switch action {
		case agentsActionUnchanged:
			fmt.Printf("Agent instructions in %s are current\n", path)
		case agentsActionUpdated:
			fmt.Printf("Updated agent instructions in %s\n", path)
		default:
			fmt.Printf("Installed agent instructions in %s\n", path)
		}
		os.Exit(0)
	}

	robotModes := 0
	for _, on := range []bool{*robotTasks, *robotGraph, *robotRewardSearch != "", *robotStats} {
		if on {
			robotModes++
		}
	}
	if robotModes > 1 {
		fmt.Fprintln(os.Stderr, "Error: robot flags are mutually exclusive")
		os.Exit(2)
	}
	if *exportFlag != "" && *exportWizard {
		fmt.Fprintln(os.Stderr, "Error: --export and --export-wizard are mutually exclusive")
		os.Exit(2)
	}
	if robotModes == 1 {
		// QW_ROBOT=1 silences per-line loader warnings.
		_ = os.Setenv("QW_ROBOT", "1")
	}

	// Discover and validate every candidate source; invalid ones stay in
	// the list so --check-sources can report them.
	sources, err := datasource.DiscoverSources(datasource.DiscoveryOptions{
		QuestsDir:              *dataDir,
		ValidateAfterDiscovery: true,
		IncludeInvalid:         true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error discovering quest data: %v\n", err)
		os.Exit(1)
	}

	if *checkSources {
		os.Exit(runCheckSources(sources))
	}

	best, err := datasource.SelectBestSource(sources)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading quests: %v\n", err)
		fmt.Fprintln(os.Stderr, "Place tasks.jsonl, tasks.json or tasks.db in the data directory, or set QUESTS_DIR.")
		os.Exit(1)
	}

	loadStart := time.Now()
	tasks, err := datasource.LoadFromSource(best)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading quests from %s: %v\n", best.Path, err)
		os.Exit(1)
	}
	loadTime := time.Since(loadStart)

	// Follow-ups are derived data; recompute them on every load.
	taskgraph.ApplyFollowUps(tasks)

	if *traderFlag != "" {
		filtered := filterByTrader(tasks, *traderFlag)
		if len(filtered) == 0 {
			fmt.Fprintf(os.Stderr, "Error: no tasks for trader %q\n", *traderFlag)
			os.Exit(1)
		}
		tasks = filtered
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks found. Point QUESTS_DIR at a quest data directory.")
		os.Exit(0)
	}

	if robotModes == 1 {
		var err error
		switch {
		case *robotTasks:
			err = runRobotTasks(os.Stdout, tasks, best.Path)
		case *robotGraph:
			err = runRobotGraph(os.Stdout, tasks, best.Path)
		case *robotRewardSearch != "":
			err = runRobotRewardSearch(os.Stdout, tasks, *robotRewardSearch, *limitFlag)
		case *robotStats:
			err = runRobotStats(os.Stdout, tasks, best.Path)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing robot output: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *exportCache != "" {
		if err := export.NewCacheExporter(tasks).Export(*exportCache); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting cache: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s (%d tasks)\n", *exportCache, len(tasks))
		return
	}

	if *exportFlag != "" {
		plan := export.ExportPlan{
			Format:     *exportFlag,
			Preset:     *presetFlag,
			Title:      *titleFlag,
			OutputPath: *outputFlag,
		}
		path, err := runExportPlan(tasks, plan, best.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting graph: %v\n", err)
			os.Exit(1)
		}
		if path != "" {
			fmt.Printf("Wrote %s\n", path)
		}
		return
	}

	if *exportWizard {
		if err := runExportWizard(tasks, best.Path); err != nil {
			fmt.Fprintf(os.Stderr, "Export wizard failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *profileSummary || *profileJSON {
		if err := runProfileSummary(tasks, best.Path, loadTime, *profileJSON); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing profile: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Load config for layout, debounce and viewport tuning
	appCfg, cfgErr := config.Load()
	if cfgErr != nil {
		// Non-fatal: continue with defaults
		appCfg = config.DefaultConfig()
	}

	watchPath := ""
	if appCfg.WatchEnabled() && !*noWatch {
		watchPath = best.Path
	}

	// Reload re-runs discovery so a source exported or synced mid-session
	// (a fresher cache, say) takes over from the one loaded at startup.
	reload := func() ([]model.Task, error) {
		fresh, err := datasource.LoadTasks(*dataDir)
		if err != nil {
			return nil, err
		}
		taskgraph.ApplyFollowUps(fresh)
		if *traderFlag != "" {
			fresh = filterByTrader(fresh, *traderFlag)
		}
		return fresh, nil
	}

	m := ui.NewModel(ui.ModelConfig{
		Tasks:      tasks,
		SourceName: sourceLabel(best),
		WatchPath:  watchPath,
		Config:     appCfg,
		Reload:     reload,
	})
	defer m.Close()

	if err := runTUIProgram(m); err != nil {
		fmt.Printf("Error running quest browser: %v\n", err)
		os.Exit(1)
	}
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// QW_TUI_AUTOCLOSE_MS: the model quits itself at the deadline; this
	// timer is the hard stop if the program loop never gets there.
	if v := os.Getenv("QW_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms)*time.Millisecond + 2*time.Second)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Kill()
			}()
		}
	}

	_, err := p.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted)) {
		return nil
	}
	return err
}

// runCheckSources prints the cross-source consistency report. The exit
// code is 1 only for field-level divergence; count drift alone is a
// warning, not a failure.
func runCheckSources(sources []datasource.DataSource) int {
	report, err := datasource.GenerateInconsistencyReport(sources, datasource.DefaultDiffOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error checking sources: %v\n", err)
		return 1
	}

	fmt.Printf("Checked %d sources\n", len(report.Sources))
	for _, s := range report.Sources {
		fmt.Printf("  %s\n", s)
	}

	if report.TotalInconsistencies == 0 {
		fmt.Println("All sources are consistent")
		return 0
	}

	fmt.Println()
	for _, d := range report.Diffs {
		fmt.Print(d.Summary())
	}
	fmt.Printf("%d inconsistencies total\n", report.TotalInconsistencies)
	if report.HasCriticalInconsistencies {
		return 1
	}
	return 0
}

// filterByTrader narrows tasks to one trader. The name matches
// case-insensitively; a prefix is accepted when it identifies exactly one
// trader ("pra" finds Prapor). Ambiguous or unknown filters return nil.
func filterByTrader(tasks []model.Task, filter string) []model.Task {
	want := strings.ToLower(strings.TrimSpace(filter))
	if want == "" {
		return tasks
	}

	target := ""
	for _, name := range traderNames(tasks) {
		lower := strings.ToLower(name)
		if lower == want {
			target = name
			break
		}
		if strings.HasPrefix(lower, want) {
			if target != "" {
				return nil
			}
			target = name
		}
	}
	if target == "" {
		return nil
	}

	var out []model.Task
	for _, t := range tasks {
		if t.Trader.Name == target {
			out = append(out, t)
		}
	}
	return out
}

// traderNames returns the distinct trader names in sorted order.
func traderNames(tasks []model.Task) []string {
	seen := make(map[string]bool)
	var names []string
	for _, t := range tasks {
		name := t.Trader.Name
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// sourceLabel is the short provenance string the TUI header shows.
func sourceLabel(s datasource.DataSource) string {
	if s.Path == "" {
		return string(s.Type)
	}
	return filepath.Base(s.Path)
}

// Actions installAgentsBlurb reports back.
const (
	agentsActionInstalled = "installed"
	agentsActionUpdated   = "updated"
	agentsActionUnchanged = "unchanged"
)

// installAgentsBlurb appends the qw usage blurb to the first agent file
// found in dir, creating AGENTS.md when none exists. A current blurb is
// left alone; an older version is replaced in place.
func installAgentsBlurb(dir string) (path, action string, err error) {
	for _, name := range agents.SupportedAgentFiles {
		p := filepath.Join(dir, name)
		data, readErr := os.ReadFile(p)
		if readErr != nil {
			continue
		}
		content := string(data)
		switch {
		case agents.NeedsUpdate(content):
			return p, agentsActionUpdated, os.WriteFile(p, []byte(agents.UpdateBlurb(content)), 0o644)
		case agents.ContainsBlurb(content):
			return p, agentsActionUnchanged, nil
		default:
			return p, agentsActionInstalled, os.WriteFile(p, []byte(agents.AppendBlurb(content)), 0o644)
		}
	}

	p := filepath.Join(dir, "AGENTS.md")
	return p, agentsActionInstalled, os.WriteFile(p, []byte(agents.AppendBlurb("")), 0o644)
}
