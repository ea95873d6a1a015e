package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	json "github.com/goccy/go-json"
	"golang.org/x/term"
)

// ExportPlan holds everything the wizard collects. The caller performs the
// actual export so the wizard stays free of graph plumbing.
type ExportPlan struct {
	Format     string `json:"format"` // svg, png, html, dot, mermaid, json
	Preset     string `json:"preset,omitempty"`
	Title      string `json:"title,omitempty"`
	Trader     string `json:"trader,omitempty"`
	OutputPath string `json:"output_path"`
}

// ExportWizard walks the user through configuring a graph export.
type ExportWizard struct {
	plan    *ExportPlan
	traders []string
	isRerun bool // true when reusing a saved plan
}

// NewExportWizard creates a wizard. traders seeds the optional trader filter
// step; pass the sorted trader names from the loaded quest set.
func NewExportWizard(traders []string) *ExportWizard {
	return &ExportWizard{
		plan: &ExportPlan{
			Format: "svg",
			Preset: SnapshotPresetCompact,
			Title:  "Quest Dependency Graph",
		},
		traders: traders,
	}
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// Run executes the interactive wizard flow and returns the collected plan.
func (w *ExportWizard) Run() (*ExportPlan, error) {
	w.printBanner()

	saved, err := LoadExportPlan()
	if err == nil && saved != nil && saved.Format != "" {
		useSaved, err := w.offerSavedPlan(saved)
		if err != nil {
			return nil, err
		}
		if useSaved {
			w.plan = saved
			w.isRerun = true
			if err := w.confirmOverwrite(); err != nil {
				return nil, err
			}
			return w.plan, nil
		}
	}

	if err := w.collectFormat(); err != nil {
		return nil, err
	}
	if err := w.collectAppearance(); err != nil {
		return nil, err
	}
	if err := w.collectTrader(); err != nil {
		return nil, err
	}
	if err := w.collectOutput(); err != nil {
		return nil, err
	}
	if err := w.confirmOverwrite(); err != nil {
		return nil, err
	}

	if err := SaveExportPlan(w.plan); err != nil {
		fmt.Printf("Warning: could not save wizard settings: %v\n", err)
	}

	return w.plan, nil
}

// GetPlan returns the collected plan.
func (w *ExportWizard) GetPlan() *ExportPlan {
	return w.plan
}

func (w *ExportWizard) printBanner() {
	fmt.Println("")
	fmt.Println("╔══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                   qw → Quest Graph Export Wizard                 ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════════╣")
	fmt.Println("║  This wizard will:                                               ║")
	fmt.Println("║    1. Pick an export format (image, text, or interactive HTML)   ║")
	fmt.Println("║    2. Configure layout and filters                               ║")
	fmt.Println("║    3. Write the export to a file of your choosing                ║")
	fmt.Println("║                                                                  ║")
	fmt.Println("║  Press Ctrl+C anytime to cancel                                  ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════════╝")
	fmt.Println("")
}

// offerSavedPlan asks if the user wants to reuse previously saved settings.
func (w *ExportWizard) offerSavedPlan(saved *ExportPlan) (bool, error) {
	fmt.Println("Found previous export configuration:")
	fmt.Println("────────────────────────────────────────")
	fmt.Printf("  Format: %s\n", saved.Format)
	if saved.Preset != "" {
		fmt.Printf("  Preset: %s\n", saved.Preset)
	}
	if saved.Trader != "" {
		fmt.Printf("  Trader: %s\n", saved.Trader)
	}
	fmt.Printf("  Output: %s\n", saved.OutputPath)
	fmt.Println("")

	var useSaved bool = true
	form := newForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Export again with these settings?").
				Description("Select No to configure a new export").
				Value(&useSaved).
				Affirmative("Yes, reuse").
				Negative("No, reconfigure"),
		),
	)

	if err := form.Run(); err != nil {
		return false, err
	}

	fmt.Println("")
	return useSaved, nil
}

func (w *ExportWizard) collectFormat() error {
	fmt.Println("Step 1: Export Format")
	fmt.Println("────────────────────────────")

	form := newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("What do you want to export?").
				Options(
					huh.NewOption("SVG snapshot (scales cleanly, opens anywhere)", "svg"),
					huh.NewOption("PNG snapshot (easy to paste into chat)", "png"),
					huh.NewOption("Interactive HTML viewer (pan, zoom, search)", "html"),
					huh.NewOption("Graphviz DOT (render with the dot CLI)", "dot"),
					huh.NewOption("Mermaid diagram (paste into Markdown)", "mermaid"),
					huh.NewOption("JSON adjacency list (for scripts and agents)", "json"),
				).
				Value(&w.plan.Format),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	fmt.Println("")
	return nil
}

func (w *ExportWizard) collectAppearance() error {
	// Only image and viewer formats have layout to configure.
	if w.plan.Format != "svg" && w.plan.Format != "png" && w.plan.Format != "html" {
		return nil
	}

	fmt.Println("Step 2: Appearance")
	fmt.Println("────────────────────────────")

	defaultTitle := "Quest Dependency Graph"
	title := w.plan.Title
	if title == "" {
		title = defaultTitle
	}

	group := []huh.Field{
		huh.NewInput().
			Title("Diagram title").
			Value(&title).
			Placeholder(defaultTitle),
	}
	if w.plan.Format != "html" {
		group = append(group,
			huh.NewSelect[string]().
				Title("Node sizing").
				Options(
					huh.NewOption("Compact (more quests per screen)", SnapshotPresetCompact),
					huh.NewOption("Roomy (larger nodes, easier to read)", SnapshotPresetRoomy),
				).
				Value(&w.plan.Preset),
		)
	}

	form := newForm(huh.NewGroup(group...))
	if err := form.Run(); err != nil {
		return err
	}

	if title != "" {
		w.plan.Title = title
	} else {
		w.plan.Title = defaultTitle
	}

	fmt.Println("")
	return nil
}

func (w *ExportWizard) collectTrader() error {
	if len(w.traders) == 0 {
		return nil
	}

	fmt.Println("Step 3: Trader Filter")
	fmt.Println("────────────────────────────")

	options := []huh.Option[string]{huh.NewOption("All traders", "")}
	for _, name := range w.traders {
		options = append(options, huh.NewOption(name, name))
	}

	form := newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Limit the export to one trader's quests?").
				Options(options...).
				Value(&w.plan.Trader),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	fmt.Println("")
	return nil
}

func (w *ExportWizard) collectOutput() error {
	fmt.Println("Step 4: Output")
	fmt.Println("────────────────────────────")

	suggested := suggestedOutputPath(w.plan.Format)
	outputPath := suggested

	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Output path").
				Value(&outputPath).
				Placeholder(suggested),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	if outputPath != "" {
		w.plan.OutputPath = outputPath
	} else {
		w.plan.OutputPath = suggested
	}

	fmt.Println("")
	return nil
}

// confirmOverwrite asks before clobbering an existing file.
func (w *ExportWizard) confirmOverwrite() error {
	if _, err := os.Stat(w.plan.OutputPath); err != nil {
		return nil
	}

	var overwrite bool = w.isRerun
	form := newForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("%s already exists. Overwrite?", w.plan.OutputPath)).
				Value(&overwrite).
				Affirmative("Overwrite").
				Negative("Cancel"),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}
	if !overwrite {
		return fmt.Errorf("export cancelled: %s already exists", w.plan.OutputPath)
	}
	return nil
}

// suggestedOutputPath returns a sensible default filename for the format.
func suggestedOutputPath(format string) string {
	switch format {
	case "html":
		return GenerateViewerFilename()
	case "mermaid":
		return "quest_graph.mmd"
	case "json":
		return "quest_graph.json"
	default:
		return "quest_graph." + format
	}
}

// PrintSuccess prints the success message after the export completes.
func (w *ExportWizard) PrintSuccess(path string) {
	lines := []string{"Export Complete!", "File: " + path}
	if hint := renderHint(w.plan.Format); hint != "" {
		lines = append(lines, "", hint)
	}

	width := 0
	for _, line := range lines {
		if len(line) > width {
			width = len(line)
		}
	}
	width += 4
	if width < 50 {
		width = 50
	}

	fmt.Println("")
	fmt.Print("╔")
	for i := 0; i < width; i++ {
		fmt.Print("═")
	}
	fmt.Println("╗")

	title := lines[0]
	padding := (width - len(title)) / 2
	fmt.Printf("║%s%s%s║\n", strings.Repeat(" ", padding), title, strings.Repeat(" ", width-padding-len(title)))

	fmt.Print("╠")
	for i := 0; i < width; i++ {
		fmt.Print("═")
	}
	fmt.Println("╣")

	for _, line := range lines[1:] {
		fmt.Printf("║  %-*s ║\n", width-3, line)
	}

	fmt.Print("╚")
	for i := 0; i < width; i++ {
		fmt.Print("═")
	}
	fmt.Println("╝")
	fmt.Println("")
}

// renderHint tells the user what to do with the exported file.
func renderHint(format string) string {
	switch format {
	case "dot":
		return "Render with: dot -Tsvg <file> -o graph.svg"
	case "mermaid":
		return "Paste into https://mermaid.live or any Markdown viewer"
	case "html":
		return "Open in any browser; no server needed"
	case "json":
		return "Pipe through jq, or feed to an agent"
	default:
		return "Open with any image viewer"
	}
}

// ExportPlanPath returns the path to the saved wizard settings.
func ExportPlanPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "qw", "export-wizard.json")
}

// LoadExportPlan loads previously saved wizard settings.
func LoadExportPlan() (*ExportPlan, error) {
	path := ExportPlanPath()
	if path == "" {
		return nil, fmt.Errorf("could not determine config path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No saved plan
		}
		return nil, err
	}

	var plan ExportPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, err
	}

	return &plan, nil
}

// SaveExportPlan saves wizard settings for future runs.
func SaveExportPlan(plan *ExportPlan) error {
	path := ExportPlanPath()
	if path == "" {
		return fmt.Errorf("could not determine config path")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
