package export

import (
	_ "embed"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/questwork/pkg/layout"
	"github.com/vanderheijden86/questwork/pkg/taskgraph"
)

//go:embed viewer_assets/index.html
var viewerHTML string

//go:embed viewer_assets/viewer.css
var viewerCSS string

//go:embed viewer_assets/viewer.js
var viewerJS string

// ViewerOptions configures interactive HTML viewer generation.
type ViewerOptions struct {
	Graph  *taskgraph.Graph
	Layout *layout.Result // Optional precomputed layout; default geometry when nil
	Title  string
	Source string // Data source path for the footer line
	Path   string // Output path; auto-generated when empty
}

// viewerNode carries one task with its precomputed position and the
// lowercased reward search fields the in-page scorer runs against.
type viewerNode struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Trader         string         `json:"trader,omitempty"`
	Group          string         `json:"group,omitempty"`
	MinPlayerLevel int            `json:"minPlayerLevel,omitempty"`
	WikiLink       string         `json:"wikiLink,omitempty"`
	X              float64        `json:"x"`
	Y              float64        `json:"y"`
	Rank           int            `json:"rank"`
	Objectives     []string       `json:"objectives,omitempty"`
	Rewards        []viewerReward `json:"rewards,omitempty"`
	Prerequisites  []string       `json:"prerequisites,omitempty"`
	FollowUps      []string       `json:"followUps,omitempty"`
}

type viewerReward struct {
	Display string   `json:"display"`
	Search  []string `json:"search,omitempty"`
}

type viewerData struct {
	Title      string           `json:"title"`
	Source     string           `json:"source,omitempty"`
	Width      float64          `json:"width"`
	Height     float64          `json:"height"`
	NodeWidth  float64          `json:"nodeWidth"`
	NodeHeight float64          `json:"nodeHeight"`
	Nodes      []viewerNode     `json:"nodes"`
	Edges      []taskgraph.Edge `json:"edges"`
	Traders    []string         `json:"traders"`
}

// GenerateViewerFilename creates a timestamped default output name.
func GenerateViewerFilename() string {
	return fmt.Sprintf("quest_graph__%s.html", time.Now().Format("2006_01_02__15_04"))
}

// GenerateViewerHTML writes a self-contained HTML viewer: the layout is
// precomputed here, and the page only pans, zooms, selects, and searches.
// No external assets or network access at view time. Returns the path
// written.
func GenerateViewerHTML(opts ViewerOptions) (string, error) {
	if opts.Graph == nil || len(opts.Graph.Nodes()) == 0 {
		return "", fmt.Errorf("no tasks to export")
	}

	res := opts.Layout
	if res == nil {
		res = layout.Compute(opts.Graph, layout.Options{})
	}

	traderSet := make(map[string]bool)
	var nodes []viewerNode
	for _, n := range opts.Graph.Nodes() {
		p, ok := res.Positions[n.Task.ID]
		if !ok {
			continue
		}
		t := n.Task
		if t.Trader.Name != "" {
			traderSet[t.Trader.Name] = true
		}

		var objectives []string
		for _, o := range t.Objectives {
			objectives = append(objectives, o.Description)
		}
		var rewards []viewerReward
		for _, r := range t.Rewards {
			rewards = append(rewards, viewerReward{
				Display: r.Display(),
				Search:  rewardSearchFields(r.Description, r.ValueText()),
			})
		}

		nodes = append(nodes, viewerNode{
			ID:             t.ID,
			Name:           t.Name,
			Trader:         t.Trader.Name,
			Group:          t.Group,
			MinPlayerLevel: t.MinPlayerLevel,
			WikiLink:       t.WikiLink,
			X:              p.X,
			Y:              p.Y,
			Rank:           res.RankOf[t.ID],
			Objectives:     objectives,
			Rewards:        rewards,
			Prerequisites:  opts.Graph.Predecessors(t.ID),
			FollowUps:      opts.Graph.Successors(t.ID),
		})
	}

	traders := make([]string, 0, len(traderSet))
	for name := range traderSet {
		traders = append(traders, name)
	}
	sort.Strings(traders)

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = "Quest Graph"
	}

	data := viewerData{
		Title:      title,
		Source:     opts.Source,
		Width:      res.Width,
		Height:     res.Height,
		NodeWidth:  res.Options.NodeWidth,
		NodeHeight: res.Options.NodeHeight,
		Nodes:      nodes,
		Edges:      opts.Graph.Edges(),
		Traders:    traders,
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal viewer data: %w", err)
	}

	page := buildViewerPage(title, string(dataJSON))

	outputPath := opts.Path
	if outputPath == "" {
		outputPath = GenerateViewerFilename()
	}
	if !strings.HasSuffix(strings.ToLower(outputPath), ".html") {
		outputPath = strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".html"
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create dir: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, []byte(page), 0644); err != nil {
		return "", err
	}
	return outputPath, nil
}

// rewardSearchFields lowercases the searchable fields, dropping empties.
// Numeric reward values contribute nothing, matching the search rules.
func rewardSearchFields(fields ...string) []string {
	var out []string
	for _, f := range fields {
		if f == "" {
			continue
		}
		out = append(out, strings.ToLower(f))
	}
	return out
}

// buildViewerPage inlines CSS, data, and JS into the page template.
func buildViewerPage(title, dataJSON string) string {
	// A "</" inside inline script data would close the script tag early
	safeData := strings.ReplaceAll(dataJSON, "</", "<\\/")

	page := viewerHTML
	page = strings.ReplaceAll(page, "__TITLE__", html.EscapeString(title))
	page = strings.Replace(page, "/*__CSS__*/", viewerCSS, 1)
	page = strings.Replace(page, "__DATA__", safeData, 1)
	page = strings.Replace(page, "/*__JS__*/", viewerJS, 1)
	return page
}
