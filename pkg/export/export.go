// Package export renders the quest graph to formats that leave the
// terminal: static SVG/PNG snapshots, Graphviz DOT and Mermaid text,
// an interactive HTML viewer, and a SQLite cache other tools can read.
package export

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"unicode"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/questwork/pkg/match"
	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/taskgraph"
)

// GraphExportFormat specifies the output format for graph export.
type GraphExportFormat string

const (
	GraphFormatJSON    GraphExportFormat = "json"
	GraphFormatDOT     GraphExportFormat = "dot"
	GraphFormatMermaid GraphExportFormat = "mermaid"
)

// GraphExportConfig configures graph export behavior.
type GraphExportConfig struct {
	Format GraphExportFormat // Output format (json, dot, mermaid)
	Trader string            // Filter to one trader's tasks (exact name)
	Root   string            // Subgraph of tasks unlocked downstream of this task ID
	Depth  int               // Max hops from Root (0 = unlimited)
	Source string            // Data source path for provenance
}

// GraphExportResult contains the exported graph and metadata.
type GraphExportResult struct {
	Format         string            `json:"format"`
	Graph          string            `json:"graph,omitempty"`
	Nodes          int               `json:"nodes"`
	Edges          int               `json:"edges"`
	FiltersApplied map[string]string `json:"filters_applied,omitempty"`
	Explanation    GraphExplanation  `json:"explanation"`
	Source         string            `json:"source,omitempty"`
	Adjacency      *AdjacencyGraph   `json:"adjacency,omitempty"`
}

// GraphExplanation provides context for AI agents reading the output.
type GraphExplanation struct {
	What        string `json:"what"`
	HowToRender string `json:"how_to_render,omitempty"`
	WhenToUse   string `json:"when_to_use"`
}

// AdjacencyGraph is the JSON adjacency list representation.
type AdjacencyGraph struct {
	Nodes []AdjacencyNode  `json:"nodes"`
	Edges []taskgraph.Edge `json:"edges"`
}

// AdjacencyNode represents a task in the adjacency graph.
type AdjacencyNode struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Trader         string `json:"trader,omitempty"`
	Group          string `json:"group,omitempty"`
	MinPlayerLevel int    `json:"minPlayerLevel,omitempty"`
}

// ExportGraph exports the dependency graph in the specified format.
// Edges always point from prerequisite to dependent task.
func ExportGraph(g *taskgraph.Graph, config GraphExportConfig) (*GraphExportResult, error) {
	if g == nil {
		return nil, fmt.Errorf("graph is required")
	}

	tasks := selectTasks(g, config)

	if len(tasks) == 0 {
		return &GraphExportResult{
			Format: string(config.Format),
			Source: config.Source,
			Explanation: GraphExplanation{
				What:      "Empty graph - no tasks match the filter criteria",
				WhenToUse: "Adjust filter parameters to include more tasks",
			},
		}, nil
	}

	inSet := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		inSet[t.ID] = true
	}

	edges := subsetEdges(g, inSet)

	filtersApplied := make(map[string]string)
	if config.Trader != "" {
		filtersApplied["trader"] = config.Trader
	}
	if config.Root != "" {
		filtersApplied["root"] = config.Root
	}
	if config.Depth > 0 {
		filtersApplied["depth"] = fmt.Sprintf("%d", config.Depth)
	}

	result := &GraphExportResult{
		Format:         string(config.Format),
		Nodes:          len(tasks),
		Edges:          len(edges),
		FiltersApplied: filtersApplied,
		Source:         config.Source,
	}

	switch config.Format {
	case GraphFormatDOT:
		result.Graph = generateDOT(g, tasks, edges)
		result.Explanation = GraphExplanation{
			What:        "Quest dependency graph in Graphviz DOT format",
			HowToRender: "Save to file.dot, run: dot -Tpng file.dot -o graph.png",
			WhenToUse:   "When you need a visual overview of a quest line for documentation or debugging",
		}

	case GraphFormatMermaid:
		result.Graph = generateMermaid(g, tasks, edges)
		result.Explanation = GraphExplanation{
			What:        "Quest dependency graph in Mermaid diagram format",
			HowToRender: "Paste into any Markdown renderer that supports Mermaid, or use mermaid.live",
			WhenToUse:   "When you need an embeddable diagram for wikis or GitHub issues",
		}

	case GraphFormatJSON:
		fallthrough
	default:
		result.Format = "json"
		result.Adjacency = generateAdjacency(tasks, edges)
		result.Explanation = GraphExplanation{
			What:      "Quest dependency graph as JSON adjacency list",
			WhenToUse: "When you need programmatic access to the graph structure",
		}
	}

	return result, nil
}

// selectTasks applies the trader and root filters in input order.
func selectTasks(g *taskgraph.Graph, config GraphExportConfig) []model.Task {
	tasks := make([]model.Task, 0, len(g.Nodes()))
	for _, n := range g.Nodes() {
		tasks = append(tasks, n.Task)
	}
	if config.Trader != "" {
		tasks = match.FilterTasks(tasks, match.Filters{Trader: config.Trader})
	}
	if config.Root != "" {
		tasks = unlockClosure(g, tasks, config.Root, config.Depth)
	}
	return tasks
}

// unlockClosure keeps the tasks reachable from root by following follow-up
// edges, answering "what does completing root eventually unlock".
func unlockClosure(g *taskgraph.Graph, tasks []model.Task, rootID string, maxDepth int) []model.Task {
	keep := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		keep[t.ID] = true
	}

	visited := make(map[string]bool)
	type hop struct {
		id    string
		depth int
	}
	queue := []hop{{rootID, 0}}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		if visited[curr.id] {
			continue
		}
		if maxDepth > 0 && curr.depth > maxDepth {
			continue
		}
		if !keep[curr.id] {
			continue
		}
		visited[curr.id] = true

		for _, next := range g.Successors(curr.id) {
			if !visited[next] {
				queue = append(queue, hop{next, curr.depth + 1})
			}
		}
	}

	var result []model.Task
	for _, t := range tasks {
		if visited[t.ID] {
			result = append(result, t)
		}
	}
	return result
}

// subsetEdges returns the graph edges with both endpoints in the set,
// already sorted by the graph's Edges ordering.
func subsetEdges(g *taskgraph.Graph, inSet map[string]bool) []taskgraph.Edge {
	var edges []taskgraph.Edge
	for _, e := range g.Edges() {
		if inSet[e.From] && inSet[e.To] {
			edges = append(edges, e)
		}
	}
	return edges
}

// generateDOT creates a Graphviz DOT format graph. Start tasks are tinted
// green, cycle members red, everything else the neutral card colour.
func generateDOT(g *taskgraph.Graph, tasks []model.Task, edges []taskgraph.Edge) string {
	var sb strings.Builder

	sb.WriteString("digraph G {\n")
	sb.WriteString("    rankdir=LR;\n")
	sb.WriteString("    node [shape=box, fontname=\"Helvetica\", fontsize=10];\n")
	sb.WriteString("    edge [fontname=\"Helvetica\", fontsize=8];\n")
	sb.WriteString("\n")

	roots := make(map[string]bool)
	for _, id := range taskgraph.Roots(g) {
		roots[id] = true
	}
	inCycle := make(map[string]bool)
	for _, cycle := range taskgraph.Cycles(g) {
		for _, id := range cycle {
			inCycle[id] = true
		}
	}

	sorted := make([]model.Task, len(tasks))
	copy(sorted, tasks)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	for _, t := range sorted {
		name := escapeDOTString(truncateRunes(t.Name, 30))
		escapedID := escapeDOTString(t.ID)

		color := "#E3F2FD" // neutral card
		switch {
		case inCycle[t.ID]:
			color = "#FFCDD2"
		case roots[t.ID]:
			color = "#C8E6C9"
		}

		label := fmt.Sprintf("%s\\n%s", escapedID, name)
		if t.Trader.Name != "" {
			label += "\\n" + escapeDOTString(t.Trader.Name)
		}
		if t.MinPlayerLevel > 0 {
			label += fmt.Sprintf(" (lvl %d)", t.MinPlayerLevel)
		}

		// Unlock hubs get a heavier outline
		penwidth := 1.0 + 0.25*float64(len(g.Successors(t.ID)))
		if penwidth > 3.0 {
			penwidth = 3.0
		}

		sb.WriteString(fmt.Sprintf("    \"%s\" [label=\"%s\", fillcolor=\"%s\", style=filled, penwidth=%.1f];\n",
			escapedID, label, color, penwidth))
	}

	sb.WriteString("\n")

	for _, e := range edges {
		sb.WriteString(fmt.Sprintf("    \"%s\" -> \"%s\" [color=\"#6B80BF\"];\n",
			escapeDOTString(e.From), escapeDOTString(e.To)))
	}

	sb.WriteString("}\n")
	return sb.String()
}

func escapeDOTString(s string) string {
	// DOT string literals need backslashes and quotes escaped; normalize newlines.
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"\"", "\\\"",
		"\n", " ",
		"\r", " ",
	)
	return replacer.Replace(s)
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// generateMermaid creates a Mermaid diagram. Quest chains read left to
// right like the canvas.
func generateMermaid(g *taskgraph.Graph, tasks []model.Task, edges []taskgraph.Edge) string {
	var sb strings.Builder

	sb.WriteString("graph LR\n")
	sb.WriteString("    classDef start fill:#50FA7B,stroke:#333,color:#000\n")
	sb.WriteString("    classDef cycle fill:#FF5555,stroke:#333,color:#000\n")
	sb.WriteString("    classDef task fill:#8BE9FD,stroke:#333,color:#000\n")
	sb.WriteString("\n")

	roots := make(map[string]bool)
	for _, id := range taskgraph.Roots(g) {
		roots[id] = true
	}
	inCycle := make(map[string]bool)
	for _, cycle := range taskgraph.Cycles(g) {
		for _, id := range cycle {
			inCycle[id] = true
		}
	}

	sorted := make([]model.Task, len(tasks))
	copy(sorted, tasks)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	// Build deterministic, collision-free Mermaid IDs
	safeIDMap := make(map[string]string)
	usedSafe := make(map[string]bool)

	getSafeID := func(orig string) string {
		if safe, ok := safeIDMap[orig]; ok {
			return safe
		}
		base := sanitizeMermaidID(orig)
		safe := base
		if usedSafe[safe] {
			// Collision: derive stable hash-based suffix
			h := fnv.New32a()
			_, _ = h.Write([]byte(orig))
			safe = fmt.Sprintf("%s_%x", base, h.Sum32())
		}
		usedSafe[safe] = true
		safeIDMap[orig] = safe
		return safe
	}

	for _, t := range sorted {
		getSafeID(t.ID)
	}

	for _, t := range sorted {
		safeID := getSafeID(t.ID)
		label := sanitizeMermaidText(t.Name)
		if t.Trader.Name != "" {
			label += "<br/>" + sanitizeMermaidText(t.Trader.Name)
		}

		sb.WriteString(fmt.Sprintf("    %s[\"%s<br/>%s\"]\n", safeID, sanitizeMermaidText(t.ID), label))

		class := "task"
		switch {
		case inCycle[t.ID]:
			class = "cycle"
		case roots[t.ID]:
			class = "start"
		}
		sb.WriteString(fmt.Sprintf("    class %s %s\n", safeID, class))
	}

	sb.WriteString("\n")

	for _, e := range edges {
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", getSafeID(e.From), getSafeID(e.To)))
	}

	if len(edges) == 0 && len(sorted) > 0 {
		sb.WriteString("    NoLinks[\"No prerequisites\"]\n")
	}

	return sb.String()
}

// sanitizeMermaidID keeps only characters safe for Mermaid node IDs.
func sanitizeMermaidID(id string) string {
	var sb strings.Builder
	for _, r := range id {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			sb.WriteRune(r)
		}
	}
	result := sb.String()
	if result == "" {
		return "node"
	}
	return result
}

// sanitizeMermaidText prepares text for use in Mermaid node labels.
func sanitizeMermaidText(text string) string {
	replacer := strings.NewReplacer(
		"\"", "'",
		"[", "(",
		"]", ")",
		"{", "(",
		"}", ")",
		"<", "&lt;",
		">", "&gt;",
		"|", "/",
		"`", "'",
		"\n", " ",
		"\r", "",
	)
	result := replacer.Replace(text)

	result = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, result)

	result = strings.TrimSpace(result)

	return truncateRunes(result, 40)
}

// generateAdjacency creates a JSON adjacency list representation.
func generateAdjacency(tasks []model.Task, edges []taskgraph.Edge) *AdjacencyGraph {
	sorted := make([]model.Task, len(tasks))
	copy(sorted, tasks)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	nodes := make([]AdjacencyNode, 0, len(sorted))
	for _, t := range sorted {
		nodes = append(nodes, AdjacencyNode{
			ID:             t.ID,
			Name:           t.Name,
			Trader:         t.Trader.Name,
			Group:          t.Group,
			MinPlayerLevel: t.MinPlayerLevel,
		})
	}

	return &AdjacencyGraph{
		Nodes: nodes,
		Edges: edges,
	}
}

// JSON returns the result as indented JSON bytes.
func (r *GraphExportResult) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
