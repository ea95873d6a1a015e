package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vanderheijden86/questwork/pkg/layout"
	"github.com/vanderheijden86/questwork/pkg/match"
	"github.com/vanderheijden86/questwork/pkg/taskgraph"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"github.com/mattn/go-runewidth"
	"golang.org/x/image/font/basicfont"
)

// SnapshotOptions controls static snapshot export behaviour.
type SnapshotOptions struct {
	Path    string           // Output path; format inferred from extension when Format empty
	Format  string           // "svg" or "png" (case-insensitive). If empty, inferred from Path.
	Title   string           // Optional title rendered in the summary block
	Preset  string           // Node geometry preset: "compact" (default) or "roomy"
	Source  string           // Optional provenance line (path of the data source)
	Graph   *taskgraph.Graph // Graph to render; Matched flags drive the tints
	Layout  *layout.Result   // Optional precomputed layout; computed from Preset when nil
	Filters match.Filters    // Active filters, rendered in the summary; dims unmatched nodes
}

// Node geometry presets.
const (
	SnapshotPresetCompact = "compact"
	SnapshotPresetRoomy   = "roomy"
)

// PresetOptions returns the layout geometry for a snapshot preset. The
// snapshot cards carry three short text lines, so they are far smaller
// than the terminal canvas nodes.
func PresetOptions(preset string) layout.Options {
	if strings.EqualFold(preset, SnapshotPresetRoomy) {
		return layout.Options{NodeWidth: 220, NodeHeight: 84, RankGap: 110, NodeGap: 48}
	}
	return layout.Options{NodeWidth: 180, NodeHeight: 68, RankGap: 80, NodeGap: 32}
}

// SaveSnapshot renders a static snapshot (SVG or PNG) of the quest graph
// with a summary block and legend. The visual language stays minimal so
// the output is readable in wikis and terminals with image support.
func SaveSnapshot(opts SnapshotOptions) error {
	if opts.Graph == nil || len(opts.Graph.Nodes()) == 0 {
		return fmt.Errorf("no tasks to export")
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "svg" // safe default
			if opts.Path != "" && filepath.Ext(opts.Path) == "" {
				opts.Path = opts.Path + ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	frame := buildFrame(opts)

	switch format {
	case "svg":
		file, err := os.Create(opts.Path)
		if err != nil {
			return err
		}
		defer file.Close()
		return renderSVG(file, frame)
	case "png":
		return renderPNG(opts.Path, frame)
	default:
		return fmt.Errorf("unhandled format %q", format)
	}
}

// --- frame construction ----------------------------------------------------

type frameNode struct {
	ID      string
	Name    string
	Trader  string
	Matched bool
	Dimmed  bool
	X, Y    float64
	W, H    float64
}

type frameEdge struct {
	X1, Y1 int
	X2, Y2 int
}

type snapshotFrame struct {
	Nodes    []frameNode
	Edges    []frameEdge
	Guides   []frameEdge // separator lines between ranks
	Vertical bool        // true when rank 0 is at the top
	Width    int
	Height   int
	Header   float64
	Summary  summaryInfo
}

type summaryInfo struct {
	Title     string
	Source    string
	TaskCount int
	EdgeCount int
	RankCount int
	Matched   int
	Filter    string
	TopTrader string
}

func buildFrame(opts SnapshotOptions) snapshotFrame {
	const headerHeight = 120.0

	res := opts.Layout
	if res == nil {
		res = layout.Compute(opts.Graph, PresetOptions(opts.Preset))
	}
	vertical := res.Options.Direction == layout.TopToBottom
	nodeW := res.Options.NodeWidth
	nodeH := res.Options.NodeHeight

	filtersActive := opts.Filters.Active()
	matched := 0
	var nodes []frameNode
	for _, n := range opts.Graph.Nodes() {
		p, ok := res.Positions[n.Task.ID]
		if !ok {
			continue
		}
		if n.Matched {
			matched++
		}
		nodes = append(nodes, frameNode{
			ID:      n.Task.ID,
			Name:    n.Task.Name,
			Trader:  n.Task.Trader.Name,
			Matched: filtersActive && n.Matched,
			Dimmed:  filtersActive && !n.Matched,
			X:       p.X,
			Y:       p.Y + headerHeight,
			W:       nodeW,
			H:       nodeH,
		})
	}

	width := int(res.Width)
	if width < 640 {
		width = 640
	}
	height := int(res.Height + headerHeight)
	if height < 480 {
		height = 480
	}

	pos := make(map[string]frameNode, len(nodes))
	for _, n := range nodes {
		pos[n.ID] = n
	}
	var edges []frameEdge
	for _, e := range opts.Graph.Edges() {
		from, okF := pos[e.From]
		to, okT := pos[e.To]
		if !okF || !okT {
			continue
		}
		if vertical {
			edges = append(edges, frameEdge{
				X1: int(from.X + from.W/2), Y1: int(from.Y + from.H),
				X2: int(to.X + to.W/2), Y2: int(to.Y),
			})
		} else {
			edges = append(edges, frameEdge{
				X1: int(from.X + from.W), Y1: int(from.Y + from.H/2),
				X2: int(to.X), Y2: int(to.Y + to.H/2),
			})
		}
	}

	guides := rankGuides(res, nodes, width, headerHeight, vertical)

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = "Quest Graph"
	}

	return snapshotFrame{
		Nodes:    nodes,
		Edges:    edges,
		Guides:   guides,
		Vertical: vertical,
		Width:    width,
		Height:   height,
		Header:   headerHeight,
		Summary: summaryInfo{
			Title:     title,
			Source:    opts.Source,
			TaskCount: len(nodes),
			EdgeCount: len(edges),
			RankCount: len(res.Ranks),
			Matched:   matched,
			Filter:    filterLabel(opts.Filters),
			TopTrader: topTrader(opts.Graph),
		},
	}
}

// rankGuides places a separator line in each gap between adjacent ranks.
func rankGuides(res *layout.Result, nodes []frameNode, width int, header float64, vertical bool) []frameEdge {
	if len(res.Ranks) < 2 {
		return nil
	}

	// Primary coordinate of each rank, taken from its first node
	coord := make([]float64, 0, len(res.Ranks))
	for _, rank := range res.Ranks {
		if len(rank) == 0 {
			continue
		}
		p := res.Positions[rank[0]]
		if vertical {
			coord = append(coord, p.Y+header)
		} else {
			coord = append(coord, p.X)
		}
	}

	var maxCross float64
	for _, n := range nodes {
		if vertical {
			if edge := n.X + n.W; edge > maxCross {
				maxCross = edge
			}
		} else {
			if edge := n.Y + n.H; edge > maxCross {
				maxCross = edge
			}
		}
	}

	var guides []frameEdge
	for i := 1; i < len(coord); i++ {
		if vertical {
			mid := int((coord[i-1] + res.Options.NodeHeight + coord[i]) / 2)
			guides = append(guides, frameEdge{X1: 16, Y1: mid, X2: int(maxCross) + 16, Y2: mid})
		} else {
			mid := int((coord[i-1] + res.Options.NodeWidth + coord[i]) / 2)
			guides = append(guides, frameEdge{X1: mid, Y1: int(header) + 8, X2: mid, Y2: int(maxCross) + 16})
		}
	}
	return guides
}

func filterLabel(f match.Filters) string {
	if !f.Active() {
		return "none"
	}
	var parts []string
	// Plain key=value, no quoting: the SVG renderer XML-escapes text, so
	// quote characters would surface as entities in the summary block.
	if f.Trader != "" {
		parts = append(parts, "trader="+f.Trader)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		parts = append(parts, "search="+s)
	}
	if r := strings.TrimSpace(f.RewardTerm); r != "" {
		parts = append(parts, "reward="+r)
	}
	return strings.Join(parts, " ")
}

// topTrader returns the trader giving the most tasks, ties broken by name.
func topTrader(g *taskgraph.Graph) string {
	counts := make(map[string]int)
	for _, n := range g.Nodes() {
		if n.Task.Trader.Name != "" {
			counts[n.Task.Trader.Name]++
		}
	}
	if len(counts) == 0 {
		return "n/a"
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	best := names[0]
	for _, name := range names[1:] {
		if counts[name] > counts[best] {
			best = name
		}
	}
	return fmt.Sprintf("%s (%d tasks)", best, counts[best])
}

// --- rendering -------------------------------------------------------------

var (
	colorNode     = color.RGBA{0xe3, 0xf2, 0xfd, 0xff}
	colorMatched  = color.RGBA{0xc8, 0xe6, 0xc9, 0xff}
	colorDimmed   = color.RGBA{0xec, 0xef, 0xf1, 0xff}
	colorStroke   = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorEdge     = color.RGBA{0x6b, 0x80, 0xbf, 0xff}
	colorGuide    = color.RGBA{0xd7, 0xde, 0xe6, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorLegendBG = color.RGBA{0xee, 0xee, 0xee, 0xff}
)

func nodeFill(n frameNode) color.RGBA {
	switch {
	case n.Matched:
		return colorMatched
	case n.Dimmed:
		return colorDimmed
	default:
		return colorNode
	}
}

func renderSVG(w io.Writer, frame snapshotFrame) error {
	canvas := svg.New(w)
	canvas.Start(frame.Width, frame.Height)
	canvas.Rect(0, 0, frame.Width, frame.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(16, 16, frame.Width-32, int(frame.Header-24), 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))

	drawSummaryBlockSVG(canvas, frame)
	drawLegendSVG(canvas, frame)

	for _, g := range frame.Guides {
		canvas.Line(g.X1, g.Y1, g.X2, g.Y2,
			fmt.Sprintf("stroke:%s;stroke-width:1;stroke-dasharray:4 4", css(colorGuide)))
	}

	for _, e := range frame.Edges {
		canvas.Line(e.X1, e.Y1, e.X2, e.Y2, fmt.Sprintf("stroke:%s;stroke-width:2", css(colorEdge)))
		if frame.Vertical {
			canvas.Polygon(
				[]int{e.X2, e.X2 - 4, e.X2 + 4},
				[]int{e.Y2, e.Y2 - 8, e.Y2 - 8},
				fmt.Sprintf("fill:%s", css(colorEdge)),
			)
		} else {
			canvas.Polygon(
				[]int{e.X2, e.X2 - 8, e.X2 - 8},
				[]int{e.Y2, e.Y2 - 4, e.Y2 + 4},
				fmt.Sprintf("fill:%s", css(colorEdge)),
			)
		}
	}

	for _, n := range frame.Nodes {
		x := int(n.X)
		y := int(n.Y)
		cols := textCols(n.W)
		canvas.Roundrect(x, y, int(n.W), int(n.H), 8, 8,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1.2", css(nodeFill(n)), css(colorStroke)))
		canvas.Text(x+10, y+20, runewidth.Truncate(n.ID, cols, "..."),
			fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold", css(colorText)))
		canvas.Text(x+10, y+38, runewidth.Truncate(n.Name, cols, "..."),
			fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorText)))
		canvas.Text(x+10, y+54, runewidth.Truncate(n.Trader, cols, "..."),
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorSubtle)))
	}

	canvas.End()
	return nil
}

func renderPNG(path string, frame snapshotFrame) error {
	dc := gg.NewContext(frame.Width, frame.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(frame.Width)-32, frame.Header-24, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)

	drawSummaryBlock(dc, frame)
	drawLegend(dc, frame)

	dc.SetColor(colorGuide)
	dc.SetLineWidth(1)
	dc.SetDash(4, 4)
	for _, g := range frame.Guides {
		dc.DrawLine(float64(g.X1), float64(g.Y1), float64(g.X2), float64(g.Y2))
		dc.Stroke()
	}
	dc.SetDash()

	dc.SetColor(colorEdge)
	dc.SetLineWidth(2)
	for _, e := range frame.Edges {
		dc.DrawLine(float64(e.X1), float64(e.Y1), float64(e.X2), float64(e.Y2))
		dc.Stroke()
		drawArrow(dc, e, frame.Vertical)
	}

	for _, n := range frame.Nodes {
		drawNode(dc, n)
	}

	return dc.SavePNG(path)
}

func drawArrow(dc *gg.Context, e frameEdge, vertical bool) {
	dc.SetColor(colorEdge)
	dc.NewSubPath()
	dc.MoveTo(float64(e.X2), float64(e.Y2))
	if vertical {
		dc.LineTo(float64(e.X2-4), float64(e.Y2-8))
		dc.LineTo(float64(e.X2+4), float64(e.Y2-8))
	} else {
		dc.LineTo(float64(e.X2-8), float64(e.Y2-4))
		dc.LineTo(float64(e.X2-8), float64(e.Y2+4))
	}
	dc.ClosePath()
	dc.Fill()
}

func drawNode(dc *gg.Context, n frameNode) {
	dc.SetColor(nodeFill(n))
	dc.DrawRoundedRectangle(n.X, n.Y, n.W, n.H, 8)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.SetLineWidth(1.2)
	dc.DrawRoundedRectangle(n.X, n.Y, n.W, n.H, 8)
	dc.Stroke()

	cols := textCols(n.W)
	dc.SetColor(colorText)
	dc.DrawStringAnchored(runewidth.Truncate(n.ID, cols, "..."), n.X+10, n.Y+16, 0, 0.5)
	dc.DrawStringAnchored(runewidth.Truncate(n.Name, cols, "..."), n.X+10, n.Y+34, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(runewidth.Truncate(n.Trader, cols, "..."), n.X+10, n.Y+50, 0, 0.5)
}

func drawSummaryBlock(dc *gg.Context, frame snapshotFrame) {
	s := frame.Summary
	dc.SetColor(colorText)
	dc.DrawStringAnchored(s.Title, 32, 44, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(summaryCountsLine(s), 32, 64, 0, 0.5)
	dc.DrawStringAnchored(summaryFilterLine(s), 32, 84, 0, 0.5)
	dc.DrawStringAnchored(summaryOriginLine(s), 32, 104, 0, 0.5)
}

func drawLegend(dc *gg.Context, frame snapshotFrame) {
	boxW := 190.0
	boxH := 80.0
	x := float64(frame.Width) - boxW - 20
	y := 24.0
	dc.SetColor(colorLegendBG)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 10)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 10)
	dc.Stroke()

	dc.SetColor(colorText)
	dc.DrawStringAnchored("Legend", x+12, y+18, 0, 0.5)
	drawLegendRow(dc, x+12, y+36, colorMatched, "Matches filter")
	drawLegendRow(dc, x+12, y+52, colorDimmed, "Filtered out")
	drawLegendRow(dc, x+12, y+68, colorNode, "Task (no filter)")
}

func drawLegendRow(dc *gg.Context, x, y float64, c color.RGBA, label string) {
	dc.SetColor(c)
	dc.DrawRoundedRectangle(x, y-8, 14, 14, 3)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.DrawRoundedRectangle(x, y-8, 14, 14, 3)
	dc.Stroke()
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(label, x+20, y, 0, 0.5)
}

func drawSummaryBlockSVG(canvas *svg.SVG, frame snapshotFrame) {
	s := frame.Summary
	canvas.Text(32, 44, s.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(32, 64, summaryCountsLine(s), fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	canvas.Text(32, 84, summaryFilterLine(s), fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	canvas.Text(32, 104, summaryOriginLine(s), fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
}

func drawLegendSVG(canvas *svg.SVG, frame snapshotFrame) {
	boxW := 190
	boxH := 80
	x := frame.Width - boxW - 20
	y := 24
	canvas.Roundrect(x, y, boxW, boxH, 10, 10, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(colorLegendBG), css(colorStroke)))
	canvas.Text(x+12, y+18, "Legend", fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold", css(colorText)))
	drawLegendRowSVG(canvas, x+12, y+36, colorMatched, "Matches filter")
	drawLegendRowSVG(canvas, x+12, y+52, colorDimmed, "Filtered out")
	drawLegendRowSVG(canvas, x+12, y+68, colorNode, "Task (no filter)")
}

func drawLegendRowSVG(canvas *svg.SVG, x, y int, c color.RGBA, label string) {
	canvas.Roundrect(x, y-8, 14, 14, 3, 3, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(c), css(colorStroke)))
	canvas.Text(x+20, y, label, fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
}

// --- helpers ---------------------------------------------------------------

func summaryCountsLine(s summaryInfo) string {
	return fmt.Sprintf("tasks: %d  edges: %d  ranks: %d", s.TaskCount, s.EdgeCount, s.RankCount)
}

func summaryFilterLine(s summaryInfo) string {
	if s.Filter == "none" {
		return "filter: none"
	}
	return fmt.Sprintf("matched: %d of %d  filter: %s", s.Matched, s.TaskCount, s.Filter)
}

func summaryOriginLine(s summaryInfo) string {
	if s.Source != "" {
		return fmt.Sprintf("source: %s", s.Source)
	}
	return fmt.Sprintf("top trader: %s", s.TopTrader)
}

// textCols converts a node pixel width into monospace columns, CJK-aware
// truncation happens in display cells rather than runes.
func textCols(w float64) int {
	cols := int((w - 20) / 7)
	if cols < 4 {
		cols = 4
	}
	return cols
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
