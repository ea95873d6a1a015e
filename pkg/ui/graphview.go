package ui

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/questwork/pkg/layout"
	"github.com/vanderheijden86/questwork/pkg/taskgraph"
)

// Zoom bounds and the detail thresholds. Terminal cells cannot scale, so
// zoom selects how much text each node box carries instead.
const (
	minZoom           = 0.5
	maxZoom           = 2.0
	zoomDetailCompact = 0.75
	zoomDetailFull    = 1.25
)

const (
	stripWidth    = 26
	stripMinTotal = 72
)

// TerminalLayoutOptions fills cell-scale defaults into a configured option
// set. The layout engine's own defaults are pixel-scale for SVG and HTML
// exports; on a terminal one layout unit is one cell.
func TerminalLayoutOptions(base layout.Options) layout.Options {
	if base.NodeWidth == 0 {
		base.NodeWidth = 24
	}
	if base.NodeHeight == 0 {
		base.NodeHeight = 5
	}
	if base.RankGap == 0 {
		base.RankGap = 8
	}
	if base.NodeGap == 0 {
		base.NodeGap = 1
	}
	if base.Margin == 0 {
		base.Margin = 2
	}
	return base
}

type cellClass uint8

const (
	cellBlank cellClass = iota
	cellNormal
	cellMatched
	cellDimmed
	cellSelected
	cellFlash
	cellEdge
)

// wideTail marks the second cell of a double-width rune so row assembly
// skips it instead of printing a stray NUL.
const wideTail rune = 0

// cellGrid is the character canvas one frame renders into. Each cell holds
// a rune plus the style class it belongs to; styling is applied per run of
// equal classes when the grid is flattened.
type cellGrid struct {
	w, h  int
	runes []rune
	class []cellClass
}

func newCellGrid(w, h int) *cellGrid {
	g := &cellGrid{
		w:     w,
		h:     h,
		runes: make([]rune, w*h),
		class: make([]cellClass, w*h),
	}
	for i := range g.runes {
		g.runes[i] = ' '
	}
	return g
}

func (g *cellGrid) set(x, y int, r rune, cl cellClass) {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return
	}
	i := y*g.w + x
	g.runes[i] = r
	g.class[i] = cl
}

func (g *cellGrid) at(x, y int) rune {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return 0
	}
	return g.runes[y*g.w+x]
}

// line places a box-drawing rune, merging a crossing into a junction so
// overlapping edges stay readable.
func (g *cellGrid) line(x, y int, r rune, cl cellClass) {
	cur := g.at(x, y)
	if (cur == '│' && r == '─') || (cur == '─' && r == '│') {
		r = '┼'
	}
	g.set(x, y, r, cl)
}

// text writes s starting at (x, y), clipped to maxW cells. Double-width
// runes occupy two cells with a tail marker in the second.
func (g *cellGrid) text(x, y, maxW int, s string, cl cellClass) {
	w := 0
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		if w+rw > maxW {
			break
		}
		g.set(x+w, y, r, cl)
		if rw == 2 {
			g.set(x+w+1, y, wideTail, cl)
		}
		w += rw
	}
}

func (g *cellGrid) render(styles map[cellClass]lipgloss.Style) string {
	var b strings.Builder
	for y := 0; y < g.h; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		row := g.runes[y*g.w : (y+1)*g.w]
		cls := g.class[y*g.w : (y+1)*g.w]
		end := g.w
		for end > 0 && row[end-1] == ' ' && cls[end-1] == cellBlank {
			end--
		}
		x := 0
		for x < end {
			cl := cls[x]
			var run strings.Builder
			for x < end && cls[x] == cl {
				if row[x] != wideTail {
					run.WriteRune(row[x])
				}
				x++
			}
			if st, ok := styles[cl]; ok && cl != cellBlank {
				b.WriteString(st.Render(run.String()))
			} else {
				b.WriteString(run.String())
			}
		}
	}
	return b.String()
}

// GraphView draws the laid-out dependency graph as node boxes on a pannable
// character canvas. It is the pan, zoom and highlight surface the focus
// controller drives, so a pointer to one instance is shared between the
// update loop and the controller's timers.
type GraphView struct {
	theme  Theme
	opts   layout.Options
	styles map[cellClass]lipgloss.Style

	graph *taskgraph.Graph
	res   *layout.Result
	order []string // rank-major node order for the overview strip

	selected  string
	filtersOn bool

	// flashed is written by highlight expiry timers off the update loop.
	mu      sync.Mutex
	flashed map[string]bool

	// Camera centre in layout coordinates.
	camX, camY float64
	zoom       float64

	showStrip   bool
	stripOffset int

	lastH, lastCanvasW int
}

func NewGraphView(theme Theme, opts layout.Options) *GraphView {
	v := &GraphView{
		theme:   theme,
		opts:    opts,
		flashed: make(map[string]bool),
		zoom:    1,
	}
	v.styles = map[cellClass]lipgloss.Style{
		cellNormal:   theme.BaseText,
		cellMatched:  theme.MatchedText,
		cellDimmed:   theme.MutedText,
		cellSelected: theme.PrimaryBold,
		cellFlash:    theme.FlashBold,
		cellEdge:     theme.EdgeText,
	}
	return v
}

// SetData swaps in a rebuilt graph and its layout. Selection survives when
// the node still exists; otherwise the cursor falls back to the canonical
// start node and the camera re-centres.
func (v *GraphView) SetData(g *taskgraph.Graph, res *layout.Result) {
	v.graph = g
	v.res = res
	v.order = v.order[:0]
	if res != nil {
		for _, rank := range res.Ranks {
			v.order = append(v.order, rank...)
		}
	}
	kept := false
	if v.selected != "" && res != nil {
		_, kept = res.Positions[v.selected]
	}
	if !kept {
		v.selected = ""
		if g != nil {
			if id, ok := taskgraph.FindStartNodeID(g); ok {
				v.selected = id
			}
		}
		v.FitView()
		return
	}
	v.EnsureVisible(v.selected)
}

// SetFilterActive tells the canvas whether match annotations should drive
// the matched and dimmed paint classes.
func (v *GraphView) SetFilterActive(on bool) { v.filtersOn = on }

// NodePosition reports the top-left corner of a node's box in layout
// coordinates.
func (v *GraphView) NodePosition(id string) (taskgraph.Point, bool) {
	if v.res == nil {
		return taskgraph.Point{}, false
	}
	p, ok := v.res.Positions[id]
	return p, ok
}

// PanZoom recentres the camera on a layout point. Terminal cells cannot
// animate a glide, so the move lands immediately; the duration only matters
// to the caller's highlight scheduling.
func (v *GraphView) PanZoom(center taskgraph.Point, zoom float64, _ time.Duration) {
	v.camX, v.camY = center.X, center.Y
	if zoom > 0 {
		v.zoom = clampFloat(zoom, minZoom, maxZoom)
	}
}

// SetHighlighted toggles the focus flash on a node. Expiry timers call this
// off the update loop, hence the lock.
func (v *GraphView) SetHighlighted(id string, on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if on {
		v.flashed[id] = true
	} else {
		delete(v.flashed, id)
	}
}

// Highlighted reports whether a node currently carries the focus flash.
func (v *GraphView) Highlighted(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.flashed[id]
}

func (v *GraphView) flashSnapshot() map[string]bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.flashed) == 0 {
		return nil
	}
	out := make(map[string]bool, len(v.flashed))
	for id := range v.flashed {
		out[id] = true
	}
	return out
}

// Camera returns the current view centre in layout coordinates.
func (v *GraphView) Camera() taskgraph.Point {
	return taskgraph.Point{X: v.camX, Y: v.camY}
}

func (v *GraphView) Zoom() float64 { return v.zoom }

func (v *GraphView) ZoomIn()  { v.zoom = clampFloat(v.zoom+0.25, minZoom, maxZoom) }
func (v *GraphView) ZoomOut() { v.zoom = clampFloat(v.zoom-0.25, minZoom, maxZoom) }

// FitView centres the camera on the drawing and resets zoom.
func (v *GraphView) FitView() {
	if v.res == nil {
		return
	}
	v.camX = v.res.Width / 2
	v.camY = v.res.Height / 2
	v.zoom = 1
}

func (v *GraphView) Selected() string { return v.selected }

// Select moves the cursor to the given node. Unknown IDs leave the cursor
// where it is.
func (v *GraphView) Select(id string) bool {
	if v.res == nil {
		return false
	}
	if _, ok := v.res.Positions[id]; !ok {
		return false
	}
	v.selected = id
	v.EnsureVisible(id)
	return true
}

func (v *GraphView) rankIndex(id string) (rank, idx int, ok bool) {
	if v.res == nil {
		return 0, 0, false
	}
	rank, ok = v.res.RankOf[id]
	if !ok {
		return 0, 0, false
	}
	for i, nid := range v.res.Ranks[rank] {
		if nid == id {
			return rank, i, true
		}
	}
	return 0, 0, false
}

func (v *GraphView) selectFirst() {
	if v.graph == nil {
		return
	}
	if id, ok := taskgraph.FindStartNodeID(v.graph); ok {
		v.Select(id)
	}
}

// MoveWithinRank moves the cursor delta steps along its own rank.
func (v *GraphView) MoveWithinRank(delta int) {
	rank, idx, ok := v.rankIndex(v.selected)
	if !ok {
		v.selectFirst()
		return
	}
	ids := v.res.Ranks[rank]
	next := clamp(idx+delta, 0, len(ids)-1)
	if next != idx {
		v.Select(ids[next])
	}
}

// MoveRank moves the cursor to the adjacent rank, landing on the node whose
// centre is nearest along the cross axis.
func (v *GraphView) MoveRank(delta int) {
	rank, _, ok := v.rankIndex(v.selected)
	if !ok {
		v.selectFirst()
		return
	}
	target := rank + delta
	if target < 0 || target >= len(v.res.Ranks) || len(v.res.Ranks[target]) == 0 {
		return
	}
	cur, _ := v.res.CenterOf(v.selected)
	cross := func(p taskgraph.Point) float64 {
		if v.opts.Direction == layout.TopToBottom {
			return math.Abs(p.X - cur.X)
		}
		return math.Abs(p.Y - cur.Y)
	}
	best := ""
	bestD := math.MaxFloat64
	for _, id := range v.res.Ranks[target] {
		c, _ := v.res.CenterOf(id)
		if d := cross(c); d < bestD {
			bestD = d
			best = id
		}
	}
	if best != "" {
		v.Select(best)
	}
}

// EnsureVisible pans the camera the minimum distance that brings the node's
// box fully on screen. A no-op before the first render sizes the canvas.
func (v *GraphView) EnsureVisible(id string) {
	if v.res == nil || v.lastCanvasW <= 0 || v.lastH <= 0 {
		return
	}
	p, ok := v.res.Positions[id]
	if !ok {
		return
	}
	const pad = 2
	w := v.opts.NodeWidth
	h := v.opts.NodeHeight
	viewW := float64(v.lastCanvasW)
	viewH := float64(v.lastH)
	left := v.camX - viewW/2
	top := v.camY - viewH/2
	if p.X-pad < left {
		v.camX += (p.X - pad) - left
	} else if p.X+w+pad > left+viewW {
		v.camX += (p.X + w + pad) - (left + viewW)
	}
	if p.Y-pad < top {
		v.camY += (p.Y - pad) - top
	} else if p.Y+h+pad > top+viewH {
		v.camY += (p.Y + h + pad) - (top + viewH)
	}
}

// ToggleStrip shows or hides the rank-ordered overview strip.
func (v *GraphView) ToggleStrip() { v.showStrip = !v.showStrip }

// View renders the canvas at the given size. Boxes outside the camera
// window are culled before any cell work happens.
func (v *GraphView) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	v.lastH = height
	if v.graph == nil || v.res == nil || len(v.res.Positions) == 0 {
		empty := PanelStyle.Render("no tasks to display")
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, empty)
	}

	stripW := 0
	strip := ""
	if v.showStrip && width >= stripMinTotal {
		stripW = stripWidth
		strip = v.renderStrip(stripW, height)
	}
	canvasW := width - stripW
	if stripW > 0 {
		canvasW--
	}
	v.lastCanvasW = canvasW

	grid := newCellGrid(canvasW, height)
	originX := v.camX - float64(canvasW)/2
	originY := v.camY - float64(height)/2
	flashed := v.flashSnapshot()

	for _, e := range v.graph.Edges() {
		v.drawEdge(grid, e, originX, originY)
	}
	for _, n := range v.graph.Nodes() {
		v.drawNode(grid, n, originX, originY, flashed)
	}

	canvas := grid.render(v.styles)
	if stripW > 0 {
		sep := strings.TrimSuffix(strings.Repeat("│\n", height), "\n")
		return lipgloss.JoinHorizontal(lipgloss.Top, strip, sep, canvas)
	}
	return canvas
}

func (v *GraphView) nodeClass(n *taskgraph.Node, flash bool) cellClass {
	switch {
	case n.Task.ID == v.selected:
		return cellSelected
	case flash:
		return cellFlash
	case v.filtersOn && !n.Matched:
		return cellDimmed
	case v.filtersOn:
		return cellMatched
	default:
		return cellNormal
	}
}

func (v *GraphView) drawNode(g *cellGrid, n *taskgraph.Node, originX, originY float64, flashed map[string]bool) {
	id := n.Task.ID
	p, ok := v.res.Positions[id]
	if !ok {
		return
	}
	w := int(v.opts.NodeWidth)
	h := int(v.opts.NodeHeight)
	x := int(math.Round(p.X - originX))
	y := int(math.Round(p.Y - originY))
	if x+w < 0 || y+h < 0 || x >= g.w || y >= g.h {
		return
	}
	cls := v.nodeClass(n, flashed[id])
	drawBox(g, x, y, w, h, cls, id == v.selected)

	inner := w - 4
	if inner < 1 || h < 3 {
		return
	}
	for i, line := range v.nodeLines(n, flashed[id], inner) {
		if i >= h-2 {
			break
		}
		g.text(x+2, y+1+i, inner, line, cls)
	}
}

func (v *GraphView) nodeLines(n *taskgraph.Node, flash bool, maxW int) []string {
	t := n.Task
	name := t.Name
	if name == "" {
		name = t.ID
	}
	if flash {
		name = "◈ " + name
	}
	lines := []string{truncateToWidth(name, maxW, "…")}
	if v.zoom >= zoomDetailCompact && t.Trader.Name != "" {
		lines = append(lines, truncateToWidth(t.Trader.Name, maxW, "…"))
	}
	if v.zoom >= zoomDetailFull {
		meta := ""
		if t.MinPlayerLevel > 0 {
			meta = formatLevel(t.MinPlayerLevel)
		}
		if t.Group != "" {
			if meta != "" {
				meta += " · "
			}
			meta += t.Group
		}
		if meta != "" {
			lines = append(lines, truncateToWidth(meta, maxW, "…"))
		}
	}
	return lines
}

func drawBox(g *cellGrid, x, y, w, h int, cls cellClass, double bool) {
	if w < 2 || h < 2 {
		return
	}
	tl, tr, bl, br, hr, vr := '╭', '╮', '╰', '╯', '─', '│'
	if double {
		tl, tr, bl, br, hr, vr = '╔', '╗', '╚', '╝', '═', '║'
	}
	for j := 1; j < h-1; j++ {
		for i := 1; i < w-1; i++ {
			g.set(x+i, y+j, ' ', cls)
		}
		g.set(x, y+j, vr, cls)
		g.set(x+w-1, y+j, vr, cls)
	}
	for i := 1; i < w-1; i++ {
		g.set(x+i, y, hr, cls)
		g.set(x+i, y+h-1, hr, cls)
	}
	g.set(x, y, tl, cls)
	g.set(x+w-1, y, tr, cls)
	g.set(x, y+h-1, bl, cls)
	g.set(x+w-1, y+h-1, br, cls)
}

func (v *GraphView) edgeClass(e taskgraph.Edge) cellClass {
	if e.From == v.selected || e.To == v.selected {
		return cellSelected
	}
	if v.filtersOn {
		fn, okF := v.graph.Node(e.From)
		tn, okT := v.graph.Node(e.To)
		if okF && okT && !fn.Matched && !tn.Matched {
			return cellDimmed
		}
	}
	return cellEdge
}

func (v *GraphView) drawEdge(g *cellGrid, e taskgraph.Edge, originX, originY float64) {
	pf, okF := v.res.Positions[e.From]
	pt, okT := v.res.Positions[e.To]
	if !okF || !okT {
		return
	}
	cls := v.edgeClass(e)
	w := int(v.opts.NodeWidth)
	h := int(v.opts.NodeHeight)
	fx := int(math.Round(pf.X - originX))
	fy := int(math.Round(pf.Y - originY))
	tx := int(math.Round(pt.X - originX))
	ty := int(math.Round(pt.Y - originY))

	if v.opts.Direction == layout.TopToBottom {
		if ty <= fy {
			v.sideConnector(g, fx, fy, tx, ty, w, h, cls)
			return
		}
		v.elbowVertical(g, fx+w/2, fy+h, tx+w/2, ty-1, cls)
		return
	}
	if tx <= fx {
		v.stackConnector(g, fx, fy, tx, ty, w, h, cls)
		return
	}
	v.elbowHorizontal(g, fx+w, fy+h/2, tx-1, ty+h/2, cls)
}

// elbowHorizontal routes an edge rightward from (x1, y1) to an arrowhead at
// (x2, y2) with a single vertical jog halfway across the rank gap.
func (v *GraphView) elbowHorizontal(g *cellGrid, x1, y1, x2, y2 int, cls cellClass) {
	if y1 == y2 {
		hseg(g, x1, x2-1, y1, cls)
		g.set(x2, y2, '▶', cls)
		return
	}
	midX := x1 + (x2-x1)/2
	hseg(g, x1, midX-1, y1, cls)
	hseg(g, midX+1, x2-1, y2, cls)
	if y2 > y1 {
		g.line(midX, y1, '╮', cls)
		vseg(g, midX, y1+1, y2-1, cls)
		g.line(midX, y2, '╰', cls)
	} else {
		g.line(midX, y1, '╯', cls)
		vseg(g, midX, y2+1, y1-1, cls)
		g.line(midX, y2, '╭', cls)
	}
	g.set(x2, y2, '▶', cls)
}

// elbowVertical is the top-to-bottom mirror of elbowHorizontal.
func (v *GraphView) elbowVertical(g *cellGrid, x1, y1, x2, y2 int, cls cellClass) {
	if x1 == x2 {
		vseg(g, x1, y1, y2-1, cls)
		g.set(x2, y2, '▼', cls)
		return
	}
	midY := y1 + (y2-y1)/2
	vseg(g, x1, y1, midY-1, cls)
	vseg(g, x2, midY+1, y2-1, cls)
	if x2 > x1 {
		g.line(x1, midY, '╰', cls)
		hseg(g, x1+1, x2-1, midY, cls)
		g.line(x2, midY, '╮', cls)
	} else {
		g.line(x1, midY, '╯', cls)
		hseg(g, x2+1, x1-1, midY, cls)
		g.line(x2, midY, '╭', cls)
	}
	g.set(x2, y2, '▼', cls)
}

// stackConnector joins two vertically stacked boxes of the same rank in a
// left-to-right drawing. Only cycle members produce such edges; the layout
// places them in one column, so a straight run with an arrowhead suffices.
// fx, fy, tx, ty are box top-left corners in screen cells.
func (v *GraphView) stackConnector(g *cellGrid, fx, fy, tx, ty, w, h int, cls cellClass) {
	sx := fx + w/2
	ax := tx + w/2
	if ty > fy {
		vseg(g, sx, fy+h, ty-2, cls)
		g.set(ax, ty-1, '▼', cls)
	} else {
		vseg(g, sx, ty+h+1, fy-1, cls)
		g.set(ax, ty+h, '▲', cls)
	}
}

// sideConnector is the top-to-bottom mirror of stackConnector: same-rank
// boxes sit side by side, and the run connects their facing borders.
func (v *GraphView) sideConnector(g *cellGrid, fx, fy, tx, ty, w, h int, cls cellClass) {
	sy := fy + h/2
	ay := ty + h/2
	if tx > fx {
		hseg(g, fx+w, tx-2, sy, cls)
		g.set(tx-1, ay, '▶', cls)
	} else {
		hseg(g, tx+w+1, fx-1, sy, cls)
		g.set(tx+w, ay, '◀', cls)
	}
}

func hseg(g *cellGrid, x1, x2, y int, cls cellClass) {
	for x := x1; x <= x2; x++ {
		g.line(x, y, '─', cls)
	}
}

func vseg(g *cellGrid, x, y1, y2 int, cls cellClass) {
	for y := y1; y <= y2; y++ {
		g.line(x, y, '│', cls)
	}
}

// renderStrip draws the rank-ordered node overview with a scroll window
// that follows the cursor.
func (v *GraphView) renderStrip(width, height int) string {
	total := len(v.order)
	rows := height - 1
	if rows < 1 || total == 0 {
		return spaces(width)
	}
	selIdx := 0
	for i, id := range v.order {
		if id == v.selected {
			selIdx = i
			break
		}
	}
	v.stripOffset = followWindow(selIdx, rows, total, v.stripOffset)
	start, end := VisibleWindow(total, 1, rows, v.stripOffset)

	var b strings.Builder
	header := fmt.Sprintf("(%d-%d of %d)", start+1, end, total)
	b.WriteString(v.theme.MutedText.Render(padToWidth(header, width)))
	flashed := v.flashSnapshot()
	for i := start; i < end; i++ {
		id := v.order[i]
		n, ok := v.graph.Node(id)
		if !ok {
			continue
		}
		marker := "  "
		style := v.theme.BaseText
		switch {
		case id == v.selected:
			marker = "▸ "
			style = v.theme.PrimaryBold
		case flashed[id]:
			style = v.theme.FlashBold
		case v.filtersOn && !n.Matched:
			style = v.theme.MutedText
		}
		name := n.Task.Name
		if name == "" {
			name = id
		}
		b.WriteString("\n" + style.Render(padToWidth(marker+name, width)))
	}
	for i := end - start; i < rows; i++ {
		b.WriteString("\n" + spaces(width))
	}
	return b.String()
}
