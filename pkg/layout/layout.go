// Package layout computes layered coordinates for task graphs.
//
// The pipeline follows the classic layered-drawing stages: rank
// assignment by longest path over the strongly-connected-component
// condensation (so cyclic quest chains collapse into one rank instead
// of looping forever), barycenter ordering within ranks to reduce edge
// crossings, and coordinate assignment. Positions are top-left corners.
// Output is deterministic for a given graph and option set.
package layout

import (
	"sort"

	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/questwork/pkg/metrics"
	"github.com/vanderheijden86/questwork/pkg/taskgraph"
)

// Direction controls which axis ranks advance along.
type Direction string

const (
	// LeftToRight places rank 0 at the left edge. This is the default:
	// quest chains read like a timeline.
	LeftToRight Direction = "LR"
	// TopToBottom places rank 0 at the top edge.
	TopToBottom Direction = "TB"
)

// Options configures node geometry and spacing. Zero values take the
// defaults below.
type Options struct {
	NodeWidth   float64   `json:"nodeWidth"`
	NodeHeight  float64   `json:"nodeHeight"`
	RankGap     float64   `json:"rankGap"`
	NodeGap     float64   `json:"nodeGap"`
	Margin      float64   `json:"margin"`
	Direction   Direction `json:"direction"`
	OrderPasses int       `json:"orderPasses"`
}

const (
	DefaultNodeWidth   = 340
	DefaultNodeHeight  = 120
	DefaultRankGap     = 120
	DefaultNodeGap     = 40
	DefaultMargin      = 24
	DefaultOrderPasses = 4
)

func (o Options) withDefaults() Options {
	if o.NodeWidth <= 0 {
		o.NodeWidth = DefaultNodeWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = DefaultNodeHeight
	}
	if o.RankGap <= 0 {
		o.RankGap = DefaultRankGap
	}
	if o.NodeGap <= 0 {
		o.NodeGap = DefaultNodeGap
	}
	if o.Margin <= 0 {
		o.Margin = DefaultMargin
	}
	if o.OrderPasses <= 0 {
		o.OrderPasses = DefaultOrderPasses
	}
	if o.Direction != TopToBottom {
		o.Direction = LeftToRight
	}
	return o
}

// Result holds the computed geometry for one graph.
type Result struct {
	Positions map[string]taskgraph.Point `json:"positions"`
	RankOf    map[string]int             `json:"rankOf"`
	Ranks     [][]string                 `json:"ranks"`
	Width     float64                    `json:"width"`
	Height    float64                    `json:"height"`
	Options   Options                    `json:"options"`
}

// CenterOf returns the centre point of a node, which pan targets use.
func (r *Result) CenterOf(id string) (taskgraph.Point, bool) {
	p, ok := r.Positions[id]
	if !ok {
		return taskgraph.Point{}, false
	}
	return taskgraph.Point{
		X: p.X + r.Options.NodeWidth/2,
		Y: p.Y + r.Options.NodeHeight/2,
	}, true
}

// Compute lays out the graph. Every node receives a position; edges are
// read from the graph and never modified.
func Compute(g *taskgraph.Graph, opts Options) *Result {
	done := metrics.Timer(metrics.LayoutCompute)
	defer done()

	opts = opts.withDefaults()
	res := &Result{
		Positions: make(map[string]taskgraph.Point),
		RankOf:    make(map[string]int),
		Options:   opts,
	}

	nodes := g.Nodes()
	if len(nodes) == 0 {
		return res
	}

	// Input order seeds every tie-break so repeated runs agree.
	order := make(map[string]int, len(nodes))
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		order[n.Task.ID] = i
		ids[i] = n.Task.ID
	}

	comp := condense(g)
	rankOfComp := rankComponents(g, comp, order)

	maxRank := 0
	for _, id := range ids {
		r := rankOfComp[comp[id]]
		res.RankOf[id] = r
		if r > maxRank {
			maxRank = r
		}
	}

	ranks := make([][]string, maxRank+1)
	for _, id := range ids {
		r := res.RankOf[id]
		ranks[r] = append(ranks[r], id)
	}

	orderRanks(g, ranks, opts.OrderPasses)
	res.Ranks = ranks

	assignCoordinates(res, opts)
	return res
}

// Apply copies computed positions onto the graph nodes.
func Apply(g *taskgraph.Graph, res *Result) {
	for _, n := range g.Nodes() {
		if p, ok := res.Positions[n.Task.ID]; ok {
			n.Pos = p
		}
	}
}

// condense maps every task ID to a strongly connected component index.
// Members of a cycle share an index and therefore a rank.
func condense(g *taskgraph.Graph) map[string]int {
	comp := make(map[string]int)
	for i, members := range topo.TarjanSCC(g.Directed()) {
		for _, n := range members {
			if id, ok := g.TaskID(n.ID()); ok {
				comp[id] = i
			}
		}
	}
	return comp
}

// rankComponents assigns a rank to each component by longest path from
// the roots of the condensation. Tarjan guarantees the condensation is
// acyclic, so the queue drains even when the task data has cycles.
func rankComponents(g *taskgraph.Graph, comp map[string]int, order map[string]int) []int {
	n := 0
	for _, c := range comp {
		if c >= n {
			n = c + 1
		}
	}

	succs := make([][]int, n)
	indeg := make([]int, n)
	seen := make(map[[2]int]bool)
	for _, e := range g.Edges() {
		cf, ct := comp[e.From], comp[e.To]
		if cf == ct {
			continue
		}
		key := [2]int{cf, ct}
		if seen[key] {
			continue
		}
		seen[key] = true
		succs[cf] = append(succs[cf], ct)
		indeg[ct]++
	}

	// Smallest member input index per component keeps processing stable
	// even though Tarjan numbers components from map iteration.
	tie := make([]int, n)
	for c := range tie {
		tie[c] = int(^uint(0) >> 1)
	}
	for id, c := range comp {
		if o := order[id]; o < tie[c] {
			tie[c] = o
		}
	}

	rank := make([]int, n)
	queue := make([]int, 0, n)
	for c := 0; c < n; c++ {
		if indeg[c] == 0 {
			queue = append(queue, c)
		}
	}
	sort.Slice(queue, func(i, j int) bool { return tie[queue[i]] < tie[queue[j]] })

	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		next := succs[c]
		sort.Slice(next, func(i, j int) bool { return tie[next[i]] < tie[next[j]] })
		for _, s := range next {
			if r := rank[c] + 1; r > rank[s] {
				rank[s] = r
			}
			indeg[s]--
			if indeg[s] == 0 {
				queue = append(queue, s)
			}
		}
	}
	return rank
}

// orderRanks runs alternating barycenter sweeps over the rank lists.
// A node's barycenter is the mean current position of its neighbours on
// the sweep side; nodes without neighbours keep their slot. Sorting is
// stable, so ties preserve the previous ordering.
func orderRanks(g *taskgraph.Graph, ranks [][]string, passes int) {
	pos := make(map[string]int)
	for _, rank := range ranks {
		for i, id := range rank {
			pos[id] = i
		}
	}

	reorder := func(rank []string, neighbours func(id string) []string) {
		bary := make(map[string]float64, len(rank))
		for i, id := range rank {
			ns := neighbours(id)
			if len(ns) == 0 {
				bary[id] = float64(i)
				continue
			}
			sum := 0.0
			for _, nb := range ns {
				sum += float64(pos[nb])
			}
			bary[id] = sum / float64(len(ns))
		}
		sort.SliceStable(rank, func(i, j int) bool { return bary[rank[i]] < bary[rank[j]] })
		for i, id := range rank {
			pos[id] = i
		}
	}

	for p := 0; p < passes; p++ {
		for r := 1; r < len(ranks); r++ {
			reorder(ranks[r], g.Predecessors)
		}
		for r := len(ranks) - 2; r >= 0; r-- {
			reorder(ranks[r], g.Successors)
		}
	}
}

// assignCoordinates turns rank and order into top-left positions.
// Shorter ranks are centred against the tallest one so the drawing
// keeps a straight spine instead of hugging one edge.
func assignCoordinates(res *Result, opts Options) {
	maxRows := 0
	for _, rank := range res.Ranks {
		if len(rank) > maxRows {
			maxRows = len(rank)
		}
	}
	if maxRows == 0 {
		return
	}

	stepMain := opts.NodeWidth + opts.RankGap
	stepCross := opts.NodeHeight + opts.NodeGap
	if opts.Direction == TopToBottom {
		stepMain = opts.NodeHeight + opts.RankGap
		stepCross = opts.NodeWidth + opts.NodeGap
	}

	for r, rank := range res.Ranks {
		offset := float64(maxRows-len(rank)) * stepCross / 2
		for i, id := range rank {
			main := opts.Margin + float64(r)*stepMain
			cross := opts.Margin + offset + float64(i)*stepCross
			if opts.Direction == TopToBottom {
				res.Positions[id] = taskgraph.Point{X: cross, Y: main}
			} else {
				res.Positions[id] = taskgraph.Point{X: main, Y: cross}
			}
		}
	}

	nRanks := float64(len(res.Ranks))
	rows := float64(maxRows)
	if opts.Direction == TopToBottom {
		res.Width = 2*opts.Margin + (rows-1)*stepCross + opts.NodeWidth
		res.Height = 2*opts.Margin + (nRanks-1)*stepMain + opts.NodeHeight
	} else {
		res.Width = 2*opts.Margin + (nRanks-1)*stepMain + opts.NodeWidth
		res.Height = 2*opts.Margin + (rows-1)*stepCross + opts.NodeHeight
	}
}
