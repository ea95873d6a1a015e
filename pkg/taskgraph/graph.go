// Package taskgraph builds the quest dependency graph from a flat set of
// task records. Nodes wrap one task each; a directed edge p -> t exists when
// t declares a task-type unlock requirement on p and both ends are present
// in the working set. Dangling prerequisites produce no edge.
package taskgraph

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/questwork/pkg/metrics"
	"github.com/vanderheijden86/questwork/pkg/model"
)

// Point is a 2-D position annotation written by the layout engine.
// Coordinates are the top-left corner of the node's bounding box.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node wraps one task record plus the mutable annotations the filter and
// layout stages write. Identity is Task.ID.
type Node struct {
	Task    model.Task
	Matched bool
	Pos     Point
}

// Edge is a directed prerequisite edge, identified by its endpoint IDs.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the built dependency graph. It keeps the gonum graph for
// algorithms alongside input-ordered nodes and a string-ID index.
type Graph struct {
	g        *simple.DirectedGraph
	idToNode map[string]graph.Node
	nodeToID map[int64]string

	nodes    []*Node
	byID     map[string]*Node
	edges    []Edge
	warnings []string
}

// Build constructs the graph. Pure over its input: tasks are copied into
// nodes and never mutated.
//
// Duplicate IDs resolve last-write-wins: the node keeps its first-seen slot
// in input order but carries the final record's data, and a warning is
// recorded per shadowed record. Self-requirements never produce an edge.
func Build(tasks []model.Task) *Graph {
	defer metrics.Timer(metrics.GraphBuild)()

	g := &Graph{
		g:        simple.NewDirectedGraph(),
		idToNode: make(map[string]graph.Node, len(tasks)),
		nodeToID: make(map[int64]string, len(tasks)),
		byID:     make(map[string]*Node, len(tasks)),
	}

	for _, t := range tasks {
		if existing, ok := g.byID[t.ID]; ok {
			g.warnings = append(g.warnings,
				fmt.Sprintf("duplicate taskId %q: keeping the later record", t.ID))
			existing.Task = t
			continue
		}
		n := &Node{Task: t}
		g.nodes = append(g.nodes, n)
		g.byID[t.ID] = n

		gn := g.g.NewNode()
		g.g.AddNode(gn)
		g.idToNode[t.ID] = gn
		g.nodeToID[gn.ID()] = t.ID
	}

	seen := make(map[Edge]bool)
	for _, n := range g.nodes {
		for _, preID := range n.Task.PrerequisiteIDs() {
			if preID == n.Task.ID {
				continue // self-loops are never materialized
			}
			from, ok := g.idToNode[preID]
			if !ok {
				continue // dangling prerequisite, tolerated
			}
			e := Edge{From: preID, To: n.Task.ID}
			if seen[e] {
				continue
			}
			seen[e] = true
			g.edges = append(g.edges, e)
			g.g.SetEdge(g.g.NewEdge(from, g.idToNode[n.Task.ID]))
		}
	}

	return g
}

// Nodes returns the nodes in input order. The slice is shared: annotation
// writes through it are visible to every reader of the graph.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// Node returns the node for the given task ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.byID[id]
	return n, ok
}

// Edges returns the edge set sorted by source then target ID.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// HasEdge reports whether the prerequisite edge from -> to exists.
func (g *Graph) HasEdge(from, to string) bool {
	f, ok := g.idToNode[from]
	if !ok {
		return false
	}
	t, ok := g.idToNode[to]
	if !ok {
		return false
	}
	return g.g.HasEdgeFromTo(f.ID(), t.ID())
}

// Predecessors returns the direct prerequisites of the task, sorted by ID.
func (g *Graph) Predecessors(id string) []string {
	n, ok := g.idToNode[id]
	if !ok {
		return nil
	}
	var ids []string
	it := g.g.To(n.ID())
	for it.Next() {
		ids = append(ids, g.nodeToID[it.Node().ID()])
	}
	sort.Strings(ids)
	return ids
}

// Successors returns the tasks directly unlocked by this one, sorted by ID.
func (g *Graph) Successors(id string) []string {
	n, ok := g.idToNode[id]
	if !ok {
		return nil
	}
	var ids []string
	it := g.g.From(n.ID())
	for it.Next() {
		ids = append(ids, g.nodeToID[it.Node().ID()])
	}
	sort.Strings(ids)
	return ids
}

// InDegree returns the number of direct prerequisites of the task.
func (g *Graph) InDegree(id string) int {
	n, ok := g.idToNode[id]
	if !ok {
		return 0
	}
	count := 0
	it := g.g.To(n.ID())
	for it.Next() {
		count++
	}
	return count
}

// Warnings returns data-quality notes collected during Build.
func (g *Graph) Warnings() []string {
	return g.warnings
}

// Directed exposes the underlying gonum graph for algorithm passes. The
// nodeToID/idToNode maps translate between gonum int64 IDs and task IDs.
func (g *Graph) Directed() *simple.DirectedGraph {
	return g.g
}

// TaskID translates a gonum node ID back to the task ID.
func (g *Graph) TaskID(gonumID int64) (string, bool) {
	id, ok := g.nodeToID[gonumID]
	return id, ok
}

// GonumNode translates a task ID to its gonum node.
func (g *Graph) GonumNode(id string) (graph.Node, bool) {
	n, ok := g.idToNode[id]
	return n, ok
}

// FindStartNodeID returns the first node in input order with no incoming
// edges. When every node has prerequisites (fully cyclic set) it falls back
// to the first node. ok is false only for an empty graph.
func FindStartNodeID(g *Graph) (id string, ok bool) {
	if len(g.nodes) == 0 {
		return "", false
	}
	for _, n := range g.nodes {
		if g.InDegree(n.Task.ID) == 0 {
			return n.Task.ID, true
		}
	}
	return g.nodes[0].Task.ID, true
}

// Roots returns every node with no incoming edges, in input order.
func Roots(g *Graph) []string {
	var roots []string
	for _, n := range g.nodes {
		if g.InDegree(n.Task.ID) == 0 {
			roots = append(roots, n.Task.ID)
		}
	}
	return roots
}

// Cycles returns the strongly connected components with more than one
// member, each sorted internally, components ordered by first member.
// Cyclic prerequisites are reported, never rejected; the layout engine
// condenses them so rank assignment still terminates.
func Cycles(g *Graph) [][]string {
	defer metrics.Timer(metrics.CycleDetection)()

	sccs := topo.TarjanSCC(g.g)
	var cycles [][]string
	for _, scc := range sccs {
		if len(scc) < 2 {
			continue
		}
		ids := make([]string, 0, len(scc))
		for _, n := range scc {
			if id, ok := g.nodeToID[n.ID()]; ok {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)
		cycles = append(cycles, ids)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

// Stats summarizes the built graph for status lines and robot output.
type Stats struct {
	NodeCount     int     `json:"node_count"`
	EdgeCount     int     `json:"edge_count"`
	RootCount     int     `json:"root_count"`
	LeafCount     int     `json:"leaf_count"`
	IsolatedCount int     `json:"isolated_count"`
	CycleCount    int     `json:"cycle_count"`
	Density       float64 `json:"density"`
}

// ComputeStats derives summary statistics from the graph.
func ComputeStats(g *Graph) Stats {
	s := Stats{
		NodeCount: len(g.nodes),
		EdgeCount: len(g.edges),
	}
	for _, n := range g.nodes {
		id := n.Task.ID
		in := g.InDegree(id)
		out := len(g.Successors(id))
		if in == 0 {
			s.RootCount++
		}
		if out == 0 {
			s.LeafCount++
		}
		if in == 0 && out == 0 {
			s.IsolatedCount++
		}
	}
	s.CycleCount = len(Cycles(g))
	if s.NodeCount > 1 {
		s.Density = float64(s.EdgeCount) / float64(s.NodeCount*(s.NodeCount-1))
	}
	return s
}
