// Package testutil provides test fixture generators for various graph topologies.
// All generators produce deterministic output for reproducible tests.
package testutil

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/questwork/pkg/model"
)

// GraphFixture represents an abstract graph for testing graph algorithms.
// This is the format used by testdata/graphs/*.json files.
type GraphFixture struct {
	Description string     `json:"description"`
	Nodes       []string   `json:"nodes"`
	Edges       [][2]int   `json:"edges"` // [from_idx, to_idx]
	Properties  Properties `json:"properties,omitempty"`
}

// Properties holds optional metadata about the fixture.
type Properties struct {
	HasCycles     bool `json:"has_cycles,omitempty"`
	IsConnected   bool `json:"is_connected,omitempty"`
	ExpectedDepth int  `json:"expected_depth,omitempty"`
}

// TaskFixture represents a set of quest tasks for integration testing.
type TaskFixture struct {
	Description string       `json:"description"`
	Tasks       []model.Task `json:"tasks"`
}

// SampleTraders is the trader roster fixtures draw from.
var SampleTraders = []model.Trader{
	{ID: "tr-prapor", Name: "Prapor"},
	{ID: "tr-therapist", Name: "Therapist"},
	{ID: "tr-skier", Name: "Skier"},
	{ID: "tr-mechanic", Name: "Mechanic"},
	{ID: "tr-ragman", Name: "Ragman"},
}

// GeneratorConfig controls task generation.
type GeneratorConfig struct {
	Seed              int64          // Random seed for determinism (0 = use current time)
	IDPrefix          string         // Prefix for task IDs (default: "TEST")
	TraderMix         []model.Trader // Trader distribution (nil = all Prapor)
	IncludeRewards    bool           // Generate experience and item rewards
	IncludeObjectives bool           // Generate objective lists
	IncludeLevels     bool           // Generate minPlayerLevel
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:      42, // Deterministic
		IDPrefix:  "TEST",
		TraderMix: []model.Trader{SampleTraders[0]},
	}
}

// Generator creates test fixtures with various topologies.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "TEST"
	}
	if len(cfg.TraderMix) == 0 {
		cfg.TraderMix = []model.Trader{SampleTraders[0]}
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// ============================================================================
// Graph Topology Generators
// ============================================================================

// Chain creates a linear chain: n0 <- n1 <- n2 <- ... <- n{size-1}
// In prerequisite terms: n1 requires n0, n2 requires n1, etc.
// n0 is the root (no prerequisites), n{size-1} is the leaf (requires n{size-2})
// Properties: DAG, depth = size-1, single path
func (g *Generator) Chain(size int) GraphFixture {
	nodes := make([]string, size)
	edges := make([][2]int, 0, size-1)

	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		if i > 0 {
			// Edge [i, i-1] means node i requires node i-1
			edges = append(edges, [2]int{i, i - 1})
		}
	}

	return GraphFixture{
		Description: fmt.Sprintf("Linear chain of %d nodes: n0 -> n1 -> ... -> n%d", size, size-1),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:     false,
			IsConnected:   true,
			ExpectedDepth: size - 1,
		},
	}
}

// Star creates a star topology with a central hub.
// Direction: spokes point TO hub (hub is the prerequisite)
// Properties: DAG, depth = 1, hub unlocks everything
func (g *Generator) Star(spokes int) GraphFixture {
	size := spokes + 1
	nodes := make([]string, size)
	edges := make([][2]int, spokes)

	nodes[0] = "hub"
	for i := 1; i < size; i++ {
		nodes[i] = fmt.Sprintf("spoke%d", i)
		edges[i-1] = [2]int{i, 0} // spoke -> hub (spoke requires hub)
	}

	return GraphFixture{
		Description: fmt.Sprintf("Star with hub and %d spokes; spokes require hub", spokes),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:     false,
			IsConnected:   true,
			ExpectedDepth: 1,
		},
	}
}

// ReverseStar creates a star where hub points to all spokes.
// Direction: hub points TO spokes (spokes are prerequisites)
// Properties: DAG, depth = 1, hub is the capstone task
func (g *Generator) ReverseStar(spokes int) GraphFixture {
	size := spokes + 1
	nodes := make([]string, size)
	edges := make([][2]int, spokes)

	nodes[0] = "hub"
	for i := 1; i < size; i++ {
		nodes[i] = fmt.Sprintf("spoke%d", i)
		edges[i-1] = [2]int{0, i} // hub -> spoke (hub requires spoke)
	}

	return GraphFixture{
		Description: fmt.Sprintf("Reverse star with hub requiring %d spokes", spokes),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:     false,
			IsConnected:   true,
			ExpectedDepth: 1,
		},
	}
}

// Diamond creates a diamond prerequisite pattern.
// Shape: top -> left, top -> right, left -> bottom, right -> bottom
// Generalized: top connects to `width` middle nodes, all connect to bottom
func (g *Generator) Diamond(width int) GraphFixture {
	if width < 1 {
		width = 1
	}

	size := width + 2 // top + middle nodes + bottom
	nodes := make([]string, size)
	edges := make([][2]int, 0, width*2)

	nodes[0] = "top"
	nodes[size-1] = "bottom"

	for i := 1; i <= width; i++ {
		nodes[i] = fmt.Sprintf("mid%d", i)
		edges = append(edges, [2]int{0, i})        // top -> mid
		edges = append(edges, [2]int{i, size - 1}) // mid -> bottom
	}

	return GraphFixture{
		Description: fmt.Sprintf("Diamond with %d middle nodes: top -> mid1..mid%d -> bottom", width, width),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:     false,
			IsConnected:   true,
			ExpectedDepth: 2,
		},
	}
}

// Cycle creates a circular prerequisite loop (invalid DAG).
// Shape: n0 -> n1 -> n2 -> ... -> n{size-1} -> n0
func (g *Generator) Cycle(size int) GraphFixture {
	nodes := make([]string, size)
	edges := make([][2]int, size)

	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		edges[i] = [2]int{i, (i + 1) % size}
	}

	return GraphFixture{
		Description: fmt.Sprintf("Cycle of %d nodes: n0 -> n1 -> ... -> n%d -> n0", size, size-1),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:   true,
			IsConnected: true,
		},
	}
}

// SelfLoop creates a single node with a self-referential edge.
func (g *Generator) SelfLoop() GraphFixture {
	return GraphFixture{
		Description: "Single node with self-loop",
		Nodes:       []string{"n0"},
		Edges:       [][2]int{{0, 0}},
		Properties: Properties{
			HasCycles:   true,
			IsConnected: true,
		},
	}
}

// Tree creates a tree with given depth and branching factor.
// Each non-leaf node has `breadth` children.
func (g *Generator) Tree(depth, breadth int) GraphFixture {
	if depth < 1 {
		depth = 1
	}
	if breadth < 1 {
		breadth = 1
	}

	var nodes []string
	var edges [][2]int

	// BFS-style generation
	nodeID := 0
	nodes = append(nodes, fmt.Sprintf("n%d", nodeID))
	nodeID++

	// Track nodes at each level
	currentLevel := []int{0}

	for d := 0; d < depth; d++ {
		var nextLevel []int
		for _, parent := range currentLevel {
			for b := 0; b < breadth; b++ {
				child := nodeID
				nodes = append(nodes, fmt.Sprintf("n%d", child))
				edges = append(edges, [2]int{parent, child})
				nextLevel = append(nextLevel, child)
				nodeID++
			}
		}
		currentLevel = nextLevel
	}

	return GraphFixture{
		Description: fmt.Sprintf("Tree with depth=%d, breadth=%d (%d nodes)", depth, breadth, len(nodes)),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:     false,
			IsConnected:   true,
			ExpectedDepth: depth,
		},
	}
}

// Disconnected creates multiple isolated components.
// Each component is a small chain of `componentSize` nodes.
func (g *Generator) Disconnected(components, componentSize int) GraphFixture {
	var nodes []string
	var edges [][2]int

	nodeID := 0
	for c := 0; c < components; c++ {
		for i := 0; i < componentSize; i++ {
			nodes = append(nodes, fmt.Sprintf("c%d_n%d", c, i))
			if i > 0 {
				edges = append(edges, [2]int{nodeID - 1, nodeID})
			}
			nodeID++
		}
	}

	return GraphFixture{
		Description: fmt.Sprintf("%d disconnected components, each a chain of %d nodes", components, componentSize),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:     false,
			IsConnected:   false,
			ExpectedDepth: componentSize - 1,
		},
	}
}

// Complete creates a complete DAG where every earlier node points to every later node.
// This is a dense graph with n*(n-1)/2 edges.
func (g *Generator) Complete(size int) GraphFixture {
	nodes := make([]string, size)
	edges := make([][2]int, 0, size*(size-1)/2)

	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
		for j := i + 1; j < size; j++ {
			edges = append(edges, [2]int{i, j})
		}
	}

	return GraphFixture{
		Description: fmt.Sprintf("Complete DAG with %d nodes (%d edges)", size, len(edges)),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:     false,
			IsConnected:   true,
			ExpectedDepth: size - 1,
		},
	}
}

// RandomDAG creates a random directed acyclic graph.
// density is the probability of an edge existing (0.0 to 1.0).
func (g *Generator) RandomDAG(size int, density float64) GraphFixture {
	if density < 0 {
		density = 0
	}
	if density > 1 {
		density = 1
	}

	nodes := make([]string, size)
	var edges [][2]int

	for i := 0; i < size; i++ {
		nodes[i] = fmt.Sprintf("n%d", i)
	}

	// Only add edges from lower index to higher index to ensure DAG
	for i := 0; i < size; i++ {
		for j := i + 1; j < size; j++ {
			if g.rng.Float64() < density {
				edges = append(edges, [2]int{i, j})
			}
		}
	}

	return GraphFixture{
		Description: fmt.Sprintf("Random DAG with %d nodes, density=%.2f (%d edges)", size, density, len(edges)),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:   false,
			IsConnected: false, // May or may not be connected
		},
	}
}

// Bipartite creates a bipartite graph with left nodes requiring right nodes.
func (g *Generator) Bipartite(leftSize, rightSize int) GraphFixture {
	nodes := make([]string, leftSize+rightSize)
	var edges [][2]int

	// Left nodes
	for i := 0; i < leftSize; i++ {
		nodes[i] = fmt.Sprintf("L%d", i)
	}
	// Right nodes
	for i := 0; i < rightSize; i++ {
		nodes[leftSize+i] = fmt.Sprintf("R%d", i)
	}
	// All left nodes require all right nodes
	for i := 0; i < leftSize; i++ {
		for j := 0; j < rightSize; j++ {
			edges = append(edges, [2]int{i, leftSize + j})
		}
	}

	return GraphFixture{
		Description: fmt.Sprintf("Bipartite graph: %d left nodes each require %d right nodes", leftSize, rightSize),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:     false,
			IsConnected:   leftSize > 0 && rightSize > 0,
			ExpectedDepth: 1,
		},
	}
}

// Ladder creates a ladder-like structure with two parallel chains connected by rungs.
func (g *Generator) Ladder(length int) GraphFixture {
	if length < 1 {
		length = 1
	}

	nodes := make([]string, length*2)
	var edges [][2]int

	// Create two parallel chains
	for i := 0; i < length; i++ {
		nodes[i] = fmt.Sprintf("A%d", i)
		nodes[length+i] = fmt.Sprintf("B%d", i)

		// Chain edges
		if i > 0 {
			edges = append(edges, [2]int{i - 1, i})                   // A chain
			edges = append(edges, [2]int{length + i - 1, length + i}) // B chain
		}
		// Rung edges (A requires B at same level)
		edges = append(edges, [2]int{i, length + i})
	}

	return GraphFixture{
		Description: fmt.Sprintf("Ladder with %d rungs: two parallel chains A0..A%d and B0..B%d", length, length-1, length-1),
		Nodes:       nodes,
		Edges:       edges,
		Properties: Properties{
			HasCycles:     false,
			IsConnected:   true,
			ExpectedDepth: length,
		},
	}
}

// ============================================================================
// Task Generators (convert graph fixtures to model.Task slices)
// ============================================================================

// ToTasks converts a GraphFixture to a slice of model.Task.
func (g *Generator) ToTasks(gf GraphFixture) []model.Task {
	tasks := make([]model.Task, len(gf.Nodes))

	// Build prerequisite list per node
	// edges are [from, to] meaning "from requires to"
	prereqs := make(map[int][]int)
	for _, e := range gf.Edges {
		prereqs[e[0]] = append(prereqs[e[0]], e[1])
	}

	for i, nodeName := range gf.Nodes {
		id := fmt.Sprintf("%s-%s", g.cfg.IDPrefix, nodeName)
		name := fmt.Sprintf("Task %s", nodeName)

		task := model.Task{
			ID:     id,
			Name:   name,
			Trader: g.pickTrader(),
		}

		// Add rewards if configured
		if g.cfg.IncludeRewards {
			task.Rewards = g.pickRewards()
		}

		// Add objectives if configured
		if g.cfg.IncludeObjectives {
			task.Objectives = g.pickObjectives(id)
		}

		// Add a level gate if configured
		if g.cfg.IncludeLevels {
			task.MinPlayerLevel = (g.rng.Intn(8) + 1) * 5 // level 5-40
		}

		// Add task-type unlock requirements
		if reqList, ok := prereqs[i]; ok {
			for _, reqIdx := range reqList {
				task.Requirements = append(task.Requirements, model.Requirement{
					Kind:     model.RequirementTask,
					TaskID:   fmt.Sprintf("%s-%s", g.cfg.IDPrefix, gf.Nodes[reqIdx]),
					TaskName: fmt.Sprintf("Task %s", gf.Nodes[reqIdx]),
				})
			}
		}

		tasks[i] = task
	}

	return tasks
}

// ToJSONL converts tasks to JSONL format (one JSON object per line).
func ToJSONL(tasks []model.Task) string {
	var sb strings.Builder
	for _, task := range tasks {
		data, err := json.Marshal(task)
		if err != nil {
			continue
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Helper methods

func (g *Generator) pickTrader() model.Trader {
	return g.cfg.TraderMix[g.rng.Intn(len(g.cfg.TraderMix))]
}

var sampleItems = []string{
	"Salewa first aid kit",
	"Bolts",
	"Graphics card",
	"Car battery",
	"Gas analyzer",
	"Morphine injector",
	"Secure flash drive",
	"Weapon parts",
	"Dogtag",
	"Painkillers",
}

var sampleObjectives = []string{
	"Eliminate Scavs on Customs",
	"Hand over the found item",
	"Locate the hidden stash",
	"Survive and extract from Shoreline",
	"Mark the marked vehicle",
}

// pickRewards generates one experience reward plus one or two item rewards.
// The experience value stays numeric so reward search never sees it.
func (g *Generator) pickRewards() []model.Reward {
	rewards := []model.Reward{{
		Kind:      model.RewardExperience,
		Number:    float64((g.rng.Intn(20) + 1) * 250),
		IsNumeric: true,
	}}

	count := g.rng.Intn(2) + 1 // 1-2 item rewards
	used := make(map[int]bool)
	for len(rewards) < count+1 {
		idx := g.rng.Intn(len(sampleItems))
		if used[idx] {
			continue
		}
		used[idx] = true
		rewards = append(rewards, model.Reward{
			Kind:        model.RewardItem,
			Value:       sampleItems[idx],
			Description: fmt.Sprintf("%s x%d", sampleItems[idx], g.rng.Intn(3)+1),
		})
	}
	return rewards
}

func (g *Generator) pickObjectives(taskID string) []model.Objective {
	count := g.rng.Intn(3) + 1 // 1-3 objectives
	objs := make([]model.Objective, 0, count)
	for i := 0; i < count; i++ {
		objs = append(objs, model.Objective{
			ID:          fmt.Sprintf("%s-obj%d", taskID, i),
			Description: sampleObjectives[g.rng.Intn(len(sampleObjectives))],
			Count:       g.rng.Intn(5) + 1,
		})
	}
	return objs
}

// ============================================================================
// Convenience Functions
// ============================================================================

// QuickChain creates a chain fixture with default settings.
func QuickChain(size int) []model.Task {
	gen := NewDefault()
	return gen.ToTasks(gen.Chain(size))
}

// QuickStar creates a star fixture with default settings.
func QuickStar(spokes int) []model.Task {
	gen := NewDefault()
	return gen.ToTasks(gen.Star(spokes))
}

// QuickDiamond creates a diamond fixture with default settings.
func QuickDiamond(width int) []model.Task {
	gen := NewDefault()
	return gen.ToTasks(gen.Diamond(width))
}

// QuickCycle creates a cycle fixture with default settings.
func QuickCycle(size int) []model.Task {
	gen := NewDefault()
	return gen.ToTasks(gen.Cycle(size))
}

// QuickTree creates a tree fixture with default settings.
func QuickTree(depth, breadth int) []model.Task {
	gen := NewDefault()
	return gen.ToTasks(gen.Tree(depth, breadth))
}

// QuickDisconnected creates disconnected components with default settings.
func QuickDisconnected(components, size int) []model.Task {
	gen := NewDefault()
	return gen.ToTasks(gen.Disconnected(components, size))
}

// QuickRandom creates a random DAG with default settings.
func QuickRandom(size int, density float64) []model.Task {
	gen := NewDefault()
	return gen.ToTasks(gen.RandomDAG(size, density))
}

// Empty returns an empty task slice for edge case testing.
func Empty() []model.Task {
	return []model.Task{}
}

// Single returns a single task with no prerequisites.
func Single() []model.Task {
	gen := NewDefault()
	return []model.Task{{
		ID:     fmt.Sprintf("%s-single", gen.cfg.IDPrefix),
		Name:   "Single Task",
		Trader: SampleTraders[0],
	}}
}
