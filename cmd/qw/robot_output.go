package main

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/questwork/pkg/layout"
	"github.com/vanderheijden86/questwork/pkg/match"
	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/taskgraph"
)

// Robot modes print one JSON document to stdout and exit. Agents diff the
// data_hash across invocations to detect whether the underlying quest data
// changed between calls.

type robotTasksOutput struct {
	GeneratedAt string       `json:"generated_at"`
	DataHash    string       `json:"data_hash"`
	Source      string       `json:"source,omitempty"`
	Count       int          `json:"count"`
	Tasks       []model.Task `json:"tasks"`
}

type robotGraphNode struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Trader         string  `json:"trader,omitempty"`
	Group          string  `json:"group,omitempty"`
	MinPlayerLevel int     `json:"min_player_level,omitempty"`
	Rank           int     `json:"rank"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
}

type robotGraphOutput struct {
	GeneratedAt string           `json:"generated_at"`
	DataHash    string           `json:"data_hash"`
	Source      string           `json:"source,omitempty"`
	NodeCount   int              `json:"node_count"`
	EdgeCount   int              `json:"edge_count"`
	Width       float64          `json:"width"`
	Height      float64          `json:"height"`
	Nodes       []robotGraphNode `json:"nodes"`
	Edges       []taskgraph.Edge `json:"edges"`
	Warnings    []string         `json:"warnings,omitempty"`
}

type robotRewardSearchOutput struct {
	GeneratedAt string              `json:"generated_at"`
	DataHash    string              `json:"data_hash"`
	Query       string              `json:"query"`
	Limit       int                 `json:"limit,omitempty"`
	Count       int                 `json:"count"`
	Results     []match.RewardMatch `json:"results"`
	UsageHints  []string            `json:"usage_hints,omitempty"`
}

type robotStatsOutput struct {
	GeneratedAt string          `json:"generated_at"`
	DataHash    string          `json:"data_hash"`
	Source      string          `json:"source,omitempty"`
	Stats       taskgraph.Stats `json:"stats"`
	Traders     []string        `json:"traders,omitempty"`
	Warnings    []string        `json:"warnings,omitempty"`
}

func writeRobotJSON(w io.Writer, out any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runRobotTasks(w io.Writer, tasks []model.Task, source string) error {
	out := robotTasksOutput{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		DataHash:    hashTasks(tasks),
		Source:      source,
		Count:       len(tasks),
		Tasks:       tasks,
	}
	return writeRobotJSON(w, out)
}

// runRobotGraph emits every node with its layout position and rank plus
// the full prerequisite edge set. Nodes are ordered rank-major then by ID
// so the output is stable across runs on the same data.
func runRobotGraph(w io.Writer, tasks []model.Task, source string) error {
	g := taskgraph.Build(tasks)
	res := layout.Compute(g, layout.Options{})

	nodes := make([]robotGraphNode, 0, len(g.Nodes()))
	for _, n := range g.Nodes() {
		t := n.Task
		pos := res.Positions[t.ID]
		nodes = append(nodes, robotGraphNode{
			ID:             t.ID,
			Name:           t.Name,
			Trader:         t.Trader.Name,
			Group:          t.Group,
			MinPlayerLevel: t.MinPlayerLevel,
			Rank:           res.RankOf[t.ID],
			X:              pos.X,
			Y:              pos.Y,
		})
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Rank != nodes[j].Rank {
			return nodes[i].Rank < nodes[j].Rank
		}
		return nodes[i].ID < nodes[j].ID
	})

	out := robotGraphOutput{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		DataHash:    hashTasks(tasks),
		Source:      source,
		NodeCount:   len(nodes),
		EdgeCount:   len(g.Edges()),
		Width:       res.Width,
		Height:      res.Height,
		Nodes:       nodes,
		Edges:       g.Edges(),
		Warnings:    g.Warnings(),
	}
	return writeRobotJSON(w, out)
}

func runRobotRewardSearch(w io.Writer, tasks []model.Task, query string, limit int) error {
	res := match.FindTasksByReward(tasks, query)
	results := res.Matches
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	out := robotRewardSearchOutput{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		DataHash:    hashTasks(tasks),
		Query:       query,
		Limit:       limit,
		Count:       len(results),
		Results:     results,
		UsageHints:  rewardSearchHints(res, query),
	}
	return writeRobotJSON(w, out)
}

func runRobotStats(w io.Writer, tasks []model.Task, source string) error {
	g := taskgraph.Build(tasks)
	out := robotStatsOutput{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		DataHash:    hashTasks(tasks),
		Source:      source,
		Stats:       taskgraph.ComputeStats(g),
		Traders:     traderNames(tasks),
		Warnings:    g.Warnings(),
	}
	return writeRobotJSON(w, out)
}

// rewardSearchHints explains an empty result set to agent consumers.
// Successful searches carry no hints.
func rewardSearchHints(res match.RewardSearchResult, query string) []string {
	if len(res.Matches) > 0 {
		return nil
	}
	if strings.TrimSpace(query) == "" {
		return []string{"empty queries match nothing; pass a reward name fragment"}
	}
	return []string{
		"scores: exact=100 prefix=50 substring=10, summed per task",
		"numeric reward values never match; search item names and descriptions",
	}
}

// hashTasks fingerprints the loaded records. Order-insensitive because the
// same data arrives in different orders from different source types.
func hashTasks(tasks []model.Task) string {
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		lines = append(lines, t.ID+"\x00"+t.Name)
	}
	sort.Strings(lines)

	h := sha256.New()
	for _, l := range lines {
		io.WriteString(h, l)
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}
