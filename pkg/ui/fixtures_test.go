package ui

import (
	"github.com/vanderheijden86/questwork/pkg/layout"
	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/taskgraph"
)

// fixtureTasks is a small diamond: Debut unlocks Shootout Picnic and Forest
// Cleanup, both of which gate Final Push. One task carries a CJK group and a
// CJK reward so width and search handling get exercised with wide runes.
func fixtureTasks() []model.Task {
	return []model.Task{
		{
			ID:             "t-debut",
			Name:           "Debut",
			Trader:         model.Trader{ID: "prapor", Name: "Prapor"},
			Group:          "starter",
			MinPlayerLevel: 1,
			Objectives: []model.Objective{
				{ID: "o-1", Description: "Eliminate 5 scavs", Count: 5},
				{ID: "o-2", Description: "Hand over a shotgun", Optional: true},
			},
			Rewards: []model.Reward{
				{Kind: model.RewardExperience, Number: 1700, IsNumeric: true},
				{Kind: model.RewardItem, Value: "AK-74U assault rifle"},
			},
			WikiLink: "https://wiki.example/Debut",
		},
		{
			ID:             "t-shootout",
			Name:           "Shootout Picnic",
			Trader:         model.Trader{ID: "skier", Name: "Skier"},
			Group:          "战斗任务",
			MinPlayerLevel: 5,
			Requirements: []model.Requirement{
				{Kind: model.RequirementTask, TaskID: "t-debut", TaskName: "Debut"},
			},
			Rewards: []model.Reward{
				{Kind: model.RewardItem, Value: "突击步枪"},
			},
		},
		{
			ID:     "t-forest",
			Name:   "Forest Cleanup",
			Trader: model.Trader{ID: "prapor", Name: "Prapor"},
			Requirements: []model.Requirement{
				{Kind: model.RequirementTask, TaskID: "t-debut", TaskName: "Debut"},
				{Kind: model.RequirementLevel, Level: 7},
			},
		},
		{
			ID:             "t-final",
			Name:           "Final Push",
			Trader:         model.Trader{ID: "skier", Name: "Skier"},
			MinPlayerLevel: 12,
			Requirements: []model.Requirement{
				{Kind: model.RequirementTask, TaskID: "t-shootout", TaskName: "Shootout Picnic"},
				{Kind: model.RequirementTask, TaskID: "t-forest", TaskName: "Forest Cleanup"},
			},
			Rewards: []model.Reward{
				{Kind: model.RewardMoney, Number: 250000, IsNumeric: true, Description: "Roubles"},
			},
			WikiLink: "https://wiki.example/Final_Push",
		},
	}
}

func fixtureGraph() (*taskgraph.Graph, *layout.Result) {
	g := taskgraph.Build(fixtureTasks())
	res := layout.Compute(g, TerminalLayoutOptions(layout.Options{}))
	return g, res
}

func fixtureTask(g *taskgraph.Graph, id string) *model.Task {
	if n, ok := g.Node(id); ok {
		return &n.Task
	}
	return nil
}
