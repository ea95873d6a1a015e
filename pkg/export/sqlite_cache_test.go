package export

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/questwork/internal/datasource"
	"github.com/vanderheijden86/questwork/pkg/model"
)

func cacheFixtureTasks() []model.Task {
	return []model.Task{
		{
			ID:             "t-debut",
			Name:           "Debut",
			Trader:         model.Trader{ID: "tr-prapor", Name: "Prapor", ImageURL: "https://img/prapor.png"},
			MinPlayerLevel: 1,
			WikiLink:       "https://wiki/Debut",
			Objectives: []model.Objective{
				{ID: "obj-1", Description: "Eliminate 5 Scavs", Kind: "elimination", Count: 5},
				{ID: "obj-2", Description: "Hand over a shotgun", Kind: "handover", TargetItem: "MP-133", Optional: true},
			},
			Rewards: []model.Reward{
				{Kind: model.RewardExperience, RawKind: "experience", IsNumeric: true, Number: 1700},
				{Kind: model.RewardItem, RawKind: "item", Value: "Salewa first aid kit", Description: "Salewa first aid kit x1"},
			},
		},
		{
			ID:     "t-shootout",
			Name:   "Shootout Picnic",
			Group:  "Hunting Trip",
			Trader: model.Trader{ID: "tr-skier", Name: "Skier"},
			Requirements: []model.Requirement{
				{Kind: model.RequirementTask, RawKind: "task", TaskID: "t-debut", TaskName: "Debut"},
				{Kind: model.RequirementLevel, RawKind: "level", Level: 10},
			},
		},
	}
}

// exportAndRead writes the cache and reads it back through the datasource
// reader, proving both sides agree on the schema.
func exportAndRead(t *testing.T, tasks []model.Task) []model.Task {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tasks.db")
	exp := NewCacheExporter(tasks)
	exp.Source = "unit-test"
	if err := exp.Export(path); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	src, err := datasource.SourceFromPath(path)
	if err != nil {
		t.Fatalf("SourceFromPath failed: %v", err)
	}
	reader, err := datasource.NewSQLiteReader(src)
	if err != nil {
		t.Fatalf("NewSQLiteReader failed: %v", err)
	}
	t.Cleanup(func() { reader.Close() })

	loaded, err := reader.LoadTasks()
	if err != nil {
		t.Fatalf("LoadTasks failed: %v", err)
	}
	return loaded
}

func TestCacheExportRoundTrip(t *testing.T) {
	loaded := exportAndRead(t, cacheFixtureTasks())

	if len(loaded) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(loaded))
	}

	// Declaration order survives the database
	if loaded[0].ID != "t-debut" || loaded[1].ID != "t-shootout" {
		t.Fatalf("order lost: got %s, %s", loaded[0].ID, loaded[1].ID)
	}

	debut := loaded[0]
	if debut.Name != "Debut" {
		t.Errorf("Expected name Debut, got %q", debut.Name)
	}
	if debut.Trader.Name != "Prapor" || debut.Trader.ImageURL != "https://img/prapor.png" {
		t.Errorf("trader lost: %+v", debut.Trader)
	}
	if debut.MinPlayerLevel != 1 {
		t.Errorf("Expected min level 1, got %d", debut.MinPlayerLevel)
	}
	if debut.WikiLink != "https://wiki/Debut" {
		t.Errorf("wiki link lost: %q", debut.WikiLink)
	}

	if len(debut.Objectives) != 2 {
		t.Fatalf("Expected 2 objectives, got %d", len(debut.Objectives))
	}
	if debut.Objectives[0].Count != 5 || debut.Objectives[0].Kind != "elimination" {
		t.Errorf("objective 0 mismatch: %+v", debut.Objectives[0])
	}
	if !debut.Objectives[1].Optional || debut.Objectives[1].TargetItem != "MP-133" {
		t.Errorf("objective 1 mismatch: %+v", debut.Objectives[1])
	}

	if len(debut.Rewards) != 2 {
		t.Fatalf("Expected 2 rewards, got %d", len(debut.Rewards))
	}
	xp := debut.Rewards[0]
	if xp.Kind != model.RewardExperience || !xp.IsNumeric || xp.Number != 1700 {
		t.Errorf("experience reward mismatch: %+v", xp)
	}
	if xp.ValueText() != "" {
		t.Errorf("numeric reward must stay invisible to search, got %q", xp.ValueText())
	}
	item := debut.Rewards[1]
	if item.Kind != model.RewardItem || item.Value != "Salewa first aid kit" || item.IsNumeric {
		t.Errorf("item reward mismatch: %+v", item)
	}
	if item.Description != "Salewa first aid kit x1" {
		t.Errorf("reward description lost: %q", item.Description)
	}

	shootout := loaded[1]
	if shootout.Group != "Hunting Trip" {
		t.Errorf("group lost: %q", shootout.Group)
	}
	if got := shootout.PrerequisiteIDs(); len(got) != 1 || got[0] != "t-debut" {
		t.Errorf("expected prerequisite t-debut, got %v", got)
	}
	if len(shootout.Requirements) != 2 {
		t.Fatalf("Expected 2 requirements, got %d", len(shootout.Requirements))
	}
	lvl := shootout.Requirements[1]
	if lvl.Kind != model.RequirementLevel || lvl.Level != 10 {
		t.Errorf("level requirement mismatch: %+v", lvl)
	}
}

func TestCacheExportCollapsesDuplicates(t *testing.T) {
	tasks := []model.Task{
		{ID: "t-dup", Name: "Old Name"},
		{ID: "t-other", Name: "Other"},
		{ID: "t-dup", Name: "New Name"},
	}

	loaded := exportAndRead(t, tasks)

	if len(loaded) != 2 {
		t.Fatalf("Expected duplicates collapsed to 2 tasks, got %d", len(loaded))
	}
	// First slot, final data
	if loaded[0].ID != "t-dup" || loaded[0].Name != "New Name" {
		t.Errorf("duplicate should keep first slot with final data, got %+v", loaded[0])
	}
	if loaded[1].ID != "t-other" {
		t.Errorf("Expected t-other second, got %s", loaded[1].ID)
	}
}

func TestCacheExportSharedTraderWrittenOnce(t *testing.T) {
	tasks := []model.Task{
		{ID: "t-1", Name: "One", Trader: model.Trader{ID: "tr-prapor", Name: "Prapor"}},
		{ID: "t-2", Name: "Two", Trader: model.Trader{ID: "tr-prapor", Name: "Prapor"}},
	}

	loaded := exportAndRead(t, tasks)

	if len(loaded) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(loaded))
	}
	for _, task := range loaded {
		if task.Trader.Name != "Prapor" {
			t.Errorf("task %s lost its trader: %+v", task.ID, task.Trader)
		}
	}
}

func TestCacheExportEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")
	if err := NewCacheExporter(nil).Export(path); err == nil {
		t.Fatal("Expected error for empty task list")
	}
}

func TestCacheExportReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")

	first := []model.Task{{ID: "t-old", Name: "Old"}}
	if err := NewCacheExporter(first).Export(path); err != nil {
		t.Fatalf("first export failed: %v", err)
	}

	second := []model.Task{{ID: "t-new", Name: "New"}}
	if err := NewCacheExporter(second).Export(path); err != nil {
		t.Fatalf("second export failed: %v", err)
	}

	src, err := datasource.SourceFromPath(path)
	if err != nil {
		t.Fatalf("SourceFromPath failed: %v", err)
	}
	reader, err := datasource.NewSQLiteReader(src)
	if err != nil {
		t.Fatalf("NewSQLiteReader failed: %v", err)
	}
	defer reader.Close()

	loaded, err := reader.LoadTasks()
	if err != nil {
		t.Fatalf("LoadTasks failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "t-new" {
		t.Errorf("export should replace the previous cache, got %v", loaded)
	}
}

func TestCacheExportMeta(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")
	exp := NewCacheExporter(cacheFixtureTasks())
	exp.Source = "tasks.jsonl"
	if err := exp.Export(path); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("cannot open cache: %v", err)
	}
	defer db.Close()

	queryMeta := func(key string) string {
		t.Helper()
		var value string
		if err := db.QueryRow(`SELECT value FROM cache_meta WHERE key = ?`, key).Scan(&value); err != nil {
			t.Fatalf("meta %s missing: %v", key, err)
		}
		return value
	}

	if got := queryMeta("task_count"); got != "2" {
		t.Errorf("Expected task_count 2, got %s", got)
	}
	if got := queryMeta("schema_version"); got != "1" {
		t.Errorf("Expected schema_version 1, got %s", got)
	}
	if got := queryMeta("source"); got != "tasks.jsonl" {
		t.Errorf("Expected source recorded, got %s", got)
	}
}
