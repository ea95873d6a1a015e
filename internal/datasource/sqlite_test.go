package datasource

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/questwork/pkg/model"
)

const testSchema = `
CREATE TABLE traders (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	image_url TEXT
);
CREATE TABLE tasks (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	task_group TEXT,
	trader_id TEXT,
	min_player_level INTEGER,
	wiki_link TEXT
);
CREATE TABLE objectives (
	task_id TEXT NOT NULL,
	ord INTEGER NOT NULL,
	id TEXT,
	description TEXT NOT NULL,
	type TEXT,
	count INTEGER,
	target_item TEXT,
	optional INTEGER
);
CREATE TABLE rewards (
	task_id TEXT NOT NULL,
	ord INTEGER NOT NULL,
	type TEXT NOT NULL,
	value_text TEXT,
	value_num REAL,
	is_numeric INTEGER NOT NULL DEFAULT 0,
	description TEXT
);
CREATE TABLE requirements (
	task_id TEXT NOT NULL,
	ord INTEGER NOT NULL,
	type TEXT NOT NULL,
	req_task_id TEXT,
	req_task_name TEXT,
	level INTEGER,
	value TEXT,
	description TEXT
);
`

// createTestCache builds a tasks.db in dir with three tasks, two traders,
// and populated child tables, returning its path.
func createTestCache(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "tasks.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("cannot create test cache: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("cannot create schema: %v", err)
	}

	exec := func(query string, args ...interface{}) {
		t.Helper()
		if _, err := db.Exec(query, args...); err != nil {
			t.Fatalf("seed failed (%s): %v", query, err)
		}
	}

	exec(`INSERT INTO traders (id, name, image_url) VALUES (?, ?, ?)`,
		"tr-prapor", "Prapor", "https://img/prapor.png")
	exec(`INSERT INTO traders (id, name, image_url) VALUES (?, ?, ?)`,
		"tr-skier", "Skier", nil)

	exec(`INSERT INTO tasks (id, name, task_group, trader_id, min_player_level, wiki_link) VALUES (?, ?, ?, ?, ?, ?)`,
		"t-debut", "Debut", nil, "tr-prapor", 1, "https://wiki/Debut")
	exec(`INSERT INTO tasks (id, name, task_group, trader_id, min_player_level, wiki_link) VALUES (?, ?, ?, ?, ?, ?)`,
		"t-shootout", "Shootout Picnic", "Hunting Trip", "tr-skier", nil, nil)
	exec(`INSERT INTO tasks (id, name, task_group, trader_id, min_player_level, wiki_link) VALUES (?, ?, ?, ?, ?, ?)`,
		"t-cleanup", "Cleanup", nil, nil, 10, nil)

	exec(`INSERT INTO rewards (task_id, ord, type, value_text, value_num, is_numeric, description) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"t-debut", 0, "experience", nil, 1700.0, 1, nil)
	exec(`INSERT INTO rewards (task_id, ord, type, value_text, value_num, is_numeric, description) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"t-debut", 1, "item", "Salewa first aid kit", nil, 0, "Salewa first aid kit x1")

	exec(`INSERT INTO requirements (task_id, ord, type, req_task_id, req_task_name, level, value, description) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		"t-shootout", 0, "task", "t-debut", "Debut", nil, nil, nil)
	exec(`INSERT INTO requirements (task_id, ord, type, req_task_id, req_task_name, level, value, description) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		"t-cleanup", 0, "level", nil, nil, 10, nil, nil)

	exec(`INSERT INTO objectives (task_id, ord, id, description, type, count, target_item, optional) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		"t-debut", 0, "obj-1", "Eliminate 5 Scavs", "elimination", 5, nil, 0)
	exec(`INSERT INTO objectives (task_id, ord, id, description, type, count, target_item, optional) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		"t-debut", 1, "obj-2", "Hand over a shotgun", "handover", 1, "MP-133", 1)

	return path
}

func openTestReader(t *testing.T, path string) *SQLiteReader {
	t.Helper()
	reader, err := NewSQLiteReader(DataSource{Type: SourceTypeSQLite, Path: path})
	if err != nil {
		t.Fatalf("NewSQLiteReader failed: %v", err)
	}
	t.Cleanup(func() { reader.Close() })
	return reader
}

func TestSQLiteReaderLoadTasks(t *testing.T) {
	path := createTestCache(t, t.TempDir())
	reader := openTestReader(t, path)

	tasks, err := reader.LoadTasks()
	if err != nil {
		t.Fatalf("LoadTasks failed: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}

	// Insert order must be preserved
	wantIDs := []string{"t-debut", "t-shootout", "t-cleanup"}
	for i, want := range wantIDs {
		if tasks[i].ID != want {
			t.Errorf("task %d ID = %s, want %s", i, tasks[i].ID, want)
		}
	}

	debut := tasks[0]
	if debut.Trader.Name != "Prapor" || debut.Trader.ImageURL != "https://img/prapor.png" {
		t.Errorf("trader join incomplete: %+v", debut.Trader)
	}
	if debut.MinPlayerLevel != 1 || debut.WikiLink != "https://wiki/Debut" {
		t.Errorf("optional columns not mapped: %+v", debut)
	}
	if len(debut.Rewards) != 2 {
		t.Fatalf("expected 2 rewards on t-debut, got %d", len(debut.Rewards))
	}
	xp := debut.Rewards[0]
	if xp.Kind != model.RewardExperience || !xp.IsNumeric || xp.Number != 1700 {
		t.Errorf("experience reward mismatch: %+v", xp)
	}
	if xp.ValueText() != "" {
		t.Error("numeric reward must have empty ValueText")
	}
	item := debut.Rewards[1]
	if item.Kind != model.RewardItem || item.Value != "Salewa first aid kit" || item.IsNumeric {
		t.Errorf("item reward mismatch: %+v", item)
	}
	if len(debut.Objectives) != 2 {
		t.Fatalf("expected 2 objectives on t-debut, got %d", len(debut.Objectives))
	}
	if debut.Objectives[0].Count != 5 || debut.Objectives[0].Optional {
		t.Errorf("objective 0 mismatch: %+v", debut.Objectives[0])
	}
	if debut.Objectives[1].TargetItem != "MP-133" || !debut.Objectives[1].Optional {
		t.Errorf("objective 1 mismatch: %+v", debut.Objectives[1])
	}

	shootout := tasks[1]
	if shootout.Group != "Hunting Trip" {
		t.Errorf("task group not mapped: %q", shootout.Group)
	}
	if ids := shootout.PrerequisiteIDs(); len(ids) != 1 || ids[0] != "t-debut" {
		t.Errorf("prerequisites = %v, want [t-debut]", ids)
	}

	cleanup := tasks[2]
	if cleanup.Trader.Name != "" {
		t.Errorf("orphan trader should stay empty, got %q", cleanup.Trader.Name)
	}
	if len(cleanup.Requirements) != 1 || cleanup.Requirements[0].Kind != model.RequirementLevel || cleanup.Requirements[0].Level != 10 {
		t.Errorf("level requirement mismatch: %+v", cleanup.Requirements)
	}
}

func TestSQLiteReaderSimpleFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	// Older cache without the optional task columns
	schema := `
CREATE TABLE traders (id TEXT PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE tasks (id TEXT PRIMARY KEY, name TEXT NOT NULL, trader_id TEXT);
CREATE TABLE rewards (task_id TEXT, ord INTEGER, type TEXT, value_text TEXT, value_num REAL, is_numeric INTEGER, description TEXT);
CREATE TABLE requirements (task_id TEXT, ord INTEGER, type TEXT, req_task_id TEXT, req_task_name TEXT, level INTEGER, value TEXT, description TEXT);
`
	if _, err := db.Exec(schema); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO traders (id, name) VALUES ('tr-1', 'Therapist')`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO tasks (id, name, trader_id) VALUES ('t-1', 'Shortage', 'tr-1')`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	reader := openTestReader(t, path)
	tasks, err := reader.LoadTasks()
	if err != nil {
		t.Fatalf("fallback load failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Name != "Shortage" || tasks[0].Trader.Name != "Therapist" {
		t.Errorf("fallback row mismatch: %+v", tasks[0])
	}
}

func TestSQLiteReaderCountTasks(t *testing.T) {
	path := createTestCache(t, t.TempDir())
	reader := openTestReader(t, path)

	count, err := reader.CountTasks()
	if err != nil {
		t.Fatalf("CountTasks failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 tasks, got %d", count)
	}
}

func TestSQLiteReaderGetTaskByID(t *testing.T) {
	path := createTestCache(t, t.TempDir())
	reader := openTestReader(t, path)

	task, err := reader.GetTaskByID("t-shootout")
	if err != nil {
		t.Fatalf("GetTaskByID failed: %v", err)
	}
	if task.Name != "Shootout Picnic" {
		t.Errorf("wrong task: %+v", task)
	}

	if _, err := reader.GetTaskByID("t-ghost"); err == nil {
		t.Error("expected error for unknown task ID")
	}
}

func TestNewSQLiteReaderRejectsWrongType(t *testing.T) {
	_, err := NewSQLiteReader(DataSource{Type: SourceTypeJSONL, Path: "tasks.jsonl"})
	if err == nil {
		t.Fatal("expected error for non-SQLite source")
	}
}
