package export

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/questwork/pkg/model"
)

// CacheSchemaVersion tracks the cache layout for forward migrations.
const CacheSchemaVersion = 1

// CacheExporter writes a loaded quest set to a SQLite cache. The layout is
// the one the datasource reader consumes: tasks joined to traders, with
// per-task child tables whose ord column preserves declaration order.
// Source discovery ranks a tasks.db above JSON sources, so exporting a
// cache makes later startups read from it.
type CacheExporter struct {
	Tasks  []model.Task
	Source string // provenance recorded in cache_meta
}

// NewCacheExporter creates an exporter for the given quest set.
func NewCacheExporter(tasks []model.Task) *CacheExporter {
	return &CacheExporter{Tasks: tasks}
}

// Export writes the cache database to path, replacing any existing file.
func (e *CacheExporter) Export(path string) error {
	if len(e.Tasks) == 0 {
		return fmt.Errorf("no tasks to export")
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	// Remove existing database if present
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := createCacheSchema(db); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tasks := collapseDuplicateTasks(e.Tasks)

	if err := insertTraders(db, tasks); err != nil {
		return fmt.Errorf("insert traders: %w", err)
	}
	if err := insertTasks(db, tasks); err != nil {
		return fmt.Errorf("insert tasks: %w", err)
	}
	if err := insertObjectives(db, tasks); err != nil {
		return fmt.Errorf("insert objectives: %w", err)
	}
	if err := insertRewards(db, tasks); err != nil {
		return fmt.Errorf("insert rewards: %w", err)
	}
	if err := insertRequirements(db, tasks); err != nil {
		return fmt.Errorf("insert requirements: %w", err)
	}

	if err := e.insertCacheMeta(db, len(tasks)); err != nil {
		return fmt.Errorf("insert meta: %w", err)
	}

	if err := optimizeCache(db); err != nil {
		return fmt.Errorf("optimize database: %w", err)
	}

	return nil
}

// collapseDuplicateTasks applies the same resolution the graph builder uses
// for duplicate IDs: the record keeps its first slot, later occurrences
// replace its data.
func collapseDuplicateTasks(tasks []model.Task) []model.Task {
	seen := make(map[string]int, len(tasks))
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if i, ok := seen[t.ID]; ok {
			out[i] = t
			continue
		}
		seen[t.ID] = len(out)
		out = append(out, t)
	}
	return out
}

// createCacheSchema creates all tables and indexes.
func createCacheSchema(db *sql.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS traders (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			image_url TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			task_group TEXT,
			trader_id TEXT,
			min_player_level INTEGER,
			wiki_link TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS objectives (
			task_id TEXT NOT NULL,
			ord INTEGER NOT NULL,
			id TEXT,
			description TEXT NOT NULL,
			type TEXT,
			count INTEGER,
			target_item TEXT,
			optional INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS rewards (
			task_id TEXT NOT NULL,
			ord INTEGER NOT NULL,
			type TEXT NOT NULL,
			value_text TEXT,
			value_num REAL,
			is_numeric INTEGER NOT NULL DEFAULT 0,
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS requirements (
			task_id TEXT NOT NULL,
			ord INTEGER NOT NULL,
			type TEXT NOT NULL,
			req_task_id TEXT,
			req_task_name TEXT,
			level INTEGER,
			value TEXT,
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS cache_meta (
			key TEXT PRIMARY KEY,
			value TEXT
		)`,
	}
	for _, stmt := range tables {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_tasks_trader ON tasks(trader_id)`,
		`CREATE INDEX IF NOT EXISTS idx_objectives_task ON objectives(task_id, ord)`,
		`CREATE INDEX IF NOT EXISTS idx_rewards_task ON rewards(task_id, ord)`,
		`CREATE INDEX IF NOT EXISTS idx_requirements_task ON requirements(task_id, ord)`,
	}
	for _, stmt := range indexes {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}

// insertTraders inserts each distinct trader, first occurrence wins.
func insertTraders(db *sql.DB, tasks []model.Task) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO traders (id, name, image_url)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	seen := make(map[string]bool)
	for _, task := range tasks {
		tr := task.Trader
		if tr.ID == "" || seen[tr.ID] {
			continue
		}
		seen[tr.ID] = true
		if _, err := stmt.Exec(tr.ID, tr.Name, nullStr(tr.ImageURL)); err != nil {
			return fmt.Errorf("insert trader %s: %w", tr.ID, err)
		}
	}

	return tx.Commit()
}

// insertTasks inserts the task rows. Insertion order matters: the reader
// orders by rowid to recover declaration order.
func insertTasks(db *sql.DB, tasks []model.Task) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO tasks (id, name, task_group, trader_id, min_player_level, wiki_link)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, task := range tasks {
		_, err := stmt.Exec(
			task.ID,
			task.Name,
			nullStr(task.Group),
			nullStr(task.Trader.ID),
			task.MinPlayerLevel,
			nullStr(task.WikiLink),
		)
		if err != nil {
			return fmt.Errorf("insert task %s: %w", task.ID, err)
		}
	}

	return tx.Commit()
}

// insertObjectives inserts each task's objective list with ord positions.
func insertObjectives(db *sql.DB, tasks []model.Task) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO objectives (task_id, ord, id, description, type, count, target_item, optional)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, task := range tasks {
		for ord, obj := range task.Objectives {
			_, err := stmt.Exec(
				task.ID,
				ord,
				nullStr(obj.ID),
				obj.Description,
				nullStr(obj.Kind),
				obj.Count,
				nullStr(obj.TargetItem),
				boolInt(obj.Optional),
			)
			if err != nil {
				return fmt.Errorf("insert objective %d of %s: %w", ord, task.ID, err)
			}
		}
	}

	return tx.Commit()
}

// insertRewards inserts each task's reward list. The numeric-versus-textual
// distinction is stored explicitly because reward search must never see
// formatted numbers.
func insertRewards(db *sql.DB, tasks []model.Task) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO rewards (task_id, ord, type, value_text, value_num, is_numeric, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, task := range tasks {
		for ord, r := range task.Rewards {
			var valueText, valueNum interface{}
			if r.IsNumeric {
				valueNum = r.Number
			} else {
				valueText = nullStr(r.Value)
			}
			_, err := stmt.Exec(
				task.ID,
				ord,
				rewardKindTag(r),
				valueText,
				valueNum,
				boolInt(r.IsNumeric),
				nullStr(r.Description),
			)
			if err != nil {
				return fmt.Errorf("insert reward %d of %s: %w", ord, task.ID, err)
			}
		}
	}

	return tx.Commit()
}

// insertRequirements inserts each task's unlock requirement list.
func insertRequirements(db *sql.DB, tasks []model.Task) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO requirements (task_id, ord, type, req_task_id, req_task_name, level, value, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, task := range tasks {
		for ord, req := range task.Requirements {
			_, err := stmt.Exec(
				task.ID,
				ord,
				requirementKindTag(req),
				nullStr(req.TaskID),
				nullStr(req.TaskName),
				req.Level,
				nullStr(req.Value),
				nullStr(req.Description),
			)
			if err != nil {
				return fmt.Errorf("insert requirement %d of %s: %w", ord, task.ID, err)
			}
		}
	}

	return tx.Commit()
}

// insertCacheMeta records export provenance.
func (e *CacheExporter) insertCacheMeta(db *sql.DB, taskCount int) error {
	meta := map[string]string{
		"generated_at":   time.Now().UTC().Format(time.RFC3339),
		"task_count":     fmt.Sprintf("%d", taskCount),
		"schema_version": fmt.Sprintf("%d", CacheSchemaVersion),
	}
	if e.Source != "" {
		meta["source"] = e.Source
	}

	for key, value := range meta {
		if _, err := db.Exec(`INSERT OR REPLACE INTO cache_meta (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("insert meta %s: %w", key, err)
		}
	}

	return nil
}

// optimizeCache finalizes the database for read-only consumption.
func optimizeCache(db *sql.DB) error {
	optimizations := []string{
		// Single file mode (no WAL journal)
		`PRAGMA journal_mode=DELETE`,
		`ANALYZE`,
		`PRAGMA optimize`,
	}
	for _, stmt := range optimizations {
		if _, err := db.Exec(stmt); err != nil {
			// Some pragmas may fail depending on state, continue
			continue
		}
	}

	// VACUUM must be last and outside any transaction
	if _, err := db.Exec(`VACUUM`); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}

	return nil
}

// rewardKindTag mirrors the JSON codec: unknown kinds keep their raw tag.
func rewardKindTag(r model.Reward) string {
	if r.Kind == model.KindUnknown && r.RawKind != "" {
		return r.RawKind
	}
	return r.Kind.String()
}

func requirementKindTag(r model.Requirement) string {
	if r.Kind == model.RequirementUnknown && r.RawKind != "" {
		return r.RawKind
	}
	return r.Kind.String()
}

func nullStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
