package datasource

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/questwork/pkg/metrics"
	"github.com/vanderheijden86/questwork/pkg/model"
)

// SQLiteReader provides read access to a bundled quest cache database.
//
// Expected schema: a tasks table (id, name, task_group, trader_id,
// min_player_level, wiki_link), a traders table (id, name, image_url),
// and per-task child tables rewards, requirements, and objectives, each
// carrying an ord column that preserves declaration order.
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite cache for reading
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Read-performance pragmas, non-fatal when refused
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA cache_size = -64000", // 64MB cache
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		_, _ = db.Exec(pragma)
	}

	return &SQLiteReader{
		db:   db,
		path: source.Path,
	}, nil
}

// Close closes the database connection
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadTasks reads all tasks from the database in declaration order
func (r *SQLiteReader) LoadTasks() ([]model.Task, error) {
	return r.LoadTasksFiltered(nil)
}

// LoadTasksFiltered reads tasks matching the filter function
func (r *SQLiteReader) LoadTasksFiltered(filter func(*model.Task) bool) ([]model.Task, error) {
	defer metrics.Timer(metrics.SourceLoad)()

	// rowid order preserves the order tasks were written in, which is the
	// declaration order the graph builder keys its tie-breaking on.
	query := `
		SELECT
			t.id, t.name, t.task_group, t.trader_id,
			tr.name, tr.image_url,
			t.min_player_level, t.wiki_link
		FROM tasks t
		LEFT JOIN traders tr ON tr.id = t.trader_id
		ORDER BY t.rowid
	`

	rows, err := r.db.Query(query)
	if err != nil {
		// Try simpler query if optional columns don't exist
		return r.loadTasksSimple(filter)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var task model.Task
		var taskGroup, traderID, traderName, traderImage, wikiLink sql.NullString
		var minLevel sql.NullInt64

		err := rows.Scan(
			&task.ID, &task.Name, &taskGroup, &traderID,
			&traderName, &traderImage,
			&minLevel, &wikiLink,
		)
		if err != nil {
			continue
		}

		// Map nullable fields
		if taskGroup.Valid {
			task.Group = taskGroup.String
		}
		if traderID.Valid {
			task.Trader.ID = traderID.String
		}
		if traderName.Valid {
			task.Trader.Name = traderName.String
		}
		if traderImage.Valid {
			task.Trader.ImageURL = traderImage.String
		}
		if minLevel.Valid {
			task.MinPlayerLevel = int(minLevel.Int64)
		}
		if wikiLink.Valid {
			task.WikiLink = wikiLink.String
		}

		// Load child collections for this task
		task.Objectives = r.loadObjectives(task.ID)
		task.Rewards = r.loadRewards(task.ID)
		task.Requirements = r.loadRequirements(task.ID)

		// Apply filter
		if filter != nil && !filter(&task) {
			continue
		}

		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// loadTasksSimple is a fallback for caches with fewer columns
func (r *SQLiteReader) loadTasksSimple(filter func(*model.Task) bool) ([]model.Task, error) {
	query := `
		SELECT t.id, t.name, t.trader_id, tr.name
		FROM tasks t
		LEFT JOIN traders tr ON tr.id = t.trader_id
		ORDER BY t.rowid
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var task model.Task
		var traderID, traderName sql.NullString

		err := rows.Scan(&task.ID, &task.Name, &traderID, &traderName)
		if err != nil {
			continue
		}

		if traderID.Valid {
			task.Trader.ID = traderID.String
		}
		if traderName.Valid {
			task.Trader.Name = traderName.String
		}

		task.Rewards = r.loadRewards(task.ID)
		task.Requirements = r.loadRequirements(task.ID)

		if filter != nil && !filter(&task) {
			continue
		}

		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// loadObjectives loads the objective list for a task
func (r *SQLiteReader) loadObjectives(taskID string) []model.Objective {
	query := `SELECT id, description, type, count, target_item, optional
		FROM objectives WHERE task_id = ? ORDER BY ord`
	rows, err := r.db.Query(query, taskID)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var objectives []model.Objective
	for rows.Next() {
		var obj model.Objective
		var id, kind, targetItem sql.NullString
		var count sql.NullInt64
		var optional sql.NullBool
		if err := rows.Scan(&id, &obj.Description, &kind, &count, &targetItem, &optional); err != nil {
			continue
		}
		if id.Valid {
			obj.ID = id.String
		}
		if kind.Valid {
			obj.Kind = kind.String
		}
		if count.Valid {
			obj.Count = int(count.Int64)
		}
		if targetItem.Valid {
			obj.TargetItem = targetItem.String
		}
		if optional.Valid {
			obj.Optional = optional.Bool
		}
		objectives = append(objectives, obj)
	}
	// Note: rows.Err() not checked here since loadObjectives is a
	// best-effort helper that returns nil on any error.
	return objectives
}

// loadRewards loads the reward list for a task, preserving the
// numeric-versus-textual value distinction reward search depends on
func (r *SQLiteReader) loadRewards(taskID string) []model.Reward {
	query := `SELECT type, value_text, value_num, is_numeric, description
		FROM rewards WHERE task_id = ? ORDER BY ord`
	rows, err := r.db.Query(query, taskID)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		var reward model.Reward
		var kind string
		var valueText, description sql.NullString
		var valueNum sql.NullFloat64
		var isNumeric sql.NullBool
		if err := rows.Scan(&kind, &valueText, &valueNum, &isNumeric, &description); err != nil {
			continue
		}
		reward.RawKind = kind
		reward.Kind = model.ParseRewardKind(kind)
		if isNumeric.Valid && isNumeric.Bool {
			reward.IsNumeric = true
			if valueNum.Valid {
				reward.Number = valueNum.Float64
			}
		} else if valueText.Valid {
			reward.Value = valueText.String
		}
		if description.Valid {
			reward.Description = description.String
		}
		rewards = append(rewards, reward)
	}
	// Best-effort helper, same contract as loadObjectives.
	return rewards
}

// loadRequirements loads the unlock requirement list for a task
func (r *SQLiteReader) loadRequirements(taskID string) []model.Requirement {
	query := `SELECT type, req_task_id, req_task_name, level, value, description
		FROM requirements WHERE task_id = ? ORDER BY ord`
	rows, err := r.db.Query(query, taskID)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var reqs []model.Requirement
	for rows.Next() {
		var req model.Requirement
		var kind string
		var reqTaskID, reqTaskName, value, description sql.NullString
		var level sql.NullInt64
		if err := rows.Scan(&kind, &reqTaskID, &reqTaskName, &level, &value, &description); err != nil {
			continue
		}
		req.RawKind = kind
		req.Kind = model.ParseRequirementKind(kind)
		if reqTaskID.Valid {
			req.TaskID = reqTaskID.String
		}
		if reqTaskName.Valid {
			req.TaskName = reqTaskName.String
		}
		if level.Valid {
			req.Level = int(level.Int64)
		}
		if value.Valid {
			req.Value = value.String
		}
		if description.Valid {
			req.Description = description.String
		}
		reqs = append(reqs, req)
	}
	// Best-effort helper, same contract as loadObjectives.
	return reqs
}

// CountTasks returns the number of tasks in the cache
func (r *SQLiteReader) CountTasks() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM tasks").Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetTaskByID retrieves a single task by ID
func (r *SQLiteReader) GetTaskByID(id string) (*model.Task, error) {
	tasks, err := r.LoadTasksFiltered(func(task *model.Task) bool {
		return task.ID == id
	})
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("task not found: %s", id)
	}
	return &tasks[0], nil
}
