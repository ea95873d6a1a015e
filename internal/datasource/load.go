package datasource

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/questwork/pkg/debug"
	"github.com/vanderheijden86/questwork/pkg/model"
)

// loadConcurrency caps parallel source reads in LoadAll.
const loadConcurrency = 4

// LoadTasks performs smart multi-source detection and loading. It discovers
// all available sources in the quests directory (SQLite cache, JSONL, JSON),
// validates them, selects the freshest valid source, and loads tasks from
// it. The SQLite cache wins ties at comparable freshness since it reflects
// the most recent upstream sync.
//
// Falls back to a bare tasks.jsonl read when smart detection finds no valid
// sources.
func LoadTasks(dir string) ([]model.Task, error) {
	questsDir, err := ResolveQuestsDir(dir)
	if err != nil {
		return nil, err
	}

	tasks, smartErr := loadSmart(questsDir)
	if smartErr == nil {
		return tasks, nil
	}
	debug.Log("smart source detection failed: %v", smartErr)

	// Fall back to the conventional JSONL path
	return LoadTasksFromJSONL(filepath.Join(questsDir, "tasks.jsonl"), nil)
}

// loadSmart discovers sources, validates, selects the best, and loads from it.
func loadSmart(questsDir string) ([]model.Task, error) {
	sources, err := DiscoverSources(DiscoveryOptions{
		QuestsDir:              questsDir,
		ValidateAfterDiscovery: true,
		IncludeInvalid:         false,
	})
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no valid sources discovered")
	}

	best, err := SelectBestSource(sources)
	if err != nil {
		return nil, err
	}
	debug.Log("loading tasks from %s", best.Path)

	return LoadFromSource(best)
}

// LoadFromSource loads tasks from a specific DataSource, dispatching to the
// appropriate reader based on source type.
func LoadFromSource(source DataSource) ([]model.Task, error) {
	switch source.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite source %s: %w", source.Path, err)
		}
		defer reader.Close()
		return reader.LoadTasks()

	case SourceTypeJSONL:
		return LoadTasksFromJSONL(source.Path, nil)

	case SourceTypeJSON:
		return LoadTasksFromJSON(source.Path)

	default:
		return nil, fmt.Errorf("unknown source type: %s", source.Type)
	}
}

// LoadAll loads every source concurrently and merges the results. Sources
// are expected in discovery order (most authoritative first); a task ID
// provided by a fresher source shadows the same ID in staler ones, and
// staler sources only contribute IDs the fresher ones lack. Duplicate IDs
// within a single source are kept as-is for the graph builder to resolve.
// Per-source failures do not discard the other sources' tasks; the error
// is non-nil only when every source failed.
func LoadAll(ctx context.Context, sources []DataSource) ([]model.Task, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources to load")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)

	results := make([][]model.Task, len(sources))
	errs := make([]error, len(sources))

	for i, src := range sources {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return nil
			default:
			}
			tasks, err := LoadFromSource(src)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = tasks
			return nil
		})
	}
	// Workers only record errors, so Wait cannot fail
	_ = g.Wait()

	owner := make(map[string]int)
	var merged []model.Task
	for i := range sources {
		for _, task := range results[i] {
			if j, ok := owner[task.ID]; ok && j != i {
				continue // a fresher source already provides this task
			}
			owner[task.ID] = i
			merged = append(merged, task)
		}
	}

	var failures []error
	for i, err := range errs {
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", sources[i].Path, err))
		}
	}
	if len(failures) == len(sources) {
		return nil, fmt.Errorf("all sources failed: %v", failures)
	}
	if len(failures) > 0 {
		debug.Log("partial source failures: %v", failures)
	}

	return merged, nil
}
