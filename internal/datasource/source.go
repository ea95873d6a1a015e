// Package datasource provides multi-source data detection and selection for
// questwork. It discovers, validates, and selects the freshest valid source
// from bundled SQLite caches, JSONL dumps, and JSON array dumps.
package datasource

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SourceType identifies the type of data source
type SourceType string

const (
	// SourceTypeSQLite is a SQLite cache database (tasks.db)
	SourceTypeSQLite SourceType = "sqlite"
	// SourceTypeJSONL is a JSONL file, one task per line (tasks.jsonl)
	SourceTypeJSONL SourceType = "jsonl"
	// SourceTypeJSON is a JSON array dump (tasks.json)
	SourceTypeJSON SourceType = "json"
)

// Priority values for source types (higher = more authoritative)
const (
	PrioritySQLite = 100
	PriorityJSONL  = 80
	PriorityJSON   = 50
)

// DataSource represents a potential source of quest task data
type DataSource struct {
	// Type identifies the source type
	Type SourceType `json:"type"`
	// Path is the absolute path to the source file
	Path string `json:"path"`
	// Priority determines preference when timestamps are equal (higher = preferred)
	Priority int `json:"priority"`
	// ModTime is the last modification time of the source
	ModTime time.Time `json:"mod_time"`
	// Valid indicates whether the source passed validation
	Valid bool `json:"valid"`
	// ValidationError describes why validation failed (if Valid is false)
	ValidationError string `json:"validation_error,omitempty"`
	// TaskCount is the number of tasks in the source (set during validation)
	TaskCount int `json:"task_count"`
	// Size is the file size in bytes
	Size int64 `json:"size"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, priority=%d, mod=%s, tasks=%d, %s)",
		s.Path, s.Type, s.Priority, s.ModTime.Format(time.RFC3339), s.TaskCount, status)
}

// SourceFromPath classifies a file path into a DataSource by extension and
// stats it. Used for sources named explicitly in the config rather than
// discovered.
func SourceFromPath(path string) (DataSource, error) {
	var srcType SourceType
	var priority int
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite":
		srcType = SourceTypeSQLite
		priority = PrioritySQLite
	case ".jsonl":
		srcType = SourceTypeJSONL
		priority = PriorityJSONL
	case ".json":
		srcType = SourceTypeJSON
		priority = PriorityJSON
	default:
		return DataSource{}, fmt.Errorf("unrecognized source extension: %s", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return DataSource{}, fmt.Errorf("cannot stat source: %w", err)
	}

	return DataSource{
		Type:     srcType,
		Path:     path,
		Priority: priority,
		ModTime:  info.ModTime(),
		Size:     info.Size(),
	}, nil
}

// DiscoveryOptions configures source discovery behavior
type DiscoveryOptions struct {
	// QuestsDir is the quest data directory (optional, auto-detected if empty)
	QuestsDir string
	// ValidateAfterDiscovery runs validation on each discovered source
	ValidateAfterDiscovery bool
	// IncludeInvalid includes sources that failed validation in results
	IncludeInvalid bool
	// Verbose enables detailed logging during discovery
	Verbose bool
	// Logger receives log messages when Verbose is true
	Logger func(msg string)
}

// ResolveQuestsDir returns the quest data directory: the explicit argument,
// then the QUESTS_DIR environment variable, then the current directory.
func ResolveQuestsDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	if envDir := os.Getenv("QUESTS_DIR"); envDir != "" {
		return envDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return cwd, nil
}

// DiscoverSources finds all potential data sources in the quests directory
func DiscoverSources(opts DiscoveryOptions) ([]DataSource, error) {
	if opts.Logger == nil {
		opts.Logger = func(string) {}
	}

	questsDir, err := ResolveQuestsDir(opts.QuestsDir)
	if err != nil {
		return nil, err
	}

	if opts.Verbose {
		opts.Logger(fmt.Sprintf("Discovering sources in: %s", questsDir))
	}

	var sources []DataSource

	// Discover SQLite cache
	sqliteSources, err := discoverSQLiteSources(questsDir, opts)
	if err != nil && opts.Verbose {
		opts.Logger(fmt.Sprintf("SQLite discovery warning: %v", err))
	}
	sources = append(sources, sqliteSources...)

	// Discover JSONL files
	jsonlSources, err := discoverJSONLSources(questsDir, opts)
	if err != nil && opts.Verbose {
		opts.Logger(fmt.Sprintf("JSONL discovery warning: %v", err))
	}
	sources = append(sources, jsonlSources...)

	// Discover JSON array dump
	jsonSources, err := discoverJSONSources(questsDir, opts)
	if err != nil && opts.Verbose {
		opts.Logger(fmt.Sprintf("JSON discovery warning: %v", err))
	}
	sources = append(sources, jsonSources...)

	// Validate sources if requested
	if opts.ValidateAfterDiscovery {
		for i := range sources {
			if err := ValidateSource(&sources[i]); err != nil && opts.Verbose {
				opts.Logger(fmt.Sprintf("Validation failed for %s: %v", sources[i].Path, err))
			}
		}
	}

	// Filter out invalid sources if not including them
	if opts.ValidateAfterDiscovery && !opts.IncludeInvalid {
		var validSources []DataSource
		for _, s := range sources {
			if s.Valid {
				validSources = append(validSources, s)
			}
		}
		sources = validSources
	}

	// Sort by mod time, priority breaking ties
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].Priority > sources[j].Priority
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})

	if opts.Verbose {
		opts.Logger(fmt.Sprintf("Discovered %d sources", len(sources)))
	}

	return sources, nil
}

// discoverSQLiteSources finds the SQLite cache in the quests directory
func discoverSQLiteSources(questsDir string, opts DiscoveryOptions) ([]DataSource, error) {
	var sources []DataSource

	// Look for tasks.db
	dbPath := filepath.Join(questsDir, "tasks.db")
	info, err := os.Stat(dbPath)
	if err == nil {
		sources = append(sources, DataSource{
			Type:     SourceTypeSQLite,
			Path:     dbPath,
			Priority: PrioritySQLite,
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		})
		if opts.Verbose {
			opts.Logger(fmt.Sprintf("Found SQLite: %s (mod=%s)", dbPath, info.ModTime().Format(time.RFC3339)))
		}
	}

	return sources, nil
}

// discoverJSONLSources finds JSONL files in the quests directory
func discoverJSONLSources(questsDir string, opts DiscoveryOptions) ([]DataSource, error) {
	var sources []DataSource

	entries, err := os.ReadDir(questsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read quests directory: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()

		// Must be a .jsonl file
		if !strings.HasSuffix(name, ".jsonl") {
			continue
		}

		// Skip backups and merge artifacts
		if strings.Contains(name, ".backup") ||
			strings.Contains(name, ".orig") ||
			strings.Contains(name, ".merge") {
			continue
		}

		path := filepath.Join(questsDir, name)
		info, err := e.Info()
		if err != nil {
			continue
		}

		sources = append(sources, DataSource{
			Type:     SourceTypeJSONL,
			Path:     path,
			Priority: PriorityJSONL,
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		})

		if opts.Verbose {
			opts.Logger(fmt.Sprintf("Found JSONL: %s (mod=%s)", path, info.ModTime().Format(time.RFC3339)))
		}
	}

	return sources, nil
}

// discoverJSONSources finds the JSON array dump in the quests directory
func discoverJSONSources(questsDir string, opts DiscoveryOptions) ([]DataSource, error) {
	var sources []DataSource

	jsonPath := filepath.Join(questsDir, "tasks.json")
	info, err := os.Stat(jsonPath)
	if err == nil {
		sources = append(sources, DataSource{
			Type:     SourceTypeJSON,
			Path:     jsonPath,
			Priority: PriorityJSON,
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		})
		if opts.Verbose {
			opts.Logger(fmt.Sprintf("Found JSON: %s (mod=%s)", jsonPath, info.ModTime().Format(time.RFC3339)))
		}
	}

	return sources, nil
}

// ValidateSource checks that a source is readable and counts its tasks.
// The result is recorded on the source; the returned error mirrors
// ValidationError for callers that want it directly.
func ValidateSource(s *DataSource) error {
	tasks, err := LoadFromSource(*s)
	if err != nil {
		s.Valid = false
		s.ValidationError = err.Error()
		return err
	}
	if len(tasks) == 0 {
		s.Valid = false
		s.ValidationError = "source contains no tasks"
		return fmt.Errorf("source contains no tasks")
	}
	s.Valid = true
	s.ValidationError = ""
	s.TaskCount = len(tasks)
	return nil
}

// SelectBestSource picks the first valid source from a discovery-ordered
// list (freshest first, priority breaking ties).
func SelectBestSource(sources []DataSource) (DataSource, error) {
	for _, s := range sources {
		if s.Valid {
			return s, nil
		}
	}
	for _, s := range sources {
		// Unvalidated discovery lists carry no Valid flags; fall back to
		// the first entry rather than refusing outright.
		if s.ValidationError == "" {
			return s, nil
		}
	}
	return DataSource{}, fmt.Errorf("no valid sources available")
}
