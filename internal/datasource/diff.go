package datasource

import (
	"fmt"

	"github.com/vanderheijden86/questwork/pkg/model"
)

// SourceDiff represents differences between two data sources
type SourceDiff struct {
	// SourceA is the path of the first source
	SourceA string `json:"source_a"`
	// SourceB is the path of the second source
	SourceB string `json:"source_b"`
	// MissingInA contains task IDs present in B but not in A
	MissingInA []string `json:"missing_in_a,omitempty"`
	// MissingInB contains task IDs present in A but not in B
	MissingInB []string `json:"missing_in_b,omitempty"`
	// FieldMismatch contains tasks whose compared fields differ between sources
	FieldMismatch []FieldDifference `json:"field_mismatch,omitempty"`
	// CountA is the number of tasks in source A
	CountA int `json:"count_a"`
	// CountB is the number of tasks in source B
	CountB int `json:"count_b"`
}

// FieldDifference represents one differing field on a single task
type FieldDifference struct {
	ID     string `json:"id"`
	Field  string `json:"field"`
	ValueA string `json:"value_a"`
	ValueB string `json:"value_b"`
}

// HasInconsistencies returns true if there are any differences between sources
func (d SourceDiff) HasInconsistencies() bool {
	return len(d.MissingInA) > 0 || len(d.MissingInB) > 0 || len(d.FieldMismatch) > 0
}

// Summary returns a human-readable summary of the differences
func (d SourceDiff) Summary() string {
	if !d.HasInconsistencies() {
		return fmt.Sprintf("Sources match (%d tasks each)", d.CountA)
	}

	summary := fmt.Sprintf("Inconsistencies found between %s and %s:\n", d.SourceA, d.SourceB)

	if d.CountA != d.CountB {
		summary += fmt.Sprintf("  - Count mismatch: %d vs %d\n", d.CountA, d.CountB)
	}

	if len(d.MissingInA) > 0 {
		summary += fmt.Sprintf("  - %d tasks in %s but not %s\n", len(d.MissingInA), d.SourceB, d.SourceA)
		if len(d.MissingInA) <= 5 {
			for _, id := range d.MissingInA {
				summary += fmt.Sprintf("    - %s\n", id)
			}
		}
	}

	if len(d.MissingInB) > 0 {
		summary += fmt.Sprintf("  - %d tasks in %s but not %s\n", len(d.MissingInB), d.SourceA, d.SourceB)
		if len(d.MissingInB) <= 5 {
			for _, id := range d.MissingInB {
				summary += fmt.Sprintf("    - %s\n", id)
			}
		}
	}

	if len(d.FieldMismatch) > 0 {
		summary += fmt.Sprintf("  - %d tasks with differing fields\n", len(d.FieldMismatch))
		if len(d.FieldMismatch) <= 5 {
			for _, m := range d.FieldMismatch {
				summary += fmt.Sprintf("    - %s %s: %q vs %q\n", m.ID, m.Field, m.ValueA, m.ValueB)
			}
		}
	}

	return summary
}

// DiffOptions configures the diff operation
type DiffOptions struct {
	// CompareFields specifies which task fields to compare ("name", "trader")
	CompareFields []string
	// MaxDifferences limits the number of differences tracked (0 = unlimited)
	MaxDifferences int
}

// DefaultDiffOptions returns sensible default diff options
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{
		CompareFields:  []string{"name", "trader"},
		MaxDifferences: 100,
	}
}

// DetectInconsistencies compares two sets of tasks and returns differences
func DetectInconsistencies(tasksA, tasksB []model.Task, sourceA, sourceB string, opts DiffOptions) SourceDiff {
	diff := SourceDiff{
		SourceA: sourceA,
		SourceB: sourceB,
	}

	// Build maps for fast lookup
	mapA := make(map[string]model.Task)
	for _, task := range tasksA {
		mapA[task.ID] = task
	}

	mapB := make(map[string]model.Task)
	for _, task := range tasksB {
		mapB[task.ID] = task
	}

	diff.CountA = len(mapA)
	diff.CountB = len(mapB)

	// Find tasks in A but not in B
	for id := range mapA {
		if _, exists := mapB[id]; !exists {
			if opts.MaxDifferences == 0 || len(diff.MissingInB) < opts.MaxDifferences {
				diff.MissingInB = append(diff.MissingInB, id)
			}
		}
	}

	// Find tasks in B but not in A, and field mismatches
	for id, taskB := range mapB {
		taskA, exists := mapA[id]
		if !exists {
			if opts.MaxDifferences == 0 || len(diff.MissingInA) < opts.MaxDifferences {
				diff.MissingInA = append(diff.MissingInA, id)
			}
			continue
		}

		for _, field := range opts.CompareFields {
			valueA, valueB := compareField(taskA, taskB, field)
			if valueA == valueB {
				continue
			}
			if opts.MaxDifferences == 0 || len(diff.FieldMismatch) < opts.MaxDifferences {
				diff.FieldMismatch = append(diff.FieldMismatch, FieldDifference{
					ID:     id,
					Field:  field,
					ValueA: valueA,
					ValueB: valueB,
				})
			}
		}
	}

	return diff
}

// compareField extracts the comparable value of a named field from both tasks
func compareField(a, b model.Task, field string) (string, string) {
	switch field {
	case "name":
		return a.Name, b.Name
	case "trader":
		return a.Trader.Name, b.Trader.Name
	case "group":
		return a.Group, b.Group
	case "wiki":
		return a.WikiLink, b.WikiLink
	default:
		return "", ""
	}
}

// CompareSources loads and compares two data sources
func CompareSources(sourceA, sourceB DataSource, opts DiffOptions) (*SourceDiff, error) {
	tasksA, err := LoadFromSource(sourceA)
	if err != nil {
		return nil, fmt.Errorf("failed to load source A (%s): %w", sourceA.Path, err)
	}

	tasksB, err := LoadFromSource(sourceB)
	if err != nil {
		return nil, fmt.Errorf("failed to load source B (%s): %w", sourceB.Path, err)
	}

	diff := DetectInconsistencies(tasksA, tasksB, sourceA.Path, sourceB.Path, opts)
	return &diff, nil
}

// CheckAllSourcesConsistent compares all valid sources pairwise and reports
// any inconsistencies
func CheckAllSourcesConsistent(sources []DataSource, opts DiffOptions) ([]SourceDiff, error) {
	var diffs []SourceDiff

	for i := 0; i < len(sources); i++ {
		if !sources[i].Valid {
			continue
		}
		for j := i + 1; j < len(sources); j++ {
			if !sources[j].Valid {
				continue
			}

			diff, err := CompareSources(sources[i], sources[j], opts)
			if err != nil {
				// A pair failing to load is not a consistency finding
				continue
			}

			if diff.HasInconsistencies() {
				diffs = append(diffs, *diff)
			}
		}
	}

	return diffs, nil
}

// InconsistencyReport provides a comprehensive report of all source inconsistencies
type InconsistencyReport struct {
	// Sources is the list of all sources checked
	Sources []DataSource `json:"sources"`
	// Diffs contains all detected differences
	Diffs []SourceDiff `json:"diffs,omitempty"`
	// TotalInconsistencies is the total number of inconsistencies found
	TotalInconsistencies int `json:"total_inconsistencies"`
	// HasCriticalInconsistencies indicates field-level divergence between sources
	HasCriticalInconsistencies bool `json:"has_critical_inconsistencies"`
}

// GenerateInconsistencyReport creates a comprehensive report
func GenerateInconsistencyReport(sources []DataSource, opts DiffOptions) (*InconsistencyReport, error) {
	diffs, err := CheckAllSourcesConsistent(sources, opts)
	if err != nil {
		return nil, err
	}

	report := &InconsistencyReport{
		Sources: sources,
		Diffs:   diffs,
	}

	for _, diff := range diffs {
		report.TotalInconsistencies += len(diff.MissingInA) + len(diff.MissingInB) + len(diff.FieldMismatch)
		if len(diff.FieldMismatch) > 0 {
			report.HasCriticalInconsistencies = true
		}
	}

	return report, nil
}
