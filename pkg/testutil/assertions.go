package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/questwork/pkg/model"
)

// AssertTaskCount verifies the expected number of tasks.
func AssertTaskCount(t *testing.T, tasks []model.Task, expected int) {
	t.Helper()
	if len(tasks) != expected {
		t.Errorf("expected %d tasks, got %d", expected, len(tasks))
	}
}

// AssertNoDuplicateIDs verifies all task IDs are unique.
func AssertNoDuplicateIDs(t *testing.T, tasks []model.Task) {
	t.Helper()
	seen := make(map[string]bool)
	for _, task := range tasks {
		if seen[task.ID] {
			t.Errorf("duplicate task ID: %s", task.ID)
		}
		seen[task.ID] = true
	}
}

// AssertAllValid verifies no task produces validation warnings.
func AssertAllValid(t *testing.T, tasks []model.Task) {
	t.Helper()
	for i, task := range tasks {
		for _, warn := range task.Validate() {
			t.Errorf("task %d (%s): %s", i, task.ID, warn)
		}
	}
}

// AssertPrerequisiteExists verifies that taskID declares prereqID as a
// task-type unlock requirement.
func AssertPrerequisiteExists(t *testing.T, tasks []model.Task, taskID, prereqID string) {
	t.Helper()
	for _, task := range tasks {
		if task.ID == taskID {
			for _, req := range task.Requirements {
				if req.Kind == model.RequirementTask && req.TaskID == prereqID {
					return
				}
			}
			t.Errorf("expected prerequisite %s on task %s not found", prereqID, taskID)
			return
		}
	}
	t.Errorf("task %s not found", taskID)
}

// findCycle runs a DFS over the prerequisite relation and reports a task
// on a cycle, if any. Suitable for small test graphs.
func findCycle(tasks []model.Task) (string, bool) {
	adj := make(map[string][]string)
	for i := range tasks {
		adj[tasks[i].ID] = tasks[i].PrerequisiteIDs()
	}

	visited := make(map[string]bool)
	inPath := make(map[string]bool)

	var walk func(id string) bool
	walk = func(id string) bool {
		if inPath[id] {
			return true
		}
		if visited[id] {
			return false
		}
		visited[id] = true
		inPath[id] = true
		for _, req := range adj[id] {
			if walk(req) {
				return true
			}
		}
		inPath[id] = false
		return false
	}

	for _, task := range tasks {
		if walk(task.ID) {
			return task.ID, true
		}
	}
	return "", false
}

// AssertNoCycles verifies that the prerequisite graph has no cycles.
func AssertNoCycles(t *testing.T, tasks []model.Task) {
	t.Helper()
	if id, ok := findCycle(tasks); ok {
		t.Errorf("cycle detected involving task %s", id)
	}
}

// AssertHasCycle verifies that the prerequisite graph contains at least one cycle.
func AssertHasCycle(t *testing.T, tasks []model.Task) {
	t.Helper()
	if _, ok := findCycle(tasks); !ok {
		t.Error("expected cycle but none found")
	}
}

// AssertTraderCounts verifies the number of tasks per trader name.
func AssertTraderCounts(t *testing.T, tasks []model.Task, want map[string]int) {
	t.Helper()
	counts := CountByTrader(tasks)
	for name, n := range want {
		if counts[name] != n {
			t.Errorf("expected %d tasks for trader %s, got %d", n, name, counts[name])
		}
	}
}

// AssertJSONEqual compares two values after JSON round-tripping.
// Useful for comparing structs that may have different Go representations
// but equivalent JSON forms.
func AssertJSONEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}

	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}

	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// Golden file helpers

// GoldenFile handles golden file comparisons.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
// If GENERATE_GOLDEN env var is set, golden files will be updated.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file.
// If GENERATE_GOLDEN is set, updates the golden file instead.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()

	path := g.Path()

	if g.update {
		// Update golden file
		if err := os.MkdirAll(g.dir, 0755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	// Compare against golden file
	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}

	if string(expected) != actual {
		// Find first difference for helpful error message
		expectedLines := strings.Split(string(expected), "\n")
		actualLines := strings.Split(actual, "\n")

		for i := 0; i < len(expectedLines) || i < len(actualLines); i++ {
			var expLine, actLine string
			if i < len(expectedLines) {
				expLine = expectedLines[i]
			}
			if i < len(actualLines) {
				actLine = actualLines[i]
			}
			if expLine != actLine {
				g.t.Errorf("golden file mismatch at line %d:\nexpected: %s\nactual:   %s\n\nFull diff (expected vs actual):\n%s\nvs\n%s",
					i+1, expLine, actLine, string(expected), actual)
				return
			}
		}
		g.t.Errorf("golden file mismatch (length differs)")
	}
}

// AssertJSON compares actual value as JSON against the golden file.
func (g *GoldenFile) AssertJSON(actual interface{}) {
	g.t.Helper()

	data, err := json.MarshalIndent(actual, "", "  ")
	if err != nil {
		g.t.Fatalf("failed to marshal actual value: %v", err)
	}

	g.Assert(string(data))
}

// Quests dir helpers

// WriteTasksFile writes tasks to a tasks.jsonl file in the given directory
// and returns the path.
func WriteTasksFile(t *testing.T, dir string, tasks []model.Task) string {
	t.Helper()

	path := filepath.Join(dir, "tasks.jsonl")
	content := ToJSONL(tasks)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write tasks file: %v", err)
	}
	return path
}

// WriteTasksJSON writes tasks as a single JSON array to a tasks.json file
// in the given directory and returns the path.
func WriteTasksJSON(t *testing.T, dir string, tasks []model.Task) string {
	t.Helper()

	path := filepath.Join(dir, "tasks.json")
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal tasks: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write tasks file: %v", err)
	}
	return path
}

// WriteTasksAt writes tasks in JSONL form to a custom path.
func WriteTasksAt(t *testing.T, path string, tasks []model.Task) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}

	content := ToJSONL(tasks)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write tasks file: %v", err)
	}
}

// TaskMap helpers

// BuildTaskMap creates a map from ID to Task for quick lookups.
func BuildTaskMap(tasks []model.Task) map[string]*model.Task {
	m := make(map[string]*model.Task, len(tasks))
	for i := range tasks {
		m[tasks[i].ID] = &tasks[i]
	}
	return m
}

// FindTask returns the task with the given ID, or nil if not found.
func FindTask(tasks []model.Task, id string) *model.Task {
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i]
		}
	}
	return nil
}

// CountByTrader returns a map of trader name -> task count.
func CountByTrader(tasks []model.Task) map[string]int {
	counts := make(map[string]int)
	for _, task := range tasks {
		counts[task.Trader.Name]++
	}
	return counts
}

// CountByRewardKind returns a map of reward kind -> reward count across all tasks.
func CountByRewardKind(tasks []model.Task) map[model.RewardKind]int {
	counts := make(map[model.RewardKind]int)
	for _, task := range tasks {
		for _, r := range task.Rewards {
			counts[r.Kind]++
		}
	}
	return counts
}

// GetIDs returns a slice of all task IDs.
func GetIDs(tasks []model.Task) []string {
	ids := make([]string, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	return ids
}

// TaskID generates a standard test task ID with the given index.
// Format: "test-{index}" for consistency across tests.
func TaskID(index int) string {
	return fmt.Sprintf("test-%d", index)
}
