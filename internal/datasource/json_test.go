package datasource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/questwork/pkg/testutil"
)

func TestLoadTasksFromJSONArray(t *testing.T) {
	dir := t.TempDir()
	tasks := testutil.QuickStar(3)
	path := testutil.WriteTasksJSON(t, dir, tasks)

	got, err := LoadTasksFromJSON(path)
	if err != nil {
		t.Fatalf("LoadTasksFromJSON failed: %v", err)
	}
	if len(got) != len(tasks) {
		t.Fatalf("expected %d tasks, got %d", len(tasks), len(got))
	}
	for i := range tasks {
		if got[i].ID != tasks[i].ID {
			t.Errorf("task %d ID = %s, want %s", i, got[i].ID, tasks[i].ID)
		}
	}
}

func TestLoadTasksFromJSONEnvelope(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")
	payload := `{"tasks":[{"taskId":"t-1","taskName":"First","trader":{"id":"tr","name":"Prapor"}}]}`
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadTasksFromJSON(path)
	if err != nil {
		t.Fatalf("LoadTasksFromJSON failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "t-1" {
		t.Fatalf("envelope not parsed, got %+v", got)
	}
}

func TestLoadTasksFromJSONStripsBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")
	payload := "\xEF\xBB\xBF[{\"taskId\":\"t-1\",\"taskName\":\"First\",\"trader\":{\"id\":\"tr\",\"name\":\"Prapor\"}}]"
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadTasksFromJSON(path)
	if err != nil {
		t.Fatalf("LoadTasksFromJSON failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 task, got %d", len(got))
	}
}

func TestLoadTasksFromJSONMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")
	if err := os.WriteFile(path, []byte("[{broken"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadTasksFromJSON(path); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestLoadTasksFromJSONEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadTasksFromJSON(path); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestLoadTasksFromJSONEnvelopeWithoutTasks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")
	if err := os.WriteFile(path, []byte(`{"data":{}}`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadTasksFromJSON(path); err == nil {
		t.Fatal("expected error for envelope without tasks array")
	}
}
