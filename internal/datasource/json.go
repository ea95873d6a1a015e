package datasource

import (
	"bytes"
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/questwork/pkg/metrics"
	"github.com/vanderheijden86/questwork/pkg/model"
)

// LoadTasksFromJSON reads a whole-file JSON dump. Two shapes are accepted:
// a bare array of task records, or the upstream API envelope
// {"tasks": [...]}. A single bad record fails the whole file; partial
// tolerance is the JSONL format's job.
func LoadTasksFromJSON(path string) ([]model.Task, error) {
	defer metrics.Timer(metrics.SourceLoad)()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read tasks file: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	stop := metrics.Timer(metrics.JSONParsing)
	defer stop()

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("tasks file is empty: %s", path)
	}

	if trimmed[0] == '[' {
		var tasks []model.Task
		if err := json.Unmarshal(trimmed, &tasks); err != nil {
			return nil, fmt.Errorf("malformed task array: %w", err)
		}
		return tasks, nil
	}

	var envelope struct {
		Tasks []model.Task `json:"tasks"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("malformed task envelope: %w", err)
	}
	if envelope.Tasks == nil {
		return nil, fmt.Errorf("task envelope has no tasks array: %s", path)
	}
	return envelope.Tasks, nil
}
