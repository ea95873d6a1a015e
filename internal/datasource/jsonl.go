package datasource

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/questwork/pkg/metrics"
	"github.com/vanderheijden86/questwork/pkg/model"
)

// maxLineSize bounds a single JSONL record. Task records with full
// objective and reward lists run a few KB; 10MB covers any real dump.
const maxLineSize = 10 * 1024 * 1024

// approxRecordSize seeds the capacity estimate for the result slice.
const approxRecordSize = 512

// WarnFunc receives recoverable load problems: the 1-based line number
// (0 when not line-scoped) and the error.
type WarnFunc func(line int, err error)

// defaultWarn prints to stderr unless robot mode wants machine-clean output.
func defaultWarn(line int, err error) {
	if os.Getenv("QW_ROBOT") == "1" {
		return
	}
	if line > 0 {
		fmt.Fprintf(os.Stderr, "warning: line %d: %v\n", line, err)
		return
	}
	fmt.Fprintf(os.Stderr, "warning: %v\n", err)
}

// LoadTasksFromJSONL reads one task per line from path. Lines that fail to
// parse are reported through warn (stderr by default) and skipped; the file
// as a whole only errors when it cannot be opened or scanned.
func LoadTasksFromJSONL(path string, warn WarnFunc) ([]model.Task, error) {
	defer metrics.Timer(metrics.SourceLoad)()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open tasks file: %w", err)
	}
	defer f.Close()

	var sizeHint int64
	if info, err := f.Stat(); err == nil {
		sizeHint = info.Size()
	}

	return readTasksJSONL(f, sizeHint, warn)
}

// readTasksJSONL scans r line by line. The first line may carry a UTF-8 BOM.
func readTasksJSONL(r io.Reader, sizeHint int64, warn WarnFunc) ([]model.Task, error) {
	if warn == nil {
		warn = defaultWarn
	}

	capHint := int(sizeHint / approxRecordSize)
	if capHint < 16 {
		capHint = 16
	}
	tasks := make([]model.Task, 0, capHint)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	stop := metrics.Timer(metrics.JSONParsing)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if lineNo == 1 {
			line = bytes.TrimPrefix(line, []byte{0xEF, 0xBB, 0xBF})
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var task model.Task
		if err := json.Unmarshal(line, &task); err != nil {
			warn(lineNo, fmt.Errorf("malformed task record: %w", err))
			continue
		}
		tasks = append(tasks, task)
	}
	stop()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed reading tasks: %w", err)
	}

	return tasks, nil
}
