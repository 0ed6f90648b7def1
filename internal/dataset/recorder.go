// Package dataset implements the Dataset recorder (C5): append-only
// JSONL persistence of every successful agent interaction for later
// fine-tuning, plus the hourly dedup housekeeping pass. Grounded on
// spec.md §4.5's contract; the advisory-lock-then-flush-then-fsync
// shape follows internal/fsguard, itself grounded on the teacher's
// single-host POSIX assumption.
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/loomwork/loomwork/internal/domain"
	"github.com/loomwork/loomwork/internal/fsguard"
)

const relativeDatasetPath = "data/fine-tuning.jsonl"

// Recorder appends DatasetRecords to one workspace's fine-tuning file.
type Recorder struct {
	path string
}

// New returns a Recorder writing to <workspace>/data/fine-tuning.jsonl.
func New(workspace string) *Recorder {
	return &Recorder{path: filepath.Join(workspace, relativeDatasetPath)}
}

// Append persists one interaction as a DatasetRecord (spec.md §4.5:
// "append(agent, prompt, files_context, response) → ok"). context is
// stored as the user message exactly as given, since the wire record
// holds a single user-message string, not a path→content map. The
// agent runtime passes the prompt text as context; file contents are
// not included in the record.
func (r *Recorder) Append(agent, prompt, context, response string, files []string) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("ensuring dataset dir: %w", err)
	}

	record := domain.NewDatasetRecord(time.Now(), prompt, context, response, agent, files)
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshalling dataset record: %w", err)
	}
	line = append(line, '\n')

	return fsguard.AppendLocked(r.path, func(f *os.File) error {
		_, werr := f.Write(line)
		return werr
	})
}

// Load reads every well-formed record currently on disk, skipping and
// counting malformed lines (JSON parse failures) without rewriting
// them — the file is append-only (spec.md §4.5).
func (r *Recorder) Load() (records []domain.DatasetRecord, malformed int, err error) {
	f, err := os.Open(r.path)
	if os.IsNotExist(err) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec domain.DatasetRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			malformed++
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, malformed, fmt.Errorf("reading dataset: %w", err)
	}
	return records, malformed, nil
}
