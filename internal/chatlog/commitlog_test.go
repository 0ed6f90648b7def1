package chatlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/loomwork/loomwork/internal/domain"
)

func TestCommitLogAppendWritesOneJSONLine(t *testing.T) {
	ws := t.TempDir()
	cl := NewCommitLog(ws)

	commit := domain.Commit{
		Hash:          "a1b2c3d",
		Type:          domain.CommitFix,
		Message:       "repair widget",
		Agent:         "coder",
		Timestamp:     time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
		ModifiedFiles: []string{"widget.go"},
	}
	if err := cl.Append(commit); err != nil {
		t.Fatalf("Append: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(ws, "logs", "commits.jsonl"))
	if err != nil {
		t.Fatalf("expected commit log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}

	var rec commitRecord
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("invalid JSON line: %v", err)
	}
	if rec.Hash != "a1b2c3d" || rec.Type != "fix" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}
