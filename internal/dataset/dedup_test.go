package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDedupRemovesExactDuplicateLines(t *testing.T) {
	ws := t.TempDir()
	r := New(ws)

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		t.Fatal(err)
	}
	content := `{"a":1}
{"a":1}
{"a":2}
  {"a":1}
`
	if err := os.WriteFile(r.path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	removed, err := r.Dedup()
	if err != nil {
		t.Fatalf("Dedup: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 duplicates removed, got %d", removed)
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 remaining lines, got %d: %v", len(lines), lines)
	}
}

func TestDedupOnMissingFileIsNoop(t *testing.T) {
	ws := t.TempDir()
	r := New(ws)

	removed, err := r.Dedup()
	if err != nil {
		t.Fatalf("expected no error on missing file, got %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected 0 removed, got %d", removed)
	}
}
