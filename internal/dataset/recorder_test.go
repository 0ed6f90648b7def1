package dataset

import (
	"testing"
)

func TestAppendAndLoadRoundTrip(t *testing.T) {
	ws := t.TempDir()
	r := New(ws)

	if err := r.Append("coder", "do the thing", "context here", "done", []string{"a.go", "b.go"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := r.Append("coder", "do another thing", "more context", "done again", []string{"c.go"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, malformed, err := r.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if malformed != 0 {
		t.Fatalf("expected 0 malformed, got %d", malformed)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Metadata.Agent != "coder" || records[0].Metadata.NumFiles != 2 {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	if len(records[0].Messages) != 3 {
		t.Fatalf("expected 3 messages per record, got %d", len(records[0].Messages))
	}
}

func TestLoadOnMissingFileReturnsEmpty(t *testing.T) {
	ws := t.TempDir()
	r := New(ws)

	records, malformed, err := r.Load()
	if err != nil || malformed != 0 || len(records) != 0 {
		t.Fatalf("expected empty result on missing file, got (%v, %d, %v)", records, malformed, err)
	}
}
