package agentrt

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPromptCacheReloadsOnMtimeChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompt.md")
	if err := os.WriteFile(path, []byte("first"), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewPromptCache()
	got, err := c.Load(path)
	if err != nil || got != "first" {
		t.Fatalf("Load() = (%q, %v), want (\"first\", nil)", got, err)
	}

	// Touch mtime forward and change content.
	future := time.Now().Add(time.Second)
	if err := os.WriteFile(path, []byte("second"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	got, err = c.Load(path)
	if err != nil || got != "second" {
		t.Fatalf("Load() after change = (%q, %v), want (\"second\", nil)", got, err)
	}
}

func TestPromptCacheReturnsCachedContentWhenUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompt.md")
	if err := os.WriteFile(path, []byte("stable"), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewPromptCache()
	first, err := c.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if first != second || first != "stable" {
		t.Fatalf("expected stable cached content, got %q then %q", first, second)
	}
}

func TestPromptCacheMissingFileErrors(t *testing.T) {
	c := NewPromptCache()
	if _, err := c.Load(filepath.Join(t.TempDir(), "nope.md")); err == nil {
		t.Fatal("expected error for missing prompt file")
	}
}
