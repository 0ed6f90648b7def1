package agentrt

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func TestReadWithFallbackUTF8(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	if err := os.WriteFile(path, []byte("plain ascii text"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := readWithFallback(path)
	if err != nil || got != "plain ascii text" {
		t.Fatalf("readWithFallback() = (%q, %v)", got, err)
	}
}

func TestReadWithFallbackLatin1(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")

	original := "café menu €" // contains non-ASCII
	encoded, err := charmap.ISO8859_1.NewEncoder().String(original)
	if err != nil {
		// The euro sign isn't representable in Latin-1; fall back to a
		// string that is.
		original = "café menu"
		encoded, err = charmap.ISO8859_1.NewEncoder().String(original)
		if err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(path, []byte(encoded), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := readWithFallback(path)
	if err != nil {
		t.Fatalf("readWithFallback() error: %v", err)
	}
	if got != original {
		t.Fatalf("readWithFallback() = %q, want %q", got, original)
	}
}
