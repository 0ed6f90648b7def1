package mapservice

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loomwork/loomwork/internal/domain"
	"github.com/loomwork/loomwork/internal/pathresolve"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	ws := t.TempDir()
	if err := os.WriteFile(filepath.Join(ws, "readme.md"), []byte("hello world this is a readme"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(ws, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	resolver, err := pathresolve.New(ws)
	if err != nil {
		t.Fatal(err)
	}
	teamDir := filepath.Join(ws, "team")
	return New(teamDir, resolver), teamDir
}

func TestRegenerateWritesMapFile(t *testing.T) {
	svc, teamDir := newTestService(t)
	ok, err := svc.Regenerate()
	if err != nil || !ok {
		t.Fatalf("Regenerate() = (%v, %v)", ok, err)
	}

	data, err := os.ReadFile(filepath.Join(teamDir, mapFileName))
	if err != nil {
		t.Fatalf("map.md not written: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "main.go") || !strings.Contains(content, "readme.md") {
		t.Fatalf("expected both files listed, got:\n%s", content)
	}
	if !strings.Contains(content, "# Project Map") {
		t.Fatal("expected header section")
	}
}

func TestUpdateEntryRemovesDeletedFiles(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Regenerate(); err != nil {
		t.Fatal(err)
	}

	result := domain.NewMutationResult()
	result.DeletedFiles["main.go"] = true
	if _, err := svc.UpdateEntry(result); err != nil {
		t.Fatal(err)
	}

	content := svc.Content()
	if strings.Contains(content, "main.go") {
		t.Fatalf("expected main.go removed from map, got:\n%s", content)
	}
}

func TestBuildEntryClassifiesWarningStatus(t *testing.T) {
	svc, _ := newTestService(t)
	svc.warnTokens = 2
	svc.errTokens = 100

	entry, err := svc.buildEntry("readme.md")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Status != domain.StatusWarning {
		t.Fatalf("expected warning status, got %v (tokens=%d)", entry.Status, entry.TokenEstimate)
	}
}
