package mutator

import (
	"strings"
	"testing"
	"time"

	"github.com/loomwork/loomwork/internal/domain"
)

func withFixedClock(t *testing.T, ts time.Time) {
	t.Helper()
	old := nowFunc
	nowFunc = func() time.Time { return ts }
	t.Cleanup(func() { nowFunc = old })
}

func TestStreamParseClassifiesFileLines(t *testing.T) {
	input := "Wrote internal/foo.go\nCreated internal/bar.go\nDeleted internal/old.go\n"
	result := domain.NewMutationResult()
	StreamParse(strings.NewReader(input), "coder", result)

	if !result.ModifiedFiles["internal/foo.go"] {
		t.Error("expected internal/foo.go in ModifiedFiles")
	}
	if !result.AddedFiles["internal/bar.go"] {
		t.Error("expected internal/bar.go in AddedFiles")
	}
	if !result.DeletedFiles["internal/old.go"] {
		t.Error("expected internal/old.go in DeletedFiles")
	}
}

func TestStreamParseCommitLine(t *testing.T) {
	withFixedClock(t, time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC))
	input := "Wrote internal/foo.go\nCommit a1b2c3d feat: add new widget\n"
	result := domain.NewMutationResult()
	StreamParse(strings.NewReader(input), "coder", result)

	if len(result.Commits) != 1 {
		t.Fatalf("expected 1 commit, got %d", len(result.Commits))
	}
	c := result.Commits[0]
	if c.Hash != "a1b2c3d" || c.Type != domain.CommitFeat || c.Message != "add new widget" {
		t.Fatalf("unexpected commit: %+v", c)
	}
	if len(c.ModifiedFiles) != 1 || c.ModifiedFiles[0] != "internal/foo.go" {
		t.Fatalf("expected commit to reference internal/foo.go, got %v", c.ModifiedFiles)
	}
}

func TestStreamParseMultilineCommitReassembly(t *testing.T) {
	input := "Commit a1b2c3d fix: repair the\nparser for edge cases\nWrote internal/parser.go\n"
	result := domain.NewMutationResult()
	StreamParse(strings.NewReader(input), "coder", result)

	if len(result.Commits) != 1 {
		t.Fatalf("expected 1 commit, got %d", len(result.Commits))
	}
	if result.Commits[0].Message != "repair the parser for edge cases" {
		t.Fatalf("unexpected reassembled message: %q", result.Commits[0].Message)
	}
}

func TestStreamParseIgnoresKnownNoise(t *testing.T) {
	input := "Error checking pypi for new version\n[Errno 22] Invalid argument\nSee documentation: https://example.com\nreal error: disk full\n"
	result := domain.NewMutationResult()
	StreamParse(strings.NewReader(input), "coder", result)

	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "disk full") {
		t.Fatalf("expected only the real error line, got %v", result.Errors)
	}
}

func TestStreamParseTieBreakPrefersAdded(t *testing.T) {
	input := "Wrote internal/new.go\nCreated internal/new.go\n"
	result := domain.NewMutationResult()
	StreamParse(strings.NewReader(input), "coder", result)

	if result.ModifiedFiles["internal/new.go"] {
		t.Error("expected internal/new.go removed from ModifiedFiles once also Added")
	}
	if !result.AddedFiles["internal/new.go"] {
		t.Error("expected internal/new.go in AddedFiles")
	}
}
