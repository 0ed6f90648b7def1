package chatlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/loomwork/loomwork/internal/domain"
	"github.com/loomwork/loomwork/internal/fsguard"
	"github.com/loomwork/loomwork/internal/logx"
)

// CommitLog appends one JSON object per parsed commit to
// logs/commits.jsonl (spec.md §4.8). Across workers, entries interleave
// arbitrarily (spec.md §5): ordering within a single MutationResult is
// preserved by the caller iterating result.Commits in order.
type CommitLog struct {
	path string
}

// NewCommitLog returns a CommitLog writing to <workspace>/logs/commits.jsonl.
func NewCommitLog(workspace string) *CommitLog {
	return &CommitLog{path: filepath.Join(workspace, "logs", "commits.jsonl")}
}

type commitRecord struct {
	Hash          string   `json:"hash"`
	Type          string   `json:"type"`
	Message       string   `json:"message"`
	Agent         string   `json:"agent"`
	Timestamp     string   `json:"timestamp"`
	ModifiedFiles []string `json:"modified_files"`
}

// Append persists one commit. Failures are logged at WARN by the
// caller and never fail the enclosing cycle (spec.md §4.8).
func (c *CommitLog) Append(commit domain.Commit) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("ensuring commit log dir: %w", err)
	}

	rec := commitRecord{
		Hash:          commit.Hash,
		Type:          string(commit.Type),
		Message:       commit.Message,
		Agent:         commit.Agent,
		Timestamp:     commit.Timestamp.UTC().Format("2006-01-02T15:04:05Z07:00"),
		ModifiedFiles: commit.ModifiedFiles,
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshalling commit record: %w", err)
	}
	line = append(line, '\n')

	return fsguard.AppendLocked(c.path, func(f *os.File) error {
		_, werr := f.Write(line)
		return werr
	})
}

// AppendAll appends every commit in result in order, logging (but not
// returning) any per-commit failure at WARN, matching the best-effort
// contract of spec.md §4.8.
func (c *CommitLog) AppendAll(result *domain.MutationResult, log *logx.Logger) {
	for _, commit := range result.Commits {
		if err := c.Append(commit); err != nil {
			log.Warning("commit log append failed for %s: %v", commit.Hash, err)
		}
	}
}
