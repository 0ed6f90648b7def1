// Package mutator implements the File Mutator (C3): building the edit
// tool's invocation, running it under a PTY with a timeout, and
// classifying its streamed output into a domain.MutationResult.
// Grounded on internal/engine/engine.go's invokeAgent and
// original_source/agents/aider/output_parser.py.
package mutator

import (
	"context"
	"time"

	"github.com/loomwork/loomwork/internal/domain"
)

// Params bundles everything one mutation cycle needs beyond the
// Request fields that shape the tool's argument vector.
type Params struct {
	Request
	Workspace string
	Timeout   time.Duration
}

// Mutate runs one edit-tool invocation to completion (or until
// Timeout elapses) and returns the classified result. The returned
// error is non-nil only for infrastructure failures (PTY allocation,
// process start) or a timeout; a non-zero exit code or parsed error
// lines are reported through the MutationResult instead, matching
// spec.md §3's "exit_code == 0, no errors ... recorded" success rule
// rather than a Go error.
func Mutate(ctx context.Context, p Params) (*domain.MutationResult, error) {
	if p.Timeout <= 0 {
		return nil, domain.ErrTimeout
	}

	result := domain.NewMutationResult()
	args := BuildArgs(p.Request)

	err := runTool(ctx, p.ToolPath, p.Workspace, args, p.Agent, p.Timeout, result)
	if err != nil {
		return result, err
	}
	return result, nil
}
