package mutator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/creack/pty"

	"github.com/loomwork/loomwork/internal/domain"
)

// drainGrace is the extra time given to the PTY reader to flush
// buffered output after the child is killed on timeout (spec.md §4.3
// step 3: "a short grace period to drain remaining buffered output").
const drainGrace = 5 * time.Second

// runTool starts the edit tool in workspace, allocates a PTY for its
// combined stdout/stderr so output stays line-buffered (grounded on
// internal/engine/engine.go's invokeAgent), and streams that output
// through StreamParse into result. The tool runs in its own process
// group; if timeout elapses or ctx is cancelled the whole group is
// killed, and on timeout the result's ExitCode reflects it.
func runTool(ctx context.Context, toolPath, workspace string, args []string, agent string, timeout time.Duration, result *domain.MutationResult) error {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, toolPath, args...)
	cmd.Dir = workspace
	cmd.Env = append(os.Environ(), "PYTHONIOENCODING=UTF-8")
	// Kill the whole process group so grandchildren holding the PTY
	// open die with the tool.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error { return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL) }

	ptmx, pts, err := pty.Open()
	if err != nil {
		return fmt.Errorf("opening pty: %w", err)
	}
	defer ptmx.Close()

	cmd.Stdout = pts
	cmd.Stderr = pts
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		pts.Close()
		return fmt.Errorf("starting edit tool: %w", err)
	}
	pts.Close()

	done := make(chan struct{})
	go func() {
		StreamParse(ptmx, agent, result)
		close(done)
	}()

	waitErr := cmd.Wait()

	select {
	case <-done:
	case <-time.After(drainGrace):
		// StreamParse is still reading; force it to unblock and wait
		// for it to actually return before touching result below, so
		// the writes here never race with StreamParse's.
		ptmx.Close()
		<-done
	}

	if cctx.Err() == context.DeadlineExceeded {
		result.ExitCode = -1
		result.Errors = append(result.Errors, "edit tool timed out after "+timeout.String())
		return domain.ErrTimeout
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return nil
		}
		var pathErr *os.PathError
		if errors.As(waitErr, &pathErr) && pathErr.Err == syscall.EIO {
			result.ExitCode = 0
			return nil
		}
		return fmt.Errorf("waiting for edit tool: %w", waitErr)
	}

	result.ExitCode = 0
	return nil
}
