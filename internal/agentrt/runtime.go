// Package agentrt implements the Agent runtime (C6): one logical
// execution per agent per cycle — pre-flight, should-run gate, prompt
// assembly, tool invocation, outcome handling, cleanup (spec.md §4.6).
// Grounded on original_source/managers/agent_runner.py's main
// asyncio loop, re-expressed as an explicit Cycle/Runtime pair per the
// "dynamic dispatch via string role names" re-architecture note
// (spec.md §9): the agent's Kind selects file-mutator vs research
// backend as data, not subclassed behaviour.
package agentrt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/loomwork/loomwork/internal/chatlog"
	"github.com/loomwork/loomwork/internal/dataset"
	"github.com/loomwork/loomwork/internal/domain"
	"github.com/loomwork/loomwork/internal/logx"
	"github.com/loomwork/loomwork/internal/mapservice"
	"github.com/loomwork/loomwork/internal/mutator"
	"github.com/loomwork/loomwork/internal/pathresolve"
	"github.com/loomwork/loomwork/internal/ratelimit"
)

// RecoveryMaxAttempts is the error-count threshold that triggers
// recovery (spec.md §7 default: RECOVERY_MAX_ATTEMPTS = 3).
const RecoveryMaxAttempts = 3

// DefaultToolTimeout is the default child-process timeout (spec.md §5:
// "child process — 300 s default").
const DefaultToolTimeout = 300 * time.Second

// Deps bundles the collaborators one Runtime needs, all constructed
// once by the Engine context in dependency order (spec.md §9: "no
// global mutable singletons").
type Deps struct {
	Workspace   string
	TeamDir     string
	Resolver    *pathresolve.Resolver
	Limiter     *ratelimit.Limiter
	MapSvc      *mapservice.Service
	Recorder    *dataset.Recorder
	Chat        *chatlog.Chat
	CommitLog   *chatlog.CommitLog
	Research    *ResearchClient
	Log         *logx.Logger
	ToolPath    string
	Model       string
	ToolTimeout time.Duration
	// Prompts is shared across every cycle of every agent dispatched by
	// the same Engine, since a Runtime is rebuilt fresh on each
	// dispatch (see scheduler.RuntimeFactory). If nil, New falls back
	// to a private cache scoped to this one Runtime.
	Prompts *PromptCache
}

// Runtime executes cycles for one agent.
type Runtime struct {
	deps   Deps
	agent  *domain.Agent
	prompt *PromptCache
}

// New constructs a Runtime for agent using deps.
func New(deps Deps, agent *domain.Agent) *Runtime {
	if deps.ToolTimeout <= 0 {
		deps.ToolTimeout = DefaultToolTimeout
	}
	prompt := deps.Prompts
	if prompt == nil {
		prompt = NewPromptCache()
	}
	return &Runtime{deps: deps, agent: agent, prompt: prompt}
}

// CycleOutcome summarises what happened during one RunCycle call, used
// by the Scheduler's status() output (spec.md §7).
type CycleOutcome struct {
	Ran      bool
	Mutation *domain.MutationResult
	Err      error
	Fatal    bool
}

// RunCycle executes spec.md §4.6's six steps for one agent. Only fatal
// errors (workspace missing, unwritable) set CycleOutcome.Fatal;
// everything else is absorbed into the agent's counters, with the
// cycle's error, if any, in CycleOutcome.Err (spec.md §7 propagation
// policy).
func (r *Runtime) RunCycle(ctx context.Context) CycleOutcome {
	// 1. Pre-flight.
	if err := checkWorkspace(r.deps.Workspace); err != nil {
		return CycleOutcome{Fatal: true, Err: err}
	}

	// 2. Should-run gate is the caller's responsibility (the Scheduler
	// checks Agent.ShouldRun before dispatching a slot); RunCycle always
	// executes one cycle once invoked.

	promptContent, err := r.prompt.Load(r.agent.PromptPath)
	if err != nil {
		r.deps.Log.Warning("agent %s: prompt unreadable, skipping cycle: %v", r.agent.Name, err)
		return CycleOutcome{Ran: false, Err: domain.ErrPromptUnreadable}
	}

	files, err := r.deps.Resolver.Enumerate(pathresolve.TrackedExtensions)
	if err != nil {
		r.deps.Log.Warning("agent %s: enumerate failed: %v", r.agent.Name, err)
	}

	now := time.Now()

	if r.agent.Kind == domain.KindResearch {
		return r.runResearch(ctx, promptContent, now)
	}
	return r.runEdit(ctx, promptContent, files, now)
}

func (r *Runtime) runResearch(ctx context.Context, prompt string, now time.Time) CycleOutcome {
	if r.deps.Research == nil {
		r.agent.RecordError(now)
		return CycleOutcome{Ran: true, Err: fmt.Errorf("agent %s is research-kind but no research backend is configured", r.agent.Name)}
	}

	response, err := r.deps.Research.Query(ctx, prompt)
	if err != nil {
		count := r.agent.RecordError(now)
		r.maybeRecover(count)
		return CycleOutcome{Ran: true, Err: err}
	}

	r.agent.RecordSuccess(now)
	if cerr := r.deps.Chat.Append(r.agent.Name, prompt, response); cerr != nil {
		r.deps.Log.Warning("agent %s: chat log append failed: %v", r.agent.Name, cerr)
	}
	if derr := r.deps.Recorder.Append(r.agent.Name, prompt, prompt, response, nil); derr != nil {
		r.deps.Log.Warning("agent %s: dataset append failed: %v", r.agent.Name, derr)
	}
	return CycleOutcome{Ran: true}
}

func (r *Runtime) runEdit(ctx context.Context, prompt string, editableFiles []string, now time.Time) CycleOutcome {
	if !r.deps.Limiter.Allow() {
		wait := r.deps.Limiter.WaitTime()
		r.deps.Log.Debug("agent %s: rate limiter full, waiting %s", r.agent.Name, wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return CycleOutcome{Ran: false}
		}
	}

	req := mutator.Request{
		Model:         r.deps.Model,
		ToolPath:      r.deps.ToolPath,
		Agent:         r.agent.Name,
		Prompt:        prompt,
		EditableFiles: editableFiles,
		TeamDir:       r.deps.TeamDir,
		HistoryDir:    filepath.Join(r.deps.TeamDir, "history"),
	}

	var result *domain.MutationResult
	retryErr := ratelimit.RetryRateLimited(ctx, sleepWithContext(ctx),
		func(err error) bool { return errors.Is(err, domain.ErrRateLimited) },
		func(attempt int) error {
			var mutateErr error
			result, mutateErr = mutator.Mutate(ctx, mutator.Params{
				Request:   req,
				Workspace: r.deps.Workspace,
				Timeout:   r.deps.ToolTimeout,
			})
			r.deps.Limiter.Record()
			if mutateErr != nil {
				return mutateErr
			}
			if mutator.RateLimited(result) {
				return domain.ErrRateLimited
			}
			return nil
		})

	if retryErr != nil {
		// Either an infrastructure error, or the 429 ladder exhausted
		// after 5 attempts — that failure is permanent for the cycle
		// but not fatal for the agent (spec.md §4.2).
		count := r.agent.RecordError(now)
		r.maybeRecover(count)
		return CycleOutcome{Ran: true, Mutation: result, Err: retryErr}
	}

	if !result.Successful() {
		if len(result.Errors) > 0 || result.ExitCode != 0 {
			count := r.agent.RecordError(now)
			r.maybeRecover(count)
			return CycleOutcome{Ran: true, Mutation: result}
		}
		r.agent.RecordNoChange(now)
		return CycleOutcome{Ran: true, Mutation: result}
	}

	// 5. Outcome handling — success path.
	r.agent.RecordSuccess(now)

	if _, mapErr := r.deps.MapSvc.UpdateEntry(result); mapErr != nil {
		r.deps.Log.Warning("agent %s: map update failed: %v", r.agent.Name, mapErr)
	}

	paths := result.AllPaths()
	if derr := r.deps.Recorder.Append(r.agent.Name, prompt, prompt, result.RawOutput, paths); derr != nil {
		r.deps.Log.Warning("agent %s: dataset append failed: %v", r.agent.Name, derr)
	}
	if cerr := r.deps.Chat.Append(r.agent.Name, prompt, result.RawOutput); cerr != nil {
		r.deps.Log.Warning("agent %s: chat log append failed: %v", r.agent.Name, cerr)
	}
	r.deps.CommitLog.AppendAll(result, r.deps.Log)

	return CycleOutcome{Ran: true, Mutation: result}
}

// sleepWithContext returns a sleep function that returns early if ctx
// is cancelled, used by the 429 retry ladder so a shutdown doesn't get
// stuck waiting out a 405 s back-off.
func sleepWithContext(ctx context.Context) func(time.Duration) {
	return func(d time.Duration) {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	}
}

// checkWorkspace fails with ErrWorkspaceMissing unless path is an
// existing, writable directory.
func checkWorkspace(path string) error {
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", domain.ErrWorkspaceMissing, path)
	}
	if err := unix.Access(path, unix.W_OK); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWorkspaceMissing, err)
	}
	return nil
}

// maybeRecover implements spec.md §7's recovery procedure once
// errorCount reaches RecoveryMaxAttempts: re-validate the workspace,
// reload the prompt, rebuild the file list, reset counters. If any
// step fails the counters are left as they are and the agent stays
// eligible for selection; recovery is attempted again after its next
// failed cycle. Agents have no dormant state.
func (r *Runtime) maybeRecover(errorCount uint) {
	if errorCount < RecoveryMaxAttempts {
		return
	}

	if err := checkWorkspace(r.deps.Workspace); err != nil {
		r.deps.Log.Critical("agent %s: recovery failed re-validating workspace: %v", r.agent.Name, err)
		return
	}
	if _, err := readWithFallback(r.agent.PromptPath); err != nil {
		r.deps.Log.Critical("agent %s: recovery failed reloading prompt: %v", r.agent.Name, err)
		return
	}
	if _, err := r.deps.Resolver.Enumerate(pathresolve.TrackedExtensions); err != nil {
		r.deps.Log.Critical("agent %s: recovery failed rebuilding file list: %v", r.agent.Name, err)
		return
	}

	r.agent.ResetCounters()
	r.deps.Log.Info("agent %s: recovered after %d consecutive errors", r.agent.Name, errorCount)
}
