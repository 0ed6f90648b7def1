package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/loomwork/loomwork/internal/agentrt"
	"github.com/loomwork/loomwork/internal/domain"
	"github.com/loomwork/loomwork/internal/logx"
)

// DefaultConcurrency is the default worker pool size (spec.md §4.7).
const DefaultConcurrency = 10

// InitialStartDelay and ReplacementStartDelay stagger worker launches
// to avoid synchronised LLM request storms (spec.md §4.7).
const (
	InitialStartDelay     = 10 * time.Second
	ReplacementStartDelay = 3 * time.Second
)

// DefaultShutdownTimeout bounds how long shutdown waits for in-flight
// workers before force-terminating (spec.md §4.7).
const DefaultShutdownTimeout = 30 * time.Second

// RuntimeFactory builds the Runtime for one agent, deferred so the
// Scheduler does not need to know about agentrt.Deps construction.
type RuntimeFactory func(agent *domain.Agent) *agentrt.Runtime

// PhaseSource reports the scheduler's current gating phase; backed by
// the PhaseService (spec.md §4.7 "Phase gating").
type PhaseSource interface {
	CurrentPhase() domain.Phase
}

// AgentStatus is one row of Scheduler.Status(), the user-visible
// per-agent snapshot named in spec.md §7.
type AgentStatus struct {
	domain.Snapshot
	Healthy bool
}

// Scheduler runs a fixed-size worker pool over one active Team,
// enforcing the unique-instance guarantee via inFlightSet (spec.md
// §4.7).
type Scheduler struct {
	mu          sync.Mutex
	team        *domain.Team
	concurrency int
	phases      PhaseSource
	factory     RuntimeFactory
	log         *logx.Logger

	inFlight *inFlightSet
	wg       sync.WaitGroup
	cancel   context.CancelFunc
	running  bool
}

// New constructs a Scheduler. concurrency <= 0 uses DefaultConcurrency.
func New(concurrency int, phases PhaseSource, factory RuntimeFactory, log *logx.Logger) *Scheduler {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Scheduler{
		concurrency: concurrency,
		phases:      phases,
		factory:     factory,
		log:         log,
		inFlight:    newInFlightSet(),
	}
}

// ActivateTeam stops any currently-running team (spec.md §3: "Changing
// the active team stops every running agent first") and launches team.
func (s *Scheduler) ActivateTeam(team *domain.Team) {
	s.DeactivateTeam(DefaultShutdownTimeout)

	s.mu.Lock()
	s.team = team
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	for i := 0; i < s.concurrency; i++ {
		delay := time.Duration(i) * InitialStartDelay
		s.wg.Add(1)
		go s.launchWorker(ctx, delay)
	}
}

// launchWorker waits delay (staggered startup), then runs worker loops
// forever, restarting after ReplacementStartDelay whenever one
// completes or panics (spec.md §4.7 "Error isolation").
func (s *Scheduler) launchWorker(ctx context.Context, delay time.Duration) {
	defer s.wg.Done()

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return
	}

	for {
		if ctx.Err() != nil {
			return
		}
		s.runWorkerOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		select {
		case <-time.After(ReplacementStartDelay):
		case <-ctx.Done():
			return
		}
	}
}

// runWorkerOnce selects one agent, runs exactly one cycle, and returns
// — the outer loop in launchWorker handles replacement scheduling.
// Panics are recovered so one misbehaving agent cannot take down the
// worker pool (spec.md §4.7 "Error isolation").
func (s *Scheduler) runWorkerOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("worker panic recovered: %v", r)
		}
	}()

	candidates := s.eligibleAgents()
	agent := s.inFlight.Acquire(ctx, candidates)
	if agent == nil {
		return
	}
	defer s.inFlight.Release(agent.Name)

	if !agent.ShouldRun(time.Now()) {
		return
	}

	agent.SetRunning(true)
	defer agent.SetRunning(false)

	runtime := s.factory(agent)
	outcome := runtime.RunCycle(ctx)
	if outcome.Fatal {
		s.log.Critical("agent %s: fatal error, cycle abandoned: %v", agent.Name, outcome.Err)
	} else if outcome.Err != nil {
		s.log.Warning("agent %s: cycle error: %v", agent.Name, outcome.Err)
	}
}

// eligibleAgents returns the team's agents active in the current phase
// (spec.md §4.7 "Phase gating").
func (s *Scheduler) eligibleAgents() []*domain.Agent {
	s.mu.Lock()
	team := s.team
	s.mu.Unlock()
	if team == nil {
		return nil
	}
	if s.phases == nil {
		return team.Agents
	}
	return team.ActiveIn(s.phases.CurrentPhase())
}

// DeactivateTeam cancels all running workers and waits up to timeout
// before returning; it does not force-kill goroutines (Go has no such
// primitive) but the underlying child processes are terminated via
// context cancellation propagated into the file mutator (spec.md §4.7
// "Graceful shutdown").
func (s *Scheduler) DeactivateTeam(timeout time.Duration) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		s.log.Warning("shutdown timed out after %s waiting for workers", timeout)
	}
}

// Shutdown calls DeactivateTeam with timeout, falling back to
// DefaultShutdownTimeout when timeout <= 0, matching the spec's
// `shutdown(timeout=5s)`-style call shape (spec.md §8 scenario S6).
func (s *Scheduler) Shutdown(timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	s.DeactivateTeam(timeout)
}

// Status returns the per-agent snapshot the spec requires to be
// user-visible (spec.md §7): {running, healthy, last_run,
// consecutive_no_changes, error_count, current_interval}.
func (s *Scheduler) Status() []AgentStatus {
	s.mu.Lock()
	team := s.team
	s.mu.Unlock()
	if team == nil {
		return nil
	}

	out := make([]AgentStatus, 0, len(team.Agents))
	for _, a := range team.Agents {
		snap := a.Snapshot()
		out = append(out, AgentStatus{
			Snapshot: snap,
			Healthy:  snap.ErrorCount < agentrt.RecoveryMaxAttempts,
		})
	}
	return out
}

// InFlightCount reports how many agents currently hold a worker slot,
// exercised by tests verifying the concurrency cap (spec.md §8 S5).
func (s *Scheduler) InFlightCount() int {
	return s.inFlight.Len()
}
