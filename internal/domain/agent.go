package domain

import (
	"fmt"
	"math"
	"regexp"
	"sync"
	"time"
)

// AgentKind distinguishes edit agents (drive the file mutator) from
// research agents (query the research backend instead).
type AgentKind string

const (
	KindEdit     AgentKind = "edit"
	KindResearch AgentKind = "research"
)

// MinInterval is the minimum permitted check_interval for any agent.
const MinInterval = 60 * time.Second

var agentNamePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Agent is the immutable descriptor plus mutable runtime state of one
// scheduler-managed unit of work (spec.md §3 "Agent").
type Agent struct {
	Name          string
	Role          string
	PromptPath    string
	Kind          AgentKind
	CheckInterval time.Duration

	mu                   sync.Mutex
	running              bool
	lastRun              time.Time
	lastChange           time.Time
	consecutiveNoChanges uint
	errorCount           uint
}

// NewAgent validates and constructs an Agent descriptor.
func NewAgent(name, role, promptPath string, kind AgentKind, checkInterval time.Duration) (*Agent, error) {
	if !agentNamePattern.MatchString(name) {
		return nil, fmt.Errorf("invalid agent name %q: must match [a-z0-9_-]+", name)
	}
	if kind != KindEdit && kind != KindResearch {
		return nil, fmt.Errorf("invalid agent kind %q", kind)
	}
	if checkInterval < MinInterval {
		return nil, fmt.Errorf("check_interval %s below minimum %s", checkInterval, MinInterval)
	}
	return &Agent{
		Name:          name,
		Role:          role,
		PromptPath:    promptPath,
		Kind:          kind,
		CheckInterval: checkInterval,
	}, nil
}

// Snapshot is an immutable copy of an Agent's mutable state, used for
// the Scheduler's status() output and for recovery (§7).
type Snapshot struct {
	Name                 string
	Running              bool
	LastRun              time.Time
	LastChange           time.Time
	ConsecutiveNoChanges uint
	ErrorCount           uint
	CurrentInterval      time.Duration
}

// Snapshot returns a point-in-time copy of the agent's mutable state.
func (a *Agent) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		Name:                 a.Name,
		Running:              a.running,
		LastRun:              a.lastRun,
		LastChange:           a.lastChange,
		ConsecutiveNoChanges: a.consecutiveNoChanges,
		ErrorCount:           a.errorCount,
		CurrentInterval:      a.dynamicIntervalLocked(),
	}
}

// SetRunning marks the agent as currently executing a cycle (or not).
func (a *Agent) SetRunning(running bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = running
}

// IsRunning reports whether a worker currently holds this agent.
func (a *Agent) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// RecordSuccess updates state after a cycle that modified at least one
// file or produced a commit: resets both counters and advances
// last_run/last_change (invariant: consecutive_no_changes resets to 0
// on any run that produced >= 1 modified file).
func (a *Agent) RecordSuccess(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastRun = now
	a.lastChange = now
	a.consecutiveNoChanges = 0
	a.errorCount = 0
}

// RecordNoChange updates state after a cycle that completed without
// error but changed nothing.
func (a *Agent) RecordNoChange(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastRun = now
	a.consecutiveNoChanges++
}

// RecordError updates state after a failed cycle and returns the new
// error count, so the caller can decide whether to trigger recovery.
func (a *Agent) RecordError(now time.Time) uint {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastRun = now
	a.errorCount++
	return a.errorCount
}

// ResetCounters clears both counters, used by the recovery procedure
// (spec.md §7) after a successful re-validation.
func (a *Agent) ResetCounters() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.consecutiveNoChanges = 0
	a.errorCount = 0
}

// LastRun returns the last time this agent executed a cycle.
func (a *Agent) LastRun() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastRun
}

// DynamicInterval implements spec.md §4.6 step 3: base interval scaled
// by consecutive-no-change and error multipliers, clamped to [60s, 3600s].
func (a *Agent) DynamicInterval() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dynamicIntervalLocked()
}

func (a *Agent) dynamicIntervalLocked() time.Duration {
	const (
		min = 60 * time.Second
		max = 3600 * time.Second
	)
	base := a.CheckInterval
	mult := 1.0
	if a.consecutiveNoChanges > 0 {
		n := a.consecutiveNoChanges
		if n > 5 {
			n = 5
		}
		mult = math.Min(10, math.Pow(1.5, float64(n)))
	}
	if a.errorCount > 0 {
		mult *= 1.5
	}
	interval := time.Duration(float64(base) * mult)
	if interval < min {
		return min
	}
	if interval > max {
		return max
	}
	return interval
}

// ShouldRun reports whether enough time has elapsed since the last run
// to start a new cycle (spec.md §4.6 step 2).
func (a *Agent) ShouldRun(now time.Time) bool {
	a.mu.Lock()
	last := a.lastRun
	interval := a.dynamicIntervalLocked()
	a.mu.Unlock()
	if last.IsZero() {
		return true
	}
	return now.Sub(last) >= interval
}
