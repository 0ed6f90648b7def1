package scheduler

import (
	"sync"

	"github.com/loomwork/loomwork/internal/domain"
)

// PhaseService tracks cumulative token usage across the active team
// and derives the current Phase from it (spec.md §4.7 "Phase gating",
// grounded on original_source/services/phase_service.py). It satisfies
// the Scheduler's PhaseSource interface.
type PhaseService struct {
	mu         sync.Mutex
	thresholds domain.PhaseThresholds
	current    domain.Phase
	total      int
}

// NewPhaseService starts in PhaseExpansion, matching
// phase_service.py's initial state.
func NewPhaseService(thresholds domain.PhaseThresholds) *PhaseService {
	return &PhaseService{
		thresholds: thresholds,
		current:    domain.PhaseExpansion,
	}
}

// RecordTokens adds n tokens to the running total and re-derives the
// current phase, applying the hysteresis in
// domain.PhaseThresholds.Determine.
func (p *PhaseService) RecordTokens(n int) {
	if n <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total += n
	p.current = p.thresholds.Determine(p.current, p.total)
}

// CurrentPhase implements scheduler.PhaseSource.
func (p *PhaseService) CurrentPhase() domain.Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// TotalTokens reports the cumulative count recorded so far.
func (p *PhaseService) TotalTokens() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

// StatusIcon reports the usage traffic-light for the current total.
func (p *PhaseService) StatusIcon() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.thresholds.StatusIcon(p.total)
}

// Reset zeroes the cumulative count and returns to PhaseExpansion,
// used when activating a new team (spec.md §3).
func (p *PhaseService) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = 0
	p.current = domain.PhaseExpansion
}
