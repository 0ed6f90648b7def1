// Package scheduler implements the Team/Scheduler (C7): the registry
// of active agents, the unique-instance guarantee, concurrency cap,
// staggered launch, replacement on completion, phase gating and
// graceful shutdown (spec.md §4.7). Grounded on
// original_source/managers/agent_runner.py's asyncio task pool, the
// closest analogue in the corpus to a cooperative worker pool with a
// "currently running" guard; re-expressed with a mutex-protected set
// polled on a short interval in place of asyncio locks — spec.md §4.7
// explicitly allows "bounded by 1 s polling or a condition variable",
// and polling composes far more simply with context cancellation than
// sync.Cond does.
package scheduler

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/loomwork/loomwork/internal/domain"
)

// selectionPollInterval bounds how often Acquire rechecks availability
// while every candidate is in-flight (spec.md §4.7 "Selection").
const selectionPollInterval = 1 * time.Second

// inFlightSet is the global, mutex-protected set of agent names
// currently held by a worker (spec.md §4.7 "Unique-instance").
type inFlightSet struct {
	mu      sync.Mutex
	current map[string]bool
}

func newInFlightSet() *inFlightSet {
	return &inFlightSet{current: make(map[string]bool)}
}

// Acquire blocks, polling at selectionPollInterval, until one of
// candidates is not in the set, then reserves it and returns it,
// selecting uniformly at random among the currently-free candidates.
// Returns nil if candidates is empty or ctx is cancelled while waiting.
func (s *inFlightSet) Acquire(ctx context.Context, candidates []*domain.Agent) *domain.Agent {
	if len(candidates) == 0 {
		return nil
	}

	ticker := time.NewTicker(selectionPollInterval)
	defer ticker.Stop()

	for {
		if chosen := s.tryAcquire(candidates); chosen != nil {
			return chosen
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *inFlightSet) tryAcquire(candidates []*domain.Agent) *domain.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()

	var free []*domain.Agent
	for _, a := range candidates {
		if !s.current[a.Name] {
			free = append(free, a)
		}
	}
	if len(free) == 0 {
		return nil
	}
	chosen := free[rand.Intn(len(free))]
	s.current[chosen.Name] = true
	return chosen
}

// Release frees agentName so a future Acquire can select it again.
func (s *inFlightSet) Release(agentName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.current, agentName)
}

// Len reports how many agents are currently in-flight.
func (s *inFlightSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.current)
}
