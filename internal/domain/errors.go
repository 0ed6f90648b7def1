package domain

import "errors"

// Sentinel errors replace the source's exception-text matching (see
// design note in SPEC_FULL.md §9): callers switch on these with
// errors.Is instead of scanning strings for "rate limit" or similar.
var (
	// ErrPathEscape is returned by the path resolver when a requested
	// path normalises to something outside the workspace root.
	ErrPathEscape = errors.New("path escapes workspace root")

	// ErrRateLimited is returned by the mutator's executor when the
	// external edit tool reports a 429 / rate-limit condition. The
	// runtime owns the retry/back-off decision centrally.
	ErrRateLimited = errors.New("rate limited by provider")

	// ErrWorkspaceMissing is a fatal error: the workspace root does not
	// exist or is not writable.
	ErrWorkspaceMissing = errors.New("workspace root missing or not writable")

	// ErrPromptUnreadable means the agent's prompt file could not be
	// read after a cache check; the cycle is skipped, not failed.
	ErrPromptUnreadable = errors.New("agent prompt file unreadable")

	// ErrAgentBusy names the state in which every candidate agent is
	// already held by an in-flight worker. The scheduler's selector
	// does not return it: Acquire blocks and polls until one is free.
	ErrAgentBusy = errors.New("no available agent: all in-flight")

	// ErrTimeout marks a mutation that was terminated after exceeding
	// its configured timeout. Mutate also returns it, without starting
	// the tool, when the configured timeout is not positive.
	ErrTimeout = errors.New("mutation timed out")

	// ErrMutationUnsuccessful marks a cycle that completed without
	// error but produced no modified files and no parsed commits.
	ErrMutationUnsuccessful = errors.New("mutation produced no changes")
)
