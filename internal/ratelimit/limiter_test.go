package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAllowRespectsMaxRequests(t *testing.T) {
	l := New(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow() {
			t.Fatalf("Allow() should be true before limit reached (i=%d)", i)
		}
		l.Record()
	}
	if l.Allow() {
		t.Fatal("Allow() should be false once limit reached")
	}
}

func TestUsageCriticalBoundary(t *testing.T) {
	l := New(100, time.Minute)
	for i := 0; i < 89; i++ {
		l.Record()
	}
	if l.IsCritical() {
		t.Fatal("89% usage must not be critical")
	}
	l.Record() // 90
	if !l.IsCritical() {
		t.Fatal("90% usage must be critical")
	}
}

func TestWaitTimeZeroWhenNotFull(t *testing.T) {
	l := New(5, time.Minute)
	if l.WaitTime() != 0 {
		t.Fatal("expected zero wait time on empty window")
	}
}

func TestExponentialBackoffCapsAtMaxBackoff(t *testing.T) {
	if got := ExponentialBackoff(20); got != MaxBackoff {
		t.Errorf("ExponentialBackoff(20) = %v, want %v", got, MaxBackoff)
	}
	if got := ExponentialBackoff(1); got != 2*time.Second {
		t.Errorf("ExponentialBackoff(1) = %v, want 2s", got)
	}
}

var errRateLimited = errors.New("rate limited")

func TestRetryRateLimitedSucceedsOnThirdAttempt(t *testing.T) {
	var delays []time.Duration
	sleep := func(d time.Duration) { delays = append(delays, d) }

	attempts := 0
	err := RetryRateLimited(context.Background(), sleep,
		func(err error) bool { return errors.Is(err, errRateLimited) },
		func(attempt int) error {
			attempts++
			if attempt < 3 {
				return errRateLimited
			}
			return nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if len(delays) != 2 || delays[0] != 5*time.Second || delays[1] != 15*time.Second {
		t.Fatalf("unexpected delay ladder: %v", delays)
	}
}

func TestRetryRateLimitedGivesUpAfterFiveAttempts(t *testing.T) {
	sleep := func(time.Duration) {}
	attempts := 0
	err := RetryRateLimited(context.Background(), sleep,
		func(err error) bool { return errors.Is(err, errRateLimited) },
		func(attempt int) error {
			attempts++
			return errRateLimited
		})
	if !errors.Is(err, errRateLimited) {
		t.Fatalf("expected errRateLimited, got %v", err)
	}
	if attempts != MaxRateLimitAttempts {
		t.Fatalf("expected %d attempts, got %d", MaxRateLimitAttempts, attempts)
	}
}
