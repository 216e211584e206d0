package ports

import (
	"context"
	"time"
)

// LockoutDecision is the outcome of recording one failed attempt.
type LockoutDecision struct {
	Locked       bool
	LockDuration time.Duration
	// AttemptsLeft before the next escalation; only meaningful when
	// Locked is false.
	AttemptsLeft int
}

// LockoutGuard gates repeated submission of a secret against brute-force
// guessing, independently per workflow key. State persists across restarts.
type LockoutGuard interface {
	RecordFailure(ctx context.Context, workflow string) (LockoutDecision, error)
	// RecordSuccess clears the attempt counter and any lock (call on a
	// successful attempt).
	RecordSuccess(ctx context.Context, workflow string) error
	// IsLocked returns true and the remaining window while a lock is in
	// force. An elapsed lock is reclaimed as a side effect: both the
	// counter and the lock timestamp are removed.
	IsLocked(ctx context.Context, workflow string) (bool, time.Duration, error)
}
