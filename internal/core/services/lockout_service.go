package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/ports"
)

// Workflow keys for the two guarded secrets. Each gets an independent
// attempt counter and lock window.
const (
	WorkflowAuth   = "auth"
	WorkflowVerify = "verify"
)

const (
	// Thresholds are compared with strict greater-than, higher first:
	// the 5th failure locks for 5 minutes, the 10th for 15.
	softLockAfter  = 4
	hardLockAfter  = 9
	softLockWindow = 5 * time.Minute
	hardLockWindow = 15 * time.Minute
	maxAttempts    = 5
)

type LockoutService struct {
	store  ports.Store
	clock  ports.Clock
	logger *slog.Logger
}

func NewLockoutService(store ports.Store, clock ports.Clock, logger *slog.Logger) *LockoutService {
	if clock == nil {
		clock = ports.ClockFunc(time.Now)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LockoutService{store: store, clock: clock, logger: logger}
}

func attemptsKey(workflow string) string { return workflow + "-attempts" }
func lockoutKey(workflow string) string  { return workflow + "-lockout" }

func (s *LockoutService) RecordFailure(ctx context.Context, workflow string) (ports.LockoutDecision, error) {
	n, err := s.failedAttempts(ctx, workflow)
	if err != nil {
		return ports.LockoutDecision{}, err
	}
	n++
	if err := s.store.Set(ctx, attemptsKey(workflow), strconv.Itoa(n)); err != nil {
		return ports.LockoutDecision{}, fmt.Errorf("persist attempt count: %w", err)
	}

	var window time.Duration
	switch {
	case n > hardLockAfter:
		window = hardLockWindow
	case n > softLockAfter:
		window = softLockWindow
	}
	if window == 0 {
		return ports.LockoutDecision{AttemptsLeft: maxAttempts - n}, nil
	}

	until := s.clock.Now().Add(window)
	if err := s.store.Set(ctx, lockoutKey(workflow), strconv.FormatInt(until.UnixMilli(), 10)); err != nil {
		return ports.LockoutDecision{}, fmt.Errorf("persist lockout: %w", err)
	}
	s.logger.Warn("workflow locked",
		slog.String("workflow", workflow),
		slog.Int("failures", n),
		slog.Time("until", until))
	return ports.LockoutDecision{Locked: true, LockDuration: window}, nil
}

func (s *LockoutService) RecordSuccess(ctx context.Context, workflow string) error {
	if err := s.store.Remove(ctx, attemptsKey(workflow)); err != nil {
		return fmt.Errorf("clear attempt count: %w", err)
	}
	if err := s.store.Remove(ctx, lockoutKey(workflow)); err != nil {
		return fmt.Errorf("clear lockout: %w", err)
	}
	return nil
}

func (s *LockoutService) IsLocked(ctx context.Context, workflow string) (bool, time.Duration, error) {
	raw, ok, err := s.store.Get(ctx, lockoutKey(workflow))
	if err != nil {
		return false, 0, fmt.Errorf("read lockout: %w", err)
	}
	if !ok {
		return false, 0, nil
	}

	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Unreadable timestamp. Treat as no lock rather than locking the
		// voter out of their own client.
		s.logger.Warn("discarding corrupt lockout value", slog.String("workflow", workflow))
		return false, 0, s.RecordSuccess(ctx, workflow)
	}

	until := time.UnixMilli(millis)
	now := s.clock.Now()
	if now.Before(until) {
		return true, until.Sub(now), nil
	}

	// Lock expiry reclaims the counter: escalation restarts from zero
	// after a window elapses. Kept exactly as the product behaves.
	if err := s.RecordSuccess(ctx, workflow); err != nil {
		return false, 0, err
	}
	return false, 0, nil
}

func (s *LockoutService) failedAttempts(ctx context.Context, workflow string) (int, error) {
	raw, ok, err := s.store.Get(ctx, attemptsKey(workflow))
	if err != nil {
		return 0, fmt.Errorf("read attempt count: %w", err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}

// SecondsRemaining is the presentation-side countdown. It never feeds back
// into lock decisions; those go through IsLocked alone.
func SecondsRemaining(now, until time.Time) int {
	if !now.Before(until) {
		return 0
	}
	return int((until.Sub(now) + time.Second - 1) / time.Second)
}
