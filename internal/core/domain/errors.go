package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrCatalogEmpty       = errors.New("position catalog is empty")
	ErrMalformedCatalog   = errors.New("position catalog is malformed")
	ErrUnknownCandidate   = errors.New("candidate does not belong to this position")
	ErrNoSelection        = errors.New("current position has no selection")
	ErrIncompleteBallot   = errors.New("not every position has a selection")
	ErrSubmitInProgress   = errors.New("a submission is already in progress")
	ErrOffline            = errors.New("no connection to the election server")
	ErrNoVerificationCode = errors.New("no verification code in any vote response")
)

// ErrorKind classifies every failure the election backend (or the transport
// under it) can produce. Call sites branch on kinds only, never on status
// codes or transport error shapes.
type ErrorKind int

const (
	KindAuthRejected ErrorKind = iota
	KindRateLimited
	KindNotFound
	KindServerError
	KindNetworkError
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthRejected:
		return "auth rejected"
	case KindRateLimited:
		return "rate limited"
	case KindNotFound:
		return "not found"
	case KindServerError:
		return "server error"
	case KindNetworkError:
		return "network error"
	}
	return "unknown"
}

type GatewayError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *GatewayError) Unwrap() error { return e.Err }

// IsKind reports whether err carries a GatewayError of the given kind
// anywhere in its chain.
func IsKind(err error, kind ErrorKind) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Kind == kind
}

// LockedOutError is returned when a workflow is locked before any network
// call is attempted.
type LockedOutError struct {
	Remaining time.Duration
}

func (e *LockedOutError) Error() string {
	return fmt.Sprintf("too many failed attempts, try again in %s", e.Remaining.Round(time.Second))
}

// AttemptRejectedError wraps a rejected voucher or receipt code together
// with the lockout decision it triggered.
type AttemptRejectedError struct {
	Err          error
	Locked       bool
	LockDuration time.Duration
	AttemptsLeft int
}

func (e *AttemptRejectedError) Error() string {
	if e.Locked {
		return fmt.Sprintf("%v (locked for %s)", e.Err, e.LockDuration)
	}
	return fmt.Sprintf("%v (%d attempts left)", e.Err, e.AttemptsLeft)
}

func (e *AttemptRejectedError) Unwrap() error { return e.Err }
