package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/domain"
	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/ports"
)

// selectionsKey is where the in-progress ballot lives in the store, so a
// crash or restart loses at most the not-yet-recorded click.
const selectionsKey = "vote-selections"

type BallotState int

const (
	StateLoading BallotState = iota
	StateVoting
	StateReview
	StateSubmitting
	StateSuccess
	StateFailed
)

func (s BallotState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateVoting:
		return "voting"
	case StateReview:
		return "review"
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

type BallotService struct {
	gateway ports.ElectionGateway
	store   ports.Store
	logger  *slog.Logger
}

func NewBallotService(gateway ports.ElectionGateway, store ports.Store, logger *slog.Logger) *BallotService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BallotService{gateway: gateway, store: store, logger: logger}
}

// NewSession fetches the position catalog and opens a session for a voucher
// already proven valid. Catalog load failures are retryable and never touch
// the lockout counter.
func (s *BallotService) NewSession(ctx context.Context, voucher string) (*BallotSession, error) {
	positions, err := s.gateway.FetchPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load position catalog: %w", err)
	}
	return s.Resume(ctx, voucher, positions)
}

// Resume opens a session over an already-fetched catalog, restoring any
// persisted selections from an abandoned session. The session starts at the
// first position without a selection.
func (s *BallotService) Resume(ctx context.Context, voucher string, positions []domain.Position) (*BallotSession, error) {
	if len(positions) == 0 {
		return nil, domain.ErrCatalogEmpty
	}
	for _, p := range positions {
		if len(p.Candidates) == 0 {
			return nil, fmt.Errorf("position %q has no candidates: %w", p.Name, domain.ErrMalformedCatalog)
		}
	}

	sess := &BallotSession{
		voucher:    voucher,
		positions:  positions,
		selections: s.restoreSelections(ctx, positions),
		state:      StateVoting,
		gateway:    s.gateway,
		store:      s.store,
		logger:     s.logger,
	}
	sess.index = firstUnselected(positions, sess.selections)
	return sess, nil
}

func (s *BallotService) restoreSelections(ctx context.Context, positions []domain.Position) domain.Selections {
	out := domain.Selections{}
	raw, ok, err := s.store.Get(ctx, selectionsKey)
	if err != nil {
		s.logger.Warn("could not read persisted selections", slog.String("error", err.Error()))
		return out
	}
	if !ok {
		return out
	}

	var saved domain.Selections
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		s.logger.Warn("discarding unreadable persisted selections", slog.String("error", err.Error()))
		return out
	}

	// Keep only selections that still match the catalog; a changed catalog
	// invalidates the stale entries silently.
	for _, p := range positions {
		if cand, ok := saved[p.ID]; ok && p.HasCandidate(cand) {
			out[p.ID] = cand
		}
	}
	return out
}

func firstUnselected(positions []domain.Position, selections domain.Selections) int {
	for i, p := range positions {
		if _, ok := selections[p.ID]; !ok {
			return i
		}
	}
	return len(positions) - 1
}

// BallotSession walks a voter through the catalog one position at a time.
// It is driven by a single caller at a time and is not safe for concurrent
// use, matching the one-logical-writer model of the client.
type BallotSession struct {
	voucher    string
	positions  []domain.Position
	selections domain.Selections
	index      int
	state      BallotState

	submitErr        error
	verificationCode string

	gateway ports.ElectionGateway
	store   ports.Store
	logger  *slog.Logger
}

func (b *BallotSession) State() BallotState { return b.state }

func (b *BallotSession) Positions() []domain.Position { return b.positions }

func (b *BallotSession) CurrentIndex() int { return b.index }

func (b *BallotSession) CurrentPosition() domain.Position { return b.positions[b.index] }

func (b *BallotSession) Selections() domain.Selections { return b.selections.Clone() }

// SubmitErr returns the aggregate error of the last failed submission.
func (b *BallotSession) SubmitErr() error { return b.submitErr }

// Progress is display-only: fraction of positions reached so far.
func (b *BallotSession) Progress() float64 {
	return float64(b.index+1) / float64(len(b.positions))
}

// VerificationCode is surfaced only after a fully successful submission. A
// code received during a partially failed batch stays private so a partial
// failure is never mistaken for success.
func (b *BallotSession) VerificationCode() (string, bool) {
	if b.state != StateSuccess || b.verificationCode == "" {
		return "", false
	}
	return b.verificationCode, true
}

// Select records a choice for the current position and persists the whole
// selection map immediately.
func (b *BallotSession) Select(ctx context.Context, candidateID int) error {
	if b.state != StateVoting {
		return fmt.Errorf("cannot select while %s", b.state)
	}
	pos := b.CurrentPosition()
	if !pos.HasCandidate(candidateID) {
		return fmt.Errorf("candidate %d for position %q: %w", candidateID, pos.Name, domain.ErrUnknownCandidate)
	}
	b.selections[pos.ID] = candidateID
	return b.persistSelections(ctx)
}

// Advance moves to the next position, or from the last position into
// review. It refuses to move past a position without a selection.
func (b *BallotSession) Advance() error {
	if b.state != StateVoting {
		return fmt.Errorf("cannot advance while %s", b.state)
	}
	if _, ok := b.selections[b.CurrentPosition().ID]; !ok {
		return domain.ErrNoSelection
	}
	if b.index < len(b.positions)-1 {
		b.index++
		return nil
	}
	if len(b.selections) != len(b.positions) {
		return domain.ErrIncompleteBallot
	}
	b.state = StateReview
	return nil
}

// Retreat steps back one position; no-op on the first.
func (b *BallotSession) Retreat() {
	if b.state == StateVoting && b.index > 0 {
		b.index--
	}
}

// JumpTo returns to voting at the given position, the review screen's
// "change answer" action. Also valid after a failed submission.
func (b *BallotSession) JumpTo(index int) error {
	if index < 0 || index >= len(b.positions) {
		return fmt.Errorf("position index %d out of range", index)
	}
	switch b.state {
	case StateVoting, StateReview, StateFailed:
	default:
		return fmt.Errorf("cannot change answers while %s", b.state)
	}
	b.index = index
	b.state = StateVoting
	return nil
}

type castOutcome struct {
	position domain.Position
	code     string
	err      error
}

// Submit casts one vote per position concurrently and settles all outcomes
// before deciding. Success requires every cast to succeed and at least one
// response to carry a verification code; any failure keeps the selections
// (persisted and in memory) so the voter can retry without re-selecting.
//
// There is no idempotency key: a retry after a partial failure may
// double-record positions that already succeeded upstream. Callers must
// warn the voter before retrying.
func (b *BallotSession) Submit(ctx context.Context) (string, error) {
	switch b.state {
	case StateReview, StateFailed:
	case StateSubmitting:
		return "", domain.ErrSubmitInProgress
	default:
		return "", fmt.Errorf("cannot submit while %s", b.state)
	}
	if len(b.selections) != len(b.positions) {
		return "", domain.ErrIncompleteBallot
	}
	if !b.gateway.Online(ctx) {
		return "", domain.ErrOffline
	}

	b.state = StateSubmitting
	b.submitErr = nil

	outcomes := make(chan castOutcome, len(b.positions))
	var wg sync.WaitGroup
	for _, pos := range b.positions {
		wg.Add(1)
		go func(pos domain.Position, candidateID int) {
			defer wg.Done()
			code, err := b.gateway.CastVote(ctx, b.voucher, pos.ID, candidateID)
			outcomes <- castOutcome{position: pos, code: code, err: err}
		}(pos, b.selections[pos.ID])
	}
	wg.Wait()
	close(outcomes)

	var errs []error
	for out := range outcomes {
		if out.err != nil {
			errs = append(errs, fmt.Errorf("vote for %s: %w", out.position.Name, out.err))
			continue
		}
		if b.verificationCode == "" && out.code != "" {
			b.verificationCode = out.code
		}
	}

	if len(errs) > 0 {
		b.submitErr = errors.Join(errs...)
		b.state = StateFailed
		b.logger.Error("ballot submission failed",
			slog.Int("positions", len(b.positions)),
			slog.Int("failed", len(errs)))
		return "", b.submitErr
	}
	if b.verificationCode == "" {
		b.submitErr = domain.ErrNoVerificationCode
		b.state = StateFailed
		return "", b.submitErr
	}

	if err := b.store.Remove(ctx, selectionsKey); err != nil {
		// The vote is recorded; stale local state must not mask that.
		b.logger.Warn("could not clear persisted selections", slog.String("error", err.Error()))
	}
	b.state = StateSuccess
	return b.verificationCode, nil
}

func (b *BallotSession) persistSelections(ctx context.Context) error {
	raw, err := json.Marshal(b.selections)
	if err != nil {
		return fmt.Errorf("encode selections: %w", err)
	}
	if err := b.store.Set(ctx, selectionsKey, string(raw)); err != nil {
		return fmt.Errorf("persist selections: %w", err)
	}
	return nil
}
