package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanieyo1407/official-voting-system-sub001/internal/adapters/storage/memory"
	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/domain"
	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/services"
)

func TestSequentialBallotFlow(t *testing.T) {
	ctx := context.Background()
	ballots := services.NewBallotService(&fakeGateway{}, memory.New(), nil)

	session, err := ballots.Resume(ctx, "ALPHA-2215", catalog())
	require.NoError(t, err)
	require.Equal(t, services.StateVoting, session.State())
	require.Equal(t, 0, session.CurrentIndex())

	// President: pick Amara Obi, advance to Treasurer.
	require.NoError(t, session.Select(ctx, 10))
	require.NoError(t, session.Advance())
	assert.Equal(t, 1, session.CurrentIndex())
	assert.Equal(t, "Treasurer", session.CurrentPosition().Name)

	// Treasurer: pick Maya Patel, advance into review.
	require.NoError(t, session.Select(ctx, 20))
	require.NoError(t, session.Advance())
	assert.Equal(t, services.StateReview, session.State())
	assert.Equal(t, domain.Selections{1: 10, 2: 20}, session.Selections())
}

func TestAdvanceRequiresSelection(t *testing.T) {
	ctx := context.Background()
	ballots := services.NewBallotService(&fakeGateway{}, memory.New(), nil)

	session, err := ballots.Resume(ctx, "v", catalog())
	require.NoError(t, err)

	err = session.Advance()
	assert.ErrorIs(t, err, domain.ErrNoSelection)
	assert.Equal(t, 0, session.CurrentIndex())
}

func TestSelectRejectsForeignCandidate(t *testing.T) {
	ctx := context.Background()
	ballots := services.NewBallotService(&fakeGateway{}, memory.New(), nil)

	session, err := ballots.Resume(ctx, "v", catalog())
	require.NoError(t, err)

	// Candidate 20 runs for Treasurer, not President.
	err = session.Select(ctx, 20)
	assert.ErrorIs(t, err, domain.ErrUnknownCandidate)
	assert.Empty(t, session.Selections())
}

func TestRetreatStopsAtFirstPosition(t *testing.T) {
	ctx := context.Background()
	ballots := services.NewBallotService(&fakeGateway{}, memory.New(), nil)

	session, err := ballots.Resume(ctx, "v", catalog())
	require.NoError(t, err)

	session.Retreat()
	assert.Equal(t, 0, session.CurrentIndex())

	require.NoError(t, session.Select(ctx, 10))
	require.NoError(t, session.Advance())
	session.Retreat()
	assert.Equal(t, 0, session.CurrentIndex())
}

func TestJumpToReturnsFromReview(t *testing.T) {
	ctx := context.Background()
	ballots := services.NewBallotService(&fakeGateway{}, memory.New(), nil)

	session := completeBallot(t, ballots)
	require.Equal(t, services.StateReview, session.State())

	require.NoError(t, session.JumpTo(0))
	assert.Equal(t, services.StateVoting, session.State())
	assert.Equal(t, 0, session.CurrentIndex())

	// Change the President answer and walk back into review.
	require.NoError(t, session.Select(ctx, 11))
	require.NoError(t, session.Advance())
	require.NoError(t, session.Advance())
	assert.Equal(t, services.StateReview, session.State())
	assert.Equal(t, domain.Selections{1: 11, 2: 20}, session.Selections())
}

func TestSelectionsPersistImmediately(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ballots := services.NewBallotService(&fakeGateway{}, store, nil)

	session, err := ballots.Resume(ctx, "v", catalog())
	require.NoError(t, err)
	require.NoError(t, session.Select(ctx, 10))

	raw, ok, err := store.Get(ctx, "vote-selections")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"1":10}`, raw)
}

func TestResumeRestoresPersistedSelections(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ballots := services.NewBallotService(&fakeGateway{}, store, nil)

	// Simulate a reload with 2 of 3 positions already selected.
	require.NoError(t, store.Set(ctx, "vote-selections", `{"1":10,"3":30}`))

	session, err := ballots.Resume(ctx, "v", threePositionCatalog())
	require.NoError(t, err)

	assert.Equal(t, domain.Selections{1: 10, 3: 30}, session.Selections())
	// Resumes at the first unselected position, not index 0.
	assert.Equal(t, 1, session.CurrentIndex())
	assert.Equal(t, "Treasurer", session.CurrentPosition().Name)
}

func TestResumeDropsStaleSelections(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ballots := services.NewBallotService(&fakeGateway{}, store, nil)

	// Candidate 99 no longer exists; position 7 is not in the catalog.
	require.NoError(t, store.Set(ctx, "vote-selections", `{"1":99,"7":10,"2":20}`))

	session, err := ballots.Resume(ctx, "v", catalog())
	require.NoError(t, err)
	assert.Equal(t, domain.Selections{2: 20}, session.Selections())
	assert.Equal(t, 0, session.CurrentIndex())
}

func TestResumeDiscardsUnreadableSelections(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ballots := services.NewBallotService(&fakeGateway{}, store, nil)

	require.NoError(t, store.Set(ctx, "vote-selections", "not json"))

	session, err := ballots.Resume(ctx, "v", catalog())
	require.NoError(t, err)
	assert.Empty(t, session.Selections())
}

func TestResumeRejectsEmptyCatalog(t *testing.T) {
	ballots := services.NewBallotService(&fakeGateway{}, memory.New(), nil)

	_, err := ballots.Resume(context.Background(), "v", nil)
	assert.ErrorIs(t, err, domain.ErrCatalogEmpty)
}

func TestResumeRejectsPositionWithoutCandidates(t *testing.T) {
	ballots := services.NewBallotService(&fakeGateway{}, memory.New(), nil)

	_, err := ballots.Resume(context.Background(), "v", []domain.Position{{ID: 1, Name: "President"}})
	assert.ErrorIs(t, err, domain.ErrMalformedCatalog)
}

func TestSubmitSuccessClearsSelections(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	gw := &fakeGateway{
		castFn: func(_ string, positionID, _ int) (string, error) {
			if positionID == 1 {
				return "RCPT-100", nil
			}
			return "", nil
		},
	}
	ballots := services.NewBallotService(gw, store, nil)

	session := completeBallot(t, ballots)
	code, err := session.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "RCPT-100", code)
	assert.Equal(t, services.StateSuccess, session.State())

	surfaced, ok := session.VerificationCode()
	assert.True(t, ok)
	assert.Equal(t, "RCPT-100", surfaced)

	_, ok2, err := store.Get(ctx, "vote-selections")
	require.NoError(t, err)
	assert.False(t, ok2)
}

func TestSubmitSettlesAllOutcomes(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	gw := &fakeGateway{
		castFn: func(_ string, positionID, _ int) (string, error) {
			if positionID == 1 {
				return "RCPT-100", nil
			}
			return "", &domain.GatewayError{Kind: domain.KindServerError, Status: 500, Message: "boom"}
		},
	}
	ballots := services.NewBallotService(gw, store, nil)

	session := completeBallot(t, ballots)
	_, err := session.Submit(ctx)
	require.Error(t, err)
	assert.Equal(t, services.StateFailed, session.State())
	assert.True(t, domain.IsKind(err, domain.KindServerError))

	// Every position was attempted despite the failure.
	_, casts := gw.calls()
	assert.Equal(t, 2, casts)

	// The code that did arrive is retained but never surfaced as success.
	_, ok := session.VerificationCode()
	assert.False(t, ok)

	// Selections stay persisted so the voter can retry without re-selecting.
	raw, ok2, err := store.Get(ctx, "vote-selections")
	require.NoError(t, err)
	require.True(t, ok2)
	assert.JSONEq(t, `{"1":10,"2":20}`, raw)
}

func TestSubmitCanRetryAfterFailure(t *testing.T) {
	ctx := context.Background()
	fail := true
	gw := &fakeGateway{
		castFn: func(_ string, positionID, _ int) (string, error) {
			if fail && positionID == 2 {
				return "", &domain.GatewayError{Kind: domain.KindNetworkError}
			}
			if positionID == 1 {
				return "RCPT-100", nil
			}
			return "", nil
		},
	}
	ballots := services.NewBallotService(gw, memory.New(), nil)

	session := completeBallot(t, ballots)
	_, err := session.Submit(ctx)
	require.Error(t, err)
	require.Equal(t, services.StateFailed, session.State())
	require.Error(t, session.SubmitErr())

	fail = false
	code, err := session.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "RCPT-100", code)
	assert.Equal(t, services.StateSuccess, session.State())
	assert.NoError(t, session.SubmitErr())
}

func TestSubmitRefusesOffline(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{offline: true}
	ballots := services.NewBallotService(gw, memory.New(), nil)

	session := completeBallot(t, ballots)
	_, err := session.Submit(ctx)
	assert.ErrorIs(t, err, domain.ErrOffline)

	// The gate refuses before any request starts.
	_, casts := gw.calls()
	assert.Zero(t, casts)
	assert.Equal(t, services.StateReview, session.State())
}

func TestSubmitRequiresReview(t *testing.T) {
	ctx := context.Background()
	ballots := services.NewBallotService(&fakeGateway{}, memory.New(), nil)

	session, err := ballots.Resume(ctx, "v", catalog())
	require.NoError(t, err)

	_, err = session.Submit(ctx)
	assert.Error(t, err)
}

func TestSubmitFailsWithoutVerificationCode(t *testing.T) {
	ctx := context.Background()
	ballots := services.NewBallotService(&fakeGateway{}, memory.New(), nil)

	// Default fake casts succeed but never return a code.
	session := completeBallot(t, ballots)
	_, err := session.Submit(ctx)
	assert.ErrorIs(t, err, domain.ErrNoVerificationCode)
	assert.Equal(t, services.StateFailed, session.State())
}

func TestProgress(t *testing.T) {
	ctx := context.Background()
	ballots := services.NewBallotService(&fakeGateway{}, memory.New(), nil)

	session, err := ballots.Resume(ctx, "v", catalog())
	require.NoError(t, err)
	assert.InDelta(t, 0.5, session.Progress(), 1e-9)

	require.NoError(t, session.Select(ctx, 10))
	require.NoError(t, session.Advance())
	assert.InDelta(t, 1.0, session.Progress(), 1e-9)
}

// completeBallot walks the two-position catalog to the review screen.
func completeBallot(t *testing.T, ballots *services.BallotService) *services.BallotSession {
	t.Helper()
	ctx := context.Background()

	session, err := ballots.Resume(ctx, "ALPHA-2215", catalog())
	require.NoError(t, err)
	require.NoError(t, session.Select(ctx, 10))
	require.NoError(t, session.Advance())
	require.NoError(t, session.Select(ctx, 20))
	require.NoError(t, session.Advance())
	require.Equal(t, services.StateReview, session.State())
	return session
}

func TestNewSessionWrapsCatalogLoadError(t *testing.T) {
	gw := &fakeGateway{fetchFn: func() ([]domain.Position, error) {
		return nil, &domain.GatewayError{Kind: domain.KindNetworkError, Err: errors.New("dial tcp: refused")}
	}}
	ballots := services.NewBallotService(gw, memory.New(), nil)

	_, err := ballots.NewSession(context.Background(), "v")
	require.Error(t, err)
	// Catalog load failures stay retryable transport errors, never lockout food.
	assert.True(t, domain.IsKind(err, domain.KindNetworkError))
}
