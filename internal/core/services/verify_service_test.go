package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanieyo1407/official-voting-system-sub001/internal/adapters/storage/memory"
	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/domain"
	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/services"
)

func notFoundGateway() *fakeGateway {
	return &fakeGateway{verifyFn: func(string) (*domain.VoteRecord, error) {
		return nil, &domain.GatewayError{Kind: domain.KindNotFound, Status: 404, Message: "vote not found"}
	}}
}

func TestVerifyReturnsRecord(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{verifyFn: func(code string) (*domain.VoteRecord, error) {
		return &domain.VoteRecord{
			VerificationCode: code,
			CastAt:           time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC),
			Positions:        []string{"President", "Treasurer"},
		}, nil
	}}
	store := memory.New()
	verify := services.NewVerifyService(gw, services.NewLockoutService(store, newFakeClock(), nil), nil)

	record, err := verify.Verify(ctx, "RCPT-100")
	require.NoError(t, err)
	assert.Equal(t, "RCPT-100", record.VerificationCode)
	assert.Equal(t, []string{"President", "Treasurer"}, record.Positions)
}

func TestUnknownCodeCountsAsFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	guard := services.NewLockoutService(store, newFakeClock(), nil)
	verify := services.NewVerifyService(notFoundGateway(), guard, nil)

	_, err := verify.Verify(ctx, "NOPE")
	var rejected *domain.AttemptRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, 4, rejected.AttemptsLeft)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestVerifyLocksAfterFiveFailures(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	guard := services.NewLockoutService(store, newFakeClock(), nil)
	verify := services.NewVerifyService(notFoundGateway(), guard, nil)

	var rejected *domain.AttemptRejectedError
	for i := 0; i < 5; i++ {
		_, err := verify.Verify(ctx, "NOPE")
		require.ErrorAs(t, err, &rejected)
	}
	assert.True(t, rejected.Locked)
	assert.Equal(t, 5*time.Minute, rejected.LockDuration)

	_, err := verify.Verify(ctx, "NOPE")
	var locked *domain.LockedOutError
	assert.ErrorAs(t, err, &locked)
}

func TestVerifyCounterIndependentFromAuth(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	guard := services.NewLockoutService(store, newFakeClock(), nil)

	// Exhaust the auth workflow entirely.
	for i := 0; i < 5; i++ {
		_, err := guard.RecordFailure(ctx, services.WorkflowAuth)
		require.NoError(t, err)
	}

	verify := services.NewVerifyService(notFoundGateway(), guard, nil)
	_, err := verify.Verify(ctx, "NOPE")
	var rejected *domain.AttemptRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.False(t, rejected.Locked)
	assert.Equal(t, 4, rejected.AttemptsLeft)
}

func TestVerifyServerErrorIsRetryable(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{verifyFn: func(string) (*domain.VoteRecord, error) {
		return nil, &domain.GatewayError{Kind: domain.KindServerError, Status: 503}
	}}
	store := memory.New()
	verify := services.NewVerifyService(gw, services.NewLockoutService(store, newFakeClock(), nil), nil)

	_, err := verify.Verify(ctx, "RCPT-100")
	require.Error(t, err)

	_, ok, err := store.Get(ctx, "verify-attempts")
	require.NoError(t, err)
	assert.False(t, ok)
}
