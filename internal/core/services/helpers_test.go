package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/domain"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeGateway drives the services with scripted behavior. Unset functions
// succeed with zero values; call counts are safe for concurrent casts.
type fakeGateway struct {
	mu          sync.Mutex
	redeemCalls int
	castCalls   int

	redeemFn func(voucher string) error
	fetchFn  func() ([]domain.Position, error)
	castFn   func(voucher string, positionID, candidateID int) (string, error)
	verifyFn func(code string) (*domain.VoteRecord, error)
	offline  bool
}

func (g *fakeGateway) RedeemVoucher(_ context.Context, voucher string) error {
	g.mu.Lock()
	g.redeemCalls++
	g.mu.Unlock()
	if g.redeemFn == nil {
		return nil
	}
	return g.redeemFn(voucher)
}

func (g *fakeGateway) FetchPositions(_ context.Context) ([]domain.Position, error) {
	if g.fetchFn == nil {
		return catalog(), nil
	}
	return g.fetchFn()
}

func (g *fakeGateway) CastVote(_ context.Context, voucher string, positionID, candidateID int) (string, error) {
	g.mu.Lock()
	g.castCalls++
	g.mu.Unlock()
	if g.castFn == nil {
		return "", nil
	}
	return g.castFn(voucher, positionID, candidateID)
}

func (g *fakeGateway) VerifyVote(_ context.Context, code string) (*domain.VoteRecord, error) {
	if g.verifyFn == nil {
		return &domain.VoteRecord{VerificationCode: code}, nil
	}
	return g.verifyFn(code)
}

func (g *fakeGateway) Online(_ context.Context) bool { return !g.offline }

func (g *fakeGateway) calls() (redeems, casts int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.redeemCalls, g.castCalls
}

func catalog() []domain.Position {
	return []domain.Position{
		{ID: 1, Name: "President", Candidates: []domain.Candidate{
			{ID: 10, Name: "Amara Obi"},
			{ID: 11, Name: "Liam Carter"},
		}},
		{ID: 2, Name: "Treasurer", Candidates: []domain.Candidate{
			{ID: 20, Name: "Maya Patel"},
		}},
	}
}

func threePositionCatalog() []domain.Position {
	return append(catalog(), domain.Position{
		ID: 3, Name: "Secretary", Candidates: []domain.Candidate{
			{ID: 30, Name: "Noah Kim"},
			{ID: 31, Name: "Sofia Reyes"},
		},
	})
}
