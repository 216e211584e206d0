package ports

import (
	"context"

	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/domain"
)

// ElectionGateway is the client's view of the election backend. All errors
// returned by implementations carry a domain.GatewayError kind so the core
// never inspects transport details.
type ElectionGateway interface {
	// RedeemVoucher proves voting eligibility. Invalid vouchers come back
	// as KindAuthRejected, server throttling as KindRateLimited.
	RedeemVoucher(ctx context.Context, voucher string) error

	// FetchPositions returns the position catalog in display order.
	FetchPositions(ctx context.Context) ([]domain.Position, error)

	// CastVote records one choice and returns the verification code if the
	// response carried one (the backend attaches it to the first recorded
	// vote of a batch).
	CastVote(ctx context.Context, voucher string, positionID, candidateID int) (string, error)

	// VerifyVote looks up a previously issued verification code. Unknown
	// codes come back as KindNotFound.
	VerifyVote(ctx context.Context, code string) (*domain.VoteRecord, error)

	// Online reports whether the backend host is reachable. Used as a gate
	// before submission, never as a retry trigger.
	Online(ctx context.Context) bool
}
