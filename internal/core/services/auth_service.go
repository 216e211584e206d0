package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/domain"
	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/ports"
)

// AuthService runs the voucher-login workflow: the lockout guard gates
// every attempt, and a successful redemption opens a ballot session.
type AuthService struct {
	gateway ports.ElectionGateway
	guard   ports.LockoutGuard
	ballots *BallotService
	logger  *slog.Logger
}

func NewAuthService(gateway ports.ElectionGateway, guard ports.LockoutGuard, ballots *BallotService, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{gateway: gateway, guard: guard, ballots: ballots, logger: logger}
}

// Login redeems a voucher. While the auth workflow is locked no network
// call is made at all. Rejected and rate-limited attempts feed the guard;
// transport and server errors are retryable and leave the counter alone.
func (s *AuthService) Login(ctx context.Context, voucher string) (*BallotSession, error) {
	locked, remaining, err := s.guard.IsLocked(ctx, WorkflowAuth)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, &domain.LockedOutError{Remaining: remaining}
	}

	if err := s.gateway.RedeemVoucher(ctx, voucher); err != nil {
		if domain.IsKind(err, domain.KindAuthRejected) || domain.IsKind(err, domain.KindRateLimited) {
			return nil, s.recordRejection(ctx, WorkflowAuth, err)
		}
		return nil, fmt.Errorf("redeem voucher: %w", err)
	}

	if err := s.guard.RecordSuccess(ctx, WorkflowAuth); err != nil {
		// A reset failure must not block a voter holding a valid voucher.
		s.logger.Warn("could not reset auth attempt counter", slog.String("error", err.Error()))
	}
	return s.ballots.NewSession(ctx, voucher)
}

func (s *AuthService) recordRejection(ctx context.Context, workflow string, cause error) error {
	decision, err := s.guard.RecordFailure(ctx, workflow)
	if err != nil {
		return err
	}
	return &domain.AttemptRejectedError{
		Err:          cause,
		Locked:       decision.Locked,
		LockDuration: decision.LockDuration,
		AttemptsLeft: decision.AttemptsLeft,
	}
}
