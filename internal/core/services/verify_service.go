package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/domain"
	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/ports"
)

// VerifyService runs the vote-verification workflow behind its own lockout
// counter, independent from the login workflow.
type VerifyService struct {
	gateway ports.ElectionGateway
	guard   ports.LockoutGuard
	logger  *slog.Logger
}

func NewVerifyService(gateway ports.ElectionGateway, guard ports.LockoutGuard, logger *slog.Logger) *VerifyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &VerifyService{gateway: gateway, guard: guard, logger: logger}
}

// Verify looks up a receipt code. Unknown codes feed the guard; transport
// and server errors stay retryable.
func (s *VerifyService) Verify(ctx context.Context, code string) (*domain.VoteRecord, error) {
	locked, remaining, err := s.guard.IsLocked(ctx, WorkflowVerify)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, &domain.LockedOutError{Remaining: remaining}
	}

	record, err := s.gateway.VerifyVote(ctx, code)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) || domain.IsKind(err, domain.KindRateLimited) {
			decision, gerr := s.guard.RecordFailure(ctx, WorkflowVerify)
			if gerr != nil {
				return nil, gerr
			}
			return nil, &domain.AttemptRejectedError{
				Err:          err,
				Locked:       decision.Locked,
				LockDuration: decision.LockDuration,
				AttemptsLeft: decision.AttemptsLeft,
			}
		}
		return nil, fmt.Errorf("verify vote: %w", err)
	}

	if err := s.guard.RecordSuccess(ctx, WorkflowVerify); err != nil {
		s.logger.Warn("could not reset verify attempt counter", slog.String("error", err.Error()))
	}
	return record, nil
}
