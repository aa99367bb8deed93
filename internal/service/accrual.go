package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/andisari/loan-engine/internal/domain"
	customError "github.com/andisari/loan-engine/pkg/errors"
)

// AccrueOverdue walks every active loan, recomputes penalties for the given
// date and moves past-due pending installments to overdue. Recomputation is
// idempotent, so the periodic job can re-run for the same date safely. A
// failing loan is logged and skipped; the sweep continues.
func (s *LoanService) AccrueOverdue(ctx context.Context, asOf time.Time) (int, error) {
	loanIDs, err := s.loanRepo.ListActiveLoanIDs(ctx)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	updatedTotal := 0
	for _, loanID := range loanIDs {
		updated, err := s.accrueLoan(ctx, loanID, asOf)
		if err != nil {
			s.logger.Error("penalty accrual failed",
				zap.String("loan_id", loanID), zap.Error(err))
			continue
		}
		updatedTotal += updated
	}

	s.logger.Info("overdue accrual sweep finished",
		zap.Time("as_of", asOf),
		zap.Int("loans", len(loanIDs)),
		zap.Int("installments_updated", updatedTotal),
	)
	return updatedTotal, nil
}

func (s *LoanService) accrueLoan(ctx context.Context, loanID string, asOf time.Time) (int, error) {
	// only unpaid rows already past due can change; the rest of the
	// schedule stays out of the sweep
	installments, err := s.loanRepo.GetOverdueInstallments(ctx, loanID, asOf)
	if err != nil {
		return 0, err
	}

	changed := make([]domain.Installment, 0)
	for _, inst := range installments {
		refreshed := s.engine.Penalty.Refresh(inst, asOf)
		if !refreshed.Penalty.Equal(inst.Penalty) || refreshed.Status != inst.Status {
			changed = append(changed, refreshed)
		}
	}
	if len(changed) == 0 {
		return 0, nil
	}

	if err = s.loanRepo.UpdateInstallments(ctx, changed); err != nil {
		return 0, err
	}
	s.invalidateOutstanding(ctx, loanID)
	return len(changed), nil
}
