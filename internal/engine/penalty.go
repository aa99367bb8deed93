package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/andisari/loan-engine/internal/domain"
	"github.com/andisari/loan-engine/pkg/utils"
)

// PenaltyCalculator accrues penalty on overdue installments. Accrual is a
// recompute from scratch, not an accumulation: the same asOf date always
// yields the same penalty, so the periodic job can safely re-run.
type PenaltyCalculator struct {
	monthlyRate decimal.Decimal
	places      int32
}

func NewPenaltyCalculator(monthlyRate decimal.Decimal, places int32) *PenaltyCalculator {
	return &PenaltyCalculator{monthlyRate: monthlyRate, places: places}
}

// Accrue returns the penalty owed on an installment as of the given date:
// the monthly rate pro-rated by days past due, applied to the unpaid
// principal and interest. Zero when the installment is paid or not yet due.
func (c *PenaltyCalculator) Accrue(inst domain.Installment, asOf time.Time) decimal.Decimal {
	if inst.Status == domain.InstallmentStatusPaid {
		return decimal.Zero
	}
	overdueDays := utils.DaysBetween(inst.DueDate, asOf)
	if overdueDays <= 0 {
		return decimal.Zero
	}
	outstanding := inst.PrincipalDue().Add(inst.InterestDue())
	if !outstanding.IsPositive() {
		return decimal.Zero
	}
	return utils.RoundMoney(
		outstanding.
			Mul(c.monthlyRate).
			Mul(decimal.NewFromInt(int64(overdueDays))).
			Div(decimal.NewFromInt(30)),
		c.places)
}

// Refresh returns the installment with its penalty recomputed for asOf and
// its status moved pending -> overdue when past due. Paid stays paid.
func (c *PenaltyCalculator) Refresh(inst domain.Installment, asOf time.Time) domain.Installment {
	if inst.Status == domain.InstallmentStatusPaid {
		return inst
	}
	inst.Penalty = c.Accrue(inst, asOf).Add(inst.PenaltyPaid)
	if inst.Status == domain.InstallmentStatusPending && utils.DaysBetween(inst.DueDate, asOf) > 0 {
		inst.Status = domain.InstallmentStatusOverdue
	}
	inst.UpdatedAt = asOf
	return inst
}
