package engine

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andisari/loan-engine/internal/domain"
	customError "github.com/andisari/loan-engine/pkg/errors"
)

// AllocationResult is the outcome of applying one payment to a schedule.
// Installments is a fresh slice; the input schedule is never touched.
type AllocationResult struct {
	Installments []domain.Installment
	Allocations  []domain.PaymentAllocation
	Excess       decimal.Decimal
	Warnings     []customError.Warning
}

// Allocator applies a payment to a schedule's outstanding dues.
//
// The waterfall order is penalty -> fee -> interest -> principal within each
// installment, installments taken oldest due date first. The order decides
// who absorbs a partial payment and is fixed for audit reconciliation; any
// change here must be a deliberate business decision.
type Allocator struct {
	places int32
}

func NewAllocator(places int32) *Allocator {
	return &Allocator{places: places}
}

// Apply runs the waterfall. Two payments against the same loan must be
// applied sequentially: allocation is not commutative, so the second call
// has to observe the schedule the first one produced. The caller also owns
// payment identity; re-applying the same payment twice double-counts.
func (a *Allocator) Apply(installments []domain.Installment, payment domain.Payment) (*AllocationResult, error) {
	if !payment.Amount.IsPositive() {
		return nil, customError.WrapInvalidPaymentAmount(payment.Amount)
	}

	result := &AllocationResult{
		Installments: append([]domain.Installment(nil), installments...),
	}

	// oldest obligation first, regardless of size
	order := make([]int, 0, len(result.Installments))
	for i, inst := range result.Installments {
		if inst.Status != domain.InstallmentStatusPaid {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(x, y int) bool {
		return result.Installments[order[x]].DueDate.Before(result.Installments[order[y]].DueDate)
	})

	remaining := payment.Amount
	for _, idx := range order {
		if !remaining.IsPositive() {
			break
		}
		inst := result.Installments[idx]
		alloc := domain.PaymentAllocation{
			ID:                uuid.New(),
			PaymentID:         payment.ID,
			LoanID:            inst.LoanID,
			InstallmentNumber: inst.Number,
		}

		remaining, alloc.Penalty = a.drain(remaining, inst.PenaltyDue(), inst.Number, "penalty", result)
		inst.PenaltyPaid = inst.PenaltyPaid.Add(alloc.Penalty)

		remaining, alloc.Fee = a.drain(remaining, inst.FeeDue(), inst.Number, "fee", result)
		inst.FeePaid = inst.FeePaid.Add(alloc.Fee)

		remaining, alloc.Interest = a.drain(remaining, inst.InterestDue(), inst.Number, "interest", result)
		inst.InterestPaid = inst.InterestPaid.Add(alloc.Interest)

		remaining, alloc.Principal = a.drain(remaining, inst.PrincipalDue(), inst.Number, "principal", result)
		inst.PrincipalPaid = inst.PrincipalPaid.Add(alloc.Principal)

		applied := alloc.Total()
		if inst.Settled() {
			inst.Status = domain.InstallmentStatusPaid
		} else if applied.IsPositive() {
			inst.Status = domain.InstallmentStatusPartial
		}
		if applied.IsPositive() {
			if payment.PaidAt.After(inst.UpdatedAt) {
				inst.UpdatedAt = payment.PaidAt
			}
			result.Allocations = append(result.Allocations, alloc)
		}
		result.Installments[idx] = inst
	}

	// not an error: the caller decides whether excess becomes an advance
	// credit or a refund
	result.Excess = remaining
	return result, nil
}

// drain takes as much of the remaining amount as the due component needs.
// A negative due means upstream data corruption; it is clamped to zero and
// reported as a warning rather than aborting mid-allocation.
func (a *Allocator) drain(remaining, due decimal.Decimal, number int, component string, result *AllocationResult) (decimal.Decimal, decimal.Decimal) {
	if due.IsNegative() {
		result.Warnings = append(result.Warnings, customError.NewWarning(
			customError.WarnCodeNegativeOutstanding,
			fmt.Sprintf("installment %d has negative outstanding %s %s, clamped to zero", number, component, due),
		))
		return remaining, decimal.Zero
	}
	take := decimal.Min(remaining, due)
	return remaining.Sub(take), take
}
