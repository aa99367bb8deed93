package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/andisari/loan-engine/internal/domain"
	customError "github.com/andisari/loan-engine/pkg/errors"
)

// TopUpProcessor restructures a partially-repaid loan when additional
// principal is advanced: the unpaid tail of the schedule is replaced by a
// fresh schedule over the remaining plus the new principal, while settled
// installments stay exactly as they were.
type TopUpProcessor struct {
	generator *ScheduleGenerator
}

func NewTopUpProcessor(generator *ScheduleGenerator) *TopUpProcessor {
	return &TopUpProcessor{generator: generator}
}

// TopUp returns the restructured loan and the freshly generated tail.
func (t *TopUpProcessor) TopUp(loan domain.Loan, product domain.LoanProduct, additional decimal.Decimal, topUpDate time.Time) (domain.Loan, *Schedule, error) {
	if !additional.IsPositive() {
		return loan, nil, customError.WrapInvalidPaymentAmount(additional)
	}

	settled := make([]domain.Installment, 0, len(loan.Installments))
	remaining := decimal.Zero
	lastSettled := 0
	for _, inst := range loan.Installments {
		if inst.Status == domain.InstallmentStatusPaid {
			settled = append(settled, inst)
			if inst.Number > lastSettled {
				lastSettled = inst.Number
			}
			continue
		}
		remaining = remaining.Add(inst.PrincipalDue())
	}
	if len(settled) == len(loan.Installments) {
		return loan, nil, customError.WrapLoanSettled(loan.LoanID)
	}

	newPrincipal := remaining.Add(additional)
	tail, err := t.generator.generate(product, newPrincipal, topUpDate, lastSettled+1)
	if err != nil {
		return loan, nil, err
	}
	for i := range tail.Installments {
		tail.Installments[i].LoanID = loan.LoanID
	}

	updated := cloneLoan(loan)
	updated.Installments = append(settled, tail.Installments...)
	updated.Principal = loan.Principal.Add(additional)
	updated.PeriodicAmount = tail.PeriodicAmount
	updated.InterestTotal = decimal.Zero
	updated.TotalPayable = decimal.Zero
	for _, inst := range updated.Installments {
		updated.InterestTotal = updated.InterestTotal.Add(inst.Interest)
		updated.TotalPayable = updated.TotalPayable.Add(inst.Principal).Add(inst.Interest).Add(inst.Fee)
	}
	updated.UpdatedAt = topUpDate
	return updated, tail, nil
}
