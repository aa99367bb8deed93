package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andisari/loan-engine/internal/domain"
	customError "github.com/andisari/loan-engine/pkg/errors"
)

// ChargeApplier folds discretionary charges (bounce, field visit, legal)
// into a loan. Charges ride on an installment's fee component so the payment
// waterfall can recover them ahead of interest and principal; they never
// touch the principal/interest split.
type ChargeApplier struct {
	cfg Config
}

func NewChargeApplier(cfg Config) *ChargeApplier {
	return &ChargeApplier{cfg: cfg}
}

// LegalResult breaks down the charges produced by one legal application.
type LegalResult struct {
	OneTimeCharge decimal.Decimal
	WeeklyCharges decimal.Decimal
	Total         decimal.Decimal
}

// Bounce charges the configured flat bounce amount against an installment.
func (a *ChargeApplier) Bounce(loan domain.Loan, number int, date time.Time) (domain.Loan, domain.Charge, error) {
	return a.flatCharge(loan, domain.ChargeTypeBounce, a.cfg.BounceCharge, number, date)
}

// FieldVisit charges the configured flat field-visit amount against an
// installment.
func (a *ChargeApplier) FieldVisit(loan domain.Loan, number int, date time.Time) (domain.Loan, domain.Charge, error) {
	return a.flatCharge(loan, domain.ChargeTypeFieldVisit, a.cfg.FieldVisitCharge, number, date)
}

func (a *ChargeApplier) flatCharge(loan domain.Loan, chargeType string, amount decimal.Decimal, number int, date time.Time) (domain.Loan, domain.Charge, error) {
	updated := cloneLoan(loan)
	idx := -1
	for i, inst := range updated.Installments {
		if inst.Number == number {
			idx = i
			break
		}
	}
	if idx < 0 {
		return loan, domain.Charge{}, customError.WrapInstallmentNotFound(loan.LoanID, number)
	}

	// paid is terminal, so a charge against a settled installment rides on
	// the earliest unsettled one instead
	if updated.Installments[idx].Status == domain.InstallmentStatusPaid {
		idx = -1
		for i, inst := range updated.Installments {
			if inst.Status != domain.InstallmentStatusPaid {
				idx = i
				break
			}
		}
		if idx < 0 {
			return loan, domain.Charge{}, customError.WrapLoanSettled(loan.LoanID)
		}
	}

	carried := updated.Installments[idx].Number
	charge := domain.Charge{
		ID:                uuid.New(),
		LoanID:            loan.LoanID,
		Type:              chargeType,
		Amount:            amount,
		ChargedAt:         date,
		InstallmentNumber: &carried,
	}
	updated.Installments[idx].Fee = updated.Installments[idx].Fee.Add(amount)
	updated.Installments[idx].UpdatedAt = date
	updated.Charges = append(updated.Charges, charge)
	updated.TotalPayable = updated.TotalPayable.Add(amount)
	return updated, charge, nil
}

// Legal opens or updates the loan's legal state. The one-time fee is charged
// once per loan; calling again only adds the weekly fees accrued since the
// previous call. The fees land on the earliest unsettled installment.
func (a *ChargeApplier) Legal(loan domain.Loan, date time.Time, weeksInLegal int) (domain.Loan, LegalResult, error) {
	updated := cloneLoan(loan)

	idx := -1
	for i, inst := range updated.Installments {
		if inst.Status != domain.InstallmentStatusPaid {
			idx = i
			break
		}
	}
	if idx < 0 {
		return loan, LegalResult{}, customError.WrapLoanSettled(loan.LoanID)
	}

	var result LegalResult
	newWeeks := weeksInLegal
	if updated.Legal == nil {
		updated.Legal = &domain.LegalState{
			LoanID:         loan.LoanID,
			OpenedAt:       date,
			OneTimeCharged: true,
			WeeklyFeeRate:  a.cfg.LegalWeeklyFee,
		}
		result.OneTimeCharge = a.cfg.LegalOneTimeFee
	} else {
		newWeeks = weeksInLegal - updated.Legal.WeeksAccrued
		if newWeeks < 0 {
			newWeeks = 0
		}
	}
	result.WeeklyCharges = a.cfg.LegalWeeklyFee.Mul(decimal.NewFromInt(int64(newWeeks)))
	result.Total = result.OneTimeCharge.Add(result.WeeklyCharges)
	updated.Legal.WeeksAccrued += newWeeks

	if result.Total.IsPositive() {
		charge := domain.Charge{
			ID:        uuid.New(),
			LoanID:    loan.LoanID,
			Type:      domain.ChargeTypeLegal,
			Amount:    result.Total,
			ChargedAt: date,
		}
		updated.Charges = append(updated.Charges, charge)
		updated.Installments[idx].Fee = updated.Installments[idx].Fee.Add(result.Total)
		updated.Installments[idx].UpdatedAt = date
		updated.TotalPayable = updated.TotalPayable.Add(result.Total)
	}
	updated.Status = domain.LoanStatusLegal
	return updated, result, nil
}

// cloneLoan copies the loan and its owned slices so appliers never mutate
// their input.
func cloneLoan(l domain.Loan) domain.Loan {
	l.Installments = append([]domain.Installment(nil), l.Installments...)
	l.Charges = append([]domain.Charge(nil), l.Charges...)
	if l.Legal != nil {
		legal := *l.Legal
		l.Legal = &legal
	}
	return l
}
