package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Installment status lifecycle: pending -> overdue (time only),
// pending/overdue -> partial, pending/overdue/partial -> paid. Paid is terminal.
const (
	InstallmentStatusPending = "pending"
	InstallmentStatusPartial = "partial"
	InstallmentStatusOverdue = "overdue"
	InstallmentStatusPaid    = "paid"
)

// Installment is one row of a loan's repayment schedule. Balance is the
// outstanding principal remaining after this installment is settled.
type Installment struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	LoanID        string          `json:"loan_id" db:"loan_id"`
	Number        int             `json:"number" db:"number"`
	DueDate       time.Time       `json:"due_date" db:"due_date"`
	Principal     decimal.Decimal `json:"principal" db:"principal"`
	Interest      decimal.Decimal `json:"interest" db:"interest"`
	Penalty       decimal.Decimal `json:"penalty" db:"penalty"`
	Fee           decimal.Decimal `json:"fee" db:"fee"`
	PrincipalPaid decimal.Decimal `json:"principal_paid" db:"principal_paid"`
	InterestPaid  decimal.Decimal `json:"interest_paid" db:"interest_paid"`
	PenaltyPaid   decimal.Decimal `json:"penalty_paid" db:"penalty_paid"`
	FeePaid       decimal.Decimal `json:"fee_paid" db:"fee_paid"`
	Status        string          `json:"status" db:"status"`
	Balance       decimal.Decimal `json:"balance" db:"balance"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

func (i Installment) PrincipalDue() decimal.Decimal {
	return i.Principal.Sub(i.PrincipalPaid)
}

func (i Installment) InterestDue() decimal.Decimal {
	return i.Interest.Sub(i.InterestPaid)
}

func (i Installment) PenaltyDue() decimal.Decimal {
	return i.Penalty.Sub(i.PenaltyPaid)
}

func (i Installment) FeeDue() decimal.Decimal {
	return i.Fee.Sub(i.FeePaid)
}

// TotalDue is everything still owed on this installment.
func (i Installment) TotalDue() decimal.Decimal {
	return i.PenaltyDue().Add(i.FeeDue()).Add(i.InterestDue()).Add(i.PrincipalDue())
}

// Settled reports whether every component is fully covered.
func (i Installment) Settled() bool {
	return !i.PrincipalDue().IsPositive() &&
		!i.InterestDue().IsPositive() &&
		!i.PenaltyDue().IsPositive() &&
		!i.FeeDue().IsPositive()
}
