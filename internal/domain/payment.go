package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is an amount received against a loan. Payments are immutable once
// recorded; the waterfall produces the per-installment Allocations breakdown.
type Payment struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	LoanID    string          `json:"loan_id" db:"loan_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	PaidAt    time.Time       `json:"paid_at" db:"paid_at"`
	Mode      string          `json:"mode" db:"mode"`
	Reference string          `json:"reference" db:"reference"`
	Excess    decimal.Decimal `json:"excess" db:"excess"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`

	Allocations []PaymentAllocation `json:"allocations,omitempty" db:"-"`
}

// PaymentAllocation records how much of a payment landed on each component
// of one installment.
type PaymentAllocation struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	PaymentID         uuid.UUID       `json:"payment_id" db:"payment_id"`
	LoanID            string          `json:"loan_id" db:"loan_id"`
	InstallmentNumber int             `json:"installment_number" db:"installment_number"`
	Penalty           decimal.Decimal `json:"penalty" db:"penalty"`
	Fee               decimal.Decimal `json:"fee" db:"fee"`
	Interest          decimal.Decimal `json:"interest" db:"interest"`
	Principal         decimal.Decimal `json:"principal" db:"principal"`
}

// Total is the full amount this allocation drew from the payment.
func (a PaymentAllocation) Total() decimal.Decimal {
	return a.Penalty.Add(a.Fee).Add(a.Interest).Add(a.Principal)
}
