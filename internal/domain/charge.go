package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ChargeTypeBounce     = "bounce"
	ChargeTypeFieldVisit = "field_visit"
	ChargeTypeLegal      = "legal"
)

// Charge is a discretionary charge against a loan. InstallmentNumber names
// the installment whose fee component carries the charge; it is nil for
// legal charges.
type Charge struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	LoanID            string          `json:"loan_id" db:"loan_id"`
	Type              string          `json:"type" db:"type"`
	Amount            decimal.Decimal `json:"amount" db:"amount"`
	ChargedAt         time.Time       `json:"charged_at" db:"charged_at"`
	InstallmentNumber *int            `json:"installment_number,omitempty" db:"installment_number"`
}
