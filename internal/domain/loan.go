package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LoanStatusActive  = "active"
	LoanStatusLegal   = "in_legal"
	LoanStatusClosed  = "closed"
	LoanStatusDefault = "default"
)

// Loan represents a disbursed loan and its generated schedule.
// Installments, Charges and Legal are loaded separately by the repository.
type Loan struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	LoanID         string          `json:"loan_id" db:"loan_id"`
	ProductCode    string          `json:"product_code" db:"product_code"`
	Principal      decimal.Decimal `json:"principal" db:"principal"`
	StartDate      time.Time       `json:"start_date" db:"start_date"`
	InterestTotal  decimal.Decimal `json:"interest_total" db:"interest_total"`
	TotalPayable   decimal.Decimal `json:"total_payable" db:"total_payable"`
	PeriodicAmount decimal.Decimal `json:"periodic_amount" db:"periodic_amount"`
	Status         string          `json:"status" db:"status"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`

	Installments []Installment `json:"installments,omitempty" db:"-"`
	Charges      []Charge      `json:"charges,omitempty" db:"-"`
	Legal        *LegalState   `json:"legal,omitempty" db:"-"`
}

// LegalState tracks a loan's legal-process charges. The one-time fee is
// charged at most once per loan; weekly fees accumulate with WeeksAccrued.
type LegalState struct {
	LoanID         string          `json:"loan_id" db:"loan_id"`
	OpenedAt       time.Time       `json:"opened_at" db:"opened_at"`
	WeeksAccrued   int             `json:"weeks_accrued" db:"weeks_accrued"`
	OneTimeCharged bool            `json:"one_time_charged" db:"one_time_charged"`
	WeeklyFeeRate  decimal.Decimal `json:"weekly_fee_rate" db:"weekly_fee_rate"`
}

// Closed reports whether every installment has been fully paid.
func (l *Loan) Closed() bool {
	if len(l.Installments) == 0 {
		return false
	}
	for _, inst := range l.Installments {
		if inst.Status != InstallmentStatusPaid {
			return false
		}
	}
	return true
}
