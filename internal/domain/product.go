package domain

import (
	"github.com/shopspring/decimal"
)

// Interest methods supported by the schedule generator
const (
	InterestTypeFlat     = "flat"
	InterestTypeReducing = "reducing"
	InterestTypeDailyAPR = "daily_apr"
)

// LoanProduct is an immutable product definition looked up by code.
// InstallmentCount * FrequencyDays is expected to approximate TermDays.
type LoanProduct struct {
	Code              string          `json:"code" db:"code"`
	Name              string          `json:"name" db:"name"`
	TermDays          int             `json:"term_days" db:"term_days"`
	InstallmentCount  int             `json:"installment_count" db:"installment_count"`
	FrequencyDays     int             `json:"frequency_days" db:"frequency_days"`
	InterestType      string          `json:"interest_type" db:"interest_type"`
	InterestRate      decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	ProcessingFeeRate decimal.Decimal `json:"processing_fee_rate" db:"processing_fee_rate"`
	FeeTaxRate        decimal.Decimal `json:"fee_tax_rate" db:"fee_tax_rate"`
	MinAmount         decimal.Decimal `json:"min_amount" db:"min_amount"`
	MaxAmount         decimal.Decimal `json:"max_amount" db:"max_amount"`
}
