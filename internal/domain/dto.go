package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DTOs for requests and responses

type CreateLoanRequest struct {
	LoanID      string          `json:"loan_id" validate:"required"`
	ProductCode string          `json:"product_code" validate:"required"`
	Principal   decimal.Decimal `json:"principal" validate:"required"`
	StartDate   time.Time       `json:"start_date"`
}

type CreateLoanResponse struct {
	Loan     *Loan           `json:"loan"`
	Schedule []Installment   `json:"schedule"`
	Upfront  *UpfrontCharges `json:"upfront"`
}

// UpfrontCharges is the deduction breakdown applied at disbursement.
type UpfrontCharges struct {
	ProcessingFee   decimal.Decimal `json:"processing_fee"`
	TaxOnFee        decimal.Decimal `json:"tax_on_fee"`
	NetDisbursement decimal.Decimal `json:"net_disbursement"`
}

type PaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Mode      string          `json:"mode" validate:"required,oneof=cash transfer agent"`
	Reference string          `json:"reference" validate:"required"`
	PaidAt    time.Time       `json:"paid_at"`
}

type PaymentResponse struct {
	Payment  *Payment            `json:"payment"`
	Applied  []PaymentAllocation `json:"applied"`
	Excess   decimal.Decimal     `json:"excess"`
	Warnings []string            `json:"warnings,omitempty"`
}

type ChargeRequest struct {
	Type              string `json:"type" validate:"required,oneof=bounce field_visit legal"`
	InstallmentNumber int    `json:"installment_number" validate:"omitempty,gt=0"`
	WeeksInLegal      int    `json:"weeks_in_legal" validate:"omitempty,gte=0"`
}

type ChargeResponse struct {
	Charges []Charge        `json:"charges"`
	Total   decimal.Decimal `json:"total"`
}

type PaymentListResponse struct {
	LoanID    string          `json:"loan_id"`
	Payments  []*Payment      `json:"payments"`
	TotalPaid decimal.Decimal `json:"total_paid"`
}

type TopUpRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Date   time.Time       `json:"date"`
}

type ScheduleResponse struct {
	LoanID   string        `json:"loan_id"`
	Schedule []Installment `json:"schedule"`
}

type OutstandingResponse struct {
	LoanID      string          `json:"loan_id"`
	Outstanding decimal.Decimal `json:"outstanding"`
	AsOf        time.Time       `json:"as_of"`
}

type PreviewResponse struct {
	Product  *LoanProduct    `json:"product"`
	Upfront  *UpfrontCharges `json:"upfront"`
	Schedule []Installment   `json:"schedule"`
}
