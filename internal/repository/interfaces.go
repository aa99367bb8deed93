package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andisari/loan-engine/internal/domain"
)

// LoanRepository defines the interface for loan and schedule data operations
type LoanRepository interface {
	// Create creates a new loan
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByLoanID retrieves a loan by its loan ID
	GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error)

	// Update updates a loan's mutable columns
	Update(ctx context.Context, loan *domain.Loan) error

	// ListActiveLoanIDs returns the ids of loans not yet closed
	ListActiveLoanIDs(ctx context.Context) ([]string, error)

	// CreateInstallments inserts schedule rows in one transaction
	CreateInstallments(ctx context.Context, installments []domain.Installment) error

	// GetInstallmentsByLoanID retrieves a loan's schedule ordered by number
	GetInstallmentsByLoanID(ctx context.Context, loanID string) ([]domain.Installment, error)

	// ReplaceInstallments deletes the unsettled rows and inserts their
	// replacements in one transaction (top-up restructuring). Paid rows are
	// immutable and stay untouched
	ReplaceInstallments(ctx context.Context, loanID string, installments []domain.Installment) error

	// UpdateInstallments persists mutated schedule rows
	UpdateInstallments(ctx context.Context, installments []domain.Installment) error

	// GetOverdueInstallments gets unpaid installments past due at the given date
	GetOverdueInstallments(ctx context.Context, loanID string, asOf time.Time) ([]domain.Installment, error)

	// CreateCharge appends a charge row
	CreateCharge(ctx context.Context, charge *domain.Charge) error

	// GetChargesByLoanID lists a loan's charges ordered by date
	GetChargesByLoanID(ctx context.Context, loanID string) ([]domain.Charge, error)

	// UpsertLegalState creates or updates a loan's legal state
	UpsertLegalState(ctx context.Context, state *domain.LegalState) error

	// GetLegalState returns the loan's legal state, nil when no case is open
	GetLegalState(ctx context.Context, loanID string) (*domain.LegalState, error)
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// Create records a payment and its allocation breakdown in one transaction
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByLoanID retrieves all payments for a loan
	GetByLoanID(ctx context.Context, loanID string) ([]*domain.Payment, error)

	// GetByReference finds a payment by its external reference, nil when absent
	GetByReference(ctx context.Context, loanID, reference string) (*domain.Payment, error)

	// GetTotalPaid calculates total amount paid for a loan
	GetTotalPaid(ctx context.Context, loanID string) (decimal.Decimal, error)
}

// ProductRepository defines the interface for loan-product lookups
type ProductRepository interface {
	// List returns every product definition
	List(ctx context.Context) ([]domain.LoanProduct, error)
}
