package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/andisari/loan-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	paymentQuery := `
		INSERT INTO payments (id, loan_id, amount, paid_at, mode, reference, excess, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.ExecContext(ctx, paymentQuery,
		payment.ID,
		payment.LoanID,
		payment.Amount,
		payment.PaidAt,
		payment.Mode,
		payment.Reference,
		payment.Excess,
		payment.CreatedAt,
	)
	if err != nil {
		return err
	}

	allocationQuery := `
		INSERT INTO payment_allocations (id, payment_id, loan_id, installment_number, penalty, fee, interest, principal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, alloc := range payment.Allocations {
		_, err = tx.ExecContext(ctx, allocationQuery,
			alloc.ID,
			alloc.PaymentID,
			alloc.LoanID,
			alloc.InstallmentNumber,
			alloc.Penalty,
			alloc.Fee,
			alloc.Interest,
			alloc.Principal,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *paymentRepository) GetByLoanID(ctx context.Context, loanID string) ([]*domain.Payment, error) {
	query := `
		SELECT id, loan_id, amount, paid_at, mode, reference, excess, created_at
		FROM payments
		WHERE loan_id = $1
		ORDER BY paid_at
	`

	var payments []*domain.Payment
	err := r.db.SelectContext(ctx, &payments, query, loanID)
	if err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) GetByReference(ctx context.Context, loanID, reference string) (*domain.Payment, error) {
	query := `
		SELECT id, loan_id, amount, paid_at, mode, reference, excess, created_at
		FROM payments
		WHERE loan_id = $1 AND reference = $2
	`

	var payment domain.Payment
	err := r.db.GetContext(ctx, &payment, query, loanID, reference)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepository) GetTotalPaid(ctx context.Context, loanID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount - excess), 0)
		FROM payments
		WHERE loan_id = $1
	`

	var total decimal.Decimal
	err := r.db.GetContext(ctx, &total, query, loanID)
	if err != nil {
		return decimal.Zero, err
	}

	return total, nil
}
