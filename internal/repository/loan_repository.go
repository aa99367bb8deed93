package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/andisari/loan-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (id, loan_id, product_code, principal, start_date, interest_total, total_payable, periodic_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		loan.ID,
		loan.LoanID,
		loan.ProductCode,
		loan.Principal,
		loan.StartDate,
		loan.InterestTotal,
		loan.TotalPayable,
		loan.PeriodicAmount,
		loan.Status,
		loan.CreatedAt,
		loan.UpdatedAt,
	)

	return err
}

func (r *loanRepository) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	query := `
		SELECT id, loan_id, product_code, principal, start_date, interest_total, total_payable, periodic_amount, status, created_at, updated_at
		FROM loans
		WHERE loan_id = $1
	`

	var loan domain.Loan
	err := r.db.GetContext(ctx, &loan, query, loanID)
	if err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET principal = $2, interest_total = $3, total_payable = $4, periodic_amount = $5, status = $6, updated_at = $7
		WHERE loan_id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		loan.LoanID,
		loan.Principal,
		loan.InterestTotal,
		loan.TotalPayable,
		loan.PeriodicAmount,
		loan.Status,
		time.Now(),
	)

	return err
}

func (r *loanRepository) ListActiveLoanIDs(ctx context.Context) ([]string, error) {
	query := `
		SELECT loan_id FROM loans
		WHERE status IN ($1, $2)
		ORDER BY loan_id
	`

	var ids []string
	err := r.db.SelectContext(ctx, &ids, query, domain.LoanStatusActive, domain.LoanStatusLegal)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

const insertInstallmentQuery = `
	INSERT INTO installments (id, loan_id, number, due_date, principal, interest, penalty, fee, principal_paid, interest_paid, penalty_paid, fee_paid, status, balance, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
`

func insertInstallment(ctx context.Context, tx *sqlx.Tx, inst domain.Installment) error {
	_, err := tx.ExecContext(ctx, insertInstallmentQuery,
		inst.ID,
		inst.LoanID,
		inst.Number,
		inst.DueDate,
		inst.Principal,
		inst.Interest,
		inst.Penalty,
		inst.Fee,
		inst.PrincipalPaid,
		inst.InterestPaid,
		inst.PenaltyPaid,
		inst.FeePaid,
		inst.Status,
		inst.Balance,
		inst.CreatedAt,
		inst.UpdatedAt,
	)
	return err
}

func (r *loanRepository) CreateInstallments(ctx context.Context, installments []domain.Installment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, inst := range installments {
		if err = insertInstallment(ctx, tx, inst); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *loanRepository) GetInstallmentsByLoanID(ctx context.Context, loanID string) ([]domain.Installment, error) {
	query := `
		SELECT id, loan_id, number, due_date, principal, interest, penalty, fee, principal_paid, interest_paid, penalty_paid, fee_paid, status, balance, created_at, updated_at
		FROM installments
		WHERE loan_id = $1
		ORDER BY number
	`

	var installments []domain.Installment
	err := r.db.SelectContext(ctx, &installments, query, loanID)
	if err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *loanRepository) ReplaceInstallments(ctx context.Context, loanID string, installments []domain.Installment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// deleting by status keeps paid rows even if they do not form a
	// numbering prefix
	deleteQuery := `DELETE FROM installments WHERE loan_id = $1 AND status <> $2`
	if _, err = tx.ExecContext(ctx, deleteQuery, loanID, domain.InstallmentStatusPaid); err != nil {
		return err
	}

	for _, inst := range installments {
		if err = insertInstallment(ctx, tx, inst); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *loanRepository) UpdateInstallments(ctx context.Context, installments []domain.Installment) error {
	query := `
		UPDATE installments
		SET penalty = $3, fee = $4, principal_paid = $5, interest_paid = $6, penalty_paid = $7, fee_paid = $8, status = $9, updated_at = $10
		WHERE loan_id = $1 AND number = $2
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, inst := range installments {
		_, err = tx.ExecContext(ctx, query,
			inst.LoanID,
			inst.Number,
			inst.Penalty,
			inst.Fee,
			inst.PrincipalPaid,
			inst.InterestPaid,
			inst.PenaltyPaid,
			inst.FeePaid,
			inst.Status,
			inst.UpdatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *loanRepository) GetOverdueInstallments(ctx context.Context, loanID string, asOf time.Time) ([]domain.Installment, error) {
	query := `
		SELECT id, loan_id, number, due_date, principal, interest, penalty, fee, principal_paid, interest_paid, penalty_paid, fee_paid, status, balance, created_at, updated_at
		FROM installments
		WHERE loan_id = $1 AND status != $2 AND due_date < $3
		ORDER BY number
	`

	var installments []domain.Installment
	err := r.db.SelectContext(ctx, &installments, query, loanID, domain.InstallmentStatusPaid, asOf)
	if err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *loanRepository) CreateCharge(ctx context.Context, charge *domain.Charge) error {
	query := `
		INSERT INTO charges (id, loan_id, type, amount, charged_at, installment_number)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		charge.ID,
		charge.LoanID,
		charge.Type,
		charge.Amount,
		charge.ChargedAt,
		charge.InstallmentNumber,
	)
	return err
}

func (r *loanRepository) GetChargesByLoanID(ctx context.Context, loanID string) ([]domain.Charge, error) {
	query := `
		SELECT id, loan_id, type, amount, charged_at, installment_number
		FROM charges
		WHERE loan_id = $1
		ORDER BY charged_at
	`

	var charges []domain.Charge
	err := r.db.SelectContext(ctx, &charges, query, loanID)
	if err != nil {
		return nil, err
	}

	return charges, nil
}

func (r *loanRepository) UpsertLegalState(ctx context.Context, state *domain.LegalState) error {
	query := `
		INSERT INTO legal_states (loan_id, opened_at, weeks_accrued, one_time_charged, weekly_fee_rate)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (loan_id) DO UPDATE
		SET weeks_accrued = EXCLUDED.weeks_accrued, one_time_charged = EXCLUDED.one_time_charged
	`

	_, err := r.db.ExecContext(ctx, query,
		state.LoanID,
		state.OpenedAt,
		state.WeeksAccrued,
		state.OneTimeCharged,
		state.WeeklyFeeRate,
	)
	return err
}

func (r *loanRepository) GetLegalState(ctx context.Context, loanID string) (*domain.LegalState, error) {
	query := `
		SELECT loan_id, opened_at, weeks_accrued, one_time_charged, weekly_fee_rate
		FROM legal_states
		WHERE loan_id = $1
	`

	var state domain.LegalState
	err := r.db.GetContext(ctx, &state, query, loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &state, nil
}
