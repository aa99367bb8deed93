package repository

import (
	"context"

	"github.com/andisari/loan-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

type productRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) ProductRepository {
	return &productRepository{db: db}
}

// List loads the product rate/fee table. The catalog is built from this once
// at startup; product rows never change while the process runs.
func (r *productRepository) List(ctx context.Context) ([]domain.LoanProduct, error) {
	query := `
		SELECT code, name, term_days, installment_count, frequency_days, interest_type, interest_rate, processing_fee_rate, fee_tax_rate, min_amount, max_amount
		FROM loan_products
		ORDER BY code
	`

	var products []domain.LoanProduct
	err := r.db.SelectContext(ctx, &products, query)
	if err != nil {
		return nil, err
	}

	return products, nil
}
