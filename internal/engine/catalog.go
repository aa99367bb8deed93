package engine

import (
	"github.com/shopspring/decimal"

	"github.com/andisari/loan-engine/internal/domain"
	customError "github.com/andisari/loan-engine/pkg/errors"
	"github.com/andisari/loan-engine/pkg/utils"
)

// Catalog holds the immutable loan-product definitions for a deployment and
// validates requested principals against them.
type Catalog struct {
	products map[string]domain.LoanProduct
	places   int32
}

func NewCatalog(products []domain.LoanProduct, places int32) *Catalog {
	byCode := make(map[string]domain.LoanProduct, len(products))
	for _, p := range products {
		byCode[p.Code] = p
	}
	return &Catalog{products: byCode, places: places}
}

func (c *Catalog) Lookup(code string) (domain.LoanProduct, error) {
	product, ok := c.products[code]
	if !ok {
		return domain.LoanProduct{}, customError.WrapProductNotFound(code)
	}
	return product, nil
}

// ValidateAmount checks the requested principal against the product bounds.
func (c *Catalog) ValidateAmount(product domain.LoanProduct, principal decimal.Decimal) error {
	if principal.LessThan(product.MinAmount) || principal.GreaterThan(product.MaxAmount) {
		return customError.WrapAmountOutOfRange(principal, product.MinAmount, product.MaxAmount)
	}
	return nil
}

// UpfrontCharges computes the processing fee, the tax on that fee, and the
// amount actually handed to the borrower at disbursement.
func (c *Catalog) UpfrontCharges(product domain.LoanProduct, principal decimal.Decimal) domain.UpfrontCharges {
	fee := utils.RoundMoney(principal.Mul(product.ProcessingFeeRate), c.places)
	tax := utils.RoundMoney(fee.Mul(product.FeeTaxRate), c.places)
	return domain.UpfrontCharges{
		ProcessingFee:   fee,
		TaxOnFee:        tax,
		NetDisbursement: principal.Sub(fee).Sub(tax),
	}
}
