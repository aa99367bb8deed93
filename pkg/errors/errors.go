package errors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Domain errors
var (
	ErrProductNotFound      = errors.New("loan product not found")
	ErrAmountOutOfRange     = errors.New("principal outside product amount range")
	ErrInvalidPaymentAmount = errors.New("payment amount must be positive")
	ErrLoanNotFound         = errors.New("loan not found")
	ErrLoanAlreadyExists    = errors.New("loan already exists")
	ErrLoanSettled          = errors.New("loan schedule is fully paid")
	ErrInstallmentNotFound  = errors.New("installment not found")
	ErrDuplicatePayment     = errors.New("payment reference already processed")
	ErrUnknownInterestType  = errors.New("unknown interest type")
	ErrInvalidProductTerms  = errors.New("product terms are invalid")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeProductNotFound      = "PRODUCT_NOT_FOUND"
	ErrCodeAmountOutOfRange     = "AMOUNT_OUT_OF_RANGE"
	ErrCodeInvalidPaymentAmount = "INVALID_PAYMENT_AMOUNT"
	ErrCodeLoanNotFound         = "LOAN_NOT_FOUND"
	ErrCodeLoanAlreadyExists    = "LOAN_ALREADY_EXISTS"
	ErrCodeLoanSettled          = "LOAN_SETTLED"
	ErrCodeInstallmentNotFound  = "INSTALLMENT_NOT_FOUND"
	ErrCodeInvalidChargeType    = "INVALID_CHARGE_TYPE"
	ErrCodeDuplicatePayment     = "DUPLICATE_PAYMENT"
	ErrCodeUnknownInterestType  = "UNKNOWN_INTEREST_TYPE"
	ErrCodeInvalidProductTerms  = "INVALID_PRODUCT_TERMS"
	ErrCodeDatabaseError        = "DATABASE_ERROR"
	ErrCodeCacheError           = "CACHE_ERROR"
)

// Warning codes for non-fatal consistency anomalies
const (
	WarnCodeNegativeOutstanding = "NEGATIVE_OUTSTANDING"
)

// Warning signals a data anomaly the engine tolerated (clamped) rather than
// aborted on. Callers log warnings; they never block the operation.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

func NewWarning(code, message string) Warning {
	return Warning{Code: code, Message: message}
}

// Wrap common errors with business context

func WrapProductNotFound(code string) *BusinessError {
	return NewBusinessError(
		ErrCodeProductNotFound,
		fmt.Sprintf("Loan product %s not found", code),
		ErrProductNotFound,
	)
}

func WrapAmountOutOfRange(principal, min, max decimal.Decimal) *BusinessError {
	return NewBusinessError(
		ErrCodeAmountOutOfRange,
		fmt.Sprintf("Principal %s outside allowed range [%s, %s]", principal, min, max),
		ErrAmountOutOfRange,
	)
}

func WrapInvalidPaymentAmount(amount decimal.Decimal) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount),
		ErrInvalidPaymentAmount,
	)
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapLoanAlreadyExists(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanAlreadyExists,
		fmt.Sprintf("Loan with ID %s already exists", loanID),
		ErrLoanAlreadyExists,
	)
}

func WrapLoanSettled(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanSettled,
		fmt.Sprintf("Loan %s has no unpaid installments to restructure", loanID),
		ErrLoanSettled,
	)
}

func WrapInstallmentNotFound(loanID string, number int) *BusinessError {
	return NewBusinessError(
		ErrCodeInstallmentNotFound,
		fmt.Sprintf("Loan %s has no installment number %d", loanID, number),
		ErrInstallmentNotFound,
	)
}

func WrapDuplicatePayment(reference string) *BusinessError {
	return NewBusinessError(
		ErrCodeDuplicatePayment,
		fmt.Sprintf("Payment with reference %s was already processed", reference),
		ErrDuplicatePayment,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
