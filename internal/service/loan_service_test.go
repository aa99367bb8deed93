package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andisari/loan-engine/internal/domain"
	"github.com/andisari/loan-engine/internal/engine"
	customError "github.com/andisari/loan-engine/pkg/errors"
	"github.com/andisari/loan-engine/tests/mocks"
)

func testProduct() domain.LoanProduct {
	return domain.LoanProduct{
		Code:              "FLAT-14W",
		Name:              "14-week flat",
		TermDays:          98,
		InstallmentCount:  14,
		FrequencyDays:     7,
		InterestType:      domain.InterestTypeFlat,
		InterestRate:      decimal.NewFromFloat(0.20),
		ProcessingFeeRate: decimal.NewFromFloat(0.02),
		FeeTaxRate:        decimal.NewFromFloat(0.11),
		MinAmount:         decimal.NewFromInt(1000),
		MaxAmount:         decimal.NewFromInt(50000),
	}
}

func newTestService(loanRepo *mocks.MockLoanRepository, paymentRepo *mocks.MockPaymentRepository) *LoanService {
	eng := engine.New(engine.Config{
		CurrencyPlaces:     0,
		MonthlyPenaltyRate: decimal.NewFromFloat(0.03),
		BounceCharge:       decimal.NewFromInt(25),
		FieldVisitCharge:   decimal.NewFromInt(15),
		LegalOneTimeFee:    decimal.NewFromInt(500),
		LegalWeeklyFee:     decimal.NewFromInt(50),
	}, engine.NewCatalog([]domain.LoanProduct{testProduct()}, 0))

	// an unreachable address: cache misses degrade to repository reads
	redisClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	return NewLoanService(loanRepo, paymentRepo, eng, redisClient, zap.NewNop())
}

func TestCreateLoan(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		request    *domain.CreateLoanRequest
		setupMocks func(*mocks.MockLoanRepository)
		errorIs    error
		validate   func(*testing.T, *domain.CreateLoanResponse)
	}{
		{
			name: "Success - creates loan with schedule and upfront charges",
			request: &domain.CreateLoanRequest{
				LoanID:      "LN-1",
				ProductCode: "FLAT-14W",
				Principal:   decimal.NewFromInt(10000),
				StartDate:   start,
			},
			setupMocks: func(loanRepo *mocks.MockLoanRepository) {
				loanRepo.On("GetByLoanID", mock.Anything, "LN-1").Return(nil, sql.ErrNoRows)
				loanRepo.On("Create", mock.Anything, mock.MatchedBy(func(loan *domain.Loan) bool {
					return loan.LoanID == "LN-1" && loan.TotalPayable.Equal(decimal.NewFromInt(12000))
				})).Return(nil)
				loanRepo.On("CreateInstallments", mock.Anything, mock.MatchedBy(func(installments []domain.Installment) bool {
					return len(installments) == 14
				})).Return(nil)
			},
			validate: func(t *testing.T, resp *domain.CreateLoanResponse) {
				assert.True(t, resp.Loan.InterestTotal.Equal(decimal.NewFromInt(2000)))
				assert.True(t, resp.Loan.PeriodicAmount.Equal(decimal.NewFromInt(857)))
				assert.Len(t, resp.Schedule, 14)
				assert.True(t, resp.Upfront.ProcessingFee.Equal(decimal.NewFromInt(200)))
				assert.True(t, resp.Upfront.NetDisbursement.Equal(decimal.NewFromInt(9778)))
			},
		},
		{
			name: "Failure - loan already exists",
			request: &domain.CreateLoanRequest{
				LoanID:      "LN-2",
				ProductCode: "FLAT-14W",
				Principal:   decimal.NewFromInt(10000),
			},
			setupMocks: func(loanRepo *mocks.MockLoanRepository) {
				loanRepo.On("GetByLoanID", mock.Anything, "LN-2").
					Return(&domain.Loan{LoanID: "LN-2"}, nil)
			},
			errorIs: customError.ErrLoanAlreadyExists,
		},
		{
			name: "Failure - unknown product",
			request: &domain.CreateLoanRequest{
				LoanID:      "LN-3",
				ProductCode: "NOPE",
				Principal:   decimal.NewFromInt(10000),
			},
			setupMocks: func(loanRepo *mocks.MockLoanRepository) {
				loanRepo.On("GetByLoanID", mock.Anything, "LN-3").Return(nil, sql.ErrNoRows)
			},
			errorIs: customError.ErrProductNotFound,
		},
		{
			name: "Failure - principal out of product range",
			request: &domain.CreateLoanRequest{
				LoanID:      "LN-4",
				ProductCode: "FLAT-14W",
				Principal:   decimal.NewFromInt(999),
			},
			setupMocks: func(loanRepo *mocks.MockLoanRepository) {
				loanRepo.On("GetByLoanID", mock.Anything, "LN-4").Return(nil, sql.ErrNoRows)
			},
			errorIs: customError.ErrAmountOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loanRepo := &mocks.MockLoanRepository{}
			paymentRepo := &mocks.MockPaymentRepository{}
			tt.setupMocks(loanRepo)

			service := newTestService(loanRepo, paymentRepo)
			resp, err := service.CreateLoan(context.Background(), tt.request)

			if tt.errorIs != nil {
				assert.ErrorIs(t, err, tt.errorIs)
				assert.Nil(t, resp)
			} else {
				require.NoError(t, err)
				tt.validate(t, resp)
			}
			loanRepo.AssertExpectations(t)
		})
	}
}

func TestRecordPayment_Success(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	paymentRepo := &mocks.MockPaymentRepository{}
	service := newTestService(loanRepo, paymentRepo)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	schedule, err := service.engine.Generator.Generate(testProduct(), decimal.NewFromInt(10000), start)
	require.NoError(t, err)
	for i := range schedule.Installments {
		schedule.Installments[i].LoanID = "LN-1"
	}

	loan := &domain.Loan{LoanID: "LN-1", Status: domain.LoanStatusActive, TotalPayable: schedule.TotalPayable}
	loanRepo.On("GetByLoanID", mock.Anything, "LN-1").Return(loan, nil)
	paymentRepo.On("GetByReference", mock.Anything, "LN-1", "PAY-1").Return(nil, nil)
	loanRepo.On("GetInstallmentsByLoanID", mock.Anything, "LN-1").Return(schedule.Installments, nil)
	paymentRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
		return p.Reference == "PAY-1" && len(p.Allocations) == 2
	})).Return(nil)
	loanRepo.On("UpdateInstallments", mock.Anything, mock.Anything).Return(nil)

	resp, err := service.RecordPayment(context.Background(), "LN-1", &domain.PaymentRequest{
		Amount:    decimal.NewFromInt(900),
		Mode:      "transfer",
		Reference: "PAY-1",
		PaidAt:    time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.True(t, resp.Excess.IsZero())
	require.Len(t, resp.Applied, 2)
	assert.True(t, resp.Applied[0].Principal.Add(resp.Applied[0].Interest).Equal(decimal.NewFromInt(857)))
	assert.True(t, resp.Applied[1].Interest.Equal(decimal.NewFromInt(43)))

	loanRepo.AssertExpectations(t)
	paymentRepo.AssertExpectations(t)
}

func TestRecordPayment_DuplicateReference(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	paymentRepo := &mocks.MockPaymentRepository{}
	service := newTestService(loanRepo, paymentRepo)

	loanRepo.On("GetByLoanID", mock.Anything, "LN-1").
		Return(&domain.Loan{LoanID: "LN-1", Status: domain.LoanStatusActive}, nil)
	paymentRepo.On("GetByReference", mock.Anything, "LN-1", "PAY-1").
		Return(&domain.Payment{Reference: "PAY-1"}, nil)

	_, err := service.RecordPayment(context.Background(), "LN-1", &domain.PaymentRequest{
		Amount:    decimal.NewFromInt(900),
		Mode:      "cash",
		Reference: "PAY-1",
	})
	assert.ErrorIs(t, err, customError.ErrDuplicatePayment)
}

func TestRecordPayment_ClosesLoan(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	paymentRepo := &mocks.MockPaymentRepository{}
	service := newTestService(loanRepo, paymentRepo)

	inst := domain.Installment{
		LoanID:    "LN-1",
		Number:    1,
		DueDate:   time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
		Principal: decimal.NewFromInt(500),
		Status:    domain.InstallmentStatusOverdue,
	}
	loan := &domain.Loan{LoanID: "LN-1", Status: domain.LoanStatusActive}

	loanRepo.On("GetByLoanID", mock.Anything, "LN-1").Return(loan, nil)
	paymentRepo.On("GetByReference", mock.Anything, "LN-1", "PAY-9").Return(nil, nil)
	loanRepo.On("GetInstallmentsByLoanID", mock.Anything, "LN-1").
		Return([]domain.Installment{inst}, nil)
	paymentRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	loanRepo.On("UpdateInstallments", mock.Anything, mock.Anything).Return(nil)
	loanRepo.On("Update", mock.Anything, mock.MatchedBy(func(l *domain.Loan) bool {
		return l.Status == domain.LoanStatusClosed
	})).Return(nil)

	resp, err := service.RecordPayment(context.Background(), "LN-1", &domain.PaymentRequest{
		Amount:    decimal.NewFromInt(700),
		Mode:      "cash",
		Reference: "PAY-9",
	})
	require.NoError(t, err)
	assert.True(t, resp.Excess.Equal(decimal.NewFromInt(200)))
	loanRepo.AssertExpectations(t)
}

func TestListPayments(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	paymentRepo := &mocks.MockPaymentRepository{}
	service := newTestService(loanRepo, paymentRepo)

	payments := []*domain.Payment{
		{LoanID: "LN-1", Reference: "PAY-1", Amount: decimal.NewFromInt(857)},
		{LoanID: "LN-1", Reference: "PAY-2", Amount: decimal.NewFromInt(900), Excess: decimal.NewFromInt(43)},
	}
	loanRepo.On("GetByLoanID", mock.Anything, "LN-1").
		Return(&domain.Loan{LoanID: "LN-1", Status: domain.LoanStatusActive}, nil)
	paymentRepo.On("GetByLoanID", mock.Anything, "LN-1").Return(payments, nil)
	paymentRepo.On("GetTotalPaid", mock.Anything, "LN-1").Return(decimal.NewFromInt(1714), nil)

	resp, err := service.ListPayments(context.Background(), "LN-1")
	require.NoError(t, err)
	assert.Len(t, resp.Payments, 2)
	assert.True(t, resp.TotalPaid.Equal(decimal.NewFromInt(1714)))
	paymentRepo.AssertExpectations(t)
}

func TestListCharges(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	paymentRepo := &mocks.MockPaymentRepository{}
	service := newTestService(loanRepo, paymentRepo)

	charges := []domain.Charge{
		{LoanID: "LN-1", Type: domain.ChargeTypeBounce, Amount: decimal.NewFromInt(25)},
		{LoanID: "LN-1", Type: domain.ChargeTypeLegal, Amount: decimal.NewFromInt(600)},
	}
	loanRepo.On("GetByLoanID", mock.Anything, "LN-1").
		Return(&domain.Loan{LoanID: "LN-1", Status: domain.LoanStatusLegal}, nil)
	loanRepo.On("GetChargesByLoanID", mock.Anything, "LN-1").Return(charges, nil)

	resp, err := service.ListCharges(context.Background(), "LN-1")
	require.NoError(t, err)
	assert.Len(t, resp.Charges, 2)
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(625)))
	loanRepo.AssertExpectations(t)
}

func TestApplyCharge_Bounce(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	paymentRepo := &mocks.MockPaymentRepository{}
	service := newTestService(loanRepo, paymentRepo)

	inst := domain.Installment{
		LoanID:    "LN-1",
		Number:    1,
		DueDate:   time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
		Principal: decimal.NewFromInt(500),
		Status:    domain.InstallmentStatusOverdue,
	}
	loan := &domain.Loan{LoanID: "LN-1", Status: domain.LoanStatusActive}

	loanRepo.On("GetByLoanID", mock.Anything, "LN-1").Return(loan, nil)
	loanRepo.On("GetInstallmentsByLoanID", mock.Anything, "LN-1").
		Return([]domain.Installment{inst}, nil)
	loanRepo.On("GetLegalState", mock.Anything, "LN-1").Return(nil, nil)
	loanRepo.On("CreateCharge", mock.Anything, mock.MatchedBy(func(c *domain.Charge) bool {
		return c.Type == domain.ChargeTypeBounce && c.Amount.Equal(decimal.NewFromInt(25))
	})).Return(nil)
	loanRepo.On("UpdateInstallments", mock.Anything, mock.MatchedBy(func(installments []domain.Installment) bool {
		return installments[0].Fee.Equal(decimal.NewFromInt(25))
	})).Return(nil)
	loanRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	resp, err := service.ApplyCharge(context.Background(), "LN-1", &domain.ChargeRequest{
		Type:              domain.ChargeTypeBounce,
		InstallmentNumber: 1,
	})
	require.NoError(t, err)
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(25)))
	loanRepo.AssertExpectations(t)
}

func TestTopUp_ReplacesTail(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	paymentRepo := &mocks.MockPaymentRepository{}
	service := newTestService(loanRepo, paymentRepo)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	schedule, err := service.engine.Generator.Generate(testProduct(), decimal.NewFromInt(10000), start)
	require.NoError(t, err)
	installments := schedule.Installments
	for i := range installments {
		installments[i].LoanID = "LN-1"
	}
	// first two settled
	for i := 0; i < 2; i++ {
		installments[i].PrincipalPaid = installments[i].Principal
		installments[i].InterestPaid = installments[i].Interest
		installments[i].Status = domain.InstallmentStatusPaid
	}

	loan := &domain.Loan{
		LoanID:      "LN-1",
		ProductCode: "FLAT-14W",
		Principal:   decimal.NewFromInt(10000),
		Status:      domain.LoanStatusActive,
	}
	loanRepo.On("GetByLoanID", mock.Anything, "LN-1").Return(loan, nil)
	loanRepo.On("GetInstallmentsByLoanID", mock.Anything, "LN-1").Return(installments, nil)
	loanRepo.On("ReplaceInstallments", mock.Anything, "LN-1", mock.MatchedBy(func(tail []domain.Installment) bool {
		return len(tail) == 14 && tail[0].Number == 3
	})).Return(nil)
	loanRepo.On("Update", mock.Anything, mock.MatchedBy(func(l *domain.Loan) bool {
		return l.Principal.Equal(decimal.NewFromInt(15000))
	})).Return(nil)

	updated, err := service.TopUp(context.Background(), "LN-1", &domain.TopUpRequest{
		Amount: decimal.NewFromInt(5000),
		Date:   start.AddDate(0, 0, 20),
	})
	require.NoError(t, err)
	assert.Len(t, updated.Installments, 16)
	loanRepo.AssertExpectations(t)
}

func TestAccrueOverdue(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	paymentRepo := &mocks.MockPaymentRepository{}
	service := newTestService(loanRepo, paymentRepo)

	asOf := time.Date(2025, 2, 7, 0, 0, 0, 0, time.UTC)
	overdue := []domain.Installment{
		{
			LoanID:    "LN-1",
			Number:    1,
			DueDate:   time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
			Principal: decimal.NewFromInt(714),
			Interest:  decimal.NewFromInt(143),
			Status:    domain.InstallmentStatusPending,
		},
	}

	loanRepo.On("ListActiveLoanIDs", mock.Anything).Return([]string{"LN-1"}, nil)
	loanRepo.On("GetOverdueInstallments", mock.Anything, "LN-1", asOf).Return(overdue, nil)
	loanRepo.On("UpdateInstallments", mock.Anything, mock.MatchedBy(func(changed []domain.Installment) bool {
		// only the past-due installment changes: overdue with a 26 penalty
		return len(changed) == 1 &&
			changed[0].Status == domain.InstallmentStatusOverdue &&
			changed[0].Penalty.Equal(decimal.NewFromInt(26))
	})).Return(nil)

	updated, err := service.AccrueOverdue(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	loanRepo.AssertExpectations(t)
}
