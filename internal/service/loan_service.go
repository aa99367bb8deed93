package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andisari/loan-engine/internal/domain"
	"github.com/andisari/loan-engine/internal/engine"
	"github.com/andisari/loan-engine/internal/repository"
	customError "github.com/andisari/loan-engine/pkg/errors"
	"github.com/andisari/loan-engine/pkg/utils"
)

const outstandingCacheTTL = time.Hour

// LoanService drives the engine against persisted state. The engine itself
// is pure; this layer owns loading, persisting, payment idempotency and the
// outstanding-balance cache. Callers must serialize operations per loan id;
// payment allocation is not commutative.
type LoanService struct {
	loanRepo    repository.LoanRepository
	paymentRepo repository.PaymentRepository
	engine      *engine.Engine
	redis       *redis.Client
	logger      *zap.Logger
}

func NewLoanService(
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	eng *engine.Engine,
	redisClient *redis.Client,
	logger *zap.Logger,
) *LoanService {
	return &LoanService{
		loanRepo:    loanRepo,
		paymentRepo: paymentRepo,
		engine:      eng,
		redis:       redisClient,
		logger:      logger,
	}
}

// PreviewLoan computes the upfront charges and schedule for a prospective
// loan without persisting anything.
func (s *LoanService) PreviewLoan(ctx context.Context, productCode string, principal decimal.Decimal, startDate time.Time) (*domain.PreviewResponse, error) {
	product, err := s.engine.Catalog.Lookup(productCode)
	if err != nil {
		return nil, err
	}
	if err = s.engine.Catalog.ValidateAmount(product, principal); err != nil {
		return nil, err
	}

	schedule, err := s.engine.Generator.Generate(product, principal, startDate)
	if err != nil {
		return nil, err
	}
	upfront := s.engine.Catalog.UpfrontCharges(product, principal)
	return &domain.PreviewResponse{
		Product:  &product,
		Upfront:  &upfront,
		Schedule: schedule.Installments,
	}, nil
}

// CreateLoan validates the request against the product, generates the
// schedule and persists both.
func (s *LoanService) CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.CreateLoanResponse, error) {
	existing, err := s.loanRepo.GetByLoanID(ctx, request.LoanID)
	if err == nil && existing != nil {
		return nil, customError.WrapLoanAlreadyExists(request.LoanID)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}

	product, err := s.engine.Catalog.Lookup(request.ProductCode)
	if err != nil {
		return nil, err
	}
	if err = s.engine.Catalog.ValidateAmount(product, request.Principal); err != nil {
		return nil, err
	}

	startDate := request.StartDate
	if startDate.IsZero() {
		startDate = utils.Midnight(time.Now())
	}

	schedule, err := s.engine.Generator.Generate(product, request.Principal, startDate)
	if err != nil {
		return nil, err
	}
	upfront := s.engine.Catalog.UpfrontCharges(product, request.Principal)

	now := time.Now().UTC()
	loan := &domain.Loan{
		ID:             uuid.New(),
		LoanID:         request.LoanID,
		ProductCode:    product.Code,
		Principal:      request.Principal,
		StartDate:      startDate,
		InterestTotal:  schedule.InterestTotal,
		TotalPayable:   schedule.TotalPayable,
		PeriodicAmount: schedule.PeriodicAmount,
		Status:         domain.LoanStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for i := range schedule.Installments {
		schedule.Installments[i].LoanID = loan.LoanID
	}

	if err = s.loanRepo.Create(ctx, loan); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if err = s.loanRepo.CreateInstallments(ctx, schedule.Installments); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.logger.Info("loan created",
		zap.String("loan_id", loan.LoanID),
		zap.String("product", product.Code),
		zap.String("principal", loan.Principal.String()),
		zap.Int("installments", len(schedule.Installments)),
	)
	return &domain.CreateLoanResponse{
		Loan:     loan,
		Schedule: schedule.Installments,
		Upfront:  &upfront,
	}, nil
}

// GetSchedule returns the loan's persisted schedule.
func (s *LoanService) GetSchedule(ctx context.Context, loanID string) (*domain.ScheduleResponse, error) {
	if _, err := s.getLoan(ctx, loanID); err != nil {
		return nil, err
	}
	installments, err := s.loanRepo.GetInstallmentsByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return &domain.ScheduleResponse{LoanID: loanID, Schedule: installments}, nil
}

// GetOutstanding returns everything still owed on the loan, cached in Redis
// until the next mutation.
func (s *LoanService) GetOutstanding(ctx context.Context, loanID string) (*domain.OutstandingResponse, error) {
	cacheKey := outstandingKey(loanID)
	if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
		if outstanding, parseErr := decimal.NewFromString(cached); parseErr == nil {
			return &domain.OutstandingResponse{LoanID: loanID, Outstanding: outstanding, AsOf: time.Now()}, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn("outstanding cache read failed", zap.String("loan_id", loanID), zap.Error(err))
	}

	if _, err := s.getLoan(ctx, loanID); err != nil {
		return nil, err
	}
	installments, err := s.loanRepo.GetInstallmentsByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	outstanding := decimal.Zero
	for _, inst := range installments {
		outstanding = outstanding.Add(inst.TotalDue())
	}
	if outstanding.IsNegative() {
		s.logger.Warn("negative outstanding clamped to zero", zap.String("loan_id", loanID),
			zap.String("outstanding", outstanding.String()))
		outstanding = decimal.Zero
	}

	if err := s.redis.Set(ctx, cacheKey, outstanding.String(), outstandingCacheTTL).Err(); err != nil {
		s.logger.Warn("outstanding cache write failed", zap.String("loan_id", loanID), zap.Error(err))
	}
	return &domain.OutstandingResponse{LoanID: loanID, Outstanding: outstanding, AsOf: time.Now()}, nil
}

// ListPayments returns the loan's payment history. TotalPaid excludes
// excess amounts, so it reflects what actually landed on the schedule.
func (s *LoanService) ListPayments(ctx context.Context, loanID string) (*domain.PaymentListResponse, error) {
	if _, err := s.getLoan(ctx, loanID); err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	totalPaid, err := s.paymentRepo.GetTotalPaid(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return &domain.PaymentListResponse{LoanID: loanID, Payments: payments, TotalPaid: totalPaid}, nil
}

// ListCharges returns every charge levied against the loan.
func (s *LoanService) ListCharges(ctx context.Context, loanID string) (*domain.ChargeResponse, error) {
	if _, err := s.getLoan(ctx, loanID); err != nil {
		return nil, err
	}
	charges, err := s.loanRepo.GetChargesByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	total := decimal.Zero
	for _, charge := range charges {
		total = total.Add(charge.Amount)
	}
	return &domain.ChargeResponse{Charges: charges, Total: total}, nil
}

// RecordPayment applies a payment through the waterfall and persists the
// result. The reference makes re-submission idempotent: a payment seen
// before is rejected instead of double-allocated.
func (s *LoanService) RecordPayment(ctx context.Context, loanID string, request *domain.PaymentRequest) (*domain.PaymentResponse, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.paymentRepo.GetByReference(ctx, loanID, request.Reference); err != nil {
		return nil, customError.WrapDatabaseError(err)
	} else if existing != nil {
		return nil, customError.WrapDuplicatePayment(request.Reference)
	}

	installments, err := s.loanRepo.GetInstallmentsByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	paidAt := request.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}
	payment := domain.Payment{
		ID:        uuid.New(),
		LoanID:    loanID,
		Amount:    request.Amount,
		PaidAt:    paidAt,
		Mode:      request.Mode,
		Reference: request.Reference,
		CreatedAt: time.Now().UTC(),
	}

	result, err := s.engine.Allocator.Apply(installments, payment)
	if err != nil {
		return nil, err
	}
	for _, warning := range result.Warnings {
		s.logger.Warn("allocation consistency warning",
			zap.String("loan_id", loanID),
			zap.String("code", warning.Code),
			zap.String("detail", warning.Message),
		)
	}

	payment.Excess = result.Excess
	payment.Allocations = result.Allocations
	if err = s.paymentRepo.Create(ctx, &payment); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if err = s.loanRepo.UpdateInstallments(ctx, result.Installments); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	loan.Installments = result.Installments
	if loan.Closed() && loan.Status != domain.LoanStatusClosed {
		loan.Status = domain.LoanStatusClosed
		if err = s.loanRepo.Update(ctx, loan); err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
		s.logger.Info("loan closed", zap.String("loan_id", loanID))
	}

	s.invalidateOutstanding(ctx, loanID)
	s.logger.Info("payment recorded",
		zap.String("loan_id", loanID),
		zap.String("reference", payment.Reference),
		zap.String("amount", payment.Amount.String()),
		zap.String("excess", payment.Excess.String()),
	)

	warnings := make([]string, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		warnings = append(warnings, w.String())
	}
	return &domain.PaymentResponse{
		Payment:  &payment,
		Applied:  result.Allocations,
		Excess:   result.Excess,
		Warnings: warnings,
	}, nil
}

// ApplyCharge applies a bounce, field-visit or legal charge to the loan.
func (s *LoanService) ApplyCharge(ctx context.Context, loanID string, request *domain.ChargeRequest) (*domain.ChargeResponse, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	loan.Installments, err = s.loanRepo.GetInstallmentsByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	loan.Legal, err = s.loanRepo.GetLegalState(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	now := time.Now().UTC()
	var (
		updated domain.Loan
		charges []domain.Charge
		total   decimal.Decimal
	)
	switch request.Type {
	case domain.ChargeTypeBounce:
		var charge domain.Charge
		updated, charge, err = s.engine.Charges.Bounce(*loan, request.InstallmentNumber, now)
		charges = []domain.Charge{charge}
		total = charge.Amount
	case domain.ChargeTypeFieldVisit:
		var charge domain.Charge
		updated, charge, err = s.engine.Charges.FieldVisit(*loan, request.InstallmentNumber, now)
		charges = []domain.Charge{charge}
		total = charge.Amount
	case domain.ChargeTypeLegal:
		var result engine.LegalResult
		updated, result, err = s.engine.Charges.Legal(*loan, now, request.WeeksInLegal)
		if err == nil {
			charges = updated.Charges[len(loan.Charges):]
			total = result.Total
		}
	default:
		return nil, customError.NewBusinessError(
			customError.ErrCodeInvalidChargeType,
			fmt.Sprintf("unknown charge type %s", request.Type),
			nil,
		)
	}
	if err != nil {
		return nil, err
	}

	for i := range charges {
		if err = s.loanRepo.CreateCharge(ctx, &charges[i]); err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
	}
	if err = s.loanRepo.UpdateInstallments(ctx, updated.Installments); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if updated.Legal != nil {
		if err = s.loanRepo.UpsertLegalState(ctx, updated.Legal); err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
	}
	if err = s.loanRepo.Update(ctx, &updated); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidateOutstanding(ctx, loanID)
	s.logger.Info("charge applied",
		zap.String("loan_id", loanID),
		zap.String("type", request.Type),
		zap.String("total", total.String()),
	)
	return &domain.ChargeResponse{Charges: charges, Total: total}, nil
}

// TopUp advances additional principal and regenerates the unpaid tail of
// the schedule.
func (s *LoanService) TopUp(ctx context.Context, loanID string, request *domain.TopUpRequest) (*domain.Loan, error) {
	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	loan.Installments, err = s.loanRepo.GetInstallmentsByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	product, err := s.engine.Catalog.Lookup(loan.ProductCode)
	if err != nil {
		return nil, err
	}

	date := request.Date
	if date.IsZero() {
		date = utils.Midnight(time.Now())
	}
	updated, tail, err := s.engine.TopUps.TopUp(*loan, product, request.Amount, date)
	if err != nil {
		return nil, err
	}

	if err = s.loanRepo.ReplaceInstallments(ctx, loanID, tail.Installments); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if err = s.loanRepo.Update(ctx, &updated); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidateOutstanding(ctx, loanID)
	s.logger.Info("loan topped up",
		zap.String("loan_id", loanID),
		zap.String("additional", request.Amount.String()),
		zap.Int("tail_installments", len(tail.Installments)),
	)
	return &updated, nil
}

func (s *LoanService) getLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByLoanID(ctx, loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapLoanNotFound(loanID)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loan, nil
}

func (s *LoanService) invalidateOutstanding(ctx context.Context, loanID string) {
	if err := s.redis.Del(ctx, outstandingKey(loanID)).Err(); err != nil {
		s.logger.Warn("outstanding cache invalidation failed",
			zap.String("loan_id", loanID), zap.Error(err))
	}
}

func outstandingKey(loanID string) string {
	return fmt.Sprintf("loan:%s:outstanding", loanID)
}
