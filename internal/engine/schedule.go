package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andisari/loan-engine/internal/domain"
	customError "github.com/andisari/loan-engine/pkg/errors"
	"github.com/andisari/loan-engine/pkg/utils"
)

// Schedule is the output of schedule generation: the ordered installments
// plus the headline figures the loan record carries.
type Schedule struct {
	Installments   []domain.Installment
	InterestTotal  decimal.Decimal
	TotalPayable   decimal.Decimal
	PeriodicAmount decimal.Decimal
}

// amortizer computes the principal/interest split for every period of a
// schedule. One implementation per interest method.
type amortizer interface {
	amortize(product domain.LoanProduct, principal decimal.Decimal, dueDates []time.Time, start time.Time, places int32) ([]scheduleLine, error)
}

type scheduleLine struct {
	principal decimal.Decimal
	interest  decimal.Decimal
	balance   decimal.Decimal // outstanding principal after this period
}

// ScheduleGenerator produces a repayment schedule for a product, principal
// and start date, dispatching on the product's interest method.
type ScheduleGenerator struct {
	places int32
}

func NewScheduleGenerator(places int32) *ScheduleGenerator {
	return &ScheduleGenerator{places: places}
}

// Generate builds the schedule for a fresh loan, installment numbers 1..n.
func (g *ScheduleGenerator) Generate(product domain.LoanProduct, principal decimal.Decimal, start time.Time) (*Schedule, error) {
	return g.generate(product, principal, start, 1)
}

func (g *ScheduleGenerator) generate(product domain.LoanProduct, principal decimal.Decimal, start time.Time, firstNumber int) (*Schedule, error) {
	if product.InstallmentCount <= 0 {
		return nil, customError.NewBusinessError(
			customError.ErrCodeInvalidProductTerms,
			fmt.Sprintf("product %s has installment count %d", product.Code, product.InstallmentCount),
			customError.ErrInvalidProductTerms,
		)
	}

	var method amortizer
	switch product.InterestType {
	case domain.InterestTypeFlat:
		method = flatMethod{}
	case domain.InterestTypeReducing:
		method = reducingMethod{}
	case domain.InterestTypeDailyAPR:
		method = dailyAPRMethod{}
	default:
		return nil, customError.NewBusinessError(
			customError.ErrCodeUnknownInterestType,
			"interest type "+product.InterestType+" is not supported",
			customError.ErrUnknownInterestType,
		)
	}

	dueDates := make([]time.Time, product.InstallmentCount)
	for i := range dueDates {
		dueDates[i] = utils.DueDate(start, i+1, product.FrequencyDays)
	}

	lines, err := method.amortize(product, principal, dueDates, utils.Midnight(start), g.places)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	schedule := &Schedule{Installments: make([]domain.Installment, len(lines))}
	for i, line := range lines {
		schedule.Installments[i] = domain.Installment{
			ID:        uuid.New(),
			Number:    firstNumber + i,
			DueDate:   dueDates[i],
			Principal: line.principal,
			Interest:  line.interest,
			Balance:   line.balance,
			Status:    domain.InstallmentStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		schedule.InterestTotal = schedule.InterestTotal.Add(line.interest)
	}
	schedule.TotalPayable = principal.Add(schedule.InterestTotal)
	schedule.PeriodicAmount = utils.RoundMoney(
		schedule.TotalPayable.Div(decimal.NewFromInt(int64(product.InstallmentCount))), g.places)
	return schedule, nil
}

// flatMethod fixes total interest at origination and spreads the payable
// amount evenly, splitting each period by the principal:interest ratio.
type flatMethod struct{}

func (flatMethod) amortize(product domain.LoanProduct, principal decimal.Decimal, dueDates []time.Time, _ time.Time, places int32) ([]scheduleLine, error) {
	n := len(dueDates)
	interestTotal := utils.RoundMoney(principal.Mul(product.InterestRate), places)
	totalPayable := principal.Add(interestTotal)
	periodic := utils.RoundMoney(totalPayable.Div(decimal.NewFromInt(int64(n))), places)

	lines := make([]scheduleLine, n)
	balance := principal
	interestLeft := interestTotal
	for i := 0; i < n; i++ {
		if i == n-1 {
			// last period absorbs all rounding residue
			lines[i] = scheduleLine{principal: balance, interest: interestLeft, balance: decimal.Zero}
			break
		}
		principalShare := utils.RoundMoney(periodic.Mul(principal).Div(totalPayable), places)
		interestShare := periodic.Sub(principalShare)
		// rounding can make the per-period share outrun the interest pool on
		// low-rate products; the overflow shifts to principal so the final
		// installment never carries negative interest
		if interestShare.GreaterThan(interestLeft) {
			interestShare = interestLeft
			principalShare = periodic.Sub(interestShare)
		}
		balance = balance.Sub(principalShare)
		interestLeft = interestLeft.Sub(interestShare)
		lines[i] = scheduleLine{principal: principalShare, interest: interestShare, balance: balance}
	}
	return lines, nil
}

// reducingMethod is the standard amortizing annuity: a level payment with
// interest charged each period on the remaining balance. The per-period rate
// follows the 30/360 convention, so monthly products get annual/12.
type reducingMethod struct{}

func (reducingMethod) amortize(product domain.LoanProduct, principal decimal.Decimal, dueDates []time.Time, _ time.Time, places int32) ([]scheduleLine, error) {
	n := len(dueDates)
	periodRate := product.InterestRate.
		Mul(decimal.NewFromInt(int64(product.FrequencyDays))).
		Div(decimal.NewFromInt(360))

	var periodic decimal.Decimal
	if periodRate.IsZero() {
		periodic = utils.RoundMoney(principal.Div(decimal.NewFromInt(int64(n))), places)
	} else {
		periodic = utils.RoundMoney(annuityPayment(principal, periodRate, n), places)
	}

	lines := make([]scheduleLine, n)
	balance := principal
	for i := 0; i < n; i++ {
		interest := utils.RoundMoney(balance.Mul(periodRate), places)
		var principalShare decimal.Decimal
		if i == n-1 {
			principalShare = balance
		} else {
			principalShare = periodic.Sub(interest)
		}
		balance = balance.Sub(principalShare)
		lines[i] = scheduleLine{principal: principalShare, interest: interest, balance: balance}
	}
	return lines, nil
}

// annuityPayment solves the level payment from principal, per-period rate and
// period count: P * r * (1+r)^n / ((1+r)^n - 1).
func annuityPayment(principal, rate decimal.Decimal, periods int) decimal.Decimal {
	one := decimal.NewFromInt(1)
	compound := rate.Add(one).Pow(decimal.NewFromInt(int64(periods)))
	return principal.Mul(rate).Mul(compound).Div(compound.Sub(one))
}

// dailyAPRMethod charges interest on the actual days elapsed between due
// dates, tolerating irregular spacing. Principal is spread evenly.
type dailyAPRMethod struct{}

func (dailyAPRMethod) amortize(product domain.LoanProduct, principal decimal.Decimal, dueDates []time.Time, start time.Time, places int32) ([]scheduleLine, error) {
	n := len(dueDates)
	daysInYear := decimal.NewFromInt(365)
	evenShare := utils.RoundMoney(principal.Div(decimal.NewFromInt(int64(n))), places)

	lines := make([]scheduleLine, n)
	balance := principal
	prev := start
	for i := 0; i < n; i++ {
		days := decimal.NewFromInt(int64(utils.DaysBetween(prev, dueDates[i])))
		interest := utils.RoundMoney(
			balance.Mul(product.InterestRate).Mul(days).Div(daysInYear), places)
		principalShare := evenShare
		if i == n-1 {
			principalShare = balance
		}
		balance = balance.Sub(principalShare)
		lines[i] = scheduleLine{principal: principalShare, interest: interest, balance: balance}
		prev = dueDates[i]
	}
	return lines, nil
}
