package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andisari/loan-engine/internal/domain"
	customError "github.com/andisari/loan-engine/pkg/errors"
)

func weeklyFlatProduct() domain.LoanProduct {
	return domain.LoanProduct{
		Code:             "FLAT-14W",
		TermDays:         98,
		InstallmentCount: 14,
		FrequencyDays:    7,
		InterestType:     domain.InterestTypeFlat,
		InterestRate:     decimal.NewFromFloat(0.20),
		MinAmount:        decimal.NewFromInt(1000),
		MaxAmount:        decimal.NewFromInt(50000),
	}
}

func monthlyReducingProduct() domain.LoanProduct {
	return domain.LoanProduct{
		Code:             "RED-12M",
		TermDays:         360,
		InstallmentCount: 12,
		FrequencyDays:    30,
		InterestType:     domain.InterestTypeReducing,
		InterestRate:     decimal.NewFromFloat(0.12),
		MinAmount:        decimal.NewFromInt(100000),
		MaxAmount:        decimal.NewFromInt(10000000),
	}
}

func TestGenerate_FlatWeekly(t *testing.T) {
	gen := NewScheduleGenerator(0)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	schedule, err := gen.Generate(weeklyFlatProduct(), decimal.NewFromInt(10000), start)
	require.NoError(t, err)
	require.Len(t, schedule.Installments, 14)

	assert.True(t, schedule.InterestTotal.Equal(decimal.NewFromInt(2000)),
		"interest total = %s", schedule.InterestTotal)
	assert.True(t, schedule.TotalPayable.Equal(decimal.NewFromInt(12000)))
	assert.True(t, schedule.PeriodicAmount.Equal(decimal.NewFromInt(857)))

	first := schedule.Installments[0]
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC), first.DueDate)
	assert.Equal(t, domain.InstallmentStatusPending, first.Status)
	assert.True(t, first.Principal.Add(first.Interest).Equal(decimal.NewFromInt(857)))

	// weekly due dates with no gaps in numbering
	for i, inst := range schedule.Installments {
		assert.Equal(t, i+1, inst.Number)
		assert.Equal(t, start.AddDate(0, 0, 7*(i+1)), inst.DueDate)
	}
}

func TestGenerate_ConservationOfPrincipal(t *testing.T) {
	tests := []struct {
		name      string
		product   domain.LoanProduct
		principal decimal.Decimal
	}{
		{"flat even split", weeklyFlatProduct(), decimal.NewFromInt(10000)},
		{"flat awkward principal", weeklyFlatProduct(), decimal.NewFromInt(9999)},
		{"reducing monthly", monthlyReducingProduct(), decimal.NewFromInt(1200000)},
		{"reducing awkward principal", monthlyReducingProduct(), decimal.NewFromInt(999999)},
		{
			"daily apr weekly",
			domain.LoanProduct{
				Code:             "APR-10W",
				InstallmentCount: 10,
				FrequencyDays:    7,
				InterestType:     domain.InterestTypeDailyAPR,
				InterestRate:     decimal.NewFromFloat(0.36),
			},
			decimal.NewFromInt(70001),
		},
	}

	gen := NewScheduleGenerator(0)
	start := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule, err := gen.Generate(tt.product, tt.principal, start)
			require.NoError(t, err)

			sum := decimal.Zero
			for _, inst := range schedule.Installments {
				sum = sum.Add(inst.Principal)
			}
			assert.True(t, sum.Equal(tt.principal),
				"principal components sum to %s, want %s", sum, tt.principal)

			last := schedule.Installments[len(schedule.Installments)-1]
			assert.True(t, last.Balance.IsZero(), "final balance = %s", last.Balance)
		})
	}
}

func TestGenerate_FlatInterestTotal(t *testing.T) {
	gen := NewScheduleGenerator(0)
	product := weeklyFlatProduct()
	principal := decimal.NewFromInt(9999)

	schedule, err := gen.Generate(product, principal, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	sum := decimal.Zero
	for _, inst := range schedule.Installments {
		sum = sum.Add(inst.Interest)
	}
	expected := principal.Mul(product.InterestRate).Round(0)
	tolerance := decimal.NewFromInt(int64(product.InstallmentCount))
	assert.True(t, sum.Sub(expected).Abs().LessThanOrEqual(tolerance),
		"interest sum %s deviates from %s beyond tolerance", sum, expected)
}

func TestGenerate_FlatLowRateInterestNeverNegative(t *testing.T) {
	// sub-1% rates leave so little interest that per-period rounding can
	// outrun the pool; the schedule must still close with every component
	// non-negative and both sums exact
	gen := NewScheduleGenerator(0)
	product := weeklyFlatProduct()
	product.InterestRate = decimal.NewFromFloat(0.001)
	principal := decimal.NewFromInt(10000)

	schedule, err := gen.Generate(product, principal, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	principalSum := decimal.Zero
	interestSum := decimal.Zero
	for _, inst := range schedule.Installments {
		assert.False(t, inst.Interest.IsNegative(),
			"installment %d interest = %s", inst.Number, inst.Interest)
		assert.False(t, inst.Principal.IsNegative(),
			"installment %d principal = %s", inst.Number, inst.Principal)
		principalSum = principalSum.Add(inst.Principal)
		interestSum = interestSum.Add(inst.Interest)
	}
	assert.True(t, principalSum.Equal(principal))
	assert.True(t, interestSum.Equal(decimal.NewFromInt(10)))
	assert.True(t, schedule.TotalPayable.Equal(decimal.NewFromInt(10010)))

	// paying the schedule off collects exactly the total payable, with no
	// consistency warnings against freshly generated data
	allocator := NewAllocator(0)
	result, err := allocator.Apply(schedule.Installments, paymentOf(10010, time.Now()))
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
	assert.True(t, result.Excess.IsZero(), "excess = %s", result.Excess)
	for _, inst := range result.Installments {
		assert.Equal(t, domain.InstallmentStatusPaid, inst.Status)
	}
}

func TestGenerate_NonPositiveInstallmentCount(t *testing.T) {
	gen := NewScheduleGenerator(0)

	for _, count := range []int{0, -1} {
		product := weeklyFlatProduct()
		product.InstallmentCount = count

		_, err := gen.Generate(product, decimal.NewFromInt(10000), time.Now())
		assert.ErrorIs(t, err, customError.ErrInvalidProductTerms)
	}
}

func TestGenerate_ReducingBalanceMonotonic(t *testing.T) {
	gen := NewScheduleGenerator(0)

	schedule, err := gen.Generate(monthlyReducingProduct(), decimal.NewFromInt(1200000),
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	prev := decimal.NewFromInt(1200000)
	for _, inst := range schedule.Installments {
		assert.True(t, inst.Balance.LessThanOrEqual(prev),
			"balance grew at installment %d: %s > %s", inst.Number, inst.Balance, prev)
		// interest charged on the running balance at the 30/360 period rate
		expectedInterest := prev.Mul(decimal.NewFromFloat(0.01)).Round(0)
		assert.True(t, inst.Interest.Equal(expectedInterest),
			"installment %d interest %s, want %s", inst.Number, inst.Interest, expectedInterest)
		prev = inst.Balance
	}
	assert.True(t, prev.IsZero())
}

func TestGenerate_ReducingZeroRate(t *testing.T) {
	gen := NewScheduleGenerator(0)
	product := monthlyReducingProduct()
	product.InterestRate = decimal.Zero

	schedule, err := gen.Generate(product, decimal.NewFromInt(120000),
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.True(t, schedule.InterestTotal.IsZero())
	assert.True(t, schedule.TotalPayable.Equal(decimal.NewFromInt(120000)))
	for _, inst := range schedule.Installments[:11] {
		assert.True(t, inst.Principal.Equal(decimal.NewFromInt(10000)))
	}
}

func TestGenerate_DailyAPRUsesElapsedDays(t *testing.T) {
	gen := NewScheduleGenerator(0)
	product := domain.LoanProduct{
		Code:             "APR-4W",
		InstallmentCount: 4,
		FrequencyDays:    7,
		InterestType:     domain.InterestTypeDailyAPR,
		InterestRate:     decimal.NewFromFloat(0.365),
	}
	principal := decimal.NewFromInt(100000)

	schedule, err := gen.Generate(product, principal, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// 7 elapsed days on the opening balance: 100000 * 0.365 * 7 / 365 = 700
	assert.True(t, schedule.Installments[0].Interest.Equal(decimal.NewFromInt(700)),
		"first period interest = %s", schedule.Installments[0].Interest)
	// second period accrues on the reduced balance of 75000
	assert.True(t, schedule.Installments[1].Interest.Equal(decimal.NewFromInt(525)),
		"second period interest = %s", schedule.Installments[1].Interest)
}

func TestGenerate_UnknownInterestType(t *testing.T) {
	gen := NewScheduleGenerator(0)
	product := weeklyFlatProduct()
	product.InterestType = "balloon"

	_, err := gen.Generate(product, decimal.NewFromInt(10000), time.Now())
	assert.ErrorIs(t, err, customError.ErrUnknownInterestType)
}
