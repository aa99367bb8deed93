package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/andisari/loan-engine/internal/domain"
)

func overdueInstallment() domain.Installment {
	return domain.Installment{
		Number:    1,
		DueDate:   time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
		Principal: decimal.NewFromInt(714),
		Interest:  decimal.NewFromInt(143),
		Status:    domain.InstallmentStatusPending,
	}
}

func TestPenalty_Accrue(t *testing.T) {
	calc := NewPenaltyCalculator(decimal.NewFromFloat(0.03), 0)

	tests := []struct {
		name     string
		mutate   func(*domain.Installment)
		asOf     time.Time
		expected int64
	}{
		{
			name:     "not yet due",
			asOf:     time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
			expected: 0,
		},
		{
			name:     "thirty days past due accrues one full month",
			asOf:     time.Date(2025, 2, 7, 0, 0, 0, 0, time.UTC),
			expected: 26, // (714 + 143) * 0.03 * 30/30 = 25.71 -> 26
		},
		{
			name:     "fifteen days past due pro-rates the monthly rate",
			asOf:     time.Date(2025, 1, 23, 0, 0, 0, 0, time.UTC),
			expected: 13, // 857 * 0.03 * 15/30 = 12.855 -> 13
		},
		{
			name: "paid installment accrues nothing",
			mutate: func(i *domain.Installment) {
				i.Status = domain.InstallmentStatusPaid
			},
			asOf:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			expected: 0,
		},
		{
			name: "partial payment shrinks the base",
			mutate: func(i *domain.Installment) {
				i.Status = domain.InstallmentStatusPartial
				i.InterestPaid = decimal.NewFromInt(143)
				i.PrincipalPaid = decimal.NewFromInt(257)
			},
			asOf:     time.Date(2025, 2, 7, 0, 0, 0, 0, time.UTC),
			expected: 14, // remaining 457 * 0.03 = 13.71 -> 14
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := overdueInstallment()
			if tt.mutate != nil {
				tt.mutate(&inst)
			}
			got := calc.Accrue(inst, tt.asOf)
			assert.True(t, got.Equal(decimal.NewFromInt(tt.expected)),
				"penalty = %s, want %d", got, tt.expected)
		})
	}
}

func TestPenalty_AccrueIsIdempotent(t *testing.T) {
	calc := NewPenaltyCalculator(decimal.NewFromFloat(0.03), 0)
	inst := overdueInstallment()
	asOf := time.Date(2025, 2, 7, 0, 0, 0, 0, time.UTC)

	first := calc.Accrue(inst, asOf)
	inst.Penalty = first
	second := calc.Accrue(inst, asOf)

	assert.True(t, first.Equal(second), "recompute drifted: %s then %s", first, second)
}

func TestPenalty_RefreshMarksOverdue(t *testing.T) {
	calc := NewPenaltyCalculator(decimal.NewFromFloat(0.03), 0)
	inst := overdueInstallment()

	refreshed := calc.Refresh(inst, time.Date(2025, 2, 7, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, domain.InstallmentStatusOverdue, refreshed.Status)
	assert.True(t, refreshed.Penalty.Equal(decimal.NewFromInt(26)))
	// input untouched
	assert.Equal(t, domain.InstallmentStatusPending, inst.Status)
}

func TestPenalty_RefreshKeepsPaidPenaltyCounted(t *testing.T) {
	calc := NewPenaltyCalculator(decimal.NewFromFloat(0.03), 0)
	inst := overdueInstallment()
	inst.Status = domain.InstallmentStatusPartial
	inst.Penalty = decimal.NewFromInt(10)
	inst.PenaltyPaid = decimal.NewFromInt(10)

	refreshed := calc.Refresh(inst, time.Date(2025, 2, 7, 0, 0, 0, 0, time.UTC))

	// accrued due stays 26 on top of what was already collected
	assert.True(t, refreshed.PenaltyDue().Equal(decimal.NewFromInt(26)))
}
