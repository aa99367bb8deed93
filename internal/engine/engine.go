// Package engine implements the loan amortization and payment-allocation
// core: schedule generation, penalty accrual, discretionary charges, the
// payment waterfall, and top-up restructuring. It is purely computational:
// no I/O, no shared state, and no mutation of its inputs.
package engine

import (
	"github.com/shopspring/decimal"
)

// Config carries the operational constants the engine consumes. They are
// injected from deployment configuration, never hard-coded here.
type Config struct {
	// CurrencyPlaces is the number of decimal places of the smallest
	// currency unit. Zero for whole-unit currencies such as rupiah.
	CurrencyPlaces     int32
	MonthlyPenaltyRate decimal.Decimal
	BounceCharge       decimal.Decimal
	FieldVisitCharge   decimal.Decimal
	LegalOneTimeFee    decimal.Decimal
	LegalWeeklyFee     decimal.Decimal
}

// Engine bundles the engine components behind one constructor for callers
// that want the whole surface wired consistently.
type Engine struct {
	Catalog   *Catalog
	Generator *ScheduleGenerator
	Penalty   *PenaltyCalculator
	Charges   *ChargeApplier
	Allocator *Allocator
	TopUps    *TopUpProcessor
}

func New(cfg Config, catalog *Catalog) *Engine {
	gen := NewScheduleGenerator(cfg.CurrencyPlaces)
	return &Engine{
		Catalog:   catalog,
		Generator: gen,
		Penalty:   NewPenaltyCalculator(cfg.MonthlyPenaltyRate, cfg.CurrencyPlaces),
		Charges:   NewChargeApplier(cfg),
		Allocator: NewAllocator(cfg.CurrencyPlaces),
		TopUps:    NewTopUpProcessor(gen),
	}
}
