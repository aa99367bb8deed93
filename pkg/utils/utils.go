package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// RoundMoney rounds an amount to the given number of currency decimal places
// (half away from zero). Every monetary figure the engine produces goes
// through this before it is stored or compared.
func RoundMoney(amount decimal.Decimal, places int32) decimal.Decimal {
	return amount.Round(places)
}

// DaysBetween returns whole days from one calendar date to another, ignoring
// the time-of-day portion. Negative when to precedes from.
func DaysBetween(from, to time.Time) int {
	f := Midnight(from)
	t := Midnight(to)
	return int(t.Sub(f).Hours() / 24)
}

// Midnight truncates a time to its calendar date in UTC.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DueDate computes the due date of the i-th installment (1-based) for a
// schedule starting at start with the given number of days between dues.
func DueDate(start time.Time, number int, frequencyDays int) time.Time {
	return Midnight(start).AddDate(0, 0, number*frequencyDays)
}

// DecimalFromString converts string to decimal.Decimal
func DecimalFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
