package money

import (
	"time"

	"github.com/shopspring/decimal"
)

// Round2 rounds a monetary value to 2 decimal places using round-half-up.
// All customer-facing amounts in the system go through this function so
// that rounding behaves identically everywhere.
func Round2(d decimal.Decimal) decimal.Decimal {
	// decimal.Round rounds half away from zero, which is half-up for
	// the non-negative amounts this system deals in.
	return d.Round(2)
}

// Round2Float rounds a float64 amount to 2 decimal places (half-up) and
// returns it as a float64. Used at API boundaries where models carry
// plain floats.
func Round2Float(v float64) float64 {
	f, _ := Round2(decimal.NewFromFloat(v)).Float64()
	return f
}

// FromFloat converts a float64 amount into a decimal for precise arithmetic.
func FromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// Percent applies pct percent to amount: amount * (pct / 100).
func Percent(amount decimal.Decimal, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(decimal.NewFromInt(100))
}

// MinorUnits converts an amount to integer minor units (cents) for the
// payment gateway. The amount is rounded to 2 decimal places first.
func MinorUnits(d decimal.Decimal) int64 {
	return Round2(d).Mul(decimal.NewFromInt(100)).IntPart()
}

// WithinWindow reports whether now falls inside [start, end], inclusive
// on both ends. Used for coupon validity windows.
func WithinWindow(now, start, end time.Time) bool {
	if now.Before(start) {
		return false
	}
	if now.After(end) {
		return false
	}
	return true
}
