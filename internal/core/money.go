// Package core provides money parsing and handling utilities.
//
// This file contains the codec between decimal currency strings and integer
// minor units (cents). All arithmetic goes through shopspring/decimal so no
// float rounding ever touches an amount.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MinorPerMajor is the number of minor units in one major currency unit.
const MinorPerMajor = 100

// Bounds on accepted amount literals. Rescaling a decimal allocates a
// power of ten sized by its exponent, so both are capped before any
// arithmetic.
const (
	maxAmountLength   = 64
	maxAmountExponent = 64
)

var hundred = decimal.NewFromInt(MinorPerMajor)

// ParseAmount parses a decimal currency string into a decimal value.
// Surrounding whitespace is ignored. Returns ErrInvalidAmount for anything
// that is not a finite decimal number, and for literals longer than 64
// characters or with an exponent outside [-64, 64].
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxAmountLength {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if exp := d.Exponent(); exp < -maxAmountExponent || exp > maxAmountExponent {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ToMinorUnits converts a decimal string to minor units.
//
// The value is multiplied by 100 and rounded half away from zero, so the
// third fractional digit decides the rounding:
//
//	ToMinorUnits("12.34")  -> 1234
//	ToMinorUnits("12.345") -> 1235
//	ToMinorUnits("12.344") -> 1234
//	ToMinorUnits("-0.005") -> -1
//
// Sign is preserved; positivity is a validation concern, not a codec one.
func ToMinorUnits(s string) (int64, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return 0, err
	}
	return decimalToMinor(d)
}

func decimalToMinor(d decimal.Decimal) (int64, error) {
	minor := d.Mul(hundred).Round(0)
	if !minor.BigInt().IsInt64() {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// ToDecimalString formats minor units as a decimal string with exactly two
// fractional digits (1234 -> "12.34", 5 -> "0.05").
func ToDecimalString(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

// String renders the amount as a two-digit decimal string.
func (m Money) String() string {
	return ToDecimalString(m.Minor)
}

// Add returns the sum of two amounts in minor units.
func (m Money) Add(o Money) Money {
	return Money{Minor: m.Minor + o.Minor}
}
