package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MinorUnitExponent is the number of fractional digits of the ledger currency.
const MinorUnitExponent = 2

var minorUnitsPerMajor = decimal.New(1, MinorUnitExponent)

// ParseAmount converts a major-unit decimal string such as "40.00" into minor units.
// Fractions finer than one minor unit are rejected rather than rounded.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidAmount, err.Error())
	}
	return AmountFromDecimal(d)
}

// AmountFromDecimal converts a major-unit decimal into minor units.
func AmountFromDecimal(d decimal.Decimal) (int64, error) {
	minor := d.Mul(minorUnitsPerMajor)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, MinorUnitExponent)
	}
	if minor.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || minor.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}
	return minor.IntPart(), nil
}

// FormatAmount renders minor units as a fixed-point major-unit string.
func FormatAmount(minor int64) string {
	return decimal.New(minor, -MinorUnitExponent).StringFixed(MinorUnitExponent)
}

// AmountToDecimal returns minor units as a major-unit decimal.
func AmountToDecimal(minor int64) decimal.Decimal {
	return decimal.New(minor, -MinorUnitExponent)
}
