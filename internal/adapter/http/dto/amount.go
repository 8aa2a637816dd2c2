package dto

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
)

// Amount is a money value in minor units that travels as a major-unit
// decimal string ("40.00"). Plain JSON numbers are accepted on input.
type Amount int64

// MarshalJSON renders the amount with exactly two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(domain.FormatAmount(int64(a)))
}

// UnmarshalJSON parses "40.00", "40" or 40. More than two decimals is
// domain.ErrInvalidAmount.
func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidAmount, err.Error())
	}
	minor, err := domain.AmountFromDecimal(d)
	if err != nil {
		return err
	}
	*a = Amount(minor)
	return nil
}

// Minor returns the amount in minor units.
func (a Amount) Minor() int64 {
	return int64(a)
}
