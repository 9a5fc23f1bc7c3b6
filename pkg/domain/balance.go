package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Balance is a monetary amount held by the external ledger.
type Balance struct {
	decimal.Decimal
}

// ZeroBalance is the empty amount.
var ZeroBalance = Balance{}

// NewBalance builds a whole-unit balance.
func NewBalance(units int64) Balance {
	return Balance{decimal.NewFromInt(units)}
}

// ParseBalance parses a whole number of units such as "100". Fractional
// amounts like "12.5" are rejected.
func ParseBalance(raw string) (Balance, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Balance{}, fmt.Errorf("parse balance %q: %w", raw, err)
	}
	if !d.IsInteger() {
		return Balance{}, fmt.Errorf("parse balance %q: must be a whole number of units", raw)
	}
	return Balance{d}, nil
}

// Plus returns b + other.
func (b Balance) Plus(other Balance) Balance {
	return Balance{b.Add(other.Decimal)}
}

// Minus returns b - other.
func (b Balance) Minus(other Balance) Balance {
	return Balance{b.Sub(other.Decimal)}
}

// LessThan reports whether b < other.
func (b Balance) LessThan(other Balance) bool {
	return b.Decimal.LessThan(other.Decimal)
}

// Ptr returns a pointer to a copy of b, for optional price fields.
func (b Balance) Ptr() *Balance {
	return &b
}
