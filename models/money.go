package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

// The mobile client formats prices with toFixed, so money goes over the wire as a JSON number.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

const minorUnitsPerMajor = 100

var (
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrSubCentAmount  = errors.New("amount has more than two decimal places")
)

// ToMinorUnits converts a major-unit amount (19.99) to the processor's minor units (1999).
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if amount.IsNegative() {
		return 0, ErrNegativeAmount
	}
	if !amount.Equal(amount.Round(2)) {
		return 0, ErrSubCentAmount
	}
	return amount.Mul(decimal.NewFromInt(minorUnitsPerMajor)).IntPart(), nil
}

func FromMinorUnits(n int64) decimal.Decimal {
	return decimal.New(n, -2)
}

func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
