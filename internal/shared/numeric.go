package shared

import "github.com/shopspring/decimal"

// Column scales: quantities are NUMERIC(_,3), money NUMERIC(_,2).
const (
	QuantityPlaces int32 = 3
	MoneyPlaces    int32 = 2
)

// FitsQuantity reports whether d is stored without rounding in a quantity column.
func FitsQuantity(d decimal.Decimal) bool {
	return d.Truncate(QuantityPlaces).Equal(d)
}

// FitsMoney reports whether d is stored without rounding in a money column.
func FitsMoney(d decimal.Decimal) bool {
	return d.Truncate(MoneyPlaces).Equal(d)
}

// ValidQuantity is a positive quantity within column scale.
func ValidQuantity(d decimal.Decimal) bool {
	return d.IsPositive() && FitsQuantity(d)
}

// ValidAmount is a non-negative money amount within column scale.
func ValidAmount(d decimal.Decimal) bool {
	return !d.IsNegative() && FitsMoney(d)
}
