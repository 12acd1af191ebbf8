package domain

import "github.com/shopspring/decimal"

// FormatMoney renders an amount in roubles, dropping kopecks when they are zero.
func FormatMoney(d decimal.Decimal) string {
	if d.IsInteger() {
		return d.StringFixed(0) + " ₽"
	}
	return d.StringFixed(2) + " ₽"
}

// LineTotal is unit price times quantity.
func LineTotal(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}
