package domain

import "github.com/shopspring/decimal"

// CartLine is a persisted cart row joined with its product.
type CartLine struct {
	ID        int64 `db:"id"`
	UserID    int64 `db:"user_id"`
	ProductID int64 `db:"product_id"`
	Quantity  int   `db:"quantity"`
	Product   Product
}

// Subtotal is the line price at the product's current catalog price.
func (l CartLine) Subtotal() decimal.Decimal {
	return LineTotal(l.Product.Price, l.Quantity)
}

// CartTotal sums the subtotals of lines.
func CartTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// CartCount sums quantities across lines.
func CartCount(lines []CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}
