package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every valid status in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled,
}

var statusLabels = map[OrderStatus]string{
	StatusPending:   "⏳ Ожидает подтверждения",
	StatusConfirmed: "✅ Подтвержден",
	StatusPreparing: "👨‍🍳 Готовится",
	StatusReady:     "📦 Готов к выдаче",
	StatusDelivered: "🚚 Доставлен",
	StatusCancelled: "❌ Отменен",
}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the human readable status shown to customers.
func (s OrderStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Order is a placed order with its lines.
type Order struct {
	ID         int64           `db:"id"`
	UserID     int64           `db:"user_id"`
	Status     OrderStatus     `db:"status"`
	TotalPrice decimal.Decimal `db:"total_price"`
	Address    string          `db:"address"`
	Notes      *string         `db:"notes"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
	Lines      []OrderLine     `db:"-"`
}

// OrderLine is a product snapshot inside an order. Price is the unit price at checkout time.
type OrderLine struct {
	ID          int64           `db:"id"`
	OrderID     int64           `db:"order_id"`
	ProductID   int64           `db:"product_id"`
	ProductName string          `db:"product_name"`
	Quantity    int             `db:"quantity"`
	Price       decimal.Decimal `db:"price"`
}

// Total is price times quantity.
func (l OrderLine) Total() decimal.Decimal {
	return LineTotal(l.Price, l.Quantity)
}

// NewOrder describes an order to be written in one transaction.
type NewOrder struct {
	UserID  int64
	Address string
	Notes   string
	Lines   []OrderLine
}

// Total sums the snapshot line totals.
func (n NewOrder) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range n.Lines {
		total = total.Add(l.Total())
	}
	return total
}
