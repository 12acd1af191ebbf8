// Package session keeps the per-user conversational state of the storefront:
// checkout progress, review drafts and the messages that track order status.
//
// State lives behind the Table interface so the in-process map can be swapped
// for Redis when the bot runs as several instances.
package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/m3rciful/grocerybot/shop/domain"
)

// Step is the position of a user inside the checkout flow.
type Step string

const (
	StepNone                 Step = "none"
	StepAwaitingAddress      Step = "awaiting_address"
	StepAwaitingConfirmation Step = "awaiting_confirmation"
)

// Line is a cart line captured when checkout begins. Price is frozen at that moment.
type Line struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Total is the line price at the snapshot price.
func (l Line) Total() decimal.Decimal {
	return domain.LineTotal(l.Price, l.Quantity)
}

// Snapshot copies cart lines into checkout lines.
func Snapshot(lines []domain.CartLine) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, Line{
			ProductID: l.ProductID,
			Name:      l.Product.Name,
			Unit:      l.Product.UnitLabel(),
			Price:     l.Product.Price,
			Quantity:  l.Quantity,
		})
	}
	return out
}

// Checkout is the checkout session of one user.
type Checkout struct {
	UserID     int64           `json:"user_id"`
	Generation uuid.UUID       `json:"generation"`
	Step       Step            `json:"step"`
	Lines      []Line          `json:"lines"`
	Total      decimal.Decimal `json:"total"`
	// Zone is set when checkout was entered through the minimum-waiving delivery zone.
	Zone      string    `json:"zone,omitempty"`
	Address   string    `json:"address,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ready reports whether the session may be turned into an order.
func (c Checkout) Ready() bool {
	return c.Step == StepAwaitingConfirmation && len(c.Lines) > 0 && c.Address != ""
}

// ReviewKind names what a review draft is attached to.
type ReviewKind string

const (
	ReviewProduct ReviewKind = "product"
	ReviewOrder   ReviewKind = "order"
)

// PendingReview is the single review draft a user may have.
type PendingReview struct {
	UserID   int64      `json:"user_id"`
	Kind     ReviewKind `json:"kind"`
	TargetID int64      `json:"target_id"`
	// OrderID is the originating order of a product review, if any.
	OrderID   *int64    `json:"order_id,omitempty"`
	Rating    int       `json:"rating"`
	Photos    []string  `json:"photos,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessageRef points to a message the bot sent.
type MessageRef struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int   `json:"message_id"`
}
