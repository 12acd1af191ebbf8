package review

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/m3rciful/grocerybot/shop/session"
)

const (
	// MaxPhotos bounds the photos attached to one review.
	MaxPhotos = 10
	// MaxTextLen bounds the review text in characters.
	MaxTextLen = 2000
)

// Target is what the review is about.
type Target struct {
	Kind session.ReviewKind
	// ID is the product id for product reviews and the order id for order reviews.
	ID int64
	// OrderID is the originating order of a product review; nil for standalone ones.
	OrderID *int64
}

// ProductID returns the product the review is scoped to, if any.
func (t Target) ProductID() *int64 {
	if t.Kind == session.ReviewProduct {
		id := t.ID
		return &id
	}
	return nil
}

// Order returns the order the review belongs to, if any.
func (t Target) Order() *int64 {
	if t.Kind == session.ReviewOrder {
		id := t.ID
		return &id
	}
	return t.OrderID
}

// Rule returns the duplicate rule that applies to the target.
func (t Target) Rule() Rule {
	switch {
	case t.Kind == session.ReviewOrder:
		return RuleOrder
	case t.OrderID != nil:
		return RuleOrderProduct
	default:
		return RuleProduct
	}
}

func targetOf(p session.PendingReview) Target {
	return Target{Kind: p.Kind, ID: p.TargetID, OrderID: p.OrderID}
}

// Draft is a review ready to be validated and saved.
type Draft struct {
	Target Target
	Rating int
	Text   string
	Photos []string
}

// Validate checks the draft before it is persisted.
func (d Draft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Rating, validation.Required, validation.Min(1), validation.Max(5)),
		validation.Field(&d.Text, validation.RuneLength(0, MaxTextLen)),
		validation.Field(&d.Photos, validation.Length(0, MaxPhotos)),
		validation.Field(&d.Target, validation.By(validTarget)),
	)
}

func validTarget(v any) error {
	t, _ := v.(Target)
	if t.ID <= 0 {
		return validation.NewError("validation_review_target", "target is required")
	}
	if t.Kind != session.ReviewProduct && t.Kind != session.ReviewOrder {
		return validation.NewError("validation_review_kind", "unknown review kind")
	}
	return nil
}

func validRating(rating int) error {
	return validation.Validate(rating, validation.Required, validation.Min(1), validation.Max(5))
}

func cleanText(text string) string {
	return strings.TrimSpace(text)
}
