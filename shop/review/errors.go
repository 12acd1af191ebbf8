package review

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDraft is returned when photos or text arrive without a selected rating.
	ErrNoDraft = errors.New("review: no draft")
	// ErrTooManyPhotos is returned when a draft already holds MaxPhotos photos.
	ErrTooManyPhotos = errors.New("review: too many photos")
	// ErrDuplicate is returned by stores when a unique index rejects the insert.
	ErrDuplicate = errors.New("review: duplicate")
)

// Rule names the duplicate check that rejected a review.
type Rule string

const (
	// RuleOrderProduct allows one review per (user, order, product).
	RuleOrderProduct Rule = "order_product"
	// RuleOrder allows one order-level review per (user, order).
	RuleOrder Rule = "order"
	// RuleProduct allows one standalone review per (user, product).
	RuleProduct Rule = "product"
)

// ConflictError reports which duplicate rule blocked the review.
type ConflictError struct {
	Rule Rule
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("review: already exists (%s)", e.Rule)
}

// Code is the stable error code used in logs.
func (e *ConflictError) Code() string { return "review_conflict_" + string(e.Rule) }
