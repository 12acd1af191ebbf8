package domain

import "errors"

var (
	// ErrNotFound is returned by stores when the referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUserBlocked marks users whose account was deactivated by an operator.
	ErrUserBlocked = errors.New("user is blocked")
	// ErrProductUnavailable is returned when a product is switched off in the catalog.
	ErrProductUnavailable = errors.New("product unavailable")
)
