package session

import (
	"context"
	"errors"
)

// ErrMissing is returned by Table.Update and Table.Take when the key holds nothing.
var ErrMissing = errors.New("session: missing")

// Table is a keyed store of session values. All methods are safe for
// concurrent use; Update and Take are atomic per key.
type Table[V any] interface {
	Get(ctx context.Context, key int64) (V, bool, error)
	Put(ctx context.Context, key int64, v V) error
	// PutIfAbsent stores v only when the key is empty and reports whether it did.
	PutIfAbsent(ctx context.Context, key int64, v V) (bool, error)
	// Update replaces the value with fn's result. An error from fn leaves the value untouched.
	Update(ctx context.Context, key int64, fn func(V) (V, error)) (V, error)
	// Take removes and returns the value if check accepts it. A rejected value stays
	// in place and is returned together with check's error.
	Take(ctx context.Context, key int64, check func(V) error) (V, error)
	Delete(ctx context.Context, key int64) error
}
