package checkout

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyCart is returned when checkout starts with nothing in the cart.
	ErrEmptyCart = errors.New("checkout: cart is empty")
	// ErrBypassUnavailable is returned when the zone entry point is used but no zone is configured.
	ErrBypassUnavailable = errors.New("checkout: bypass zone not configured")
	// ErrPlaceOrder wraps store failures while writing the order; the session is restored.
	ErrPlaceOrder = errors.New("checkout: order not placed")
)

// ShortfallError is returned when the cart total is under the minimum order amount.
type ShortfallError struct {
	Total   decimal.Decimal
	Minimum decimal.Decimal
}

// Shortfall is the amount still missing.
func (e *ShortfallError) Shortfall() decimal.Decimal {
	return e.Minimum.Sub(e.Total)
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("checkout: total %s below minimum %s", e.Total, e.Minimum)
}

// Code is the stable error code used in logs.
func (e *ShortfallError) Code() string { return "below_min_order" }

// InvalidAddressError carries the validation failure of an entered address.
type InvalidAddressError struct {
	Err error
}

func (e *InvalidAddressError) Error() string { return "checkout: invalid address: " + e.Err.Error() }

func (e *InvalidAddressError) Unwrap() error { return e.Err }

// Code is the stable error code used in logs.
func (e *InvalidAddressError) Code() string { return "invalid_address" }
