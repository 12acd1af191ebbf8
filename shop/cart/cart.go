// Package cart applies quantity changes to a user's cart while honouring the
// per-product step and minimum quantity, and renders the resulting cart view.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/grocerybot/core/logger"
	"github.com/m3rciful/grocerybot/shop/domain"
)

// Store is the persisted cart. Line lookups are scoped to the owning user.
type Store interface {
	Lines(ctx context.Context, userID int64) ([]domain.CartLine, error)
	Line(ctx context.Context, userID, lineID int64) (domain.CartLine, error)
	LineByProduct(ctx context.Context, userID, productID int64) (domain.CartLine, bool, error)
	AddItem(ctx context.Context, userID, productID int64, qty int) error
	SetQuantity(ctx context.Context, userID, lineID int64, qty int) error
	RemoveItem(ctx context.Context, userID, lineID int64) error
	Clear(ctx context.Context, userID int64) error
}

// Catalog resolves products.
type Catalog interface {
	Product(ctx context.Context, id int64) (domain.Product, error)
}

// Outcome names what a mutation did.
type Outcome string

const (
	OutcomeAdded       Outcome = "added"
	OutcomeIncremented Outcome = "incremented"
	OutcomeDecremented Outcome = "decremented"
	OutcomeRemoved     Outcome = "removed"
	OutcomeCleared     Outcome = "cleared"
	// OutcomeNoop is returned when the referenced line is already gone.
	OutcomeNoop Outcome = "noop"
)

// ErrBelowMinimum matches every *BelowMinimumError.
var ErrBelowMinimum = errors.New("cart: quantity below product minimum")

// BelowMinimumError rejects a decrement that would leave a line under the product minimum.
type BelowMinimumError struct {
	Product  string
	Minimum  int
	Unit     string
	Quantity int
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("cart: %s cannot go below %d %s", e.Product, e.Minimum, e.Unit)
}

// Code is the stable error code used in logs.
func (e *BelowMinimumError) Code() string { return "below_minimum" }

func (e *BelowMinimumError) Is(target error) bool { return target == ErrBelowMinimum }

// View is the full cart as shown after every mutation.
type View struct {
	Lines    []domain.CartLine
	Total    decimal.Decimal
	Count    int
	MinOrder decimal.Decimal
}

// Empty reports whether the cart has no lines.
func (v View) Empty() bool { return len(v.Lines) == 0 }

// Shortfall is how much is missing to reach the minimum order amount.
func (v View) Shortfall() decimal.Decimal {
	if v.Total.GreaterThanOrEqual(v.MinOrder) {
		return decimal.Zero
	}
	return v.MinOrder.Sub(v.Total)
}

// CanCheckout reports whether regular checkout is open.
func (v View) CanCheckout() bool {
	return !v.Empty() && v.Shortfall().IsZero()
}

// Result is a mutation outcome together with the refreshed view.
type Result struct {
	Outcome Outcome
	Line    domain.CartLine
	View    View
}

// Service owns the cart mutation rules.
type Service struct {
	store    Store
	catalog  Catalog
	minOrder decimal.Decimal
}

// NewService builds a cart service. minOrder is the regular checkout threshold.
func NewService(store Store, catalog Catalog, minOrder decimal.Decimal) *Service {
	return &Service{store: store, catalog: catalog, minOrder: minOrder}
}

// View loads the current cart.
func (s *Service) View(ctx context.Context, userID int64) (View, error) {
	lines, err := s.store.Lines(ctx, userID)
	if err != nil {
		return View{}, fmt.Errorf("cart: load lines: %w", err)
	}
	return View{
		Lines:    lines,
		Total:    domain.CartTotal(lines),
		Count:    domain.CartCount(lines),
		MinOrder: s.minOrder,
	}, nil
}

// Add puts a product into the cart: max(minQuantity, step) on the first add, +step after.
func (s *Service) Add(ctx context.Context, userID, productID int64) (Result, error) {
	p, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return Result{}, err
	}
	if !p.IsAvailable {
		return Result{}, domain.ErrProductUnavailable
	}
	line, found, err := s.store.LineByProduct(ctx, userID, productID)
	if err != nil {
		return Result{}, fmt.Errorf("cart: lookup line: %w", err)
	}
	if found {
		line.Product = p
		return s.increment(ctx, userID, line)
	}

	qty := p.FirstAddQuantity()
	if err := s.store.AddItem(ctx, userID, productID, qty); err != nil {
		return Result{}, fmt.Errorf("cart: add item: %w", err)
	}
	logger.Info(ctx, "shop.cart", "cart.add",
		slog.Int64("product_id", productID),
		slog.Int("qty", qty),
		slog.String("outcome", string(OutcomeAdded)),
	)
	return s.result(ctx, userID, OutcomeAdded, domain.CartLine{UserID: userID, ProductID: productID, Quantity: qty, Product: p})
}

// Increment adds one step to an existing line.
func (s *Service) Increment(ctx context.Context, userID, lineID int64) (Result, error) {
	line, err := s.store.Line(ctx, userID, lineID)
	if err != nil {
		return Result{}, err
	}
	return s.increment(ctx, userID, line)
}

func (s *Service) increment(ctx context.Context, userID int64, line domain.CartLine) (Result, error) {
	line.Quantity += line.Product.QuantityStep()
	if err := s.store.SetQuantity(ctx, userID, line.ID, line.Quantity); err != nil {
		return Result{}, fmt.Errorf("cart: set quantity: %w", err)
	}
	logger.Info(ctx, "shop.cart", "cart.inc",
		slog.Int64("line_id", line.ID),
		slog.Int("qty", line.Quantity),
		slog.String("outcome", string(OutcomeIncremented)),
	)
	return s.result(ctx, userID, OutcomeIncremented, line)
}

// Decrement subtracts one step. A result at or below zero removes the line;
// a result between zero and the minimum is rejected with *BelowMinimumError and
// nothing changes. A line that no longer exists yields OutcomeNoop.
func (s *Service) Decrement(ctx context.Context, userID, lineID int64) (Result, error) {
	line, err := s.store.Line(ctx, userID, lineID)
	if errors.Is(err, domain.ErrNotFound) {
		return s.result(ctx, userID, OutcomeNoop, domain.CartLine{ID: lineID})
	}
	if err != nil {
		return Result{}, err
	}

	next := line.Quantity - line.Product.QuantityStep()
	switch {
	case next <= 0:
		if err := s.store.RemoveItem(ctx, userID, lineID); err != nil {
			return Result{}, fmt.Errorf("cart: remove item: %w", err)
		}
		line.Quantity = 0
		logger.Info(ctx, "shop.cart", "cart.dec",
			slog.Int64("line_id", lineID),
			slog.String("outcome", string(OutcomeRemoved)),
		)
		return s.result(ctx, userID, OutcomeRemoved, line)
	case next < line.Product.MinimumQuantity():
		logger.Debug(ctx, "shop.cart", "cart.dec",
			slog.Int64("line_id", lineID),
			slog.String("status", "rejected"),
			slog.String("err_code", "below_minimum"),
		)
		return Result{}, &BelowMinimumError{
			Product:  line.Product.Name,
			Minimum:  line.Product.MinimumQuantity(),
			Unit:     line.Product.UnitLabel(),
			Quantity: line.Quantity,
		}
	}

	if err := s.store.SetQuantity(ctx, userID, lineID, next); err != nil {
		return Result{}, fmt.Errorf("cart: set quantity: %w", err)
	}
	line.Quantity = next
	logger.Info(ctx, "shop.cart", "cart.dec",
		slog.Int64("line_id", lineID),
		slog.Int("qty", next),
		slog.String("outcome", string(OutcomeDecremented)),
	)
	return s.result(ctx, userID, OutcomeDecremented, line)
}

// Remove deletes a line outright. Removing a missing line is a no-op.
func (s *Service) Remove(ctx context.Context, userID, lineID int64) (Result, error) {
	line, err := s.store.Line(ctx, userID, lineID)
	if errors.Is(err, domain.ErrNotFound) {
		return s.result(ctx, userID, OutcomeNoop, domain.CartLine{ID: lineID})
	}
	if err != nil {
		return Result{}, err
	}
	if err := s.store.RemoveItem(ctx, userID, lineID); err != nil {
		return Result{}, fmt.Errorf("cart: remove item: %w", err)
	}
	logger.Info(ctx, "shop.cart", "cart.remove", slog.Int64("line_id", lineID))
	line.Quantity = 0
	return s.result(ctx, userID, OutcomeRemoved, line)
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, userID int64) (Result, error) {
	if err := s.store.Clear(ctx, userID); err != nil {
		return Result{}, fmt.Errorf("cart: clear: %w", err)
	}
	logger.Info(ctx, "shop.cart", "cart.clear")
	return s.result(ctx, userID, OutcomeCleared, domain.CartLine{})
}

func (s *Service) result(ctx context.Context, userID int64, outcome Outcome, line domain.CartLine) (Result, error) {
	view, err := s.View(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	return Result{Outcome: outcome, Line: line, View: view}, nil
}
