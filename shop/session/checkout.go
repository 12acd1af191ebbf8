package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/m3rciful/grocerybot/core/logger"
	"github.com/m3rciful/grocerybot/shop/domain"
)

var (
	// ErrRestartCheckout means the requested transition does not fit the current
	// step; the user has to start checkout again.
	ErrRestartCheckout = errors.New("session: restart checkout")
	// ErrStaleGeneration marks a confirm button that belongs to an older session.
	ErrStaleGeneration = errors.New("session: stale checkout generation")
	// ErrEmptySnapshot is returned when checkout would begin with no lines.
	ErrEmptySnapshot = errors.New("session: empty cart snapshot")
)

// Checkouts drives the checkout state machine:
//
//	none -> awaiting_address -> awaiting_confirmation -> none
type Checkouts struct {
	table Table[Checkout]
	now   func() time.Time
}

// NewCheckouts wraps a table of checkout sessions.
func NewCheckouts(table Table[Checkout]) *Checkouts {
	return &Checkouts{table: table, now: time.Now}
}

// Get returns the user's session.
func (s *Checkouts) Get(ctx context.Context, userID int64) (Checkout, bool, error) {
	return s.table.Get(ctx, userID)
}

// BeginCheckout starts a new session in awaiting_address, replacing any previous one.
func (s *Checkouts) BeginCheckout(ctx context.Context, userID int64, lines []Line, zone string) (Checkout, error) {
	if len(lines) == 0 {
		return Checkout{}, ErrEmptySnapshot
	}
	c := Checkout{
		UserID:     userID,
		Generation: uuid.New(),
		Step:       StepAwaitingAddress,
		Lines:      append([]Line(nil), lines...),
		Zone:       zone,
		UpdatedAt:  s.now(),
	}
	c.Total = c.sum()
	if err := s.table.Put(ctx, userID, c); err != nil {
		return Checkout{}, err
	}
	logger.Debug(ctx, "shop.session", "checkout.begin",
		slog.String("generation", c.Generation.String()),
		slog.Int("lines", len(c.Lines)),
		slog.String("total", c.Total.String()),
	)
	return c, nil
}

// SetAddress attaches the delivery address and moves to awaiting_confirmation.
func (s *Checkouts) SetAddress(ctx context.Context, userID int64, address string) (Checkout, error) {
	address = strings.TrimSpace(address)
	c, err := s.table.Update(ctx, userID, func(c Checkout) (Checkout, error) {
		if c.Step != StepAwaitingAddress {
			return c, ErrRestartCheckout
		}
		c.Address = address
		c.Step = StepAwaitingConfirmation
		c.UpdatedAt = s.now()
		return c, nil
	})
	return c, restartOn(err)
}

// ReopenAddress returns a session awaiting confirmation to address entry,
// keeping the snapshot and generation.
func (s *Checkouts) ReopenAddress(ctx context.Context, userID int64) (Checkout, error) {
	c, err := s.table.Update(ctx, userID, func(c Checkout) (Checkout, error) {
		if c.Step != StepAwaitingConfirmation && c.Step != StepAwaitingAddress {
			return c, ErrRestartCheckout
		}
		c.Address = ""
		c.Step = StepAwaitingAddress
		c.UpdatedAt = s.now()
		return c, nil
	})
	return c, restartOn(err)
}

// CompleteCheckout removes the session and returns it, provided it awaits
// confirmation and carries generation. The removal happens before any I/O by
// the caller, so a repeated confirm for the same generation finds nothing.
func (s *Checkouts) CompleteCheckout(ctx context.Context, userID int64, generation uuid.UUID) (Checkout, error) {
	c, err := s.table.Take(ctx, userID, func(c Checkout) error {
		if c.Generation != generation {
			return ErrStaleGeneration
		}
		if !c.Ready() {
			return ErrRestartCheckout
		}
		return nil
	})
	if err != nil {
		logger.Debug(ctx, "shop.session", "checkout.complete",
			slog.String("status", "rejected"),
			logger.Err(err),
		)
		return Checkout{}, restartOn(err)
	}
	return c, nil
}

// Restore puts a completed session back unless the user already started a new one.
func (s *Checkouts) Restore(ctx context.Context, c Checkout) (bool, error) {
	c.UpdatedAt = s.now()
	return s.table.PutIfAbsent(ctx, c.UserID, c)
}

// Abandon drops the session without side effects.
func (s *Checkouts) Abandon(ctx context.Context, userID int64) error {
	return s.table.Delete(ctx, userID)
}

// NewOrder converts a ready session into an order description.
func (c Checkout) NewOrder(notes string) domain.NewOrder {
	lines := make([]domain.OrderLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, domain.OrderLine{
			ProductID:   l.ProductID,
			ProductName: l.Name,
			Quantity:    l.Quantity,
			Price:       l.Price,
		})
	}
	return domain.NewOrder{UserID: c.UserID, Address: c.Address, Notes: notes, Lines: lines}
}

func (c Checkout) sum() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Total())
	}
	return total
}

func restartOn(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrMissing), errors.Is(err, ErrRestartCheckout):
		return ErrRestartCheckout
	case errors.Is(err, ErrStaleGeneration):
		return err
	default:
		return fmt.Errorf("session: checkout store: %w", err)
	}
}
