// Package checkout orchestrates cart -> address -> confirmation -> order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/m3rciful/grocerybot/core/logger"
	"github.com/m3rciful/grocerybot/shop/domain"
	"github.com/m3rciful/grocerybot/shop/session"
)

// CartStore is the part of the cart store used by checkout.
type CartStore interface {
	Lines(ctx context.Context, userID int64) ([]domain.CartLine, error)
	Clear(ctx context.Context, userID int64) error
}

// OrderStore writes the order header and all lines in one transaction.
type OrderStore interface {
	PlaceOrder(ctx context.Context, o domain.NewOrder) (domain.Order, error)
}

// AdminDirectory lists users holding any of the given roles.
type AdminDirectory interface {
	ByRoles(ctx context.Context, roles ...domain.Role) ([]domain.User, error)
}

// Notifier tells operators about new orders. Implementations must not block on delivery.
type Notifier interface {
	OrderPlaced(ctx context.Context, order domain.Order, customer domain.User, admins []domain.User)
}

// Linker remembers the message that shows an order's status.
type Linker interface {
	Link(ctx context.Context, orderID int64, ref session.MessageRef) error
}

// Config holds the checkout business rules.
type Config struct {
	MinOrder decimal.Decimal
	// BypassZone names the delivery zone that waives the minimum; empty disables it.
	BypassZone string
	// Notes is stored on every order placed through the bot.
	Notes string
}

// Deps groups the collaborators of the Controller.
type Deps struct {
	Sessions *session.Checkouts
	Carts    CartStore
	Orders   OrderStore
	Admins   AdminDirectory
	Notifier Notifier
	Linker   Linker
}

// Controller runs the checkout flow.
type Controller struct {
	Deps
	cfg Config
	// async runs the admin broadcast off the user path.
	async func(func())
}

// NewController builds a checkout controller.
func NewController(deps Deps, cfg Config) *Controller {
	return &Controller{
		Deps:  deps,
		cfg:   cfg,
		async: func(f func()) { go f() },
	}
}

// Config returns the checkout rules.
func (c *Controller) Config() Config { return c.cfg }

// Begin snapshots the cart and opens a session awaiting the address.
// With bypass the minimum order amount is waived for the configured zone.
func (c *Controller) Begin(ctx context.Context, user domain.User, bypass bool) (session.Checkout, error) {
	zone := ""
	if bypass {
		if c.cfg.BypassZone == "" {
			return session.Checkout{}, ErrBypassUnavailable
		}
		zone = c.cfg.BypassZone
	}

	lines, err := c.Carts.Lines(ctx, user.ID)
	if err != nil {
		return session.Checkout{}, fmt.Errorf("checkout: load cart: %w", err)
	}
	if len(lines) == 0 {
		return session.Checkout{}, ErrEmptyCart
	}
	total := domain.CartTotal(lines)
	if !bypass && total.LessThan(c.cfg.MinOrder) {
		return session.Checkout{}, &ShortfallError{Total: total, Minimum: c.cfg.MinOrder}
	}

	sess, err := c.Sessions.BeginCheckout(ctx, user.ID, session.Snapshot(lines), zone)
	if err != nil {
		return session.Checkout{}, err
	}
	logger.Info(ctx, "shop.checkout", "checkout.begin",
		slog.String("total", sess.Total.String()),
		slog.Int("lines", len(sess.Lines)),
		slog.Bool("bypass", bypass),
	)
	return sess, nil
}

// SubmitAddress validates and attaches the address.
func (c *Controller) SubmitAddress(ctx context.Context, userID int64, text string) (session.Checkout, error) {
	in := AddressInput{Text: text}
	if err := in.Validate(); err != nil {
		logger.Debug(ctx, "shop.checkout", "checkout.address",
			slog.String("status", "rejected"),
			slog.String("address", text),
			logger.Err(err),
		)
		return session.Checkout{}, &InvalidAddressError{Err: err}
	}
	return c.Sessions.SetAddress(ctx, userID, in.Normalized().Text)
}

// EditAddress goes back to address entry keeping the snapshot.
func (c *Controller) EditAddress(ctx context.Context, userID int64) (session.Checkout, error) {
	return c.Sessions.ReopenAddress(ctx, userID)
}

// Cancel abandons the session.
func (c *Controller) Cancel(ctx context.Context, userID int64) error {
	return c.Sessions.Abandon(ctx, userID)
}

// Confirm turns the session into an order. The session is taken before the
// order is written, so a second confirm for the same generation is rejected.
// When the order cannot be written the session is put back and the cart is
// left intact; the cart is cleared only after the order committed.
// ref is the message that becomes the order's status message.
func (c *Controller) Confirm(ctx context.Context, user domain.User, generation uuid.UUID, ref session.MessageRef) (domain.Order, error) {
	sess, err := c.Sessions.CompleteCheckout(ctx, user.ID, generation)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := c.Orders.PlaceOrder(ctx, sess.NewOrder(c.cfg.Notes))
	if err != nil {
		restored, rerr := c.Sessions.Restore(ctx, sess)
		logger.Error(ctx, "shop.checkout", "order.place",
			slog.String("status", "fail"),
			slog.Bool("session_restored", restored),
			logger.Err(errors.Join(err, rerr)),
		)
		return domain.Order{}, fmt.Errorf("%w: %w", ErrPlaceOrder, err)
	}

	if err := c.Carts.Clear(ctx, user.ID); err != nil {
		logger.Warn(ctx, "shop.checkout", "cart.clear", slog.Int64("order_id", order.ID), logger.Err(err))
	}
	if c.Linker != nil && ref.MessageID != 0 {
		if err := c.Linker.Link(ctx, order.ID, ref); err != nil {
			logger.Warn(ctx, "shop.checkout", "status.link", slog.Int64("order_id", order.ID), logger.Err(err))
		}
	}

	logger.Info(ctx, "shop.checkout", "order.place",
		slog.String("status", "ok"),
		slog.Int64("order_id", order.ID),
		slog.String("total", order.TotalPrice.String()),
		slog.String("zone", sess.Zone),
	)
	c.announce(ctx, order, user)
	return order, nil
}

func (c *Controller) announce(ctx context.Context, order domain.Order, customer domain.User) {
	if c.Notifier == nil || c.Admins == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	c.async(func() {
		defer func() {
			if p := recover(); p != nil {
				logger.Error(ctx, "shop.checkout", "admin.notify", slog.String("status", "fail"), slog.Any("panic", p))
			}
		}()
		admins, err := c.Admins.ByRoles(ctx, domain.ElevatedRoles...)
		if err != nil {
			logger.Warn(ctx, "shop.checkout", "admin.notify", slog.String("status", "fail"), logger.Err(err))
			return
		}
		c.Notifier.OrderPlaced(ctx, order, customer, admins)
	})
}
