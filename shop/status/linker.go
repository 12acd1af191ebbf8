// Package status changes order statuses and keeps the customer's order
// message in sync with them.
package status

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/grocerybot/core/logger"
	"github.com/m3rciful/grocerybot/shop/domain"
	"github.com/m3rciful/grocerybot/shop/session"
)

// Transport edits, deletes and sends the status message.
type Transport interface {
	EditText(ctx context.Context, ref session.MessageRef, text string) error
	DeleteMessage(ctx context.Context, ref session.MessageRef) error
	SendText(ctx context.Context, chatID int64, text string) (session.MessageRef, error)
}

// Renderer produces the status message text for an order.
type Renderer func(order domain.Order) string

// Outcome names what OnStatusChanged did.
type Outcome string

const (
	// OutcomeSkipped means no message is linked to the order.
	OutcomeSkipped Outcome = "skipped"
	OutcomeEdited  Outcome = "edited"
	// OutcomeResent means the edit was rejected and a new message replaced the old one.
	OutcomeResent Outcome = "resent"
)

// Linker maps orders to the message showing their status.
type Linker struct {
	links     session.Table[session.MessageRef]
	transport Transport
	render    Renderer
}

// NewLinker builds a linker.
func NewLinker(links session.Table[session.MessageRef], transport Transport, render Renderer) *Linker {
	return &Linker{links: links, transport: transport, render: render}
}

// Link records ref as the status message of orderID.
func (l *Linker) Link(ctx context.Context, orderID int64, ref session.MessageRef) error {
	return l.links.Put(ctx, orderID, ref)
}

// OnStatusChanged refreshes the linked message of order. Without a link it does
// nothing. When the edit is rejected the old message is deleted, a new one is
// sent and the link moves to it.
func (l *Linker) OnStatusChanged(ctx context.Context, order domain.Order) (Outcome, error) {
	ref, ok, err := l.links.Get(ctx, order.ID)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("status: load link: %w", err)
	}
	if !ok {
		logger.Debug(ctx, "shop.status", "status.sync",
			slog.Int64("order_id", order.ID),
			slog.String("outcome", string(OutcomeSkipped)),
		)
		return OutcomeSkipped, nil
	}

	text := l.render(order)
	editErr := l.transport.EditText(ctx, ref, text)
	if editErr == nil {
		logger.Info(ctx, "shop.status", "status.sync",
			slog.Int64("order_id", order.ID),
			slog.String("order_status", string(order.Status)),
			slog.String("outcome", string(OutcomeEdited)),
		)
		return OutcomeEdited, nil
	}

	if err := l.transport.DeleteMessage(ctx, ref); err != nil {
		logger.Debug(ctx, "shop.status", "status.delete", slog.Int64("order_id", order.ID), logger.Err(err))
	}
	fresh, err := l.transport.SendText(ctx, ref.ChatID, text)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("status: resend after edit failure (%v): %w", editErr, err)
	}
	if err := l.links.Put(ctx, order.ID, fresh); err != nil {
		return OutcomeResent, fmt.Errorf("status: relink: %w", err)
	}
	logger.Info(ctx, "shop.status", "status.sync",
		slog.Int64("order_id", order.ID),
		slog.String("order_status", string(order.Status)),
		slog.String("outcome", string(OutcomeResent)),
		slog.String("edit_err", logger.SanitizeLimit(editErr.Error(), 200)),
	)
	return OutcomeResent, nil
}
