package bot

import (
	"context"
	"errors"

	"github.com/m3rciful/grocerybot/core/logger"
	tghelpers "github.com/m3rciful/grocerybot/core/telegram/helpers"
	"github.com/m3rciful/grocerybot/shop/domain"
	"github.com/m3rciful/grocerybot/shop/session"

	tele "gopkg.in/telebot.v4"
)

type dialogKind int

const (
	dialogNone dialogKind = iota
	dialogAddress
	dialogReview
)

// Dialog routes free-form text and photos to the checkout address step or
// the review draft of the sender. When both are open the most recently
// touched one wins.
type Dialog struct {
	h *Handlers
}

// NewDialog builds the dialog router over h.
func NewDialog(h *Handlers) *Dialog {
	return &Dialog{h: h}
}

func (d *Dialog) active(ctx context.Context, userID int64) dialogKind {
	co, coOK, err := d.h.svc.Checkouts.Get(ctx, userID)
	if err != nil {
		logger.Warn(ctx, "shop.bot", "dialog.checkout", logger.Err(err))
	}
	awaiting := coOK && co.Step == session.StepAwaitingAddress
	draft, rvOK := d.h.svc.Reviews.Active(ctx, userID)
	switch {
	case awaiting && rvOK:
		if draft.UpdatedAt.After(co.UpdatedAt) {
			return dialogReview
		}
		return dialogAddress
	case awaiting:
		return dialogAddress
	case rvOK:
		return dialogReview
	}
	return dialogNone
}

// InProgress reports whether the Telegram user has an open dialog.
func (d *Dialog) InProgress(ctx context.Context, telegramID int64) bool {
	u, err := d.h.svc.Store.ByTelegramID(ctx, telegramID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn(ctx, "shop.bot", "dialog.user", logger.Err(err))
		}
		return false
	}
	return u.IsActive && d.active(ctx, u.ID) != dialogNone
}

// ManagerHandler dispatches the message to the open dialog.
func (d *Dialog) ManagerHandler(c tele.Context) error {
	u, ok, err := d.h.customer(c)
	if !ok {
		return err
	}
	switch d.active(ctxOf(c), u.ID) {
	case dialogAddress:
		if c.Message() != nil && c.Message().Photo != nil {
			return tghelpers.SendMD(c, "📍 Пожалуйста, отправьте адрес доставки текстом.")
		}
		return d.h.submitAddress(c, u)
	case dialogReview:
		return d.h.reviewInput(c, u)
	}
	return d.h.UnknownText()(c)
}
