package bot

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/m3rciful/grocerybot/core/logger"
	tghelpers "github.com/m3rciful/grocerybot/core/telegram/helpers"
	"github.com/m3rciful/grocerybot/shop/config"
	"github.com/m3rciful/grocerybot/shop/domain"

	tele "gopkg.in/telebot.v4"
)

// respondedKey marks callbacks that were already answered with a toast.
const respondedKey = "shop_responded"

// Handlers holds the storefront handlers.
type Handlers struct {
	svc     *Services
	shop    config.ShopConfig
	ownerID int64
}

// NewHandlers builds handlers over svc. ownerID is promoted to owner on /start.
func NewHandlers(svc *Services, shop config.ShopConfig, ownerID int64) *Handlers {
	return &Handlers{svc: svc, shop: shop, ownerID: ownerID}
}

func ctxOf(c tele.Context) context.Context {
	return tghelpers.BuildContext(c)
}

// roleFor is the role a Telegram account is entitled to by configuration.
func (h *Handlers) roleFor(telegramID int64) domain.Role {
	switch {
	case h.ownerID != 0 && telegramID == h.ownerID:
		return domain.RoleOwner
	case slices.Contains(h.shop.AdminIDs, telegramID):
		return domain.RoleAdmin
	default:
		return domain.RoleUser
	}
}

// customer resolves the registered, active sender. When it returns ok=false
// the user was already told what to do.
func (h *Handlers) customer(c tele.Context) (domain.User, bool, error) {
	u, err := tghelpers.CurrentUser[domain.User](c, h.svc.Store)
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, tghelpers.ErrNoSender):
		return domain.User{}, false, h.notice(c, notRegistered)
	case err != nil:
		return domain.User{}, false, err
	case !u.IsActive:
		logger.Debug(ctxOf(c), "shop.bot", "user.blocked", slog.Int64("user_id", u.ID))
		return domain.User{}, false, h.notice(c, blockedText)
	}
	return u, true, nil
}

// notice answers a callback with an alert or sends text to a message.
func (h *Handlers) notice(c tele.Context, text string) error {
	if c.Callback() != nil {
		return toast(c, text, true)
	}
	return tghelpers.SendMD(c, text)
}

// toast answers the pending callback with text.
func toast(c tele.Context, text string, alert bool) error {
	if c.Callback() == nil {
		return nil
	}
	c.Set(respondedKey, true)
	return c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: alert})
}

// show edits the message behind a callback, or sends a new one for messages.
func show(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	return tghelpers.ShowMD(c, text, markup)
}

// failed logs err and tells the user something went wrong.
func (h *Handlers) failed(c tele.Context, event string, err error) error {
	logger.Error(ctxOf(c), "shop.bot", event, slog.String("status", "fail"), logger.Err(err))
	return h.notice(c, genericFailText)
}

func (h *Handlers) cartCount(ctx context.Context, userID int64) int {
	v, err := h.svc.Cart.View(ctx, userID)
	if err != nil {
		logger.Warn(ctx, "shop.bot", "cart.count", logger.Err(err))
		return 0
	}
	return v.Count
}

func (h *Handlers) showMenu(c tele.Context, u domain.User) error {
	return show(c, MainMenuText(u), MainMenuKeyboard(h.cartCount(ctxOf(c), u.ID)))
}
