package bot

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m3rciful/grocerybot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/grocerybot/core/telegram/helpers"
	"github.com/m3rciful/grocerybot/core/telegram/keyboard"
	"github.com/m3rciful/grocerybot/shop/checkout"
	"github.com/m3rciful/grocerybot/shop/domain"
	"github.com/m3rciful/grocerybot/shop/session"

	tele "gopkg.in/telebot.v4"
)

var restartMarkup = keyboard.InlineButtonsRows(
	keyboard.Row(keyboard.Btn("🛍 Моя корзина", cbCart)),
	keyboard.Row(btnMenu),
)

// OnCheckout starts a regular checkout.
func (h *Handlers) OnCheckout(c tele.Context) error {
	return h.beginCheckout(c, false)
}

// OnCheckoutZone starts a checkout for the delivery zone that waives the minimum.
func (h *Handlers) OnCheckoutZone(c tele.Context) error {
	return h.beginCheckout(c, true)
}

func (h *Handlers) beginCheckout(c tele.Context, bypass bool) error {
	u, ok, err := h.customer(c)
	if !ok {
		return err
	}
	if !u.HasPhone() {
		_ = toast(c, "📱 Сначала поделитесь номером телефона", true)
		return tghelpers.SendMD(c, WelcomeText(u.FirstName, true), keyboard.ContactRequest(sharePhoneLabel))
	}
	sess, err := h.svc.Checkout.Begin(ctxOf(c), u, bypass)
	var short *checkout.ShortfallError
	switch {
	case errors.As(err, &short):
		text, markup := ShortfallView(short)
		return show(c, text, markup)
	case errors.Is(err, checkout.ErrEmptyCart):
		return toast(c, "🛒 Корзина пуста", true)
	case errors.Is(err, checkout.ErrBypassUnavailable):
		return toast(c, "❌ Доставка в эту зону недоступна", true)
	case err != nil:
		return h.failed(c, "checkout.begin", err)
	}
	text, markup := AddressPrompt(sess, u)
	return show(c, text, markup)
}

// submitAddress handles the address typed in awaiting_address.
func (h *Handlers) submitAddress(c tele.Context, u domain.User) error {
	sess, err := h.svc.Checkout.SubmitAddress(ctxOf(c), u.ID, c.Text())
	var invalid *checkout.InvalidAddressError
	switch {
	case errors.As(err, &invalid):
		return tghelpers.SendMD(c, fmt.Sprintf("❌ Адрес должен содержать от %d до %d символов. Попробуйте еще раз:",
			checkout.MinAddressLen, checkout.MaxAddressLen))
	case errors.Is(err, session.ErrRestartCheckout):
		return tghelpers.SendMD(c, restartText, restartMarkup)
	case err != nil:
		return h.failed(c, "checkout.address", err)
	}
	text, markup := ConfirmationView(sess, u)
	return tghelpers.SendMD(c, text, markup)
}

// OnEditAddress returns to address entry.
func (h *Handlers) OnEditAddress(c tele.Context) error {
	u, ok, err := h.customer(c)
	if !ok {
		return err
	}
	sess, err := h.svc.Checkout.EditAddress(ctxOf(c), u.ID)
	if errors.Is(err, session.ErrRestartCheckout) {
		return show(c, restartText, restartMarkup)
	}
	if err != nil {
		return h.failed(c, "checkout.edit", err)
	}
	text, markup := AddressPrompt(sess, u)
	return show(c, text, markup)
}

// OnCancelCheckout abandons the session and returns to the cart.
func (h *Handlers) OnCancelCheckout(c tele.Context) error {
	u, ok, err := h.customer(c)
	if !ok {
		return err
	}
	ctx := ctxOf(c)
	if err := h.svc.Checkout.Cancel(ctx, u.ID); err != nil {
		return h.failed(c, "checkout.cancel", err)
	}
	_ = toast(c, "Оформление отменено", false)
	v, err := h.svc.Cart.View(ctx, u.ID)
	if err != nil {
		return h.failed(c, "cart.view", err)
	}
	return h.showCart(c, v)
}

// OnConfirm places the order. The button payload is the session generation;
// the confirmation message becomes the order's status message.
func (h *Handlers) OnConfirm(c tele.Context) error {
	u, ok, err := h.customer(c)
	if !ok {
		return err
	}
	generation, err := uuid.Parse(callbacks.CallbackPayload(c))
	if err != nil {
		return show(c, restartText, restartMarkup)
	}
	var ref session.MessageRef
	if msg := c.Callback().Message; msg != nil && msg.Chat != nil {
		ref = session.MessageRef{ChatID: msg.Chat.ID, MessageID: msg.ID}
	}

	order, err := h.svc.Checkout.Confirm(ctxOf(c), u, generation, ref)
	switch {
	case errors.Is(err, session.ErrRestartCheckout), errors.Is(err, session.ErrStaleGeneration):
		return show(c, restartText, restartMarkup)
	case errors.Is(err, checkout.ErrPlaceOrder):
		// The session was restored, so the confirm button stays usable.
		return toast(c, placeFailedText, true)
	case err != nil:
		return h.failed(c, "checkout.confirm", err)
	}
	_ = toast(c, "✅ Заказ оформлен", false)
	return show(c, OrderPlacedText(order, u), OrderPlacedKeyboard())
}
