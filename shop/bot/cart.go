package bot

import (
	"errors"
	"fmt"

	"github.com/m3rciful/grocerybot/core/telegram/callbacks"
	"github.com/m3rciful/grocerybot/shop/cart"
	"github.com/m3rciful/grocerybot/shop/domain"

	tele "gopkg.in/telebot.v4"
)

// OnCart shows the cart.
func (h *Handlers) OnCart(c tele.Context) error {
	u, ok, err := h.customer(c)
	if !ok {
		return err
	}
	v, err := h.svc.Cart.View(ctxOf(c), u.ID)
	if err != nil {
		return h.failed(c, "cart.view", err)
	}
	return h.showCart(c, v)
}

func (h *Handlers) showCart(c tele.Context, v cart.View) error {
	text, markup := CartView(v, h.shop.BypassZone)
	return show(c, text, markup)
}

// OnAdd puts a product into the cart and shows the cart.
func (h *Handlers) OnAdd(c tele.Context) error {
	return h.mutate(c, func(userID, id int64) (cart.Result, error) {
		return h.svc.Cart.Add(ctxOf(c), userID, id)
	})
}

// OnCartInc adds one step to a line.
func (h *Handlers) OnCartInc(c tele.Context) error {
	return h.mutate(c, func(userID, id int64) (cart.Result, error) {
		return h.svc.Cart.Increment(ctxOf(c), userID, id)
	})
}

// OnCartDec subtracts one step from a line.
func (h *Handlers) OnCartDec(c tele.Context) error {
	return h.mutate(c, func(userID, id int64) (cart.Result, error) {
		return h.svc.Cart.Decrement(ctxOf(c), userID, id)
	})
}

// OnCartRemove drops a line.
func (h *Handlers) OnCartRemove(c tele.Context) error {
	return h.mutate(c, func(userID, id int64) (cart.Result, error) {
		return h.svc.Cart.Remove(ctxOf(c), userID, id)
	})
}

// OnCartClear empties the cart.
func (h *Handlers) OnCartClear(c tele.Context) error {
	u, ok, err := h.customer(c)
	if !ok {
		return err
	}
	res, err := h.svc.Cart.Clear(ctxOf(c), u.ID)
	if err != nil {
		return h.failed(c, "cart.clear", err)
	}
	_ = toast(c, "🗑 Корзина очищена", false)
	return h.showCart(c, res.View)
}

// OnCartQty answers the quantity button with the current quantity.
func (h *Handlers) OnCartQty(c tele.Context) error {
	u, ok, err := h.customer(c)
	if !ok {
		return err
	}
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return toast(c, missingText, false)
	}
	line, err := h.svc.Store.Line(ctxOf(c), u.ID, id)
	if err != nil {
		return toast(c, "Товар уже удален из корзины", false)
	}
	return toast(c, fmt.Sprintf("%s: %d %s", line.Product.Name, line.Quantity, line.Product.UnitLabel()), false)
}

func (h *Handlers) mutate(c tele.Context, fn func(userID, id int64) (cart.Result, error)) error {
	u, ok, err := h.customer(c)
	if !ok {
		return err
	}
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return toast(c, missingText, false)
	}
	res, err := fn(u.ID, id)
	var below *cart.BelowMinimumError
	switch {
	case errors.As(err, &below):
		return toast(c, fmt.Sprintf("❌ Минимальное количество: %d %s", below.Minimum, below.Unit), true)
	case errors.Is(err, domain.ErrProductUnavailable):
		return toast(c, "❌ Товар сейчас недоступен", true)
	case errors.Is(err, domain.ErrNotFound):
		return toast(c, "Товар уже удален из корзины", false)
	case err != nil:
		return h.failed(c, "cart.mutate", err)
	}
	if text := outcomeToast(res); text != "" {
		_ = toast(c, text, false)
	}
	return h.showCart(c, res.View)
}

func outcomeToast(res cart.Result) string {
	l := res.Line
	switch res.Outcome {
	case cart.OutcomeAdded, cart.OutcomeIncremented:
		return fmt.Sprintf("✅ %s: %d %s", l.Product.Name, l.Quantity, l.Product.UnitLabel())
	case cart.OutcomeDecremented:
		return fmt.Sprintf("➖ %s: %d %s", l.Product.Name, l.Quantity, l.Product.UnitLabel())
	case cart.OutcomeRemoved:
		return "🗑 " + l.Product.Name + " удален из корзины"
	case cart.OutcomeNoop:
		return "Товар уже удален из корзины"
	}
	return ""
}
