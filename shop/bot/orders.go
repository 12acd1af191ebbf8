package bot

import (
	"errors"

	"github.com/m3rciful/grocerybot/core/telegram/callbacks"
	"github.com/m3rciful/grocerybot/shop/domain"

	tele "gopkg.in/telebot.v4"
)

// ordersPageSize bounds the "my orders" list.
const ordersPageSize = 10

// OnOrders lists the sender's latest orders.
func (h *Handlers) OnOrders(c tele.Context) error {
	u, ok, err := h.customer(c)
	if !ok {
		return err
	}
	orders, err := h.svc.Store.OrdersForUser(ctxOf(c), u.ID, ordersPageSize)
	if err != nil {
		return h.failed(c, "orders.list", err)
	}
	text, markup := OrdersView(orders, h.shop.Location())
	return show(c, text, markup)
}

// OnOrder shows one of the sender's orders.
func (h *Handlers) OnOrder(c tele.Context) error {
	u, ok, err := h.customer(c)
	if !ok {
		return err
	}
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return toast(c, missingText, false)
	}
	o, found, err := h.ownOrder(c, u, id)
	if !found {
		return err
	}
	text, markup := OrderView(o, h.shop.Location())
	return show(c, text, markup)
}

// ownOrder loads an order of u. Orders of other users look missing.
func (h *Handlers) ownOrder(c tele.Context, u domain.User, id int64) (domain.Order, bool, error) {
	o, err := h.svc.Store.Order(ctxOf(c), id)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && o.UserID != u.ID) {
		return domain.Order{}, false, toast(c, "❌ Заказ не найден", true)
	}
	if err != nil {
		return domain.Order{}, false, h.failed(c, "orders.load", err)
	}
	return o, true, nil
}
