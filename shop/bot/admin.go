package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/grocerybot/core/logger"
	tghelpers "github.com/m3rciful/grocerybot/core/telegram/helpers"
	"github.com/m3rciful/grocerybot/shop/domain"
	"github.com/m3rciful/grocerybot/shop/status"

	tele "gopkg.in/telebot.v4"
)

const adminOrdersLimit = 50

func statusUsage() string {
	names := make([]string, 0, len(domain.OrderStatuses))
	for _, s := range domain.OrderStatuses {
		names = append(names, string(s))
	}
	return "Использование: /status <номер заказа> <статус>\nСтатусы: " + strings.Join(names, ", ")
}

// OnAdminReject answers non-admins who typed an admin command.
func (h *Handlers) OnAdminReject(c tele.Context) error {
	return tghelpers.SendText(c, "⛔ Команда доступна только администраторам.")
}

// OnStatus changes an order status: /status <order_id> <status>.
func (h *Handlers) OnStatus(c tele.Context) error {
	req, err := status.ParseChangeRequest(c.Message().Payload)
	if err != nil {
		return tghelpers.SendText(c, statusUsage())
	}
	order, outcome, err := h.svc.Status.ChangeStatus(ctxOf(c), req)
	if errors.Is(err, domain.ErrNotFound) {
		return tghelpers.SendText(c, fmt.Sprintf("❌ Заказ #%d не найден", req.OrderID))
	}
	if err != nil {
		return h.failed(c, "status.change", err)
	}
	note := "сообщение клиента не найдено"
	switch outcome {
	case status.OutcomeEdited:
		note = "сообщение клиента обновлено"
	case status.OutcomeResent:
		note = "клиенту отправлено новое сообщение"
	}
	return tghelpers.SendText(c, fmt.Sprintf("✅ Заказ #%d: %s (%s)", order.ID, order.Status.Label(), note))
}

// OnOrdersAdmin lists the orders of one day: /orders_admin [date], today by default.
func (h *Handlers) OnOrdersAdmin(c tele.Context) error {
	loc := h.shop.Location()
	day := time.Now().In(loc)
	if arg := strings.TrimSpace(c.Message().Payload); arg != "" {
		parsed, ok := tghelpers.ParseFlexibleDate(arg, loc)
		if !ok {
			return tghelpers.SendText(c, "Использование: /orders_admin [ДД.ММ.ГГГГ | вчера]")
		}
		day = parsed
	}
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	orders, err := h.svc.Store.OrdersBetween(ctxOf(c), from, from.AddDate(0, 0, 1), adminOrdersLimit)
	if err != nil {
		return h.failed(c, "orders.admin", err)
	}
	title := "📋 Заказы за " + from.Format(dateLayout)
	return tghelpers.SendText(c, AdminOrdersText(title, orders, loc))
}

// OnHideReview hides a review from ratings and duplicate checks: /hide_review <id>.
func (h *Handlers) OnHideReview(c tele.Context) error {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Message().Payload), 10, 64)
	if err != nil || id <= 0 {
		return tghelpers.SendText(c, "Использование: /hide_review <номер отзыва>")
	}
	ctx := ctxOf(c)
	err = h.svc.Store.Hide(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return tghelpers.SendText(c, fmt.Sprintf("❌ Отзыв #%d не найден", id))
	}
	if err != nil {
		return h.failed(c, "review.hide", err)
	}
	logger.Info(ctx, "shop.bot", "review.hide", slog.Int64("review_id", id))
	return tghelpers.SendText(c, fmt.Sprintf("✅ Отзыв #%d скрыт", id))
}
