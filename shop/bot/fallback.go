package bot

import (
	"errors"

	tghelpers "github.com/m3rciful/grocerybot/core/telegram/helpers"
	"github.com/m3rciful/grocerybot/shop/domain"

	tele "gopkg.in/telebot.v4"
)

// UnknownText points registered users back to the menu.
func (h *Handlers) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		u, err := tghelpers.CurrentUser[domain.User](c, h.svc.Store)
		if errors.Is(err, domain.ErrNotFound) {
			return tghelpers.SendMD(c, notRegistered)
		}
		if err != nil || !u.IsActive || !u.HasPhone() {
			return tghelpers.SendMD(c, "🤔 Не понимаю. Напишите /start.")
		}
		return tghelpers.SendMD(c, "🤔 Не понимаю. Воспользуйтесь меню:", MainMenuKeyboard(h.cartCount(ctxOf(c), u.ID)))
	}
}

// UnknownPhoto answers photos sent outside of a review.
func (h *Handlers) UnknownPhoto() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendMD(c, "📷 Фото принимаются только к отзывам. Выберите товар или заказ и нажмите «Оставить отзыв».")
	}
}

// UnknownDocument rejects documents.
func (h *Handlers) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendMD(c, "📎 Документы не поддерживаются.")
	}
}

// UnknownCallback answers buttons of outdated keyboards.
func (h *Handlers) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return toast(c, "⚠️ Кнопка устарела. Откройте меню заново: /start", true)
	}
}

// OnLimited answers users that send updates too fast.
func (h *Handlers) OnLimited(c tele.Context) error {
	if c.Callback() != nil {
		return toast(c, "⏳ Слишком часто, подождите секунду", false)
	}
	return nil
}
