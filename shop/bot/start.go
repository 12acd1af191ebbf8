package bot

import (
	"log/slog"

	"github.com/m3rciful/grocerybot/core/logger"
	tghelpers "github.com/m3rciful/grocerybot/core/telegram/helpers"
	"github.com/m3rciful/grocerybot/core/telegram/keyboard"
	"github.com/m3rciful/grocerybot/shop/domain"

	tele "gopkg.in/telebot.v4"
)

// OnStart registers the sender and either asks for the phone or opens the menu.
func (h *Handlers) OnStart(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := ctxOf(c)
	role := h.roleFor(sender.ID)
	u, created, err := h.svc.Store.FindOrCreate(ctx, domain.Profile{
		TelegramID: sender.ID,
		FirstName:  sender.FirstName,
		LastName:   sender.LastName,
		Username:   sender.Username,
	}, role)
	if err != nil {
		return h.failed(c, "user.register", err)
	}
	if !u.IsActive {
		return tghelpers.SendMD(c, blockedText)
	}
	if !created && role.Elevated() && u.Role != role {
		if err := h.svc.Store.SetRole(ctx, sender.ID, role); err != nil {
			logger.Warn(ctx, "shop.bot", "user.role", logger.Err(err))
		} else {
			u.Role = role
		}
	}
	logger.Info(ctx, "shop.bot", "user.start",
		slog.Int64("user_id", u.ID),
		slog.Bool("created", created),
		slog.String("role", string(u.Role)),
		slog.Bool("has_phone", u.HasPhone()),
	)

	if !u.HasPhone() {
		return tghelpers.SendMD(c, WelcomeText(u.FirstName, !created), keyboard.ContactRequest(sharePhoneLabel))
	}
	return h.showMenu(c, u)
}

// OnContact stores the shared phone. Only the sender's own contact is accepted.
func (h *Handlers) OnContact(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Contact == nil || c.Sender() == nil {
		return nil
	}
	if msg.Contact.UserID != c.Sender().ID {
		return tghelpers.SendMD(c, "❌ Пожалуйста, поделитесь своим номером телефона с помощью кнопки ниже.",
			keyboard.ContactRequest(sharePhoneLabel))
	}
	u, ok, err := h.customer(c)
	if !ok {
		return err
	}
	ctx := ctxOf(c)
	phone := domain.NormalizePhone(msg.Contact.PhoneNumber)
	if err := h.svc.Store.UpdatePhone(ctx, u.ID, phone); err != nil {
		return h.failed(c, "user.phone", err)
	}
	u.Phone = &phone
	logger.Info(ctx, "shop.bot", "user.phone", slog.Int64("user_id", u.ID), slog.String("phone", phone))

	if err := tghelpers.SendMD(c, "✅ Спасибо! Ваш номер телефона сохранен: "+domain.FormatPhone(phone),
		keyboard.RemoveKeyboard()); err != nil {
		return err
	}
	return h.showMenu(c, u)
}

// OnMenu shows the main menu.
func (h *Handlers) OnMenu(c tele.Context) error {
	u, ok, err := h.customer(c)
	if !ok {
		return err
	}
	return h.showMenu(c, u)
}

// OnAbout shows the store description.
func (h *Handlers) OnAbout(c tele.Context) error {
	return show(c, h.shop.AboutText, keyboard.InlineButtons([]keyboard.InlineBtn{btnBack}))
}

// OnSupport shows the support contacts.
func (h *Handlers) OnSupport(c tele.Context) error {
	return show(c, h.shop.SupportText, keyboard.InlineButtons([]keyboard.InlineBtn{btnBack}))
}
