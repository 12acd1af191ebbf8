package middleware

import (
	"context"
	"log/slog"

	"github.com/m3rciful/grocerybot/core/logger"
	tghelpers "github.com/m3rciful/grocerybot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RoleChecker reports whether a Telegram user holds an elevated role.
type RoleChecker interface {
	IsAdmin(ctx context.Context, telegramID int64) (bool, error)
}

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	Roles    RoleChecker
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware lets only users with an elevated role reach downstream handlers.
// Lookup failures are treated as a rejection.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.Roles == nil || c.Sender() == nil {
				return reject(c, opts)
			}
			ctx := tghelpers.BuildContext(c)
			ok, err := opts.Roles.IsAdmin(ctx, c.Sender().ID)
			if err != nil {
				logger.Warn(ctx, "tg", "admin.check_failed", logger.Err(err))
			}
			if !ok || err != nil {
				logger.Debug(ctx, "tg", "admin.reject", slog.String("status", "rejected"))
				return reject(c, opts)
			}
			return next(c)
		}
	}
}

func reject(c tele.Context, opts AdminOptions) error {
	if opts.OnReject != nil {
		return opts.OnReject(c)
	}
	return nil
}
