package router

import (
	"log/slog"
	"time"

	"github.com/m3rciful/grocerybot/core/logger"
	tg "github.com/m3rciful/grocerybot/core/telegram"
	"github.com/m3rciful/grocerybot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures role checks for admin-only commands.
type CommandRouteOptions struct {
	Roles         middleware.RoleChecker
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes binds every registered command to its endpoint.
// Admin-only commands are gated by the role checker.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	gate := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		Roles:    opts.Roles,
		OnReject: opts.OnAdminReject,
	})

	defs := reg.Commands()
	routes := make([]tg.Route, 0, len(defs))
	admin := 0
	for endpoint, def := range defs {
		h := def.Handler
		if def.AdminOnly {
			h = gate(h)
			admin++
		}
		name := handlerName(endpoint)
		routes = append(routes, tg.Route{
			Endpoint: endpoint,
			Handler: wrap(func(c tele.Context) error {
				return run(c, name, time.Now(), func() error { return h(c) })
			}),
		})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "commands"),
		slog.Int("commands", len(defs)),
		slog.Int("admin_only", admin),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}
