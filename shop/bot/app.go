package bot

import (
	"context"
	"errors"

	tg "github.com/m3rciful/grocerybot/core/telegram"
	"github.com/m3rciful/grocerybot/core/telegram/commands"
	"github.com/m3rciful/grocerybot/core/telegram/router"
	tgsender "github.com/m3rciful/grocerybot/core/telegram/sender"
	"github.com/m3rciful/grocerybot/core/telegram/ui"
	"github.com/m3rciful/grocerybot/shop/config"

	tele "gopkg.in/telebot.v4"
)

var _ ui.FallbackProvider = (*Handlers)(nil)

// App assembles the storefront into telegram run options.
type App struct {
	cfg        *config.Config
	svc        *Services
	handlers   *Handlers
	dispatcher *tgsender.Dispatcher
	closers    []func() error
}

// NewApp builds the app. closers run on shutdown after the bot stopped.
func NewApp(cfg *config.Config, svc *Services, dispatcher *tgsender.Dispatcher, closers ...func() error) *App {
	return &App{
		cfg:        cfg,
		svc:        svc,
		handlers:   NewHandlers(svc, cfg.Shop, cfg.Telegram.OwnerID),
		dispatcher: dispatcher,
		closers:    closers,
	}
}

// Handlers exposes the storefront handlers.
func (a *App) Handlers() *Handlers { return a.handlers }

// Registry registers commands and callbacks.
func (a *App) Registry() (*tg.Registry, error) {
	h := a.handlers
	reg := tg.NewRegistry()
	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Handler: h.OnStart, Description: "Начать работу"}},
		{"/menu", commands.Command{Handler: h.OnMenu, Description: "Главное меню"}},
		{"/catalog", commands.Command{Handler: h.OnCatalog, Description: "Каталог товаров"}},
		{"/cart", commands.Command{Handler: h.OnCart, Description: "Корзина"}},
		{"/orders", commands.Command{Handler: h.OnOrders, Description: "Мои заказы"}},
		{"/status", commands.Command{Handler: h.OnStatus, Description: "Изменить статус заказа", AdminOnly: true}},
		{"/orders_admin", commands.Command{Handler: h.OnOrdersAdmin, Description: "Заказы за день", AdminOnly: true}},
		{"/hide_review", commands.Command{Handler: h.OnHideReview, Description: "Скрыть отзыв", AdminOnly: true}},
	}
	var errs []error
	for _, c := range cmds {
		errs = append(errs, reg.RegisterCommand(c.name, c.cmd))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := reg.RegisterCallbacks(h.Callbacks()); err != nil {
		return nil, err
	}
	reg.SetCallbackNotFound(h.UnknownCallback())
	return reg, nil
}

// TelegramRunOptions wires routes, middlewares and lifecycle hooks.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg, err := a.Registry()
	if err != nil {
		return tg.RunOptions{}, err
	}
	h := a.handlers

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		Roles:         a.svc.Store,
		OnAdminReject: h.OnAdminReject,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{
		NotFound:    h.UnknownCallback(),
		KeepPending: true,
	}))
	routes = append(routes, router.MessageRoutes(NewDialog(h), reg, router.FallbackOptions(h, h.OnContact))...)

	return tg.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Dispatcher:  a.dispatcher,
		Middlewares: tg.DefaultMiddlewares(a.cfg.CoreConfig(), h.OnLimited),
		Routes:      routes,
		AdminChats:  a.adminChats(),
		OnStart: func(_ context.Context, rt tg.Runtime) error {
			a.svc.Transport.Attach(rt.Bot)
			a.svc.Sessions.Start()
			return nil
		},
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			a.svc.Sessions.Stop(ctx)
			return a.close()
		},
	}, nil
}

// adminChats lists private chats of configured admins and the owner.
func (a *App) adminChats() []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, id := range append([]int64{a.cfg.Telegram.OwnerID}, a.cfg.Shop.AdminIDs...) {
		if _, dup := seen[id]; id == 0 || dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func (a *App) close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Messenger = (*tele.Bot)(nil)
