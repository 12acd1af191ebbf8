package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/m3rciful/grocerybot/core/logger"
	"github.com/m3rciful/grocerybot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry maps slash commands and inline-button keys to handlers.
// Registration happens during wiring; lookups are safe from any goroutine.
type Registry struct {
	mu        sync.RWMutex
	commands  map[string]commands.Command
	callbacks map[string]tele.HandlerFunc

	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

// NewRegistry returns an empty registry whose unknown-callback fallback
// answers with a short notice.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
		},
	}
}

// RegisterCommand adds name, which must start with a slash.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	switch {
	case len(name) < 2 || name[0] != '/':
		return fmt.Errorf("command %q: name must start with /", name)
	case cmd.Handler == nil || cmd.Description == "":
		return fmt.Errorf("command %s: handler and description are required", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("command already registered: %s", name)
	}
	r.commands[name] = cmd
	return nil
}

// ListCommands returns the menu entries, sorted. Hidden commands are never
// listed; admin-only ones only when admin is set.
func (r *Registry) ListCommands(admin bool) []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]tele.Command, 0, len(r.commands))
	for name, meta := range r.commands {
		if meta.Hidden || (meta.AdminOnly && !admin) {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: meta.Description})
	}
	slices.SortFunc(list, func(a, b tele.Command) int { return strings.Compare(a.Text, b.Text) })
	return list
}

// LookupCommand resolves a typed command such as "/start" or "/status@shopbot 12 ready".
func (r *Registry) LookupCommand(text string) (string, commands.Command, bool) {
	name, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	name, _, _ = strings.Cut(name, "@")
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return name, cmd, ok
}

// Commands returns a copy of the registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.commands)
}

// RegisterCallback binds key, the button's unique part, to handler.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if key == "" || handler == nil {
		return fmt.Errorf("callback %q: key and handler are required", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.callbacks[key]; dup {
		return fmt.Errorf("callback already registered: %s", key)
	}
	r.callbacks[key] = handler
	return nil
}

// RegisterCallbacks registers the whole table in key order and reports every
// failure at once.
func (r *Registry) RegisterCallbacks(table map[string]tele.HandlerFunc) error {
	var errs []error
	for _, k := range slices.Sorted(maps.Keys(table)) {
		if err := r.RegisterCallback(k, table[k]); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.callbacks",
			slog.Int("failed", len(errs)),
			logger.Err(err),
		)
		return err
	}
	return nil
}

// GetCallback returns the handler bound to key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns the registered keys, sorted.
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.callbacks))
}

// SetCallbackNotFound replaces the fallback handler for unknown callbacks.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h != nil {
		r.callbackNotFound = h
	}
}

// CallbackNotFound returns the current fallback callback handler.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	return r.callbackNotFound
}

// SetTextFallback sets a global fallback handler for unknown text messages.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

// TextFallback returns the current text fallback handler.
func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

// InitBotCommands publishes the command menu: public commands for everyone
// and the full list in each admin chat.
func InitBotCommands(bot *tele.Bot, reg *Registry, adminChats []int64) {
	ctx := context.Background()
	if err := bot.SetCommands(reg.ListCommands(false)); err != nil {
		logger.TWire.LogAttrs(ctx, slog.LevelError, "register.commands.set_failed", logger.Err(err))
		return
	}
	full := reg.ListCommands(true)
	for _, chat := range adminChats {
		scope := tele.CommandScope{Type: tele.CommandScopeChat, ChatID: chat}
		if err := bot.SetCommands(full, scope); err != nil {
			logger.TWire.LogAttrs(ctx, slog.LevelWarn, "register.commands.admin_failed",
				slog.Int64("chat_id", chat),
				logger.Err(err),
			)
		}
	}
}
