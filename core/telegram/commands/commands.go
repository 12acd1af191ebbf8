// Package commands describes the slash commands a bot registers.
package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command is a slash command with its handler and menu metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are routed for admins only and listed only in admin chats.
	AdminOnly bool
	// Hidden commands work but never appear in the menu.
	Hidden bool
}
