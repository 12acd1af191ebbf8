// Package ui holds contracts shared by the bot's presentation layer.
package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider answers updates that no command, callback or dialog
// step claimed.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownPhoto() tele.HandlerFunc
	UnknownDocument() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}
