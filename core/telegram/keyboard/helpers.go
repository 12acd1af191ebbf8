// Package keyboard builds reply and inline keyboards from plain button values.
package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn is an inline button routed by its Unique key; Data is the payload.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// Btn builds an InlineBtn with an optional payload.
func Btn(text, unique string, data ...string) InlineBtn {
	b := InlineBtn{Text: text, Unique: unique}
	if len(data) > 0 {
		b.Data = data[0]
	}
	return b
}

// Row groups buttons into one keyboard row.
func Row(buttons ...InlineBtn) []InlineBtn {
	return buttons
}

// RemoveKeyboard hides the reply keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ContactRequest is a one-time reply keyboard with a single share-contact button.
func ContactRequest(label string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	markup.Reply(markup.Row(markup.Contact(label)))
	return markup
}

// InlineButtons puts every button on its own row.
func InlineButtons(buttons []InlineBtn) *tele.ReplyMarkup {
	return InlineButtonsRows(Chunk(buttons, 1)...)
}

// InlineButtonsRows builds an inline keyboard. Empty rows are skipped.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		line := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			line = append(line, *markup.Data(b.Text, b.Unique, b.Data).Inline())
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, line)
	}
	return markup
}

// Chunk splits buttons into rows of at most n.
func Chunk(buttons []InlineBtn, n int) [][]InlineBtn {
	n = max(n, 1)
	rows := make([][]InlineBtn, 0, (len(buttons)+n-1)/n)
	for len(buttons) > 0 {
		k := min(n, len(buttons))
		rows = append(rows, buttons[:k:k])
		buttons = buttons[k:]
	}
	return rows
}
