package format

import (
	"regexp"
	"strings"
)

const (
	// MarkdownV1 denotes Telegram markdown version 1.
	MarkdownV1 = 1
	// MarkdownV2 denotes Telegram markdown version 2.
	MarkdownV2 = 2
)

var (
	mdV1Specials = regexp.MustCompile("([_*`\\[])")
	mdV2Specials = regexp.MustCompile(`([_*\[\]()~` + "`" + `>#+\-=|{}.!\\])`)
)

// EscapeMarkdown escapes special characters for the given markdown version.
// Unknown versions return text unchanged.
func EscapeMarkdown(text string, version int) string {
	switch version {
	case MarkdownV1:
		return mdV1Specials.ReplaceAllString(text, `\$1`)
	case MarkdownV2:
		return mdV2Specials.ReplaceAllString(text, `\$1`)
	}
	return text
}

// MD escapes user-provided text for the legacy Markdown parse mode.
func MD(text string) string {
	return EscapeMarkdown(strings.TrimSpace(text), MarkdownV1)
}
