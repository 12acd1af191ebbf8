package helpers

import (
	"strings"
	"time"
)

// dateLayouts are tried in order; ISO first, then the dd.mm.yyyy forms
// operators type by hand.
var dateLayouts = [...]string{
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-1-2",
	"02.01.2006 15:04",
	"02.01.2006",
	"2.1.2006",
}

// relativeDays maps day words to an offset from today.
var relativeDays = map[string]int{
	"сегодня": 0, "today": 0,
	"вчера": -1, "yesterday": -1,
}

// ParseFlexibleDate parses an operator-typed date in loc (time.Local when nil).
// Besides the numeric layouts it accepts "сегодня"/"today" and
// "вчера"/"yesterday", resolved to midnight.
func ParseFlexibleDate(input string, loc *time.Location) (time.Time, bool) {
	return parseDate(input, loc, time.Now())
}

func parseDate(input string, loc *time.Location, now time.Time) (time.Time, bool) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	if off, ok := relativeDays[s]; ok {
		y, m, d := now.In(loc).Date()
		return time.Date(y, m, d+off, 0, 0, 0, 0, loc), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
