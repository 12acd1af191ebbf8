package domain

import "strings"

// NormalizePhone strips spaces and '+' from a shared contact number and
// rewrites a leading 8 of an 11-digit number to the international 7.
func NormalizePhone(raw string) string {
	clean := strings.Map(func(r rune) rune {
		if r == ' ' || r == '+' || r == '\t' {
			return -1
		}
		return r
	}, raw)
	if len(clean) == 11 && clean[0] == '8' {
		clean = "7" + clean[1:]
	}
	return clean
}

// FormatPhone renders a normalized Russian number as +7 (XXX) XXX-XX-XX.
// Other numbers are returned unchanged; an empty number renders as a placeholder.
func FormatPhone(phone string) string {
	if phone == "" {
		return "Не указан"
	}
	if len(phone) == 11 && phone[0] == '7' {
		return "+7 (" + phone[1:4] + ") " + phone[4:7] + "-" + phone[7:9] + "-" + phone[9:]
	}
	return phone
}

// FormatUserPhone is FormatPhone over an optional column.
func FormatUserPhone(u User) string {
	if u.Phone == nil {
		return FormatPhone("")
	}
	return FormatPhone(*u.Phone)
}
