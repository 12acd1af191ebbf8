package checkout

import (
	"fmt"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Address length bounds in characters.
const (
	MinAddressLen = 5
	MaxAddressLen = 500
)

// AddressInput is the delivery address typed by the user.
type AddressInput struct {
	Text string
}

// Normalized trims surrounding whitespace.
func (in AddressInput) Normalized() AddressInput {
	return AddressInput{Text: strings.TrimSpace(in.Text)}
}

// Validate checks the trimmed address length in characters.
func (in AddressInput) Validate() error {
	n := in.Normalized()
	return validation.ValidateStruct(&n,
		validation.Field(&n.Text,
			validation.Required.Error("address is required"),
			validation.By(runeLength(MinAddressLen, MaxAddressLen)),
		),
	)
}

func runeLength(lo, hi int) validation.RuleFunc {
	return func(v any) error {
		s, _ := v.(string)
		if n := utf8.RuneCountInString(s); n < lo || n > hi {
			return validation.NewError("validation_address_length",
				fmt.Sprintf("must be between %d and %d characters", lo, hi))
		}
		return nil
	}
}
