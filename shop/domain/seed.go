package domain

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// NewProductSeed describes a catalog product inserted by the demo seeder.
type NewProductSeed struct {
	Category    string
	Subcategory string
	Name        string
	Description string
	Price       decimal.Decimal
	Unit        string
	Step        int
	MinQuantity int
}

// Validate checks the seed before it reaches the database.
func (s NewProductSeed) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Category, validation.Required, validation.Length(1, 255)),
		validation.Field(&s.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&s.Price, validation.By(positiveAmount)),
		validation.Field(&s.Step, validation.Min(1)),
		validation.Field(&s.MinQuantity, validation.Min(1)),
	)
}

func positiveAmount(v any) error {
	d, ok := v.(decimal.Decimal)
	if !ok || !d.IsPositive() {
		return validation.NewError("validation_price_positive", "must be greater than zero")
	}
	return nil
}
