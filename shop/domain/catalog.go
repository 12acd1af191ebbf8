package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultUnit is used when a product has no unit configured.
const DefaultUnit = "кг"

// Category is a top-level catalog section.
type Category struct {
	ID          int64   `db:"id"`
	Name        string  `db:"name"`
	Description *string `db:"description"`
	Icon        *string `db:"icon"`
	IsActive    bool    `db:"is_active"`
}

// Title prefixes the name with the category icon when set.
func (c Category) Title() string {
	if c.Icon != nil && *c.Icon != "" {
		return *c.Icon + " " + c.Name
	}
	return c.Name
}

// Subcategory groups products inside a category.
type Subcategory struct {
	ID         int64  `db:"id"`
	CategoryID int64  `db:"category_id"`
	Name       string `db:"name"`
	IsActive   bool   `db:"is_active"`
}

// Product is a catalog item. Quantities are counted in whole units of Unit.
type Product struct {
	ID            int64           `db:"id"`
	CategoryID    int64           `db:"category_id"`
	SubcategoryID *int64          `db:"subcategory_id"`
	Name          string          `db:"name"`
	Description   *string         `db:"description"`
	Price         decimal.Decimal `db:"price"`
	Unit          string          `db:"unit"`
	Step          int             `db:"step"`
	MinQuantity   int             `db:"min_quantity"`
	IsAvailable   bool            `db:"is_available"`
	CreatedAt     time.Time       `db:"created_at"`
}

// QuantityStep returns the increment granularity, at least 1.
func (p Product) QuantityStep() int {
	return max(p.Step, 1)
}

// MinimumQuantity returns the smallest orderable quantity, at least 1.
func (p Product) MinimumQuantity() int {
	return max(p.MinQuantity, 1)
}

// FirstAddQuantity is the quantity placed in the cart on the first add.
func (p Product) FirstAddQuantity() int {
	return max(p.MinimumQuantity(), p.QuantityStep())
}

// UnitLabel returns the unit or the default one.
func (p Product) UnitLabel() string {
	if p.Unit == "" {
		return DefaultUnit
	}
	return p.Unit
}

// RatingStats aggregates visible reviews of a product.
type RatingStats struct {
	Average decimal.Decimal `db:"avg"`
	Count   int             `db:"count"`
}
