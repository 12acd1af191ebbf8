package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/grocerybot/core/database"
	"github.com/m3rciful/grocerybot/shop/domain"
)

// EnsureProduct inserts the seed's category, subcategory and product unless they exist.
// It reports whether the product row was created.
func (s *Store) EnsureProduct(ctx context.Context, seed domain.NewProductSeed) (bool, error) {
	if err := seed.Validate(); err != nil {
		return false, fmt.Errorf("seed %q: %w", seed.Name, err)
	}
	created := false
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var categoryID int64
		err := tx.GetContext(ctx, &categoryID,
			`INSERT INTO categories (name) VALUES ($1)
			 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id`, seed.Category)
		if err != nil {
			return fmt.Errorf("ensure category: %w", err)
		}
		var subcategoryID *int64
		if seed.Subcategory != "" {
			var id int64
			err := tx.GetContext(ctx, &id,
				`INSERT INTO subcategories (category_id, name) VALUES ($1, $2)
				 ON CONFLICT (category_id, name) DO UPDATE SET name = EXCLUDED.name RETURNING id`,
				categoryID, seed.Subcategory)
			if err != nil {
				return fmt.Errorf("ensure subcategory: %w", err)
			}
			subcategoryID = &id
		}
		unit := seed.Unit
		if unit == "" {
			unit = domain.DefaultUnit
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO products (category_id, subcategory_id, name, description, price, unit, step, min_quantity)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (category_id, name) DO NOTHING`,
			categoryID, subcategoryID, seed.Name, nullable(seed.Description), seed.Price,
			unit, max(seed.Step, 1), max(seed.MinQuantity, 1))
		if err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n > 0
		return nil
	})
	return created, err
}
