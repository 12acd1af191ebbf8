package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/m3rciful/grocerybot/shop/domain"
)

// cartSelect joins each line with its product; sqlx maps the dotted aliases onto CartLine.Product.
const cartSelect = `
SELECT ci.id, ci.user_id, ci.product_id, ci.quantity,
       p.id             AS "product.id",
       p.category_id    AS "product.category_id",
       p.subcategory_id AS "product.subcategory_id",
       p.name           AS "product.name",
       p.description    AS "product.description",
       p.price          AS "product.price",
       p.unit           AS "product.unit",
       p.step           AS "product.step",
       p.min_quantity   AS "product.min_quantity",
       p.is_available   AS "product.is_available",
       p.created_at     AS "product.created_at"
FROM cart_items ci
JOIN products p ON p.id = ci.product_id`

func (s *Store) Lines(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	var out []domain.CartLine
	if err := s.db.SelectContext(ctx, &out, cartSelect+` WHERE ci.user_id = $1 ORDER BY ci.id`, userID); err != nil {
		return nil, fmt.Errorf("select cart: %w", err)
	}
	return out, nil
}

func (s *Store) Line(ctx context.Context, userID, lineID int64) (domain.CartLine, error) {
	var l domain.CartLine
	err := s.db.GetContext(ctx, &l, cartSelect+` WHERE ci.user_id = $1 AND ci.id = $2`, userID, lineID)
	return l, notFound(err)
}

func (s *Store) LineByProduct(ctx context.Context, userID, productID int64) (domain.CartLine, bool, error) {
	var l domain.CartLine
	err := s.db.GetContext(ctx, &l, cartSelect+` WHERE ci.user_id = $1 AND ci.product_id = $2`, userID, productID)
	if err = notFound(err); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.CartLine{}, false, nil
		}
		return domain.CartLine{}, false, err
	}
	return l, true, nil
}

// AddItem inserts a line or grows the existing one by qty.
func (s *Store) AddItem(ctx context.Context, userID, productID int64, qty int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cart_items (user_id, product_id, quantity) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		userID, productID, qty)
	if err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return nil
}

func (s *Store) SetQuantity(ctx context.Context, userID, lineID int64, qty int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE user_id = $1 AND id = $2`, userID, lineID, qty)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	return requireRow(res)
}

func (s *Store) RemoveItem(ctx context.Context, userID, lineID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND id = $2`, userID, lineID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

type rowsAffected interface {
	RowsAffected() (int64, error)
}

func requireRow(res rowsAffected) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
