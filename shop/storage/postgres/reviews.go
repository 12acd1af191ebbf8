package postgres

import (
	"context"
	"fmt"

	"github.com/m3rciful/grocerybot/shop/domain"
	"github.com/m3rciful/grocerybot/shop/review"
)

func (s *Store) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	if err := s.db.GetContext(ctx, &ok, `SELECT EXISTS (SELECT 1 FROM reviews WHERE `+query+` AND hidden = false)`, args...); err != nil {
		return false, fmt.Errorf("review exists: %w", err)
	}
	return ok, nil
}

func (s *Store) ExistsForOrderProduct(ctx context.Context, userID, orderID, productID int64) (bool, error) {
	return s.exists(ctx, `user_id = $1 AND order_id = $2 AND product_id = $3`, userID, orderID, productID)
}

func (s *Store) ExistsForOrder(ctx context.Context, userID, orderID int64) (bool, error) {
	return s.exists(ctx, `user_id = $1 AND order_id = $2 AND product_id IS NULL`, userID, orderID)
}

// ExistsForProduct counts order-scoped reviews of the product as well.
func (s *Store) ExistsForProduct(ctx context.Context, userID, productID int64) (bool, error) {
	return s.exists(ctx, `user_id = $1 AND product_id = $2`, userID, productID)
}

// Create inserts a review. A collision with a visible review on the same target
// yields review.ErrDuplicate.
func (s *Store) Create(ctx context.Context, r domain.Review) (domain.Review, error) {
	if r.Photos == nil {
		r.Photos = domain.Photos{}
	}
	rows, err := s.db.NamedQueryContext(ctx,
		`INSERT INTO reviews (user_id, product_id, order_id, rating, text, photos)
		 VALUES (:user_id, :product_id, :order_id, :rating, :text, :photos)
		 RETURNING id, created_at`, r)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Review{}, review.ErrDuplicate
		}
		return domain.Review{}, fmt.Errorf("insert review: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&r.ID, &r.CreatedAt); err != nil {
			return domain.Review{}, err
		}
	}
	if err := rows.Err(); err != nil {
		if isUniqueViolation(err) {
			return domain.Review{}, review.ErrDuplicate
		}
		return domain.Review{}, err
	}
	return r, nil
}

// Hide takes a review out of duplicate checks and ratings.
func (s *Store) Hide(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE reviews SET hidden = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("hide review: %w", err)
	}
	return requireRow(res)
}

// ProductStats averages visible ratings of a product.
func (s *Store) ProductStats(ctx context.Context, productID int64) (domain.RatingStats, error) {
	var stats domain.RatingStats
	err := s.db.GetContext(ctx, &stats,
		`SELECT COALESCE(ROUND(AVG(rating)::numeric, 2), 0) AS avg, COUNT(*) AS count
		 FROM reviews WHERE product_id = $1 AND hidden = false`, productID)
	if err != nil {
		return domain.RatingStats{}, fmt.Errorf("review stats: %w", err)
	}
	return stats, nil
}
