package postgres

import (
	"context"
	"fmt"

	"github.com/m3rciful/grocerybot/shop/domain"
)

const productColumns = `id, category_id, subcategory_id, name, description, price, unit, step, min_quantity, is_available, created_at`

func (s *Store) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := s.db.SelectContext(ctx, &out,
		`SELECT id, name, description, icon, is_active FROM categories WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	return out, nil
}

func (s *Store) Category(ctx context.Context, id int64) (domain.Category, error) {
	var c domain.Category
	err := s.db.GetContext(ctx, &c,
		`SELECT id, name, description, icon, is_active FROM categories WHERE id = $1`, id)
	return c, notFound(err)
}

func (s *Store) Subcategories(ctx context.Context, categoryID int64) ([]domain.Subcategory, error) {
	var out []domain.Subcategory
	err := s.db.SelectContext(ctx, &out,
		`SELECT id, category_id, name, is_active FROM subcategories
		 WHERE category_id = $1 AND is_active ORDER BY name`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("select subcategories: %w", err)
	}
	return out, nil
}

func (s *Store) Subcategory(ctx context.Context, id int64) (domain.Subcategory, error) {
	var c domain.Subcategory
	err := s.db.GetContext(ctx, &c,
		`SELECT id, category_id, name, is_active FROM subcategories WHERE id = $1`, id)
	return c, notFound(err)
}

// ProductsByCategory lists available products of a category that sit outside any subcategory.
func (s *Store) ProductsByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	var out []domain.Product
	err := s.db.SelectContext(ctx, &out,
		`SELECT `+productColumns+` FROM products
		 WHERE category_id = $1 AND subcategory_id IS NULL AND is_available ORDER BY name`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return out, nil
}

func (s *Store) ProductsBySubcategory(ctx context.Context, subcategoryID int64) ([]domain.Product, error) {
	var out []domain.Product
	err := s.db.SelectContext(ctx, &out,
		`SELECT `+productColumns+` FROM products
		 WHERE subcategory_id = $1 AND is_available ORDER BY name`, subcategoryID)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return out, nil
}

func (s *Store) Product(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := s.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return p, notFound(err)
}
