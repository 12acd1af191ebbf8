package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/grocerybot/core/database"
	"github.com/m3rciful/grocerybot/shop/domain"
)

const orderColumns = `id, user_id, status, total_price, address, notes, created_at, updated_at`

// PlaceOrder writes the order header and every line in one transaction.
func (s *Store) PlaceOrder(ctx context.Context, o domain.NewOrder) (domain.Order, error) {
	order := domain.Order{
		UserID:     o.UserID,
		Status:     domain.StatusPending,
		TotalPrice: o.Total(),
		Address:    o.Address,
		Notes:      nullable(o.Notes),
	}
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx,
			`INSERT INTO orders (user_id, status, total_price, address, notes)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`,
			order.UserID, order.Status, order.TotalPrice, order.Address, order.Notes,
		).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for _, l := range o.Lines {
			l.OrderID = order.ID
			err := tx.QueryRowxContext(ctx,
				`INSERT INTO order_items (order_id, product_id, product_name, quantity, price)
				 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
				l.OrderID, l.ProductID, l.ProductName, l.Quantity, l.Price,
			).Scan(&l.ID)
			if err != nil {
				return fmt.Errorf("insert order item %d: %w", l.ProductID, err)
			}
			order.Lines = append(order.Lines, l)
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (s *Store) Order(ctx context.Context, id int64) (domain.Order, error) {
	var o domain.Order
	if err := s.db.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id); err != nil {
		return domain.Order{}, notFound(err)
	}
	orders := []domain.Order{o}
	if err := s.attachLines(ctx, orders); err != nil {
		return domain.Order{}, err
	}
	return orders[0], nil
}

// OrdersForUser returns the user's orders, newest first.
func (s *Store) OrdersForUser(ctx context.Context, userID int64, limit int) ([]domain.Order, error) {
	return s.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		userID, limitOrAll(limit))
}

// OrdersBetween returns orders created in [from, to), newest first.
func (s *Store) OrdersBetween(ctx context.Context, from, to time.Time, limit int) ([]domain.Order, error) {
	return s.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at DESC, id DESC LIMIT $3`,
		from, to, limitOrAll(limit))
}

func (s *Store) UpdateStatus(ctx context.Context, orderID int64, status domain.OrderStatus) (domain.Order, error) {
	var o domain.Order
	err := s.db.GetContext(ctx, &o,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1 RETURNING `+orderColumns,
		orderID, status)
	if err != nil {
		return domain.Order{}, notFound(err)
	}
	orders := []domain.Order{o}
	if err := s.attachLines(ctx, orders); err != nil {
		return domain.Order{}, err
	}
	return orders[0], nil
}

func (s *Store) listOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	var out []domain.Order
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	if err := s.attachLines(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachLines loads the lines of all orders with a single IN query.
func (s *Store) attachLines(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}
	query, args, err := sqlx.In(
		`SELECT id, order_id, product_id, product_name, quantity, price
		 FROM order_items WHERE order_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return err
	}
	var lines []domain.OrderLine
	if err := s.db.SelectContext(ctx, &lines, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("select order items: %w", err)
	}
	for _, l := range lines {
		i := index[l.OrderID]
		orders[i].Lines = append(orders[i].Lines, l)
	}
	return nil
}

// limitOrAll maps a non-positive limit to LIMIT ALL.
func limitOrAll(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
