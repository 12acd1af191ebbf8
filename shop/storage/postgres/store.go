// Package postgres implements the shop stores on PostgreSQL through sqlx.
package postgres

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/grocerybot/shop/domain"
)

const uniqueViolation = "23505"

// Store holds every shop table behind one connection pool.
type Store struct {
	db *sqlx.DB
}

// New wraps an open pool.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying pool.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
