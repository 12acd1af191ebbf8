package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Photos is a list of Telegram file ids stored as JSONB.
type Photos []string

// Value implements driver.Valuer.
func (p Photos) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(p))
}

// Scan implements sql.Scanner.
func (p *Photos) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("photos: unsupported type %T", src)
	}
	return json.Unmarshal(raw, (*[]string)(p))
}

// Review is a customer rating of a product, an order, or a product within an order.
type Review struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	ProductID *int64    `db:"product_id"`
	OrderID   *int64    `db:"order_id"`
	Rating    int       `db:"rating"`
	Text      *string   `db:"text"`
	Photos    Photos    `db:"photos"`
	Hidden    bool      `db:"hidden"`
	CreatedAt time.Time `db:"created_at"`
}
