package domain

import (
	"strings"
	"time"
)

// Role is the access level of a storefront user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleOwner Role = "owner"
)

// Elevated reports whether the role receives order notifications and admin commands.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleOwner
}

// ElevatedRoles lists the roles that receive new order broadcasts.
var ElevatedRoles = []Role{RoleAdmin, RoleOwner}

// User is a storefront customer identified by their Telegram account.
type User struct {
	ID         int64     `db:"id"`
	TelegramID int64     `db:"telegram_id"`
	FirstName  string    `db:"first_name"`
	LastName   *string   `db:"last_name"`
	Username   *string   `db:"username"`
	Phone      *string   `db:"phone"`
	Role       Role      `db:"role"`
	IsActive   bool      `db:"is_active"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// DisplayName joins first and last name.
func (u User) DisplayName() string {
	name := u.FirstName
	if u.LastName != nil && *u.LastName != "" {
		name += " " + *u.LastName
	}
	return strings.TrimSpace(name)
}

// HasPhone reports whether the user already shared a contact.
func (u User) HasPhone() bool {
	return u.Phone != nil && *u.Phone != ""
}

// Profile carries the Telegram fields used to register or refresh a user.
type Profile struct {
	TelegramID int64
	FirstName  string
	LastName   string
	Username   string
}
