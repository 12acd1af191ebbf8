package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/grocerybot/shop/domain"
)

const userColumns = `id, telegram_id, first_name, last_name, username, phone, role, is_active, created_at, updated_at`

func (s *Store) ByTelegramID(ctx context.Context, telegramID int64) (domain.User, error) {
	var u domain.User
	err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID)
	return u, notFound(err)
}

// FindOrCreate returns the user with the profile's Telegram id, registering it with role when absent.
func (s *Store) FindOrCreate(ctx context.Context, p domain.Profile, role domain.Role) (domain.User, bool, error) {
	var u domain.User
	err := s.db.GetContext(ctx, &u,
		`INSERT INTO users (telegram_id, first_name, last_name, username, role)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (telegram_id) DO NOTHING
		 RETURNING `+userColumns,
		p.TelegramID, p.FirstName, nullable(p.LastName), nullable(p.Username), role)
	if err == nil {
		return u, true, nil
	}
	if err = notFound(err); !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, false, fmt.Errorf("insert user: %w", err)
	}
	u, err = s.ByTelegramID(ctx, p.TelegramID)
	if err != nil {
		return domain.User{}, false, err
	}
	return u, false, nil
}

func (s *Store) UpdatePhone(ctx context.Context, userID int64, phone string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET phone = $2, updated_at = now() WHERE id = $1`, userID, phone)
	if err != nil {
		return fmt.Errorf("update phone: %w", err)
	}
	return requireRow(res)
}

// SetRole changes the role of the user with the given Telegram id.
func (s *Store) SetRole(ctx context.Context, telegramID int64, role domain.Role) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET role = $2, updated_at = now() WHERE telegram_id = $1`, telegramID, role)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	return requireRow(res)
}

// ByRoles lists active users holding any of roles.
func (s *Store) ByRoles(ctx context.Context, roles ...domain.Role) ([]domain.User, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE is_active AND role IN (?) ORDER BY id`, roles)
	if err != nil {
		return nil, err
	}
	var out []domain.User
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select users by role: %w", err)
	}
	return out, nil
}

func (s *Store) IsAdmin(ctx context.Context, telegramID int64) (bool, error) {
	u, err := s.ByTelegramID(ctx, telegramID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.IsActive && u.Role.Elevated(), nil
}
