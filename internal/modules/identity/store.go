// README: Identity store backed by PostgreSQL (user_roles, profiles).
package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bitebay/internal/types"
)

type Repository interface {
	GetRole(ctx context.Context, userID types.ID) (Role, error)
	GetProfile(ctx context.Context, userID types.ID) (*Profile, error)
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetRole(ctx context.Context, userID types.ID) (Role, error) {
	var role string
	err := s.db.QueryRow(ctx, `SELECT role FROM user_roles WHERE user_id = $1`, string(userID)).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoRole
	}
	if err != nil {
		return "", err
	}
	return Role(role), nil
}

func (s *Store) GetProfile(ctx context.Context, userID types.ID) (*Profile, error) {
	var p Profile
	err := s.db.QueryRow(ctx, `
		SELECT id, email, first_name, COALESCE(last_name, ''), COALESCE(phone, ''), created_at
		FROM profiles
		WHERE id = $1`, string(userID),
	).Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.Phone, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
