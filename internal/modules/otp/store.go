// README: Passcode store backed by PostgreSQL.
package otp

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNoCode = errors.New("no code issued")

type Repository interface {
	Upsert(ctx context.Context, r Record) error
	Get(ctx context.Context, email string) (*Record, error)
	Delete(ctx context.Context, email string) error
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Upsert(ctx context.Context, r Record) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO otp_verification (email, code_hash, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET code_hash = EXCLUDED.code_hash, created_at = EXCLUDED.created_at`,
		r.Email, r.CodeHash, r.CreatedAt)
	return err
}

func (s *Store) Get(ctx context.Context, email string) (*Record, error) {
	var r Record
	err := s.db.QueryRow(ctx, `SELECT email, code_hash, created_at FROM otp_verification WHERE email = $1`, email).
		Scan(&r.Email, &r.CodeHash, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoCode
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) Delete(ctx context.Context, email string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM otp_verification WHERE email = $1`, email)
	return err
}
