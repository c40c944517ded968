// README: Notification store backed by PostgreSQL.
package notification

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bitebay/internal/types"
)

type Repository interface {
	Insert(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID types.ID, unreadOnly bool, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, userID, id types.ID) (bool, error)
	EmailFor(ctx context.Context, userID types.ID) (string, error)
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Insert(ctx context.Context, n *Notification) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO notifications (id, user_id, title, message, type, data, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)`,
		string(n.ID), string(n.UserID), n.Title, n.Message, n.Type, n.Payload, n.CreatedAt,
	)
	return err
}

func (s *Store) ListByUser(ctx context.Context, userID types.ID, unreadOnly bool, limit int) ([]Notification, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, title, message, type, data, is_read, created_at
		FROM notifications
		WHERE user_id = $1 AND ($2 = FALSE OR is_read = FALSE)
		ORDER BY created_at DESC
		LIMIT $3`, string(userID), unreadOnly, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Payload, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) MarkRead(ctx context.Context, userID, id types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1 AND user_id = $2`, string(id), string(userID),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) EmailFor(ctx context.Context, userID types.ID) (string, error) {
	var email string
	err := s.db.QueryRow(ctx, `SELECT email FROM profiles WHERE id = $1`, string(userID)).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return email, err
}
