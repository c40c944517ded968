// README: Refund store backed by PostgreSQL.
package refund

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"bitebay/internal/types"
)

type Repository interface {
	Get(ctx context.Context, id types.ID) (*Refund, error)
	// Approve marks a pending refund processed and its transaction refunded
	// in one transaction. It reports false if the refund was not pending.
	Approve(ctx context.Context, id, adminID types.ID, reason string) (bool, error)
	Reject(ctx context.Context, id, adminID types.ID, reason string) (bool, error)
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Refund, error) {
	var r Refund
	var amount string
	var reason, processedBy *string
	err := s.db.QueryRow(ctx, `
		SELECT r.id, r.order_id, r.transaction_id, r.amount::text, t.currency, r.status,
		       r.reason, r.processed_by, r.processed_at, r.created_at
		FROM refunds r
		JOIN transactions t ON t.id = r.transaction_id
		WHERE r.id = $1`, string(id),
	).Scan(&r.ID, &r.OrderID, &r.TransactionID, &amount, &r.Amount.Currency, &r.Status,
		&reason, &processedBy, &r.ProcessedAt, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if r.Amount.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	if reason != nil {
		r.Reason = *reason
	}
	if processedBy != nil {
		id := types.ID(*processedBy)
		r.ProcessedBy = &id
	}
	return &r, nil
}

func (s *Store) Approve(ctx context.Context, id, adminID types.ID, reason string) (bool, error) {
	var matched bool
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var txID string
		err := tx.QueryRow(ctx, `
			UPDATE refunds
			SET status = 'processed', processed_by = $1, processed_at = NOW(),
			    reason = COALESCE(NULLIF($2, ''), reason)
			WHERE id = $3 AND status = 'pending'
			RETURNING transaction_id`,
			string(adminID), reason, string(id),
		).Scan(&txID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		matched = true
		_, err = tx.Exec(ctx, `UPDATE transactions SET status = 'refunded' WHERE id = $1`, txID)
		return err
	})
	if err != nil {
		return false, err
	}
	return matched, nil
}

func (s *Store) Reject(ctx context.Context, id, adminID types.ID, reason string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE refunds
		SET status = 'rejected', processed_by = $1, processed_at = NOW(),
		    reason = COALESCE(NULLIF($2, ''), reason)
		WHERE id = $3 AND status = 'pending'`,
		string(adminID), reason, string(id),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
