// README: Location store; current position on the partner row plus a snapshot trail.
package location

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bitebay/internal/types"
)

type Repository interface {
	// Save writes the current position and appends a snapshot atomically.
	Save(ctx context.Context, snap Snapshot) (bool, error)
	// ActiveOrder returns the order the partner is currently delivering, if any.
	ActiveOrder(ctx context.Context, partnerID types.ID) (types.ID, bool, error)
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Save(ctx context.Context, snap Snapshot) (bool, error) {
	var found bool
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE delivery_partners
			SET current_latitude = $1, current_longitude = $2, updated_at = $3
			WHERE user_id = $4`,
			snap.Position.Lat, snap.Position.Lng, snap.RecordedAt, string(snap.PartnerID),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return nil
		}
		found = true
		_, err = tx.Exec(ctx, `
			INSERT INTO location_snapshots (partner_id, latitude, longitude, recorded_at)
			VALUES ($1, $2, $3, $4)`,
			string(snap.PartnerID), snap.Position.Lat, snap.Position.Lng, snap.RecordedAt,
		)
		return err
	})
	return found, err
}

func (s *Store) ActiveOrder(ctx context.Context, partnerID types.ID) (types.ID, bool, error) {
	var orderID types.ID
	err := s.db.QueryRow(ctx, `
		SELECT order_id FROM delivery_assignments
		WHERE delivery_partner_id = $1 AND status IN ('accepted', 'picked_up', 'in_transit')
		ORDER BY assigned_at DESC
		LIMIT 1`, string(partnerID),
	).Scan(&orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return orderID, true, nil
}
