// README: Assignment and partner store backed by PostgreSQL.
package delivery

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bitebay/internal/types"
)

type Repository interface {
	GetPartner(ctx context.Context, id types.ID) (*Partner, error)
	ReadyPartners(ctx context.Context) ([]types.ID, error)
	GetAssignmentByOrder(ctx context.Context, orderID types.ID) (*Assignment, error)
	// Claim moves a pending assignment to accepted for partnerID. It reports
	// false when another writer got there first.
	Claim(ctx context.Context, assignmentID, partnerID types.ID) (bool, error)
	Progress(ctx context.Context, assignmentID, partnerID types.ID, from []Status, to Status) (bool, error)
	SetAvailability(ctx context.Context, partnerID types.ID, available bool) (bool, error)
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetPartner(ctx context.Context, id types.ID) (*Partner, error) {
	var p Partner
	var vehicleType, vehicleNumber *string
	var lat, lng *float64
	err := s.db.QueryRow(ctx, `
		SELECT user_id, vehicle_type, vehicle_number, is_available, is_verified,
		       current_latitude, current_longitude
		FROM delivery_partners
		WHERE user_id = $1`, string(id),
	).Scan(&p.UserID, &vehicleType, &vehicleNumber, &p.IsAvailable, &p.IsVerified, &lat, &lng)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPartnerNotFound
	}
	if err != nil {
		return nil, err
	}
	if vehicleType != nil {
		p.VehicleType = *vehicleType
	}
	if vehicleNumber != nil {
		p.VehicleNumber = *vehicleNumber
	}
	if lat != nil && lng != nil {
		p.Position = &types.Point{Lat: *lat, Lng: *lng}
	}
	return &p, nil
}

func (s *Store) ReadyPartners(ctx context.Context) ([]types.ID, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id FROM delivery_partners
		WHERE is_available = TRUE AND is_verified = TRUE
		ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []types.ID
	for rows.Next() {
		var id types.ID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) GetAssignmentByOrder(ctx context.Context, orderID types.ID) (*Assignment, error) {
	var a Assignment
	var partnerID *string
	err := s.db.QueryRow(ctx, `
		SELECT id, order_id, delivery_partner_id, status,
		       assigned_at, picked_up_at, delivered_at, created_at
		FROM delivery_assignments
		WHERE order_id = $1`, string(orderID),
	).Scan(&a.ID, &a.OrderID, &partnerID, &a.Status, &a.AssignedAt, &a.PickedUpAt, &a.DeliveredAt, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAssignmentNotFound
	}
	if err != nil {
		return nil, err
	}
	if partnerID != nil {
		id := types.ID(*partnerID)
		a.PartnerID = &id
	}
	return &a, nil
}

func (s *Store) Claim(ctx context.Context, assignmentID, partnerID types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE delivery_assignments
		SET delivery_partner_id = $1,
		    status = 'accepted',
		    assigned_at = NOW()
		WHERE id = $2 AND status = 'pending'`,
		string(partnerID), string(assignmentID),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) Progress(ctx context.Context, assignmentID, partnerID types.ID, from []Status, to Status) (bool, error) {
	prior := make([]string, len(from))
	for i, st := range from {
		prior[i] = string(st)
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE delivery_assignments
		SET status = $1,
		    picked_up_at = CASE WHEN $1 = 'picked_up' THEN NOW() ELSE picked_up_at END,
		    delivered_at = CASE WHEN $1 = 'delivered' THEN NOW() ELSE delivered_at END
		WHERE id = $2 AND delivery_partner_id = $3 AND status = ANY($4)`,
		string(to), string(assignmentID), string(partnerID), prior,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) SetAvailability(ctx context.Context, partnerID types.ID, available bool) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE delivery_partners
		SET is_available = $1, updated_at = NOW()
		WHERE user_id = $2`, available, string(partnerID),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
