// README: Registration writes: profile, role row and the vendor/partner record in one transaction.
package registration

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bitebay/internal/modules/identity"
	"bitebay/internal/types"
)

type Repository interface {
	CreateAccount(ctx context.Context, a Account) error
	// SetRole upserts the role row and provisions the matching record if absent.
	SetRole(ctx context.Context, userID types.ID, role identity.Role) error
	// MarkVerified reports false when no record of that role exists for the user.
	MarkVerified(ctx context.Context, userID types.ID, role identity.Role) (bool, error)
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) CreateAccount(ctx context.Context, a Account) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO profiles (id, email, first_name, last_name, phone)
			VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))`,
			string(a.UserID), a.Email, a.FirstName, a.LastName, a.Phone,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`,
			string(a.UserID), string(a.Role)); err != nil {
			return err
		}
		return provision(ctx, tx, a.UserID, a.Role, a)
	})
}

func (s *Store) SetRole(ctx context.Context, userID types.ID, role identity.Role) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var a Account
		err := tx.QueryRow(ctx, `
			SELECT first_name, COALESCE(last_name, '') FROM profiles WHERE id = $1`, string(userID),
		).Scan(&a.FirstName, &a.LastName)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO user_roles (user_id, role) VALUES ($1, $2)
			ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role`,
			string(userID), string(role)); err != nil {
			return err
		}
		a.BusinessName = a.FirstName
		if a.LastName != "" {
			a.BusinessName += " " + a.LastName
		}
		return provision(ctx, tx, userID, role, a)
	})
}

func provision(ctx context.Context, tx pgx.Tx, userID types.ID, role identity.Role, a Account) error {
	var err error
	switch role {
	case identity.RoleVendor:
		_, err = tx.Exec(ctx, `
			INSERT INTO vendors (user_id, business_name, license_number, is_verified)
			VALUES ($1, $2, NULLIF($3, ''), FALSE)
			ON CONFLICT (user_id) DO NOTHING`,
			string(userID), a.BusinessName, a.LicenseNumber)
	case identity.RoleDeliveryPartner:
		_, err = tx.Exec(ctx, `
			INSERT INTO delivery_partners (user_id, vehicle_type, vehicle_number, is_available, is_verified)
			VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), FALSE, FALSE)
			ON CONFLICT (user_id) DO NOTHING`,
			string(userID), a.VehicleType, a.VehicleNumber)
	}
	return err
}

func (s *Store) MarkVerified(ctx context.Context, userID types.ID, role identity.Role) (bool, error) {
	var sql string
	switch role {
	case identity.RoleVendor:
		sql = `UPDATE vendors SET is_verified = TRUE WHERE user_id = $1`
	case identity.RoleDeliveryPartner:
		sql = `UPDATE delivery_partners SET is_verified = TRUE, updated_at = NOW() WHERE user_id = $1`
	default:
		return false, ErrNotVerifiable
	}
	tag, err := s.db.Exec(ctx, sql, string(userID))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
