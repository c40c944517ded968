// README: Row builders for DB-backed tests.
package pgtest

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedUser inserts a profile and its role row.
func SeedUser(t *testing.T, db *pgxpool.Pool, id, role string) {
	t.Helper()
	exec(t, db, `INSERT INTO profiles (id, email, first_name) VALUES ($1, $1 || '@bitebay.test', $1)`, id)
	exec(t, db, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, id, role)
}

// SeedVendorStore creates a vendor user with one store.
func SeedVendorStore(t *testing.T, db *pgxpool.Pool, vendorID, storeID string) {
	t.Helper()
	SeedUser(t, db, vendorID, "vendor")
	exec(t, db, `INSERT INTO vendors (user_id, business_name, is_verified) VALUES ($1, $1, TRUE)`, vendorID)
	exec(t, db, `
		INSERT INTO stores (id, vendor_id, name, address, latitude, longitude)
		VALUES ($1, $2, $1, 'MG Road, Bengaluru', 12.9756, 77.6050)`, storeID, vendorID)
}

// SeedPartner creates a delivery partner with the given flags.
func SeedPartner(t *testing.T, db *pgxpool.Pool, id string, available, verified bool) {
	t.Helper()
	SeedUser(t, db, id, "delivery_partner")
	exec(t, db, `
		INSERT INTO delivery_partners (user_id, vehicle_type, is_available, is_verified)
		VALUES ($1, 'bike', $2, $3)`, id, available, verified)
}

// SeedOrder creates an order in the given status for an existing customer and store.
func SeedOrder(t *testing.T, db *pgxpool.Pool, orderID, customerID, storeID, status string) {
	t.Helper()
	exec(t, db, `
		INSERT INTO orders (id, customer_id, store_id, status, total_amount, delivery_address,
		                    delivery_latitude, delivery_longitude)
		VALUES ($1, $2, $3, $4, 500, 'Koramangala, Bengaluru', 12.9352, 77.6245)`,
		orderID, customerID, storeID, status)
}

func exec(t *testing.T, db *pgxpool.Pool, sql string, args ...any) {
	t.Helper()
	if _, err := db.Exec(context.Background(), sql, args...); err != nil {
		t.Fatalf("seed: %v", err)
	}
}
