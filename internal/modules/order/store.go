// README: Order store backed by PostgreSQL.
package order

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"bitebay/internal/types"
)

type Repository interface {
	Get(ctx context.Context, id types.ID) (*Order, error)
	GetStorefront(ctx context.Context, id types.ID) (*Storefront, error)
	Items(ctx context.Context, orderID types.ID) ([]Item, error)
	// Transition moves the order from -> to and reports whether a row matched.
	Transition(ctx context.Context, id types.ID, from, to Status) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const selectOrder = `
	SELECT id, customer_id, store_id, status, total_amount::text, currency,
	       delivery_address, delivery_latitude, delivery_longitude, COALESCE(notes, ''),
	       created_at, updated_at
	FROM orders`

func (s *Store) Get(ctx context.Context, id types.ID) (*Order, error) {
	row := s.db.QueryRow(ctx, selectOrder+` WHERE id = $1`, string(id))
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

// Recent lists the newest orders first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Order, error) {
	rows, err := s.db.Query(ctx, selectOrder+` ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var amount string
	var lat, lng *float64
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.StoreID, &o.Status, &amount, &o.Total.Currency,
		&o.DeliveryAddress, &lat, &lng, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if o.Total.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		o.DeliveryPoint = &types.Point{Lat: *lat, Lng: *lng}
	}
	return &o, nil
}

func (s *Store) GetStorefront(ctx context.Context, id types.ID) (*Storefront, error) {
	var sf Storefront
	var lat, lng *float64
	err := s.db.QueryRow(ctx, `
		SELECT id, vendor_id, name, COALESCE(address, ''), latitude, longitude
		FROM stores
		WHERE id = $1`, string(id),
	).Scan(&sf.ID, &sf.VendorID, &sf.Name, &sf.Address, &lat, &lng)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		sf.Point = &types.Point{Lat: *lat, Lng: *lng}
	}
	return &sf, nil
}

func (s *Store) Items(ctx context.Context, orderID types.ID) ([]Item, error) {
	rows, err := s.db.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.name, oi.quantity, oi.price::text, o.currency
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE oi.order_id = $1
		ORDER BY oi.name`, string(orderID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Item{}
	for rows.Next() {
		var it Item
		var price string
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Name, &it.Quantity, &price, &it.Price.Currency); err != nil {
			return nil, err
		}
		if it.Price.Amount, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Transition applies the conditional status write. Confirming also opens the
// order's single pending delivery assignment, and cancelling closes any open
// one, in the same transaction.
func (s *Store) Transition(ctx context.Context, id types.ID, from, to Status) (bool, error) {
	var matched bool
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE orders
			SET status = $1, updated_at = NOW()
			WHERE id = $2 AND status = $3`,
			string(to), string(id), string(from),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return nil
		}
		matched = true

		switch to {
		case StatusConfirmed:
			_, err = tx.Exec(ctx, `
				INSERT INTO delivery_assignments (id, order_id, status, created_at)
				VALUES ($1, $2, 'pending', NOW())
				ON CONFLICT (order_id) DO NOTHING`,
				string(types.NewID()), string(id),
			)
		case StatusCancelled:
			_, err = tx.Exec(ctx, `
				UPDATE delivery_assignments
				SET status = 'cancelled'
				WHERE order_id = $1 AND status NOT IN ('delivered', 'cancelled')`,
				string(id),
			)
		}
		return err
	})
	if err != nil {
		return false, err
	}
	return matched, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO order_state_events (
			order_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.OrderID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		toStringPtr(e.ActorID),
		e.CreatedAt,
	)
	return err
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
