// README: Admin dashboard aggregates.
package stats

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"bitebay/internal/apperr"
	"bitebay/internal/modules/identity"
	"bitebay/internal/modules/order"
	"bitebay/internal/types"
)

var ErrForbidden = apperr.New(apperr.ErrForbidden, "admin access required")

type Totals struct {
	TotalUsers            int         `json:"totalUsers"`
	TotalVendors          int         `json:"totalVendors"`
	TotalDeliveryPartners int         `json:"totalDeliveryPartners"`
	TotalStores           int         `json:"totalStores"`
	TotalOrders           int         `json:"totalOrders"`
	TotalRevenue          types.Money `json:"totalRevenue"`
}

type Overview struct {
	Stats        Totals               `json:"stats"`
	OrderStats   map[order.Status]int `json:"orderStats"`
	RecentOrders []order.Order        `json:"recentOrders"`
}

type Repository interface {
	Totals(ctx context.Context) (Totals, error)
	CountByStatus(ctx context.Context) (map[order.Status]int, error)
	Recent(ctx context.Context, limit int) ([]order.Order, error)
}

type Service struct {
	store       Repository
	recentLimit int
}

func NewService(store Repository, recentLimit int) *Service {
	if recentLimit <= 0 {
		recentLimit = 10
	}
	return &Service{store: store, recentLimit: recentLimit}
}

func (s *Service) Overview(ctx context.Context, caller *identity.Caller) (*Overview, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	var out Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.store.Totals(gctx)
		if err != nil {
			return fmt.Errorf("totals: %w", err)
		}
		out.Stats = t
		return nil
	})
	g.Go(func() error {
		counts, err := s.store.CountByStatus(gctx)
		if err != nil {
			return fmt.Errorf("order stats: %w", err)
		}
		// every status is present, zero or not
		out.OrderStats = make(map[order.Status]int, len(order.Sequence)+1)
		for _, st := range order.Sequence {
			out.OrderStats[st] = counts[st]
		}
		out.OrderStats[order.StatusCancelled] = counts[order.StatusCancelled]
		return nil
	})
	g.Go(func() error {
		recent, err := s.store.Recent(gctx, s.recentLimit)
		if err != nil {
			return fmt.Errorf("recent orders: %w", err)
		}
		out.RecentOrders = recent
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Store reads aggregates straight from Postgres; recent orders come from the order store.
type Store struct {
	db     *pgxpool.Pool
	orders *order.Store
}

func NewStore(db *pgxpool.Pool, orders *order.Store) *Store {
	return &Store{db: db, orders: orders}
}

func (s *Store) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	var revenue string
	err := s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM profiles),
			(SELECT COUNT(*) FROM vendors),
			(SELECT COUNT(*) FROM delivery_partners),
			(SELECT COUNT(*) FROM stores),
			(SELECT COUNT(*) FROM orders),
			(SELECT COALESCE(SUM(total_amount), 0)::text FROM orders WHERE status = 'delivered')`,
	).Scan(&t.TotalUsers, &t.TotalVendors, &t.TotalDeliveryPartners, &t.TotalStores, &t.TotalOrders, &revenue)
	if err != nil {
		return Totals{}, err
	}
	amount, err := decimal.NewFromString(revenue)
	if err != nil {
		return Totals{}, err
	}
	t.TotalRevenue = types.Money{Amount: amount, Currency: types.DefaultCurrency}
	return t, nil
}

func (s *Store) CountByStatus(ctx context.Context) (map[order.Status]int, error) {
	rows, err := s.db.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[order.Status]int{}
	for rows.Next() {
		var st order.Status
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		out[st] = n
	}
	return out, rows.Err()
}

func (s *Store) Recent(ctx context.Context, limit int) ([]order.Order, error) {
	return s.orders.Recent(ctx, limit)
}
