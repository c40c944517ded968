package stats

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitebay/internal/apperr"
	"bitebay/internal/modules/identity"
	"bitebay/internal/modules/order"
	"bitebay/internal/testutil/pgtest"
	"bitebay/internal/types"
)

type stubStore struct {
	totals    Totals
	counts    map[order.Status]int
	recent    []order.Order
	gotLimit  int
	totalsErr error
}

func (s *stubStore) Totals(context.Context) (Totals, error) { return s.totals, s.totalsErr }

func (s *stubStore) CountByStatus(context.Context) (map[order.Status]int, error) {
	return s.counts, nil
}

func (s *stubStore) Recent(_ context.Context, limit int) ([]order.Order, error) {
	s.gotLimit = limit
	if len(s.recent) > limit {
		return s.recent[:limit], nil
	}
	return s.recent, nil
}

func TestOverviewRequiresAdmin(t *testing.T) {
	svc := NewService(&stubStore{}, 10)
	for _, c := range []*identity.Caller{nil, {UserID: "v1", Role: identity.RoleVendor}} {
		_, err := svc.Overview(context.Background(), c)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, http.StatusForbidden, apperr.HTTPStatus(err))
	}
}

func TestOverview(t *testing.T) {
	revenue, _ := types.NewMoney("1250.50")
	store := &stubStore{
		totals: Totals{TotalUsers: 12, TotalOrders: 3, TotalRevenue: revenue},
		counts: map[order.Status]int{order.StatusDelivered: 2, order.StatusCancelled: 1},
		recent: []order.Order{{ID: "o3"}, {ID: "o2"}, {ID: "o1"}},
	}
	svc := NewService(store, 2)

	ov, err := svc.Overview(context.Background(), &identity.Caller{UserID: "a1", Role: identity.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, 12, ov.Stats.TotalUsers)
	assert.Equal(t, "1250.50 INR", ov.Stats.TotalRevenue.String())
	assert.Equal(t, 2, ov.OrderStats[order.StatusDelivered])
	assert.Equal(t, 1, ov.OrderStats[order.StatusCancelled])
	assert.Contains(t, ov.OrderStats, order.StatusPending)
	assert.Zero(t, ov.OrderStats[order.StatusPending])
	assert.Len(t, ov.OrderStats, len(order.Sequence)+1)
	assert.Equal(t, 2, store.gotLimit)
	assert.Len(t, ov.RecentOrders, 2)
}

func TestOverviewStoreFailure(t *testing.T) {
	svc := NewService(&stubStore{totalsErr: errors.New("timeout")}, 10)
	_, err := svc.Overview(context.Background(), &identity.Caller{UserID: "a1", Role: identity.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperr.HTTPStatus(err))
}

func TestStoreAggregates(t *testing.T) {
	db := pgtest.Open(t)
	ctx := context.Background()
	pgtest.SeedVendorStore(t, db, "v1", "s1")
	pgtest.SeedUser(t, db, "c1", "customer")
	pgtest.SeedPartner(t, db, "p1", true, true)
	pgtest.SeedOrder(t, db, "o1", "c1", "s1", "delivered")
	pgtest.SeedOrder(t, db, "o2", "c1", "s1", "delivered")
	pgtest.SeedOrder(t, db, "o3", "c1", "s1", "pending")

	store := NewStore(db, order.NewStore(db))
	totals, err := store.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, totals.TotalUsers)
	assert.Equal(t, 1, totals.TotalVendors)
	assert.Equal(t, 1, totals.TotalDeliveryPartners)
	assert.Equal(t, 1, totals.TotalStores)
	assert.Equal(t, 3, totals.TotalOrders)
	assert.Equal(t, "1000.00 INR", totals.TotalRevenue.String())

	counts, err := store.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[order.StatusDelivered])
	assert.Equal(t, 1, counts[order.StatusPending])
}
