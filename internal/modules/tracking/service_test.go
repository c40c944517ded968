package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitebay/internal/geo"
	"bitebay/internal/modules/delivery"
	"bitebay/internal/modules/identity"
	"bitebay/internal/modules/order"
	"bitebay/internal/types"
)

type stubOrders struct {
	orders map[types.ID]*order.Order
	stores map[types.ID]*order.Storefront
	items  map[types.ID][]order.Item
}

func (s *stubOrders) Get(_ context.Context, id types.ID) (*order.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *stubOrders) Storefront(_ context.Context, id types.ID) (*order.Storefront, error) {
	sf, ok := s.stores[id]
	if !ok {
		return nil, order.ErrStoreNotFound
	}
	return sf, nil
}

func (s *stubOrders) Items(_ context.Context, id types.ID) ([]order.Item, error) {
	return s.items[id], nil
}

type stubDeliveries struct {
	assignments map[types.ID]*delivery.Assignment
	partners    map[types.ID]*delivery.Partner
}

func (s *stubDeliveries) Assignment(_ context.Context, orderID types.ID) (*delivery.Assignment, error) {
	a, ok := s.assignments[orderID]
	if !ok {
		return nil, delivery.ErrAssignmentNotFound
	}
	return a, nil
}

func (s *stubDeliveries) Partner(_ context.Context, id types.ID) (*delivery.Partner, error) {
	p, ok := s.partners[id]
	if !ok {
		return nil, delivery.ErrPartnerNotFound
	}
	return p, nil
}

type countingGeocoder struct {
	calls int
	inner geo.Geocoder
}

func (c *countingGeocoder) Geocode(ctx context.Context, address string) (types.Point, error) {
	c.calls++
	return c.inner.Geocode(ctx, address)
}

func (c *countingGeocoder) Reverse(ctx context.Context, p types.Point) (string, error) {
	return c.inner.Reverse(ctx, p)
}

var (
	storePt    = types.Point{Lat: 12.9756, Lng: 77.6050}
	customerPt = types.Point{Lat: 12.9352, Lng: 77.6245}
)

func newTrackingFixture() (*Service, *stubOrders, *stubDeliveries, *countingGeocoder) {
	p1 := types.ID("p1")
	orders := &stubOrders{
		orders: map[types.ID]*order.Order{
			"o1": {ID: "o1", CustomerID: "c1", StoreID: "s1", Status: order.StatusDispatched, DeliveryAddress: "Koramangala, Bengaluru", DeliveryPoint: &customerPt},
			"o2": {ID: "o2", CustomerID: "c1", StoreID: "s1", Status: order.StatusPending, DeliveryAddress: "5th Block, Koramangala"},
		},
		stores: map[types.ID]*order.Storefront{"s1": {ID: "s1", VendorID: "v1", Name: "Dosa Corner", Address: "MG Road", Point: &storePt}},
		items:  map[types.ID][]order.Item{
			"o1": {{ID: "i1", OrderID: "o1", Name: "Masala Dosa", Quantity: 2}},
		},
	}
	deliveries := &stubDeliveries{
		assignments: map[types.ID]*delivery.Assignment{
			"o1": {ID: "a1", OrderID: "o1", Status: delivery.StatusAccepted, PartnerID: &p1},
		},
		partners: map[types.ID]*delivery.Partner{
			"p1": {UserID: "p1", VehicleType: "bike", VehicleNumber: "KA01AB1234"},
		},
	}
	g := &countingGeocoder{inner: geo.NewFallbackGeocoder(nil)}
	return NewService(orders, deliveries, g, time.Second), orders, deliveries, g
}

func TestSnapshotEstimatedPosition(t *testing.T) {
	svc, _, _, _ := newTrackingFixture()
	customer := &identity.Caller{UserID: "c1", Role: identity.RoleCustomer}

	snap, err := svc.Snapshot(context.Background(), customer, "o1")
	require.NoError(t, err)
	assert.Equal(t, StepDispatched, snap.Step)
	assert.Equal(t, "Dispatched", snap.StepLabel)
	assert.Equal(t, delivery.StatusAccepted, snap.AssignmentStatus)
	require.NotNil(t, snap.Partner)
	assert.Equal(t, "KA01AB1234", snap.Partner.VehicleNumber)
	assert.False(t, snap.PositionLive)
	assert.Equal(t, &storePt, snap.Position)
	assert.True(t, snap.ShowMap)
	assert.False(t, snap.Terminal)
}

func TestSnapshotLivePosition(t *testing.T) {
	svc, _, deliveries, _ := newTrackingFixture()
	live := types.Point{Lat: 12.95, Lng: 77.61}
	deliveries.partners["p1"].Position = &live
	deliveries.assignments["o1"].Status = delivery.StatusInTransit

	snap, err := svc.Snapshot(context.Background(), &identity.Caller{UserID: "p1", Role: identity.RoleDeliveryPartner}, "o1")
	require.NoError(t, err)
	assert.Equal(t, StepOnTheWay, snap.Step)
	assert.True(t, snap.PositionLive)
	assert.Equal(t, &live, snap.Position)
}

func TestSnapshotGeocodesMissingCoordinatesOnce(t *testing.T) {
	svc, _, _, g := newTrackingFixture()
	customer := &identity.Caller{UserID: "c1", Role: identity.RoleCustomer}

	snap, err := svc.Snapshot(context.Background(), customer, "o2")
	require.NoError(t, err)
	require.NotNil(t, snap.CustomerPoint)
	assert.Equal(t, types.Point{Lat: 12.9352, Lng: 77.6245}, *snap.CustomerPoint)
	assert.Equal(t, StepPlaced, snap.Step)
	assert.Empty(t, snap.AssignmentStatus)
	assert.Nil(t, snap.Partner)
	assert.False(t, snap.ShowMap)

	_, err = svc.Snapshot(context.Background(), customer, "o2")
	require.NoError(t, err)
	assert.Equal(t, 1, g.calls)
}

func TestSnapshotAccess(t *testing.T) {
	svc, _, _, _ := newTrackingFixture()
	ctx := context.Background()

	allowed := []*identity.Caller{
		{UserID: "c1", Role: identity.RoleCustomer},
		{UserID: "v1", Role: identity.RoleVendor},
		{UserID: "p1", Role: identity.RoleDeliveryPartner},
		{UserID: "a1", Role: identity.RoleAdmin},
	}
	for _, c := range allowed {
		_, err := svc.Snapshot(ctx, c, "o1")
		assert.NoError(t, err, c.UserID)
	}

	denied := []*identity.Caller{
		nil,
		{UserID: "c2", Role: identity.RoleCustomer},
		{UserID: "v2", Role: identity.RoleVendor},
		{UserID: "p2", Role: identity.RoleDeliveryPartner},
	}
	for _, c := range denied {
		_, err := svc.Snapshot(ctx, c, "o1")
		assert.ErrorIs(t, err, ErrForbidden)
	}

	_, err := svc.Snapshot(ctx, allowed[3], "missing")
	assert.True(t, errors.Is(err, order.ErrNotFound))
}

func TestSnapshotETA(t *testing.T) {
	svc, orders, _, _ := newTrackingFixture()
	customer := &identity.Caller{UserID: "c1", Role: identity.RoleCustomer}

	snap, err := svc.Snapshot(context.Background(), customer, "o1")
	require.NoError(t, err)
	assert.Nil(t, snap.ETAMinutes)

	svc.UseRouter(geo.SpeedRouter{KmPerHour: 20})
	snap, err = svc.Snapshot(context.Background(), customer, "o1")
	require.NoError(t, err)
	require.NotNil(t, snap.ETAMinutes)
	assert.InDelta(t, 15, *snap.ETAMinutes, 2)

	orders.orders["o1"].Status = order.StatusPreparing
	snap, err = svc.Snapshot(context.Background(), customer, "o1")
	require.NoError(t, err)
	assert.Nil(t, snap.ETAMinutes)
}

func TestSnapshotItemsAndRefresh(t *testing.T) {
	svc, _, _, _ := newTrackingFixture()
	customer := &identity.Caller{UserID: "c1", Role: identity.RoleCustomer}

	snap, err := svc.Snapshot(context.Background(), customer, "o1")
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Masala Dosa", snap.Items[0].Name)
	assert.Nil(t, snap.Refresh)

	svc.UseRefreshIntervals(5*time.Second, 30*time.Second)
	snap, err = svc.Snapshot(context.Background(), customer, "o1")
	require.NoError(t, err)
	require.NotNil(t, snap.Refresh)
	assert.Equal(t, Refresh{TrackingSeconds: 5, ListSeconds: 30}, *snap.Refresh)
}

func TestSnapshotTerminalOnceAssignmentDelivered(t *testing.T) {
	svc, orders, deliveries, _ := newTrackingFixture()
	orders.orders["o1"].Status = order.StatusPreparing
	deliveries.assignments["o1"].Status = delivery.StatusDelivered

	snap, err := svc.Snapshot(context.Background(), &identity.Caller{UserID: "c1", Role: identity.RoleCustomer}, "o1")
	require.NoError(t, err)
	assert.Equal(t, StepDelivered, snap.Step)
	assert.True(t, snap.Terminal)
}

type flakyGeocoder struct {
	calls int
	err   error
}

func (f *flakyGeocoder) Geocode(context.Context, string) (types.Point, error) {
	f.calls++
	return types.Point{}, f.err
}

func (f *flakyGeocoder) Reverse(context.Context, types.Point) (string, error) {
	return "", f.err
}

func TestSnapshotGeocodeCachesOnlyDefinitiveMisses(t *testing.T) {
	_, orders, deliveries, _ := newTrackingFixture()
	customer := &identity.Caller{UserID: "c1", Role: identity.RoleCustomer}
	ctx := context.Background()

	transient := &flakyGeocoder{err: errors.New("maps api error: timeout")}
	svc := NewService(orders, deliveries, transient, time.Second)
	for i := 0; i < 2; i++ {
		snap, err := svc.Snapshot(ctx, customer, "o2")
		require.NoError(t, err)
		assert.Nil(t, snap.CustomerPoint)
	}
	assert.Equal(t, 2, transient.calls)

	missing := &flakyGeocoder{err: geo.ErrNoResult}
	svc = NewService(orders, deliveries, missing, time.Second)
	for i := 0; i < 2; i++ {
		_, err := svc.Snapshot(ctx, customer, "o2")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, missing.calls)
}
