package delivery

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitebay/internal/apperr"
	"bitebay/internal/modules/identity"
	"bitebay/internal/modules/notification"
	"bitebay/internal/modules/order"
	"bitebay/internal/types"
)

type fixture struct {
	db       *memDB
	log      *memDispatchLog
	notes    *notification.MemoryStore
	orders   *order.Service
	delivery *Service
}

func newFixture() *fixture {
	f := &fixture{db: newMemDB(), log: newMemDispatchLog(), notes: notification.NewMemoryStore()}
	notifier := notification.NewService(f.notes, nil, false)
	f.orders = order.NewService(f.db, nil, notifier)
	f.delivery = NewService(f.db, f.log, f.orders, notifier, nil)
	f.orders.UseBroadcaster(f.delivery)
	return f
}

func partner(id types.ID) *identity.Caller {
	return &identity.Caller{UserID: id, Role: identity.RoleDeliveryPartner}
}

func TestConfirmCreatesAssignmentAndBroadcasts(t *testing.T) {
	f := newFixture()
	f.db.addOrder("o1", order.StatusPending)
	f.db.addPartner("p1", true, true)
	f.db.addPartner("p2", true, true)
	f.db.addPartner("p-offline", false, true)
	f.db.addPartner("p-unverified", true, false)
	vendor := &identity.Caller{UserID: "v1", Role: identity.RoleVendor}

	_, err := f.orders.Advance(context.Background(), order.AdvanceCommand{OrderID: "o1", Status: "confirmed", Caller: vendor})
	require.NoError(t, err)

	a, err := f.delivery.Assignment(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, a.Status)
	assert.Nil(t, a.PartnerID)
	assert.Len(t, f.db.assignments, 1)

	for _, id := range []types.ID{"p1", "p2"} {
		msgs := f.notes.For(id)
		require.Len(t, msgs, 1, id)
		assert.Equal(t, "New delivery available", msgs[0].Title)
		assert.Equal(t, notification.TypeDeliveryRequest, msgs[0].Type)
	}
	assert.Empty(t, f.notes.For("p-offline"))
	assert.Empty(t, f.notes.For("p-unverified"))
	assert.ElementsMatch(t, []types.ID{"p1", "p2"}, f.log.notified["o1"])
}

func TestBroadcastOncePerOrder(t *testing.T) {
	f := newFixture()
	f.db.addOrder("o1", order.StatusConfirmed)
	f.db.addPartner("p1", true, true)
	o, _ := f.db.Get(context.Background(), "o1")

	n, err := f.delivery.Broadcast(context.Background(), o)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.delivery.Broadcast(context.Background(), o)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, f.notes.For("p1"), 1)
}

func TestBroadcastRetriesAfterListingFailure(t *testing.T) {
	f := newFixture()
	f.db.addOrder("o1", order.StatusConfirmed)
	f.db.addPartner("p1", true, true)
	o, _ := f.db.Get(context.Background(), "o1")

	f.db.readyErr = errors.New("connection reset")
	_, err := f.delivery.Broadcast(context.Background(), o)
	require.Error(t, err)
	assert.False(t, f.log.broadcast["o1"])

	f.db.readyErr = nil
	n, err := f.delivery.Broadcast(context.Background(), o)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, f.notes.For("p1"), 1)
}

func TestBroadcastWithoutDispatchLog(t *testing.T) {
	f := newFixture()
	f.log.err = errors.New("redis: connection refused")
	f.db.addOrder("o1", order.StatusConfirmed)
	f.db.addPartner("p1", true, true)
	o, _ := f.db.Get(context.Background(), "o1")

	n, err := f.delivery.Broadcast(context.Background(), o)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAcceptThenSecondPartnerConflicts(t *testing.T) {
	f := newFixture()
	f.db.addOrder("o1", order.StatusConfirmed)
	f.db.addAssignment("o1", StatusPending, nil)
	f.db.addPartner("p1", true, true)
	f.db.addPartner("p2", true, true)
	f.log.notified["o1"] = []types.ID{"p1", "p2"}
	ctx := context.Background()

	a, err := f.delivery.Accept(ctx, AcceptCommand{OrderID: "o1", Caller: partner("p1")})
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, a.Status)
	require.NotNil(t, a.PartnerID)
	assert.Equal(t, types.ID("p1"), *a.PartnerID)

	_, err = f.delivery.Accept(ctx, AcceptCommand{OrderID: "o1", Caller: partner("p2")})
	assert.ErrorIs(t, err, ErrAlreadyAccepted)
	assert.Equal(t, http.StatusConflict, apperr.HTTPStatus(err))

	stored, err := f.delivery.Assignment(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, stored.Status)
	assert.Equal(t, types.ID("p1"), *stored.PartnerID)

	require.Len(t, f.notes.For("c1"), 1)
	assert.Equal(t, "Delivery partner assigned", f.notes.For("c1")[0].Title)
	require.Len(t, f.notes.For("v1"), 1)
	require.Len(t, f.notes.For("p2"), 1)
	assert.Equal(t, "Delivery taken", f.notes.For("p2")[0].Title)
	assert.Empty(t, f.notes.For("p1"))
}

func TestConcurrentAcceptSingleWinner(t *testing.T) {
	f := newFixture()
	f.db.addOrder("o1", order.StatusConfirmed)
	f.db.addAssignment("o1", StatusPending, nil)

	const attempts = 8
	ids := make([]types.ID, attempts)
	for i := range ids {
		ids[i] = types.NewID()
		f.db.addPartner(ids[i], true, true)
	}

	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	start := make(chan struct{})
	for _, id := range ids {
		wg.Add(1)
		go func(pid types.ID) {
			defer wg.Done()
			<-start
			_, err := f.delivery.Accept(context.Background(), AcceptCommand{OrderID: "o1", Caller: partner(pid)})
			errs <- err
		}(id)
	}
	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		require.ErrorIs(t, err, ErrAlreadyAccepted)
	}
	assert.Equal(t, 1, success)
	assert.NotNil(t, f.db.assignments["o1"].PartnerID)
}

func TestAcceptRejections(t *testing.T) {
	tests := []struct {
		name     string
		orderID  types.ID
		caller   *identity.Caller
		wantErr  error
		wantCode int
	}{
		{"customer", "o1", &identity.Caller{UserID: "c1", Role: identity.RoleCustomer}, ErrForbidden, http.StatusForbidden},
		{"no caller", "o1", nil, ErrForbidden, http.StatusForbidden},
		{"no partner row", "o1", partner("p-ghost"), ErrPartnerUnavailable, http.StatusForbidden},
		{"offline", "o1", partner("p-offline"), ErrPartnerUnavailable, http.StatusForbidden},
		{"unverified", "o1", partner("p-unverified"), ErrPartnerUnavailable, http.StatusForbidden},
		{"no assignment", "o-none", partner("p1"), ErrAssignmentNotFound, http.StatusNotFound},
		{"already accepted", "o-taken", partner("p1"), ErrAlreadyAccepted, http.StatusConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.db.addOrder("o1", order.StatusConfirmed)
			f.db.addAssignment("o1", StatusPending, nil)
			other := types.ID("p2")
			f.db.addOrder("o-taken", order.StatusConfirmed)
			f.db.addAssignment("o-taken", StatusAccepted, &other)
			f.db.addPartner("p1", true, true)
			f.db.addPartner("p-offline", false, true)
			f.db.addPartner("p-unverified", true, false)

			_, err := f.delivery.Accept(context.Background(), AcceptCommand{OrderID: tc.orderID, Caller: tc.caller})
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, tc.wantCode, apperr.HTTPStatus(err))
			assert.Equal(t, StatusPending, f.db.assignments["o1"].Status)
			assert.Equal(t, 0, f.notes.Len())
		})
	}
}

func TestProgressMirrorsOrder(t *testing.T) {
	f := newFixture()
	p1 := types.ID("p1")
	f.db.addOrder("o1", order.StatusReady)
	f.db.addAssignment("o1", StatusAccepted, &p1)
	f.db.addPartner("p1", true, true)
	ctx := context.Background()

	a, err := f.delivery.UpdateProgress(ctx, ProgressCommand{OrderID: "o1", Status: "picked_up", Caller: partner("p1")})
	require.NoError(t, err)
	assert.Equal(t, StatusPickedUp, a.Status)
	assert.NotNil(t, a.PickedUpAt)
	assert.Equal(t, order.StatusDispatched, f.db.orders["o1"].Status)

	_, err = f.delivery.UpdateProgress(ctx, ProgressCommand{OrderID: "o1", Status: "in_transit", Caller: partner("p1")})
	require.NoError(t, err)

	a, err = f.delivery.UpdateProgress(ctx, ProgressCommand{OrderID: "o1", Status: "delivered", Caller: partner("p1")})
	require.NoError(t, err)
	assert.NotNil(t, a.DeliveredAt)
	assert.Equal(t, order.StatusDelivered, f.db.orders["o1"].Status)

	var titles []string
	for _, n := range f.notes.For("c1") {
		titles = append(titles, n.Title)
	}
	assert.Equal(t, []string{"Order dispatched", "Order on the way", "Order delivered"}, titles)
}

func TestProgressCarriesLaggingOrderToDelivered(t *testing.T) {
	f := newFixture()
	p1 := types.ID("p1")
	f.db.addOrder("o1", order.StatusPreparing)
	f.db.addAssignment("o1", StatusAccepted, &p1)
	ctx := context.Background()

	_, err := f.delivery.UpdateProgress(ctx, ProgressCommand{OrderID: "o1", Status: "picked_up", Caller: partner("p1")})
	require.NoError(t, err)
	assert.Equal(t, order.StatusDispatched, f.db.orders["o1"].Status)

	a, err := f.delivery.UpdateProgress(ctx, ProgressCommand{OrderID: "o1", Status: "delivered", Caller: partner("p1")})
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, a.Status)
	assert.Equal(t, order.StatusDelivered, f.db.orders["o1"].Status)
	assert.True(t, f.db.orders["o1"].Status.Terminal())
}

func TestProgressFallbackNotificationWhenOrderCannotMirror(t *testing.T) {
	f := newFixture()
	p1 := types.ID("p1")
	f.db.addOrder("o1", order.StatusCancelled)
	f.db.addAssignment("o1", StatusAccepted, &p1)

	_, err := f.delivery.UpdateProgress(context.Background(), ProgressCommand{OrderID: "o1", Status: "picked_up", Caller: partner("p1")})
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, f.db.orders["o1"].Status)
	msgs := f.notes.For("c1")
	require.Len(t, msgs, 1)
	assert.Equal(t, "Order picked up", msgs[0].Title)
}

func TestProgressRejections(t *testing.T) {
	f := newFixture()
	p1 := types.ID("p1")
	f.db.addOrder("o1", order.StatusReady)
	f.db.addAssignment("o1", StatusAccepted, &p1)
	ctx := context.Background()

	_, err := f.delivery.UpdateProgress(ctx, ProgressCommand{OrderID: "o1", Status: "accepted", Caller: partner("p1")})
	assert.ErrorIs(t, err, ErrInvalidProgress)

	_, err = f.delivery.UpdateProgress(ctx, ProgressCommand{OrderID: "o1", Status: "picked_up", Caller: partner("p2")})
	assert.ErrorIs(t, err, ErrNotAssigned)

	_, err = f.delivery.UpdateProgress(ctx, ProgressCommand{OrderID: "o1", Status: "in_transit", Caller: partner("p1")})
	assert.ErrorIs(t, err, ErrProgressConflict)

	_, err = f.delivery.UpdateProgress(ctx, ProgressCommand{OrderID: "o1", Status: "picked_up", Caller: &identity.Caller{UserID: "p1", Role: identity.RoleVendor}})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSetAvailability(t *testing.T) {
	f := newFixture()
	f.db.addPartner("p1", false, true)
	ctx := context.Background()

	require.NoError(t, f.delivery.SetAvailability(ctx, partner("p1"), true))
	assert.True(t, f.db.partners["p1"].IsAvailable)

	assert.ErrorIs(t, f.delivery.SetAvailability(ctx, partner("p-ghost"), true), ErrPartnerNotFound)
	assert.ErrorIs(t, f.delivery.SetAvailability(ctx, &identity.Caller{UserID: "c1", Role: identity.RoleCustomer}, true), ErrForbidden)
}
