// README: DB-backed concurrency tests for order transitions (run with -race).
package order

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitebay/internal/modules/identity"
	"bitebay/internal/testutil/pgtest"
)

func TestConcurrentConfirmSingleAssignment(t *testing.T) {
	db := pgtest.Open(t)
	ctx := context.Background()
	pgtest.SeedVendorStore(t, db, "v1", "s1")
	pgtest.SeedUser(t, db, "c1", "customer")
	pgtest.SeedOrder(t, db, "o1", "c1", "s1", "pending")

	svc := NewService(NewStore(db), nil, nil)
	vendor := &identity.Caller{UserID: "v1", Role: identity.RoleVendor}

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Advance(ctx, AdvanceCommand{OrderID: "o1", Status: "confirmed", Caller: vendor})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrConflict) && !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, success)

	var n int
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM delivery_assignments WHERE order_id = 'o1'`).Scan(&n))
	assert.Equal(t, 1, n)

	var events int
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM order_state_events WHERE order_id = 'o1'`).Scan(&events))
	assert.Equal(t, 1, events)
}

func TestCancelClosesAssignment(t *testing.T) {
	db := pgtest.Open(t)
	ctx := context.Background()
	pgtest.SeedVendorStore(t, db, "v1", "s1")
	pgtest.SeedUser(t, db, "c1", "customer")
	pgtest.SeedOrder(t, db, "o1", "c1", "s1", "pending")

	svc := NewService(NewStore(db), nil, nil)
	admin := &identity.Caller{UserID: "a1", Role: identity.RoleAdmin}

	_, err := svc.Advance(ctx, AdvanceCommand{OrderID: "o1", Status: "confirmed", Caller: admin})
	require.NoError(t, err)
	_, err = svc.Advance(ctx, AdvanceCommand{OrderID: "o1", Status: "cancelled", Caller: admin})
	require.NoError(t, err)

	var st string
	require.NoError(t, db.QueryRow(ctx, `SELECT status FROM delivery_assignments WHERE order_id = 'o1'`).Scan(&st))
	assert.Equal(t, "cancelled", st)

	o, err := svc.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status)
	assert.Equal(t, "500", o.Total.Amount.String())
	require.NotNil(t, o.DeliveryPoint)
}
