package delivery

import (
	"context"
	"sync"
	"time"

	"bitebay/internal/modules/order"
	"bitebay/internal/types"
)

// memDB backs both the order and delivery repositories so a confirm through
// the order service creates the assignment the allocator then hands out.
type memDB struct {
	mu          sync.Mutex
	orders      map[types.ID]*order.Order
	stores      map[types.ID]*order.Storefront
	assignments map[types.ID]*Assignment // by order id
	partners    map[types.ID]*Partner
	readyErr    error
}

func newMemDB() *memDB {
	return &memDB{
		orders:      map[types.ID]*order.Order{},
		stores:      map[types.ID]*order.Storefront{"s1": {ID: "s1", VendorID: "v1", Name: "Dosa Corner"}},
		assignments: map[types.ID]*Assignment{},
		partners:    map[types.ID]*Partner{},
	}
}

func (m *memDB) addOrder(id types.ID, st order.Status) {
	m.orders[id] = &order.Order{ID: id, CustomerID: "c1", StoreID: "s1", Status: st}
}

func (m *memDB) addPartner(id types.ID, available, verified bool) {
	m.partners[id] = &Partner{UserID: id, IsAvailable: available, IsVerified: verified}
}

func (m *memDB) addAssignment(orderID types.ID, st Status, partner *types.ID) {
	m.assignments[orderID] = &Assignment{ID: "a-" + orderID, OrderID: orderID, Status: st, PartnerID: partner}
}

// order.Repository

func (m *memDB) Get(_ context.Context, id types.ID) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memDB) GetStorefront(_ context.Context, id types.ID) (*order.Storefront, error) {
	sf, ok := m.stores[id]
	if !ok {
		return nil, order.ErrStoreNotFound
	}
	return sf, nil
}

func (m *memDB) Items(context.Context, types.ID) ([]order.Item, error) { return nil, nil }

func (m *memDB) Transition(_ context.Context, id types.ID, from, to order.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	if to == order.StatusConfirmed {
		if _, exists := m.assignments[id]; !exists {
			m.assignments[id] = &Assignment{ID: types.NewID(), OrderID: id, Status: StatusPending, CreatedAt: time.Now()}
		}
	}
	return true, nil
}

func (m *memDB) AppendEvent(context.Context, *order.Event) error { return nil }

// Repository

func (m *memDB) GetPartner(_ context.Context, id types.ID) (*Partner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.partners[id]
	if !ok {
		return nil, ErrPartnerNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memDB) ReadyPartners(context.Context) ([]types.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readyErr != nil {
		return nil, m.readyErr
	}
	var ids []types.ID
	for id, p := range m.partners {
		if p.CanAccept() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memDB) GetAssignmentByOrder(_ context.Context, orderID types.ID) (*Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[orderID]
	if !ok {
		return nil, ErrAssignmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memDB) Claim(_ context.Context, assignmentID, partnerID types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assignments {
		if a.ID == assignmentID && a.Status == StatusPending {
			id := partnerID
			a.PartnerID = &id
			a.Status = StatusAccepted
			return true, nil
		}
	}
	return false, nil
}

func (m *memDB) Progress(_ context.Context, assignmentID, partnerID types.ID, from []Status, to Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assignments {
		if a.ID != assignmentID || !a.AssignedTo(partnerID) {
			continue
		}
		for _, f := range from {
			if a.Status == f {
				a.Status = to
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *memDB) SetAvailability(_ context.Context, partnerID types.ID, available bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.partners[partnerID]
	if !ok {
		return false, nil
	}
	p.IsAvailable = available
	return true, nil
}

type memDispatchLog struct {
	mu        sync.Mutex
	broadcast map[types.ID]bool
	notified  map[types.ID][]types.ID
	err       error
}

func newMemDispatchLog() *memDispatchLog {
	return &memDispatchLog{broadcast: map[types.ID]bool{}, notified: map[types.ID][]types.ID{}}
}

func (l *memDispatchLog) TryMarkBroadcast(_ context.Context, orderID types.ID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if l.broadcast[orderID] {
		return false, nil
	}
	l.broadcast[orderID] = true
	return true, nil
}

func (l *memDispatchLog) RecordDispatch(_ context.Context, orderID types.ID, ids []types.ID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notified[orderID] = append(l.notified[orderID], ids...)
	return nil
}

func (l *memDispatchLog) Notified(_ context.Context, orderID types.ID) ([]types.ID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.notified[orderID], nil
}
