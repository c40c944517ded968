// README: In-memory notification store for tests in other packages.
package notification

import (
	"context"
	"sync"

	"bitebay/internal/types"
)

// MemoryStore keeps notifications in memory. Other packages use it in tests.
type MemoryStore struct {
	mu     sync.Mutex
	rows   []Notification
	emails map[types.ID]string
	// FailFor makes Insert fail for the given user.
	FailFor map[types.ID]error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{emails: map[types.ID]string{}, FailFor: map[types.ID]error{}}
}

func (m *MemoryStore) SetEmail(userID types.ID, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails[userID] = email
}

func (m *MemoryStore) Insert(_ context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailFor[n.UserID]; err != nil {
		return err
	}
	m.rows = append(m.rows, *n)
	return nil
}

func (m *MemoryStore) ListByUser(_ context.Context, userID types.ID, unreadOnly bool, limit int) ([]Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Notification{}
	for i := len(m.rows) - 1; i >= 0 && len(out) < limit; i-- {
		n := m.rows[i]
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (m *MemoryStore) MarkRead(_ context.Context, userID, id types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].UserID == userID {
			m.rows[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) EmailFor(_ context.Context, userID types.ID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.emails[userID], nil
}

// For returns every notification addressed to userID, oldest first.
func (m *MemoryStore) For(userID types.ID) []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Notification
	for _, n := range m.rows {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
