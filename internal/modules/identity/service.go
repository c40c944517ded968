// README: Resolves an authenticated uid into a role-bearing Caller.
package identity

import (
	"context"
	"fmt"

	"bitebay/internal/types"
)

type Service struct {
	store Repository
}

func NewService(store Repository) *Service {
	return &Service{store: store}
}

// Resolve looks up the role row for uid. Token claims are never trusted for the role.
func (s *Service) Resolve(ctx context.Context, uid types.ID, email string) (*Caller, error) {
	if uid == "" {
		return nil, ErrNoRole
	}
	role, err := s.store.GetRole(ctx, uid)
	if err != nil {
		if err == ErrNoRole {
			return nil, err
		}
		return nil, fmt.Errorf("resolve role for %s: %w", uid, err)
	}
	if _, ok := ParseRole(string(role)); !ok {
		return nil, fmt.Errorf("user %s has unknown role %q", uid, role)
	}
	return &Caller{UserID: uid, Email: email, Role: role}, nil
}

func (s *Service) Profile(ctx context.Context, uid types.ID) (*Profile, error) {
	return s.store.GetProfile(ctx, uid)
}
