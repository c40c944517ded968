// README: Identity provider contracts shared by the firebase and local JWT implementations.
package infra

import (
	"context"
	"errors"
)

// VerifiedToken holds the verified token data used by downstream middleware.
type VerifiedToken struct {
	UID    string
	Email  string
	Claims map[string]interface{}
}

// TokenVerifier verifies a raw bearer token string and returns token data.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*VerifiedToken, error)
}

// NewUser is the identity half of a registration; profile data lives in Postgres.
type NewUser struct {
	Email       string
	Password    string
	DisplayName string
}

// UserAdmin creates and removes identities on behalf of the registration flow.
type UserAdmin interface {
	CreateUser(ctx context.Context, u NewUser) (string, error)
	DeleteUser(ctx context.Context, uid string) error
}

type IdentityProvider interface {
	TokenVerifier
	UserAdmin
}

var (
	ErrEmailExists  = errors.New("email already registered")
	ErrInvalidToken = errors.New("invalid token")
)
