// README: Roles, the request-scoped caller and profile records.
package identity

import (
	"time"

	"bitebay/internal/apperr"
	"bitebay/internal/types"
)

type Role string

const (
	RoleCustomer        Role = "customer"
	RoleVendor          Role = "vendor"
	RoleDeliveryPartner Role = "delivery_partner"
	RoleAdmin           Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleCustomer, RoleVendor, RoleDeliveryPartner, RoleAdmin:
		return r, true
	}
	return "", false
}

// Caller is the authenticated principal for one request. It is resolved once at
// the HTTP edge and passed explicitly into every service call.
type Caller struct {
	UserID types.ID
	Email  string
	Role   Role
}

func (c *Caller) Is(r Role) bool {
	return c != nil && c.Role == r
}

func (c *Caller) IsAdmin() bool {
	return c.Is(RoleAdmin)
}

type Profile struct {
	ID        types.ID  `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p *Profile) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

var (
	ErrNoRole          = apperr.New(apperr.ErrForbidden, "no role assigned to user")
	ErrProfileNotFound = apperr.New(apperr.ErrNotFound, "profile not found")
)
