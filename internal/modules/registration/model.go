// README: Signup command, role gate errors and the user record returned on success.
package registration

import (
	"bitebay/internal/apperr"
	"bitebay/internal/modules/identity"
	"bitebay/internal/types"
)

// RegisterCommand is the register-user payload.
type RegisterCommand struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=6"`
	FirstName     string `json:"firstName" validate:"required"`
	LastName      string `json:"lastName"`
	Phone         string `json:"phone" validate:"omitempty,max=20"`
	Role          string `json:"role"`
	BusinessName  string `json:"businessName"`
	LicenseNumber string `json:"licenseNumber"`
	VehicleType   string `json:"vehicleType"`
	VehicleNumber string `json:"vehicleNumber"`
}

type User struct {
	ID        types.ID      `json:"id"`
	Email     string        `json:"email"`
	FirstName string        `json:"firstName"`
	LastName  string        `json:"lastName,omitempty"`
	Role      identity.Role `json:"role"`
}

// Account is everything written to Postgres for one registration.
type Account struct {
	UserID        types.ID
	Email         string
	FirstName     string
	LastName      string
	Phone         string
	Role          identity.Role
	BusinessName  string
	LicenseNumber string
	VehicleType   string
	VehicleNumber string
}

var (
	ErrInvalidRole     = apperr.New(apperr.ErrValidation, "invalid role")
	ErrAdminNotAllowed = apperr.New(apperr.ErrValidation, "admin accounts cannot be registered")
	ErrAdminRequired   = apperr.New(apperr.ErrUnauthenticated, "an admin token is required for this role")
	ErrForbidden       = apperr.New(apperr.ErrForbidden, "only admins can register this role")
	ErrBusinessName    = apperr.New(apperr.ErrValidation, "businessName is required for vendors")
	ErrEmailExists     = apperr.New(apperr.ErrValidation, "email already registered")
	ErrUserNotFound    = apperr.New(apperr.ErrNotFound, "user not found")
	ErrNotVerifiable   = apperr.New(apperr.ErrValidation, "only vendors and delivery partners can be verified")
	ErrRecordNotFound  = apperr.New(apperr.ErrNotFound, "no vendor or partner record for user")
)
