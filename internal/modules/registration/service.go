// README: Registration gate; self-service signups are customers, other roles need an admin.
package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"bitebay/internal/apperr"
	"bitebay/internal/infra"
	"bitebay/internal/logger"
	"bitebay/internal/modules/identity"
	"bitebay/internal/types"
)

type Service struct {
	store    Repository
	users    infra.UserAdmin
	validate *validator.Validate
}

func NewService(store Repository, users infra.UserAdmin) *Service {
	return &Service{store: store, users: users, validate: validator.New()}
}

// Register creates the identity and its Postgres records. caller is nil for
// anonymous signups. Every gate check runs before the identity is created.
func (s *Service) Register(ctx context.Context, cmd RegisterCommand, caller *identity.Caller) (*User, error) {
	cmd.Email = strings.ToLower(strings.TrimSpace(cmd.Email))
	cmd.FirstName = strings.TrimSpace(cmd.FirstName)
	if err := s.validate.Struct(cmd); err != nil {
		return nil, validationError(err)
	}
	role, err := s.gate(cmd, caller)
	if err != nil {
		return nil, err
	}

	log := logger.FromCtx(ctx).With(zap.String("layer", "service"), zap.String("role", string(role)))

	uid, err := s.users.CreateUser(ctx, infra.NewUser{
		Email:       cmd.Email,
		Password:    cmd.Password,
		DisplayName: strings.TrimSpace(cmd.FirstName + " " + cmd.LastName),
	})
	if errors.Is(err, infra.ErrEmailExists) {
		return nil, ErrEmailExists
	}
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}

	acct := Account{
		UserID:        types.ID(uid),
		Email:         cmd.Email,
		FirstName:     cmd.FirstName,
		LastName:      cmd.LastName,
		Phone:         cmd.Phone,
		Role:          role,
		BusinessName:  cmd.BusinessName,
		LicenseNumber: cmd.LicenseNumber,
		VehicleType:   cmd.VehicleType,
		VehicleNumber: cmd.VehicleNumber,
	}
	if err := s.store.CreateAccount(ctx, acct); err != nil {
		if delErr := s.users.DeleteUser(ctx, uid); delErr != nil {
			log.Error("identity cleanup failed", zap.String("uid", uid), zap.Error(delErr))
		}
		return nil, fmt.Errorf("create account %s: %w", uid, err)
	}

	log.Info("user registered", zap.String("uid", uid))
	return &User{
		ID:        acct.UserID,
		Email:     acct.Email,
		FirstName: acct.FirstName,
		LastName:  acct.LastName,
		Role:      role,
	}, nil
}

func (s *Service) gate(cmd RegisterCommand, caller *identity.Caller) (identity.Role, error) {
	if cmd.Role == "" {
		return identity.RoleCustomer, nil
	}
	role, ok := identity.ParseRole(cmd.Role)
	if !ok {
		return "", ErrInvalidRole
	}
	switch role {
	case identity.RoleCustomer:
		return role, nil
	case identity.RoleAdmin:
		return "", ErrAdminNotAllowed
	}
	if caller == nil {
		return "", ErrAdminRequired
	}
	if !caller.IsAdmin() {
		return "", ErrForbidden
	}
	if role == identity.RoleVendor && strings.TrimSpace(cmd.BusinessName) == "" {
		return "", ErrBusinessName
	}
	return role, nil
}

// AssignRole changes an existing user's role. Admin can never be granted here.
func (s *Service) AssignRole(ctx context.Context, admin *identity.Caller, userID types.ID, roleName string) error {
	if !admin.IsAdmin() {
		return ErrForbidden
	}
	role, ok := identity.ParseRole(roleName)
	if !ok {
		return ErrInvalidRole
	}
	if role == identity.RoleAdmin {
		return ErrAdminNotAllowed
	}
	if err := s.store.SetRole(ctx, userID, role); err != nil {
		if apperr.Public(err) {
			return err
		}
		return fmt.Errorf("assign role to %s: %w", userID, err)
	}
	logger.FromCtx(ctx).Info("role assigned",
		zap.String("user_id", string(userID)), zap.String("role", string(role)), zap.String("admin_id", string(admin.UserID)))
	return nil
}

// Verify flips is_verified on the user's vendor or partner record.
func (s *Service) Verify(ctx context.Context, admin *identity.Caller, userID types.ID, roleName string) error {
	if !admin.IsAdmin() {
		return ErrForbidden
	}
	role, ok := identity.ParseRole(roleName)
	if !ok || (role != identity.RoleVendor && role != identity.RoleDeliveryPartner) {
		return ErrNotVerifiable
	}
	found, err := s.store.MarkVerified(ctx, userID, role)
	if err != nil {
		return fmt.Errorf("verify %s: %w", userID, err)
	}
	if !found {
		return ErrRecordNotFound
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.New(apperr.ErrValidation, "invalid request")
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return apperr.New(apperr.ErrValidation, field+" is required")
	case "email":
		return apperr.New(apperr.ErrValidation, field+" must be a valid email")
	case "min":
		return apperr.New(apperr.ErrValidation, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
	default:
		return apperr.New(apperr.ErrValidation, field+" is invalid")
	}
}
