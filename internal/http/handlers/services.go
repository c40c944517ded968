// README: Service contracts the handlers depend on; stubs in tests implement them.
package handlers

import (
	"context"

	"bitebay/internal/modules/delivery"
	"bitebay/internal/modules/identity"
	"bitebay/internal/modules/notification"
	"bitebay/internal/modules/order"
	"bitebay/internal/modules/refund"
	"bitebay/internal/modules/registration"
	"bitebay/internal/modules/stats"
	"bitebay/internal/modules/tracking"
	"bitebay/internal/types"
)

type Registrar interface {
	Register(ctx context.Context, cmd registration.RegisterCommand, caller *identity.Caller) (*registration.User, error)
	AssignRole(ctx context.Context, admin *identity.Caller, userID types.ID, role string) error
	Verify(ctx context.Context, admin *identity.Caller, userID types.ID, role string) error
}

type Profiles interface {
	Profile(ctx context.Context, uid types.ID) (*identity.Profile, error)
}

type OrderAdvancer interface {
	Advance(ctx context.Context, cmd order.AdvanceCommand) (*order.Order, error)
}

type Deliveries interface {
	Accept(ctx context.Context, cmd delivery.AcceptCommand) (*delivery.Assignment, error)
	UpdateProgress(ctx context.Context, cmd delivery.ProgressCommand) (*delivery.Assignment, error)
	SetAvailability(ctx context.Context, caller *identity.Caller, available bool) error
}

type RefundProcessor interface {
	Process(ctx context.Context, cmd refund.ProcessCommand) (*refund.Refund, error)
}

type StatsReader interface {
	Overview(ctx context.Context, caller *identity.Caller) (*stats.Overview, error)
}

type Locations interface {
	UpdatePartnerLocation(ctx context.Context, caller *identity.Caller, p types.Point) error
}

type Notifications interface {
	List(ctx context.Context, userID types.ID, unreadOnly bool) ([]notification.Notification, error)
	MarkRead(ctx context.Context, userID, id types.ID) error
}

type Snapshotter interface {
	Snapshot(ctx context.Context, caller *identity.Caller, orderID types.ID) (*tracking.Snapshot, error)
}

type FeedRunner interface {
	Run(ctx context.Context, caller *identity.Caller, orderID types.ID, emit func(*tracking.Snapshot) error) error
}

type Passcodes interface {
	Issue(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) error
}
