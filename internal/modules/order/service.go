// README: Order service implements the status state machine.
package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"bitebay/internal/logger"
	"bitebay/internal/modules/identity"
	"bitebay/internal/modules/notification"
	"bitebay/internal/realtime"
	"bitebay/internal/types"
)

type Notifier interface {
	Send(ctx context.Context, msgs ...notification.Message) int
}

// Broadcaster offers a freshly confirmed order to delivery partners.
type Broadcaster interface {
	Broadcast(ctx context.Context, o *Order) (int, error)
}

type Service struct {
	store       Repository
	publisher   realtime.Publisher
	notifier    Notifier
	broadcaster Broadcaster
}

func NewService(store Repository, publisher realtime.Publisher, notifier Notifier) *Service {
	if publisher == nil {
		publisher = realtime.Nop{}
	}
	return &Service{store: store, publisher: publisher, notifier: notifier}
}

// UseBroadcaster wires the allocator in after construction; the allocator
// itself depends on this service for delivery-driven transitions.
func (s *Service) UseBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

type AdvanceCommand struct {
	OrderID types.ID
	Status  string
	Caller  *identity.Caller
}

// Advance is the vendor/admin entry point into the state machine.
func (s *Service) Advance(ctx context.Context, cmd AdvanceCommand) (*Order, error) {
	to, ok := ParseStatus(cmd.Status)
	if !ok || to == StatusPending {
		return nil, ErrInvalidStatus
	}
	if cmd.OrderID == "" {
		return nil, ErrNotFound
	}
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	sf, err := s.store.GetStorefront(ctx, o.StoreID)
	if err != nil {
		return nil, err
	}
	if !cmd.Caller.IsAdmin() && !(cmd.Caller.Is(identity.RoleVendor) && sf.VendorID == cmd.Caller.UserID) {
		return nil, ErrForbidden
	}

	actorID := cmd.Caller.UserID
	if err := s.transition(ctx, o, to, CanTransition, string(cmd.Caller.Role), &actorID); err != nil {
		return nil, err
	}

	if to == StatusConfirmed && s.broadcaster != nil {
		if _, err := s.broadcaster.Broadcast(ctx, o); err != nil {
			logger.FromCtx(ctx).Warn("delivery broadcast failed",
				zap.String("order_id", string(o.ID)), zap.Error(err))
		}
	}
	return o, nil
}

// MarkDispatched records that the assigned partner picked the order up.
func (s *Service) MarkDispatched(ctx context.Context, orderID, partnerID types.ID) error {
	return s.systemTransition(ctx, orderID, StatusDispatched, partnerID)
}

// MarkDelivered records the partner's drop-off.
func (s *Service) MarkDelivered(ctx context.Context, orderID, partnerID types.ID) error {
	return s.systemTransition(ctx, orderID, StatusDelivered, partnerID)
}

// systemMirrorAttempts bounds retries when a vendor update races the mirror.
const systemMirrorAttempts = 3

func (s *Service) systemTransition(ctx context.Context, orderID types.ID, to Status, partnerID types.ID) error {
	var err error
	for i := 0; i < systemMirrorAttempts; i++ {
		var o *Order
		if o, err = s.store.Get(ctx, orderID); err != nil {
			return err
		}
		if o.Status == to {
			return nil
		}
		err = s.transition(ctx, o, to, CanSkipTo, string(identity.RoleDeliveryPartner), &partnerID)
		if err != ErrConflict {
			return err
		}
	}
	return err
}

// transition runs the guarded write and its advisory follow-ups. o is updated
// in place on success.
func (s *Service) transition(ctx context.Context, o *Order, to Status, allowed func(from, to Status) bool, actorType string, actorID *types.ID) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("order_id", string(o.ID)),
	)
	from := o.Status
	if !allowed(from, to) {
		return ErrInvalidTransition
	}
	ok, err := s.store.Transition(ctx, o.ID, from, to)
	if err != nil {
		return fmt.Errorf("update order %s: %w", o.ID, err)
	}
	if !ok {
		return ErrConflict
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	log.Info("order status changed", zap.String("from", string(from)), zap.String("to", string(to)))

	if err := s.store.AppendEvent(ctx, &Event{
		OrderID:    o.ID,
		FromStatus: from,
		ToStatus:   to,
		ActorType:  actorType,
		ActorID:    actorID,
		CreatedAt:  o.UpdatedAt,
	}); err != nil {
		log.Warn("append order event failed", zap.Error(err))
	}

	if err := s.publisher.Publish(ctx, realtime.Event{
		Topic:    realtime.OrderTopic(o.ID),
		Table:    "orders",
		RecordID: string(o.ID),
		Type:     realtime.EventUpdate,
	}); err != nil {
		log.Warn("publish order change failed", zap.Error(err))
	}

	if s.notifier != nil {
		s.notifier.Send(ctx, StatusMessage(o))
	}
	return nil
}

// StatusMessage is the customer notification for o's current status.
func StatusMessage(o *Order) notification.Message {
	return notification.Message{
		UserID: o.CustomerID,
		Title:  "Order " + string(o.Status),
		Body:   fmt.Sprintf("Your order #%s is now %s.", ShortID(o.ID), strings.ReplaceAll(string(o.Status), "_", " ")),
		Type:   notification.TypeOrderUpdate,
		Payload: map[string]any{
			"orderId": string(o.ID),
			"status":  string(o.Status),
		},
	}
}

// ShortID is the customer-facing order reference.
func ShortID(id types.ID) string {
	s := strings.ToUpper(strings.ReplaceAll(string(id), "-", ""))
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Order, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Storefront(ctx context.Context, id types.ID) (*Storefront, error) {
	return s.store.GetStorefront(ctx, id)
}

func (s *Service) Items(ctx context.Context, orderID types.ID) ([]Item, error) {
	return s.store.Items(ctx, orderID)
}
