// README: Delivery allocator; broadcasts confirmed orders and resolves the accept race.
package delivery

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bitebay/internal/logger"
	"bitebay/internal/modules/identity"
	"bitebay/internal/modules/notification"
	"bitebay/internal/modules/order"
	"bitebay/internal/realtime"
	"bitebay/internal/types"
)

// Orders is the slice of the order service the allocator needs.
type Orders interface {
	Get(ctx context.Context, id types.ID) (*order.Order, error)
	Storefront(ctx context.Context, id types.ID) (*order.Storefront, error)
	MarkDispatched(ctx context.Context, orderID, partnerID types.ID) error
	MarkDelivered(ctx context.Context, orderID, partnerID types.ID) error
}

type Service struct {
	store     Repository
	dispatch  DispatchLog
	orders    Orders
	notifier  order.Notifier
	publisher realtime.Publisher
}

func NewService(store Repository, dispatch DispatchLog, orders Orders, notifier order.Notifier, publisher realtime.Publisher) *Service {
	if publisher == nil {
		publisher = realtime.Nop{}
	}
	return &Service{
		store:     store,
		dispatch:  dispatch,
		orders:    orders,
		notifier:  notifier,
		publisher: publisher,
	}
}

// Broadcast tells every available and verified partner about a confirmed
// order. It runs at most once per order; later calls return 0.
func (s *Service) Broadcast(ctx context.Context, o *order.Order) (int, error) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "service"), zap.String("order_id", string(o.ID)))

	// The guard is taken only once the audience is known, so a failed listing
	// leaves the order free to be broadcast again.
	partners, err := s.store.ReadyPartners(ctx)
	if err != nil {
		return 0, fmt.Errorf("list ready partners: %w", err)
	}

	first, err := s.dispatch.TryMarkBroadcast(ctx, o.ID)
	if err != nil {
		// Without the log we cannot dedupe; the assignment row is still unique.
		log.Warn("dispatch log unavailable, broadcasting anyway", zap.Error(err))
		first = true
	}
	if !first {
		log.Info("order already broadcast")
		return 0, nil
	}
	if len(partners) == 0 {
		log.Info("no available partners for broadcast")
		return 0, nil
	}

	storeName := "a nearby store"
	if sf, err := s.orders.Storefront(ctx, o.StoreID); err == nil {
		storeName = sf.Name
	}
	msgs := make([]notification.Message, len(partners))
	for i, p := range partners {
		msgs[i] = notification.Message{
			UserID: p,
			Title:  "New delivery available",
			Body:   fmt.Sprintf("Order #%s from %s needs a delivery partner.", order.ShortID(o.ID), storeName),
			Type:   notification.TypeDeliveryRequest,
			Payload: map[string]any{
				"orderId": string(o.ID),
				"storeId": string(o.StoreID),
			},
		}
	}
	if err := s.dispatch.RecordDispatch(ctx, o.ID, partners); err != nil {
		log.Warn("record dispatch failed", zap.Error(err))
	}
	n := s.notifier.Send(ctx, msgs...)
	log.Info("delivery broadcast", zap.Int("partners", len(partners)), zap.Int("notified", n))
	return n, nil
}

type AcceptCommand struct {
	OrderID types.ID
	Caller  *identity.Caller
}

// Accept claims the order's pending assignment for the calling partner. Only
// one concurrent caller can win; the rest get ErrAlreadyAccepted.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) (*Assignment, error) {
	if !cmd.Caller.Is(identity.RoleDeliveryPartner) {
		return nil, ErrForbidden
	}
	partnerID := cmd.Caller.UserID

	p, err := s.store.GetPartner(ctx, partnerID)
	if err == ErrPartnerNotFound {
		return nil, ErrPartnerUnavailable
	}
	if err != nil {
		return nil, err
	}
	if !p.CanAccept() {
		return nil, ErrPartnerUnavailable
	}

	a, err := s.store.GetAssignmentByOrder(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusPending {
		return nil, ErrAlreadyAccepted
	}

	ok, err := s.store.Claim(ctx, a.ID, partnerID)
	if err != nil {
		return nil, fmt.Errorf("claim assignment %s: %w", a.ID, err)
	}
	if !ok {
		return nil, ErrAlreadyAccepted
	}
	now := time.Now().UTC()
	a.Status = StatusAccepted
	a.PartnerID = &partnerID
	a.AssignedAt = &now

	log := logger.FromCtx(ctx).With(zap.String("layer", "service"), zap.String("order_id", string(a.OrderID)))
	log.Info("delivery accepted", zap.String("partner_id", string(partnerID)))

	s.publish(ctx, log, a)
	s.notifyAccepted(ctx, log, a, partnerID)
	return a, nil
}

func (s *Service) notifyAccepted(ctx context.Context, log *zap.Logger, a *Assignment, partnerID types.ID) {
	o, err := s.orders.Get(ctx, a.OrderID)
	if err != nil {
		log.Warn("load order for accept notification failed", zap.Error(err))
		return
	}
	payload := map[string]any{
		"orderId":      string(a.OrderID),
		"assignmentId": string(a.ID),
	}
	msgs := []notification.Message{{
		UserID:  o.CustomerID,
		Title:   "Delivery partner assigned",
		Body:    fmt.Sprintf("A delivery partner has been assigned to order #%s.", order.ShortID(o.ID)),
		Type:    notification.TypeDeliveryAssigned,
		Payload: payload,
	}}
	if sf, err := s.orders.Storefront(ctx, o.StoreID); err == nil {
		msgs = append(msgs, notification.Message{
			UserID:  sf.VendorID,
			Title:   "Delivery partner assigned",
			Body:    fmt.Sprintf("Order #%s will be picked up by a delivery partner.", order.ShortID(o.ID)),
			Type:    notification.TypeDeliveryAssigned,
			Payload: payload,
		})
	}

	// Partners who saw the broadcast learn the job is gone.
	if notified, err := s.dispatch.Notified(ctx, a.OrderID); err == nil {
		for _, id := range notified {
			if id == partnerID {
				continue
			}
			msgs = append(msgs, notification.Message{
				UserID:  id,
				Title:   "Delivery taken",
				Body:    fmt.Sprintf("Order #%s was accepted by another partner.", order.ShortID(o.ID)),
				Type:    notification.TypeDeliveryRequest,
				Payload: payload,
			})
		}
	}
	s.notifier.Send(ctx, msgs...)
}

type ProgressCommand struct {
	OrderID types.ID
	Status  string
	Caller  *identity.Caller
}

// UpdateProgress advances the caller's own assignment and mirrors pickup and
// drop-off onto the order.
func (s *Service) UpdateProgress(ctx context.Context, cmd ProgressCommand) (*Assignment, error) {
	if !cmd.Caller.Is(identity.RoleDeliveryPartner) {
		return nil, ErrForbidden
	}
	to := Status(cmd.Status)
	from, ok := progressFrom[to]
	if !ok {
		return nil, ErrInvalidProgress
	}
	a, err := s.store.GetAssignmentByOrder(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	partnerID := cmd.Caller.UserID
	if !a.AssignedTo(partnerID) {
		return nil, ErrNotAssigned
	}

	ok, err = s.store.Progress(ctx, a.ID, partnerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("update assignment %s: %w", a.ID, err)
	}
	if !ok {
		return nil, ErrProgressConflict
	}
	now := time.Now().UTC()
	a.Status = to
	switch to {
	case StatusPickedUp:
		a.PickedUpAt = &now
	case StatusDelivered:
		a.DeliveredAt = &now
	}

	log := logger.FromCtx(ctx).With(zap.String("layer", "service"), zap.String("order_id", string(a.OrderID)))
	log.Info("delivery progress", zap.String("status", string(to)))

	// The order transition notifies the customer itself; only fall back to a
	// delivery notification when it did not happen.
	var orderErr error
	switch to {
	case StatusPickedUp:
		orderErr = s.orders.MarkDispatched(ctx, a.OrderID, partnerID)
	case StatusDelivered:
		orderErr = s.orders.MarkDelivered(ctx, a.OrderID, partnerID)
	}
	if orderErr != nil {
		log.Warn("order status not mirrored", zap.String("assignment_status", string(to)), zap.Error(orderErr))
	}
	s.publish(ctx, log, a)
	if to == StatusInTransit || orderErr != nil {
		s.notifyProgress(ctx, log, a)
	}
	return a, nil
}

func (s *Service) notifyProgress(ctx context.Context, log *zap.Logger, a *Assignment) {
	o, err := s.orders.Get(ctx, a.OrderID)
	if err != nil {
		log.Warn("load order for progress notification failed", zap.Error(err))
		return
	}
	title := map[Status]string{
		StatusPickedUp:  "Order picked up",
		StatusInTransit: "Order on the way",
		StatusDelivered: "Order delivered",
	}[a.Status]
	s.notifier.Send(ctx, notification.Message{
		UserID: o.CustomerID,
		Title:  title,
		Body:   fmt.Sprintf("Order #%s: %s.", order.ShortID(o.ID), title),
		Type:   notification.TypeDeliveryProgress,
		Payload: map[string]any{
			"orderId": string(a.OrderID),
			"status":  string(a.Status),
		},
	})
}

func (s *Service) publish(ctx context.Context, log *zap.Logger, a *Assignment) {
	if err := s.publisher.Publish(ctx, realtime.Event{
		Topic:    realtime.OrderTopic(a.OrderID),
		Table:    "delivery_assignments",
		RecordID: string(a.ID),
		Type:     realtime.EventUpdate,
	}); err != nil {
		log.Warn("publish assignment change failed", zap.Error(err))
	}
}

func (s *Service) SetAvailability(ctx context.Context, caller *identity.Caller, available bool) error {
	if !caller.Is(identity.RoleDeliveryPartner) {
		return ErrForbidden
	}
	ok, err := s.store.SetAvailability(ctx, caller.UserID, available)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPartnerNotFound
	}
	return nil
}

func (s *Service) Assignment(ctx context.Context, orderID types.ID) (*Assignment, error) {
	return s.store.GetAssignmentByOrder(ctx, orderID)
}

func (s *Service) Partner(ctx context.Context, id types.ID) (*Partner, error) {
	return s.store.GetPartner(ctx, id)
}
