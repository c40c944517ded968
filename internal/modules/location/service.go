// README: Location service records partner GPS fixes and pokes the tracking feed.
package location

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bitebay/internal/logger"
	"bitebay/internal/modules/identity"
	"bitebay/internal/realtime"
	"bitebay/internal/types"
)

type Service struct {
	store     Repository
	publisher realtime.Publisher
}

func NewService(store Repository, publisher realtime.Publisher) *Service {
	if publisher == nil {
		publisher = realtime.Nop{}
	}
	return &Service{store: store, publisher: publisher}
}

func (s *Service) UpdatePartnerLocation(ctx context.Context, caller *identity.Caller, p types.Point) error {
	if !caller.Is(identity.RoleDeliveryPartner) {
		return ErrForbidden
	}
	if !p.Valid() {
		return ErrInvalidPosition
	}
	ok, err := s.store.Save(ctx, Snapshot{
		PartnerID:  caller.UserID,
		Position:   p,
		RecordedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrPartnerNotFound
	}

	log := logger.FromCtx(ctx).With(zap.String("partner_id", string(caller.UserID)))
	orderID, active, err := s.store.ActiveOrder(ctx, caller.UserID)
	if err != nil {
		log.Warn("lookup active delivery failed", zap.Error(err))
		return nil
	}
	if !active {
		return nil
	}
	if err := s.publisher.Publish(ctx, realtime.Event{
		Topic:    realtime.OrderTopic(orderID),
		Table:    "delivery_partners",
		RecordID: string(caller.UserID),
		Type:     realtime.EventUpdate,
	}); err != nil {
		log.Warn("publish location change failed", zap.Error(err))
	}
	return nil
}
