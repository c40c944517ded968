// README: Admin refund adjudication.
package refund

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bitebay/internal/logger"
	"bitebay/internal/modules/identity"
	"bitebay/internal/modules/notification"
	"bitebay/internal/modules/order"
	"bitebay/internal/types"
)

type Orders interface {
	Get(ctx context.Context, id types.ID) (*order.Order, error)
}

type Service struct {
	store    Repository
	orders   Orders
	notifier order.Notifier
}

func NewService(store Repository, orders Orders, notifier order.Notifier) *Service {
	return &Service{store: store, orders: orders, notifier: notifier}
}

type ProcessCommand struct {
	RefundID types.ID
	Action   string
	Reason   string
	Caller   *identity.Caller
}

func (s *Service) Process(ctx context.Context, cmd ProcessCommand) (*Refund, error) {
	if !cmd.Caller.IsAdmin() {
		return nil, ErrForbidden
	}
	action := Action(cmd.Action)
	if action != ActionApprove && action != ActionReject {
		return nil, ErrInvalidAction
	}
	r, err := s.store.Get(ctx, cmd.RefundID)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusPending {
		return nil, ErrAlreadyProcessed
	}

	adminID := cmd.Caller.UserID
	var ok bool
	if action == ActionApprove {
		ok, err = s.store.Approve(ctx, r.ID, adminID, cmd.Reason)
	} else {
		ok, err = s.store.Reject(ctx, r.ID, adminID, cmd.Reason)
	}
	if err != nil {
		return nil, fmt.Errorf("%s refund %s: %w", action, r.ID, err)
	}
	if !ok {
		return nil, ErrAlreadyProcessed
	}

	now := time.Now().UTC()
	r.ProcessedBy = &adminID
	r.ProcessedAt = &now
	if cmd.Reason != "" {
		r.Reason = cmd.Reason
	}
	// Approval is recorded as processed; the approved verdict only reaches the customer.
	verdict := StatusApproved
	r.Status = StatusProcessed
	if action == ActionReject {
		verdict = StatusRejected
		r.Status = StatusRejected
	}

	log := logger.FromCtx(ctx).With(zap.String("layer", "service"), zap.String("refund_id", string(r.ID)))
	log.Info("refund adjudicated", zap.String("verdict", string(verdict)), zap.String("admin_id", string(adminID)))

	o, err := s.orders.Get(ctx, r.OrderID)
	if err != nil {
		log.Warn("load order for refund notification failed", zap.Error(err))
		return r, nil
	}
	body := fmt.Sprintf("Your refund of %s for order #%s was %s.", r.Amount, order.ShortID(o.ID), verdict)
	if r.Reason != "" {
		body += " Reason: " + r.Reason
	}
	s.notifier.Send(ctx, notification.Message{
		UserID: o.CustomerID,
		Title:  "Refund " + string(verdict),
		Body:   body,
		Type:   notification.TypeRefundUpdate,
		Payload: map[string]any{
			"refundId": string(r.ID),
			"orderId":  string(r.OrderID),
			"status":   string(r.Status),
			"verdict":  string(verdict),
		},
	})
	return r, nil
}
