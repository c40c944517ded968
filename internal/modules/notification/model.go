// README: Notification rows; append-only apart from the read flag.
package notification

import (
	"time"

	"bitebay/internal/apperr"
	"bitebay/internal/types"
)

const (
	TypeOrderUpdate      = "order_update"
	TypeDeliveryRequest  = "delivery_request"
	TypeDeliveryAssigned = "delivery_assigned"
	TypeDeliveryProgress = "delivery_progress"
	TypeRefundUpdate     = "refund_update"
)

// Message is one fan-out tuple.
type Message struct {
	UserID  types.ID
	Title   string
	Body    string
	Type    string
	Payload map[string]any
}

type Notification struct {
	ID        types.ID       `json:"id"`
	UserID    types.ID       `json:"userId"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"data,omitempty"`
	IsRead    bool           `json:"isRead"`
	CreatedAt time.Time      `json:"createdAt"`
}

var ErrNotFound = apperr.New(apperr.ErrNotFound, "notification not found")
