// README: Delivery assignment and partner definitions.
package delivery

import (
	"time"

	"bitebay/internal/apperr"
	"bitebay/internal/types"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusPickedUp  Status = "picked_up"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// progressFrom lists the statuses a partner may move an assignment out of.
var progressFrom = map[Status][]Status{
	StatusPickedUp:  {StatusAccepted},
	StatusInTransit: {StatusPickedUp},
	StatusDelivered: {StatusPickedUp, StatusInTransit},
}

type Assignment struct {
	ID          types.ID   `json:"id"`
	OrderID     types.ID   `json:"orderId"`
	PartnerID   *types.ID  `json:"deliveryPartnerId,omitempty"`
	Status      Status     `json:"status"`
	AssignedAt  *time.Time `json:"assignedAt,omitempty"`
	PickedUpAt  *time.Time `json:"pickedUpAt,omitempty"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (a *Assignment) AssignedTo(id types.ID) bool {
	return a.PartnerID != nil && *a.PartnerID == id
}

type Partner struct {
	UserID        types.ID     `json:"userId"`
	VehicleType   string       `json:"vehicleType,omitempty"`
	VehicleNumber string       `json:"vehicleNumber,omitempty"`
	IsAvailable   bool         `json:"isAvailable"`
	IsVerified    bool         `json:"isVerified"`
	Position      *types.Point `json:"currentLocation,omitempty"`
}

// CanAccept is the only gate on taking new work.
func (p *Partner) CanAccept() bool {
	return p.IsAvailable && p.IsVerified
}

var (
	ErrForbidden          = apperr.New(apperr.ErrForbidden, "only delivery partners can perform this action")
	ErrPartnerUnavailable = apperr.New(apperr.ErrForbidden, "delivery partner is not available or not verified")
	ErrPartnerNotFound    = apperr.New(apperr.ErrNotFound, "delivery partner not found")
	ErrAssignmentNotFound = apperr.New(apperr.ErrNotFound, "delivery assignment not found")
	ErrAlreadyAccepted    = apperr.New(apperr.ErrConflict, "delivery already accepted by another partner")
	ErrNotAssigned        = apperr.New(apperr.ErrForbidden, "delivery is not assigned to you")
	ErrInvalidProgress    = apperr.New(apperr.ErrValidation, "invalid delivery status")
	ErrProgressConflict   = apperr.New(apperr.ErrConflict, "delivery status changed concurrently")
)
