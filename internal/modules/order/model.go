// README: Order aggregate and status definitions.
package order

import (
	"time"

	"bitebay/internal/apperr"
	"bitebay/internal/types"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusPreparing  Status = "preparing"
	StatusReady      Status = "ready"
	StatusDispatched Status = "dispatched"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Sequence is the forward path; cancelled sits outside it.
var Sequence = []Status{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusDispatched,
	StatusDelivered,
}

func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	if st == StatusCancelled {
		return st, true
	}
	for _, v := range Sequence {
		if v == st {
			return st, true
		}
	}
	return "", false
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition allows exactly one step forward, or cancellation from any
// non-terminal status. A status never transitions to itself.
func CanTransition(from, to Status) bool {
	if from.Terminal() || from == to {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	for i := 0; i < len(Sequence)-1; i++ {
		if Sequence[i] == from {
			return Sequence[i+1] == to
		}
	}
	return false
}

// CanSkipTo allows a forward move over any number of intermediate statuses.
// Only partner-driven mirrors use it.
func CanSkipTo(from, to Status) bool {
	if from.Terminal() || to == StatusCancelled {
		return false
	}
	return position(to) > position(from)
}

func position(s Status) int {
	for i, v := range Sequence {
		if v == s {
			return i
		}
	}
	return -1
}

type Order struct {
	ID              types.ID     `json:"id"`
	CustomerID      types.ID     `json:"customerId"`
	StoreID         types.ID     `json:"storeId"`
	Status          Status       `json:"status"`
	Total           types.Money  `json:"totalAmount"`
	DeliveryAddress string       `json:"deliveryAddress"`
	DeliveryPoint   *types.Point `json:"deliveryCoordinates,omitempty"`
	Notes           string       `json:"notes,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// Item is the price snapshot taken at checkout.
type Item struct {
	ID       types.ID    `json:"id"`
	OrderID  types.ID    `json:"orderId"`
	Name     string      `json:"name"`
	Quantity int         `json:"quantity"`
	Price    types.Money `json:"price"`
}

// Storefront is the vendor's store the order was placed with.
type Storefront struct {
	ID       types.ID     `json:"id"`
	VendorID types.ID     `json:"vendorId"`
	Name     string       `json:"name"`
	Address  string       `json:"address"`
	Point    *types.Point `json:"coordinates,omitempty"`
}

type Event struct {
	ID         int64
	OrderID    types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

var (
	ErrInvalidStatus     = apperr.New(apperr.ErrValidation, "invalid order status")
	ErrNotFound          = apperr.New(apperr.ErrNotFound, "order not found")
	ErrStoreNotFound     = apperr.New(apperr.ErrNotFound, "store not found")
	ErrForbidden         = apperr.New(apperr.ErrForbidden, "only the store's vendor or an admin can update this order")
	ErrInvalidTransition = apperr.New(apperr.ErrConflict, "invalid status transition")
	ErrConflict          = apperr.New(apperr.ErrConflict, "order status changed concurrently")
)
