// README: Refund record and adjudication actions.
package refund

import (
	"time"

	"bitebay/internal/apperr"
	"bitebay/internal/types"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusProcessed Status = "processed"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

type Refund struct {
	ID            types.ID    `json:"id"`
	OrderID       types.ID    `json:"orderId"`
	TransactionID types.ID    `json:"transactionId"`
	Amount        types.Money `json:"amount"`
	Status        Status      `json:"status"`
	Reason        string      `json:"reason,omitempty"`
	ProcessedBy   *types.ID   `json:"processedBy,omitempty"`
	ProcessedAt   *time.Time  `json:"processedAt,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
}

var (
	ErrForbidden        = apperr.New(apperr.ErrForbidden, "only admins can process refunds")
	ErrInvalidAction    = apperr.New(apperr.ErrValidation, "action must be approve or reject")
	ErrNotFound         = apperr.New(apperr.ErrNotFound, "refund not found")
	ErrAlreadyProcessed = apperr.New(apperr.ErrValidation, "refund already processed")
)
