package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type OperationKind string

const (
	OpReceipt  OperationKind = "receipt"
	OpDispatch OperationKind = "dispatch"
)

type OperationStatus string

const (
	OpPending   OperationStatus = "pending"
	OpSyncing   OperationStatus = "syncing"
	OpCompleted OperationStatus = "completed"
	OpFailed    OperationStatus = "failed"
)

// PendingOperation is a receipt or dispatch captured while offline, waiting
// to be replayed against the remote service. The payload is the original
// form data, serialized as JSON.
type PendingOperation struct {
	ID         string          `db:"id" json:"id"`
	Kind       OperationKind   `db:"kind" json:"kind"`
	Status     OperationStatus `db:"status" json:"status"`
	Payload    json.RawMessage `db:"payload" json:"payload"`
	ActorID    *string         `db:"actor_id" json:"actor_id"`
	RetryCount int             `db:"retry_count" json:"retry_count"`
	LastError  *string         `db:"last_error" json:"last_error"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// ReceiptForm is the payload of a receipt operation.
type ReceiptForm struct {
	ProductID    string          `json:"product_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	DeliveryNote string          `json:"delivery_note,omitempty"`
	Notes        string          `json:"notes,omitempty"`
}

// CartItem is one line of a dispatch.
type CartItem struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// DispatchForm is the payload of a dispatch operation. A dispatch replays
// as a single all-or-nothing unit during reconciliation.
type DispatchForm struct {
	ClientID string     `json:"client_id"`
	Items    []CartItem `json:"items"`
}
