package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type MovementKind string

const (
	MovementReceipt  MovementKind = "receipt"
	MovementDispatch MovementKind = "dispatch"
)

// Movement is a single stock-affecting event recorded by the remote service.
type Movement struct {
	ID             string          `db:"id" json:"id"`
	Kind           MovementKind    `db:"kind" json:"kind"`
	Date           time.Time       `db:"date" json:"date"`
	ProductID      string          `db:"product_id" json:"product_id"`
	ClientID       *string         `db:"client_id" json:"client_id"`
	Quantity       decimal.Decimal `db:"quantity" json:"quantity"`
	ResultingStock decimal.Decimal `db:"resulting_stock" json:"resulting_stock"`
	DeliveryNote   *string         `db:"delivery_note" json:"delivery_note"`
	Notes          *string         `db:"notes" json:"notes"`
	ActorID        *string         `db:"actor_id" json:"actor_id"`
	DispatchID     *string         `db:"dispatch_id" json:"dispatch_id"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// Dispatch groups the movements of one sale to one client.
type Dispatch struct {
	ID        string          `db:"id" json:"id"`
	ClientID  string          `db:"client_id" json:"client_id"`
	Date      time.Time       `db:"date" json:"date"`
	Total     decimal.Decimal `db:"total" json:"total"`
	ActorID   *string         `db:"actor_id" json:"actor_id"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
