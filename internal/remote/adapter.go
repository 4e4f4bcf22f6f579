package remote

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/charcosud/inventory-agent/internal/model"
)

// DispatchResult is what the remote service returns for a recorded dispatch:
// the dispatch header plus one movement per cart line, each carrying the
// authoritative resulting stock.
type DispatchResult struct {
	Dispatch  model.Dispatch   `json:"dispatch"`
	Movements []model.Movement `json:"movements"`
}

// Adapter is the boundary to the authoritative remote inventory service.
// Receipt and dispatch writes are atomic on the remote side; a dispatch
// fails entirely if any item's stock is insufficient at write time.
//
// Transport failures surface as apperr.RemoteUnavailable, missing records
// as apperr.NotFound, rejected dispatches as apperr.InsufficientStock.
type Adapter interface {
	GetProducts(ctx context.Context, activeOnly bool) ([]model.Product, error)
	GetProductByID(ctx context.Context, id string) (*model.Product, error)
	UpdateProductStock(ctx context.Context, id string, newStock decimal.Decimal) (*model.Product, error)
	GetClients(ctx context.Context, activeOnly bool) ([]model.Client, error)
	RecordReceipt(ctx context.Context, form model.ReceiptForm, actorID *string) (*model.Movement, error)
	RecordDispatch(ctx context.Context, form model.DispatchForm, actorID *string) (*DispatchResult, error)
}
