package recorder

import (
	"context"

	"github.com/charcosud/inventory-agent/internal/model"
)

// UseCase turns a user-intended inventory change into a validated,
// optimistically-applied local mutation, forwarded live when online or
// queued for reconciliation when not.
type UseCase interface {
	RecordReceipt(ctx context.Context, form model.ReceiptForm, actorID *string) error
	RecordDispatch(ctx context.Context, clientID string, items []model.CartItem, actorID *string) error
}
