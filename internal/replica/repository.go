package replica

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/charcosud/inventory-agent/internal/model"
)

// Repository is the durable local replica: cached products and clients, the
// pending operation queue, and sync metadata. It never performs network
// calls. Every method is transactionally scoped per call.
type Repository interface {
	// Cached catalog
	UpsertProducts(ctx context.Context, products []model.Product) error
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	UpsertClients(ctx context.Context, clients []model.Client) error
	GetClient(ctx context.Context, id string) (*model.Client, error)
	ListClients(ctx context.Context) ([]model.Client, error)

	// AdjustStock atomically overwrites a product's stock and bumps its
	// updated_at. Returns apperr.NotFound if the product is not cached.
	AdjustStock(ctx context.Context, productID string, newStock decimal.Decimal) error

	// Pending operation queue
	Enqueue(ctx context.Context, op *model.PendingOperation) (string, error)
	ListOpsByStatus(ctx context.Context, status model.OperationStatus) ([]model.PendingOperation, error)
	ListAllOps(ctx context.Context) ([]model.PendingOperation, error)
	UpdateOpStatus(ctx context.Context, id string, status model.OperationStatus, errText *string) error
	RemoveOp(ctx context.Context, id string) error
	PurgeCompleted(ctx context.Context) (int, error)

	// Sync metadata
	LastSync(ctx context.Context, key string) (time.Time, error)
	SetLastSync(ctx context.Context, key string, ts time.Time) error
	InProgress(ctx context.Context, key string) (bool, error)
	SetInProgress(ctx context.Context, key string, inProgress bool) error
}
