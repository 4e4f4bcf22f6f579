package catalog

import (
	"context"

	"github.com/charcosud/inventory-agent/internal/model"
)

// UseCase serves catalog reads that keep working without connectivity:
// fresh from the remote service when online (updating the cache as a side
// effect), straight from the replica when not.
type UseCase interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	ListClients(ctx context.Context) ([]model.Client, error)
	ListLowStock(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
}
