package usecase

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/charcosud/inventory-agent/internal/catalog"
	"github.com/charcosud/inventory-agent/internal/connectivity"
	"github.com/charcosud/inventory-agent/internal/model"
	"github.com/charcosud/inventory-agent/internal/remote"
	"github.com/charcosud/inventory-agent/internal/replica"
)

type catalogUseCase struct {
	repo    replica.Repository
	adapter remote.Adapter
	monitor connectivity.Monitor
	logger  *zap.Logger
}

func NewCatalogUseCase(repo replica.Repository, adapter remote.Adapter, monitor connectivity.Monitor, logger *zap.Logger) catalog.UseCase {
	return &catalogUseCase{
		repo:    repo,
		adapter: adapter,
		monitor: monitor,
		logger:  logger,
	}
}

func (uc *catalogUseCase) ListProducts(ctx context.Context) ([]model.Product, error) {
	if uc.monitor.Online() {
		products, err := uc.adapter.GetProducts(ctx, true)
		if err == nil {
			if err := uc.repo.UpsertProducts(ctx, products); err != nil {
				return nil, err
			}
			if err := uc.repo.SetLastSync(ctx, model.SyncKeyProducts, time.Now().UTC()); err != nil {
				return nil, err
			}
			sortProducts(products)
			return products, nil
		}
		// Remote trouble while nominally online: serve the cache.
		uc.logger.Warn("falling back to cached products", zap.Error(err))
	}
	return uc.cachedProducts(ctx, false)
}

func (uc *catalogUseCase) ListClients(ctx context.Context) ([]model.Client, error) {
	if uc.monitor.Online() {
		clients, err := uc.adapter.GetClients(ctx, true)
		if err == nil {
			if err := uc.repo.UpsertClients(ctx, clients); err != nil {
				return nil, err
			}
			if err := uc.repo.SetLastSync(ctx, model.SyncKeyClients, time.Now().UTC()); err != nil {
				return nil, err
			}
			sortClients(clients)
			return clients, nil
		}
		uc.logger.Warn("falling back to cached clients", zap.Error(err))
	}

	cached, err := uc.repo.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	active := cached[:0]
	for _, c := range cached {
		if c.IsActive {
			active = append(active, c)
		}
	}
	sortClients(active)
	return active, nil
}

func (uc *catalogUseCase) ListLowStock(ctx context.Context) ([]model.Product, error) {
	return uc.cachedProducts(ctx, true)
}

func (uc *catalogUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return uc.repo.GetProduct(ctx, id)
}

func (uc *catalogUseCase) cachedProducts(ctx context.Context, lowStockOnly bool) ([]model.Product, error) {
	cached, err := uc.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	filtered := cached[:0]
	for _, p := range cached {
		if !p.IsActive {
			continue
		}
		if lowStockOnly && !p.LowStock() {
			continue
		}
		filtered = append(filtered, p)
	}
	sortProducts(filtered)
	return filtered, nil
}

func sortProducts(products []model.Product) {
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
}

func sortClients(clients []model.Client) {
	sort.Slice(clients, func(i, j int) bool { return clients[i].Name < clients[j].Name })
}
