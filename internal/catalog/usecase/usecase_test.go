package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charcosud/inventory-agent/internal/apperr"
	"github.com/charcosud/inventory-agent/internal/catalog"
	"github.com/charcosud/inventory-agent/internal/connectivity"
	"github.com/charcosud/inventory-agent/internal/model"
	"github.com/charcosud/inventory-agent/internal/remote/remotetest"
	replicaRepo "github.com/charcosud/inventory-agent/internal/replica/repository"
)

type fixture struct {
	repo    *replicaRepo.SQLiteRepository
	fake    *remotetest.Fake
	monitor *connectivity.ManualMonitor
	uc      catalog.UseCase
}

func newFixture(t *testing.T, online bool) *fixture {
	t.Helper()
	db, err := replicaRepo.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := replicaRepo.NewSQLiteRepository(db)
	require.NoError(t, err)

	fake := remotetest.NewFake()
	monitor := connectivity.NewManualMonitor(online)
	return &fixture{
		repo:    repo,
		fake:    fake,
		monitor: monitor,
		uc:      NewCatalogUseCase(repo, fake, monitor, zap.NewNop()),
	}
}

func product(id, name, stock, minStock string, active bool) model.Product {
	now := time.Now().UTC()
	return model.Product{
		ID:           id,
		SKU:          "SKU-" + id,
		Name:         name,
		Unit:         "kg",
		CostPerUnit:  decimal.RequireFromString("4500"),
		PricePerUnit: decimal.RequireFromString("6990"),
		CurrentStock: decimal.RequireFromString(stock),
		MinStock:     decimal.RequireFromString(minStock),
		IsActive:     active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestListProductsOnlineFetchesAndCaches(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.fake.SeedProduct(product("p2", "Reineta", "4", "5", true))
	f.fake.SeedProduct(product("p1", "Congrio", "10", "5", true))

	products, err := f.uc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Congrio", products[0].Name, "sorted by name")

	// The fetch refreshed the cache.
	cached, err := f.repo.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 2)

	last, err := f.repo.LastSync(ctx, model.SyncKeyProducts)
	require.NoError(t, err)
	assert.False(t, last.IsZero())
}

func TestListProductsOnlineFallsBackToCacheOnRemoteError(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	require.NoError(t, f.repo.UpsertProducts(ctx, []model.Product{product("p1", "Congrio", "10", "5", true)}))
	f.fake.FailAll = apperr.RemoteUnavailable(nil, "remote down")

	products, err := f.uc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "p1", products[0].ID)
}

func TestListProductsOfflineServesActiveCacheOnly(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	require.NoError(t, f.repo.UpsertProducts(ctx, []model.Product{
		product("p1", "Congrio", "10", "5", true),
		product("p2", "Descontinuado", "0", "5", false),
	}))

	products, err := f.uc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "p1", products[0].ID)
}

func TestListLowStock(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	require.NoError(t, f.repo.UpsertProducts(ctx, []model.Product{
		product("p1", "Congrio", "10", "5", true),
		product("p2", "Reineta", "4.500", "5", true),
		product("p3", "Merluza", "5", "5", true), // at threshold counts as low
	}))

	low, err := f.uc.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "Merluza", low[0].Name)
	assert.Equal(t, "Reineta", low[1].Name)
}

func TestListClientsOfflineServesActiveCache(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, f.repo.UpsertClients(ctx, []model.Client{
		{ID: "c1", Name: "Tienda B", TaxID: "76.1", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: "c2", Name: "Tienda A", TaxID: "76.2", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: "c3", Name: "Cerrada", TaxID: "76.3", IsActive: false, CreatedAt: now, UpdatedAt: now},
	}))

	clients, err := f.uc.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "Tienda A", clients[0].Name)
	assert.Equal(t, "Tienda B", clients[1].Name)
}

func TestListClientsOnlineCaches(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	now := time.Now().UTC()
	f.fake.SeedClient(model.Client{ID: "c1", Name: "Tienda Uno", TaxID: "76.1", IsActive: true, CreatedAt: now, UpdatedAt: now})

	clients, err := f.uc.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)

	cached, err := f.repo.ListClients(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 1)
}

func TestGetProductReadsCache(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	require.NoError(t, f.repo.UpsertProducts(ctx, []model.Product{product("p1", "Congrio", "10", "5", true)}))

	p, err := f.uc.GetProduct(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Congrio", p.Name)

	missing, err := f.uc.GetProduct(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
