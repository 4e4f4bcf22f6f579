package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/charcosud/inventory-agent/internal/apperr"
	"github.com/charcosud/inventory-agent/internal/connectivity"
	"github.com/charcosud/inventory-agent/internal/model"
	"github.com/charcosud/inventory-agent/internal/remote"
	"github.com/charcosud/inventory-agent/internal/replica"
	"github.com/charcosud/inventory-agent/internal/syncer"
)

// Config tunes the reconciliation manager.
type Config struct {
	// StalenessThreshold is how old cached catalog data may get before
	// Start triggers a full refresh. Defaults to 24h.
	StalenessThreshold time.Duration
}

func (c Config) stalenessThreshold() time.Duration {
	if c.StalenessThreshold <= 0 {
		return 24 * time.Hour
	}
	return c.StalenessThreshold
}

type syncManager struct {
	repo    replica.Repository
	adapter remote.Adapter
	monitor connectivity.Monitor
	cfg     Config
	logger  *zap.Logger

	syncing atomic.Bool // single-flight guard for the drain cycle

	mu        sync.Mutex
	observers map[int]func(syncer.Event)
	nextID    int

	unsubscribe func()
}

func NewSyncManager(repo replica.Repository, adapter remote.Adapter, monitor connectivity.Monitor, cfg Config, logger *zap.Logger) syncer.Manager {
	return &syncManager{
		repo:      repo,
		adapter:   adapter,
		monitor:   monitor,
		cfg:       cfg,
		logger:    logger,
		observers: make(map[int]func(syncer.Event)),
	}
}

func (m *syncManager) Subscribe(fn func(syncer.Event)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.observers[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.observers, id)
	}
}

func (m *syncManager) emit(ev syncer.Event) {
	m.mu.Lock()
	fns := make([]func(syncer.Event), 0, len(m.observers))
	for _, fn := range m.observers {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (m *syncManager) PendingCount(ctx context.Context) (int, error) {
	ops, err := m.repo.ListOpsByStatus(ctx, model.OpPending)
	if err != nil {
		return 0, err
	}
	return len(ops), nil
}

// Start recovers queue entries stranded in `syncing` by a previous crash,
// refreshes stale catalog data, and arms the reconnect trigger.
func (m *syncManager) Start(ctx context.Context) error {
	if err := m.requeueStranded(ctx); err != nil {
		return err
	}
	if err := m.repo.SetInProgress(ctx, model.SyncKeyOperations, false); err != nil {
		return err
	}

	if m.monitor.Online() {
		stale, err := m.catalogStale(ctx)
		if err != nil {
			return err
		}
		if stale {
			if err := m.RefreshFromRemote(ctx); err != nil {
				// The agent still works from cache; the next drain refreshes.
				m.logger.Warn("initial catalog refresh failed", zap.Error(err))
			}
		}
	}

	m.unsubscribe = m.monitor.Subscribe(func(online bool) {
		if !online {
			return
		}
		m.logger.Info("connectivity regained, draining pending queue")
		go func() {
			if err := m.SyncToServer(context.Background(), nil); err != nil {
				m.logger.Error("auto sync failed", zap.Error(err))
			}
		}()
	})
	return nil
}

func (m *syncManager) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

func (m *syncManager) requeueStranded(ctx context.Context) error {
	ops, err := m.repo.ListOpsByStatus(ctx, model.OpSyncing)
	if err != nil {
		return err
	}
	for _, op := range ops {
		if err := m.repo.UpdateOpStatus(ctx, op.ID, model.OpPending, nil); err != nil {
			return err
		}
	}
	return nil
}

func (m *syncManager) catalogStale(ctx context.Context) (bool, error) {
	threshold := m.cfg.stalenessThreshold()
	now := time.Now().UTC()
	for _, key := range []string{model.SyncKeyProducts, model.SyncKeyClients} {
		last, err := m.repo.LastSync(ctx, key)
		if err != nil {
			return false, err
		}
		if now.Sub(last) > threshold {
			return true, nil
		}
	}
	return false, nil
}

func (m *syncManager) RefreshFromRemote(ctx context.Context) error {
	products, err := m.adapter.GetProducts(ctx, false)
	if err != nil {
		return fmt.Errorf("fetch products: %w", err)
	}
	if err := m.repo.UpsertProducts(ctx, products); err != nil {
		return err
	}
	if err := m.repo.SetLastSync(ctx, model.SyncKeyProducts, time.Now().UTC()); err != nil {
		return err
	}

	clients, err := m.adapter.GetClients(ctx, false)
	if err != nil {
		return fmt.Errorf("fetch clients: %w", err)
	}
	if err := m.repo.UpsertClients(ctx, clients); err != nil {
		return err
	}
	if err := m.repo.SetLastSync(ctx, model.SyncKeyClients, time.Now().UTC()); err != nil {
		return err
	}

	m.logger.Info("replica refreshed from remote",
		zap.Int("products", len(products)),
		zap.Int("clients", len(clients)))
	return nil
}

// SyncToServer drains the queue: oldest entry first, one authoritative
// re-validation per entry, per-entry failure isolation, then a full catalog
// refresh. Concurrent calls while a drain is running return immediately.
func (m *syncManager) SyncToServer(ctx context.Context, actorID *string) error {
	if !m.monitor.Online() {
		m.logger.Debug("offline, skipping sync")
		return nil
	}
	if !m.syncing.CompareAndSwap(false, true) {
		m.logger.Debug("sync already in progress")
		return nil
	}
	defer m.syncing.Store(false)

	if err := m.repo.SetInProgress(ctx, model.SyncKeyOperations, true); err != nil {
		return err
	}
	defer func() {
		if err := m.repo.SetInProgress(context.WithoutCancel(ctx), model.SyncKeyOperations, false); err != nil {
			m.logger.Error("failed to clear in-progress flag", zap.Error(err))
		}
	}()

	pending, err := m.repo.ListOpsByStatus(ctx, model.OpPending)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		m.emit(syncer.CompleteEvent{Synced: 0})
		return nil
	}

	// Oldest first. Replaying a dispatch before the receipt that supplied
	// its stock would manufacture a spurious conflict.
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	m.emit(syncer.StartEvent{Total: len(pending)})

	synced := 0
	failed := 0
	for _, op := range pending {
		if err := m.repo.UpdateOpStatus(ctx, op.ID, model.OpSyncing, nil); err != nil {
			return err
		}

		replayErr := m.replay(ctx, op, actorID)
		if replayErr != nil {
			failed++
			msg := replayErr.Error()
			m.logger.Warn("pending operation failed to replay",
				zap.String("op_id", op.ID),
				zap.String("kind", string(op.Kind)),
				zap.Error(replayErr))
			if err := m.repo.UpdateOpStatus(ctx, op.ID, model.OpFailed, &msg); err != nil {
				return err
			}
			continue
		}

		synced++
		if err := m.repo.UpdateOpStatus(ctx, op.ID, model.OpCompleted, nil); err != nil {
			return err
		}
		m.emit(syncer.ProgressEvent{Progress: synced, Total: len(pending)})
	}

	if _, err := m.repo.PurgeCompleted(ctx); err != nil {
		return err
	}

	if err := m.RefreshFromRemote(ctx); err != nil {
		m.emit(syncer.ErrorEvent{Synced: synced, Failed: failed})
		return err
	}

	if failed > 0 {
		m.emit(syncer.ErrorEvent{Synced: synced, Failed: failed})
	} else {
		m.emit(syncer.CompleteEvent{Synced: synced})
	}
	return nil
}

func (m *syncManager) replay(ctx context.Context, op model.PendingOperation, actorID *string) error {
	actor := op.ActorID
	if actor == nil {
		actor = actorID
	}
	switch op.Kind {
	case model.OpReceipt:
		return m.replayReceipt(ctx, op, actor)
	case model.OpDispatch:
		return m.replayDispatch(ctx, op, actor)
	default:
		return fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}

func (m *syncManager) replayReceipt(ctx context.Context, op model.PendingOperation, actorID *string) error {
	var form model.ReceiptForm
	if err := json.Unmarshal(op.Payload, &form); err != nil {
		return fmt.Errorf("decode receipt payload: %w", err)
	}

	// Confirm the product still exists authoritatively before writing.
	if _, err := m.adapter.GetProductByID(ctx, form.ProductID); err != nil {
		return err
	}

	mv, err := m.adapter.RecordReceipt(ctx, form, actorID)
	if err != nil {
		return err
	}
	// The remote write already happened; a cache miss here must not fail
	// the entry, the post-drain refresh converges the replica regardless.
	if err := m.repo.AdjustStock(ctx, form.ProductID, mv.ResultingStock); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	return nil
}

func (m *syncManager) replayDispatch(ctx context.Context, op model.PendingOperation, actorID *string) error {
	var form model.DispatchForm
	if err := json.Unmarshal(op.Payload, &form); err != nil {
		return fmt.Errorf("decode dispatch payload: %w", err)
	}

	// Re-validate every cart line against authoritative stock, not the
	// replica's optimistic value. A line that passed at record time can
	// still fail here: that is the time-of-check/time-of-use race.
	required := make(map[string]decimal.Decimal)
	for _, item := range form.Items {
		required[item.ProductID] = required[item.ProductID].Add(item.Quantity)
	}
	for productID, qty := range required {
		product, err := m.adapter.GetProductByID(ctx, productID)
		if err != nil {
			return err
		}
		if product.CurrentStock.LessThan(qty) {
			return apperr.ConflictOnReplay("insufficient stock for %s: available %s, required %s",
				product.Name, product.CurrentStock, qty)
		}
	}

	res, err := m.adapter.RecordDispatch(ctx, form, actorID)
	if err != nil {
		return err
	}
	for _, mv := range res.Movements {
		if err := m.repo.AdjustStock(ctx, mv.ProductID, mv.ResultingStock); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
	}
	return nil
}
