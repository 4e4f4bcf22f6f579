package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/charcosud/inventory-agent/internal/apperr"
	"github.com/charcosud/inventory-agent/internal/connectivity"
	"github.com/charcosud/inventory-agent/internal/model"
	"github.com/charcosud/inventory-agent/internal/recorder"
	"github.com/charcosud/inventory-agent/internal/remote"
	"github.com/charcosud/inventory-agent/internal/replica"
)

type recorderUseCase struct {
	repo    replica.Repository
	adapter remote.Adapter
	monitor connectivity.Monitor
	logger  *zap.Logger
}

func NewRecorderUseCase(repo replica.Repository, adapter remote.Adapter, monitor connectivity.Monitor, logger *zap.Logger) recorder.UseCase {
	return &recorderUseCase{
		repo:    repo,
		adapter: adapter,
		monitor: monitor,
		logger:  logger,
	}
}

func (uc *recorderUseCase) RecordReceipt(ctx context.Context, form model.ReceiptForm, actorID *string) error {
	if !form.Quantity.IsPositive() {
		return apperr.InvalidInput("receipt quantity must be positive, got %s", form.Quantity)
	}

	product, err := uc.repo.GetProduct(ctx, form.ProductID)
	if err != nil {
		return err
	}
	if product == nil {
		return apperr.NotFound("product %s not in local cache", form.ProductID)
	}

	newStock := product.CurrentStock.Add(form.Quantity)

	if uc.monitor.Online() {
		// Live path: the remote performs the authoritative mutation; the
		// replica takes the returned stock, not the locally computed one.
		mv, err := uc.adapter.RecordReceipt(ctx, form, actorID)
		if err != nil {
			return err
		}
		if err := uc.repo.AdjustStock(ctx, form.ProductID, mv.ResultingStock); err != nil {
			return err
		}
		uc.logger.Info("receipt recorded online",
			zap.String("product_id", form.ProductID),
			zap.String("quantity", form.Quantity.String()),
			zap.String("stock", mv.ResultingStock.String()))
		return nil
	}

	// Offline path: optimistic replica write so later dispatches in the
	// same session see up-to-date stock, then queue for reconciliation.
	if err := uc.repo.AdjustStock(ctx, form.ProductID, newStock); err != nil {
		return err
	}
	if err := uc.enqueue(ctx, model.OpReceipt, form, actorID); err != nil {
		return err
	}
	uc.logger.Info("receipt queued offline",
		zap.String("product_id", form.ProductID),
		zap.String("quantity", form.Quantity.String()))
	return nil
}

func (uc *recorderUseCase) RecordDispatch(ctx context.Context, clientID string, items []model.CartItem, actorID *string) error {
	if clientID == "" {
		return apperr.InvalidInput("dispatch requires a client")
	}
	if len(items) == 0 {
		return apperr.InvalidInput("dispatch cart is empty")
	}

	// Validate the whole cart against the local cache before touching the
	// replica. Quantities for the same product accumulate so the cart as a
	// whole can never drive cached stock negative.
	required := make(map[string]decimal.Decimal)
	cached := make(map[string]*model.Product)
	for _, item := range items {
		if !item.Quantity.IsPositive() {
			return apperr.InvalidInput("dispatch quantity must be positive, got %s", item.Quantity)
		}
		product := cached[item.ProductID]
		if product == nil {
			p, err := uc.repo.GetProduct(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if p == nil {
				return apperr.NotFound("product %s not in local cache", item.ProductID)
			}
			cached[item.ProductID] = p
			product = p
		}
		total := required[item.ProductID].Add(item.Quantity)
		if total.GreaterThan(product.CurrentStock) {
			return apperr.InsufficientStock("insufficient stock for %s: available %s, requested %s",
				product.Name, product.CurrentStock, total)
		}
		required[item.ProductID] = total
	}

	form := model.DispatchForm{ClientID: clientID, Items: items}

	if uc.monitor.Online() {
		// Live path: the remote re-checks and applies atomically; replica
		// stocks come back from the returned movements.
		res, err := uc.adapter.RecordDispatch(ctx, form, actorID)
		if err != nil {
			return err
		}
		for _, mv := range res.Movements {
			if err := uc.repo.AdjustStock(ctx, mv.ProductID, mv.ResultingStock); err != nil {
				return err
			}
		}
		uc.logger.Info("dispatch recorded online",
			zap.String("client_id", clientID),
			zap.Int("items", len(items)))
		return nil
	}

	// Offline path: apply every decrement optimistically, then queue the
	// whole cart as one sync-atomic unit.
	for productID, qty := range required {
		newStock := cached[productID].CurrentStock.Sub(qty)
		if err := uc.repo.AdjustStock(ctx, productID, newStock); err != nil {
			return err
		}
	}
	if err := uc.enqueue(ctx, model.OpDispatch, form, actorID); err != nil {
		return err
	}
	uc.logger.Info("dispatch queued offline",
		zap.String("client_id", clientID),
		zap.Int("items", len(items)))
	return nil
}

func (uc *recorderUseCase) enqueue(ctx context.Context, kind model.OperationKind, payload any, actorID *string) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	op := &model.PendingOperation{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    model.OpPending,
		Payload:   raw,
		ActorID:   actorID,
		CreatedAt: time.Now().UTC(),
	}
	_, err = uc.repo.Enqueue(ctx, op)
	return err
}
