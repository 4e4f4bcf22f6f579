// Package remotetest provides an in-memory remote.Adapter for tests. It
// mimics the authoritative service: receipts and dispatches mutate its own
// stock copy, and a dispatch applies all-or-nothing.
package remotetest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/charcosud/inventory-agent/internal/apperr"
	"github.com/charcosud/inventory-agent/internal/model"
	"github.com/charcosud/inventory-agent/internal/remote"
)

type Fake struct {
	mu       sync.Mutex
	products map[string]model.Product
	clients  map[string]model.Client

	// FailAll, when set, makes every call fail with that error.
	FailAll error

	// Hooks observed under no lock, for coordination in concurrency tests.
	OnReceipt  func()
	OnDispatch func()

	ReceiptCalls  []model.ReceiptForm
	DispatchCalls []model.DispatchForm
}

var _ remote.Adapter = (*Fake)(nil)

func NewFake() *Fake {
	return &Fake{
		products: make(map[string]model.Product),
		clients:  make(map[string]model.Client),
	}
}

func (f *Fake) SeedProduct(p model.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID] = p
}

func (f *Fake) SeedClient(c model.Client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients[c.ID] = c
}

// SetStock overwrites the authoritative stock directly, emulating another
// device writing concurrently.
func (f *Fake) SetStock(productID string, stock decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.products[productID]
	p.CurrentStock = stock
	f.products[productID] = p
}

func (f *Fake) Stock(productID string) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[productID].CurrentStock
}

func (f *Fake) GetProducts(ctx context.Context, activeOnly bool) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAll != nil {
		return nil, f.FailAll
	}
	var out []model.Product
	for _, p := range f.products {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *Fake) GetProductByID(ctx context.Context, id string) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAll != nil {
		return nil, f.FailAll
	}
	p, ok := f.products[id]
	if !ok {
		return nil, apperr.NotFound("product %s", id)
	}
	return &p, nil
}

func (f *Fake) UpdateProductStock(ctx context.Context, id string, newStock decimal.Decimal) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAll != nil {
		return nil, f.FailAll
	}
	p, ok := f.products[id]
	if !ok {
		return nil, apperr.NotFound("product %s", id)
	}
	p.CurrentStock = newStock
	p.UpdatedAt = time.Now().UTC()
	f.products[id] = p
	return &p, nil
}

func (f *Fake) GetClients(ctx context.Context, activeOnly bool) ([]model.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAll != nil {
		return nil, f.FailAll
	}
	var out []model.Client
	for _, c := range f.clients {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *Fake) RecordReceipt(ctx context.Context, form model.ReceiptForm, actorID *string) (*model.Movement, error) {
	if f.OnReceipt != nil {
		f.OnReceipt()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAll != nil {
		return nil, f.FailAll
	}
	f.ReceiptCalls = append(f.ReceiptCalls, form)

	p, ok := f.products[form.ProductID]
	if !ok {
		return nil, apperr.NotFound("product %s", form.ProductID)
	}
	p.CurrentStock = p.CurrentStock.Add(form.Quantity)
	p.UpdatedAt = time.Now().UTC()
	f.products[form.ProductID] = p

	return &model.Movement{
		ID:             uuid.New().String(),
		Kind:           model.MovementReceipt,
		Date:           time.Now().UTC(),
		ProductID:      form.ProductID,
		Quantity:       form.Quantity,
		ResultingStock: p.CurrentStock,
		ActorID:        actorID,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

func (f *Fake) RecordDispatch(ctx context.Context, form model.DispatchForm, actorID *string) (*remote.DispatchResult, error) {
	if f.OnDispatch != nil {
		f.OnDispatch()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAll != nil {
		return nil, f.FailAll
	}
	f.DispatchCalls = append(f.DispatchCalls, form)

	// Validate everything before touching any stock: all-or-nothing.
	required := make(map[string]decimal.Decimal)
	for _, item := range form.Items {
		required[item.ProductID] = required[item.ProductID].Add(item.Quantity)
	}
	total := decimal.Zero
	for productID, qty := range required {
		p, ok := f.products[productID]
		if !ok {
			return nil, apperr.NotFound("product %s", productID)
		}
		if p.CurrentStock.LessThan(qty) {
			return nil, apperr.InsufficientStock("insufficient stock for %s: available %s, requested %s",
				p.Name, p.CurrentStock, qty)
		}
		total = total.Add(qty.Mul(p.PricePerUnit))
	}

	dispatchID := uuid.New().String()
	now := time.Now().UTC()
	result := &remote.DispatchResult{
		Dispatch: model.Dispatch{
			ID:        dispatchID,
			ClientID:  form.ClientID,
			Date:      now,
			Total:     total,
			ActorID:   actorID,
			CreatedAt: now,
		},
	}
	for productID, qty := range required {
		p := f.products[productID]
		p.CurrentStock = p.CurrentStock.Sub(qty)
		p.UpdatedAt = now
		f.products[productID] = p

		clientID := form.ClientID
		did := dispatchID
		result.Movements = append(result.Movements, model.Movement{
			ID:             uuid.New().String(),
			Kind:           model.MovementDispatch,
			Date:           now,
			ProductID:      productID,
			ClientID:       &clientID,
			Quantity:       qty,
			ResultingStock: p.CurrentStock,
			ActorID:        actorID,
			DispatchID:     &did,
			CreatedAt:      now,
		})
	}
	return result, nil
}
