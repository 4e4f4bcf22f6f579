package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charcosud/inventory-agent/internal/apperr"
	"github.com/charcosud/inventory-agent/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	token := func(ctx context.Context) (string, error) { return "test-token", nil }
	return NewClient(srv.URL, 5*time.Second, token, zap.NewNop())
}

func TestGetProductByID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/p1", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(model.Product{
			ID:           "p1",
			SKU:          "SKU-1",
			Name:         "Congrio",
			CurrentStock: decimal.RequireFromString("12.500"),
		})
	}))

	p, err := c.GetProductByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Congrio", p.Name)
	assert.True(t, p.CurrentStock.Equal(decimal.RequireFromString("12.5")))
}

func TestGetProductsActiveFilter(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("active"))
		json.NewEncoder(w).Encode([]model.Product{{ID: "p1"}, {ID: "p2"}})
	}))

	products, err := c.GetProducts(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestNotFoundMapping(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "product not found"})
	}))

	_, err := c.GetProductByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Contains(t, err.Error(), "product not found")
}

func TestConflictMapsToInsufficientStock(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "insufficient stock for Congrio"})
	}))

	form := model.DispatchForm{
		ClientID: "c1",
		Items:    []model.CartItem{{ProductID: "p1", Quantity: decimal.NewFromInt(4)}},
	}
	_, err := c.RecordDispatch(context.Background(), form, nil)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
}

func TestServerErrorMapsToRemoteUnavailable(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.GetProducts(context.Background(), false)
	assert.ErrorIs(t, err, apperr.ErrRemoteUnavailable)
}

func TestTransportErrorMapsToRemoteUnavailable(t *testing.T) {
	token := func(ctx context.Context) (string, error) { return "", nil }
	// The port is closed immediately so every request fails at dial time.
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, token, zap.NewNop())
	_, err := c.GetProducts(context.Background(), false)
	assert.ErrorIs(t, err, apperr.ErrRemoteUnavailable)
}

func TestRecordReceiptPostsPayload(t *testing.T) {
	actor := "u1"
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/movements/receipts", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "p1", body["product_id"])
		assert.Equal(t, "5.25", body["quantity"])
		assert.Equal(t, "u1", body["actor_id"])

		json.NewEncoder(w).Encode(model.Movement{
			ID:             "m1",
			Kind:           model.MovementReceipt,
			ProductID:      "p1",
			ResultingStock: decimal.RequireFromString("15.25"),
		})
	}))

	mv, err := c.RecordReceipt(context.Background(), model.ReceiptForm{
		ProductID: "p1",
		Quantity:  decimal.RequireFromString("5.25"),
	}, &actor)
	require.NoError(t, err)
	assert.True(t, mv.ResultingStock.Equal(decimal.RequireFromString("15.25")))
}
