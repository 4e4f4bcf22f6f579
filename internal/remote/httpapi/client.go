package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/charcosud/inventory-agent/internal/apperr"
	"github.com/charcosud/inventory-agent/internal/model"
	"github.com/charcosud/inventory-agent/internal/remote"
)

// TokenFunc returns the bearer token for a request.
type TokenFunc func(ctx context.Context) (string, error)

// Client talks JSON over HTTP to the remote inventory service.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenFunc
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, token TokenFunc, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		token:   token,
		logger:  logger,
	}
}

var _ remote.Adapter = (*Client)(nil)

func (c *Client) GetProducts(ctx context.Context, activeOnly bool) ([]model.Product, error) {
	path := "/api/products"
	if activeOnly {
		path += "?active=true"
	}
	var products []model.Product
	if err := c.do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) GetProductByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	if err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProductStock(ctx context.Context, id string, newStock decimal.Decimal) (*model.Product, error) {
	body := map[string]any{"current_stock": newStock}
	var p model.Product
	path := "/api/products/" + url.PathEscape(id) + "/stock"
	if err := c.do(ctx, http.MethodPut, path, body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetClients(ctx context.Context, activeOnly bool) ([]model.Client, error) {
	path := "/api/clients"
	if activeOnly {
		path += "?active=true"
	}
	var clients []model.Client
	if err := c.do(ctx, http.MethodGet, path, nil, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

func (c *Client) RecordReceipt(ctx context.Context, form model.ReceiptForm, actorID *string) (*model.Movement, error) {
	body := map[string]any{
		"product_id":    form.ProductID,
		"quantity":      form.Quantity,
		"delivery_note": form.DeliveryNote,
		"notes":         form.Notes,
		"actor_id":      actorID,
	}
	var mv model.Movement
	if err := c.do(ctx, http.MethodPost, "/api/movements/receipts", body, &mv); err != nil {
		return nil, err
	}
	return &mv, nil
}

func (c *Client) RecordDispatch(ctx context.Context, form model.DispatchForm, actorID *string) (*remote.DispatchResult, error) {
	body := map[string]any{
		"client_id": form.ClientID,
		"items":     form.Items,
		"actor_id":  actorID,
	}
	var res remote.DispatchResult
	if err := c.do(ctx, http.MethodPost, "/api/dispatches", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// do performs one request/response round trip, mapping transport failures
// and error statuses onto the apperr taxonomy.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return fmt.Errorf("get auth token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.RemoteUnavailable(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.statusError(method, path, resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response for %s %s: %w", method, path, err)
		}
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) statusError(method, path string, resp *http.Response) error {
	var eb errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	_ = json.Unmarshal(raw, &eb)
	msg := eb.Error
	if msg == "" {
		msg = resp.Status
	}

	c.logger.Debug("remote call failed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("error", msg))

	switch resp.StatusCode {
	case http.StatusNotFound:
		return apperr.NotFound("%s", msg)
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return apperr.InsufficientStock("%s", msg)
	case http.StatusBadRequest:
		return apperr.InvalidInput("%s", msg)
	default:
		return apperr.RemoteUnavailable(fmt.Errorf("%s", msg), "%s %s returned %d", method, path, resp.StatusCode)
	}
}
