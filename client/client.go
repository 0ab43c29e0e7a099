// Package client talks to the storefront HTTP API. It backs the cart session
// controller and the checkout flow.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"storefront/cartsession"
	"storefront/checkout"
	"storefront/models"
	"storefront/payment"
)

const SessionHeader = "X-Session-ID"

// APIError is a non-success answer from the API. Message is the server's
// error text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   cartsession.SessionStore

	mu    sync.RWMutex
	token string
}

func New(baseURL string, sessions cartsession.SessionStore) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		sessions: sessions,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithHTTPClient swaps the transport, mostly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// SetToken sets the bearer token sent with every request. An empty token
// makes the client anonymous again.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.sessions != nil {
		if id, ok, err := c.sessions.Load(); err == nil && ok {
			req.Header.Set(SessionHeader, id)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}
	if resp.StatusCode >= 400 || !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Error}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) Fetch(ctx context.Context) (*cartsession.CartView, error) {
	var view cartsession.CartView
	if err := c.do(ctx, http.MethodGet, "/api/cart", nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *Client) Add(ctx context.Context, productID uint, quantity int) error {
	body := map[string]any{"productId": productID, "quantity": quantity}
	return c.do(ctx, http.MethodPost, "/api/cart", body, nil)
}

func (c *Client) Update(ctx context.Context, itemID uint, quantity int) error {
	body := map[string]any{"itemId": itemID, "quantity": quantity}
	return c.do(ctx, http.MethodPatch, "/api/cart", body, nil)
}

func (c *Client) Remove(ctx context.Context, itemID uint) error {
	q := url.Values{"itemId": {strconv.FormatUint(uint64(itemID), 10)}}
	return c.do(ctx, http.MethodDelete, "/api/cart?"+q.Encode(), nil, nil)
}

func (c *Client) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/cart?clear=true", nil, nil)
}

func (c *Client) Merge(ctx context.Context, sessionID string) (int, error) {
	var out struct {
		MergedCount int `json:"mergedCount"`
	}
	err := c.do(ctx, http.MethodPost, "/api/cart/merge", map[string]string{"sessionId": sessionID}, &out)
	return out.MergedCount, err
}

func (c *Client) SaveAddress(ctx context.Context, addr models.ShippingAddress) error {
	return c.do(ctx, http.MethodPut, "/api/address", addr, nil)
}

func (c *Client) CreatePaymentIntent(ctx context.Context, amount float64) (*payment.Intent, error) {
	var out struct {
		ClientSecret    string `json:"clientSecret"`
		PaymentIntentID string `json:"paymentIntentId"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/payments/intent", map[string]float64{"amount": amount}, &out); err != nil {
		return nil, err
	}
	return &payment.Intent{ID: out.PaymentIntentID, ClientSecret: out.ClientSecret}, nil
}

func (c *Client) CreateOrder(ctx context.Context, req checkout.OrderRequest) (*checkout.OrderReceipt, error) {
	var out struct {
		Order       models.Order `json:"order"`
		OrderNumber string       `json:"orderNumber"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &out); err != nil {
		return nil, err
	}
	return &checkout.OrderReceipt{ID: out.Order.ID, OrderNumber: out.OrderNumber}, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]models.Order, error) {
	var out struct {
		Orders []models.Order `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}
