package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrExternalUnavailable covers every failure to get an answer from the
// commerce platform: transport errors, timeouts, 5xx responses and an open breaker.
var ErrExternalUnavailable = errors.New("external inventory system unavailable")

// ErrItemNotFound is a 404 for an inventory item id.
var ErrItemNotFound = errors.New("external inventory item not found")

// CommerceStatusError is a non-2xx, non-5xx response from the commerce platform.
type CommerceStatusError struct {
	Op         string
	StatusCode int
}

func (e *CommerceStatusError) Error() string {
	return fmt.Sprintf("commerce: %s returned %d", e.Op, e.StatusCode)
}

func (e *CommerceStatusError) Is(target error) bool {
	return target == ErrItemNotFound && e.StatusCode == http.StatusNotFound
}

type commerceQuantity struct {
	Available int `json:"available"`
}

type commerceAdjust struct {
	Delta int `json:"delta"`
}

// CommerceClient talks to the external inventory system of record:
//
//	GET  {base}/inventory_items/{id}         → {"available": n}
//	POST {base}/inventory_items/{id}/adjust  ← {"delta": d}
type CommerceClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	breaker    *CircuitBreaker
}

func NewCommerceClient(baseURL, token string, timeout time.Duration, breaker *CircuitBreaker) *CommerceClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CommerceClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
	}
}

// Breaker exposes the client's breaker so background jobs can skip work while it is open.
func (c *CommerceClient) Breaker() *CircuitBreaker { return c.breaker }

// GetQuantity reads the available quantity of an inventory item.
func (c *CommerceClient) GetQuantity(ctx context.Context, itemID string) (int, error) {
	var out commerceQuantity
	err := c.do(ctx, "get quantity", http.MethodGet, c.itemURL(itemID), nil, &out)
	return out.Available, err
}

// AdjustQuantity applies a relative delta to an inventory item.
func (c *CommerceClient) AdjustQuantity(ctx context.Context, itemID string, delta int) error {
	return c.do(ctx, "adjust", http.MethodPost, c.itemURL(itemID)+"/adjust", commerceAdjust{Delta: delta}, nil)
}

func (c *CommerceClient) itemURL(itemID string) string {
	return c.baseURL + "/inventory_items/" + url.PathEscape(itemID)
}

func (c *CommerceClient) do(ctx context.Context, op, method, endpoint string, in, out interface{}) error {
	call := func() error {
		var body *bytes.Reader
		if in != nil {
			raw, err := json.Marshal(in)
			if err != nil {
				return fmt.Errorf("commerce: marshal %s: %w", op, err)
			}
			body = bytes.NewReader(raw)
		} else {
			body = bytes.NewReader(nil)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
		if err != nil {
			return fmt.Errorf("commerce: create %s request: %w", op, err)
		}
		req.Header.Set("Accept", "application/json")
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("commerce: %s: %v: %w", op, err, ErrExternalUnavailable)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("commerce: %s returned %d: %w", op, resp.StatusCode, ErrExternalUnavailable)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &CommerceStatusError{Op: op, StatusCode: resp.StatusCode}
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("commerce: decode %s response: %w", op, err)
		}
		return nil
	}

	if c.breaker == nil {
		return call()
	}
	// 4xx answers are the caller's problem, not an outage: they must not open
	// the breaker for every other item.
	err := c.breaker.ExecuteCounting(call, func(err error) bool {
		return errors.Is(err, ErrExternalUnavailable)
	})
	if errors.Is(err, ErrCircuitOpen) {
		return fmt.Errorf("commerce: %s: %w: %w", op, err, ErrExternalUnavailable)
	}
	return err
}
