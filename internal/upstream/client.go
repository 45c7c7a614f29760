// Package upstream talks to the backend REST collaborators that own menu,
// branch, and order persistence. Schemas are the backend's; this package only
// mirrors the observed shapes.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kiwari-pos/dinein-terminal/internal/catalog"
	"github.com/kiwari-pos/dinein-terminal/internal/domain"
)

// APIError is a response the backend declined with its own message, e.g.
// {"success":false,"message":"table already has an open order"}.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend returned status %d", e.Status)
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// menuItem is the menu collaborator's wire shape for one item.
type menuItem struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Category        string          `json:"category"`
	PrepTimeMinutes int             `json:"prepTimeMinutes"`
	Description     string          `json:"description"`
	IsAvailable     bool            `json:"isAvailable"`
}

// Client is a thin HTTP client for the backend collaborators.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the given backend base URL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// ListMenuItems fetches the currently available menu. Unavailable items are
// filtered out even if the backend ignores the query parameter.
func (c *Client) ListMenuItems(ctx context.Context) ([]catalog.Item, error) {
	var items []menuItem
	if err := c.get(ctx, "/menu-items?isAvailable=true", &items); err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}

	out := make([]catalog.Item, 0, len(items))
	for _, it := range items {
		if !it.IsAvailable {
			continue
		}
		out = append(out, catalog.Item{
			ID:              it.ID,
			Name:            it.Name,
			Price:           it.Price,
			Category:        it.Category,
			PrepTimeMinutes: it.PrepTimeMinutes,
			Description:     it.Description,
		})
	}
	return out, nil
}

// ListBranches fetches the restaurant branches.
func (c *Client) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	var branches []domain.Branch
	if err := c.get(ctx, "/branches", &branches); err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	return branches, nil
}

// ListDineInOrders fetches all dine-in orders.
func (c *Client) ListDineInOrders(ctx context.Context) ([]domain.DineInOrder, error) {
	var orders []domain.DineInOrder
	if err := c.get(ctx, "/dine-in-orders", &orders); err != nil {
		return nil, fmt.Errorf("list dine-in orders: %w", err)
	}
	return orders, nil
}

// CreateDineInOrder submits a new order. A backend-declined submit comes back
// as *APIError carrying the server's message.
func (c *Client) CreateDineInOrder(ctx context.Context, order domain.DineInOrder) (domain.DineInOrder, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return domain.DineInOrder{}, fmt.Errorf("encode order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/dine-in-orders", bytes.NewReader(body))
	if err != nil {
		return domain.DineInOrder{}, fmt.Errorf("create order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var created domain.DineInOrder
	if err := c.do(req, &created); err != nil {
		return domain.DineInOrder{}, fmt.Errorf("create dine-in order: %w", err)
	}
	return created, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// do executes the request and unwraps the {success, data, message} envelope.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}
