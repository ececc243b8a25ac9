package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"receipt_relay/internal/models"
)

// Client fetches full order detail from the dashboard backend. Orders are
// fetched fresh per print attempt and never cached.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

const requestTimeout = 10 * time.Second

var ErrOrderNotFound = errors.New("order not found")

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// orderEnvelope is the backend's standard response wrapper.
type orderEnvelope struct {
	Error string              `json:"error,omitempty"`
	Data  *models.OrderDetail `json:"data,omitempty"`
}

// OrderByID returns the full order for the given id. An envelope error or an
// empty data field is a fetch failure.
func (c *Client) OrderByID(ctx context.Context, id int) (models.OrderDetail, error) {
	url := fmt.Sprintf("%s/api/v1/orders/%d", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.OrderDetail{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return models.OrderDetail{}, fmt.Errorf("fetch order %d: %w", id, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return models.OrderDetail{}, ErrOrderNotFound
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return models.OrderDetail{}, fmt.Errorf("fetch order %d: API error %d: %s", id, resp.StatusCode, string(body))
	}

	var env orderEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return models.OrderDetail{}, fmt.Errorf("decode order %d: %w", id, err)
	}
	if env.Error != "" {
		return models.OrderDetail{}, fmt.Errorf("fetch order %d: %s", id, env.Error)
	}
	if env.Data == nil {
		return models.OrderDetail{}, ErrOrderNotFound
	}
	return *env.Data, nil
}
