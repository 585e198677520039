package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every bridge call. The bridge process sits on the
// same host as the terminal, so anything slower than this is a hang.
const DefaultTimeout = 20 * time.Second

var (
	// ErrUnavailable means the bridge could not be reached or refused the
	// request. Fatal for calls that establish the run baseline.
	ErrUnavailable = errors.New("mt5 bridge unavailable")

	// ErrHistory means a historical-deals query failed. Callers must treat
	// the affected window as unknown, never as empty.
	ErrHistory = errors.New("mt5 bridge history query failed")
)

// Client talks to the MT5 bridge over HTTP. Read-only: every method is a
// single attempt with no retries; failures surface to the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a bridge client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type positionsResponse struct {
	Positions []Position `json:"positions"`
}

type dealsRequest struct {
	FromDT string `json:"from_dt"`
	ToDT   string `json:"to_dt"`
}

type dealsResponse struct {
	Deals []Deal `json:"deals"`
}

// Positions fetches the live positions snapshot.
func (c *Client) Positions(ctx context.Context) ([]Position, error) {
	var out positionsResponse
	if err := c.do(ctx, http.MethodGet, "/api/positions", nil, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out.Positions, nil
}

// HistoryDeals fetches historical deals in [from, to]. An empty slice with a
// nil error means the window was searched and holds no deals.
func (c *Client) HistoryDeals(ctx context.Context, from, to time.Time) ([]Deal, error) {
	req := dealsRequest{
		FromDT: from.UTC().Format(time.RFC3339),
		ToDT:   to.UTC().Format(time.RFC3339),
	}
	var out dealsResponse
	if err := c.do(ctx, http.MethodPost, "/api/history/deals", req, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistory, err)
	}
	return out.Deals, nil
}

// AccountInfo fetches the account snapshot used as incident evidence.
func (c *Client) AccountInfo(ctx context.Context) (Account, error) {
	var out Account
	if err := c.do(ctx, http.MethodGet, "/api/account_info", nil, &out); err != nil {
		return Account{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("bridge responded %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
