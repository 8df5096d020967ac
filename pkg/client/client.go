// Package client provides the public Go SDK for the Insights Engine API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client talks to a running Insights Engine API server.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates an Insights Engine API client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8090"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
	}
}

// SearchParams are the query parameters of the search endpoint. Zero values
// are omitted from the request.
type SearchParams struct {
	Query         string
	Year          int
	Quarter       int
	Month         int
	DateStart     string // YYYY-MM-DD
	DateEnd       string // YYYY-MM-DD
	Seller        string
	Phase         string
	Source        string
	TopK          int
	MinSimilarity float64
}

func (p SearchParams) values() url.Values {
	v := url.Values{}
	v.Set("query", p.Query)
	if p.Year != 0 {
		v.Set("year", strconv.Itoa(p.Year))
	}
	if p.Quarter != 0 {
		v.Set("quarter", strconv.Itoa(p.Quarter))
	}
	if p.Month != 0 {
		v.Set("month", strconv.Itoa(p.Month))
	}
	if p.DateStart != "" {
		v.Set("date_start", p.DateStart)
	}
	if p.DateEnd != "" {
		v.Set("date_end", p.DateEnd)
	}
	if p.Seller != "" {
		v.Set("seller", p.Seller)
	}
	if p.Phase != "" {
		v.Set("phase", p.Phase)
	}
	if p.Source != "" {
		v.Set("source", p.Source)
	}
	if p.TopK != 0 {
		v.Set("top_k", strconv.Itoa(p.TopK))
	}
	if p.MinSimilarity != 0 {
		v.Set("min_similarity", strconv.FormatFloat(p.MinSimilarity, 'f', -1, 64))
	}
	return v
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// Search runs an insights query. The returned payload is the raw response
// object; SearchResponse exposes the commonly used fields and keeps the
// rest accessible through Deals and Raw.
func (c *Client) Search(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	endpoint := c.baseURL + "/api/v1/insights/search?" + params.values().Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if jErr := json.Unmarshal(body, &apiErr); jErr == nil && apiErr.Error != "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var out SearchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	out.Raw = body

	return &out, nil
}

// Health checks the server health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: "service unhealthy"}
	}
	return nil
}
