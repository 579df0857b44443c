// Package bank fetches account dashboards from the banking-data service.
package bank

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
)

var (
	// ErrUnauthorized indicates the API key was rejected.
	ErrUnauthorized = errors.New("bank: unauthorized (api key missing or invalid)")
	// ErrNotFound indicates the user does not exist upstream.
	ErrNotFound = errors.New("bank: user not found")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("bank: rate limited")
)

// Client fetches dashboards over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
}

// NewClient creates a client for the service at baseURL.
// Returns nil if baseURL is empty.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		timeout: timeout,
		http:    &http.Client{},
	}
}

// FetchDashboard returns the dashboard for userID.
func (c *Client) FetchDashboard(ctx context.Context, userID int) (Dashboard, error) {
	body, err := c.get(ctx, "/dashboard/"+strconv.Itoa(userID), userID)
	if err != nil {
		return Dashboard{}, err
	}
	return ParseDashboard(body, userID)
}

// get performs a GET request and returns the response body.
func (c *Client) get(ctx context.Context, path string, userID int) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("bank: creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "github.com/theirongolddev/nestegg/1.0")
	req.Header.Set("X-User-Id", strconv.Itoa(userID))
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bank: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("bank: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("bank: reading response: %w", err)
	}
	return body, nil
}

// FileSource serves a dashboard stored as a local JSON file.
type FileSource struct {
	Path string
}

// FetchDashboard reads and parses the file. userID fills in a missing user id.
func (f FileSource) FetchDashboard(_ context.Context, userID int) (Dashboard, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return Dashboard{}, fmt.Errorf("bank: reading %s: %w", f.Path, err)
	}
	return ParseDashboard(data, userID)
}
