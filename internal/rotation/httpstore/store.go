// Package httpstore implements rotation.Store over the server's JSON API.
package httpstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"biscuits/internal/domain"
)

// Client talks to a running Biscuits server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken authenticates requests with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ListActiveAds returns active ads in display order.
func (c *Client) ListActiveAds(ctx context.Context) ([]domain.PlatformAd, error) {
	var ads []domain.PlatformAd
	if err := c.do(ctx, http.MethodGet, "/api/ads/active", &ads); err != nil {
		return nil, fmt.Errorf("failed to list active ads: %w", err)
	}
	return ads, nil
}

// IsPrivileged reports whether the token belongs to an admin.
func (c *Client) IsPrivileged(ctx context.Context) (bool, error) {
	var resp struct {
		Privileged bool `json:"privileged"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/me/privileged", &resp); err != nil {
		return false, fmt.Errorf("failed to check privilege: %w", err)
	}
	return resp.Privileged, nil
}

// IncrementAdView records one view.
func (c *Client) IncrementAdView(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodPost, "/api/ads/"+url.PathEscape(id)+"/view", nil); err != nil {
		return fmt.Errorf("failed to record view: %w", err)
	}
	return nil
}

// IncrementAdClick records one click.
func (c *Client) IncrementAdClick(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodPost, "/api/ads/"+url.PathEscape(id)+"/click", nil); err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}
	return nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
		return &StatusError{Code: resp.StatusCode, Message: body.Error}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
