// Package jellyseerr is a read-only client for the Jellyseerr request API.
package jellyseerr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	apiKeyHeader  = "X-Api-Key"
	apiUserHeader = "X-Api-User"
	listTake      = 1000
)

var (
	ErrBaseURLRequired = errors.New("jellyseerr base url is required")
	ErrUnexpectedBody  = errors.New("unexpected response body")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("jellyseerr %s returned %d: %s", e.URL, e.StatusCode, e.Body)
}

// Client talks to a single Jellyseerr instance.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	attempts   uint
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryAttempts sets how many times a request is tried when the transport
// fails. HTTP status codes are never retried.
func WithRetryAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.attempts = uint(n)
		}
	}
}

// NewClient creates a client for baseURL authenticating with apiKey.
func NewClient(baseURL, apiKey string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		attempts:   1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the instance root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// getJSON performs an authenticated GET and returns the raw body of a 2xx
// response. apiUser, when set, is sent as the user-scoping header.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, apiUser string) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if apiUser != "" {
		req.Header.Set(apiUserHeader, apiUser)
	}

	resp, err := retry.DoWithData(
		func() (*http.Response, error) { return c.httpClient.Do(req) },
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(250*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("jellyseerr request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, &StatusError{URL: path, StatusCode: resp.StatusCode, Body: snippet}
	}
	return body, nil
}

func takeQuery(take int) url.Values {
	q := url.Values{}
	q.Set("take", strconv.Itoa(take))
	return q
}
