package requestspage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/models"
)

const (
	basePath    = "/JellyfinEnhanced"
	tokenHeader = "X-MediaBrowser-Token"
)

var ErrServerURLRequired = errors.New("server url is required")

// API is the server surface the page reads from.
type API interface {
	Requests(ctx context.Context, take, skip int, filter string) (models.RequestsPage, error)
	Downloads(ctx context.Context) (models.QueueResponse, error)
}

// HTTPClient talks to the backend's /arr endpoints.
type HTTPClient struct {
	serverURL  string
	token      string
	httpClient *http.Client
}

var _ API = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the backend at serverURL.
func NewHTTPClient(serverURL, token string, timeout time.Duration) (*HTTPClient, error) {
	serverURL = strings.TrimRight(strings.TrimSpace(serverURL), "/")
	if serverURL == "" {
		return nil, ErrServerURLRequired
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		serverURL:  serverURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Requests fetches one server page of request cards.
func (c *HTTPClient) Requests(ctx context.Context, take, skip int, filter string) (models.RequestsPage, error) {
	params := url.Values{}
	params.Set("take", strconv.Itoa(take))
	params.Set("skip", strconv.Itoa(skip))
	if filter != "" {
		params.Set("filter", filter)
	}
	var page models.RequestsPage
	if err := c.getJSON(ctx, "/arr/requests?"+params.Encode(), &page); err != nil {
		return models.RequestsPage{}, err
	}
	return page, nil
}

// Downloads fetches the merged download queue.
func (c *HTTPClient) Downloads(ctx context.Context) (models.QueueResponse, error) {
	var queue models.QueueResponse
	if err := c.getJSON(ctx, "/arr/queue", &queue); err != nil {
		return models.QueueResponse{}, err
	}
	return queue, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+basePath+endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set(tokenHeader, c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
