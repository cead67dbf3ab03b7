// Package jellyfin adapts the Jellyfin HTTP API to the library interfaces
// used by the request sync.
package jellyfin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/models"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/library"
)

var ErrServerURLRequired = errors.New("jellyfin server url is required")

// Client handles API interactions with Jellyfin
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	attempts   uint
}

var (
	_ library.Index       = (*Client)(nil)
	_ library.WatchStates = (*Client)(nil)
	_ library.Users       = (*Client)(nil)
)

// NewClient creates a new Jellyfin API client
func NewClient(serverURL, apiKey string, timeout time.Duration, attempts int) (*Client, error) {
	serverURL = strings.TrimRight(strings.TrimSpace(serverURL), "/")
	if serverURL == "" {
		return nil, ErrServerURLRequired
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if attempts < 1 {
		attempts = 1
	}
	return &Client{
		serverURL:  serverURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		attempts:   uint(attempts),
	}, nil
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.status, e.body)
}

// do performs an authenticated request. The caller closes the body.
func (c *Client) do(ctx context.Context, method, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	authHeader := fmt.Sprintf("MediaBrowser Client=\"Jellyfin Enhanced\", Device=\"Server\", DeviceId=\"jellyfin-enhanced\", Version=\"1.0.0\", Token=\"%s\"", c.apiKey)
	req.Header.Set("Authorization", authHeader)
	req.Header.Set("X-Emby-Token", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := retry.DoWithData(
		func() (*http.Response, error) { return c.httpClient.Do(req) },
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(250*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		output, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, &statusError{status: resp.StatusCode, body: string(output)}
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

type baseItem struct {
	ID          string            `json:"Id"`
	Name        string            `json:"Name"`
	Type        string            `json:"Type"`
	ProviderIds map[string]string `json:"ProviderIds"`
	UserData    *struct {
		Likes *bool `json:"Likes"`
	} `json:"UserData"`
}

// ItemsWithProviderID lists every library item of the kind that carries an id
// for provider.
func (c *Client) ItemsWithProviderID(ctx context.Context, kind library.ItemKind, provider string) ([]models.LibraryEntry, error) {
	q := url.Values{}
	q.Set("Recursive", "true")
	q.Set("IncludeItemTypes", string(kind))
	q.Set("Has"+provider+"Id", "true")
	q.Set("Fields", "ProviderIds")

	var result struct {
		Items []baseItem `json:"Items"`
	}
	if err := c.getJSON(ctx, "/Items?"+q.Encode(), &result); err != nil {
		return nil, err
	}

	entries := make([]models.LibraryEntry, 0, len(result.Items))
	for _, item := range result.Items {
		entries = append(entries, models.LibraryEntry{
			ID:          item.ID,
			Name:        item.Name,
			Kind:        item.Type,
			ProviderIDs: item.ProviderIds,
		})
	}
	return entries, nil
}

// UserWatchState reads the user's data for an item. A missing user or item
// yields nil, nil.
func (c *Client) UserWatchState(ctx context.Context, userID, itemID string) (*models.WatchState, error) {
	var item baseItem
	err := c.getJSON(ctx, "/Users/"+url.PathEscape(userID)+"/Items/"+url.PathEscape(itemID), &item)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && (se.status == http.StatusNotFound || se.status == http.StatusBadRequest) {
			return nil, nil
		}
		return nil, err
	}
	if item.UserData == nil {
		return nil, nil
	}
	state := &models.WatchState{}
	if item.UserData.Likes != nil {
		state.Likes = *item.UserData.Likes
	}
	return state, nil
}

// SetUserWatchState persists the like flag. Likes=true is stored as a
// rating; false clears it.
func (c *Client) SetUserWatchState(ctx context.Context, userID, itemID string, state models.WatchState) error {
	endpoint := "/Users/" + url.PathEscape(userID) + "/Items/" + url.PathEscape(itemID) + "/Rating"
	method := http.MethodDelete
	if state.Likes {
		endpoint += "?Likes=true"
		method = http.MethodPost
	}
	resp, err := c.do(ctx, method, endpoint)
	if err != nil {
		return fmt.Errorf("save user data: %w", err)
	}
	resp.Body.Close()
	return nil
}

// ListUsers returns every local account.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var result []struct {
		Name string `json:"Name"`
		ID   string `json:"Id"`
	}
	if err := c.getJSON(ctx, "/Users", &result); err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(result))
	for _, u := range result {
		users = append(users, models.User{ID: u.ID, Username: u.Name})
	}
	return users, nil
}
