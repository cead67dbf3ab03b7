package jellyseerr

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/models"
)

// Users returns every Jellyseerr account (up to 1000).
func (c *Client) Users(ctx context.Context) ([]models.JellyseerrUser, error) {
	body, err := c.getJSON(ctx, "/api/v1/user", takeQuery(listTake), "")
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Results []models.JellyseerrUser `json:"results"`
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	if _, ok := probe["results"]; !ok {
		return nil, fmt.Errorf("decode users: %w", ErrUnexpectedBody)
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return envelope.Results, nil
}

// NormalizeUserID strips hyphens and lower-cases a host user id so that
// "6C1E…-…" and "6c1e……" compare equal.
func NormalizeUserID(id string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(id), "-", ""))
}

// ResolveUserID finds the Jellyseerr account linked to a host user id.
func ResolveUserID(users []models.JellyseerrUser, hostUserID string) (int, bool) {
	want := NormalizeUserID(hostUserID)
	if want == "" {
		return 0, false
	}
	for _, u := range users {
		if u.JellyfinUserID == "" {
			continue
		}
		if NormalizeUserID(u.JellyfinUserID) == want {
			return u.ID, true
		}
	}
	return 0, false
}
