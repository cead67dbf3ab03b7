package jellyseerr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/models"
)

// ErrNoRequests is returned when neither request endpoint produced a usable
// response.
var ErrNoRequests = errors.New("no request endpoint returned a usable response")

// UserRequests fetches the requests made by a Jellyseerr user. The
// user-scoped endpoint is tried first, then the requestedBy filter on the
// global list; the first 2xx response with a recognisable body wins.
func (c *Client) UserRequests(ctx context.Context, userID int) ([]models.ExternalRequest, error) {
	id := strconv.Itoa(userID)

	byUser := takeQuery(listTake)
	global := takeQuery(listTake)
	global.Set("requestedBy", id)

	endpoints := []struct {
		path  string
		query url.Values
	}{
		{path: "/api/v1/user/" + id + "/requests", query: byUser},
		{path: "/api/v1/request", query: global},
	}

	var errs []error
	for _, ep := range endpoints {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, err := c.getJSON(ctx, ep.path, ep.query, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		requests, ok := ParseRequests(body)
		if !ok {
			errs = append(errs, fmt.Errorf("%s: %w", ep.path, ErrUnexpectedBody))
			continue
		}
		return requests, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrNoRequests, errors.Join(errs...))
}

// ParseRequests extracts requests from either a bare JSON array or a
// {"results": [...]} envelope. ok is false when the body has neither shape.
// Items without both a TMDB id and a media type are dropped.
func ParseRequests(body []byte) ([]models.ExternalRequest, bool) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return nil, false
	}

	var items []map[string]json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, false
		}
		raw, ok := envelope["results"]
		if !ok || strings.TrimSpace(string(raw)) == "null" {
			return nil, false
		}
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, false
		}
	}

	out := make([]models.ExternalRequest, 0, len(items))
	for _, item := range items {
		if req, ok := extractRequest(item); ok {
			out = append(out, req)
		}
	}
	return out, true
}

// extractRequest prefers the nested media object and falls back to
// top-level fields (tmdbId, mediaType, type, title).
func extractRequest(item map[string]json.RawMessage) (models.ExternalRequest, bool) {
	var (
		tmdbID    int
		hasID     bool
		mediaType string
		title     string
	)

	if rawMedia, ok := item["media"]; ok {
		var media map[string]json.RawMessage
		if json.Unmarshal(rawMedia, &media) == nil {
			tmdbID, hasID = intField(media, "tmdbId")
			mediaType = stringField(media, "mediaType")
			title = stringField(media, "title")
		}
	}

	if !hasID {
		tmdbID, hasID = intField(item, "tmdbId")
	}
	if mediaType == "" {
		mediaType = stringField(item, "mediaType")
	}
	if mediaType == "" {
		mediaType = stringField(item, "type")
	}
	if title == "" {
		title = stringField(item, "title")
	}

	if !hasID || mediaType == "" {
		return models.ExternalRequest{}, false
	}
	return models.ExternalRequest{TmdbID: tmdbID, MediaType: models.MediaType(mediaType), Title: title}, true
}

// intField accepts numbers and numeric strings. An explicit null counts as
// missing.
func intField(obj map[string]json.RawMessage, key string) (int, bool) {
	raw, ok := present(obj, key)
	if !ok {
		return 0, false
	}
	var n int
	if json.Unmarshal(raw, &n) == nil {
		return n, true
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v, true
		}
	}
	return 0, false
}

func stringField(obj map[string]json.RawMessage, key string) string {
	raw, ok := present(obj, key)
	if !ok {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func present(obj map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := obj[key]
	if !ok || strings.TrimSpace(string(raw)) == "null" {
		return nil, false
	}
	return raw, true
}
