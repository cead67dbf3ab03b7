package models

import "strings"

// MediaType distinguishes movies from series as Jellyseerr names them.
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "tv"
)

// Normalize lower-cases the type and folds the aliases the request service
// and older payloads use ("show", "series") into MediaTypeSeries.
func (m MediaType) Normalize() MediaType {
	switch v := MediaType(strings.ToLower(strings.TrimSpace(string(m)))); v {
	case "tv", "show", "series":
		return MediaTypeSeries
	default:
		return v
	}
}

// IsMovie reports whether the type maps to a library movie.
func (m MediaType) IsMovie() bool {
	return m.Normalize() == MediaTypeMovie
}

// ExternalRequest is a single media request extracted from the request service.
type ExternalRequest struct {
	TmdbID    int       `json:"tmdbId"`
	MediaType MediaType `json:"mediaType"`
	Title     string    `json:"title"`
}

// LibraryEntry is a local library item carrying external provider ids.
type LibraryEntry struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Kind        string            `json:"kind"`
	ProviderIDs map[string]string `json:"providerIds,omitempty"`
}

// ProviderID returns the id for the given provider, matching the provider
// name case-insensitively.
func (e LibraryEntry) ProviderID(provider string) (string, bool) {
	if v, ok := e.ProviderIDs[provider]; ok {
		return v, true
	}
	for k, v := range e.ProviderIDs {
		if strings.EqualFold(k, provider) {
			return v, true
		}
	}
	return "", false
}
