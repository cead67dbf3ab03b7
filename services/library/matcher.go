package library

import (
	"context"
	"fmt"
	"strconv"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/models"
)

// Matcher resolves a TMDB id and media type to at most one library entry.
type Matcher struct {
	index Index
}

// NewMatcher creates a matcher over the given index.
func NewMatcher(index Index) *Matcher {
	return &Matcher{index: index}
}

// Match returns the first entry of the mapped kind whose Tmdb provider id
// equals tmdbID's decimal form. A miss is reported as ok=false, not an error;
// err is only set when the index itself fails.
func (m *Matcher) Match(ctx context.Context, tmdbID int, mediaType models.MediaType) (models.LibraryEntry, bool, error) {
	kind := KindFor(mediaType)
	entries, err := m.index.ItemsWithProviderID(ctx, kind, ProviderTmdb)
	if err != nil {
		return models.LibraryEntry{}, false, fmt.Errorf("query %s items: %w", kind, err)
	}

	want := strconv.Itoa(tmdbID)
	for _, entry := range entries {
		if id, ok := entry.ProviderID(ProviderTmdb); ok && id == want {
			return entry, true, nil
		}
	}
	return models.LibraryEntry{}, false, nil
}
