// Package library matches external requests against the host media library
// and defines the host capabilities the sync depends on.
package library

//go:generate mockgen -destination=mocks/mock_library.go -package=mocks github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/library Index,WatchStates

import (
	"context"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/models"
)

// ItemKind is the host's item type for a library entry.
type ItemKind string

const (
	KindMovie  ItemKind = "Movie"
	KindSeries ItemKind = "Series"
)

// ProviderTmdb is the provider id key the host uses for TMDB ids.
const ProviderTmdb = "Tmdb"

// KindFor maps a request media type to the library item kind. Anything that
// is not a movie is treated as a series.
func KindFor(mediaType models.MediaType) ItemKind {
	if mediaType.IsMovie() {
		return KindMovie
	}
	return KindSeries
}

// Index queries library entries of one kind that carry the given provider id.
type Index interface {
	ItemsWithProviderID(ctx context.Context, kind ItemKind, provider string) ([]models.LibraryEntry, error)
}

// WatchStates reads and writes per-user item data. UserWatchState returns
// nil, nil when the host has no data for the pair.
type WatchStates interface {
	UserWatchState(ctx context.Context, userID, itemID string) (*models.WatchState, error)
	SetUserWatchState(ctx context.Context, userID, itemID string, state models.WatchState) error
}

// Users lists local accounts.
type Users interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}
