package models

import (
	"strconv"
	"time"
)

// PendingWatchlistItem is a request that has not shown up in the library yet.
// It is promoted to the user's watchlist once a matching item is indexed.
type PendingWatchlistItem struct {
	TmdbID      int       `json:"tmdbId"`
	MediaType   MediaType `json:"mediaType"`
	RequestedAt time.Time `json:"requestedAt"`
}

// Key returns a stable identifier combining media type and TMDB id.
func (p PendingWatchlistItem) Key() string {
	return string(p.MediaType.Normalize()) + ":" + strconv.Itoa(p.TmdbID)
}

// PendingWatchlist is the per-user document persisted by the pending store.
type PendingWatchlist struct {
	Items []PendingWatchlistItem `json:"items"`
}

// WatchState is the per-user, per-item data the sync cares about.
type WatchState struct {
	Likes bool `json:"likes"`
}

// ReconciliationOutcome reports what happened to a single request during a sync.
type ReconciliationOutcome int

const (
	OutcomeSkipped ReconciliationOutcome = iota
	OutcomeAdded
	OutcomeAddedToPending
	OutcomeAlreadyInWatchlist
)

func (o ReconciliationOutcome) String() string {
	switch o {
	case OutcomeAdded:
		return "added"
	case OutcomeAddedToPending:
		return "added_to_pending"
	case OutcomeAlreadyInWatchlist:
		return "already_in_watchlist"
	default:
		return "skipped"
	}
}
