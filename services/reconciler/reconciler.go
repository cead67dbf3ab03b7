// Package reconciler applies a single external request to a user's library
// state: liking the matched item, or queueing the request as pending.
package reconciler

import (
	"context"
	"fmt"
	"log"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/models"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/library"
)

type matcher interface {
	Match(ctx context.Context, tmdbID int, mediaType models.MediaType) (models.LibraryEntry, bool, error)
}

type pendingStore interface {
	Add(userID string, item models.PendingWatchlistItem) (bool, error)
}

// Reconciler is safe to share, but a single user's requests are expected to
// be reconciled from one goroutine.
type Reconciler struct {
	matcher matcher
	pending pendingStore
	states  library.WatchStates
	logger  *log.Logger
}

// New creates a reconciler. A nil logger logs through the standard logger.
func New(m matcher, p pendingStore, states library.WatchStates, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.Default()
	}
	return &Reconciler{matcher: m, pending: p, states: states, logger: logger}
}

// Reconcile processes one request for one user. It never returns an error:
// any failure is logged and reported as OutcomeSkipped so the caller can carry
// on with the next request.
func (r *Reconciler) Reconcile(ctx context.Context, user models.User, req models.ExternalRequest) (outcome models.ReconciliationOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Printf("[requests-sync] Error processing request item %q (TMDB: %d): %v", req.Title, req.TmdbID, rec)
			outcome = models.OutcomeSkipped
		}
	}()

	outcome, err := r.reconcile(ctx, user, req)
	if err != nil {
		r.logger.Printf("[requests-sync] Error processing request item %q (TMDB: %d): %v", req.Title, req.TmdbID, err)
		return models.OutcomeSkipped
	}
	return outcome
}

func (r *Reconciler) reconcile(ctx context.Context, user models.User, req models.ExternalRequest) (models.ReconciliationOutcome, error) {
	entry, found, err := r.matcher.Match(ctx, req.TmdbID, req.MediaType)
	if err != nil {
		return models.OutcomeSkipped, err
	}

	if !found {
		added, err := r.pending.Add(user.ID, models.PendingWatchlistItem{
			TmdbID:    req.TmdbID,
			MediaType: req.MediaType,
		})
		if err != nil {
			return models.OutcomeSkipped, fmt.Errorf("add to pending: %w", err)
		}
		if !added {
			return models.OutcomeSkipped, nil
		}
		r.logger.Printf("[requests-sync] Added to pending: %s (TMDB: %d) for %s", req.Title, req.TmdbID, user.Username)
		return models.OutcomeAddedToPending, nil
	}

	state, err := r.states.UserWatchState(ctx, user.ID, entry.ID)
	if err != nil {
		return models.OutcomeSkipped, fmt.Errorf("read user data: %w", err)
	}
	if state == nil {
		r.logger.Printf("[requests-sync] User data missing for %s; skipping", entry.Name)
		return models.OutcomeSkipped, nil
	}
	if state.Likes {
		return models.OutcomeAlreadyInWatchlist, nil
	}

	updated := *state
	updated.Likes = true
	if err := r.states.SetUserWatchState(ctx, user.ID, entry.ID, updated); err != nil {
		return models.OutcomeSkipped, fmt.Errorf("save user data: %w", err)
	}
	r.logger.Printf("[requests-sync] Added to watchlist: %s for %s", entry.Name, user.Username)
	return models.OutcomeAdded, nil
}
