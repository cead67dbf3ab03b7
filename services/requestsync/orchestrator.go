// Package requestsync mirrors every user's Jellyseerr requests into their
// library state: requested items already in the library are liked, the rest
// are queued as pending until they show up.
//
// A run processes one user and one request at a time. Two runs overlapping
// for the same user are not coordinated here; the scheduler only prevents
// overlap within a single process.
package requestsync

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/config"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/models"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/jellyseerr"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/library"
)

// ProgressFunc receives the run's progress as a percentage in [0, 100].
type ProgressFunc func(percent float64)

// RequestSource is the part of the Jellyseerr client a run needs.
type RequestSource interface {
	Users(ctx context.Context) ([]models.JellyseerrUser, error)
	UserRequests(ctx context.Context, userID int) ([]models.ExternalRequest, error)
}

// Reconciler applies one request to one user's library state.
type Reconciler interface {
	Reconcile(ctx context.Context, user models.User, req models.ExternalRequest) models.ReconciliationOutcome
}

// Summary aggregates the outcomes of one run.
type Summary struct {
	RunID              string        `json:"runId"`
	Users              int           `json:"users"`
	UsersSkipped       int           `json:"usersSkipped"`
	Added              int           `json:"added"`
	AddedToPending     int           `json:"addedToPending"`
	AlreadyInWatchlist int           `json:"alreadyInWatchlist"`
	Skipped            int           `json:"skipped"`
	Cancelled          bool          `json:"cancelled"`
	NoOp               bool          `json:"noOp"`
	Duration           time.Duration `json:"duration"`
}

// Changed is the number of items a run changed, reported as the task's
// imported count.
func (s Summary) Changed() int {
	return s.Added + s.AddedToPending
}

func (s *Summary) count(outcome models.ReconciliationOutcome) {
	switch outcome {
	case models.OutcomeAdded:
		s.Added++
	case models.OutcomeAddedToPending:
		s.AddedToPending++
	case models.OutcomeAlreadyInWatchlist:
		s.AlreadyInWatchlist++
	default:
		s.Skipped++
	}
}

// Orchestrator drives a full sync run.
type Orchestrator struct {
	settings   config.JellyseerrSettings
	users      library.Users
	reconciler Reconciler
	source     RequestSource
	logger     *log.Logger
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithSource replaces the Jellyseerr client built from settings.
func WithSource(src RequestSource) Option {
	return func(o *Orchestrator) { o.source = src }
}

// WithLogger sets the logger used for progress lines.
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an orchestrator for the given settings snapshot.
func New(settings config.JellyseerrSettings, users library.Users, reconciler Reconciler, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		settings:   settings,
		users:      users,
		reconciler: reconciler,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run performs one sync. Misconfiguration makes the run a no-op that reports
// 100%. Cancellation is checked between users and between requests; a
// cancelled run keeps whatever it already applied and leaves progress at the
// last reported value.
func (o *Orchestrator) Run(ctx context.Context, progress ProgressFunc) Summary {
	if progress == nil {
		progress = func(float64) {}
	}
	started := time.Now()
	summary := Summary{RunID: uuid.NewString()}
	defer func() {
		summary.Duration = time.Since(started)
		slog.Info("jellyseerr requests sync finished",
			"runId", summary.RunID,
			"users", summary.Users,
			"usersSkipped", summary.UsersSkipped,
			"added", summary.Added,
			"addedToPending", summary.AddedToPending,
			"alreadyInWatchlist", summary.AlreadyInWatchlist,
			"skipped", summary.Skipped,
			"cancelled", summary.Cancelled,
			"noOp", summary.NoOp,
			"duration", summary.Duration)
	}()

	if err := o.settings.Validate(); err != nil {
		o.logger.Printf("[requests-sync] Skipping run: %v", err)
		summary.NoOp = true
		progress(100)
		return summary
	}

	source := o.source
	if source == nil {
		client, err := jellyseerr.NewClient(o.settings.BaseURL(), o.settings.APIKey, o.settings.Timeout(),
			jellyseerr.WithRetryAttempts(o.settings.RetryAttempts))
		if err != nil {
			o.logger.Printf("[requests-sync] Skipping run: %v", err)
			summary.NoOp = true
			progress(100)
			return summary
		}
		source = client
	}

	o.logger.Println("[requests-sync] Starting Jellyseerr requests sync")

	users, err := o.users.ListUsers(ctx)
	if err != nil {
		o.logger.Printf("[requests-sync] Failed to list users: %v", err)
		progress(100)
		return summary
	}
	summary.Users = len(users)
	if len(users) == 0 {
		progress(100)
		return summary
	}

	accounts, err := source.Users(ctx)
	if err != nil {
		o.logger.Printf("[requests-sync] Failed to fetch Jellyseerr users: %v", err)
		accounts = nil
	}

	for i, user := range users {
		if ctx.Err() != nil {
			summary.Cancelled = true
			o.logger.Printf("[requests-sync] Cancelled after %d of %d users", i, len(users))
			return summary
		}

		if cancelled := o.syncUser(ctx, user, accounts, source, &summary); cancelled {
			summary.Cancelled = true
			o.logger.Printf("[requests-sync] Cancelled while processing user %s", user.Username)
			return summary
		}

		progress(float64(i+1) / float64(len(users)) * 100)
	}

	progress(100)
	o.logger.Printf("[requests-sync] Sync completed: %d added, %d added to pending", summary.Added, summary.AddedToPending)
	return summary
}

// syncUser reconciles every request of one user. Failures are logged and
// counted against the user; it reports whether the context was cancelled.
func (o *Orchestrator) syncUser(ctx context.Context, user models.User, accounts []models.JellyseerrUser, source RequestSource, summary *Summary) (cancelled bool) {
	defer func() {
		if rec := recover(); rec != nil {
			o.logger.Printf("[requests-sync] Error syncing user %s: %v", user.Username, rec)
			summary.UsersSkipped++
		}
	}()

	accountID, ok := jellyseerr.ResolveUserID(accounts, user.ID)
	if !ok {
		o.logger.Printf("[requests-sync] User %s has no linked Jellyseerr account, skipping", user.Username)
		summary.UsersSkipped++
		return false
	}

	requests, err := source.UserRequests(ctx, accountID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		o.logger.Printf("[requests-sync] Could not fetch requests for user %s: %v", user.Username, err)
		summary.UsersSkipped++
		return false
	}

	var added, pending int
	for _, req := range requests {
		if ctx.Err() != nil {
			return true
		}
		outcome := o.reconciler.Reconcile(ctx, user, req)
		summary.count(outcome)
		switch outcome {
		case models.OutcomeAdded:
			added++
		case models.OutcomeAddedToPending:
			pending++
		}
	}

	o.logger.Printf("[requests-sync] User %s: added %d, pending %d", user.Username, added, pending)
	return false
}

// String renders a one-line summary for task status.
func (s Summary) String() string {
	return fmt.Sprintf("%d added, %d pending, %d already in watchlist, %d skipped across %d users",
		s.Added, s.AddedToPending, s.AlreadyInWatchlist, s.Skipped, s.Users)
}
