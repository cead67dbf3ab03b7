package requestsync_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/config"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/models"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/library"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/pending"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/reconciler"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/requestsync"
)

type fakeSource struct {
	mu       sync.Mutex
	accounts []models.JellyseerrUser
	usersErr error
	requests map[int][]models.ExternalRequest
	failFor  map[int]error
	calls    []int
	onFetch  func(id int)
}

func (f *fakeSource) Users(context.Context) ([]models.JellyseerrUser, error) {
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	return f.accounts, nil
}

func (f *fakeSource) UserRequests(_ context.Context, id int) ([]models.ExternalRequest, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()
	if f.onFetch != nil {
		f.onFetch(id)
	}
	if err := f.failFor[id]; err != nil {
		return nil, err
	}
	return f.requests[id], nil
}

type progressLog struct {
	mu     sync.Mutex
	values []float64
}

func (p *progressLog) report(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values = append(p.values, v)
}

func (p *progressLog) last() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.values) == 0 {
		return -1
	}
	return p.values[len(p.values)-1]
}

type fixture struct {
	lib     *library.Memory
	pending *pending.Store
	logs    *bytes.Buffer
	logger  *log.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := pending.NewStore(afero.NewMemMapFs(), "/data")
	require.NoError(t, err)
	var buf bytes.Buffer
	return &fixture{
		lib:     library.NewMemory(),
		pending: store,
		logs:    &buf,
		logger:  log.New(&buf, "", 0),
	}
}

func (f *fixture) orchestrator(settings config.JellyseerrSettings, src requestsync.RequestSource) *requestsync.Orchestrator {
	rec := reconciler.New(library.NewMatcher(f.lib), f.pending, f.lib, f.logger)
	return requestsync.New(settings, f.lib, rec, requestsync.WithSource(src), requestsync.WithLogger(f.logger))
}

func enabledSettings() config.JellyseerrSettings {
	return config.JellyseerrSettings{
		Enabled:      true,
		SyncRequests: true,
		URLs:         "http://seerr.local\n",
		APIKey:       "key",
	}
}

func TestRunEndToEnd(t *testing.T) {
	f := newFixture(t)
	user := models.User{ID: "6c1e2f4a-0000-4b1d-9c3e-aa11bb22cc33", Username: "u"}
	f.lib.AddUser(user)
	f.lib.AddEntry(models.LibraryEntry{ID: "movie-10", Kind: "Movie", ProviderIDs: map[string]string{"Tmdb": "10"}})

	src := &fakeSource{
		accounts: []models.JellyseerrUser{{ID: 4, JellyfinUserID: "6C1E2F4A00004B1D9C3EAA11BB22CC33"}},
		requests: map[int][]models.ExternalRequest{
			4: {
				{TmdbID: 10, MediaType: "movie", Title: "R1"},
				{TmdbID: 20, MediaType: "tv", Title: "R2"},
			},
		},
	}

	var progress progressLog
	summary := f.orchestrator(enabledSettings(), src).Run(context.Background(), progress.report)

	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, 1, summary.AddedToPending)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 2, summary.Changed())
	assert.False(t, summary.Cancelled)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, float64(100), progress.last())

	state, err := f.lib.UserWatchState(context.Background(), user.ID, "movie-10")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.True(t, state.Likes)

	items, err := f.pending.Load(user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 20, items[0].TmdbID)
	assert.Equal(t, models.MediaTypeSeries, items[0].MediaType)

	assert.Contains(t, f.logs.String(), "User u: added 1, pending 1")

	// A second run changes nothing.
	again := f.orchestrator(enabledSettings(), src).Run(context.Background(), nil)
	assert.Equal(t, 0, again.Added)
	assert.Equal(t, 1, again.AlreadyInWatchlist)
	assert.Equal(t, 1, again.Skipped)
	assert.Equal(t, 1, f.lib.Writes())
	items, err = f.pending.Load(user.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRunPreconditionsAreNoOp(t *testing.T) {
	cases := map[string]func(*config.JellyseerrSettings){
		"disabled":        func(s *config.JellyseerrSettings) { s.Enabled = false },
		"sync off":        func(s *config.JellyseerrSettings) { s.SyncRequests = false },
		"no api key":      func(s *config.JellyseerrSettings) { s.APIKey = "" },
		"no urls":         func(s *config.JellyseerrSettings) { s.URLs = "" },
		"blank url lines": func(s *config.JellyseerrSettings) { s.URLs = "  \n \n" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.lib.AddUser(models.User{ID: "u1", Username: "u1"})
			src := &fakeSource{accounts: []models.JellyseerrUser{{ID: 1, JellyfinUserID: "u1"}}}

			settings := enabledSettings()
			mutate(&settings)

			var progress progressLog
			summary := f.orchestrator(settings, src).Run(context.Background(), progress.report)
			assert.True(t, summary.NoOp)
			assert.Equal(t, []float64{100}, progress.values)
			assert.Empty(t, src.calls)
		})
	}
}

func TestRunIsolatesUserFailures(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		f.lib.AddUser(models.User{ID: id, Username: id})
	}
	f.lib.AddEntry(models.LibraryEntry{ID: "m1", Kind: "Movie", ProviderIDs: map[string]string{"Tmdb": "1"}})

	src := &fakeSource{
		// "d" is not linked.
		accounts: []models.JellyseerrUser{
			{ID: 1, JellyfinUserID: "a"},
			{ID: 2, JellyfinUserID: "b"},
			{ID: 3, JellyfinUserID: "c"},
		},
		requests: map[int][]models.ExternalRequest{
			1: {{TmdbID: 1, MediaType: "movie"}},
			3: {{TmdbID: 1, MediaType: "movie"}},
		},
		failFor: map[int]error{2: errors.New("boom")},
	}

	var progress progressLog
	summary := f.orchestrator(enabledSettings(), src).Run(context.Background(), progress.report)

	assert.Equal(t, 4, summary.Users)
	assert.Equal(t, 2, summary.UsersSkipped)
	assert.Equal(t, 2, summary.Added)
	assert.Equal(t, []float64{25, 50, 75, 100, 100}, progress.values)
	assert.Equal(t, []int{1, 2, 3}, src.calls)
}

func TestRunWithoutJellyseerrUsersSkipsEveryone(t *testing.T) {
	f := newFixture(t)
	f.lib.AddUser(models.User{ID: "a", Username: "a"})
	src := &fakeSource{usersErr: errors.New("unreachable")}

	summary := f.orchestrator(enabledSettings(), src).Run(context.Background(), nil)
	assert.Equal(t, 1, summary.UsersSkipped)
	assert.Empty(t, src.calls)
}

func TestRunWithNoUsersReportsComplete(t *testing.T) {
	f := newFixture(t)
	var progress progressLog
	summary := f.orchestrator(enabledSettings(), &fakeSource{}).Run(context.Background(), progress.report)
	assert.Equal(t, 0, summary.Users)
	assert.Equal(t, []float64{100}, progress.values)
}

func TestRunStopsOnCancellationBetweenUsers(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"a", "b", "c"} {
		f.lib.AddUser(models.User{ID: id, Username: id})
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &fakeSource{
		accounts: []models.JellyseerrUser{
			{ID: 1, JellyfinUserID: "a"},
			{ID: 2, JellyfinUserID: "b"},
			{ID: 3, JellyfinUserID: "c"},
		},
		requests: map[int][]models.ExternalRequest{
			1: {{TmdbID: 5, MediaType: "movie"}},
		},
		onFetch: func(id int) {
			if id == 1 {
				cancel()
			}
		},
	}

	var progress progressLog
	summary := f.orchestrator(enabledSettings(), src).Run(ctx, progress.report)
	assert.True(t, summary.Cancelled)
	assert.Equal(t, []int{1}, src.calls)
	assert.Equal(t, 0, summary.AddedToPending)
	assert.NotEqual(t, float64(100), progress.last())
}

func TestRunStopsOnCancellationBetweenRequests(t *testing.T) {
	f := newFixture(t)
	f.lib.AddUser(models.User{ID: "a", Username: "a"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &cancellingReconciler{cancel: cancel}
	src := &fakeSource{
		accounts: []models.JellyseerrUser{{ID: 1, JellyfinUserID: "a"}},
		requests: map[int][]models.ExternalRequest{
			1: {
				{TmdbID: 1, MediaType: "movie"},
				{TmdbID: 2, MediaType: "movie"},
				{TmdbID: 3, MediaType: "movie"},
			},
		},
	}

	summary := requestsync.New(enabledSettings(), f.lib, rec, requestsync.WithSource(src), requestsync.WithLogger(f.logger)).
		Run(ctx, nil)
	assert.True(t, summary.Cancelled)
	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, 1, summary.Added)
}

type cancellingReconciler struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancellingReconciler) Reconcile(context.Context, models.User, models.ExternalRequest) models.ReconciliationOutcome {
	c.calls++
	c.cancel()
	return models.OutcomeAdded
}

func TestSummaryString(t *testing.T) {
	s := requestsync.Summary{Users: 2, Added: 1, AddedToPending: 3}
	assert.Equal(t, "1 added, 3 pending, 0 already in watchlist, 0 skipped across 2 users", s.String())
}
