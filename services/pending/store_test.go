package pending_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/models"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/pending"
)

func newStore(t *testing.T) (*pending.Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	store, err := pending.NewStore(fs, "/data")
	require.NoError(t, err)
	return store, fs
}

func TestAddTwiceStoresOneEntry(t *testing.T) {
	store, _ := newStore(t)
	item := models.PendingWatchlistItem{TmdbID: 20, MediaType: models.MediaTypeSeries}

	added, err := store.Add("user-1", item)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = store.Add("user-1", item)
	require.NoError(t, err)
	assert.False(t, added)

	items, err := store.Load("user-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 20, items[0].TmdbID)
	assert.False(t, items[0].RequestedAt.IsZero())
}

func TestDedupIgnoresMediaTypeCase(t *testing.T) {
	store, _ := newStore(t)

	added, err := store.Add("u", models.PendingWatchlistItem{TmdbID: 5, MediaType: "Movie"})
	require.NoError(t, err)
	require.True(t, added)

	added, err = store.Add("u", models.PendingWatchlistItem{TmdbID: 5, MediaType: "movie"})
	require.NoError(t, err)
	assert.False(t, added)

	// Same id, different type is a different request.
	added, err = store.Add("u", models.PendingWatchlistItem{TmdbID: 5, MediaType: "tv"})
	require.NoError(t, err)
	assert.True(t, added)
}

func TestDocumentsArePerUser(t *testing.T) {
	store, fs := newStore(t)
	item := models.PendingWatchlistItem{TmdbID: 7, MediaType: models.MediaTypeMovie, RequestedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}

	_, err := store.Add("alice", item)
	require.NoError(t, err)
	added, err := store.Add("bob", item)
	require.NoError(t, err)
	assert.True(t, added)

	exists, err := afero.Exists(fs, filepath.Join("/data", "users", "alice", "pending-watchlist.json"))
	require.NoError(t, err)
	assert.True(t, exists)

	bob, err := store.Load("bob")
	require.NoError(t, err)
	require.Len(t, bob, 1)
	assert.True(t, bob[0].RequestedAt.Equal(item.RequestedAt))
}

func TestLoadUnknownUserIsEmpty(t *testing.T) {
	store, _ := newStore(t)
	items, err := store.Load("nobody")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestLoadRejectsCorruptDocument(t *testing.T) {
	store, fs := newStore(t)
	require.NoError(t, afero.WriteFile(fs, "/data/users/u/pending-watchlist.json", []byte("{nope"), 0o644))

	_, err := store.Load("u")
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	_, err := pending.NewStore(afero.NewMemMapFs(), " ")
	assert.ErrorIs(t, err, pending.ErrStorageDirRequired)

	store, _ := newStore(t)
	_, err = store.Add("", models.PendingWatchlistItem{TmdbID: 1})
	assert.ErrorIs(t, err, pending.ErrUserIDRequired)
	_, err = store.Add("u", models.PendingWatchlistItem{})
	assert.ErrorIs(t, err, pending.ErrTmdbIDRequired)
}

func TestRejectsIDsOutsideUserDir(t *testing.T) {
	store, fs := newStore(t)
	for _, id := range []string{"..", ".", "/", " .. ", "a/b", `a\b`, "../escape"} {
		_, err := store.Add(id, models.PendingWatchlistItem{TmdbID: 1, MediaType: models.MediaTypeMovie})
		assert.ErrorIs(t, err, pending.ErrInvalidUserID, id)
		_, err = store.Load(id)
		assert.ErrorIs(t, err, pending.ErrInvalidUserID, id)
	}

	for _, path := range []string{"/data/users/pending-watchlist.json", "/data/pending-watchlist.json"} {
		exists, err := afero.Exists(fs, path)
		require.NoError(t, err)
		assert.False(t, exists, path)
	}
}

func TestSurvivesReopen(t *testing.T) {
	fs := afero.NewMemMapFs()
	first, err := pending.NewStore(fs, "/data")
	require.NoError(t, err)
	_, err = first.Add("u", models.PendingWatchlistItem{TmdbID: 11, MediaType: models.MediaTypeMovie})
	require.NoError(t, err)

	second, err := pending.NewStore(fs, "/data")
	require.NoError(t, err)
	added, err := second.Add("u", models.PendingWatchlistItem{TmdbID: 11, MediaType: models.MediaTypeMovie})
	require.NoError(t, err)
	assert.False(t, added)
}

// Repeated inserts of any sequence of (id, type) pairs store each distinct
// pair exactly once.
func TestPropertyNoDuplicates(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("one entry per (tmdbId, mediaType)", prop.ForAll(
		func(ids []int, series []bool) bool {
			store, err := pending.NewStore(afero.NewMemMapFs(), "/p")
			if err != nil {
				return false
			}
			distinct := map[string]bool{}
			for i, id := range ids {
				mt := models.MediaTypeMovie
				if i < len(series) && series[i] {
					mt = models.MediaTypeSeries
				}
				item := models.PendingWatchlistItem{TmdbID: id, MediaType: mt}
				added, err := store.Add("u", item)
				if err != nil {
					return false
				}
				if added == distinct[item.Key()] {
					return false
				}
				distinct[item.Key()] = true
			}
			items, err := store.Load("u")
			return err == nil && len(items) == len(distinct)
		},
		gen.SliceOf(gen.IntRange(1, 15)),
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}
