// Package pending persists, per user, the requests that are not in the
// library yet.
//
// Each user has one JSON document. Writes are read-modify-write and are only
// serialised within this process; two overlapping sync runs in different
// processes can lose an insert for the same user.
package pending

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/models"
)

const documentName = "pending-watchlist.json"

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")
	ErrUserIDRequired     = errors.New("user id is required")
	ErrInvalidUserID      = errors.New("user id must be a single path element")
	ErrTmdbIDRequired     = errors.New("tmdb id is required")
)

// Store reads and writes pending watchlist documents.
type Store struct {
	mu  sync.Mutex
	fs  afero.Fs
	dir string
	now func() time.Time
}

// NewStore creates a store rooted at storageDir on the given filesystem.
func NewStore(fs afero.Fs, storageDir string) (*Store, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}
	if err := fs.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pending dir: %w", err)
	}
	return &Store{fs: fs, dir: storageDir, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Load returns the user's pending items in insertion order. A user without a
// document has no pending items.
func (s *Store) Load(userID string) ([]models.PendingWatchlistItem, error) {
	userID, err := cleanUserID(userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readLocked(userID)
	if err != nil {
		return nil, err
	}
	return doc.Items, nil
}

// Add appends item unless an entry with the same TMDB id and media type is
// already stored. It reports whether the item was written. A zero
// RequestedAt is stamped with the current time.
func (s *Store) Add(userID string, item models.PendingWatchlistItem) (bool, error) {
	userID, err := cleanUserID(userID)
	if err != nil {
		return false, err
	}
	if item.TmdbID == 0 {
		return false, ErrTmdbIDRequired
	}

	item.MediaType = item.MediaType.Normalize()
	if item.RequestedAt.IsZero() {
		item.RequestedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readLocked(userID)
	if err != nil {
		return false, err
	}

	key := item.Key()
	for _, existing := range doc.Items {
		if existing.Key() == key {
			return false, nil
		}
	}

	doc.Items = append(doc.Items, item)
	if err := s.writeLocked(userID, doc); err != nil {
		return false, err
	}
	return true, nil
}

// cleanUserID trims the id and rejects anything that would not name exactly
// one directory under users/.
func cleanUserID(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrUserIDRequired
	}
	if userID == "." || userID == ".." || strings.ContainsAny(userID, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidUserID, userID)
	}
	return userID, nil
}

func (s *Store) path(userID string) string {
	return filepath.Join(s.dir, "users", userID, documentName)
}

func (s *Store) readLocked(userID string) (models.PendingWatchlist, error) {
	data, err := afero.ReadFile(s.fs, s.path(userID))
	if errors.Is(err, os.ErrNotExist) {
		return models.PendingWatchlist{Items: []models.PendingWatchlistItem{}}, nil
	}
	if err != nil {
		return models.PendingWatchlist{}, fmt.Errorf("read pending watchlist: %w", err)
	}
	if len(data) == 0 {
		return models.PendingWatchlist{Items: []models.PendingWatchlistItem{}}, nil
	}

	var doc models.PendingWatchlist
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.PendingWatchlist{}, fmt.Errorf("decode pending watchlist: %w", err)
	}
	if doc.Items == nil {
		doc.Items = []models.PendingWatchlistItem{}
	}
	for i := range doc.Items {
		doc.Items[i].MediaType = doc.Items[i].MediaType.Normalize()
	}
	return doc, nil
}

func (s *Store) writeLocked(userID string, doc models.PendingWatchlist) error {
	path := s.path(userID)
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create pending user dir: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode pending watchlist: %w", err)
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("write pending watchlist temp file: %w", err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace pending watchlist file: %w", err)
	}
	return nil
}
