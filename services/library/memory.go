package library

import (
	"context"
	"sort"
	"sync"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/models"
)

// Memory is an in-process implementation of Index, WatchStates and Users.
type Memory struct {
	mu      sync.RWMutex
	entries []models.LibraryEntry
	users   map[string]models.User
	states  map[string]map[string]models.WatchState
	writes  int
}

var (
	_ Index       = (*Memory)(nil)
	_ WatchStates = (*Memory)(nil)
	_ Users       = (*Memory)(nil)
)

// NewMemory returns an empty in-memory library.
func NewMemory() *Memory {
	return &Memory{
		users:  make(map[string]models.User),
		states: make(map[string]map[string]models.WatchState),
	}
}

// AddEntry indexes a library entry.
func (m *Memory) AddEntry(entry models.LibraryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

// AddUser registers a user. Every known entry gets an empty watch state for
// the user when it is first read, mirroring how the host lazily creates data.
func (m *Memory) AddUser(user models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	if _, ok := m.states[user.ID]; !ok {
		m.states[user.ID] = make(map[string]models.WatchState)
	}
}

// Seed stores a watch state without counting it as a write.
func (m *Memory) Seed(userID, itemID string, state models.WatchState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	perUser, ok := m.states[userID]
	if !ok {
		perUser = make(map[string]models.WatchState)
		m.states[userID] = perUser
	}
	perUser[itemID] = state
}

// Writes returns how many times SetUserWatchState persisted a state.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

func (m *Memory) ItemsWithProviderID(_ context.Context, kind ItemKind, provider string) ([]models.LibraryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.LibraryEntry, 0, len(m.entries))
	for _, entry := range m.entries {
		if entry.Kind != string(kind) {
			continue
		}
		if _, ok := entry.ProviderID(provider); ok {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (m *Memory) UserWatchState(_ context.Context, userID, itemID string) (*models.WatchState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	perUser, ok := m.states[userID]
	if !ok {
		return nil, nil
	}
	if state, ok := perUser[itemID]; ok {
		return &state, nil
	}
	if !m.hasEntryLocked(itemID) {
		return nil, nil
	}
	return &models.WatchState{}, nil
}

func (m *Memory) SetUserWatchState(_ context.Context, userID, itemID string, state models.WatchState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	perUser, ok := m.states[userID]
	if !ok {
		perUser = make(map[string]models.WatchState)
		m.states[userID] = perUser
	}
	perUser[itemID] = state
	m.writes++
	return nil
}

func (m *Memory) ListUsers(_ context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (m *Memory) hasEntryLocked(itemID string) bool {
	for _, entry := range m.entries {
		if entry.ID == itemID {
			return true
		}
	}
	return false
}
