package requestspage

import (
	"strconv"
	"sync"
	"time"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/models"
)

// CacheTTL is how long a fetched page stays usable.
const CacheTTL = 30 * time.Second

// CacheEntry is a raw server page, before client-side filtering.
type CacheEntry struct {
	Requests   []models.RequestView
	TotalPages int
	FetchedAt  time.Time
}

// Cache keeps request pages keyed by server query. Expiry is checked on
// read; nothing is evicted in the background.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]CacheEntry
}

// NewCache creates a cache. A nil clock uses time.Now.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = CacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{ttl: ttl, now: now, entries: make(map[string]CacheEntry)}
}

// CacheKey identifies the server query behind a tab and page. Coming soon
// always reads the unfiltered list from the start, so all of its pages
// share the unfiltered page-0 slot. It is kept apart from the "all" page-1
// slot because it fetches 100 items where "all" fetches one page of 20.
func CacheKey(f Filter, page int) string {
	if f == FilterComingSoon {
		page = 0
	}
	return f.APIFilter() + ":" + strconv.Itoa(page)
}

// Get returns the entry for a tab and page if it is younger than the TTL.
func (c *Cache) Get(f Filter, page int) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[CacheKey(f, page)]
	if !ok || c.now().Sub(entry.FetchedAt) >= c.ttl {
		return CacheEntry{}, false
	}
	return entry, true
}

// Put stores an entry, stamping it with the current time when unset.
func (c *Cache) Put(f Filter, page int, entry CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry.FetchedAt.IsZero() {
		entry.FetchedAt = c.now()
	}
	c.entries[CacheKey(f, page)] = entry
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]CacheEntry)
}
