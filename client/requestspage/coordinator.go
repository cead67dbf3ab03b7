package requestspage

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/models"
)

const (
	// PageSize is the number of requests per server page.
	PageSize = 20
	// ComingSoonTake is how many unfiltered requests coming soon scans.
	ComingSoonTake = 100
)

// Result is a filtered page ready to display. Degraded marks a failed fetch
// whose empty Requests should not replace the known page count.
type Result struct {
	Requests   []models.RequestView
	TotalPages int
	Degraded   bool
}

// Coordinator sits between the page and the API, serving pages from the
// cache and collapsing identical concurrent fetches.
type Coordinator struct {
	api    API
	cache  *Cache
	now    func() time.Time
	logger *log.Logger
	group  singleflight.Group
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithClock replaces time.Now for date filtering.
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) { c.now = now }
}

// WithLogger sets the logger for degraded fetches.
func WithLogger(logger *log.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.logger = logger }
}

// NewCoordinator creates a coordinator. A nil cache gets a default one
// sharing the coordinator's clock.
func NewCoordinator(api API, cache *Cache, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{api: api, now: time.Now, logger: log.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if cache == nil {
		cache = NewCache(CacheTTL, c.now)
	}
	c.cache = cache
	return c
}

// Cached returns the filtered cached page without fetching.
func (c *Coordinator) Cached(f Filter, page int) (Result, bool) {
	entry, ok := c.cache.Get(f, page)
	if !ok {
		return Result{}, false
	}
	return c.filtered(f, entry), true
}

// InvalidateCache drops every cached page.
func (c *Coordinator) InvalidateCache() {
	c.cache.InvalidateAll()
}

// FetchRequests returns the page for a tab, from cache unless force is set.
// Failures degrade to an empty result instead of an error.
func (c *Coordinator) FetchRequests(ctx context.Context, f Filter, page int, force bool) Result {
	if page < 1 {
		page = 1
	}
	if !force {
		if res, ok := c.Cached(f, page); ok {
			return res
		}
	}

	fetch := func() (any, error) {
		take, skip := PageSize, (page-1)*PageSize
		if f == FilterComingSoon {
			take, skip = ComingSoonTake, 0
		}
		resp, err := c.api.Requests(ctx, take, skip, f.APIFilter())
		if err != nil {
			return nil, err
		}
		entry := CacheEntry{Requests: resp.Requests, TotalPages: max(resp.TotalPages, 1)}
		c.cache.Put(f, page, entry)
		return entry, nil
	}

	var (
		v   any
		err error
	)
	if force {
		v, err = fetch()
	} else {
		v, err, _ = c.group.Do(CacheKey(f, page), fetch)
	}
	if err != nil {
		c.logger.Printf("[requests-page] Failed to fetch requests: %v", err)
		return Result{Requests: []models.RequestView{}, TotalPages: 1, Degraded: true}
	}
	return c.filtered(f, v.(CacheEntry))
}

// FetchDownloads returns the current queue, or nothing if the fetch fails.
func (c *Coordinator) FetchDownloads(ctx context.Context) []models.QueueItem {
	resp, err := c.api.Downloads(ctx)
	if err != nil {
		c.logger.Printf("[requests-page] Failed to fetch downloads: %v", err)
		return []models.QueueItem{}
	}
	if resp.Items == nil {
		return []models.QueueItem{}
	}
	return resp.Items
}

func (c *Coordinator) filtered(f Filter, entry CacheEntry) Result {
	total := entry.TotalPages
	if f == FilterComingSoon || total < 1 {
		total = 1
	}
	return Result{Requests: ApplyFilters(entry.Requests, f, c.now()), TotalPages: total}
}
