// Package requestspage drives the downloads and requests page: cached,
// filter-aware request fetching, stale-response protection, coalesced
// rendering and visibility-gated polling.
package requestspage

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/models"
)

// TabState is the navigation part of the page state.
type TabState struct {
	Filter     Filter
	Page       int
	TotalPages int
	Token      uint64
}

// Page owns the page state. Every request fetch captures the navigation
// token when it starts and its result is dropped if the token moved, so
// only the latest tab or page change reaches the screen.
type Page struct {
	coord    *Coordinator
	renderer Renderer
	render   *RenderScheduler
	poll     *PollDriver
	now      func() time.Time

	mu              sync.Mutex
	filter          Filter
	page            int
	totalPages      int
	token           uint64
	requests        []models.RequestView
	downloads       []models.QueueItem
	loading         bool
	visible         bool
	requestsEnabled bool

	bg sync.WaitGroup
}

type pageConfig struct {
	interval        time.Duration
	newTicker       func(time.Duration) Ticker
	now             func() time.Time
	requestsEnabled bool
}

// PageOption configures a Page.
type PageOption func(*pageConfig)

// WithPollInterval sets the refresh interval while visible.
func WithPollInterval(d time.Duration) PageOption {
	return func(c *pageConfig) { c.interval = d }
}

// WithTicker replaces the poll ticker.
func WithTicker(newTicker func(time.Duration) Ticker) PageOption {
	return func(c *pageConfig) { c.newTicker = newTicker }
}

// WithPageClock replaces time.Now for relative dates.
func WithPageClock(now func() time.Time) PageOption {
	return func(c *pageConfig) { c.now = now }
}

// WithRequestsEnabled toggles the requests section.
func WithRequestsEnabled(enabled bool) PageOption {
	return func(c *pageConfig) { c.requestsEnabled = enabled }
}

func NewPage(coord *Coordinator, renderer Renderer, frames FrameSource, opts ...PageOption) *Page {
	cfg := pageConfig{interval: DefaultPollInterval, now: time.Now, requestsEnabled: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Page{
		coord:           coord,
		renderer:        renderer,
		now:             cfg.now,
		filter:          FilterAll,
		page:            1,
		totalPages:      1,
		requestsEnabled: cfg.requestsEnabled,
	}
	p.render = NewRenderScheduler(frames, func() { p.renderer.Render(p.View()) })
	p.poll = NewPollDriver(cfg.interval, p.shouldPoll, func(ctx context.Context) { p.Load(ctx, false) }, cfg.newTicker)
	return p
}

// State returns the current tab, page and navigation token.
func (p *Page) State() TabState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return TabState{Filter: p.filter, Page: p.page, TotalPages: p.totalPages, Token: p.token}
}

func (p *Page) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

func (p *Page) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// View snapshots the page for rendering.
func (p *Page) View() View {
	p.mu.Lock()
	s := viewState{
		loading:         p.loading,
		requestsEnabled: p.requestsEnabled,
		filter:          p.filter,
		page:            p.page,
		totalPages:      p.totalPages,
		downloads:       append([]models.QueueItem(nil), p.downloads...),
		requests:        append([]models.RequestView(nil), p.requests...),
	}
	p.mu.Unlock()
	return buildView(s, p.now())
}

// Load refreshes downloads and the current requests page together. With
// clearCache set, cached pages are dropped and requests are refetched.
//
// The loading flag belongs to the latest navigation token: a load whose
// requests result is discarded leaves it to the navigation that replaced it.
func (p *Page) Load(ctx context.Context, clearCache bool) {
	if clearCache {
		p.coord.InvalidateCache()
	}

	p.mu.Lock()
	p.loading = true
	tok, f, page, enabled := p.token, p.filter, p.page, p.requestsEnabled
	p.mu.Unlock()
	p.render.Schedule()

	var (
		downloads []models.QueueItem
		res       Result
		wg        conc.WaitGroup
	)
	wg.Go(func() { downloads = p.coord.FetchDownloads(ctx) })
	if enabled {
		wg.Go(func() { res = p.coord.FetchRequests(ctx, f, page, clearCache) })
	}
	wg.Wait()

	p.mu.Lock()
	p.downloads = downloads
	if !enabled || p.applyLocked(tok, res) {
		p.loading = false
	}
	p.mu.Unlock()
	p.render.Schedule()
}

// Refresh reloads everything, bypassing the cache.
func (p *Page) Refresh(ctx context.Context) {
	p.Load(ctx, true)
}

// SelectFilter switches tabs and returns to page one. A fresh cached page
// is shown at once and revalidated in the background; otherwise the call
// waits for the fetch, and the page count is unknown until it lands.
func (p *Page) SelectFilter(ctx context.Context, f Filter) {
	p.mu.Lock()
	if f == p.filter {
		p.mu.Unlock()
		return
	}
	p.token++
	tok := p.token
	p.filter = f
	p.page = 1
	cached, hit := p.coord.Cached(f, 1)
	if hit {
		p.applyLocked(tok, cached)
		p.loading = false
	} else {
		p.totalPages = 1
		p.loading = true
	}
	p.mu.Unlock()
	p.render.Schedule()

	if hit {
		p.bg.Add(1)
		go func() {
			defer p.bg.Done()
			res := p.coord.FetchRequests(ctx, f, 1, true)
			if p.apply(tok, res) {
				p.render.Schedule()
			}
		}()
		return
	}

	res := p.coord.FetchRequests(ctx, f, 1, false)

	p.mu.Lock()
	if !p.applyLocked(tok, res) {
		p.mu.Unlock()
		return
	}
	p.loading = false
	p.mu.Unlock()
	p.render.Schedule()
}

// NextPage moves forward one page and waits for a fresh fetch of it. It
// reports false at the last page.
func (p *Page) NextPage(ctx context.Context) bool {
	return p.movePage(ctx, 1)
}

// PrevPage moves back one page. It reports false at the first page.
func (p *Page) PrevPage(ctx context.Context) bool {
	return p.movePage(ctx, -1)
}

func (p *Page) movePage(ctx context.Context, delta int) bool {
	p.mu.Lock()
	next := p.page + delta
	if next < 1 || next > p.totalPages {
		p.mu.Unlock()
		return false
	}
	p.token++
	tok, f := p.token, p.filter
	p.page = next
	p.mu.Unlock()

	res := p.coord.FetchRequests(ctx, f, next, true)

	p.mu.Lock()
	if !p.applyLocked(tok, res) {
		p.mu.Unlock()
		return true
	}
	p.loading = false
	p.mu.Unlock()
	p.render.Schedule()
	return true
}

// Show marks the page visible, loads it unless a load is running and starts
// polling. Showing a visible page is a no-op.
func (p *Page) Show(ctx context.Context) {
	p.mu.Lock()
	if p.visible {
		p.mu.Unlock()
		return
	}
	p.visible = true
	loading := p.loading
	p.mu.Unlock()

	if !loading {
		p.bg.Add(1)
		go func() {
			defer p.bg.Done()
			p.Load(ctx, false)
		}()
	}
	p.poll.Start(ctx)
}

// Hide stops polling. Hiding a hidden page is a no-op.
func (p *Page) Hide() {
	p.mu.Lock()
	if !p.visible {
		p.mu.Unlock()
		return
	}
	p.visible = false
	p.mu.Unlock()
	p.poll.Stop()
}

// Wait blocks until background loads and revalidations have finished.
func (p *Page) Wait() {
	p.bg.Wait()
}

// Close hides the page and waits for background work.
func (p *Page) Close() {
	p.Hide()
	p.Wait()
}

func (p *Page) shouldPoll() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible && !p.loading
}

func (p *Page) apply(tok uint64, res Result) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.applyLocked(tok, res)
}

// applyLocked stores a fetch result if no navigation happened since tok was
// taken. A degraded result clears the list but keeps the page count.
func (p *Page) applyLocked(tok uint64, res Result) bool {
	if tok != p.token {
		return false
	}
	p.requests = res.Requests
	if !res.Degraded {
		p.totalPages = max(res.TotalPages, 1)
	}
	return true
}
