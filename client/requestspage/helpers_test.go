package requestspage_test

import (
	"context"
	"sync"
	"time"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/client/requestspage"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/models"
)

var testNow = time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)

type requestCall struct {
	Take, Skip int
	Filter     string
}

type fakeAPI struct {
	mu        sync.Mutex
	calls     []requestCall
	queueHits int
	respond   func(ctx context.Context, c requestCall) (models.RequestsPage, error)
	queue     models.QueueResponse
	queueErr  error
	queueDone chan struct{}
}

func (f *fakeAPI) Requests(ctx context.Context, take, skip int, filter string) (models.RequestsPage, error) {
	c := requestCall{Take: take, Skip: skip, Filter: filter}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	respond := f.respond
	f.mu.Unlock()
	if respond == nil {
		return models.RequestsPage{Requests: []models.RequestView{{Title: filter + "-item"}}, TotalPages: 1}, nil
	}
	return respond(ctx, c)
}

func (f *fakeAPI) Downloads(ctx context.Context) (models.QueueResponse, error) {
	f.mu.Lock()
	f.queueHits++
	q, err, done := f.queue, f.queueErr, f.queueDone
	f.mu.Unlock()
	if done != nil {
		defer func() { done <- struct{}{} }()
	}
	return q, err
}

func (f *fakeAPI) Calls() []requestCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]requestCall(nil), f.calls...)
}

// manualFrames runs frame callbacks only when flushed.
type manualFrames struct {
	mu    sync.Mutex
	queue []func()
}

func (m *manualFrames) RequestFrame(fn func()) {
	m.mu.Lock()
	m.queue = append(m.queue, fn)
	m.mu.Unlock()
}

func (m *manualFrames) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *manualFrames) Flush() {
	m.mu.Lock()
	queue := m.queue
	m.queue = nil
	m.mu.Unlock()
	for _, fn := range queue {
		fn()
	}
}

type recorder struct {
	mu    sync.Mutex
	views []requestspage.View
}

func (r *recorder) Render(v requestspage.View) {
	r.mu.Lock()
	r.views = append(r.views, v)
	r.mu.Unlock()
}

func (r *recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func (r *recorder) Last() requestspage.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.views) == 0 {
		return requestspage.View{}
	}
	return r.views[len(r.views)-1]
}

type fakeTicker struct {
	c       chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{c: make(chan time.Time), stopped: make(chan struct{})}
}

func (t *fakeTicker) C() <-chan time.Time { return t.c }
func (t *fakeTicker) Stop()               { t.once.Do(func() { close(t.stopped) }) }

func titles(cards []requestspage.RequestCard) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Title)
	}
	return out
}

func clock() func() time.Time {
	return func() time.Time { return testNow }
}
