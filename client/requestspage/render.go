package requestspage

import (
	"sync"
	"time"
)

// FrameSource runs callbacks at the next display frame.
type FrameSource interface {
	RequestFrame(fn func())
}

// RenderScheduler coalesces render requests so that at most one paint is
// pending per frame. The paint reads state when it runs, not when it was
// scheduled.
type RenderScheduler struct {
	frames FrameSource
	paint  func()

	mu      sync.Mutex
	pending bool
}

func NewRenderScheduler(frames FrameSource, paint func()) *RenderScheduler {
	return &RenderScheduler{frames: frames, paint: paint}
}

// Schedule requests a paint at the next frame.
func (s *RenderScheduler) Schedule() {
	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return
	}
	s.pending = true
	s.mu.Unlock()

	s.frames.RequestFrame(func() {
		s.mu.Lock()
		s.pending = false
		s.mu.Unlock()
		s.paint()
	})
}

// TickerFrames is a FrameSource driven by a fixed-rate ticker, for terminals
// and other surfaces without a native frame clock.
type TickerFrames struct {
	mu     sync.Mutex
	queue  []func()
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

// NewTickerFrames starts a frame loop at the given interval.
func NewTickerFrames(interval time.Duration) *TickerFrames {
	if interval <= 0 {
		interval = time.Second / 30
	}
	f := &TickerFrames{ticker: time.NewTicker(interval), done: make(chan struct{})}
	go f.loop()
	return f
}

func (f *TickerFrames) RequestFrame(fn func()) {
	f.mu.Lock()
	f.queue = append(f.queue, fn)
	f.mu.Unlock()
}

func (f *TickerFrames) loop() {
	for {
		select {
		case <-f.done:
			return
		case <-f.ticker.C:
			f.mu.Lock()
			queue := f.queue
			f.queue = nil
			f.mu.Unlock()
			for _, fn := range queue {
				fn()
			}
		}
	}
}

// Close stops the frame loop. Pending callbacks are dropped.
func (f *TickerFrames) Close() {
	f.once.Do(func() {
		f.ticker.Stop()
		close(f.done)
	})
}
