package requestspage

import (
	"context"
	"sync"
	"time"
)

// DefaultPollInterval is used when no interval is configured.
const DefaultPollInterval = 30 * time.Second

// Ticker is the subset of time.Ticker the poll driver needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// PollDriver calls tick on every interval while gate allows it. Ticks run on
// the driver goroutine, so a slow tick delays the next one instead of
// overlapping it.
type PollDriver struct {
	interval  time.Duration
	gate      func() bool
	tick      func(ctx context.Context)
	newTicker func(time.Duration) Ticker

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPollDriver creates a stopped driver. A nil newTicker uses NewTimeTicker.
func NewPollDriver(interval time.Duration, gate func() bool, tick func(ctx context.Context), newTicker func(time.Duration) Ticker) *PollDriver {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if newTicker == nil {
		newTicker = NewTimeTicker
	}
	return &PollDriver{interval: interval, gate: gate, tick: tick, newTicker: newTicker}
}

// Start begins polling. Starting a running driver is a no-op.
func (d *PollDriver) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return
	}
	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	go d.loop(ctx, d.newTicker(d.interval), d.done)
}

// Stop halts polling and waits for an in-flight tick to return.
func (d *PollDriver) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the driver is started.
func (d *PollDriver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancel != nil
}

func (d *PollDriver) loop(ctx context.Context, t Ticker, done chan struct{}) {
	defer close(done)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			if d.gate == nil || d.gate() {
				d.tick(ctx)
			}
		}
	}
}
