package poll

import (
	"sync"
	"time"
)

// Ticker is the part of time.Ticker a subscription uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory builds a Ticker for an interval.
type TickerFactory func(d time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// RealTicker wraps time.NewTicker.
func RealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// ManualTicker fires only when Tick is called. Use it to drive a
// subscription step by step.
type ManualTicker struct {
	c chan time.Time

	mu       sync.Mutex
	interval time.Duration
	stopped  bool
}

// NewManualTicker returns a ticker that never fires on its own.
func NewManualTicker() *ManualTicker {
	return &ManualTicker{c: make(chan time.Time)}
}

// Factory returns a TickerFactory that always hands out t.
func (t *ManualTicker) Factory() TickerFactory {
	return func(d time.Duration) Ticker {
		t.mu.Lock()
		t.interval = d
		t.mu.Unlock()
		return t
	}
}

func (t *ManualTicker) C() <-chan time.Time { return t.c }

func (t *ManualTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

// Tick delivers one tick, blocking until the loop receives it. It returns
// false if the ticker was stopped or timeout elapsed first.
func (t *ManualTicker) Tick(timeout time.Duration) bool {
	if t.Stopped() {
		return false
	}
	select {
	case t.c <- time.Now():
		return true
	case <-time.After(timeout):
		return false
	}
}

// Stopped reports whether Stop was called.
func (t *ManualTicker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Interval returns the interval the subscription asked for.
func (t *ManualTicker) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}
