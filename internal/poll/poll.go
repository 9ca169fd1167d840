// Package poll runs a fetch function on an interval until stopped and
// delivers the latest result on a channel.
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/healthrepublic/republic/internal/log"
)

// DefaultInterval is how often a subscription refetches.
const DefaultInterval = 10 * time.Second

// Fetch loads one value.
type Fetch[T any] func(ctx context.Context) (T, error)

// Update is one fetch result.
type Update[T any] struct {
	Value T
	Err   error
	// Changed is false when fingerprinting is on and Value matches the
	// previous successful fetch. Errors are always reported as changed.
	Changed bool
	Seq     uint64
	At      time.Time
}

type options struct {
	interval    time.Duration
	newTicker   TickerFactory
	immediate   bool
	fingerprint bool
	logger      *log.Logger
}

// Option configures a Subscription
type Option func(*options)

// WithInterval sets the refetch interval.
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithTicker replaces the time.Ticker source.
func WithTicker(f TickerFactory) Option {
	return func(o *options) {
		o.newTicker = f
	}
}

// WithImmediate controls whether the first fetch runs at subscribe time.
func WithImmediate(on bool) Option {
	return func(o *options) {
		o.immediate = on
	}
}

// WithFingerprint marks unchanged results with Changed=false.
func WithFingerprint() Option {
	return func(o *options) {
		o.fingerprint = true
	}
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Subscription owns one polling goroutine.
type Subscription[T any] struct {
	fetch   Fetch[T]
	opts    options
	ctx     context.Context
	cancel  context.CancelFunc
	updates chan Update[T]
	refresh chan struct{}
	done    chan struct{}
	stop    sync.Once

	// owned by the loop goroutine
	seq  uint64
	last string
}

// Subscribe starts polling fetch. The subscription stops when ctx is done
// or Stop is called.
func Subscribe[T any](ctx context.Context, fetch Fetch[T], opts ...Option) *Subscription[T] {
	o := options{
		interval:  DefaultInterval,
		newTicker: RealTicker,
		immediate: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = log.OrDefault(o.logger).With("component", "poll")

	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription[T]{
		fetch:   fetch,
		opts:    o,
		ctx:     ctx,
		cancel:  cancel,
		updates: make(chan Update[T], 1),
		refresh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Updates delivers results. An unread result is replaced by a newer one.
// The channel is closed once the subscription stops.
func (s *Subscription[T]) Updates() <-chan Update[T] {
	return s.updates
}

// Refresh asks for a fetch now. It is a no-op once stopped.
func (s *Subscription[T]) Refresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// Stop cancels the subscription and waits for its goroutine to exit. No
// fetch starts after Stop returns. Stop is idempotent.
func (s *Subscription[T]) Stop() {
	s.stop.Do(s.cancel)
	<-s.done
}

// Done is closed when the loop has exited.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription[T]) run() {
	defer close(s.done)
	defer close(s.updates)

	ticker := s.opts.newTicker(s.opts.interval)
	defer ticker.Stop()

	if s.opts.immediate {
		s.poll()
	}

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C():
			s.poll()
		case <-s.refresh:
			s.poll()
		}
	}
}

func (s *Subscription[T]) poll() {
	// A tick and a cancel can be ready together; cancel wins.
	if s.ctx.Err() != nil {
		return
	}

	value, err := s.fetch(s.ctx)
	if s.ctx.Err() != nil {
		return
	}

	s.seq++
	u := Update[T]{Value: value, Err: err, Changed: true, Seq: s.seq, At: time.Now()}

	if err != nil {
		// s.last keeps the last good value so a recovery with the same
		// data is not reported as a change.
		s.opts.logger.Debug("fetch failed", "seq", s.seq, "error", err)
	} else if s.opts.fingerprint {
		sum, ferr := Fingerprint(value)
		if ferr != nil {
			s.opts.logger.Debug("fingerprint failed", "error", ferr)
		} else {
			u.Changed = sum != s.last
			s.last = sum
		}
	}

	s.publish(u)
}

// publish replaces any unread update with u.
func (s *Subscription[T]) publish(u Update[T]) {
	for {
		select {
		case s.updates <- u:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}
