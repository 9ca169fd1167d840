// Package negotiation drives the live negotiation detail view: it polls the
// negotiation, submits offers and counter-offers, and accepts the latest one.
package negotiation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/healthrepublic/republic/internal/api"
	"github.com/healthrepublic/republic/internal/log"
	"github.com/healthrepublic/republic/internal/poll"
	"github.com/healthrepublic/republic/internal/session"
)

// Backend is the part of the API client the detail view calls.
type Backend interface {
	NegotiationDetail(ctx context.Context, token string, id int64) (*api.Negotiation, error)
	SubmitSupplierOffer(ctx context.Context, token string, id int64, in api.OfferInput) (*api.OfferResponse, error)
	SubmitCollectiveCounter(ctx context.Context, token string, id int64, in api.OfferInput) (*api.OfferResponse, error)
	AcceptLatestOffer(ctx context.Context, token string, id int64) (*api.Negotiation, error)
}

// View is a snapshot of the detail screen.
type View struct {
	ID          int64
	Negotiation *api.Negotiation
	// Err is the last load error. The previous negotiation is kept.
	Err     error
	Loading bool
	// Changed is false when a poll returned the same negotiation as before.
	Changed bool

	Submitting bool
	SubmitErr  error
	Evaluation *api.Evaluation
	Form       OfferForm
}

// Rounds returns the negotiation's rounds ordered by round number. The
// stored slice is left as the server sent it.
func (v View) Rounds() []api.Round {
	if v.Negotiation == nil {
		return nil
	}
	return SortedRounds(v.Negotiation.Rounds)
}

// SortedRounds returns a copy of rounds ordered by round number.
func SortedRounds(rounds []api.Round) []api.Round {
	out := make([]api.Round, len(rounds))
	copy(out, rounds)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RoundNumber < out[j].RoundNumber
	})
	return out
}

// Option configures a Detail
type Option func(*Detail)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(dt *Detail) {
		if d > 0 {
			dt.interval = d
		}
	}
}

// WithTicker replaces the poll ticker, mainly for tests.
func WithTicker(f poll.TickerFactory) Option {
	return func(dt *Detail) {
		dt.ticker = f
	}
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(dt *Detail) {
		dt.logger = l
	}
}

// Detail owns the request state of one negotiation's detail view.
type Detail struct {
	backend  Backend
	tokens   session.TokenSource
	id       int64
	interval time.Duration
	ticker   poll.TickerFactory
	logger   *log.Logger

	mu      sync.Mutex
	view    View
	closed  bool
	sub     *poll.Subscription[*api.Negotiation]
	out     chan View
	fwdDone chan struct{}
}

// NewDetail creates a detail controller. Nothing is fetched until Watch or
// Reload is called.
func NewDetail(backend Backend, tokens session.TokenSource, id int64, opts ...Option) *Detail {
	d := &Detail{
		backend:  backend,
		tokens:   tokens,
		id:       id,
		interval: poll.DefaultInterval,
		view:     View{ID: id, Loading: true},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = log.OrDefault(d.logger).With("component", "negotiation", "negotiation_id", id)
	return d
}

// ID returns the negotiation id.
func (d *Detail) ID() int64 {
	return d.id
}

// Snapshot returns the current view.
func (d *Detail) Snapshot() View {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.view
}

// Rounds returns the current rounds ordered by round number.
func (d *Detail) Rounds() []api.Round {
	return d.Snapshot().Rounds()
}

// Watch starts polling and returns a channel of views. It fetches at once
// and then every interval. An unread view is replaced by a newer one, and
// the channel closes after Close. Calling Watch again returns the same
// channel.
func (d *Detail) Watch(ctx context.Context) <-chan View {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.out != nil {
		return d.out
	}
	d.out = make(chan View, 1)
	if d.closed {
		close(d.out)
		return d.out
	}

	opts := []poll.Option{
		poll.WithInterval(d.interval),
		poll.WithFingerprint(),
		poll.WithLogger(d.logger),
	}
	if d.ticker != nil {
		opts = append(opts, poll.WithTicker(d.ticker))
	}
	d.sub = poll.Subscribe(ctx, d.fetch, opts...)
	d.fwdDone = make(chan struct{})
	go d.forward(d.sub, d.fwdDone)

	return d.out
}

func (d *Detail) forward(sub *poll.Subscription[*api.Negotiation], done chan struct{}) {
	defer close(done)

	for u := range sub.Updates() {
		d.mu.Lock()
		d.apply(u.Value, u.Err)
		d.view.Changed = u.Changed
		d.publishLocked()
		d.mu.Unlock()
	}

	d.mu.Lock()
	close(d.out)
	d.sub = nil
	d.mu.Unlock()
}

// Refresh asks a running watch to fetch now.
func (d *Detail) Refresh() {
	d.mu.Lock()
	sub := d.sub
	d.mu.Unlock()
	if sub != nil {
		sub.Refresh()
	}
}

// Close stops polling and waits for it to finish. No fetch is issued after
// Close returns, including from Reload.
func (d *Detail) Close() {
	d.mu.Lock()
	d.closed = true
	sub, done := d.sub, d.fwdDone
	d.mu.Unlock()

	if sub != nil {
		sub.Stop()
		<-done
	}
}

// Reload fetches the negotiation once and applies the result.
func (d *Detail) Reload(ctx context.Context) error {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return nil
	}

	n, err := d.fetch(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return err
	}
	d.apply(n, err)
	d.view.Changed = true
	d.publishLocked()
	return err
}

// SubmitOffer posts a supplier offer. Invalid input is rejected before any
// request. After the offer is recorded the detail is fetched again and the
// form is cleared.
func (d *Detail) SubmitOffer(ctx context.Context, form OfferForm) (*api.OfferResponse, error) {
	return d.submit(ctx, form, d.backend.SubmitSupplierOffer)
}

// SubmitCounter posts a collective counter-offer.
func (d *Detail) SubmitCounter(ctx context.Context, form OfferForm) (*api.OfferResponse, error) {
	return d.submit(ctx, form, d.backend.SubmitCollectiveCounter)
}

type postFunc func(ctx context.Context, token string, id int64, in api.OfferInput) (*api.OfferResponse, error)

func (d *Detail) submit(ctx context.Context, form OfferForm, post postFunc) (*api.OfferResponse, error) {
	in, err := ParseOffer(form)
	if err != nil {
		d.update(func(v *View) {
			v.Form = form
			v.SubmitErr = err
		})
		return nil, err
	}

	d.update(func(v *View) {
		v.Form = form
		v.Submitting = true
		v.SubmitErr = nil
	})

	resp, err := post(ctx, d.tokens.AccessToken(), d.id, in)
	if err != nil {
		d.logger.Debug("offer rejected", "error", err)
		d.update(func(v *View) {
			v.Submitting = false
			v.SubmitErr = err
		})
		return nil, err
	}

	eval := resp.Evaluation
	d.update(func(v *View) {
		v.Evaluation = &eval
	})

	rerr := d.Reload(ctx)
	d.update(func(v *View) {
		v.Submitting = false
		if rerr == nil {
			v.Form = OfferForm{}
		}
	})
	return resp, nil
}

// Accept agrees to the latest offer and refreshes the detail.
func (d *Detail) Accept(ctx context.Context) (*api.Negotiation, error) {
	d.update(func(v *View) {
		v.Submitting = true
		v.SubmitErr = nil
	})

	n, err := d.backend.AcceptLatestOffer(ctx, d.tokens.AccessToken(), d.id)
	if err != nil {
		d.update(func(v *View) {
			v.Submitting = false
			v.SubmitErr = err
		})
		return nil, err
	}

	d.update(func(v *View) {
		v.Negotiation = n
	})
	_ = d.Reload(ctx)
	d.update(func(v *View) {
		v.Submitting = false
	})
	return n, nil
}

func (d *Detail) fetch(ctx context.Context) (*api.Negotiation, error) {
	return d.backend.NegotiationDetail(ctx, d.tokens.AccessToken(), d.id)
}

// apply records a fetch result. d.mu must be held.
func (d *Detail) apply(n *api.Negotiation, err error) {
	d.view.Loading = false
	if err != nil {
		d.view.Err = err
		return
	}
	d.view.Negotiation = n
	d.view.Err = nil
}

func (d *Detail) update(fn func(*View)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&d.view)
	d.publishLocked()
}

// publishLocked offers the current view to a watcher, replacing an unread
// one. d.mu must be held.
func (d *Detail) publishLocked() {
	if d.out == nil || d.sub == nil {
		return
	}
	v := d.view
	for {
		select {
		case d.out <- v:
			return
		default:
		}
		select {
		case <-d.out:
		default:
		}
	}
}
