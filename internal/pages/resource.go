// Package pages holds the request state and form handling behind each
// screen, independent of how the screen is drawn.
package pages

import (
	"context"
	"sync"
)

// Status is a resource's request state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Snapshot is a point-in-time copy of a Resource.
type Snapshot[T any] struct {
	Status Status
	Data   T
	Err    error
}

// Loading reports whether a request is in flight.
func (s Snapshot[T]) Loading() bool { return s.Status == StatusLoading }

// Resource tracks one remote value. While a reload is in flight the previous
// data stays available. Only the newest load is applied, and nothing is
// applied after Close.
type Resource[T any] struct {
	mu     sync.Mutex
	status Status
	data   T
	err    error
	gen    uint64
	closed bool
}

// Load runs fetch and records its result. It returns fetch's error, or nil
// when the result was discarded.
func (r *Resource[T]) Load(ctx context.Context, fetch func(context.Context) (T, error)) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.gen++
	gen := r.gen
	r.status = StatusLoading
	r.mu.Unlock()

	data, err := fetch(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || gen != r.gen {
		return nil
	}
	if err != nil {
		r.status = StatusFailed
		r.err = err
		return err
	}
	r.status = StatusReady
	r.data = data
	r.err = nil
	return nil
}

// Snapshot returns the current state.
func (r *Resource[T]) Snapshot() Snapshot[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot[T]{Status: r.status, Data: r.data, Err: r.err}
}

// Close discards any result that arrives from now on.
func (r *Resource[T]) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// Closed reports whether Close was called.
func (r *Resource[T]) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
