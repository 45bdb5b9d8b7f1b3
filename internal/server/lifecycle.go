// Package server provides run lifecycle management: signal-driven
// cooperative cancellation and ordered resource cleanup.
package server

import (
	"context"
	"io"
	"os/signal"
	"sync"
	"syscall"
)

// Lifecycle coordinates cancellation and cleanup for one benchmark run.
// A termination signal cancels the run context; the matrix runner reacts
// between scenarios, so the in-flight scenario drains instead of being
// killed mid-write. A second signal falls through to the default handler.
type Lifecycle struct {
	closers   []io.Closer
	closersMu sync.Mutex
	closeOnce sync.Once
}

// NewLifecycle creates an empty lifecycle.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{}
}

// SignalContext returns a context canceled on SIGTERM or SIGINT.
func (l *Lifecycle) SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
}

// RegisterCloser adds a closer to be called during Close.
// Closers are called in reverse order of registration (LIFO).
func (l *Lifecycle) RegisterCloser(closer io.Closer) {
	l.closersMu.Lock()
	defer l.closersMu.Unlock()
	l.closers = append(l.closers, closer)
}

// Close closes all registered closers in reverse order, returning the first
// error encountered. Close is idempotent.
func (l *Lifecycle) Close() error {
	var firstErr error
	l.closeOnce.Do(func() {
		l.closersMu.Lock()
		closers := l.closers
		l.closersMu.Unlock()

		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	return firstErr
}

// CloserFunc is an adapter to allow ordinary functions to be used as io.Closer.
type CloserFunc func() error

// Close calls the underlying function.
func (f CloserFunc) Close() error {
	return f()
}
