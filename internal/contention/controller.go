// Package contention wraps the workload write with a client-side
// serialization strategy, so the harness can compare letting concurrent
// writers race for the engine's internal lock against externally ordering
// them through a single process-wide mutex.
package contention

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/r4victor/walbench/internal/config"
	"github.com/r4victor/walbench/internal/session"
	"github.com/r4victor/walbench/internal/workload"
)

// WriteFunc is the unit of work being wrapped.
type WriteFunc func(ctx context.Context, sess *session.Session, payload []byte) (time.Duration, error)

// Token is the process-wide serialization primitive shared by all workers of
// a run when the mutex strategy is active. It is constructed explicitly and
// injected, never reached through a package-level singleton, so concurrent
// test runs cannot accidentally share one.
type Token struct {
	mu sync.Mutex
}

// NewToken creates a serialization token.
func NewToken() *Token {
	return &Token{}
}

// Controller wraps a write with the chosen serialization strategy. It also
// tracks critical-section occupancy so tests can verify mutual exclusion.
type Controller struct {
	strategy config.Serialization
	token    *Token
	write    WriteFunc

	inCritical  int64
	maxObserved int64
}

// NewController creates a controller for the given strategy. token may be nil
// when the strategy is none.
func NewController(strategy config.Serialization, token *Token) *Controller {
	return &Controller{
		strategy: strategy,
		token:    token,
		write:    workload.Write,
	}
}

// NewControllerWithWrite creates a controller with a custom write function.
// Used by tests to observe the critical section without a live database.
func NewControllerWithWrite(strategy config.Serialization, token *Token, write WriteFunc) *Controller {
	return &Controller{
		strategy: strategy,
		token:    token,
		write:    write,
	}
}

// Write executes one wrapped write. Under the mutex strategy the token is
// held for the duration of the write and released on every exit path,
// including panics; a stuck token would deadlock every subsequent worker.
func (c *Controller) Write(ctx context.Context, sess *session.Session, payload []byte) (time.Duration, error) {
	if c.strategy == config.SerializationMutex {
		c.token.mu.Lock()
		defer c.token.mu.Unlock()
	}

	n := atomic.AddInt64(&c.inCritical, 1)
	for {
		max := atomic.LoadInt64(&c.maxObserved)
		if n <= max || atomic.CompareAndSwapInt64(&c.maxObserved, max, n) {
			break
		}
	}
	defer atomic.AddInt64(&c.inCritical, -1)

	return c.write(ctx, sess, payload)
}

// Strategy returns the controller's serialization strategy.
func (c *Controller) Strategy() config.Serialization {
	return c.strategy
}

// MaxObservedConcurrency returns the highest number of writes ever observed
// inside the wrapped section at once. Under the mutex strategy this must
// never exceed 1.
func (c *Controller) MaxObservedConcurrency() int64 {
	return atomic.LoadInt64(&c.maxObserved)
}
