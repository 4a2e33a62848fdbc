// Package workpool provides a bounded fork-join pool.
//
// A Pool runs a batch of n indexed tasks with at most Size of them in
// flight, waits for all of them, and returns every task error joined.
// No partial result is observable before the batch returns.
package workpool

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("workpool: closed")

// Pool is a bounded fork-join executor scoped to one search run.
type Pool struct {
	size int

	mu     sync.RWMutex // held shared by running batches, exclusively by Close
	closed bool
}

// New creates a pool running at most size tasks concurrently.
// If size <= 0, runtime.GOMAXPROCS(0) is used.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &Pool{size: size}
}

// Size returns the concurrency bound.
func (p *Pool) Size() int { return p.size }

// Run executes fn(ctx, i) for every i in [0, n) and waits for all of them.
// Sibling tasks are not cancelled when one fails; all errors are joined in
// index order once the batch completes.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	if n <= 0 {
		return nil
	}

	errs := make([]error, n)
	if p.size == 1 || n == 1 {
		for i := 0; i < n; i++ {
			errs[i] = fn(ctx, i)
		}
		return errors.Join(errs...)
	}

	var g errgroup.Group
	g.SetLimit(p.size)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			errs[i] = fn(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Close waits for running batches to finish and rejects new ones.
// It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

// Closed reports whether Close has been called.
func (p *Pool) Closed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}
