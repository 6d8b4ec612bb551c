package orchestrator

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many scan units run at once across the whole process.
// Waiting callers are served in FIFO order.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// NewPool returns a Pool with size slots. Sizes below one are raised to one.
func NewPool(size int) *Pool {
	size = max(size, 1)

	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size returns the number of slots.
func (p *Pool) Size() int { return p.size }

// Submit blocks until a slot is free, then runs fn on a new goroutine and
// returns. The slot is released when fn returns. If ctx ends first fn is not
// run and ctx's error is returned.
func (p *Pool) Submit(ctx context.Context, fn func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err //nolint: wrapcheck
	}

	go func() {
		defer p.sem.Release(1)
		fn()
	}()

	return nil
}
