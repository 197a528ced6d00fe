// Package execution turns a composed case into a runnable action with a
// uniform asynchronous result, whether the member under test returns
// synchronously, returns an error channel, or returns something to
// Wait on.
package execution

import (
	"context"
	"sync"
)

// Completion is the eventual outcome of one invocation.
type Completion struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Completed returns a completion that already finished with err, which
// may be nil.
func Completed(err error) *Completion {
	c := newCompletion()
	c.finish(err)
	return c
}

func (c *Completion) finish(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.done)
	})
}

// Done is closed when the completion finishes.
func (c *Completion) Done() <-chan struct{} { return c.done }

// Err returns the outcome once Done is closed, nil before.
func (c *Completion) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Wait blocks until the completion finishes or ctx is done, and returns
// the outcome or the context error.
func (c *Completion) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
