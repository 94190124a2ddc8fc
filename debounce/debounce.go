package debounce

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultDelay is the window that absorbs rapid-fire calls before execution.
const DefaultDelay = 300 * time.Millisecond

// Sentinel errors for debouncer operations.
var (
	// ErrCancelled is delivered to every waiter of a call that was cancelled
	// by Cleanup before it started.
	ErrCancelled = errors.New("debounce: call cancelled before execution")

	// ErrClosed is returned by Run after Cleanup.
	ErrClosed = errors.New("debounce: debouncer closed")

	// ErrPanic is delivered to every waiter when fn panics.
	ErrPanic = errors.New("debounce: call panicked")
)

// Config configures a Debouncer.
type Config struct {
	// Delay is how long a new call waits before executing. Zero uses
	// DefaultDelay; a negative value executes immediately.
	Delay time.Duration
}

// Debouncer coalesces calls that share a key into one execution. All
// callers sharing a key observe the same outcome.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: a caller's ctx only bounds that caller's wait; the execution
//   itself runs on a context detached from cancellation.
// - Errors: execution errors are delivered unchanged to every sharer.
type Debouncer[T any] struct {
	delay time.Duration

	mu      sync.Mutex
	group   singleflight.Group
	pending map[string]*call
	closed  bool
}

// call is one scheduled or running execution. A key maps to a call exactly
// while the singleflight group holds that key; both change under mu.
type call struct {
	cancel    chan struct{}
	started   bool
	cancelled bool
}

// New creates a Debouncer.
func New[T any](config Config) *Debouncer[T] {
	delay := config.Delay
	if delay == 0 {
		delay = DefaultDelay
	}
	if delay < 0 {
		delay = 0
	}
	return &Debouncer[T]{
		delay:   delay,
		pending: make(map[string]*call),
	}
}

// Run executes fn for key, or joins the call already pending for key without
// invoking fn. joined reports whether this caller joined an existing call.
func (d *Debouncer[T]) Run(ctx context.Context, key string, fn func(context.Context) (T, error)) (result T, joined bool, err error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return result, false, ErrClosed
	}

	c, joined := d.pending[key]
	if !joined {
		c = &call{cancel: make(chan struct{})}
		d.pending[key] = c
	}
	execCtx := context.WithoutCancel(ctx)
	ch := d.group.DoChan(key, func() (any, error) {
		return d.execute(execCtx, key, c, fn)
	})
	d.mu.Unlock()

	select {
	case res := <-ch:
		if res.Err != nil {
			return result, joined, res.Err
		}
		v, _ := res.Val.(T)
		return v, joined, nil
	case <-ctx.Done():
		return result, joined, ctx.Err()
	}
}

func (d *Debouncer[T]) execute(ctx context.Context, key string, c *call, fn func(context.Context) (T, error)) (any, error) {
	defer d.settle(key, c)

	if d.delay > 0 {
		timer := time.NewTimer(d.delay)
		select {
		case <-timer.C:
		case <-c.cancel:
			timer.Stop()
			return nil, ErrCancelled
		}
	}

	d.mu.Lock()
	if c.cancelled {
		d.mu.Unlock()
		return nil, ErrCancelled
	}
	c.started = true
	d.mu.Unlock()

	return invoke(ctx, fn)
}

// invoke runs fn on the singleflight goroutine, where an unrecovered panic
// would take down the process instead of reaching the waiters.
func invoke[T any](ctx context.Context, fn func(context.Context) (T, error)) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn(ctx)
}

// settle removes the registry entry so a later call with the same key
// executes afresh. Forget keeps the singleflight group in step.
func (d *Debouncer[T]) settle(key string, c *call) {
	d.mu.Lock()
	if d.pending[key] == c {
		delete(d.pending, key)
		d.group.Forget(key)
	}
	d.mu.Unlock()
}

// Pending returns the number of scheduled or running calls.
func (d *Debouncer[T]) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Cleanup cancels every call that has not started yet and rejects new
// calls. Calls already executing run to completion so their waiters are
// never left unresolved. Safe to call more than once.
func (d *Debouncer[T]) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	for _, c := range d.pending {
		if c.started || c.cancelled {
			continue
		}
		c.cancelled = true
		close(c.cancel)
	}
}
