package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrPanicked wraps a panic recovered from the refresh function.
var ErrPanicked = errors.New("refresh panicked")

// Func performs one refresh attempt. It owns the success and failure side
// effects; the Coordinator only guarantees it never runs twice at once.
type Func func(ctx context.Context) error

// Coordinator is a single-flight guard for session refresh.
//
// Every caller of Ensure during an in-flight attempt is queued and receives
// that attempt's outcome, in registration order, once it is known.
type Coordinator struct {
	run     Func
	timeout time.Duration

	mu         sync.Mutex
	inFlight   bool
	waiters    []chan error
	epoch      uint64
	generation uint64
	lastErr    error
	attempts   uint64
}

// NewCoordinator creates a Coordinator around run. timeout bounds each
// attempt; zero means no bound beyond the caller-independent context.
func NewCoordinator(run Func, timeout time.Duration) *Coordinator {
	return &Coordinator{
		run:     run,
		timeout: timeout,
	}
}

// Epoch returns the number of successful refreshes so far.
func (c *Coordinator) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Generation returns the number of finished attempts, successful or not.
// Callers record it before sending a request and hand it back to Ensure on
// auth failure.
func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Attempts returns how many refresh attempts have been started.
func (c *Coordinator) Attempts() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// InFlight reports whether an attempt is running.
func (c *Coordinator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Waiting returns the number of callers queued on the current attempt.
func (c *Coordinator) Waiting() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// Ensure makes sure the session is fresher than seenGeneration.
//
// If an attempt finished after seenGeneration was observed and none is
// running, Ensure returns that attempt's outcome without starting another.
// Otherwise it joins the running attempt or starts one. The attempt runs
// detached from ctx: cancelling ctx only stops this caller from waiting.
func (c *Coordinator) Ensure(ctx context.Context, seenGeneration uint64) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	if !c.inFlight && c.generation != seenGeneration {
		err := c.lastErr
		c.mu.Unlock()
		return err
	}
	ch := make(chan error, 1)
	c.waiters = append(c.waiters, ch)
	if !c.inFlight {
		c.inFlight = true
		c.attempts++
		go c.execute(context.WithoutCancel(ctx))
	}
	c.mu.Unlock()

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) execute(ctx context.Context) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	err := c.invoke(ctx)

	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.inFlight = false
	c.generation++
	c.lastErr = err
	if err == nil {
		c.epoch++
	}
	c.mu.Unlock()

	// Channels are buffered, so release never blocks on a departed waiter.
	for _, w := range waiters {
		w <- err
	}
}

func (c *Coordinator) invoke(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()
	if c.run == nil {
		return errors.New("refresh func not configured")
	}
	return c.run(ctx)
}
