package loop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrStopped is returned when work is submitted to a stopped loop
var ErrStopped = errors.New("event loop stopped")

// Loop runs submitted callbacks one at a time on a single goroutine.
// All presentation state is owned by the loop, so callbacks never need locking.
type Loop struct {
	ctx    context.Context
	cancel context.CancelFunc
	events chan func()
	wg     sync.WaitGroup
}

// New creates a new event loop
func New(ctx context.Context) *Loop {
	ctx, cancel := context.WithCancel(ctx)
	return &Loop{
		ctx:    ctx,
		cancel: cancel,
		events: make(chan func(), 256),
	}
}

// Start begins processing callbacks
func (l *Loop) Start() {
	slog.Info("Starting event loop")
	l.wg.Add(1)
	go l.run()
}

// Stop stops the loop and waits for the running callback to return.
// Callbacks still queued are dropped.
func (l *Loop) Stop() {
	slog.Info("Stopping event loop")
	l.cancel()
	l.wg.Wait()
	slog.Info("Event loop stopped")
}

// Post queues fn for execution on the loop. It returns false if the loop is stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.ctx.Done():
		return false
	default:
	}

	select {
	case l.events <- fn:
		return true
	case <-l.ctx.Done():
		return false
	}
}

// Do runs fn on the loop and waits for it to finish
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrStopped
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ctx.Done():
		return ErrStopped
	}
}

func (l *Loop) run() {
	defer l.wg.Done()

	for {
		select {
		case <-l.ctx.Done():
			return
		case fn := <-l.events:
			l.dispatch(fn)
		}
	}
}

// dispatch runs a single callback; a panicking handler must not take the loop down
func (l *Loop) dispatch(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Event handler panicked", "panic", r)
		}
	}()
	fn()
}
