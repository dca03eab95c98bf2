// Package engine provides the single-threaded event loop every pet component
// is scheduled on, plus the fire-once and repeating task primitives.
// Callbacks run to completion one at a time, so component state needs no locks.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrStopped is returned by Do once the loop has been stopped.
var ErrStopped = errors.New("event loop stopped")

// Task is a handle to a scheduled callback.
type Task interface {
	// Stop cancels the task. It reports whether the call prevented a
	// pending fire; stopping an already fired or stopped task returns false.
	Stop() bool
}

// Scheduler is the pair of timing primitives components depend on.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Task
	Every(d time.Duration, fn func()) Task
}

// Loop drives callbacks on one goroutine. Timers fire into the queue; callers
// on other goroutines use Do to run work on the loop.
type Loop struct {
	queue    chan func()
	done     chan struct{}
	stopOnce sync.Once

	Ticks   atomic.Uint64 // callbacks executed (monotonic)
	Running atomic.Bool
}

// NewLoop creates an idle loop. Call Run to start processing.
func NewLoop() *Loop {
	return &Loop{
		queue: make(chan func(), 256),
		done:  make(chan struct{}),
	}
}

// Now returns the wall clock.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Run processes callbacks until Stop is called or ctx is cancelled. A
// cancelled ctx also stops the loop so later Do calls fail fast.
func (l *Loop) Run(ctx context.Context) {
	l.Running.Store(true)
	defer l.Running.Store(false)
	defer l.Stop()
	slog.Info("event loop started")

	for {
		select {
		case fn := <-l.queue:
			l.Ticks.Add(1)
			l.exec(fn)
		case <-ctx.Done():
			slog.Info("event loop stopped", "reason", ctx.Err(), "ticks", l.Ticks.Load())
			return
		case <-l.done:
			slog.Info("event loop stopped", "ticks", l.Ticks.Load())
			return
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("loop callback panicked", "panic", r)
		}
	}()
	fn()
}

// Stop halts the loop. Pending callbacks are dropped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

func (l *Loop) post(fn func()) bool {
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop goroutine and waits for it to return.
// Must not be called from a loop callback.
func (l *Loop) Do(fn func()) error {
	finished := make(chan struct{})
	ok := l.post(func() {
		defer close(finished)
		fn()
	})
	if !ok {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

type loopTask struct {
	stopped atomic.Bool
	timer   *time.Timer
	ticker  *time.Ticker
	quit    chan struct{}
}

func (t *loopTask) Stop() bool {
	if t.stopped.Swap(true) {
		return false
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	if t.ticker != nil {
		t.ticker.Stop()
		close(t.quit)
	}
	return true
}

// AfterFunc schedules fn to run once on the loop after d.
// A fire already queued when Stop is called is discarded.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Task {
	t := &loopTask{}
	t.timer = time.AfterFunc(d, func() {
		l.post(func() {
			if t.stopped.Swap(true) {
				return
			}
			fn()
		})
	})
	return t
}

// Every schedules fn to run on the loop every d until stopped.
func (l *Loop) Every(d time.Duration, fn func()) Task {
	if d <= 0 {
		d = time.Millisecond
	}
	t := &loopTask{
		ticker: time.NewTicker(d),
		quit:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-t.ticker.C:
				l.post(func() {
					if !t.stopped.Load() {
						fn()
					}
				})
			case <-t.quit:
				return
			case <-l.done:
				return
			}
		}
	}()
	return t
}
