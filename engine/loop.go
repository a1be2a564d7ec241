// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/gogpu/nle"
)

// loopQueueSize bounds the number of posted tasks waiting to run.
const loopQueueSize = 64

// Loop is the coordination goroutine. Every mutation of a project and
// every prepare phase runs on it, in the order submitted.
//
// Loop is safe for concurrent use. Tasks must not call Invoke on their own
// loop.
type Loop struct {
	tasks     chan func()
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewLoop starts a coordination goroutine.
func NewLoop() *Loop {
	l := &Loop{
		tasks:   make(chan func(), loopQueueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.stopped)
	for {
		select {
		case fn := <-l.tasks:
			l.call(fn)
		case <-l.done:
			// Drain what was queued before Close.
			for {
				select {
				case fn := <-l.tasks:
					l.call(fn)
				default:
					return
				}
			}
		}
	}
}

// call runs fn, logging a panic instead of killing the loop. Invariant
// panics are re-raised.
func (l *Loop) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*nle.InvariantError); ok {
				panic(r)
			}
			nle.Logger().Error("engine: loop task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	fn()
}

// Post queues fn without waiting. It reports false when the loop is
// closed.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Invoke runs fn on the loop and waits for it to return. If ctx ends
// before fn starts, fn may still run later but Invoke returns ctx.Err().
func (l *Loop) Invoke(ctx context.Context, fn func()) error {
	finished := make(chan any, 1)
	ok := l.Post(func() {
		defer func() {
			r := recover()
			finished <- r
			if _, inv := r.(*nle.InvariantError); inv {
				panic(r)
			}
		}()
		fn()
	})
	if !ok {
		return ErrLoopClosed
	}
	select {
	case r := <-finished:
		if r != nil {
			return fmt.Errorf("engine: loop task panicked: %v", r)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks, runs the ones already queued and waits for
// the goroutine to exit. Close is idempotent.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.done) })
	<-l.stopped
}
