// Package parallel runs render tasks on a fixed set of worker goroutines.
package parallel

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// ErrPoolClosed is returned by Run when the pool no longer accepts work.
var ErrPoolClosed = errors.New("parallel: pool closed")

// PanicError carries a panic recovered from a task run through Run.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("parallel: task panicked: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// WorkerPool runs track render tasks. Every worker owns a buffered lane;
// an idle worker takes tasks from the other lanes before it blocks, so a
// slow track does not hold back the tracks queued behind it.
//
// WorkerPool is safe for concurrent use.
type WorkerPool struct {
	lanes   []chan func()
	quit    chan struct{}
	stopped sync.WaitGroup
	open    atomic.Bool
}

// NewWorkerPool starts n workers, or GOMAXPROCS workers when n <= 0.
func NewWorkerPool(n int) *WorkerPool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	depth := max(4*n, 8)
	p := &WorkerPool{
		lanes: make([]chan func(), n),
		quit:  make(chan struct{}),
	}
	for i := range p.lanes {
		p.lanes[i] = make(chan func(), depth)
	}
	p.open.Store(true)
	p.stopped.Add(n)
	for i := range n {
		go p.work(i)
	}
	return p
}

func (p *WorkerPool) work(self int) {
	defer p.stopped.Done()
	own := p.lanes[self]
	for {
		task, ok := p.next(self)
		if !ok {
			select {
			case task = <-own:
			case <-p.quit:
				// Finish whatever was queued before Close.
				for {
					select {
					case task = <-own:
						run(task)
					default:
						return
					}
				}
			}
		}
		run(task)
	}
}

// next returns a queued task without blocking, trying the worker's own
// lane first and then the others in order.
func (p *WorkerPool) next(self int) (func(), bool) {
	n := len(p.lanes)
	for k := range n {
		select {
		case task := <-p.lanes[(self+k)%n]:
			return task, true
		default:
		}
	}
	return nil, false
}

func run(task func()) {
	if task != nil {
		task()
	}
}

// idlest picks the lane with the fewest queued tasks.
func (p *WorkerPool) idlest() chan func() {
	best := p.lanes[0]
	for _, lane := range p.lanes[1:] {
		if len(lane) < len(best) {
			best = lane
		}
	}
	return best
}

// Run queues fn and waits for its result. A panic in fn comes back as a
// *PanicError. If ctx ends before fn is queued, Run returns ctx.Err() and
// fn never runs; a queued fn always runs to completion.
func (p *WorkerPool) Run(ctx context.Context, fn func() error) error {
	if !p.open.Load() {
		return ErrPoolClosed
	}
	result := make(chan error, 1)
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				result <- &PanicError{Value: r, Stack: debug.Stack()}
			}
		}()
		result <- fn()
	}
	select {
	case p.idlest() <- task:
		return <-result
	case <-ctx.Done():
		return ctx.Err()
	case <-p.quit:
		return ErrPoolClosed
	}
}

// Submit queues fn without waiting. It does nothing once the pool is
// closed.
func (p *WorkerPool) Submit(fn func()) {
	if fn == nil || !p.open.Load() {
		return
	}
	select {
	case p.idlest() <- fn:
	case <-p.quit:
	}
}

// Close stops accepting work, lets the workers finish queued tasks and
// waits for them to exit. Repeated calls are no-ops.
func (p *WorkerPool) Close() {
	if p.open.CompareAndSwap(true, false) {
		close(p.quit)
		p.stopped.Wait()
	}
}

// Workers returns the number of worker goroutines.
func (p *WorkerPool) Workers() int { return len(p.lanes) }

// IsRunning reports whether the pool still accepts work.
func (p *WorkerPool) IsRunning() bool { return p.open.Load() }
