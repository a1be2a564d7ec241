package parallel

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// Creation
// =============================================================================

func TestWorkerPool_Create(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{"explicit", 4, 4},
		{"zero uses GOMAXPROCS", 0, runtime.GOMAXPROCS(0)},
		{"negative uses GOMAXPROCS", -5, runtime.GOMAXPROCS(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewWorkerPool(tt.workers)
			defer pool.Close()
			if pool.Workers() != tt.want {
				t.Errorf("Workers() = %d, want %d", pool.Workers(), tt.want)
			}
			if !pool.IsRunning() {
				t.Error("pool should be running after creation")
			}
		})
	}
}

// =============================================================================
// Run / Submit
// =============================================================================

func TestWorkerPool_RunConcurrent(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := pool.Run(context.Background(), func() error {
				counter.Add(1)
				return nil
			}); err != nil {
				t.Errorf("Run: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := counter.Load(); got != 100 {
		t.Errorf("counter = %d, want 100", got)
	}
}

func TestWorkerPool_SubmitDrainsOnClose(t *testing.T) {
	pool := NewWorkerPool(2)
	var counter atomic.Int64
	for range 20 {
		pool.Submit(func() { counter.Add(1) })
	}
	pool.Close()
	if got := counter.Load(); got != 20 {
		t.Errorf("counter after Close = %d, want 20", got)
	}
	pool.Close() // idempotent
	if pool.IsRunning() {
		t.Error("IsRunning() after Close = true")
	}
}

// =============================================================================
// Run
// =============================================================================

func TestWorkerPool_RunReturnsError(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	want := errors.New("draw failed")
	if err := pool.Run(context.Background(), func() error { return want }); !errors.Is(err, want) {
		t.Errorf("Run() error = %v, want %v", err, want)
	}
	if err := pool.Run(context.Background(), func() error { return nil }); err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
}

func TestWorkerPool_RunRecoversPanic(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()

	cause := errors.New("boom")
	err := pool.Run(context.Background(), func() error { panic(cause) })
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("Run() error = %v, want *PanicError", err)
	}
	if !errors.Is(err, cause) || len(pe.Stack) == 0 {
		t.Errorf("PanicError = %+v, want wrapped cause with stack", pe)
	}

	// The worker survives the panic.
	if err := pool.Run(context.Background(), func() error { return nil }); err != nil {
		t.Errorf("Run() after panic error = %v", err)
	}
}

func TestWorkerPool_RunCancelledBeforeQueue(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()

	// Occupy the only worker and fill its lane.
	release := make(chan struct{})
	started := make(chan struct{})
	pool.Submit(func() { close(started); <-release })
	<-started
	for range cap(pool.lanes[0]) {
		pool.Submit(func() {})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	var ran atomic.Bool
	err := pool.Run(ctx, func() error { ran.Store(true); return nil })
	close(release)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want DeadlineExceeded", err)
	}
	if ran.Load() {
		t.Error("cancelled task ran")
	}
}

func TestWorkerPool_RunAfterClose(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Close()
	if err := pool.Run(context.Background(), func() error { return nil }); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Run() error = %v, want ErrPoolClosed", err)
	}
}

func BenchmarkWorkerPool_Run(b *testing.B) {
	pool := NewWorkerPool(runtime.GOMAXPROCS(0))
	defer pool.Close()
	ctx := context.Background()

	b.ReportAllocs()
	for b.Loop() {
		_ = pool.Run(ctx, func() error { return nil })
	}
}
