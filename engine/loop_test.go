// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoop_InvokeRunsInOrder(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	var got []int
	for i := range 5 {
		if !l.Post(func() { got = append(got, i) }) {
			t.Fatal("Post on open loop returned false")
		}
	}
	if err := l.Invoke(context.Background(), func() { got = append(got, 5) }); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("tasks ran as %v", got)
		}
	}
	if len(got) != 6 {
		t.Fatalf("ran %d tasks, want 6", len(got))
	}
}

func TestLoop_InvokePanicBecomesError(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	err := l.Invoke(context.Background(), func() { panic("boom") })
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("Invoke error = %v, want panic message", err)
	}
	// The loop survives.
	if err := l.Invoke(context.Background(), func() {}); err != nil {
		t.Fatalf("Invoke after panic: %v", err)
	}
}

func TestLoop_InvokeContext(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	block := make(chan struct{})
	l.Post(func() { <-block })
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Invoke(ctx, func() {}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Invoke on busy loop = %v, want deadline exceeded", err)
	}
	close(block)
}

func TestLoop_Close(t *testing.T) {
	l := NewLoop()
	ran := false
	l.Post(func() { ran = true })
	l.Close()
	l.Close()

	if !ran {
		t.Error("queued task dropped by Close")
	}
	if l.Post(func() {}) {
		t.Error("Post after Close returned true")
	}
	if err := l.Invoke(context.Background(), func() {}); !errors.Is(err, ErrLoopClosed) {
		t.Errorf("Invoke after Close = %v, want ErrLoopClosed", err)
	}
}
