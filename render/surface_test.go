// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"image"
	"sync/atomic"
	"testing"
	"time"
)

func TestSurfaceBeginAllocates(t *testing.T) {
	s := NewSurface()
	if _, ok := s.BeginRead(); ok {
		t.Fatal("BeginRead() on unallocated surface should fail")
	}
	l, err := s.Begin(16, 9)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if got := l.Image().Bounds(); got != image.Rect(0, 0, 16, 9) {
		t.Errorf("Image().Bounds() = %v", got)
	}
	if l.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", l.Generation())
	}
	l.SetArea(image.Rect(-5, 2, 100, 4))
	l.Release()
	l.Release() // idempotent

	l2, err := s.Begin(16, 9)
	if err != nil {
		t.Fatal(err)
	}
	if l2.Generation() != 1 {
		t.Errorf("same size Begin() bumped generation to %d", l2.Generation())
	}
	if got := l2.Area(); got != image.Rect(0, 2, 16, 4) {
		t.Errorf("Area() = %v, want clamped (0,2)-(16,4)", got)
	}
	l2.Release()

	l3, _ := s.Begin(32, 18)
	defer l3.Release()
	if l3.Generation() != 2 || !l3.Area().Empty() {
		t.Errorf("resize: generation %d area %v", l3.Generation(), l3.Area())
	}
}

func TestSurfaceResizeWaitsForReaders(t *testing.T) {
	s := NewSurface()
	w, _ := s.Begin(4, 4)
	w.Release()

	r, ok := s.BeginRead()
	if !ok {
		t.Fatal("BeginRead() failed")
	}
	var resized atomic.Bool
	done := make(chan struct{})
	go func() {
		l, err := s.Begin(8, 8)
		if err == nil {
			resized.Store(true)
			l.Release()
		}
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	if resized.Load() {
		t.Fatal("surface resized while a read lease was outstanding")
	}
	if r.Image().Bounds().Dx() != 4 {
		t.Fatal("reader buffer changed under it")
	}
	r.Release()
	<-done
	if !resized.Load() {
		t.Error("resize did not proceed after release")
	}
}

func TestSurfaceReadWaitsForWriter(t *testing.T) {
	s := NewSurface()
	w, _ := s.Begin(4, 4)
	got := make(chan uint64)
	go func() {
		r, ok := s.BeginRead()
		if !ok {
			got <- 0
			return
		}
		got <- r.Generation()
		r.Release()
	}()
	select {
	case <-got:
		t.Fatal("BeginRead() returned while writing")
	case <-time.After(20 * time.Millisecond):
	}
	w.Release()
	if gen := <-got; gen != 1 {
		t.Errorf("reader generation = %d, want 1", gen)
	}
}

func TestSurfaceDispose(t *testing.T) {
	s := NewSurface()
	l, _ := s.Begin(4, 4)
	disposed := make(chan struct{})
	go func() {
		s.Dispose()
		close(disposed)
	}()
	select {
	case <-disposed:
		t.Fatal("Dispose() returned with an outstanding lease")
	case <-time.After(20 * time.Millisecond):
	}
	if l.Image() == nil {
		t.Fatal("buffer freed under lease")
	}
	l.Release()
	<-disposed

	if _, err := s.Begin(4, 4); !errors.Is(err, ErrSurfaceDisposed) {
		t.Errorf("Begin() after Dispose error = %v, want ErrSurfaceDisposed", err)
	}
	if _, ok := s.BeginRead(); ok {
		t.Error("BeginRead() after Dispose succeeded")
	}
	s.Dispose()
}
