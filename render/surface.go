// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"image"
	"sync"

	"github.com/gogpu/nle"
)

// ErrSurfaceDisposed is returned when a lease is requested on a disposed
// surface.
var ErrSurfaceDisposed = errors.New("render: surface disposed")

// Surface is an off-screen pixel buffer shared between a renderer, which
// writes it, and a compositor, which reads it. Access goes through leases:
// one writer or any number of readers at a time. Reallocation (on a size
// change) and Dispose wait until every outstanding lease is released, and
// each reallocation bumps the generation.
//
// Surface is safe for concurrent use.
type Surface struct {
	mu       sync.Mutex
	cond     *sync.Cond
	img      *image.RGBA
	readers  int
	writing  bool
	disposed bool
	gen      uint64

	// area is the sub-rectangle holding drawn pixels.
	area image.Rectangle
}

// NewSurface returns an empty surface. The buffer is allocated by the first
// Begin.
func NewSurface() *Surface {
	s := &Surface{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Lease is a scoped usage of a Surface. Release must be called exactly once
// on every path; extra calls are ignored.
type Lease struct {
	s     *Surface
	img   *image.RGBA
	gen   uint64
	write bool
	once  sync.Once
}

// Image returns the leased buffer.
func (l *Lease) Image() *image.RGBA { return l.img }

// Generation returns the buffer generation the lease refers to.
func (l *Lease) Generation() uint64 { return l.gen }

// Area returns the drawn area recorded on the surface.
func (l *Lease) Area() image.Rectangle {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.s.area
}

// SetArea records the drawn area. Only write leases may set it.
func (l *Lease) SetArea(r image.Rectangle) {
	if !l.write {
		nle.Invariant("Lease.SetArea", "area set through a read lease")
	}
	l.s.mu.Lock()
	l.s.area = r.Intersect(l.img.Bounds())
	l.s.mu.Unlock()
}

// Release ends the usage and wakes waiters.
func (l *Lease) Release() {
	l.once.Do(func() {
		s := l.s
		s.mu.Lock()
		if l.write {
			s.writing = false
		} else {
			s.readers--
		}
		s.mu.Unlock()
		s.cond.Broadcast()
	})
}

// Begin starts a write lease on a buffer of the given size. It waits for
// other leases to finish; if the size differs from the current buffer the
// buffer is reallocated, which clears the recorded area. It fails fast when
// the surface is disposed.
func (s *Surface) Begin(width, height int) (*Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.disposed && (s.writing || s.readers > 0) {
		s.cond.Wait()
	}
	if s.disposed {
		return nil, ErrSurfaceDisposed
	}
	if s.img == nil || s.img.Rect.Dx() != width || s.img.Rect.Dy() != height {
		if s.img != nil {
			nle.Logger().Debug("render: surface resized",
				"from", s.img.Rect.Size(), "to", image.Pt(width, height), "generation", s.gen+1)
		}
		s.img = image.NewRGBA(image.Rect(0, 0, width, height))
		s.area = image.Rectangle{}
		s.gen++
	}
	s.writing = true
	return &Lease{s: s, img: s.img, gen: s.gen, write: true}, nil
}

// BeginRead starts a read lease on the current buffer. It waits for an
// in-flight write to finish and reports false when the surface is disposed
// or has never been drawn.
func (s *Surface) BeginRead() (*Lease, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.disposed && s.writing {
		s.cond.Wait()
	}
	if s.disposed || s.img == nil {
		return nil, false
	}
	s.readers++
	return &Lease{s: s, img: s.img, gen: s.gen}, true
}

// Generation returns the current buffer generation. It starts at zero and
// increments on every allocation.
func (s *Surface) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// InUse reports whether any lease is outstanding.
func (s *Surface) InUse() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writing || s.readers > 0
}

// Dispose marks the surface disposed, waits for outstanding leases and
// frees the buffer. New leases fail immediately. Dispose is idempotent.
func (s *Surface) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
	s.cond.Broadcast()
	for s.writing || s.readers > 0 {
		s.cond.Wait()
	}
	s.img = nil
	s.area = image.Rectangle{}
}
