// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render defines the drawing contract the editing engine needs from a
// rendering backend, plus a software implementation of it.
//
// # Canvas
//
// A Canvas is an off-screen drawable with a hierarchical save/restore stack,
// an affine transform, opacity layers, and rectangle, image, and text
// drawing with a Paint (colour, alpha, filter quality). ImageCanvas
// implements it over *image.RGBA using golang.org/x/image/draw.
//
// # Surfaces
//
// A Surface is a reusable pixel buffer guarded by usage counting. Renderers
// Begin a write lease before drawing and readers BeginRead before
// compositing; a resize or Dispose waits until every lease is released, so a
// buffer is never freed while a render is still reading or writing it.
//
//	lease, err := s.Begin(1920, 1080)
//	if err != nil {
//	    return err
//	}
//	defer lease.Release()
//	c := render.NewImageCanvas(lease.Image())
//
// # Text
//
// Faces load TrueType/OpenType data once and serve both drawing (x/image
// font) and measurement (go-text shaping with bidi run detection).
package render
