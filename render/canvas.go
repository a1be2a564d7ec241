// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// Canvas is the drawing contract used by clips and effects. All coordinates
// are transformed by the current matrix.
//
// Save and SaveLayer return the save count before the call, suitable for
// RestoreToCount.
type Canvas interface {
	Save() int
	// SaveLayer is like Save, but draws until the matching Restore go to an
	// offscreen layer that is then composited with the given opacity.
	SaveLayer(alpha float64) int
	Restore()
	RestoreToCount(count int)
	SaveCount() int

	Transform() Matrix
	SetTransform(m Matrix)
	// Concat pre-multiplies m: it applies before the current transform.
	Concat(m Matrix)

	// Clear fills the current layer with c, ignoring the transform.
	Clear(c color.Color)
	DrawRect(r Rect, p Paint)
	DrawImage(img image.Image, x, y float64, p Paint)
	DrawImageRect(img image.Image, src image.Rectangle, dst Rect, p Paint)
	// DrawText draws text with its baseline origin at (x, y).
	DrawText(text string, face *Face, x, y float64, p Paint)

	Flush() error
	Bounds() image.Rectangle
}

type canvasState struct {
	matrix Matrix
	// Set only for SaveLayer entries.
	prevTarget *image.RGBA
	layer      *image.RGBA
	alpha      float64
}

// ImageCanvas is a software Canvas drawing into an *image.RGBA.
//
// ImageCanvas is not safe for concurrent use.
type ImageCanvas struct {
	base   *image.RGBA
	target *image.RGBA
	matrix Matrix
	stack  []canvasState
}

// NewImageCanvas returns a canvas drawing into dst.
func NewImageCanvas(dst *image.RGBA) *ImageCanvas {
	return &ImageCanvas{base: dst, target: dst, matrix: Identity()}
}

// Image returns the destination image.
func (c *ImageCanvas) Image() *image.RGBA { return c.base }

// Target returns the image drawing currently goes to: the innermost open
// layer, or the destination.
func (c *ImageCanvas) Target() *image.RGBA { return c.target }

// Bounds returns the destination bounds.
func (c *ImageCanvas) Bounds() image.Rectangle { return c.base.Bounds() }

// Save pushes the current transform.
func (c *ImageCanvas) Save() int {
	n := len(c.stack)
	c.stack = append(c.stack, canvasState{matrix: c.matrix})
	return n
}

// SaveLayer pushes the current transform and redirects drawing to a new
// transparent layer.
func (c *ImageCanvas) SaveLayer(alpha float64) int {
	n := len(c.stack)
	layer := image.NewRGBA(c.base.Bounds())
	c.stack = append(c.stack, canvasState{
		matrix:     c.matrix,
		prevTarget: c.target,
		layer:      layer,
		alpha:      alpha,
	})
	c.target = layer
	return n
}

// Restore pops one save entry. Restoring a layer composites it onto the
// target below. Restore on an empty stack does nothing.
func (c *ImageCanvas) Restore() {
	n := len(c.stack)
	if n == 0 {
		return
	}
	st := c.stack[n-1]
	c.stack = c.stack[:n-1]
	c.matrix = st.matrix
	if st.layer != nil {
		var mask image.Image
		if st.alpha < 1 {
			mask = image.NewUniform(color.Alpha16{A: Alpha16(st.alpha)})
		}
		b := st.layer.Bounds()
		draw.DrawMask(st.prevTarget, b, st.layer, b.Min, mask, image.Point{}, draw.Over)
		c.target = st.prevTarget
	}
}

// RestoreToCount pops entries until SaveCount equals count.
func (c *ImageCanvas) RestoreToCount(count int) {
	for len(c.stack) > max(count, 0) {
		c.Restore()
	}
}

// SaveCount returns the number of saved entries.
func (c *ImageCanvas) SaveCount() int { return len(c.stack) }

// Transform returns the current transform.
func (c *ImageCanvas) Transform() Matrix { return c.matrix }

// SetTransform replaces the current transform.
func (c *ImageCanvas) SetTransform(m Matrix) { c.matrix = m }

// Concat applies m before the current transform.
func (c *ImageCanvas) Concat(m Matrix) { c.matrix = c.matrix.Multiply(m) }

// Clear fills the current layer with col.
func (c *ImageCanvas) Clear(col color.Color) {
	draw.Draw(c.target, c.target.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

// DrawRect fills r with p.Color.
func (c *ImageCanvas) DrawRect(r Rect, p Paint) {
	if r.IsEmpty() || p.Color == nil {
		return
	}
	src := image.NewUniform(p.Color)
	m := c.matrix
	if m.B == 0 && m.D == 0 {
		// Axis aligned: fill the device rectangle directly.
		dr := m.TransformRect(r)
		dst := image.Rect(
			int(math.Round(dr.Left)), int(math.Round(dr.Top)),
			int(math.Round(dr.Right)), int(math.Round(dr.Bottom)),
		).Intersect(c.target.Bounds())
		if dst.Empty() {
			return
		}
		var mask image.Image
		if am := p.alphaMask(); am != nil {
			mask = am
		}
		draw.DrawMask(c.target, dst, src, image.Point{}, mask, image.Point{}, draw.Over)
		return
	}
	s2d := m.Multiply(Translate(r.Left, r.Top)).Multiply(Scale(r.Width(), r.Height()))
	c.transform(src, image.Rect(0, 0, 1, 1), s2d, p)
}

// DrawImage draws img with its bounds' minimum point at (x, y).
func (c *ImageCanvas) DrawImage(img image.Image, x, y float64, p Paint) {
	b := img.Bounds()
	c.DrawImageRect(img, b, RectXYWH(x, y, float64(b.Dx()), float64(b.Dy())), p)
}

// DrawImageRect draws the src region of img scaled into dst.
func (c *ImageCanvas) DrawImageRect(img image.Image, src image.Rectangle, dst Rect, p Paint) {
	if src.Empty() || dst.IsEmpty() {
		return
	}
	s2d := c.matrix.
		Multiply(Translate(dst.Left, dst.Top)).
		Multiply(Scale(dst.Width()/float64(src.Dx()), dst.Height()/float64(src.Dy()))).
		Multiply(Translate(-float64(src.Min.X), -float64(src.Min.Y)))
	c.transform(img, src, s2d, p)
}

// DrawText draws text with face. The glyphs are rasterised untransformed and
// then drawn through the current matrix.
func (c *ImageCanvas) DrawText(text string, face *Face, x, y float64, p Paint) {
	if text == "" || face == nil || p.Color == nil {
		return
	}
	glyphs, origin := face.rasterize(text, p.Color)
	if glyphs == nil {
		return
	}
	b := glyphs.Bounds()
	c.DrawImageRect(glyphs, b, RectXYWH(x-origin.X, y-origin.Y, float64(b.Dx()), float64(b.Dy())), p)
}

// Flush is a no-op for the software canvas.
func (c *ImageCanvas) Flush() error { return nil }

// transform draws sr of src through the source-to-destination matrix s2d.
func (c *ImageCanvas) transform(src image.Image, sr image.Rectangle, s2d Matrix, p Paint) {
	mask := p.alphaMask()
	if s2d.IsTranslation() && s2d.C == math.Trunc(s2d.C) && s2d.F == math.Trunc(s2d.F) {
		dp := image.Pt(int(s2d.C), int(s2d.F))
		dr := sr.Add(dp)
		var m image.Image
		if mask != nil {
			m = mask
		}
		draw.DrawMask(c.target, dr, src, sr.Min, m, image.Point{}, draw.Over)
		return
	}
	var opts *draw.Options
	if mask != nil {
		opts = &draw.Options{SrcMask: mask}
	}
	p.Quality.interpolator().Transform(c.target, s2d.aff3(), src, sr, draw.Over, opts)
}

var _ Canvas = (*ImageCanvas)(nil)
