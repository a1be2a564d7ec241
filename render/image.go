// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"

	"golang.org/x/image/draw"
)

// ScaleImage resamples src to w x h with the given quality.
func ScaleImage(src image.Image, w, h int, q FilterQuality) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	q.interpolator().Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// ToRGBA returns img as an *image.RGBA with its origin at (0, 0), copying
// only when needed.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// ScaleAlpha multiplies every channel of the pixels in r by factor, which
// must be in [0, 1]. Used to apply opacity to premultiplied pixels.
func ScaleAlpha(img *image.RGBA, r image.Rectangle, factor float64) {
	r = r.Intersect(img.Bounds())
	if r.Empty() || factor >= 1 {
		return
	}
	f := uint32(Alpha16(factor))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := img.Pix[img.PixOffset(r.Min.X, y):img.PixOffset(r.Max.X, y)]
		for i := range row {
			row[i] = uint8(uint32(row[i]) * f / 0xffff)
		}
	}
}

// ScaleRGB multiplies the colour channels of the pixels in r by factor,
// clamped to the pixel's alpha so the result stays premultiplied.
func ScaleRGB(img *image.RGBA, r image.Rectangle, factor float64) {
	r = r.Intersect(img.Bounds())
	if r.Empty() || factor == 1 {
		return
	}
	factor = max(factor, 0)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := img.Pix[img.PixOffset(r.Min.X, y):img.PixOffset(r.Max.X, y)]
		for i := 0; i+3 < len(row); i += 4 {
			a := float64(row[i+3])
			for c := range 3 {
				row[i+c] = uint8(min(float64(row[i+c])*factor, a) + 0.5)
			}
		}
	}
}
