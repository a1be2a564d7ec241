// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// FilterQuality selects the resampling kernel used when drawing scaled or
// transformed images.
type FilterQuality uint8

const (
	// FilterNone uses nearest neighbour sampling.
	FilterNone FilterQuality = iota
	// FilterLow uses an approximate bilinear kernel.
	FilterLow
	// FilterMedium uses a bilinear kernel.
	FilterMedium
	// FilterHigh uses a Catmull-Rom kernel.
	FilterHigh
)

// String returns the quality name.
func (q FilterQuality) String() string {
	switch q {
	case FilterNone:
		return "none"
	case FilterLow:
		return "low"
	case FilterMedium:
		return "medium"
	case FilterHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseFilterQuality parses a quality name as returned by String.
func ParseFilterQuality(s string) (FilterQuality, bool) {
	for q := FilterNone; q <= FilterHigh; q++ {
		if q.String() == s {
			return q, true
		}
	}
	return FilterNone, false
}

// interpolator returns the x/image kernel for the quality.
func (q FilterQuality) interpolator() draw.Interpolator {
	switch q {
	case FilterLow:
		return draw.ApproxBiLinear
	case FilterMedium:
		return draw.BiLinear
	case FilterHigh:
		return draw.CatmullRom
	default:
		return draw.NearestNeighbor
	}
}

// Paint describes how a draw call is coloured and blended.
//
// The zero Alpha is fully transparent, so a Paint literal that leaves Alpha
// unset draws nothing. Use NewPaint for an opaque paint.
type Paint struct {
	// Color fills rectangles and text. Ignored by DrawImage.
	Color color.Color
	// Alpha multiplies the source coverage, in [0, 1]. Zero draws nothing.
	Alpha float64
	// Quality selects the image resampling kernel.
	Quality FilterQuality
}

// NewPaint returns an opaque paint of colour c.
func NewPaint(c color.Color) Paint {
	return Paint{Color: c, Alpha: 1, Quality: FilterMedium}
}

// alphaMask returns the mask that applies p.Alpha, or nil when opaque.
func (p Paint) alphaMask() *image.Uniform {
	if p.Alpha >= 1 {
		return nil
	}
	return image.NewUniform(color.Alpha16{A: Alpha16(p.Alpha)})
}

// Alpha8 converts a [0, 1] opacity to a byte, clamping out of range input.
func Alpha8(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 0xff))
}

// Alpha16 converts a [0, 1] opacity to 16 bits.
func Alpha16(v float64) uint16 {
	return uint16(math.Round(clamp01(v) * 0xffff))
}

func clamp01(v float64) float64 {
	switch {
	case v != v || v <= 0: // NaN or negative
		return 0
	case v >= 1:
		return 1
	}
	return v
}
