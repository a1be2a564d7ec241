// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package engine

import (
	"image/color"
	"time"

	"github.com/gogpu/nle/render"
)

// Option configures a Manager.
//
// Example:
//
//	m := engine.NewManager(p, loop,
//		engine.WithWorkers(2),
//		engine.WithFilterQuality(render.FilterHigh))
type Option func(*options)

type options struct {
	workers         int
	quality         render.FilterQuality
	invalidateDelay time.Duration
	sampleRate      int
	background      color.Color
}

func defaultOptions() options {
	return options{
		workers:         0, // GOMAXPROCS
		quality:         render.FilterHigh,
		invalidateDelay: 16 * time.Millisecond,
		background:      color.Black,
	}
}

// WithWorkers sets the number of render workers. Zero or less uses
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithFilterQuality caps the resampling quality of every draw. Preview
// renders typically use render.FilterLow.
func WithFilterQuality(q render.FilterQuality) Option {
	return func(o *options) {
		o.quality = q
	}
}

// WithInvalidateDelay sets how long invalidations are coalesced before an
// automatic render starts.
func WithInvalidateDelay(d time.Duration) Option {
	return func(o *options) {
		o.invalidateDelay = max(d, 0)
	}
}

// WithSampleRate sets the output sample rate of mixed audio. Zero keeps
// the project's rate.
func WithSampleRate(hz int) Option {
	return func(o *options) {
		o.sampleRate = max(hz, 0)
	}
}

// WithBackground sets the colour under the bottom track.
func WithBackground(c color.Color) Option {
	return func(o *options) {
		o.background = c
	}
}
