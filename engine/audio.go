// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package engine

import (
	"math"

	"github.com/go-audio/audio"

	"github.com/gogpu/nle/timeline"
)

// mixChannels is the channel count of mixed output.
const mixChannels = 2

// SampleClock yields the number of audio samples to mix for each video
// frame. Rates that do not divide evenly are tracked with a fractional
// carry so that the total stays in step with the frame clock; every count
// is even.
type SampleClock struct {
	perFrame float64
	carry    float64
}

// NewSampleClock returns a clock for sampleRate samples per second at fps.
func NewSampleClock(sampleRate int, fps float64) *SampleClock {
	return &SampleClock{perFrame: float64(sampleRate) / fps}
}

// Next returns the sample count of the next frame.
func (c *SampleClock) Next() int {
	exact := c.perFrame + c.carry
	n := int(math.Ceil(exact))
	if n%2 != 0 {
		n++
	}
	c.carry = exact - float64(n)
	return n
}

// Reset drops the carry.
func (c *SampleClock) Reset() { c.carry = 0 }

// mixTracks renders every audio track snapshot and sums them, weighted by
// track volume, into one buffer of count samples.
func mixTracks(frames []*timeline.AudioTrackFrame, format *audio.Format, count int) *audio.FloatBuffer {
	out := &audio.FloatBuffer{Format: format, Data: make([]float64, count*format.NumChannels)}
	for _, f := range frames {
		buf := f.Render(format)
		for i, v := range buf.Data {
			out.Data[i] += v * f.Volume
		}
	}
	return out
}
