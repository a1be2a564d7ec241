// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package engine

import (
	"context"
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/nle/resource"
	"github.com/gogpu/nle/timeline"
)

func TestExporter_Export(t *testing.T) {
	p := newTestProject(t)
	addShapeTrack(t, p, "red", timeline.FrameSpan{Begin: 0, Duration: 2}, 0, 0, 16, 16)
	addAudioTrack(t, p, timeline.FrameSpan{Begin: 1, Duration: 2})
	m := newTestManager(t, p)
	dir := filepath.Join(t.TempDir(), "out")

	e := NewExporter(m, dir)
	var progress []int64
	e.Progress = func(done, total int64) {
		if total != 3 {
			t.Errorf("progress total = %d, want 3", total)
		}
		progress = append(progress, done)
	}
	res, err := e.Export(context.Background(), timeline.FrameSpan{Begin: 0, Duration: 3})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Frames != 3 || res.Samples != 960 {
		t.Errorf("result = %+v, want 3 frames and 960 samples", *res)
	}
	if len(progress) != 3 || progress[2] != 3 {
		t.Errorf("progress = %v", progress)
	}

	tests := []struct {
		frame int64
		red   bool
	}{{0, true}, {1, true}, {2, false}}
	for _, tt := range tests {
		f, err := os.Open(filepath.Join(dir, FrameFileName(tt.frame)))
		if err != nil {
			t.Fatalf("frame %d: %v", tt.frame, err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("decode frame %d: %v", tt.frame, err)
		}
		r, _, _, _ := img.At(4, 4).RGBA()
		if (r > 0xf000) != tt.red {
			t.Errorf("frame %d: red = %#x, want red %v", tt.frame, r, tt.red)
		}
	}

	wav, err := resource.LoadWAVFile(filepath.Join(dir, AudioFileName))
	if err != nil {
		t.Fatalf("LoadWAVFile: %v", err)
	}
	if wav.Frames() != 960 || wav.Channels() != 2 || wav.SampleRate() != 8000 {
		t.Fatalf("wav = %d frames, %d channels at %d Hz", wav.Frames(), wav.Channels(), wav.SampleRate())
	}
	for _, tc := range []struct {
		i    int
		want float64
	}{{0, 0}, {319, 0}, {320, 0.5}, {959, 0.5}} {
		if got := wav.Sample(0, tc.i); math.Abs(got-tc.want) > 1e-3 {
			t.Errorf("sample %d = %v, want %v", tc.i, got, tc.want)
		}
	}
}

func TestExporter_NoAudio(t *testing.T) {
	p := newTestProject(t)
	addShapeTrack(t, p, "red", timeline.FrameSpan{Begin: 0, Duration: 2}, 0, 0, 16, 16)
	m := newTestManager(t, p)
	dir := t.TempDir()

	e := NewExporter(m, dir)
	e.NoAudio = true
	res, err := e.Export(context.Background(), timeline.FrameSpan{Begin: 1, Duration: 1})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Samples != 0 {
		t.Errorf("Samples = %d, want 0", res.Samples)
	}
	if _, err := os.Stat(filepath.Join(dir, AudioFileName)); !os.IsNotExist(err) {
		t.Errorf("audio file written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, FrameFileName(1))); err != nil {
		t.Errorf("frame 1 missing: %v", err)
	}
}

func TestExporter_Ranges(t *testing.T) {
	p := newTestProject(t)
	m := newTestManager(t, p)
	invoke(t, m, func() { p.Timeline().SetMaxDuration(10) })
	e := NewExporter(m, t.TempDir())

	if _, err := e.Export(context.Background(), timeline.FrameSpan{Begin: 4}); !errors.Is(err, ErrEmptyRange) {
		t.Errorf("empty span = %v, want ErrEmptyRange", err)
	}
	if _, err := e.Export(context.Background(), timeline.FrameSpan{Begin: 20, Duration: 5}); !errors.Is(err, ErrEmptyRange) {
		t.Errorf("span past the end = %v, want ErrEmptyRange", err)
	}
	res, err := e.Export(context.Background(), timeline.FrameSpan{Begin: 8, Duration: 5})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Frames != 3 {
		t.Errorf("clamped export wrote %d frames, want 3", res.Frames)
	}
}
