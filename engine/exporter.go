// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/nle"
	"github.com/gogpu/nle/resource"
	"github.com/gogpu/nle/timeline"
)

// AudioFileName is the name of the exported soundtrack.
const AudioFileName = "audio.wav"

// FrameFileName returns the exported image name of a frame.
func FrameFileName(frame int64) string { return fmt.Sprintf("frame_%06d.png", frame) }

// Exporter renders a frame range to a directory of PNG images and one WAV
// file.
type Exporter struct {
	m   *Manager
	dir string

	// BitDepth of the WAV file; 16 when zero.
	BitDepth int
	// NoAudio skips the soundtrack.
	NoAudio bool
	// Progress, when set, is called after each frame is rendered.
	Progress func(done, total int64)
}

// ExportResult summarises a finished export.
type ExportResult struct {
	Frames  int64
	Samples int64
	Elapsed time.Duration
}

// NewExporter returns an exporter writing into dir, which is created if
// needed.
func NewExporter(m *Manager, dir string) *Exporter {
	return &Exporter{m: m, dir: dir}
}

// Export renders every frame of span. Images are encoded concurrently with
// rendering. The play head is left at the last exported frame.
func (e *Exporter) Export(ctx context.Context, span timeline.FrameSpan) (*ExportResult, error) {
	if span.Duration <= 0 {
		return nil, ErrEmptyRange
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("engine: export: %w", err)
	}

	release := e.m.SuspendInvalidation()
	defer release()
	e.m.CancelAndWait()

	var settings timeline.Settings
	err := e.m.loop.Invoke(ctx, func() {
		settings = e.m.settings()
		if last := e.m.project.Timeline().MaxDuration(); span.EndIndex() > last+1 {
			nle.Logger().Warn("engine: export range clamped", "range", span, "max", last)
			span = span.WithDuration(max(last+1-span.Begin, 0))
		}
	})
	if err != nil {
		return nil, err
	}
	if span.Duration <= 0 {
		return nil, ErrEmptyRange
	}

	began := time.Now()
	nle.Logger().Info("engine: export started", "dir", e.dir, "range", span)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.m.pool.Workers() + 1)
	var soundtrack *audio.FloatBuffer
	renderErr := func() error {
		for frame := span.Begin; frame < span.EndIndex(); frame++ {
			f, err := e.m.RenderAt(gctx, frame)
			if err != nil {
				return err
			}
			img, path := f.Image, filepath.Join(e.dir, FrameFileName(frame))
			g.Go(func() error { return writePNG(path, img) })

			if !e.NoAudio {
				start := settings.FrameToSample(frame)
				block, err := e.m.MixAudio(gctx, start, int(settings.FrameToSample(frame+1)-start))
				if err != nil {
					return err
				}
				soundtrack = appendAudio(soundtrack, block)
			}
			if e.Progress != nil {
				e.Progress(frame-span.Begin+1, span.Duration)
			}
		}
		return nil
	}()
	waitErr := g.Wait()
	if err := errors.Join(waitErr, renderErr); err != nil {
		return nil, err
	}

	res := &ExportResult{Frames: span.Duration, Elapsed: time.Since(began)}
	if soundtrack != nil {
		if err := e.writeWAV(soundtrack); err != nil {
			return nil, err
		}
		res.Samples = int64(soundtrack.NumFrames())
	}
	nle.Logger().Info("engine: export finished", "frames", res.Frames, "samples", res.Samples, "elapsed", res.Elapsed)
	return res, nil
}

func appendAudio(dst, src *audio.FloatBuffer) *audio.FloatBuffer {
	if dst == nil {
		return &audio.FloatBuffer{Format: src.Format, Data: append([]float64(nil), src.Data...)}
	}
	dst.Data = append(dst.Data, src.Data...)
	return dst
}

func (e *Exporter) writeWAV(buf *audio.FloatBuffer) error {
	depth := e.BitDepth
	if depth == 0 {
		depth = 16
	}
	f, err := os.Create(filepath.Join(e.dir, AudioFileName))
	if err != nil {
		return fmt.Errorf("engine: export: %w", err)
	}
	if err := resource.EncodeWAV(f, buf, depth); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path) //nolint:gosec // path is built from the export directory
	if err != nil {
		return fmt.Errorf("engine: export: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("engine: encode %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
