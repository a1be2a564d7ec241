// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gogpu/nle"
)

// Player advances the play head in real time and renders each frame. When
// rendering falls behind the clock, frames are skipped.
type Player struct {
	m    *Manager
	sink func(*Frame)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPlayer returns a player rendering with m. sink receives every
// rendered frame on the playing goroutine; it may be nil.
func NewPlayer(m *Manager, sink func(*Frame)) *Player {
	return &Player{m: m, sink: sink}
}

// IsPlaying reports whether Play is running.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Play plays from the play head until the last clip ends, Stop is called
// or ctx ends. It blocks while playing and returns ctx.Err() only when ctx
// ended first.
func (p *Player) Play(ctx context.Context) error {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return ErrAlreadyPlaying
	}
	playCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel, p.done = cancel, done
	p.mu.Unlock()

	defer func() {
		cancel()
		p.mu.Lock()
		p.cancel, p.done = nil, nil
		p.mu.Unlock()
		close(done)
	}()

	err := p.run(playCtx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ctx.Err()
	}
	return err
}

// Stop ends playback and waits for Play to return.
func (p *Player) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Player) run(ctx context.Context) error {
	release := p.m.SuspendInvalidation()
	defer release()
	p.m.CancelAndWait()

	var first, end int64
	var fps float64
	err := p.m.loop.Invoke(ctx, func() {
		tl := p.m.project.Timeline()
		first = tl.PlayHead()
		end = tl.LargestFrameInUse()
		if end <= 0 {
			end = tl.MaxDuration()
		}
		fps = p.m.project.Settings().FrameRate
	})
	if err != nil {
		return err
	}
	nle.Logger().Info("engine: playback started", "from", first, "end", end, "fps", fps)

	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()
	start := time.Now()
	frame := first
	for frame < end {
		f, err := p.m.RenderAt(ctx, frame)
		switch {
		case errors.Is(err, ErrRenderInProgress):
			nle.Logger().Warn("engine: dropped frame", "frame", frame)
		case err != nil:
			return err
		case p.sink != nil:
			p.sink(f)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			next := first + int64(now.Sub(start).Seconds()*fps)
			if next <= frame {
				next = frame + 1
			} else if skipped := next - frame - 1; skipped > 0 {
				nle.Logger().Debug("engine: frames skipped", "from", frame+1, "count", skipped)
			}
			frame = next
		}
	}
	nle.Logger().Info("engine: playback finished", "frames", frame-first)
	return nil
}
