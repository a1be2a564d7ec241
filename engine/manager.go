// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package engine

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"

	"github.com/bep/debounce"
	"github.com/go-audio/audio"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/nle"
	"github.com/gogpu/nle/internal/event"
	"github.com/gogpu/nle/internal/parallel"
	"github.com/gogpu/nle/timeline"
)

// Frame is one rendered output frame.
type Frame struct {
	// Index is the timeline frame.
	Index int64
	Image *image.RGBA
	// Audio holds the mixed stereo samples of the frame.
	Audio *audio.FloatBuffer
}

// Manager renders a project's timeline. At most one render is in flight;
// a render request during another fails with ErrRenderInProgress, while
// invalidation-driven renders are rate limited and run after the one in
// flight.
//
// Manager is safe for concurrent use, except that Render, RenderAt,
// MixAudio and CancelAndWait must not be called on the loop goroutine.
type Manager struct {
	project *timeline.Project
	loop    *Loop
	pool    *parallel.WorkerPool
	opts    options

	state     atomic.Int32
	rendering atomic.Bool
	closed    atomic.Bool
	pending   atomic.Bool

	// invalGen counts invalidations; renderedGen is the count the last
	// successful render saw.
	invalGen    atomic.Uint64
	renderedGen atomic.Uint64

	suspended atomic.Int32
	missed    atomic.Bool
	debounced func(func())

	mu       sync.Mutex
	inflight *inflight
	latest   *Frame

	// Loop-owned.
	clock        *SampleClock
	clockKey     [2]float64
	lastPrepared int64
	unsubscribe  func()
	rendered     event.List[*Frame]
	failed       event.List[error]
}

type inflight struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager returns a manager rendering p, whose state is owned by loop.
// It listens for render invalidations on the timeline.
func NewManager(p *timeline.Project, loop *Loop, opts ...Option) *Manager {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	m := &Manager{
		project:      p,
		loop:         loop,
		pool:         parallel.NewWorkerPool(o.workers),
		opts:         o,
		debounced:    debounce.New(o.invalidateDelay),
		lastPrepared: -1,
	}
	loop.Post(func() {
		if !m.closed.Load() {
			m.unsubscribe = p.Timeline().OnRenderInvalidated(func(*timeline.Timeline) { m.InvalidateRender() })
		}
	})
	nle.Logger().Debug("engine: manager created", "workers", m.pool.Workers(), "quality", o.quality)
	return m
}

// Project returns the rendered project.
func (m *Manager) Project() *timeline.Project { return m.project }

// Loop returns the coordination loop.
func (m *Manager) Loop() *Loop { return m.loop }

// State returns the current pipeline phase.
func (m *Manager) State() State { return State(m.state.Load()) }

func (m *Manager) setState(s State) { m.state.Store(int32(s)) }

// Latest returns the most recent successfully rendered frame, or nil.
func (m *Manager) Latest() *Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest
}

// OnFrameRendered registers fn for completed frames. It must be called on
// the loop; handlers run there.
func (m *Manager) OnFrameRendered(fn func(*Frame)) (remove func()) { return m.rendered.Add(fn) }

// OnRenderFailed registers fn for failed invalidation-driven renders. It
// must be called on the loop; handlers run there.
func (m *Manager) OnRenderFailed(fn func(error)) (remove func()) { return m.failed.Add(fn) }

// InvalidateRender schedules a render of the play head frame after the
// invalidation delay. Repeated calls within the delay coalesce.
func (m *Manager) InvalidateRender() {
	if m.closed.Load() {
		return
	}
	m.invalGen.Add(1)
	if m.suspended.Load() > 0 {
		m.missed.Store(true)
		return
	}
	m.debounced(m.renderInvalidated)
}

// SuspendInvalidation stops invalidations from starting renders until the
// returned function is called. Suspensions nest; when the last one is
// released, an invalidation that arrived meanwhile schedules one render.
func (m *Manager) SuspendInvalidation() (release func()) {
	m.suspended.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			if m.suspended.Add(-1) == 0 && m.missed.Swap(false) {
				m.invalGen.Add(1)
				m.debounced(m.renderInvalidated)
			}
		})
	}
}

func (m *Manager) stale() bool { return m.invalGen.Load() != m.renderedGen.Load() }

func (m *Manager) renderInvalidated() {
	if m.closed.Load() || m.suspended.Load() > 0 || !m.stale() {
		return
	}
	m.pending.Store(true)
	m.kick()
}

// kick starts a pending render unless one is in flight; the render in
// flight kicks again when it ends.
func (m *Manager) kick() {
	for m.pending.Load() && !m.closed.Load() {
		if !m.rendering.CompareAndSwap(false, true) {
			return
		}
		if m.pending.Swap(false) && m.stale() {
			go m.autoRender()
			return
		}
		m.rendering.Store(false)
	}
}

func (m *Manager) release() {
	m.rendering.Store(false)
	m.kick()
}

func (m *Manager) autoRender() {
	defer m.release()
	if _, err := m.render(context.Background(), nil); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, ErrManagerClosed) {
			return
		}
		nle.Logger().Warn("engine: render failed", "err", err)
		m.loop.Post(func() { m.failed.Fire(err) })
	}
}

// Render renders the frame at the play head.
func (m *Manager) Render(ctx context.Context) (*Frame, error) {
	if !m.rendering.CompareAndSwap(false, true) {
		return nil, ErrRenderInProgress
	}
	defer m.release()
	return m.render(ctx, nil)
}

// RenderAt moves the play head to frame and renders it.
func (m *Manager) RenderAt(ctx context.Context, frame int64) (*Frame, error) {
	if !m.rendering.CompareAndSwap(false, true) {
		return nil, ErrRenderInProgress
	}
	defer m.release()
	return m.render(ctx, &frame)
}

// CancelAndWait cancels pending and in-flight renders and waits for the
// one in flight to finish.
func (m *Manager) CancelAndWait() {
	m.pending.Store(false)
	m.mu.Lock()
	fl := m.inflight
	m.mu.Unlock()
	if fl != nil {
		fl.cancel()
		<-fl.done
	}
}

// Close cancels rendering and stops the workers. Close is idempotent.
func (m *Manager) Close() {
	if !m.closed.CompareAndSwap(false, true) {
		return
	}
	m.CancelAndWait()
	m.loop.Post(func() {
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		m.rendered.Clear()
		m.failed.Clear()
	})
	m.pool.Close()
}

func (m *Manager) begin(ctx context.Context) (context.Context, *inflight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed.Load() {
		return nil, nil, ErrManagerClosed
	}
	ctx, cancel := context.WithCancel(ctx)
	fl := &inflight{cancel: cancel, done: make(chan struct{})}
	m.inflight = fl
	return ctx, fl, nil
}

func (m *Manager) end(fl *inflight) {
	fl.cancel()
	m.mu.Lock()
	if m.inflight == fl {
		m.inflight = nil
	}
	m.mu.Unlock()
	close(fl.done)
	m.setState(StateIdle)
}

// snapshot is everything the render phase reads.
type snapshot struct {
	frame int64
	gen   uint64
	size  image.Point
	video []videoJob

	format  *audio.Format
	samples int
	audio   []*timeline.AudioTrackFrame
}

type videoJob struct {
	track uuid.UUID
	frame *timeline.VideoTrackFrame
}

// render runs one render; the caller holds the rendering flag.
func (m *Manager) render(ctx context.Context, seek *int64) (*Frame, error) {
	ctx, fl, err := m.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer m.end(fl)

	m.setState(StatePreparing)
	var snap *snapshot
	var perr error
	err = m.loop.Invoke(ctx, func() {
		if seek != nil {
			m.project.Timeline().SetPlayHead(*seek)
		}
		snap, perr = m.prepare()
	})
	if err != nil {
		return nil, err
	}
	if perr != nil {
		return nil, perr
	}
	m.setState(StatePrepared)

	m.setState(StateRendering)
	g, gctx := errgroup.WithContext(ctx)
	for _, job := range snap.video {
		g.Go(func() error {
			err := m.pool.Run(gctx, func() error {
				return job.frame.Track.RenderFrame(job.frame, snap.size, m.opts.quality)
			})
			if err != nil {
				return &RenderError{Track: job.track, Frame: snap.frame, Err: err}
			}
			return nil
		})
	}
	var mixed *audio.FloatBuffer
	g.Go(func() error {
		mixed = mixTracks(snap.audio, snap.format, snap.samples)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rectangle{Max: snap.size})
	draw.Draw(img, img.Bounds(), image.NewUniform(m.opts.background), image.Point{}, draw.Src)
	for _, job := range snap.video {
		timeline.DrawFrameInto(img, job.frame)
	}
	m.setState(StateComposited)

	frame := &Frame{Index: snap.frame, Image: img, Audio: mixed}
	m.mu.Lock()
	m.latest = frame
	m.mu.Unlock()
	m.renderedGen.Store(snap.gen)
	m.loop.Post(func() { m.rendered.Fire(frame) })
	nle.Logger().Debug("engine: frame rendered", "frame", snap.frame, "tracks", len(snap.video), "samples", snap.samples)
	return frame, nil
}

// settings returns the project settings with the output sample rate
// applied.
func (m *Manager) settings() timeline.Settings {
	s := m.project.Settings()
	if m.opts.sampleRate > 0 {
		s.SampleRate = m.opts.sampleRate
	}
	return s
}

// prepare snapshots every track at the play head. It runs on the loop.
func (m *Manager) prepare() (*snapshot, error) {
	tl := m.project.Timeline()
	s := m.settings()
	pc := &timeline.PrepareContext{Frame: tl.PlayHead(), Settings: s, Quality: m.opts.quality}
	snap := &snapshot{
		frame:  pc.Frame,
		gen:    m.invalGen.Load(),
		size:   s.Size(),
		format: &audio.Format{NumChannels: mixChannels, SampleRate: s.SampleRate},
	}
	for _, vt := range tl.VideoTracks() {
		f, err := vt.PrepareFrame(pc)
		if err != nil {
			return nil, &RenderError{Track: vt.ID(), Frame: pc.Frame, Err: err}
		}
		if f != nil {
			snap.video = append(snap.video, videoJob{track: vt.ID(), frame: f})
		}
	}

	snap.samples = m.sampleClock(s, pc.Frame).Next()
	snap.audio = prepareAudio(tl, pc, s.FrameToSample(pc.Frame), snap.samples)
	return snap, nil
}

// sampleClock returns the clock for s, restarting it when the format
// changes or playback does not continue from the previous frame.
func (m *Manager) sampleClock(s timeline.Settings, frame int64) *SampleClock {
	key := [2]float64{float64(s.SampleRate), s.FrameRate}
	if m.clock == nil || m.clockKey != key {
		m.clock = NewSampleClock(s.SampleRate, s.FrameRate)
		m.clockKey = key
	} else if frame != m.lastPrepared+1 {
		m.clock.Reset()
	}
	m.lastPrepared = frame
	return m.clock
}

func prepareAudio(tl *timeline.Timeline, pc *timeline.PrepareContext, start int64, count int) []*timeline.AudioTrackFrame {
	var out []*timeline.AudioTrackFrame
	for _, at := range tl.AudioTracks() {
		if f, ok := at.PrepareAudio(pc, start, count); ok {
			out = append(out, f)
		}
	}
	return out
}

// MixAudio mixes count stereo samples starting at output sample start,
// independent of the frame clock.
func (m *Manager) MixAudio(ctx context.Context, start int64, count int) (*audio.FloatBuffer, error) {
	var frames []*timeline.AudioTrackFrame
	var format *audio.Format
	err := m.loop.Invoke(ctx, func() {
		s := m.settings()
		pc := &timeline.PrepareContext{Frame: s.SampleToFrame(start), Settings: s, Quality: m.opts.quality}
		format = &audio.Format{NumChannels: mixChannels, SampleRate: s.SampleRate}
		frames = prepareAudio(m.project.Timeline(), pc, start, count)
	})
	if err != nil {
		return nil, err
	}
	return mixTracks(frames, format, max(count, 0)), nil
}
