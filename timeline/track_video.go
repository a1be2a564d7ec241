package timeline

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/gogpu/nle"
	"github.com/gogpu/nle/automation"
	"github.com/gogpu/nle/render"
)

// VideoTrack holds video clips and renders the topmost one at a frame into
// its own surface.
type VideoTrack struct {
	*TrackBase

	opacity  float64
	enabled  bool
	position automation.Vector2
	scale    automation.Vector2
	rotation float64

	surface *render.Surface
}

func acceptsVideoClip(c Clip) bool {
	_, ok := c.(VideoClip)
	return ok
}

// NewVideoTrack returns a detached video track.
func NewVideoTrack(env *Env) *VideoTrack {
	t := &VideoTrack{surface: render.NewSurface()}
	t.TrackBase = newTrackBase(t, env, KindVideoTrack, VideoTrackOwnerType, acceptsVideoClip, acceptsVideoEffect)
	t.initData()
	return t
}

// Opacity returns the current track opacity in [0, 1].
func (t *VideoTrack) Opacity() float64 { return t.opacity }

// IsEnabled reports whether the track renders.
func (t *VideoTrack) IsEnabled() bool { return t.enabled }

// Surface returns the track's render surface.
func (t *VideoTrack) Surface() *render.Surface { return t.surface }

// Dispose releases the render surface. It waits for leases in use.
func (t *VideoTrack) Dispose() { t.surface.Dispose() }

// Transform returns the track transform for a frame of the given size:
// scale and rotation about the frame centre, then translation.
func (t *VideoTrack) Transform(size image.Point) render.Matrix {
	centre := render.Pt(float64(size.X)/2, float64(size.Y)/2)
	return render.TransformationMatrix(point(t.position), point(t.scale), t.rotation, centre, centre)
}

// VideoTrackFrame is the snapshot of one track at one frame. Rendering it
// only reads the snapshot.
type VideoTrackFrame struct {
	Track   *VideoTrack
	Frame   int64
	Opacity float64

	trackMatrix render.Matrix
	clipMatrix  render.Matrix
	clipOpacity float64
	trackFx     []EffectFrame
	clipFx      []EffectFrame
	clip        ClipFrame
}

// PrepareFrame snapshots what the track draws at pc.Frame. It returns nil
// when the track is disabled or transparent, or when no visible clip covers
// the frame.
func (t *VideoTrack) PrepareFrame(pc *PrepareContext) (*VideoTrackFrame, error) {
	if !t.enabled || t.opacity <= 0 {
		return nil, nil
	}
	c, ok := t.ClipAt(pc.Frame).(VideoClip)
	if !ok || !c.IsVisible() || c.Opacity() <= 0 {
		return nil, nil
	}
	cf, err := c.PrepareFrame(pc)
	if err != nil {
		return nil, fmt.Errorf("timeline: prepare %s %s: %w", c.Kind(), c.ID(), err)
	}
	if cf == nil {
		return nil, nil
	}
	return &VideoTrackFrame{
		Track:       t,
		Frame:       pc.Frame,
		Opacity:     t.opacity,
		trackMatrix: t.Transform(pc.Settings.Size()),
		clipMatrix:  c.Transform(),
		clipOpacity: c.Opacity(),
		trackFx:     prepareEffects(t.list, pc),
		clipFx:      prepareEffects(c.Effects(), pc),
		clip:        cf,
	}, nil
}

func prepareEffects(list []Effect, pc *PrepareContext) []EffectFrame {
	var out []EffectFrame
	for _, e := range list {
		if ve, ok := e.(VideoEffect); ok && e.IsEnabled() {
			if f := ve.PrepareEffect(pc); f != nil {
				out = append(out, f)
			}
		}
	}
	return out
}

// RenderFrame draws f into the track surface at the given size and records
// the touched area. It is safe to call from a worker goroutine; a panic in
// a clip or effect is returned as an error.
func (t *VideoTrack) RenderFrame(f *VideoTrackFrame, size image.Point, quality render.FilterQuality) (err error) {
	lease, err := t.surface.Begin(size.X, size.Y)
	if err != nil {
		return err
	}
	defer lease.Release()

	img := lease.Image()
	cv := render.NewImageCanvas(img)
	cv.Clear(color.Transparent)
	rc := &RenderContext{Size: size, Quality: quality}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("timeline: render panic: %v", r)
		}
		cv.RestoreToCount(0)
		lease.SetArea(rc.Area.Image().Intersect(img.Bounds()))
	}()
	return drawTrackFrame(cv, f, rc)
}

func drawTrackFrame(cv render.Canvas, f *VideoTrackFrame, rc *RenderContext) error {
	cv.SetTransform(f.trackMatrix)
	for _, fx := range f.trackFx {
		if err := fx.PreProcess(cv, rc); err != nil {
			return err
		}
	}

	n := cv.SaveLayer(f.clipOpacity)
	cv.Concat(f.clipMatrix)
	for _, fx := range f.clipFx {
		if err := fx.PreProcess(cv, rc); err != nil {
			return err
		}
	}
	if err := f.clip.Draw(cv, rc); err != nil {
		return err
	}
	for _, fx := range f.clipFx {
		if err := fx.PostProcess(cv, rc); err != nil {
			return err
		}
	}
	cv.RestoreToCount(n)

	for _, fx := range f.trackFx {
		if err := fx.PostProcess(cv, rc); err != nil {
			return err
		}
	}
	return cv.Flush()
}

// DrawFrameInto composites the last rendered surface of f's track over dst
// at the track opacity. Only the touched area is drawn. It reports false
// when there is nothing to draw.
func DrawFrameInto(dst *image.RGBA, f *VideoTrackFrame) bool {
	lease, ok := f.Track.surface.BeginRead()
	if !ok {
		return false
	}
	defer lease.Release()
	area := lease.Area().Intersect(dst.Bounds())
	if area.Empty() {
		return false
	}
	var mask image.Image
	if f.Opacity < 1 {
		mask = image.NewUniform(color.Alpha16{A: render.Alpha16(f.Opacity)})
	}
	draw.DrawMask(dst, area, lease.Image(), area.Min, mask, area.Min, draw.Over)
	nle.Logger().Debug("timeline: track composited", "track", f.Track.id, "frame", f.Frame, "area", area)
	return true
}
