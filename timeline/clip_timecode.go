package timeline

import (
	"fmt"
	"image/color"
	"math"

	"github.com/gogpu/nle/render"
)

// TimecodeClip draws a running hh:mm:ss.ff timecode.
//
// By default it shows the timeline position. With UseClipStartTime it counts
// up from StartTime at the clip start; with UseClipEndTime it counts down to
// EndTime at the clip end.
type TimecodeClip struct {
	VideoClipBase

	fontSize     float64
	useClipStart bool
	useClipEnd   bool
	startTime    int64
	endTime      int64
}

// NewTimecodeClip returns a detached timecode clip.
func NewTimecodeClip(env *Env) *TimecodeClip {
	c := &TimecodeClip{}
	c.initVideo(c, env, KindTimecodeClip, TimecodeOwnerType)
	return c
}

// FontSize returns the current font size in pixels.
func (c *TimecodeClip) FontSize() float64 { return c.fontSize }

// DisplayedFrame returns the frame count shown at timeline frame.
func (c *TimecodeClip) DisplayedFrame(frame int64) int64 {
	rel := frame - c.span.Begin
	switch {
	case c.useClipStart:
		return c.startTime + rel
	case c.useClipEnd:
		return c.endTime + max(c.span.Duration-rel, 0)
	default:
		return frame
	}
}

// FormatTimecode renders a frame count as hh:mm:ss.ff at fps.
func FormatTimecode(frames int64, fps float64) string {
	rate := max(int64(math.Round(fps)), 1)
	sign := ""
	if frames < 0 {
		sign, frames = "-", -frames
	}
	ff := frames % rate
	secs := frames / rate
	return fmt.Sprintf("%s%02d:%02d:%02d.%02d", sign, secs/3600, secs/60%60, secs%60, ff)
}

// PrepareFrame implements VideoClip.
func (c *TimecodeClip) PrepareFrame(pc *PrepareContext) (ClipFrame, error) {
	face, err := render.MonoFont().Face(c.fontSize)
	if err != nil {
		return nil, err
	}
	return textFrame{
		face:       face,
		text:       FormatTimecode(c.DisplayedFrame(pc.Frame), pc.Settings.FrameRate),
		paint:      render.NewPaint(color.White),
		background: render.NewPaint(color.NRGBA{A: 160}),
	}, nil
}

// textFrame draws one line with its top-left corner at the clip origin,
// optionally over a background box.
type textFrame struct {
	face       *render.Face
	text       string
	paint      render.Paint
	background render.Paint
}

func (f textFrame) Draw(c render.Canvas, rc *RenderContext) error {
	m := f.face.Metrics()
	box := render.RectWH(f.face.Bounds(f.text).Right, m.Ascent+m.Descent)
	if f.background.Color != nil {
		c.DrawRect(box, f.background)
		rc.Touch(c, box)
	}
	f.paint.Quality = rc.Quality
	c.DrawText(f.text, f.face, 0, m.Ascent, f.paint)
	rc.Touch(c, f.face.Bounds(f.text).Offset(0, m.Ascent))
	return nil
}
