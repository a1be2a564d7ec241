package timeline

import (
	"image"
	"time"

	"github.com/gogpu/nle/render"
)

// PrepareContext describes the frame being prepared. Prepare methods run on
// the coordination goroutine and may read live state.
type PrepareContext struct {
	// Frame is the timeline frame.
	Frame    int64
	Settings Settings
	Quality  render.FilterQuality
}

// FrameTime converts a frame count to time at the project frame rate.
func (pc *PrepareContext) FrameTime(frames int64) time.Duration {
	return pc.Settings.FrameTime(frames)
}

// RenderContext is the worker-side state of one track render. Render
// methods must only read their snapshot and this context.
type RenderContext struct {
	Size    image.Point
	Quality render.FilterQuality
	// Area is the region drawn so far, in surface pixels.
	Area render.Rect
}

// Touch adds r, given in the canvas's current coordinate space, to Area.
func (rc *RenderContext) Touch(c render.Canvas, r render.Rect) {
	rc.Area = rc.Area.Union(c.Transform().TransformRect(r))
}
