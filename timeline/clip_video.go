package timeline

import (
	"github.com/gogpu/nle/automation"
	"github.com/gogpu/nle/render"
)

// VideoClip is a clip drawn by a video track.
type VideoClip interface {
	Clip
	Opacity() float64
	IsVisible() bool
	// Transform returns the clip-to-track matrix built from the media
	// transform parameters.
	Transform() render.Matrix
	// PrepareFrame snapshots what the clip draws at pc.Frame. A nil frame
	// means nothing is drawn.
	PrepareFrame(pc *PrepareContext) (ClipFrame, error)

	videoBase() *VideoClipBase
}

// ClipFrame is the render-side snapshot of a video clip. It must not refer
// to live clip state.
type ClipFrame interface {
	// Draw draws the content in clip space and records what it touched.
	Draw(c render.Canvas, rc *RenderContext) error
}

// VideoClipBase holds the opacity, visibility and media transform shared by
// video clips.
type VideoClipBase struct {
	ClipBase

	opacity        float64
	visible        bool
	position       automation.Vector2
	scale          automation.Vector2
	scaleOrigin    automation.Vector2
	rotation       float64
	rotationOrigin automation.Vector2

	matrix      render.Matrix
	matrixValid bool
}

func acceptsVideoEffect(e Effect) bool {
	_, ok := e.(VideoEffect)
	return ok
}

func (c *VideoClipBase) initVideo(self VideoClip, env *Env, kind string, t *automation.OwnerType) {
	c.init(self, env, kind, t, acceptsVideoEffect)
}

func (c *VideoClipBase) videoBase() *VideoClipBase { return c }

// Opacity returns the current opacity in [0, 1].
func (c *VideoClipBase) Opacity() float64 { return c.opacity }

// IsVisible reports whether the clip draws at all.
func (c *VideoClipBase) IsVisible() bool { return c.visible }

// Transform returns the cached media transform.
func (c *VideoClipBase) Transform() render.Matrix {
	if !c.matrixValid {
		c.matrix = render.TransformationMatrix(
			point(c.position), point(c.scale), c.rotation,
			point(c.scaleOrigin), point(c.rotationOrigin))
		c.matrixValid = true
	}
	return c.matrix
}

func point(v automation.Vector2) render.Point { return render.Pt(v.X, v.Y) }

// mediaFrame returns the source frame shown at pc.Frame.
func (c *VideoClipBase) mediaFrame(pc *PrepareContext) int64 {
	return pc.Frame - c.span.Begin + c.mediaOffset
}
