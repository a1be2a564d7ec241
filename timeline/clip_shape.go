package timeline

import (
	"image/color"

	"github.com/gogpu/nle"
	"github.com/gogpu/nle/automation"
	"github.com/gogpu/nle/persist"
	"github.com/gogpu/nle/render"
	"github.com/gogpu/nle/resource"
)

// ShapeClip draws a filled rectangle of an automatable size in a colour
// resource.
type ShapeClip struct {
	VideoClipBase

	size   automation.Vector2
	colour *resource.Link[color.Color]
}

// NewShapeClip returns a detached shape clip.
func NewShapeClip(env *Env) *ShapeClip {
	c := &ShapeClip{}
	c.colour = resource.NewLink[color.Color](env.Resources, "")
	c.initVideo(c, env, KindShapeClip, ShapeOwnerType)
	c.addLink(c.colour)
	c.colour.OnChanged(func(resource.Event) { c.InvalidateRender() })
	return c
}

// Size returns the current rectangle size.
func (c *ShapeClip) Size() automation.Vector2 { return c.size }

// Colour returns the colour link.
func (c *ShapeClip) Colour() *resource.Link[color.Color] { return c.colour }

// SetColourKey points the clip at a colour resource.
func (c *ShapeClip) SetColourKey(key string) {
	c.colour.SetKey(key)
	c.MarkModified()
}

// PrepareFrame implements VideoClip.
func (c *ShapeClip) PrepareFrame(pc *PrepareContext) (ClipFrame, error) {
	col, ok := c.colour.TryGet()
	if !ok {
		nle.Logger().Debug("timeline: shape colour unavailable", "clip", c.id, "key", c.colour.Key())
		return nil, nil
	}
	return shapeFrame{rect: render.RectWH(c.size.X, c.size.Y), paint: render.NewPaint(col)}, nil
}

type shapeFrame struct {
	rect  render.Rect
	paint render.Paint
}

func (f shapeFrame) Draw(c render.Canvas, rc *RenderContext) error {
	f.paint.Quality = rc.Quality
	c.DrawRect(f.rect, f.paint)
	rc.Touch(c, f.rect)
	return nil
}

// WriteTo implements Clip.
func (c *ShapeClip) WriteTo(d *persist.Dict) error {
	if err := c.ClipBase.WriteTo(d); err != nil {
		return err
	}
	d.SetString("ColourKey", c.colour.Key())
	return nil
}

// ReadFrom implements Clip.
func (c *ShapeClip) ReadFrom(d *persist.Dict) error {
	if err := c.ClipBase.ReadFrom(d); err != nil {
		return err
	}
	key, err := d.StringOr("ColourKey", "")
	if err != nil {
		return err
	}
	c.colour.SetKey(key)
	return nil
}
