package timeline

import (
	"image/color"

	"github.com/gogpu/nle/persist"
	"github.com/gogpu/nle/render"
	"github.com/gogpu/nle/resource"
)

// TextClip draws a single line of text. Mixed-direction text is reordered
// for display.
type TextClip struct {
	VideoClipBase

	text     string
	fontSize float64
	colour   *resource.Link[color.Color]
}

// NewTextClip returns a detached text clip. Without a colour resource the
// text is white.
func NewTextClip(env *Env) *TextClip {
	c := &TextClip{}
	c.colour = resource.NewLink[color.Color](env.Resources, "")
	c.initVideo(c, env, KindTextClip, TextOwnerType)
	c.addLink(c.colour)
	c.colour.OnChanged(func(resource.Event) { c.InvalidateRender() })
	return c
}

// Text returns the clip text.
func (c *TextClip) Text() string { return c.text }

// SetText replaces the clip text.
func (c *TextClip) SetText(text string) {
	if c.text != text {
		c.text = text
		c.InvalidateRender()
		c.MarkModified()
	}
}

// FontSize returns the current font size in pixels.
func (c *TextClip) FontSize() float64 { return c.fontSize }

// Colour returns the colour link.
func (c *TextClip) Colour() *resource.Link[color.Color] { return c.colour }

// SetColourKey points the clip at a colour resource.
func (c *TextClip) SetColourKey(key string) {
	c.colour.SetKey(key)
	c.MarkModified()
}

// Layout shapes the text at the current font size.
func (c *TextClip) Layout() (render.TextLayout, error) {
	face, err := render.DefaultFont().Face(c.fontSize)
	if err != nil {
		return render.TextLayout{}, err
	}
	return face.Layout(c.text)
}

// PrepareFrame implements VideoClip.
func (c *TextClip) PrepareFrame(pc *PrepareContext) (ClipFrame, error) {
	if c.text == "" {
		return nil, nil
	}
	face, err := render.DefaultFont().Face(c.fontSize)
	if err != nil {
		return nil, err
	}
	layout, err := face.Layout(c.text)
	if err != nil {
		return nil, err
	}
	var col color.Color = color.White
	if v, ok := c.colour.TryGet(); ok {
		col = v
	}
	return textFrame{face: face, text: layout.VisualText(), paint: render.NewPaint(col)}, nil
}

// WriteTo implements Clip.
func (c *TextClip) WriteTo(d *persist.Dict) error {
	if err := c.ClipBase.WriteTo(d); err != nil {
		return err
	}
	d.SetString("Text", c.text)
	d.SetString("ColourKey", c.colour.Key())
	return nil
}

// ReadFrom implements Clip.
func (c *TextClip) ReadFrom(d *persist.Dict) error {
	if err := c.ClipBase.ReadFrom(d); err != nil {
		return err
	}
	var err error
	if c.text, err = d.StringOr("Text", ""); err != nil {
		return err
	}
	key, err := d.StringOr("ColourKey", "")
	if err != nil {
		return err
	}
	c.colour.SetKey(key)
	return nil
}
