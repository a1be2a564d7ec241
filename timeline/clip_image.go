package timeline

import (
	"fmt"
	"image"

	"github.com/gogpu/nle"
	"github.com/gogpu/nle/persist"
	"github.com/gogpu/nle/render"
	"github.com/gogpu/nle/resource"
)

// ImageClip draws a still image resource.
type ImageClip struct {
	VideoClipBase

	img     *resource.Link[image.Image]
	quality render.FilterQuality
}

// NewImageClip returns a detached image clip.
func NewImageClip(env *Env) *ImageClip {
	c := &ImageClip{quality: render.FilterMedium}
	c.img = resource.NewLink[image.Image](env.Resources, "")
	c.initVideo(c, env, KindImageClip, ImageOwnerType)
	c.addLink(c.img)
	c.img.OnChanged(func(resource.Event) { c.InvalidateRender() })
	return c
}

// Image returns the image link.
func (c *ImageClip) Image() *resource.Link[image.Image] { return c.img }

// SetImageKey points the clip at an image resource.
func (c *ImageClip) SetImageKey(key string) {
	c.img.SetKey(key)
	c.MarkModified()
}

// Quality returns the resampling quality used for the image.
func (c *ImageClip) Quality() render.FilterQuality { return c.quality }

// SetQuality sets the resampling quality.
func (c *ImageClip) SetQuality(q render.FilterQuality) {
	if c.quality != q {
		c.quality = q
		c.InvalidateRender()
		c.MarkModified()
	}
}

// PrepareFrame implements VideoClip.
func (c *ImageClip) PrepareFrame(pc *PrepareContext) (ClipFrame, error) {
	img, ok := c.img.TryGet()
	if !ok {
		nle.Logger().Debug("timeline: image unavailable", "clip", c.id, "key", c.img.Key())
		return nil, nil
	}
	return imageFrame{img: img, quality: min(c.quality, pc.Quality)}, nil
}

// imageFrame draws an image with its top-left corner at the clip origin.
type imageFrame struct {
	img     image.Image
	quality render.FilterQuality
}

func (f imageFrame) Draw(c render.Canvas, rc *RenderContext) error {
	if f.img == nil {
		return nil
	}
	b := f.img.Bounds()
	c.DrawImage(f.img, 0, 0, render.Paint{Alpha: 1, Quality: f.quality})
	rc.Touch(c, render.RectWH(float64(b.Dx()), float64(b.Dy())))
	return nil
}

// WriteTo implements Clip.
func (c *ImageClip) WriteTo(d *persist.Dict) error {
	if err := c.ClipBase.WriteTo(d); err != nil {
		return err
	}
	d.SetString("ImageKey", c.img.Key())
	d.SetString("Quality", c.quality.String())
	return nil
}

// ReadFrom implements Clip.
func (c *ImageClip) ReadFrom(d *persist.Dict) error {
	if err := c.ClipBase.ReadFrom(d); err != nil {
		return err
	}
	key, err := d.StringOr("ImageKey", "")
	if err != nil {
		return err
	}
	c.img.SetKey(key)
	q, err := d.StringOr("Quality", render.FilterMedium.String())
	if err != nil {
		return err
	}
	quality, ok := render.ParseFilterQuality(q)
	if !ok {
		return fmt.Errorf("timeline: invalid image quality %q", q)
	}
	c.quality = quality
	return nil
}
