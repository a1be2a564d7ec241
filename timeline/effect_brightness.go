package timeline

import (
	"image"

	"github.com/google/uuid"

	"github.com/gogpu/nle/render"
)

// BrightnessEffect multiplies the colour of everything drawn before its
// post-processing step.
type BrightnessEffect struct {
	EffectBase

	brightness float64
}

// NewBrightnessEffect returns a brightness effect for the holder with ID
// owner.
func NewBrightnessEffect(env *Env, owner uuid.UUID) *BrightnessEffect {
	e := &BrightnessEffect{}
	e.init(e, env, KindBrightnessEffect, BrightnessOwnerType, owner)
	return e
}

// Brightness returns the current colour factor.
func (e *BrightnessEffect) Brightness() float64 { return e.brightness }

// PrepareEffect implements VideoEffect.
func (e *BrightnessEffect) PrepareEffect(*PrepareContext) EffectFrame {
	if e.brightness == 1 {
		return nil
	}
	return brightnessFrame{factor: e.brightness}
}

type brightnessFrame struct{ factor float64 }

func (brightnessFrame) PreProcess(render.Canvas, *RenderContext) error { return nil }

// PostProcess scales the touched pixels of the canvas's current target.
// Canvases that do not expose their pixels are left untouched.
func (f brightnessFrame) PostProcess(c render.Canvas, rc *RenderContext) error {
	t, ok := c.(interface{ Target() *image.RGBA })
	if !ok {
		return nil
	}
	render.ScaleRGB(t.Target(), rc.Area.Image(), f.factor)
	return nil
}
