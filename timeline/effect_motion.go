package timeline

import (
	"github.com/google/uuid"

	"github.com/gogpu/nle/automation"
	"github.com/gogpu/nle/render"
)

// MotionEffect moves, scales and rotates everything drawn after it.
type MotionEffect struct {
	EffectBase

	position automation.Vector2
	scale    automation.Vector2
	rotation float64
	origin   automation.Vector2
}

// NewMotionEffect returns a motion effect for the holder with ID owner.
func NewMotionEffect(env *Env, owner uuid.UUID) *MotionEffect {
	e := &MotionEffect{}
	e.init(e, env, KindMotionEffect, MotionOwnerType, owner)
	return e
}

// Matrix returns the current transform. Scale and rotation share the
// origin.
func (e *MotionEffect) Matrix() render.Matrix {
	o := point(e.origin)
	return render.TransformationMatrix(point(e.position), point(e.scale), e.rotation, o, o)
}

// PrepareEffect implements VideoEffect.
func (e *MotionEffect) PrepareEffect(*PrepareContext) EffectFrame {
	return motionFrame{m: e.Matrix()}
}

type motionFrame struct{ m render.Matrix }

func (f motionFrame) PreProcess(c render.Canvas, _ *RenderContext) error {
	c.Concat(f.m)
	return nil
}

func (motionFrame) PostProcess(render.Canvas, *RenderContext) error { return nil }
