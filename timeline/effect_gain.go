package timeline

import (
	"math"

	"github.com/go-audio/audio"
	"github.com/google/uuid"
)

// GainEffect amplifies audio by an automatable number of decibels.
type GainEffect struct {
	EffectBase

	decibels float64
}

// NewGainEffect returns a gain effect for the holder with ID owner.
func NewGainEffect(env *Env, owner uuid.UUID) *GainEffect {
	e := &GainEffect{}
	e.init(e, env, KindGainEffect, GainOwnerType, owner)
	return e
}

// Decibels returns the current gain.
func (e *GainEffect) Decibels() float64 { return e.decibels }

// Factor returns the linear amplitude factor of the current gain.
func (e *GainEffect) Factor() float64 { return DecibelsToLinear(e.decibels) }

// DecibelsToLinear converts a gain in dB to an amplitude factor.
func DecibelsToLinear(db float64) float64 { return math.Pow(10, db/20) }

// PrepareAudioEffect implements AudioEffect.
func (e *GainEffect) PrepareAudioEffect(*PrepareContext) AudioEffectFrame {
	return gainFrame{factor: e.Factor()}
}

type gainFrame struct{ factor float64 }

func (f gainFrame) Process(buf *audio.FloatBuffer) {
	if f.factor == 1 {
		return
	}
	for i := range buf.Data {
		buf.Data[i] *= f.factor
	}
}
