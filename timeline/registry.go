package timeline

import (
	"github.com/gogpu/nle"
	"github.com/gogpu/nle/automation"
	"github.com/gogpu/nle/resource"
)

// Owner types. Parameters registered on a base type apply to every type
// deriving from it.
var (
	ClipOwnerType      = automation.NewOwnerType("Clip", nil)
	VideoClipOwnerType = automation.NewOwnerType("VideoClip", ClipOwnerType)
	ShapeOwnerType     = automation.NewOwnerType("ShapeClip", VideoClipOwnerType)
	TimecodeOwnerType  = automation.NewOwnerType("TimecodeClip", VideoClipOwnerType)
	ImageOwnerType     = automation.NewOwnerType("ImageClip", VideoClipOwnerType)
	TextOwnerType      = automation.NewOwnerType("TextClip", VideoClipOwnerType)
	AVMediaOwnerType   = automation.NewOwnerType("AVMediaClip", VideoClipOwnerType)
	AudioClipOwnerType = automation.NewOwnerType("AudioClip", ClipOwnerType)

	TrackOwnerType      = automation.NewOwnerType("Track", nil)
	VideoTrackOwnerType = automation.NewOwnerType("VideoTrack", TrackOwnerType)
	AudioTrackOwnerType = automation.NewOwnerType("AudioTrack", TrackOwnerType)

	EffectOwnerType     = automation.NewOwnerType("Effect", nil)
	MotionOwnerType     = automation.NewOwnerType("MotionEffect", EffectOwnerType)
	BrightnessOwnerType = automation.NewOwnerType("BrightnessEffect", EffectOwnerType)
	GainOwnerType       = automation.NewOwnerType("GainEffect", EffectOwnerType)
)

// Parameter keys.
var (
	KeyClipOpacity             = automation.Key{Domain: "VideoClip", Name: "Opacity"}
	KeyClipMediaPosition       = automation.Key{Domain: "VideoClip", Name: "MediaPosition"}
	KeyClipMediaScale          = automation.Key{Domain: "VideoClip", Name: "MediaScale"}
	KeyClipMediaScaleOrigin    = automation.Key{Domain: "VideoClip", Name: "MediaScaleOrigin"}
	KeyClipMediaRotation       = automation.Key{Domain: "VideoClip", Name: "MediaRotation"}
	KeyClipMediaRotationOrigin = automation.Key{Domain: "VideoClip", Name: "MediaRotationOrigin"}
	KeyClipIsVisible           = automation.Key{Domain: "VideoClip", Name: "IsVisible"}

	KeyShapeSize = automation.Key{Domain: "ShapeClip", Name: "Size"}

	KeyTimecodeFontSize         = automation.Key{Domain: "TimecodeClip", Name: "FontSize"}
	KeyTimecodeUseClipStartTime = automation.Key{Domain: "TimecodeClip", Name: "UseClipStartTime"}
	KeyTimecodeUseClipEndTime   = automation.Key{Domain: "TimecodeClip", Name: "UseClipEndTime"}
	KeyTimecodeStartTime        = automation.Key{Domain: "TimecodeClip", Name: "StartTime"}
	KeyTimecodeEndTime          = automation.Key{Domain: "TimecodeClip", Name: "EndTime"}

	KeyTextFontSize = automation.Key{Domain: "TextClip", Name: "FontSize"}

	KeyAudioClipVolume  = automation.Key{Domain: "AudioClip", Name: "Volume"}
	KeyAudioClipIsMuted = automation.Key{Domain: "AudioClip", Name: "IsMuted"}

	KeyTrackOpacity       = automation.Key{Domain: "VideoTrack", Name: "Opacity"}
	KeyTrackIsEnabled     = automation.Key{Domain: "VideoTrack", Name: "IsEnabled"}
	KeyTrackMediaPosition = automation.Key{Domain: "VideoTrack", Name: "MediaPosition"}
	KeyTrackMediaScale    = automation.Key{Domain: "VideoTrack", Name: "MediaScale"}
	KeyTrackMediaRotation = automation.Key{Domain: "VideoTrack", Name: "MediaRotation"}

	KeyAudioTrackVolume  = automation.Key{Domain: "AudioTrack", Name: "Volume"}
	KeyAudioTrackIsMuted = automation.Key{Domain: "AudioTrack", Name: "IsMuted"}

	KeyMotionPosition       = automation.Key{Domain: "MotionEffect", Name: "Position"}
	KeyMotionScale          = automation.Key{Domain: "MotionEffect", Name: "Scale"}
	KeyMotionRotation       = automation.Key{Domain: "MotionEffect", Name: "Rotation"}
	KeyMotionOrigin         = automation.Key{Domain: "MotionEffect", Name: "Origin"}
	KeyBrightnessBrightness = automation.Key{Domain: "BrightnessEffect", Name: "Brightness"}
	KeyGainDecibels         = automation.Key{Domain: "GainEffect", Name: "Decibels"}
)

const renderFlags = automation.FlagAffectsRender | automation.FlagModifiesProject

// Env carries what clips, tracks and effects need when they are created.
type Env struct {
	Registry  *automation.Registry
	Resources resource.Manager
}

// NewEnv returns an environment with a fresh registry resolving resources
// through res.
func NewEnv(res resource.Manager) *Env {
	return &Env{Registry: NewRegistry(), Resources: res}
}

type registrar struct {
	r *automation.Registry
}

func (g registrar) check(_ *automation.Parameter, err error) {
	if err != nil {
		nle.Invariant("timeline.NewRegistry", "%v", err)
	}
}

func vec(x, y float64) automation.Vector2 { return automation.V2(x, y) }

// NewRegistry returns a registry holding every clip, track and effect
// parameter. Build it once and share it.
func NewRegistry() *automation.Registry {
	g := registrar{r: automation.NewRegistry()}
	r := g.r

	// Video clips.
	g.check(automation.RegisterDouble(r, VideoClipOwnerType, KeyClipOpacity,
		automation.DoubleRangeDescriptor(1, 0, 1), renderFlags,
		automation.Accessor[VideoClip, float64]{
			Get: func(c VideoClip) float64 { return c.videoBase().opacity },
			Set: func(c VideoClip, v float64) { c.videoBase().opacity = v },
		}))
	g.check(automation.RegisterVector2(r, VideoClipOwnerType, KeyClipMediaPosition,
		automation.Vector2Descriptor(vec(0, 0)), renderFlags,
		videoClipVector(func(b *VideoClipBase) *automation.Vector2 { return &b.position })))
	g.check(automation.RegisterVector2(r, VideoClipOwnerType, KeyClipMediaScale,
		automation.Vector2Descriptor(vec(1, 1)), renderFlags,
		videoClipVector(func(b *VideoClipBase) *automation.Vector2 { return &b.scale })))
	g.check(automation.RegisterVector2(r, VideoClipOwnerType, KeyClipMediaScaleOrigin,
		automation.Vector2Descriptor(vec(0, 0)), renderFlags,
		videoClipVector(func(b *VideoClipBase) *automation.Vector2 { return &b.scaleOrigin })))
	g.check(automation.RegisterDouble(r, VideoClipOwnerType, KeyClipMediaRotation,
		automation.DoubleDescriptor(0), renderFlags,
		automation.Accessor[VideoClip, float64]{
			Get: func(c VideoClip) float64 { return c.videoBase().rotation },
			Set: func(c VideoClip, v float64) { c.videoBase().rotation = v; c.videoBase().matrixValid = false },
		}))
	g.check(automation.RegisterVector2(r, VideoClipOwnerType, KeyClipMediaRotationOrigin,
		automation.Vector2Descriptor(vec(0, 0)), renderFlags,
		videoClipVector(func(b *VideoClipBase) *automation.Vector2 { return &b.rotationOrigin })))
	g.check(automation.RegisterBool(r, VideoClipOwnerType, KeyClipIsVisible,
		automation.BoolDescriptor(true), renderFlags,
		automation.Accessor[VideoClip, bool]{
			Get: func(c VideoClip) bool { return c.videoBase().visible },
			Set: func(c VideoClip, v bool) { c.videoBase().visible = v },
		}))

	g.check(automation.RegisterVector2(r, ShapeOwnerType, KeyShapeSize,
		automation.Vector2RangeDescriptor(vec(100, 100), vec(0, 0), vec(1e6, 1e6)), renderFlags,
		automation.Accessor[*ShapeClip, automation.Vector2]{
			Get: func(c *ShapeClip) automation.Vector2 { return c.size },
			Set: func(c *ShapeClip, v automation.Vector2) { c.size = v },
		}))

	g.check(automation.RegisterDouble(r, TimecodeOwnerType, KeyTimecodeFontSize,
		automation.DoubleRangeDescriptor(40, 1, 1000), renderFlags,
		automation.Accessor[*TimecodeClip, float64]{
			Get: func(c *TimecodeClip) float64 { return c.fontSize },
			Set: func(c *TimecodeClip, v float64) { c.fontSize = v },
		}))
	g.check(automation.RegisterBool(r, TimecodeOwnerType, KeyTimecodeUseClipStartTime,
		automation.BoolDescriptor(false), renderFlags,
		automation.Accessor[*TimecodeClip, bool]{
			Get: func(c *TimecodeClip) bool { return c.useClipStart },
			Set: func(c *TimecodeClip, v bool) { c.useClipStart = v },
		}))
	g.check(automation.RegisterBool(r, TimecodeOwnerType, KeyTimecodeUseClipEndTime,
		automation.BoolDescriptor(false), renderFlags,
		automation.Accessor[*TimecodeClip, bool]{
			Get: func(c *TimecodeClip) bool { return c.useClipEnd },
			Set: func(c *TimecodeClip, v bool) { c.useClipEnd = v },
		}))
	g.check(automation.RegisterLong(r, TimecodeOwnerType, KeyTimecodeStartTime,
		automation.LongRangeDescriptor(0, 0, 1<<40), renderFlags,
		automation.Accessor[*TimecodeClip, int64]{
			Get: func(c *TimecodeClip) int64 { return c.startTime },
			Set: func(c *TimecodeClip, v int64) { c.startTime = v },
		}))
	g.check(automation.RegisterLong(r, TimecodeOwnerType, KeyTimecodeEndTime,
		automation.LongRangeDescriptor(0, 0, 1<<40), renderFlags,
		automation.Accessor[*TimecodeClip, int64]{
			Get: func(c *TimecodeClip) int64 { return c.endTime },
			Set: func(c *TimecodeClip, v int64) { c.endTime = v },
		}))

	g.check(automation.RegisterDouble(r, TextOwnerType, KeyTextFontSize,
		automation.DoubleRangeDescriptor(40, 1, 1000), renderFlags,
		automation.Accessor[*TextClip, float64]{
			Get: func(c *TextClip) float64 { return c.fontSize },
			Set: func(c *TextClip, v float64) { c.fontSize = v },
		}))

	// Audio clips.
	g.check(automation.RegisterFloat(r, AudioClipOwnerType, KeyAudioClipVolume,
		automation.FloatRangeDescriptor(1, 0, 2), renderFlags,
		automation.Accessor[*AudioClip, float32]{
			Get: func(c *AudioClip) float32 { return c.volume },
			Set: func(c *AudioClip, v float32) { c.volume = v },
		}))
	g.check(automation.RegisterBool(r, AudioClipOwnerType, KeyAudioClipIsMuted,
		automation.BoolDescriptor(false), renderFlags,
		automation.Accessor[*AudioClip, bool]{
			Get: func(c *AudioClip) bool { return c.muted },
			Set: func(c *AudioClip, v bool) { c.muted = v },
		}))

	// Tracks.
	g.check(automation.RegisterDouble(r, VideoTrackOwnerType, KeyTrackOpacity,
		automation.DoubleRangeDescriptor(1, 0, 1), renderFlags,
		automation.Accessor[*VideoTrack, float64]{
			Get: func(t *VideoTrack) float64 { return t.opacity },
			Set: func(t *VideoTrack, v float64) { t.opacity = v },
		}))
	g.check(automation.RegisterBool(r, VideoTrackOwnerType, KeyTrackIsEnabled,
		automation.BoolDescriptor(true), renderFlags,
		automation.Accessor[*VideoTrack, bool]{
			Get: func(t *VideoTrack) bool { return t.enabled },
			Set: func(t *VideoTrack, v bool) { t.enabled = v },
		}))
	g.check(automation.RegisterVector2(r, VideoTrackOwnerType, KeyTrackMediaPosition,
		automation.Vector2Descriptor(vec(0, 0)), renderFlags,
		automation.Accessor[*VideoTrack, automation.Vector2]{
			Get: func(t *VideoTrack) automation.Vector2 { return t.position },
			Set: func(t *VideoTrack, v automation.Vector2) { t.position = v },
		}))
	g.check(automation.RegisterVector2(r, VideoTrackOwnerType, KeyTrackMediaScale,
		automation.Vector2Descriptor(vec(1, 1)), renderFlags,
		automation.Accessor[*VideoTrack, automation.Vector2]{
			Get: func(t *VideoTrack) automation.Vector2 { return t.scale },
			Set: func(t *VideoTrack, v automation.Vector2) { t.scale = v },
		}))
	g.check(automation.RegisterDouble(r, VideoTrackOwnerType, KeyTrackMediaRotation,
		automation.DoubleDescriptor(0), renderFlags,
		automation.Accessor[*VideoTrack, float64]{
			Get: func(t *VideoTrack) float64 { return t.rotation },
			Set: func(t *VideoTrack, v float64) { t.rotation = v },
		}))
	g.check(automation.RegisterFloat(r, AudioTrackOwnerType, KeyAudioTrackVolume,
		automation.FloatRangeDescriptor(1, 0, 2), renderFlags,
		automation.Accessor[*AudioTrack, float32]{
			Get: func(t *AudioTrack) float32 { return t.volume },
			Set: func(t *AudioTrack, v float32) { t.volume = v },
		}))
	g.check(automation.RegisterBool(r, AudioTrackOwnerType, KeyAudioTrackIsMuted,
		automation.BoolDescriptor(false), renderFlags,
		automation.Accessor[*AudioTrack, bool]{
			Get: func(t *AudioTrack) bool { return t.muted },
			Set: func(t *AudioTrack, v bool) { t.muted = v },
		}))

	// Effects.
	g.check(automation.RegisterVector2(r, MotionOwnerType, KeyMotionPosition,
		automation.Vector2Descriptor(vec(0, 0)), renderFlags,
		automation.Accessor[*MotionEffect, automation.Vector2]{
			Get: func(e *MotionEffect) automation.Vector2 { return e.position },
			Set: func(e *MotionEffect, v automation.Vector2) { e.position = v },
		}))
	g.check(automation.RegisterVector2(r, MotionOwnerType, KeyMotionScale,
		automation.Vector2Descriptor(vec(1, 1)), renderFlags,
		automation.Accessor[*MotionEffect, automation.Vector2]{
			Get: func(e *MotionEffect) automation.Vector2 { return e.scale },
			Set: func(e *MotionEffect, v automation.Vector2) { e.scale = v },
		}))
	g.check(automation.RegisterDouble(r, MotionOwnerType, KeyMotionRotation,
		automation.DoubleDescriptor(0), renderFlags,
		automation.Accessor[*MotionEffect, float64]{
			Get: func(e *MotionEffect) float64 { return e.rotation },
			Set: func(e *MotionEffect, v float64) { e.rotation = v },
		}))
	g.check(automation.RegisterVector2(r, MotionOwnerType, KeyMotionOrigin,
		automation.Vector2Descriptor(vec(0, 0)), renderFlags,
		automation.Accessor[*MotionEffect, automation.Vector2]{
			Get: func(e *MotionEffect) automation.Vector2 { return e.origin },
			Set: func(e *MotionEffect, v automation.Vector2) { e.origin = v },
		}))
	g.check(automation.RegisterDouble(r, BrightnessOwnerType, KeyBrightnessBrightness,
		automation.DoubleRangeDescriptor(1, 0, 4), renderFlags,
		automation.Accessor[*BrightnessEffect, float64]{
			Get: func(e *BrightnessEffect) float64 { return e.brightness },
			Set: func(e *BrightnessEffect, v float64) { e.brightness = v },
		}))
	g.check(automation.RegisterDouble(r, GainOwnerType, KeyGainDecibels,
		automation.DoubleRangeDescriptor(0, -60, 24), renderFlags,
		automation.Accessor[*GainEffect, float64]{
			Get: func(e *GainEffect) float64 { return e.decibels },
			Set: func(e *GainEffect, v float64) { e.decibels = v },
		}))
	return r
}

// videoClipVector builds an accessor for a vector field of the video clip
// base that also invalidates the cached transform.
func videoClipVector(field func(*VideoClipBase) *automation.Vector2) automation.Accessor[VideoClip, automation.Vector2] {
	return automation.Accessor[VideoClip, automation.Vector2]{
		Get: func(c VideoClip) automation.Vector2 { return *field(c.videoBase()) },
		Set: func(c VideoClip, v automation.Vector2) {
			b := c.videoBase()
			*field(b) = v
			b.matrixValid = false
		},
	}
}
