package timeline

import (
	"math"

	"github.com/go-audio/audio"

	"github.com/gogpu/nle"
	"github.com/gogpu/nle/persist"
	"github.com/gogpu/nle/resource"
)

// AudioClip plays an audio resource at an automatable volume.
type AudioClip struct {
	ClipBase

	volume float32
	muted  bool
	source *resource.Link[resource.AudioSource]
}

func acceptsAudioEffect(e Effect) bool {
	_, ok := e.(AudioEffect)
	return ok
}

// NewAudioClip returns a detached audio clip.
func NewAudioClip(env *Env) *AudioClip {
	c := &AudioClip{}
	c.source = resource.NewLink[resource.AudioSource](env.Resources, "")
	c.init(c, env, KindAudioClip, AudioClipOwnerType, acceptsAudioEffect)
	c.addLink(c.source)
	c.source.OnChanged(func(resource.Event) { c.InvalidateRender() })
	return c
}

// Volume returns the current linear volume in [0, 2].
func (c *AudioClip) Volume() float32 { return c.volume }

// IsMuted reports whether the clip is muted.
func (c *AudioClip) IsMuted() bool { return c.muted }

// Source returns the audio link.
func (c *AudioClip) Source() *resource.Link[resource.AudioSource] { return c.source }

// SetSourceKey points the clip at an audio resource.
func (c *AudioClip) SetSourceKey(key string) {
	c.source.SetKey(key)
	c.MarkModified()
}

// AudioClipFrame is the render-side snapshot of an audio clip for one
// block of output samples.
type AudioClipFrame struct {
	source resource.AudioSource
	// first and end bound the clip in output samples.
	first, end int64
	// offset is the source time at the clip start, in seconds.
	offset  float64
	volume  float64
	effects []AudioEffectFrame
}

// PrepareAudio snapshots the clip. It reports false when the clip is
// muted or its source is unavailable.
func (c *AudioClip) PrepareAudio(pc *PrepareContext) (*AudioClipFrame, bool) {
	if c.muted || c.volume <= 0 {
		return nil, false
	}
	src, ok := c.source.TryGet()
	if !ok {
		nle.Logger().Debug("timeline: audio unavailable", "clip", c.id, "key", c.source.Key())
		return nil, false
	}
	s := pc.Settings
	f := &AudioClipFrame{
		source: src,
		first:  s.FrameToSample(c.span.Begin),
		end:    s.FrameToSample(c.span.EndIndex()),
		offset: pc.FrameTime(c.mediaOffset).Seconds(),
		volume: float64(c.volume),
	}
	for _, e := range c.list {
		if ae, ok := e.(AudioEffect); ok && e.IsEnabled() {
			f.effects = append(f.effects, ae.PrepareAudioEffect(pc))
		}
	}
	return f, true
}

// MixInto adds the clip's samples into buf, whose first sample is output
// sample start. Source channels beyond the buffer's are dropped; a mono
// source feeds every output channel.
func (f *AudioClipFrame) MixInto(buf *audio.FloatBuffer, start int64) {
	nch := buf.Format.NumChannels
	rate := float64(buf.Format.SampleRate)
	frames := len(buf.Data) / nch
	srcRate := float64(f.source.SampleRate())
	srcCh := f.source.Channels()

	tmp := &audio.FloatBuffer{Format: buf.Format, Data: make([]float64, len(buf.Data))}
	for j := range frames {
		out := start + int64(j)
		if out < f.first || out >= f.end {
			continue
		}
		t := float64(out-f.first)/rate + f.offset
		i := int(math.Floor(t * srcRate))
		for ch := range nch {
			tmp.Data[j*nch+ch] = f.source.Sample(min(ch, srcCh-1), i) * f.volume
		}
	}
	for _, e := range f.effects {
		e.Process(tmp)
	}
	for i, v := range tmp.Data {
		buf.Data[i] += v
	}
}

// WriteTo implements Clip.
func (c *AudioClip) WriteTo(d *persist.Dict) error {
	if err := c.ClipBase.WriteTo(d); err != nil {
		return err
	}
	d.SetString("SourceKey", c.source.Key())
	return nil
}

// ReadFrom implements Clip.
func (c *AudioClip) ReadFrom(d *persist.Dict) error {
	if err := c.ClipBase.ReadFrom(d); err != nil {
		return err
	}
	key, err := d.StringOr("SourceKey", "")
	if err != nil {
		return err
	}
	c.source.SetKey(key)
	return nil
}
