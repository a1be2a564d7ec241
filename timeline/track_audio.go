package timeline

import (
	"github.com/go-audio/audio"
)

// AudioTrack holds audio clips, which are mixed together.
type AudioTrack struct {
	*TrackBase

	volume float32
	muted  bool
}

func acceptsAudioClip(c Clip) bool {
	_, ok := c.(*AudioClip)
	return ok
}

// NewAudioTrack returns a detached audio track.
func NewAudioTrack(env *Env) *AudioTrack {
	t := &AudioTrack{}
	t.TrackBase = newTrackBase(t, env, KindAudioTrack, AudioTrackOwnerType, acceptsAudioClip, acceptsAudioEffect)
	t.initData()
	return t
}

// Volume returns the current linear track volume in [0, 2].
func (t *AudioTrack) Volume() float32 { return t.volume }

// IsMuted reports whether the track is muted.
func (t *AudioTrack) IsMuted() bool { return t.muted }

// AudioTrackFrame is the snapshot of one track for a block of output
// samples.
type AudioTrackFrame struct {
	Track *AudioTrack
	// Start is the first output sample and Count the block length.
	Start  int64
	Count  int
	Volume float64

	clips   []*AudioClipFrame
	effects []AudioEffectFrame
}

// PrepareAudio snapshots the clips overlapping count samples from start.
// It reports false when the track is silent for the block.
func (t *AudioTrack) PrepareAudio(pc *PrepareContext, start int64, count int) (*AudioTrackFrame, bool) {
	if t.muted || t.volume <= 0 || count <= 0 {
		return nil, false
	}
	s := pc.Settings
	first := s.SampleToFrame(start)
	last := s.SampleToFrame(start + int64(count) - 1)
	f := &AudioTrackFrame{Track: t, Start: start, Count: count, Volume: float64(t.volume)}
	for _, c := range t.ClipsInRange(FrameSpan{Begin: first, Duration: last - first + 1}) {
		if ac, ok := c.(*AudioClip); ok {
			if cf, ok := ac.PrepareAudio(pc); ok {
				f.clips = append(f.clips, cf)
			}
		}
	}
	if len(f.clips) == 0 {
		return nil, false
	}
	for _, e := range t.list {
		if ae, ok := e.(AudioEffect); ok && e.IsEnabled() {
			f.effects = append(f.effects, ae.PrepareAudioEffect(pc))
		}
	}
	return f, true
}

// Render mixes the track's clips into a new buffer of the given format and
// applies the track effects. The track volume is left to the caller.
func (f *AudioTrackFrame) Render(format *audio.Format) *audio.FloatBuffer {
	buf := &audio.FloatBuffer{
		Format: format,
		Data:   make([]float64, f.Count*format.NumChannels),
	}
	for _, c := range f.clips {
		c.MixInto(buf, f.Start)
	}
	for _, e := range f.effects {
		e.Process(buf)
	}
	return buf
}
