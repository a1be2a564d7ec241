package timeline

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/gogpu/nle/internal/event"
	"github.com/gogpu/nle/persist"
)

// DefaultMaxDuration is the timeline length of a new timeline, in frames.
const DefaultMaxDuration = 5000

// TrackEvent describes a track added to or removed from a timeline.
type TrackEvent struct {
	Timeline *Timeline
	Track    Track
	Index    int
}

// TrackMove describes a track moved within a timeline.
type TrackMove struct {
	Timeline *Timeline
	Track    Track
	From, To int
}

// Timeline is an ordered stack of tracks and a play head. Index 0 is the
// bottom track.
//
// A timeline and everything on it belong to one coordination goroutine.
type Timeline struct {
	env         *Env
	project     *Project
	tracks      []Track
	playHead    int64
	maxDuration int64

	// While batching, invalidations are coalesced into one.
	batching    int
	invalidated bool

	playHeadChanged   event.List[*Timeline]
	renderInvalidated event.List[*Timeline]
	modified          event.List[*Timeline]
	trackAdded        event.List[TrackEvent]
	trackRemoved      event.List[TrackEvent]
	trackMoved        event.List[TrackMove]
}

// NewTimeline returns an empty timeline.
func NewTimeline(env *Env) *Timeline {
	return &Timeline{env: env, maxDuration: DefaultMaxDuration}
}

// Env returns the timeline's environment.
func (tl *Timeline) Env() *Env { return tl.env }

// Project returns the owning project, or nil.
func (tl *Timeline) Project() *Project { return tl.project }

// Tracks returns the tracks, bottom first.
func (tl *Timeline) Tracks() []Track { return slices.Clone(tl.tracks) }

// TrackCount returns the number of tracks.
func (tl *Timeline) TrackCount() int { return len(tl.tracks) }

// Track returns the track at i.
func (tl *Timeline) Track(i int) Track { return tl.tracks[i] }

// IndexOf returns the index of t, or -1.
func (tl *Timeline) IndexOf(t Track) int { return slices.Index(tl.tracks, t) }

// VideoTracks returns the video tracks, bottom first.
func (tl *Timeline) VideoTracks() []*VideoTrack {
	return lo.FilterMap(tl.tracks, func(t Track, _ int) (*VideoTrack, bool) {
		vt, ok := t.(*VideoTrack)
		return vt, ok
	})
}

// AudioTracks returns the audio tracks in order.
func (tl *Timeline) AudioTracks() []*AudioTrack {
	return lo.FilterMap(tl.tracks, func(t Track, _ int) (*AudioTrack, bool) {
		at, ok := t.(*AudioTrack)
		return at, ok
	})
}

// AddTrack appends t on top.
func (tl *Timeline) AddTrack(t Track) error { return tl.InsertTrack(len(tl.tracks), t) }

// InsertTrack inserts a detached track at i.
func (tl *Timeline) InsertTrack(i int, t Track) error {
	if t.Timeline() != nil {
		return fmt.Errorf("%w: %s", ErrTrackOwned, t.ID())
	}
	if i < 0 || i > len(tl.tracks) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(tl.tracks))
	}
	tl.tracks = slices.Insert(tl.tracks, i, t)
	tl.Batch(func() { t.trackBase().setTimeline(tl) })
	tl.trackAdded.Fire(TrackEvent{Timeline: tl, Track: t, Index: i})
	tl.InvalidateRender()
	tl.MarkModified()
	return nil
}

// RemoveTrack removes t and reports whether it was present.
func (tl *Timeline) RemoveTrack(t Track) bool {
	i := tl.IndexOf(t)
	if i < 0 {
		return false
	}
	_, _ = tl.RemoveTrackAt(i)
	return true
}

// RemoveTrackAt removes and returns the track at i.
func (tl *Timeline) RemoveTrackAt(i int) (Track, error) {
	if i < 0 || i >= len(tl.tracks) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(tl.tracks))
	}
	t := tl.tracks[i]
	tl.tracks = slices.Delete(tl.tracks, i, i+1)
	t.trackBase().setTimeline(nil)
	tl.trackRemoved.Fire(TrackEvent{Timeline: tl, Track: t, Index: i})
	tl.InvalidateRender()
	tl.MarkModified()
	return t, nil
}

// MoveTrack moves the track at from to index to.
func (tl *Timeline) MoveTrack(from, to int) error {
	n := len(tl.tracks)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: move %d to %d of %d", ErrIndexOutOfRange, from, to, n)
	}
	if from == to {
		return nil
	}
	t := tl.tracks[from]
	tl.tracks = slices.Insert(slices.Delete(tl.tracks, from, from+1), to, t)
	tl.trackMoved.Fire(TrackMove{Timeline: tl, Track: t, From: from, To: to})
	tl.InvalidateRender()
	tl.MarkModified()
	return nil
}

// PlayHead returns the current frame.
func (tl *Timeline) PlayHead() int64 { return tl.playHead }

// SetPlayHead moves the play head, clamped to [0, MaxDuration], and
// pushes automation values at the new frame into every track, clip and
// effect.
func (tl *Timeline) SetPlayHead(frame int64) {
	frame = max(0, min(frame, tl.maxDuration))
	if frame == tl.playHead {
		return
	}
	tl.playHead = frame
	tl.Batch(func() {
		for _, t := range tl.tracks {
			t.trackBase().updateAll()
		}
	})
	tl.playHeadChanged.Fire(tl)
	tl.InvalidateRender()
}

// MaxDuration returns the timeline length in frames.
func (tl *Timeline) MaxDuration() int64 { return tl.maxDuration }

// SetMaxDuration sets the timeline length. The play head is clamped.
func (tl *Timeline) SetMaxDuration(frames int64) {
	frames = max(frames, 1)
	if frames == tl.maxDuration {
		return
	}
	tl.maxDuration = frames
	if tl.playHead > frames {
		tl.SetPlayHead(frames)
	}
	tl.MarkModified()
}

// LargestFrameInUse returns the largest clip end index over all tracks.
func (tl *Timeline) LargestFrameInUse() int64 {
	return lo.Reduce(tl.tracks, func(acc int64, t Track, _ int) int64 {
		return max(acc, t.Cache().LargestActiveFrame())
	}, 0)
}

// Batch runs fn with render invalidations coalesced into at most one,
// fired when the outermost batch ends.
func (tl *Timeline) Batch(fn func()) {
	tl.batching++
	defer func() {
		tl.batching--
		if tl.batching == 0 && tl.invalidated {
			tl.invalidated = false
			tl.renderInvalidated.Fire(tl)
		}
	}()
	fn()
}

// InvalidateRender signals that the rendered output is stale.
func (tl *Timeline) InvalidateRender() {
	if tl.batching > 0 {
		tl.invalidated = true
		return
	}
	tl.renderInvalidated.Fire(tl)
}

// MarkModified flags unsaved changes on the timeline and its project.
func (tl *Timeline) MarkModified() {
	tl.modified.Fire(tl)
	if tl.project != nil {
		tl.project.SetModified(true)
	}
}

// OnPlayHeadChanged registers fn for play head moves.
func (tl *Timeline) OnPlayHeadChanged(fn func(*Timeline)) (remove func()) {
	return tl.playHeadChanged.Add(fn)
}

// OnRenderInvalidated registers fn for render invalidations.
func (tl *Timeline) OnRenderInvalidated(fn func(*Timeline)) (remove func()) {
	return tl.renderInvalidated.Add(fn)
}

// OnModified registers fn for modifications.
func (tl *Timeline) OnModified(fn func(*Timeline)) (remove func()) { return tl.modified.Add(fn) }

// OnTrackAdded registers fn for track insertions.
func (tl *Timeline) OnTrackAdded(fn func(TrackEvent)) (remove func()) {
	return tl.trackAdded.Add(fn)
}

// OnTrackRemoved registers fn for track removals.
func (tl *Timeline) OnTrackRemoved(fn func(TrackEvent)) (remove func()) {
	return tl.trackRemoved.Add(fn)
}

// OnTrackMoved registers fn for track moves.
func (tl *Timeline) OnTrackMoved(fn func(TrackMove)) (remove func()) {
	return tl.trackMoved.Add(fn)
}

// WriteTo stores the timeline and its tracks.
func (tl *Timeline) WriteTo(d *persist.Dict) error {
	d.SetInt64("PlayHead", tl.playHead)
	d.SetInt64("MaxDuration", tl.maxDuration)
	list := d.CreateList("Tracks")
	for _, t := range tl.tracks {
		if err := t.WriteTo(list.CreateDict()); err != nil {
			return fmt.Errorf("timeline: write track %s: %w", t.ID(), err)
		}
	}
	return nil
}

// ReadFrom replaces the timeline's tracks with stored ones.
func (tl *Timeline) ReadFrom(d *persist.Dict) error {
	maxDur, err := d.Int64Or("MaxDuration", DefaultMaxDuration)
	if err != nil {
		return err
	}
	playHead, err := d.Int64Or("PlayHead", 0)
	if err != nil {
		return err
	}
	list, err := d.ListOr("Tracks")
	if err != nil {
		return err
	}
	dicts, err := list.Dicts()
	if err != nil {
		return err
	}
	tracks := make([]Track, 0, len(dicts))
	for _, td := range dicts {
		kind, err := td.StringValue("Kind")
		if err != nil {
			return err
		}
		t, err := NewTrack(kind, tl.env)
		if err != nil {
			return err
		}
		if err := t.ReadFrom(td); err != nil {
			return fmt.Errorf("timeline: read %s: %w", kind, err)
		}
		tracks = append(tracks, t)
	}

	tl.Batch(func() {
		for len(tl.tracks) > 0 {
			_, _ = tl.RemoveTrackAt(len(tl.tracks) - 1)
		}
		tl.maxDuration = max(maxDur, 1)
		tl.playHead = max(0, min(playHead, tl.maxDuration))
		for _, t := range tracks {
			err = tl.AddTrack(t)
			if err != nil {
				return
			}
		}
	})
	return err
}
