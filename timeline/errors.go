package timeline

import (
	"errors"
	"fmt"
)

var (
	// ErrNegativeSpan is returned for a frame span with a negative begin or
	// duration.
	ErrNegativeSpan = errors.New("timeline: negative frame span")

	// ErrInvalidCutOffset is returned when a cut offset is not strictly
	// inside the clip.
	ErrInvalidCutOffset = errors.New("timeline: cut offset outside clip")

	// ErrClipOwned is returned when inserting a clip that already belongs
	// to a track.
	ErrClipOwned = errors.New("timeline: clip already belongs to a track")

	// ErrTrackOwned is returned when inserting a track that already belongs
	// to a timeline.
	ErrTrackOwned = errors.New("timeline: track already belongs to a timeline")

	// ErrEffectAttached is returned when inserting an effect that already
	// sits in a holder.
	ErrEffectAttached = errors.New("timeline: effect already attached")

	// ErrNotInTrack is returned for clip operations on a clip the track
	// does not hold.
	ErrNotInTrack = errors.New("timeline: clip not in track")

	// ErrDifferentTimeline is returned when moving a clip between tracks of
	// different timelines.
	ErrDifferentTimeline = errors.New("timeline: tracks belong to different timelines")

	// ErrIndexOutOfRange is returned for positional operations with a bad
	// index.
	ErrIndexOutOfRange = errors.New("timeline: index out of range")

	// ErrUnknownKind is returned when reading a clip, track or effect of
	// an unregistered kind.
	ErrUnknownKind = errors.New("timeline: unknown kind")

	// ErrInvalidSettings is returned for project settings that cannot
	// render.
	ErrInvalidSettings = errors.New("timeline: invalid project settings")
)

// ClipTypeError reports a clip the track does not accept.
type ClipTypeError struct {
	Track string
	Clip  string
}

func (e *ClipTypeError) Error() string {
	return fmt.Sprintf("timeline: %s does not accept %s", e.Track, e.Clip)
}

// EffectTypeError reports an effect its holder does not accept.
type EffectTypeError struct {
	Holder string
	Effect string
}

func (e *EffectTypeError) Error() string {
	return fmt.Sprintf("timeline: %s does not accept effect %s", e.Holder, e.Effect)
}
