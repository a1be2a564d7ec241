package timeline

import (
	"fmt"
	"image/color"
	"math/rand/v2"
	"slices"
	"weak"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/gogpu/nle/automation"
	"github.com/gogpu/nle/internal/event"
	"github.com/gogpu/nle/persist"
)

// Track kinds.
const (
	KindVideoTrack = "VideoTrack"
	KindAudioTrack = "AudioTrack"
)

// Track height limits, in pixels.
const (
	DefaultTrackHeight = 56
	MinTrackHeight     = 20
	MaxTrackHeight     = 250
)

// Track is an ordered list of clips with an index over time. Every track
// embeds a *TrackBase; the interface cannot be implemented outside this
// package.
type Track interface {
	automation.Owner
	EffectHolder
	DisplayName() string
	SetDisplayName(name string)
	Height() int
	SetHeight(h int)
	Colour() color.NRGBA
	SetColour(c color.NRGBA)
	Timeline() *Timeline
	// Index returns the position in the timeline, or -1.
	Index() int

	Clips() []Clip
	ClipCount() int
	IndexOf(c Clip) int
	ClipAt(frame int64) Clip
	ClipsInRange(span FrameSpan) []Clip
	SpanUntilClip(frame, limit int64) FrameSpan
	Cache() *ClipRangeCache

	AcceptsClip(c Clip) bool
	AddClip(c Clip) error
	InsertClip(i int, c Clip) error
	RemoveClip(c Clip) (bool, error)
	RemoveClipAt(i int) (Clip, error)
	MoveClipToTrack(i int, dst Track, dstIndex int) error
	Clear()

	Clone() (Track, error)
	WriteTo(d *persist.Dict) error
	ReadFrom(d *persist.Dict) error

	trackBase() *TrackBase
}

// ClipEvent describes a clip added to or removed from a track.
type ClipEvent struct {
	Track Track
	Clip  Clip
	Index int
}

// ClipMove describes a clip moved from one track to another.
type ClipMove struct {
	Clip     Clip
	From, To Track
	Index    int
}

// TrackBase holds the state shared by every track.
type TrackBase struct {
	effectStack

	self      Track
	env       *Env
	kind      string
	ownerType *automation.OwnerType
	id        uuid.UUID
	name      string
	height    int
	colour    color.NRGBA
	timeline  weak.Pointer[Timeline]
	data      *automation.Data
	clips     []Clip
	cache     *ClipRangeCache
	acceptsFn func(Clip) bool

	clipAdded     event.List[ClipEvent]
	clipRemoved   event.List[ClipEvent]
	clipMoved     event.List[ClipMove]
	heightChanged event.List[Track]
	nameChanged   event.List[Track]
}

func newTrackBase(self Track, env *Env, kind string, t *automation.OwnerType,
	acceptsClip func(Clip) bool, acceptsEffect func(Effect) bool) *TrackBase {
	b := &TrackBase{
		self:      self,
		env:       env,
		kind:      kind,
		ownerType: t,
		id:        uuid.New(),
		name:      "Track",
		height:    DefaultTrackHeight,
		colour:    randomColour(),
		cache:     NewClipRangeCache(),
		acceptsFn: acceptsClip,
	}
	b.effectStack = effectStack{host: self, accepts: acceptsEffect}
	return b
}

// initData must run once the embedding track can answer OwnerType.
func (t *TrackBase) initData() {
	t.data = automation.NewData(t.self, t.env.Registry)
	t.data.UpdateAll()
}

func randomColour() color.NRGBA {
	v := rand.Uint32()
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

func (t *TrackBase) trackBase() *TrackBase { return t }

// ID returns the track's unique ID.
func (t *TrackBase) ID() uuid.UUID { return t.id }

// Kind returns the track kind.
func (t *TrackBase) Kind() string { return t.kind }

// Env returns the environment the track was created in.
func (t *TrackBase) Env() *Env { return t.env }

// DisplayName returns the user-visible name.
func (t *TrackBase) DisplayName() string { return t.name }

// SetDisplayName renames the track.
func (t *TrackBase) SetDisplayName(name string) {
	if t.name == name {
		return
	}
	t.name = name
	t.nameChanged.Fire(t.self)
	t.MarkModified()
}

// Height returns the display height in pixels.
func (t *TrackBase) Height() int { return t.height }

// SetHeight sets the display height, clamped to the track height limits.
func (t *TrackBase) SetHeight(h int) {
	h = max(MinTrackHeight, min(h, MaxTrackHeight))
	if t.height == h {
		return
	}
	t.height = h
	t.heightChanged.Fire(t.self)
	t.MarkModified()
}

// Colour returns the display colour.
func (t *TrackBase) Colour() color.NRGBA { return t.colour }

// SetColour sets the display colour.
func (t *TrackBase) SetColour(c color.NRGBA) {
	if t.colour != c {
		t.colour = c
		t.MarkModified()
	}
}

// Timeline returns the owning timeline, or nil.
func (t *TrackBase) Timeline() *Timeline { return t.timeline.Value() }

// Index returns the position in the timeline, or -1.
func (t *TrackBase) Index() int {
	if tl := t.Timeline(); tl != nil {
		return tl.IndexOf(t.self)
	}
	return -1
}

// Cache returns the clip range cache.
func (t *TrackBase) Cache() *ClipRangeCache { return t.cache }

// Clips returns the clips in insertion order.
func (t *TrackBase) Clips() []Clip { return slices.Clone(t.clips) }

// ClipCount returns the number of clips.
func (t *TrackBase) ClipCount() int { return len(t.clips) }

// IndexOf returns the index of c, or -1.
func (t *TrackBase) IndexOf(c Clip) int { return slices.Index(t.clips, c) }

// ClipAt returns the topmost clip covering frame, or nil.
func (t *TrackBase) ClipAt(frame int64) Clip { return t.cache.PrimaryClipAt(frame) }

// ClipsInRange returns the clips intersecting span.
func (t *TrackBase) ClipsInRange(span FrameSpan) []Clip { return t.cache.ClipsInRange(span) }

// SpanUntilClip returns the free span starting at frame, up to limit
// frames long and ending where the next clip begins. The span is empty when
// a clip covers frame.
func (t *TrackBase) SpanUntilClip(frame, limit int64) FrameSpan {
	span := FrameSpan{Begin: frame, Duration: max(limit, 0)}
	for _, c := range t.cache.ClipsInRange(span) {
		b := c.Span().Begin
		if b <= frame {
			return FrameSpan{Begin: frame}
		}
		span.Duration = min(span.Duration, b-frame)
	}
	return span
}

// AcceptsClip reports whether c may be placed on the track.
func (t *TrackBase) AcceptsClip(c Clip) bool { return c != nil && t.acceptsFn(c) }

func (t *TrackBase) typeError(c Clip) error {
	kind := "<nil>"
	if c != nil {
		kind = c.Kind()
	}
	return &ClipTypeError{Track: t.kind, Clip: kind}
}

// AddClip appends c.
func (t *TrackBase) AddClip(c Clip) error { return t.InsertClip(len(t.clips), c) }

// InsertClip inserts a detached clip at i. On error the track is
// unchanged.
func (t *TrackBase) InsertClip(i int, c Clip) error {
	if !t.AcceptsClip(c) {
		return t.typeError(c)
	}
	if c.Track() != nil {
		return fmt.Errorf("%w: %s", ErrClipOwned, c.ID())
	}
	if i < 0 || i > len(t.clips) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(t.clips))
	}
	t.attach(i, c)
	t.clipAdded.Fire(ClipEvent{Track: t.self, Clip: c, Index: i})
	c.InvalidateRender()
	t.MarkModified()
	return nil
}

func (t *TrackBase) attach(i int, c Clip) {
	t.clips = slices.Insert(t.clips, i, c)
	t.cache.Add(c)
	c.clipBase().setTrack(t)
}

func (t *TrackBase) detach(i int) Clip {
	c := t.clips[i]
	t.cache.Remove(c)
	t.clips = slices.Delete(t.clips, i, i+1)
	return c
}

// RemoveClip removes c. It reports false, with no error, when c is not on
// the track.
func (t *TrackBase) RemoveClip(c Clip) (bool, error) {
	if !t.AcceptsClip(c) {
		return false, t.typeError(c)
	}
	i := t.IndexOf(c)
	if i < 0 {
		return false, nil
	}
	if _, err := t.RemoveClipAt(i); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveClipAt removes and returns the clip at i.
func (t *TrackBase) RemoveClipAt(i int) (Clip, error) {
	if i < 0 || i >= len(t.clips) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(t.clips))
	}
	tl := t.Timeline()
	c := t.detach(i)
	c.clipBase().setTrack(nil)
	t.clipRemoved.Fire(ClipEvent{Track: t.self, Clip: c, Index: i})
	if tl != nil {
		tl.InvalidateRender()
	}
	t.MarkModified()
	return c, nil
}

// MoveClipToTrack moves the clip at i to dst at dstIndex. Both tracks must
// be on the same timeline. Both tracks fire ClipMovedTracks.
func (t *TrackBase) MoveClipToTrack(i int, dst Track, dstIndex int) error {
	if i < 0 || i >= len(t.clips) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(t.clips))
	}
	c := t.clips[i]
	if !dst.AcceptsClip(c) {
		return &ClipTypeError{Track: dst.Kind(), Clip: c.Kind()}
	}
	tl := t.Timeline()
	if tl == nil || dst.Timeline() != tl {
		return ErrDifferentTimeline
	}
	d := dst.trackBase()
	limit := len(d.clips)
	if d == t {
		limit--
	}
	if dstIndex < 0 || dstIndex > limit {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, dstIndex, limit)
	}
	t.detach(i)
	d.attach(dstIndex, c)
	ev := ClipMove{Clip: c, From: t.self, To: dst, Index: dstIndex}
	t.clipMoved.Fire(ev)
	if d != t {
		d.clipMoved.Fire(ev)
	}
	tl.InvalidateRender()
	t.MarkModified()
	return nil
}

// Clear removes every clip.
func (t *TrackBase) Clear() {
	for len(t.clips) > 0 {
		_, _ = t.RemoveClipAt(len(t.clips) - 1)
	}
}

// OnClipAdded registers fn for clip insertions.
func (t *TrackBase) OnClipAdded(fn func(ClipEvent)) (remove func()) { return t.clipAdded.Add(fn) }

// OnClipRemoved registers fn for clip removals.
func (t *TrackBase) OnClipRemoved(fn func(ClipEvent)) (remove func()) {
	return t.clipRemoved.Add(fn)
}

// OnClipMovedTracks registers fn for clips moving to or from this track.
func (t *TrackBase) OnClipMovedTracks(fn func(ClipMove)) (remove func()) {
	return t.clipMoved.Add(fn)
}

// OnHeightChanged registers fn for height changes.
func (t *TrackBase) OnHeightChanged(fn func(Track)) (remove func()) {
	return t.heightChanged.Add(fn)
}

// OnDisplayNameChanged registers fn for renames.
func (t *TrackBase) OnDisplayNameChanged(fn func(Track)) (remove func()) {
	return t.nameChanged.Add(fn)
}

func (t *TrackBase) setTimeline(tl *Timeline) {
	if tl != nil {
		t.timeline = weak.Make(tl)
	} else {
		t.timeline = weak.Pointer[Timeline]{}
	}
	t.updateAll()
}

// updateAll refreshes the automation of the track, its effects and its
// clips at the current play head.
func (t *TrackBase) updateAll() {
	t.data.UpdateAll()
	t.effectStack.updateAll()
	for _, c := range t.clips {
		c.clipBase().updateAll()
	}
}

// OwnerType implements automation.Owner.
func (t *TrackBase) OwnerType() *automation.OwnerType { return t.ownerType }

// AutomationData implements automation.Owner.
func (t *TrackBase) AutomationData() *automation.Data { return t.data }

// RelativePlayHead implements automation.Owner; tracks start at frame 0.
func (t *TrackBase) RelativePlayHead() (int64, bool) {
	if tl := t.Timeline(); tl != nil {
		return tl.PlayHead(), true
	}
	return 0, false
}

// InvalidateRender implements automation.Owner.
func (t *TrackBase) InvalidateRender() {
	if tl := t.Timeline(); tl != nil {
		tl.InvalidateRender()
	}
}

// MarkModified implements automation.Owner.
func (t *TrackBase) MarkModified() {
	if tl := t.Timeline(); tl != nil {
		tl.MarkModified()
	}
}

// Clone returns a detached copy with new IDs for the track, its clips and
// every effect.
func (t *TrackBase) Clone() (Track, error) {
	d := persist.NewDict()
	if err := t.self.WriteTo(d); err != nil {
		return nil, err
	}
	stripIDs(d)
	if clips, err := d.ListOr("Clips"); err == nil {
		if dicts, err := clips.Dicts(); err == nil {
			lo.ForEach(dicts, func(cd *persist.Dict, _ int) { stripIDs(cd) })
		}
	}
	clone, err := NewTrack(t.kind, t.env)
	if err != nil {
		return nil, err
	}
	if err := clone.ReadFrom(d); err != nil {
		return nil, err
	}
	return clone, nil
}

// WriteTo stores the track with its clips and effects.
func (t *TrackBase) WriteTo(d *persist.Dict) error {
	d.SetString("Kind", t.kind)
	d.SetString("ID", t.id.String())
	d.SetString("DisplayName", t.name)
	d.SetInt("Height", t.height)
	d.SetUint32("Colour", colourToARGB(t.colour))
	if err := t.data.WriteTo(d.CreateDict("AutomationData")); err != nil {
		return err
	}
	if err := t.effectStack.writeTo(d); err != nil {
		return err
	}
	list := d.CreateList("Clips")
	for _, c := range t.clips {
		if err := c.WriteTo(list.CreateDict()); err != nil {
			return fmt.Errorf("timeline: write clip %s: %w", c.ID(), err)
		}
	}
	return nil
}

// ReadFrom replaces the track's state with a stored one. DisplayName,
// Height and Colour fall back to their defaults when absent.
func (t *TrackBase) ReadFrom(d *persist.Dict) error {
	t.effectStack.clear()
	if err := readID(d, &t.id); err != nil {
		return err
	}
	var err error
	if t.name, err = d.StringOr("DisplayName", "Track"); err != nil {
		return err
	}
	h, err := d.IntOr("Height", DefaultTrackHeight)
	if err != nil {
		return err
	}
	t.height = max(MinTrackHeight, min(h, MaxTrackHeight))
	argb, err := d.Uint32Or("Colour", colourToARGB(t.colour))
	if err != nil {
		return err
	}
	t.colour = colourFromARGB(argb)
	if ad, err := d.DictOr("AutomationData"); err != nil {
		return err
	} else if ad != nil {
		if err := t.data.ReadFrom(ad); err != nil {
			return err
		}
	}
	if err := t.effectStack.readFrom(d, t.env); err != nil {
		return err
	}

	t.Clear()
	list, err := d.ListOr("Clips")
	if err != nil {
		return err
	}
	dicts, err := list.Dicts()
	if err != nil {
		return err
	}
	for _, cd := range dicts {
		kind, err := cd.StringValue("Kind")
		if err != nil {
			return err
		}
		c, err := NewClip(kind, t.env)
		if err != nil {
			return err
		}
		if err := c.ReadFrom(cd); err != nil {
			return fmt.Errorf("timeline: read %s: %w", kind, err)
		}
		if err := t.AddClip(c); err != nil {
			return err
		}
	}
	return nil
}

func colourToARGB(c color.NRGBA) uint32 {
	return uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func colourFromARGB(v uint32) color.NRGBA {
	return color.NRGBA{A: uint8(v >> 24), R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

// NewTrack creates a detached track of the given kind.
func NewTrack(kind string, env *Env) (Track, error) {
	switch kind {
	case KindVideoTrack:
		return NewVideoTrack(env), nil
	case KindAudioTrack:
		return NewAudioTrack(env), nil
	default:
		return nil, fmt.Errorf("%w: track %q", ErrUnknownKind, kind)
	}
}
