package timeline

import (
	"fmt"
	"weak"

	"github.com/google/uuid"

	"github.com/gogpu/nle/automation"
	"github.com/gogpu/nle/internal/event"
	"github.com/gogpu/nle/persist"
)

// Clip kinds.
const (
	KindShapeClip    = "ShapeClip"
	KindTimecodeClip = "TimecodeClip"
	KindImageClip    = "ImageClip"
	KindTextClip     = "TextClip"
	KindAVMediaClip  = "AVMediaClip"
	KindAudioClip    = "AudioClip"
)

// Clip is a time-bounded item on a track. Every clip embeds a ClipBase; the
// interface cannot be implemented outside this package.
type Clip interface {
	automation.Owner
	EffectHolder
	DisplayName() string
	SetDisplayName(name string)
	Span() FrameSpan
	SetSpan(span FrameSpan) error
	MediaFrameOffset() int64
	SetMediaFrameOffset(offset int64)
	Track() Track
	Timeline() *Timeline
	Clone() (Clip, error)
	Destroy()
	WriteTo(d *persist.Dict) error
	ReadFrom(d *persist.Dict) error

	clipBase() *ClipBase
}

// SpanChange describes a clip span change.
type SpanChange struct {
	Clip Clip
	Old  FrameSpan
}

// TrackChange describes a clip moving between tracks. Either side may be nil.
type TrackChange struct {
	Clip     Clip
	Old, New Track
}

type closer interface{ Close() }

// ClipBase holds the state shared by every clip.
type ClipBase struct {
	effectStack

	self        Clip
	env         *Env
	kind        string
	ownerType   *automation.OwnerType
	id          uuid.UUID
	name        string
	span        FrameSpan
	mediaOffset int64
	track       weak.Pointer[TrackBase]
	data        *automation.Data
	links       []closer
	destroyed   bool

	spanChanged  event.List[SpanChange]
	nameChanged  event.List[Clip]
	trackChanged event.List[TrackChange]
}

func (c *ClipBase) init(self Clip, env *Env, kind string, t *automation.OwnerType, accepts func(Effect) bool) {
	c.self = self
	c.env = env
	c.kind = kind
	c.ownerType = t
	c.id = uuid.New()
	c.name = kind
	c.effectStack = effectStack{host: self, accepts: accepts}
	c.data = automation.NewData(self, env.Registry)
	c.data.UpdateAll()
}

// addLink registers a resource link to close on Destroy.
func (c *ClipBase) addLink(l closer) { c.links = append(c.links, l) }

func (c *ClipBase) clipBase() *ClipBase { return c }

// ID returns the clip's unique ID.
func (c *ClipBase) ID() uuid.UUID { return c.id }

// Kind returns the clip kind.
func (c *ClipBase) Kind() string { return c.kind }

// Env returns the environment the clip was created in.
func (c *ClipBase) Env() *Env { return c.env }

// DisplayName returns the user-visible name.
func (c *ClipBase) DisplayName() string { return c.name }

// SetDisplayName renames the clip.
func (c *ClipBase) SetDisplayName(name string) {
	if c.name == name {
		return
	}
	c.name = name
	c.nameChanged.Fire(c.self)
	c.MarkModified()
}

// Span returns the clip's placement.
func (c *ClipBase) Span() FrameSpan { return c.span }

// SetSpan moves or resizes the clip, keeping the track's cache in step.
func (c *ClipBase) SetSpan(span FrameSpan) error {
	if err := span.Validate(); err != nil {
		return err
	}
	old := c.span
	if old == span {
		return nil
	}
	c.span = span
	if t := c.track.Value(); t != nil {
		t.cache.OnSpanChanged(c.self, old)
	}
	c.spanChanged.Fire(SpanChange{Clip: c.self, Old: old})
	c.InvalidateRender()
	c.MarkModified()
	return nil
}

// MediaFrameOffset returns the number of source frames skipped at the clip
// start.
func (c *ClipBase) MediaFrameOffset() int64 { return c.mediaOffset }

// SetMediaFrameOffset sets the source frame shown at the clip start.
func (c *ClipBase) SetMediaFrameOffset(offset int64) {
	if c.mediaOffset != offset {
		c.mediaOffset = offset
		c.InvalidateRender()
		c.MarkModified()
	}
}

// Track returns the owning track, or nil.
func (c *ClipBase) Track() Track {
	if t := c.track.Value(); t != nil {
		return t.self
	}
	return nil
}

// Timeline returns the owning track's timeline, or nil.
func (c *ClipBase) Timeline() *Timeline {
	if t := c.track.Value(); t != nil {
		return t.Timeline()
	}
	return nil
}

// ConvertTimelineToRelative converts a timeline frame to a frame relative
// to the clip start.
func (c *ClipBase) ConvertTimelineToRelative(frame int64) int64 { return frame - c.span.Begin }

// ConvertRelativeToTimeline is the inverse of ConvertTimelineToRelative.
func (c *ClipBase) ConvertRelativeToTimeline(frame int64) int64 { return frame + c.span.Begin }

// IsTimelineFrameInRange reports whether the clip covers a timeline frame.
func (c *ClipBase) IsTimelineFrameInRange(frame int64) bool { return c.span.Contains(frame) }

// OnSpanChanged registers fn for span changes.
func (c *ClipBase) OnSpanChanged(fn func(SpanChange)) (remove func()) {
	return c.spanChanged.Add(fn)
}

// OnDisplayNameChanged registers fn for renames.
func (c *ClipBase) OnDisplayNameChanged(fn func(Clip)) (remove func()) {
	return c.nameChanged.Add(fn)
}

// OnTrackChanged registers fn for changes of the owning track.
func (c *ClipBase) OnTrackChanged(fn func(TrackChange)) (remove func()) {
	return c.trackChanged.Add(fn)
}

// setTrack updates the back-reference and refreshes automation for the new
// play head.
func (c *ClipBase) setTrack(t *TrackBase) {
	var old Track
	if prev := c.track.Value(); prev != nil {
		old = prev.self
	}
	var next Track
	if t != nil {
		c.track = weak.Make(t)
		next = t.self
	} else {
		c.track = weak.Pointer[TrackBase]{}
	}
	c.updateAll()
	c.trackChanged.Fire(TrackChange{Clip: c.self, Old: old, New: next})
}

func (c *ClipBase) updateAll() {
	c.data.UpdateAll()
	c.effectStack.updateAll()
}

// OwnerType implements automation.Owner.
func (c *ClipBase) OwnerType() *automation.OwnerType { return c.ownerType }

// AutomationData implements automation.Owner.
func (c *ClipBase) AutomationData() *automation.Data { return c.data }

// RelativePlayHead implements automation.Owner. It reports false when the
// clip is not on a timeline or the play head lies outside the clip.
func (c *ClipBase) RelativePlayHead() (int64, bool) {
	tl := c.Timeline()
	if tl == nil {
		return 0, false
	}
	ph := tl.PlayHead()
	if !c.span.Contains(ph) {
		return 0, false
	}
	return ph - c.span.Begin, true
}

// InvalidateRender implements automation.Owner.
func (c *ClipBase) InvalidateRender() {
	if tl := c.Timeline(); tl != nil {
		tl.InvalidateRender()
	}
}

// MarkModified implements automation.Owner.
func (c *ClipBase) MarkModified() {
	if tl := c.Timeline(); tl != nil {
		tl.MarkModified()
	}
}

// Clone returns a detached copy with new IDs.
func (c *ClipBase) Clone() (Clip, error) {
	d := persist.NewDict()
	if err := c.self.WriteTo(d); err != nil {
		return nil, err
	}
	stripIDs(d)
	clone, err := NewClip(c.kind, c.env)
	if err != nil {
		return nil, err
	}
	if err := clone.ReadFrom(d); err != nil {
		return nil, err
	}
	return clone, nil
}

// Destroy detaches the clip from its track and releases effects and
// resource links. The clip must not be used afterwards.
func (c *ClipBase) Destroy() {
	if c.destroyed {
		return
	}
	if t := c.track.Value(); t != nil {
		_, _ = t.self.RemoveClip(c.self)
	}
	c.effectStack.destroy()
	for _, l := range c.links {
		l.Close()
	}
	c.links = nil
	c.spanChanged.Clear()
	c.nameChanged.Clear()
	c.trackChanged.Clear()
	c.destroyed = true
}

// WriteTo stores the common clip fields.
func (c *ClipBase) WriteTo(d *persist.Dict) error {
	d.SetString("Kind", c.kind)
	d.SetString("ID", c.id.String())
	d.SetString("DisplayName", c.name)
	if err := d.SetStruct("Span", c.span); err != nil {
		return err
	}
	d.SetInt64("MediaFrameOffset", c.mediaOffset)
	if err := c.data.WriteTo(d.CreateDict("AutomationData")); err != nil {
		return err
	}
	return c.effectStack.writeTo(d)
}

// ReadFrom loads the common clip fields. A missing display name falls back
// to the kind; a missing span is an error.
func (c *ClipBase) ReadFrom(d *persist.Dict) error {
	c.effectStack.clear()
	if err := readID(d, &c.id); err != nil {
		return err
	}
	name, err := d.StringOr("DisplayName", c.kind)
	if err != nil {
		return err
	}
	c.name = name
	var span FrameSpan
	if err := d.Struct("Span", &span); err != nil {
		return fmt.Errorf("timeline: clip span: %w", err)
	}
	if err := span.Validate(); err != nil {
		return err
	}
	if c.track.Value() != nil {
		if err := c.SetSpan(span); err != nil {
			return err
		}
	} else {
		c.span = span
	}
	if c.mediaOffset, err = d.Int64Or("MediaFrameOffset", 0); err != nil {
		return err
	}
	if ad, err := d.DictOr("AutomationData"); err != nil {
		return err
	} else if ad != nil {
		if err := c.data.ReadFrom(ad); err != nil {
			return err
		}
	}
	return c.effectStack.readFrom(d, c.env)
}

// stripIDs removes the IDs of a stored clip and its effects so that reading
// it produces fresh ones.
func stripIDs(d *persist.Dict) {
	d.Delete("ID")
	if list, err := d.ListOr("Effects"); err == nil {
		if dicts, err := list.Dicts(); err == nil {
			for _, ed := range dicts {
				ed.Delete("ID")
			}
		}
	}
}

// NewClip creates a detached clip of the given kind.
func NewClip(kind string, env *Env) (Clip, error) {
	switch kind {
	case KindShapeClip:
		return NewShapeClip(env), nil
	case KindTimecodeClip:
		return NewTimecodeClip(env), nil
	case KindImageClip:
		return NewImageClip(env), nil
	case KindTextClip:
		return NewTextClip(env), nil
	case KindAVMediaClip:
		return NewAVMediaClip(env), nil
	case KindAudioClip:
		return NewAudioClip(env), nil
	default:
		return nil, fmt.Errorf("%w: clip %q", ErrUnknownKind, kind)
	}
}

// CutAt splits clip at offset frames from its start. The clip keeps
// [begin, begin+offset) and the returned clone covers the rest; when the
// clip is on a track the clone is inserted right after it.
func CutAt(clip Clip, offset int64) (Clip, error) {
	span := clip.Span()
	if offset <= 0 || offset >= span.Duration {
		return nil, fmt.Errorf("%w: %d not in (0, %d)", ErrInvalidCutOffset, offset, span.Duration)
	}
	clone, err := clip.Clone()
	if err != nil {
		return nil, err
	}
	cloneSpan := FrameSpan{Begin: span.Begin + offset, Duration: span.Duration - offset}
	if err := clone.SetSpan(cloneSpan); err != nil {
		return nil, err
	}
	clone.SetMediaFrameOffset(clip.MediaFrameOffset() + offset)
	if err := clip.SetSpan(FrameSpan{Begin: span.Begin, Duration: offset}); err != nil {
		return nil, err
	}
	if t := clip.Track(); t != nil {
		i := t.IndexOf(clip)
		if err := t.InsertClip(i+1, clone); err != nil {
			return nil, err
		}
	}
	return clone, nil
}
