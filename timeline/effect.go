package timeline

import (
	"fmt"
	"slices"

	"github.com/go-audio/audio"
	"github.com/google/uuid"

	"github.com/gogpu/nle"
	"github.com/gogpu/nle/automation"
	"github.com/gogpu/nle/internal/event"
	"github.com/gogpu/nle/persist"
	"github.com/gogpu/nle/render"
)

// Effect kinds.
const (
	KindMotionEffect     = "MotionEffect"
	KindBrightnessEffect = "BrightnessEffect"
	KindGainEffect       = "GainEffect"
)

// Effect is an automatable processing step attached to a clip or track.
// An effect is created for one holder and keeps that holder's ID for its
// whole life.
type Effect interface {
	automation.Owner
	ID() uuid.UUID
	Kind() string
	DisplayName() string
	SetDisplayName(name string)
	IsEnabled() bool
	SetEnabled(enabled bool)
	// OwnerID is the ID of the clip or track the effect was created for.
	OwnerID() uuid.UUID
	// Holder returns the clip or track currently holding the effect.
	Holder() EffectHolder
	WriteTo(d *persist.Dict) error
	ReadFrom(d *persist.Dict) error

	effectBase() *EffectBase
}

// VideoEffect processes a video track render around the clip draw.
type VideoEffect interface {
	Effect
	// PrepareEffect snapshots the effect for a render of the current frame.
	PrepareEffect(pc *PrepareContext) EffectFrame
}

// EffectFrame is the render-side snapshot of a video effect.
type EffectFrame interface {
	// PreProcess runs before the content is drawn. It may change the
	// canvas transform.
	PreProcess(c render.Canvas, rc *RenderContext) error
	// PostProcess runs after the content is drawn.
	PostProcess(c render.Canvas, rc *RenderContext) error
}

// AudioEffect processes rendered audio samples.
type AudioEffect interface {
	Effect
	PrepareAudioEffect(pc *PrepareContext) AudioEffectFrame
}

// AudioEffectFrame is the render-side snapshot of an audio effect.
type AudioEffectFrame interface {
	Process(buf *audio.FloatBuffer)
}

// EffectHolder is a clip or track holding an ordered list of effects.
type EffectHolder interface {
	ID() uuid.UUID
	Kind() string
	Effects() []Effect
	EffectCount() int
	AcceptsEffect(e Effect) bool
	AddEffect(e Effect) error
	InsertEffect(i int, e Effect) error
	RemoveEffect(e Effect) bool
	RemoveEffectAt(i int) (Effect, error)
	MoveEffect(from, to int) error
	OnEffectAdded(fn func(EffectEvent)) (remove func())
	OnEffectRemoved(fn func(EffectEvent)) (remove func())
	OnEffectMoved(fn func(EffectMove)) (remove func())
}

// EffectEvent describes an effect added to or removed from a holder.
type EffectEvent struct {
	Holder EffectHolder
	Effect Effect
	Index  int
}

// EffectMove describes an effect moved within its holder.
type EffectMove struct {
	Holder   EffectHolder
	Effect   Effect
	From, To int
}

// effectHost is the holder side the stack calls back into.
type effectHost interface {
	EffectHolder
	automation.Owner
}

// effectStack implements the effect list of a clip or track.
type effectStack struct {
	host    effectHost
	accepts func(Effect) bool
	list    []Effect

	added   event.List[EffectEvent]
	removed event.List[EffectEvent]
	moved   event.List[EffectMove]
}

// Effects returns the effects in processing order.
func (s *effectStack) Effects() []Effect {
	out := make([]Effect, len(s.list))
	copy(out, s.list)
	return out
}

// EffectCount returns the number of effects.
func (s *effectStack) EffectCount() int { return len(s.list) }

// AcceptsEffect reports whether e may be inserted.
func (s *effectStack) AcceptsEffect(e Effect) bool {
	return e != nil && s.accepts(e)
}

// AddEffect appends e.
func (s *effectStack) AddEffect(e Effect) error {
	return s.InsertEffect(len(s.list), e)
}

// InsertEffect inserts e at i. The effect must have been created for this
// holder.
func (s *effectStack) InsertEffect(i int, e Effect) error {
	if !s.AcceptsEffect(e) {
		return &EffectTypeError{Holder: s.host.Kind(), Effect: effectKind(e)}
	}
	if i < 0 || i > len(s.list) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(s.list))
	}
	if e.OwnerID() != s.host.ID() {
		nle.Invariant("InsertEffect", "effect %s belongs to %s, not %s", e.ID(), e.OwnerID(), s.host.ID())
	}
	b := e.effectBase()
	if b.holder != nil {
		return fmt.Errorf("%w: %s", ErrEffectAttached, e.ID())
	}
	s.list = slices.Insert(s.list, i, e)
	b.holder = s.host
	b.data.UpdateAll()
	s.added.Fire(EffectEvent{Holder: s.host, Effect: e, Index: i})
	s.host.InvalidateRender()
	s.host.MarkModified()
	return nil
}

// RemoveEffect removes e and reports whether it was present.
func (s *effectStack) RemoveEffect(e Effect) bool {
	for i, cur := range s.list {
		if cur == e {
			_, _ = s.RemoveEffectAt(i)
			return true
		}
	}
	return false
}

// RemoveEffectAt removes and returns the effect at i.
func (s *effectStack) RemoveEffectAt(i int) (Effect, error) {
	if i < 0 || i >= len(s.list) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(s.list))
	}
	e := s.list[i]
	s.checkOwner(e)
	s.list = slices.Delete(s.list, i, i+1)
	e.effectBase().holder = nil
	s.removed.Fire(EffectEvent{Holder: s.host, Effect: e, Index: i})
	s.host.InvalidateRender()
	s.host.MarkModified()
	return e, nil
}

// MoveEffect moves the effect at from to index to.
func (s *effectStack) MoveEffect(from, to int) error {
	n := len(s.list)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: move %d to %d of %d", ErrIndexOutOfRange, from, to, n)
	}
	if from == to {
		return nil
	}
	e := s.list[from]
	s.checkOwner(e)
	s.list = slices.Insert(slices.Delete(s.list, from, from+1), to, e)
	s.moved.Fire(EffectMove{Holder: s.host, Effect: e, From: from, To: to})
	s.host.InvalidateRender()
	s.host.MarkModified()
	return nil
}

// OnEffectAdded registers fn for effect insertions.
func (s *effectStack) OnEffectAdded(fn func(EffectEvent)) (remove func()) { return s.added.Add(fn) }

// OnEffectRemoved registers fn for effect removals.
func (s *effectStack) OnEffectRemoved(fn func(EffectEvent)) (remove func()) {
	return s.removed.Add(fn)
}

// OnEffectMoved registers fn for effect moves.
func (s *effectStack) OnEffectMoved(fn func(EffectMove)) (remove func()) { return s.moved.Add(fn) }

func (s *effectStack) checkOwner(e Effect) {
	if e.OwnerID() != s.host.ID() || e.effectBase().holder != s.host {
		nle.Invariant("effect stack", "effect %s is stored in %s but owned by %s", e.ID(), s.host.ID(), e.OwnerID())
	}
}

// updateAll pushes every effect's automation at the holder's play head.
func (s *effectStack) updateAll() {
	for _, e := range s.list {
		e.AutomationData().UpdateAll()
	}
}

// destroy detaches every effect.
func (s *effectStack) destroy() {
	for _, e := range s.list {
		e.effectBase().holder = nil
	}
	s.list = nil
	s.added.Clear()
	s.removed.Clear()
	s.moved.Clear()
}

func (s *effectStack) writeTo(d *persist.Dict) error {
	list := d.CreateList("Effects")
	for _, e := range s.list {
		ed := list.CreateDict()
		if err := e.WriteTo(ed); err != nil {
			return fmt.Errorf("timeline: write effect %s: %w", e.ID(), err)
		}
	}
	return nil
}

// clear removes every effect, last first. It must run while the host still
// carries the ID its effects are owned by.
func (s *effectStack) clear() {
	for len(s.list) > 0 {
		_, _ = s.RemoveEffectAt(len(s.list) - 1)
	}
}

// readFrom loads stored effects, created for the host, into a cleared stack.
func (s *effectStack) readFrom(d *persist.Dict, env *Env) error {
	list, err := d.ListOr("Effects")
	if err != nil {
		return err
	}
	dicts, err := list.Dicts()
	if err != nil {
		return err
	}
	for _, ed := range dicts {
		kind, err := ed.StringValue("Kind")
		if err != nil {
			return err
		}
		e, err := NewEffect(kind, env, s.host.ID())
		if err != nil {
			return err
		}
		if err := e.ReadFrom(ed); err != nil {
			return fmt.Errorf("timeline: read %s: %w", kind, err)
		}
		if err := s.AddEffect(e); err != nil {
			return err
		}
	}
	return nil
}

func effectKind(e Effect) string {
	if e == nil {
		return "<nil>"
	}
	return e.Kind()
}

// EffectBase holds the state shared by every effect.
type EffectBase struct {
	self      Effect
	env       *Env
	kind      string
	ownerType *automation.OwnerType
	id        uuid.UUID
	ownerID   uuid.UUID
	holder    effectHost
	name      string
	enabled   bool
	data      *automation.Data
}

func (b *EffectBase) init(self Effect, env *Env, kind string, t *automation.OwnerType, owner uuid.UUID) {
	b.self = self
	b.env = env
	b.kind = kind
	b.ownerType = t
	b.id = uuid.New()
	b.ownerID = owner
	b.name = kind
	b.enabled = true
	b.data = automation.NewData(self, env.Registry)
	b.data.UpdateAll()
}

func (b *EffectBase) effectBase() *EffectBase { return b }

// ID returns the effect's unique ID.
func (b *EffectBase) ID() uuid.UUID { return b.id }

// Kind returns the effect kind.
func (b *EffectBase) Kind() string { return b.kind }

// DisplayName returns the user-visible name.
func (b *EffectBase) DisplayName() string { return b.name }

// SetDisplayName sets the user-visible name.
func (b *EffectBase) SetDisplayName(name string) {
	if b.name != name {
		b.name = name
		b.MarkModified()
	}
}

// IsEnabled reports whether the effect runs.
func (b *EffectBase) IsEnabled() bool { return b.enabled }

// SetEnabled turns the effect on or off.
func (b *EffectBase) SetEnabled(enabled bool) {
	if b.enabled != enabled {
		b.enabled = enabled
		b.InvalidateRender()
		b.MarkModified()
	}
}

// OwnerID returns the ID of the holder the effect was created for.
func (b *EffectBase) OwnerID() uuid.UUID { return b.ownerID }

// Holder returns the current holder, or nil.
func (b *EffectBase) Holder() EffectHolder {
	if b.holder == nil {
		return nil
	}
	return b.holder
}

// OwnerType implements automation.Owner.
func (b *EffectBase) OwnerType() *automation.OwnerType { return b.ownerType }

// AutomationData implements automation.Owner.
func (b *EffectBase) AutomationData() *automation.Data { return b.data }

// RelativePlayHead implements automation.Owner using the holder's play
// head.
func (b *EffectBase) RelativePlayHead() (int64, bool) {
	if b.holder == nil {
		return 0, false
	}
	return b.holder.RelativePlayHead()
}

// InvalidateRender implements automation.Owner.
func (b *EffectBase) InvalidateRender() {
	if b.holder != nil {
		b.holder.InvalidateRender()
	}
}

// MarkModified implements automation.Owner.
func (b *EffectBase) MarkModified() {
	if b.holder != nil {
		b.holder.MarkModified()
	}
}

// WriteTo stores the common effect fields.
func (b *EffectBase) WriteTo(d *persist.Dict) error {
	d.SetString("Kind", b.kind)
	d.SetString("ID", b.id.String())
	d.SetString("DisplayName", b.name)
	d.SetBool("IsEnabled", b.enabled)
	return b.data.WriteTo(d.CreateDict("AutomationData"))
}

// ReadFrom loads the common effect fields. A missing ID keeps the current
// one.
func (b *EffectBase) ReadFrom(d *persist.Dict) error {
	if err := readID(d, &b.id); err != nil {
		return err
	}
	name, err := d.StringOr("DisplayName", b.kind)
	if err != nil {
		return err
	}
	b.name = name
	if b.enabled, err = d.BoolOr("IsEnabled", true); err != nil {
		return err
	}
	ad, err := d.DictOr("AutomationData")
	if err != nil || ad == nil {
		return err
	}
	return b.data.ReadFrom(ad)
}

// NewEffect creates an effect of the given kind for the holder with ID
// owner.
func NewEffect(kind string, env *Env, owner uuid.UUID) (Effect, error) {
	switch kind {
	case KindMotionEffect:
		return NewMotionEffect(env, owner), nil
	case KindBrightnessEffect:
		return NewBrightnessEffect(env, owner), nil
	case KindGainEffect:
		return NewGainEffect(env, owner), nil
	default:
		return nil, fmt.Errorf("%w: effect %q", ErrUnknownKind, kind)
	}
}

// readID parses the optional "ID" field into id.
func readID(d *persist.Dict, id *uuid.UUID) error {
	s, err := d.StringOr("ID", "")
	if err != nil || s == "" {
		return err
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("timeline: invalid id %q: %w", s, err)
	}
	*id = parsed
	return nil
}
