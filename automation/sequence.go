package automation

import (
	"fmt"
	"slices"
	"sort"
	"weak"

	"github.com/gogpu/nle"
	"github.com/gogpu/nle/internal/event"
)

// KeyFrameEvent describes a keyframe added to or removed from a sequence.
type KeyFrameEvent struct {
	Sequence *Sequence
	KeyFrame *KeyFrame
	Index    int
}

// Sequence is the ordered keyframe set, plus a default keyframe, that drives
// one parameter on one owner.
//
// Keyframes are kept sorted by frame; keyframes sharing a frame keep their
// insertion order. The default keyframe supplies the value when the sequence
// has no keyframes, when override mode is enabled, and for negative frames.
type Sequence struct {
	data      *Data
	param     *Parameter
	self      weak.Pointer[Sequence]
	keyFrames []*KeyFrame
	def       *KeyFrame
	override  bool
	changing  bool

	keyFrameAdded    event.List[KeyFrameEvent]
	keyFrameRemoved  event.List[KeyFrameEvent]
	overrideChanged  event.List[*Sequence]
	parameterChanged event.List[*Sequence]
}

func newSequence(data *Data, param *Parameter) *Sequence {
	s := &Sequence{data: data, param: param}
	s.self = weak.Make(s)
	s.def = param.NewKeyFrame(0)
	s.def.seq = s.self
	return s
}

// Parameter returns the parameter the sequence drives.
func (s *Sequence) Parameter() *Parameter { return s.param }

// Data returns the automation data that owns the sequence.
func (s *Sequence) Data() *Data { return s.data }

// DataType returns the parameter's data type.
func (s *Sequence) DataType() DataType { return s.param.desc.Type }

// DefaultKeyFrame returns the always-present default keyframe.
func (s *Sequence) DefaultKeyFrame() *KeyFrame { return s.def }

// Len returns the number of keyframes, excluding the default keyframe.
func (s *Sequence) Len() int { return len(s.keyFrames) }

// IsEmpty reports whether the sequence has no keyframes.
func (s *Sequence) IsEmpty() bool { return len(s.keyFrames) == 0 }

// KeyFrameAt returns the keyframe at index i.
func (s *Sequence) KeyFrameAt(i int) *KeyFrame { return s.keyFrames[i] }

// KeyFrames returns a copy of the keyframe list.
func (s *Sequence) KeyFrames() []*KeyFrame { return slices.Clone(s.keyFrames) }

// IsOverrideEnabled reports whether override mode is on.
func (s *Sequence) IsOverrideEnabled() bool { return s.override }

// CanAutomate reports whether the sequence interpolates keyframes: override
// mode is off and at least one keyframe exists.
func (s *Sequence) CanAutomate() bool { return !s.override && len(s.keyFrames) > 0 }

// IsValueChanging reports whether UpdateValue is in progress.
func (s *Sequence) IsValueChanging() bool { return s.changing }

// OnKeyFrameAdded registers a handler fired after a keyframe is inserted.
func (s *Sequence) OnKeyFrameAdded(fn func(KeyFrameEvent)) (remove func()) {
	return s.keyFrameAdded.Add(fn)
}

// OnKeyFrameRemoved registers a handler fired after a keyframe is removed.
func (s *Sequence) OnKeyFrameRemoved(fn func(KeyFrameEvent)) (remove func()) {
	return s.keyFrameRemoved.Add(fn)
}

// OnOverrideStateChanged registers a handler fired when override mode is
// toggled.
func (s *Sequence) OnOverrideStateChanged(fn func(*Sequence)) (remove func()) {
	return s.overrideChanged.Add(fn)
}

// OnParameterChanged registers a handler fired after UpdateValue writes the
// effective value into the owner.
func (s *Sequence) OnParameterChanged(fn func(*Sequence)) (remove func()) {
	return s.parameterChanged.Add(fn)
}

// SetOverrideEnabled toggles override mode. When enabling while the owner
// is on a timeline, the value currently produced by the keyframes is copied
// into the default keyframe so the effective value does not jump; the copy
// is a keyframe modification and marks the project modified. Disabling
// override keeps the default keyframe as it is.
func (s *Sequence) SetOverrideEnabled(enabled bool) {
	if s.override == enabled {
		return
	}
	s.override = enabled
	s.overrideChanged.Fire(s)

	playHead, ok := s.data.owner.RelativePlayHead()
	if !ok {
		return
	}
	if enabled {
		if v := s.valueAt(playHead, true); v != s.def.value {
			s.def.value = v
			s.onKeyFrameModified()
			return
		}
	}
	s.UpdateValue(playHead)
}

// indicesForInterpolation locates the keyframes that produce the value at
// frame. b is -1 when a single keyframe applies: an exact match (the last
// keyframe at that frame), or a frame before the first or after the last
// keyframe. ok is false for negative frames and empty sequences.
func (s *Sequence) indicesForInterpolation(frame int64) (a, b int, ok bool) {
	n := len(s.keyFrames)
	if frame < 0 || n == 0 {
		return -1, -1, false
	}
	// First keyframe strictly after frame.
	i := sort.Search(n, func(i int) bool { return s.keyFrames[i].frame > frame })
	switch {
	case i > 0 && s.keyFrames[i-1].frame == frame:
		return i - 1, -1, true
	case i == 0:
		return 0, -1, true
	case i == n:
		return n - 1, -1, true
	}
	return i - 1, i, true
}

func (s *Sequence) valueAt(frame int64, ignoreOverride bool) Value {
	if ignoreOverride || !s.override {
		if a, b, ok := s.indicesForInterpolation(frame); ok {
			ka := s.keyFrames[a]
			if b < 0 {
				return ka.value
			}
			kb := s.keyFrames[b]
			return interpolate(ka.value, kb.value, lerpFactor(frame, ka.frame, kb.frame, ka.curve))
		}
	}
	return s.def.value
}

// Value returns the effective value at frame.
func (s *Sequence) Value(frame int64) Value {
	return s.valueAt(frame, false)
}

// ValueIgnoringOverride returns the value the keyframes produce at frame,
// even when override mode is on.
func (s *Sequence) ValueIgnoringOverride(frame int64) Value {
	return s.valueAt(frame, true)
}

func (s *Sequence) mustBe(t DataType, op string) {
	if s.param.desc.Type != t {
		nle.Invariant(op, "sequence %s holds %s values", s.param.key, s.param.desc.Type)
	}
}

// FloatValue returns the effective float value at frame.
func (s *Sequence) FloatValue(frame int64) float32 {
	s.mustBe(TypeFloat, "FloatValue")
	return s.Value(frame).Float()
}

// DoubleValue returns the effective double value at frame.
func (s *Sequence) DoubleValue(frame int64) float64 {
	s.mustBe(TypeDouble, "DoubleValue")
	return s.Value(frame).Double()
}

// LongValue returns the effective long value at frame.
func (s *Sequence) LongValue(frame int64) int64 {
	s.mustBe(TypeLong, "LongValue")
	return s.Value(frame).Long()
}

// BoolValue returns the effective boolean value at frame.
func (s *Sequence) BoolValue(frame int64) bool {
	s.mustBe(TypeBool, "BoolValue")
	return s.Value(frame).Bool()
}

// Vector2Value returns the effective vector value at frame.
func (s *Sequence) Vector2Value(frame int64) Vector2 {
	s.mustBe(TypeVector2, "Vector2Value")
	return s.Value(frame).Vector2()
}

// UpdateValue writes the effective value at frame into the owner's live
// field, then fires ParameterChanged on the sequence and on the automation
// data. A negative frame resets the field to the default keyframe's value.
//
// A handler that triggers another UpdateValue on the same sequence while the
// first is in progress is a programming error and panics.
func (s *Sequence) UpdateValue(frame int64) {
	if s.changing {
		nle.Invariant("UpdateValue", "re-entrant automation update of %s", s.param.key)
	}
	s.changing = true
	defer func() { s.changing = false }()

	owner := s.data.owner
	s.param.set(owner, s.valueAt(frame, false))
	s.parameterChanged.Fire(s)
	s.data.parameterChanged.Fire(s)
	if s.param.flags&FlagAffectsRender != 0 {
		owner.InvalidateRender()
	}
}

// UpdateValueAtPlayHead updates the value at the owner's relative play
// head. When the owner has no play head the default value is applied if
// useDefault is set.
func (s *Sequence) UpdateValueAtPlayHead(useDefault bool) {
	if playHead, ok := s.data.owner.RelativePlayHead(); ok {
		s.UpdateValue(playHead)
	} else if useDefault {
		s.UpdateValue(-1)
	}
}

// IndexOf returns the index of k, or -1.
func (s *Sequence) IndexOf(k *KeyFrame) int {
	lo := sort.Search(len(s.keyFrames), func(i int) bool { return s.keyFrames[i].frame >= k.frame })
	for i := lo; i < len(s.keyFrames) && s.keyFrames[i].frame == k.frame; i++ {
		if s.keyFrames[i] == k {
			return i
		}
	}
	return -1
}

// LastFrameExactlyAt returns the index of the last keyframe at frame, or -1.
func (s *Sequence) LastFrameExactlyAt(frame int64) int {
	i := sort.Search(len(s.keyFrames), func(i int) bool { return s.keyFrames[i].frame > frame })
	if i > 0 && s.keyFrames[i-1].frame == frame {
		return i - 1
	}
	return -1
}

// AddKeyFrame inserts a detached keyframe after every keyframe at or before
// its frame and returns its index.
func (s *Sequence) AddKeyFrame(k *KeyFrame) (int, error) {
	if k.frame < 0 {
		return -1, fmt.Errorf("%w: %d", ErrNegativeFrame, k.frame)
	}
	if k.value.typ != s.param.desc.Type {
		return -1, fmt.Errorf("%w: got %s, want %s", ErrDataTypeMismatch, k.value.typ, s.param.desc.Type)
	}
	if k.Sequence() != nil {
		return -1, ErrKeyFrameOwned
	}
	if s.param.desc.OutOfRange(k.value) {
		return -1, fmt.Errorf("%w: %s for %s", ErrValueOutOfRange, k.value, s.param.key)
	}
	return s.insert(k), nil
}

// AddNewKeyFrame creates a keyframe at frame holding the parameter default
// and inserts it.
func (s *Sequence) AddNewKeyFrame(frame int64) (*KeyFrame, int, error) {
	if frame < 0 {
		return nil, -1, fmt.Errorf("%w: %d", ErrNegativeFrame, frame)
	}
	k := s.param.NewKeyFrame(frame)
	return k, s.insert(k), nil
}

// GetOrCreateKeyFrameAt returns the last keyframe at frame, creating one if
// none exists. A created keyframe holds the value the sequence currently
// produces at frame when assignCurrent is set, otherwise the default.
func (s *Sequence) GetOrCreateKeyFrameAt(frame int64, assignCurrent bool) (*KeyFrame, int, error) {
	if i := s.LastFrameExactlyAt(frame); i >= 0 {
		return s.keyFrames[i], i, nil
	}
	if frame < 0 {
		return nil, -1, fmt.Errorf("%w: %d", ErrNegativeFrame, frame)
	}
	k := s.param.NewKeyFrame(frame)
	if assignCurrent {
		k.value = s.valueAt(frame, true)
	}
	return k, s.insert(k), nil
}

func (s *Sequence) insertIndex(frame int64) int {
	return sort.Search(len(s.keyFrames), func(i int) bool { return s.keyFrames[i].frame > frame })
}

func (s *Sequence) insert(k *KeyFrame) int {
	if k.Sequence() != nil {
		nle.Invariant("AddKeyFrame", "keyframe at %d already belongs to a sequence", k.frame)
	}
	i := s.insertIndex(k.frame)
	k.seq = s.self
	s.keyFrames = slices.Insert(s.keyFrames, i, k)
	s.keyFrameAdded.Fire(KeyFrameEvent{Sequence: s, KeyFrame: k, Index: i})
	s.onKeyFrameListChanged()
	return i
}

// RemoveKeyFrame removes k and returns its former index.
func (s *Sequence) RemoveKeyFrame(k *KeyFrame) (int, bool) {
	i := s.IndexOf(k)
	if i < 0 {
		return -1, false
	}
	s.RemoveKeyFrameAt(i)
	return i, true
}

// RemoveKeyFrameAt removes the keyframe at index i.
func (s *Sequence) RemoveKeyFrameAt(i int) {
	k := s.keyFrames[i]
	k.seq = weak.Pointer[Sequence]{}
	s.keyFrames = slices.Delete(s.keyFrames, i, i+1)
	s.keyFrameRemoved.Fire(KeyFrameEvent{Sequence: s, KeyFrame: k, Index: i})
	s.onKeyFrameListChanged()
}

// Clear removes every keyframe, last to first.
func (s *Sequence) Clear() {
	for i := len(s.keyFrames) - 1; i >= 0; i-- {
		s.RemoveKeyFrameAt(i)
	}
}

func (s *Sequence) moveKeyFrame(k *KeyFrame, frame int64) {
	i := s.IndexOf(k)
	if i < 0 {
		nle.Invariant("SetFrame", "keyframe at %d not listed in its sequence %s", k.frame, s.param.key)
	}
	s.keyFrames = slices.Delete(s.keyFrames, i, i+1)
	k.frame = frame
	s.keyFrames = slices.Insert(s.keyFrames, s.insertIndex(frame), k)
	s.onKeyFrameModified()
}

func (s *Sequence) onKeyFrameListChanged() {
	s.UpdateValueAtPlayHead(false)
	flags := s.param.flags
	if flags&FlagModifiesProject != 0 {
		s.data.owner.MarkModified()
	}
	if flags&FlagAffectsRender != 0 {
		s.data.owner.InvalidateRender()
	}
}

func (s *Sequence) onKeyFrameModified() {
	s.UpdateValueAtPlayHead(false)
	if s.param.flags&FlagModifiesProject != 0 {
		s.data.owner.MarkModified()
	}
}

func (s *Sequence) String() string {
	return fmt.Sprintf("Sequence(%s, %d keyframes)", s.param.key, len(s.keyFrames))
}
