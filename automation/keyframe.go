package automation

import (
	"fmt"
	"weak"
)

// KeyFrame pins a value to a frame within a sequence. A keyframe belongs to
// at most one sequence; the back-reference is weak so a detached keyframe
// never keeps its former sequence alive.
type KeyFrame struct {
	frame int64
	value Value
	curve float64 // bend in [-1, 1], 0 is linear
	seq   weak.Pointer[Sequence]
}

// NewKeyFrame creates a detached keyframe.
func NewKeyFrame(frame int64, v Value) *KeyFrame {
	return &KeyFrame{frame: frame, value: v}
}

// Frame returns the keyframe time.
func (k *KeyFrame) Frame() int64 { return k.frame }

// Value returns the keyframe value.
func (k *KeyFrame) Value() Value { return k.value }

// Curve returns the interpolation bend towards the next keyframe.
func (k *KeyFrame) Curve() float64 { return k.curve }

// DataType returns the type of the keyframe value.
func (k *KeyFrame) DataType() DataType { return k.value.typ }

// Sequence returns the owning sequence, or nil when detached.
func (k *KeyFrame) Sequence() *Sequence { return k.seq.Value() }

// SetFrame moves the keyframe. An owned keyframe is repositioned so that
// its sequence stays sorted.
func (k *KeyFrame) SetFrame(frame int64) error {
	if frame < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeFrame, frame)
	}
	if frame == k.frame {
		return nil
	}
	if s := k.Sequence(); s != nil && s.def != k {
		s.moveKeyFrame(k, frame)
		return nil
	}
	k.frame = frame
	return nil
}

// SetValue replaces the keyframe value. The value must match the keyframe's
// data type and, when owned, lie within the parameter's range.
func (k *KeyFrame) SetValue(v Value) error {
	if v.typ != k.value.typ {
		return fmt.Errorf("%w: got %s, want %s", ErrDataTypeMismatch, v.typ, k.value.typ)
	}
	s := k.Sequence()
	if s != nil && s.param.desc.OutOfRange(v) {
		return fmt.Errorf("%w: %s for %s", ErrValueOutOfRange, v, s.param.key)
	}
	if v == k.value {
		return nil
	}
	k.value = v
	if s != nil {
		s.onKeyFrameModified()
	}
	return nil
}

// SetCurve sets the interpolation bend.
func (k *KeyFrame) SetCurve(curve float64) error {
	if curve < -1 || curve > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidCurve, curve)
	}
	if curve == k.curve {
		return nil
	}
	k.curve = curve
	if s := k.Sequence(); s != nil {
		s.onKeyFrameModified()
	}
	return nil
}

func (k *KeyFrame) String() string {
	return fmt.Sprintf("KeyFrame(%d, %s)", k.frame, k.value)
}
