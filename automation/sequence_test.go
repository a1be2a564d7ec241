package automation

import (
	"errors"
	"math"
	"testing"

	"github.com/gogpu/nle"
)

// =============================================================================
// Interpolation Tests
// =============================================================================

func TestSequence_InterpolationBoundary(t *testing.T) {
	tp := newTestParams(t)
	o := tp.newOwner()
	s := o.data.Sequence(tp.speed)
	s.DefaultKeyFrame().value = Double(-7)
	addKeys(t, s, NewKeyFrame(0, Double(0)), NewKeyFrame(100, Double(10)))

	tests := []struct {
		frame int64
		want  float64
	}{
		{50, 5},
		{-1, -7},
		{-500, -7},
		{150, 10},
		{0, 0},
		{100, 10},
		{25, 2.5},
	}
	for _, tt := range tests {
		if got := s.DoubleValue(tt.frame); got != tt.want {
			t.Errorf("DoubleValue(%d) = %v, want %v", tt.frame, got, tt.want)
		}
	}
}

func TestSequence_FloatInterpolation(t *testing.T) {
	tp := newTestParams(t)
	o := tp.newOwner()
	s := o.data.Sequence(tp.opacity)
	addKeys(t, s, NewKeyFrame(0, Float(0)), NewKeyFrame(100, Float(1)))

	if got := s.FloatValue(50); got != 0.5 {
		t.Errorf("FloatValue(50) = %v, want 0.5", got)
	}
	if got := s.FloatValue(150); got != 1 {
		t.Errorf("FloatValue(150) = %v, want 1", got)
	}
}

func TestSequence_DuplicateTimestamp(t *testing.T) {
	tp := newTestParams(t)
	o := tp.newOwner()
	s := o.data.Sequence(tp.speed)
	addKeys(t, s, NewKeyFrame(50, Double(1)), NewKeyFrame(50, Double(2)))

	if got := s.DoubleValue(50); got != 2 {
		t.Errorf("DoubleValue(50) = %v, want 2 (last one wins)", got)
	}
	if got := s.LastFrameExactlyAt(50); got != 1 {
		t.Errorf("LastFrameExactlyAt(50) = %d, want 1", got)
	}
	// Before and after both clamp to a single keyframe.
	if got := s.DoubleValue(10); got != 1 {
		t.Errorf("DoubleValue(10) = %v, want 1", got)
	}
	if got := s.DoubleValue(90); got != 2 {
		t.Errorf("DoubleValue(90) = %v, want 2", got)
	}
}

func TestSequence_BoolStep(t *testing.T) {
	tp := newTestParams(t)
	o := tp.newOwner()
	s := o.data.Sequence(tp.visible)
	addKeys(t, s, NewKeyFrame(0, Bool(false)), NewKeyFrame(100, Bool(true)))

	if s.BoolValue(49) {
		t.Error("BoolValue(49) = true, want false")
	}
	if !s.BoolValue(50) {
		t.Error("BoolValue(50) = false, want true")
	}
}

func TestSequence_LongRounding(t *testing.T) {
	tp := newTestParams(t)
	o := tp.newOwner()
	s := o.data.Sequence(tp.count)
	addKeys(t, s, NewKeyFrame(0, Long(0)), NewKeyFrame(4, Long(1)), NewKeyFrame(8, Long(-1)))

	// Values between keyframes round half up.
	tests := []struct {
		frame int64
		want  int64
	}{
		{1, 0}, // 0.25
		{2, 1}, // 0.5
		{3, 1}, // 0.75
		{5, 1}, // 0.5
		{6, 0}, // 0
		{7, 0}, // -0.5
	}
	for _, tt := range tests {
		if got := s.LongValue(tt.frame); got != tt.want {
			t.Errorf("LongValue(%d) = %d, want %d", tt.frame, got, tt.want)
		}
	}
}

func TestSequence_Vector2(t *testing.T) {
	tp := newTestParams(t)
	o := tp.newOwner()
	s := o.data.Sequence(tp.pos)
	addKeys(t, s, NewKeyFrame(10, Vec2(V2(0, 100))), NewKeyFrame(20, Vec2(V2(10, 0))))

	got := s.Vector2Value(15)
	if got != (Vector2{5, 50}) {
		t.Errorf("Vector2Value(15) = %v, want {5 50}", got)
	}
}

func TestSequence_CurveBend(t *testing.T) {
	tp := newTestParams(t)
	o := tp.newOwner()
	s := o.data.Sequence(tp.speed)
	k0 := NewKeyFrame(0, Double(0))
	addKeys(t, s, k0, NewKeyFrame(100, Double(1)))

	if err := k0.SetCurve(0.5); err != nil {
		t.Fatal(err)
	}
	// blend^(1/0.5) = 0.5^2
	if got := s.DoubleValue(50); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("DoubleValue(50) with curve 0.5 = %v, want 0.25", got)
	}
	// Sign is ignored.
	_ = k0.SetCurve(-0.5)
	if got := s.DoubleValue(50); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("DoubleValue(50) with curve -0.5 = %v, want 0.25", got)
	}
	if err := k0.SetCurve(2); !errors.Is(err, ErrInvalidCurve) {
		t.Errorf("SetCurve(2) error = %v, want ErrInvalidCurve", err)
	}
}

func TestSequence_EmptyUsesDefault(t *testing.T) {
	tp := newTestParams(t)
	o := tp.newOwner()
	s := o.data.Sequence(tp.opacity)
	if got := s.FloatValue(10); got != 1 {
		t.Errorf("FloatValue(10) on empty = %v, want default 1", got)
	}
	if s.CanAutomate() {
		t.Error("CanAutomate() = true on empty sequence")
	}
}

// =============================================================================
// Override Tests
// =============================================================================

func TestSequence_Override(t *testing.T) {
	tp := newTestParams(t)
	o := tp.newOwner()
	s := o.data.Sequence(tp.speed)
	s.DefaultKeyFrame().value = Double(42)
	addKeys(t, s, NewKeyFrame(0, Double(0)), NewKeyFrame(100, Double(10)))

	before := []float64{s.DoubleValue(0), s.DoubleValue(33), s.DoubleValue(100)}

	states := 0
	s.OnOverrideStateChanged(func(*Sequence) { states++ })
	s.SetOverrideEnabled(true)
	for _, f := range []int64{-5, 0, 33, 100, 1000} {
		if got := s.DoubleValue(f); got != 42 {
			t.Errorf("override DoubleValue(%d) = %v, want 42", f, got)
		}
	}
	if s.CanAutomate() {
		t.Error("CanAutomate() = true in override mode")
	}

	s.SetOverrideEnabled(false)
	after := []float64{s.DoubleValue(0), s.DoubleValue(33), s.DoubleValue(100)}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("value %d after disabling override = %v, want %v", i, after[i], before[i])
		}
	}
	if states != 2 {
		t.Errorf("OverrideStateChanged fired %d times, want 2", states)
	}
}

func TestSequence_OverrideCapturesCurrentValue(t *testing.T) {
	tp := newTestParams(t)
	o := tp.newOwner()
	o.playHead, o.hasPlayHead = 50, true
	s := o.data.Sequence(tp.speed)
	addKeys(t, s, NewKeyFrame(0, Double(0)), NewKeyFrame(100, Double(10)))

	modified := o.modified
	changed := 0
	s.OnParameterChanged(func(*Sequence) { changed++ })
	s.SetOverrideEnabled(true)
	if got := s.DefaultKeyFrame().Value().Double(); got != 5 {
		t.Errorf("default keyframe after override = %v, want 5", got)
	}
	if o.speed != 5 {
		t.Errorf("live field = %v, want 5", o.speed)
	}
	if o.modified != modified+1 || changed != 1 {
		t.Errorf("capture: modified %d times, ParameterChanged %d times, want 1 and 1", o.modified-modified, changed)
	}

	// Disabling keeps the captured default.
	s.SetOverrideEnabled(false)
	if got := s.DefaultKeyFrame().Value().Double(); got != 5 {
		t.Errorf("default keyframe after disabling override = %v, want 5", got)
	}
	if o.speed != 5 {
		t.Errorf("live field after disabling = %v, want 5 from the keyframes", o.speed)
	}
}

// =============================================================================
// Insertion Tests
// =============================================================================

func TestSequence_InsertionOrder(t *testing.T) {
	tp := newTestParams(t)
	o := tp.newOwner()
	s := o.data.Sequence(tp.speed)

	k30 := NewKeyFrame(30, Double(3))
	k10 := NewKeyFrame(10, Double(1))
	k20a := NewKeyFrame(20, Double(2))
	k20b := NewKeyFrame(20, Double(2.5))
	addKeys(t, s, k30, k10, k20a, k20b)

	want := []*KeyFrame{k10, k20a, k20b, k30}
	for i, k := range want {
		if s.KeyFrameAt(i) != k {
			t.Errorf("KeyFrameAt(%d) = %v, want %v", i, s.KeyFrameAt(i), k)
		}
		if got := s.IndexOf(k); got != i {
			t.Errorf("IndexOf(%v) = %d, want %d", k, got, i)
		}
	}
}

func TestSequence_AddKeyFrameErrors(t *testing.T) {
	tp := newTestParams(t)
	a := tp.newOwner()
	b := tp.newOwner()
	sa := a.data.Sequence(tp.speed)
	sb := b.data.Sequence(tp.speed)

	k := NewKeyFrame(5, Double(1))
	addKeys(t, sa, k)

	if _, err := sb.AddKeyFrame(k); !errors.Is(err, ErrKeyFrameOwned) {
		t.Errorf("AddKeyFrame(owned) error = %v, want ErrKeyFrameOwned", err)
	}
	if sb.Len() != 0 || k.Sequence() != sa {
		t.Error("rejected keyframe must not be reparented")
	}
	if _, err := sa.AddKeyFrame(k); !errors.Is(err, ErrKeyFrameOwned) {
		t.Errorf("AddKeyFrame(self-owned) error = %v, want ErrKeyFrameOwned", err)
	}
	def := sa.DefaultKeyFrame()
	if _, err := sb.AddKeyFrame(def); !errors.Is(err, ErrKeyFrameOwned) {
		t.Errorf("AddKeyFrame(default of another sequence) error = %v, want ErrKeyFrameOwned", err)
	}
	if _, err := sa.AddKeyFrame(def); !errors.Is(err, ErrKeyFrameOwned) {
		t.Errorf("AddKeyFrame(own default) error = %v, want ErrKeyFrameOwned", err)
	}
	if sb.Len() != 0 || sa.Len() != 1 || def.Sequence() != sa {
		t.Error("default keyframe must stay with its sequence")
	}
	if _, err := sb.AddKeyFrame(NewKeyFrame(-1, Double(0))); !errors.Is(err, ErrNegativeFrame) {
		t.Errorf("AddKeyFrame(-1) error = %v, want ErrNegativeFrame", err)
	}
	if _, err := sb.AddKeyFrame(NewKeyFrame(1, Float(0))); !errors.Is(err, ErrDataTypeMismatch) {
		t.Errorf("AddKeyFrame(float into double) error = %v, want ErrDataTypeMismatch", err)
	}
	so := b.data.Sequence(tp.opacity)
	if _, err := so.AddKeyFrame(NewKeyFrame(1, Float(2))); !errors.Is(err, ErrValueOutOfRange) {
		t.Errorf("AddKeyFrame(out of range) error = %v, want ErrValueOutOfRange", err)
	}
	if _, _, err := sb.AddNewKeyFrame(-3); !errors.Is(err, ErrNegativeFrame) {
		t.Errorf("AddNewKeyFrame(-3) error = %v, want ErrNegativeFrame", err)
	}
}

func TestSequence_RemoveDetaches(t *testing.T) {
	tp := newTestParams(t)
	a := tp.newOwner()
	b := tp.newOwner()
	sa := a.data.Sequence(tp.speed)
	k := NewKeyFrame(5, Double(1))
	addKeys(t, sa, k)

	var removed []KeyFrameEvent
	sa.OnKeyFrameRemoved(func(e KeyFrameEvent) { removed = append(removed, e) })
	if i, ok := sa.RemoveKeyFrame(k); !ok || i != 0 {
		t.Fatalf("RemoveKeyFrame() = %d, %v", i, ok)
	}
	if k.Sequence() != nil {
		t.Error("removed keyframe still references its sequence")
	}
	if len(removed) != 1 || removed[0].KeyFrame != k {
		t.Errorf("KeyFrameRemoved events = %v", removed)
	}
	// A detached keyframe can move to another sequence.
	addKeys(t, b.data.Sequence(tp.speed), k)
}

func TestSequence_SetFrameKeepsOrder(t *testing.T) {
	tp := newTestParams(t)
	o := tp.newOwner()
	s := o.data.Sequence(tp.speed)
	k0 := NewKeyFrame(0, Double(0))
	k1 := NewKeyFrame(10, Double(1))
	k2 := NewKeyFrame(20, Double(2))
	addKeys(t, s, k0, k1, k2)

	if err := k0.SetFrame(25); err != nil {
		t.Fatal(err)
	}
	want := []*KeyFrame{k1, k2, k0}
	for i, k := range want {
		if s.KeyFrameAt(i) != k {
			t.Errorf("KeyFrameAt(%d) = %v, want %v", i, s.KeyFrameAt(i), k)
		}
	}
	if err := k1.SetFrame(-1); !errors.Is(err, ErrNegativeFrame) {
		t.Errorf("SetFrame(-1) error = %v, want ErrNegativeFrame", err)
	}
}

func TestSequence_GetOrCreateKeyFrameAt(t *testing.T) {
	tp := newTestParams(t)
	o := tp.newOwner()
	s := o.data.Sequence(tp.speed)
	addKeys(t, s, NewKeyFrame(0, Double(0)), NewKeyFrame(100, Double(10)))

	k, i, err := s.GetOrCreateKeyFrameAt(40, true)
	if err != nil {
		t.Fatal(err)
	}
	if i != 1 || k.Value().Double() != 4 {
		t.Errorf("GetOrCreateKeyFrameAt(40) = index %d value %v, want 1, 4", i, k.Value())
	}
	again, _, _ := s.GetOrCreateKeyFrameAt(40, true)
	if again != k {
		t.Error("second GetOrCreateKeyFrameAt(40) created a new keyframe")
	}
	fresh, _, _ := s.GetOrCreateKeyFrameAt(60, false)
	if fresh.Value().Double() != 0 {
		t.Errorf("created without assignCurrent = %v, want default 0", fresh.Value())
	}
}

// =============================================================================
// UpdateValue Tests
// =============================================================================

func TestSequence_UpdateValueWritesField(t *testing.T) {
	tp := newTestParams(t)
	o := tp.newOwner()
	s := o.data.Sequence(tp.opacity)
	addKeys(t, s, NewKeyFrame(0, Float(0)), NewKeyFrame(10, Float(1)))

	var order []string
	s.OnParameterChanged(func(*Sequence) { order = append(order, "sequence") })
	o.data.OnParameterChanged(func(*Sequence) { order = append(order, "data") })

	before := o.invalidated
	s.UpdateValue(5)
	if o.opacity != 0.5 {
		t.Errorf("opacity = %v, want 0.5", o.opacity)
	}
	if len(order) != 2 || order[0] != "sequence" || order[1] != "data" {
		t.Errorf("event order = %v, want [sequence data]", order)
	}
	if o.invalidated != before+1 {
		t.Errorf("InvalidateRender calls = %d, want %d", o.invalidated, before+1)
	}

	s.UpdateValue(-1)
	if o.opacity != 1 {
		t.Errorf("UpdateValue(-1) opacity = %v, want default 1", o.opacity)
	}
}

func TestSequence_UpdateValueReentrant(t *testing.T) {
	tp := newTestParams(t)
	o := tp.newOwner()
	s := o.data.Sequence(tp.speed)
	s.OnParameterChanged(func(seq *Sequence) { seq.UpdateValue(1) })

	defer func() {
		r := recover()
		if _, ok := r.(*nle.InvariantError); !ok {
			t.Fatalf("recover() = %v, want *nle.InvariantError", r)
		}
		if s.IsValueChanging() {
			t.Error("IsValueChanging() = true after panic")
		}
	}()
	s.UpdateValue(0)
	t.Fatal("re-entrant UpdateValue did not panic")
}

func TestSequence_TypedGetterMismatchPanics(t *testing.T) {
	tp := newTestParams(t)
	o := tp.newOwner()
	s := o.data.Sequence(tp.speed)

	defer func() {
		if _, ok := recover().(*nle.InvariantError); !ok {
			t.Error("FloatValue on a double sequence should panic with *nle.InvariantError")
		}
	}()
	s.FloatValue(0)
}

func TestSequence_KeyFrameEditUpdatesValue(t *testing.T) {
	tp := newTestParams(t)
	o := tp.newOwner()
	o.playHead, o.hasPlayHead = 10, true
	s := o.data.Sequence(tp.speed)
	k := NewKeyFrame(0, Double(3))
	addKeys(t, s, k)

	if o.speed != 3 {
		t.Errorf("speed after add = %v, want 3", o.speed)
	}
	if err := k.SetValue(Double(8)); err != nil {
		t.Fatal(err)
	}
	if o.speed != 8 {
		t.Errorf("speed after SetValue = %v, want 8", o.speed)
	}
	if o.modified == 0 {
		t.Error("ModifiesProject parameter did not mark the project modified")
	}
	if err := k.SetValue(Float(1)); !errors.Is(err, ErrDataTypeMismatch) {
		t.Errorf("SetValue(float) error = %v, want ErrDataTypeMismatch", err)
	}
}
