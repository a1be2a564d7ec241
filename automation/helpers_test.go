package automation

import "testing"

var (
	testBaseType  = NewOwnerType("TestBase", nil)
	testOwnerType = NewOwnerType("TestOwner", testBaseType)
	otherType     = NewOwnerType("Other", nil)
)

// testOwner is a minimal automatable owner with one field per data type.
type testOwner struct {
	data *Data

	opacity float32
	speed   float64
	count   int64
	visible bool
	pos     Vector2

	playHead    int64
	hasPlayHead bool
	invalidated int
	modified    int
}

func (o *testOwner) OwnerType() *OwnerType           { return testOwnerType }
func (o *testOwner) AutomationData() *Data           { return o.data }
func (o *testOwner) RelativePlayHead() (int64, bool) { return o.playHead, o.hasPlayHead }
func (o *testOwner) InvalidateRender()               { o.invalidated++ }
func (o *testOwner) MarkModified()                   { o.modified++ }

type testParams struct {
	reg                                 *Registry
	opacity, speed, count, visible, pos *Parameter
}

func newTestParams(t *testing.T) *testParams {
	t.Helper()
	reg := NewRegistry()
	must := func(p *Parameter, err error) *Parameter {
		t.Helper()
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		return p
	}
	tp := &testParams{reg: reg}
	tp.opacity = must(RegisterFloat(reg, testBaseType, Key{"TestBase", "Opacity"},
		FloatRangeDescriptor(1, 0, 1), FlagAffectsRender,
		Accessor[*testOwner, float32]{
			Get: func(o *testOwner) float32 { return o.opacity },
			Set: func(o *testOwner, v float32) { o.opacity = v },
		}))
	tp.speed = must(RegisterDouble(reg, testOwnerType, Key{"TestOwner", "Speed"},
		DoubleDescriptor(0), FlagModifiesProject,
		Accessor[*testOwner, float64]{
			Get: func(o *testOwner) float64 { return o.speed },
			Set: func(o *testOwner, v float64) { o.speed = v },
		}))
	tp.count = must(RegisterLong(reg, testOwnerType, Key{"TestOwner", "Count"},
		LongDescriptor(0), FlagNone,
		Accessor[*testOwner, int64]{
			Get: func(o *testOwner) int64 { return o.count },
			Set: func(o *testOwner, v int64) { o.count = v },
		}))
	tp.visible = must(RegisterBool(reg, testOwnerType, Key{"TestOwner", "Visible"},
		BoolDescriptor(false), FlagNone,
		Accessor[*testOwner, bool]{
			Get: func(o *testOwner) bool { return o.visible },
			Set: func(o *testOwner, v bool) { o.visible = v },
		}))
	tp.pos = must(RegisterVector2(reg, testOwnerType, Key{"TestOwner", "Position"},
		Vector2Descriptor(Vector2{}), FlagNone,
		Accessor[*testOwner, Vector2]{
			Get: func(o *testOwner) Vector2 { return o.pos },
			Set: func(o *testOwner, v Vector2) { o.pos = v },
		}))
	return tp
}

func (tp *testParams) newOwner() *testOwner {
	o := &testOwner{}
	o.data = NewData(o, tp.reg)
	return o
}

// addKeys inserts keyframes built from (frame, value) pairs.
func addKeys(t *testing.T, s *Sequence, keys ...*KeyFrame) {
	t.Helper()
	for _, k := range keys {
		if _, err := s.AddKeyFrame(k); err != nil {
			t.Fatalf("AddKeyFrame(%v) = %v", k, err)
		}
	}
}
