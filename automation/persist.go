package automation

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/gogpu/nle/persist"
)

func writeValue(d *persist.Dict, name string, v Value) error {
	switch v.typ {
	case TypeFloat, TypeDouble:
		d.SetFloat64(name, v.num)
	case TypeLong:
		d.SetInt64(name, v.i)
	case TypeBool:
		d.SetBool(name, v.b)
	case TypeVector2:
		return d.SetStruct(name, v.vec)
	}
	return nil
}

func readValue(d *persist.Dict, name string, t DataType) (Value, error) {
	switch t {
	case TypeFloat:
		f, err := d.Float64(name)
		return Float(float32(f)), err
	case TypeDouble:
		f, err := d.Float64(name)
		return Double(f), err
	case TypeLong:
		i, err := d.Int64(name)
		return Long(i), err
	case TypeBool:
		b, err := d.Bool(name)
		return Bool(b), err
	case TypeVector2:
		var v Vector2
		err := d.Struct(name, &v)
		return Vec2(v), err
	}
	return Value{}, fmt.Errorf("%w: %s", ErrDataTypeMismatch, t)
}

func (k *KeyFrame) writeTo(d *persist.Dict) error {
	d.SetInt64("Time", k.frame)
	if err := writeValue(d, "Value", k.value); err != nil {
		return err
	}
	if k.curve != 0 {
		d.SetFloat64("Curve", k.curve)
	}
	return nil
}

func readKeyFrame(d *persist.Dict, t DataType) (*KeyFrame, error) {
	frame, err := d.Int64("Time")
	if err != nil {
		return nil, err
	}
	if frame < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeFrame, frame)
	}
	v, err := readValue(d, "Value", t)
	if err != nil {
		return nil, err
	}
	curve, err := d.Float64Or("Curve", 0)
	if err != nil {
		return nil, err
	}
	if curve < -1 || curve > 1 {
		return nil, fmt.Errorf("%w: %g", ErrInvalidCurve, curve)
	}
	return &KeyFrame{frame: frame, value: v, curve: curve}, nil
}

// WriteTo stores the sequence: data type, override state, the default
// keyframe and the keyframe list.
func (s *Sequence) WriteTo(d *persist.Dict) error {
	d.SetInt("DataType", int(s.param.desc.Type))
	d.SetBool("IsOverrideEnabled", s.override)
	if err := s.def.writeTo(d.CreateDict("DefaultKeyFrame")); err != nil {
		return err
	}
	list := d.CreateList("KeyFrames")
	for _, k := range s.keyFrames {
		if err := k.writeTo(list.CreateDict()); err != nil {
			return err
		}
	}
	return nil
}

// ReadFrom replaces the sequence's state with the stored one. Keyframes
// are sorted by frame in case the stored list is not.
func (s *Sequence) ReadFrom(d *persist.Dict) error {
	t, err := d.Int64("DataType")
	if err != nil {
		return err
	}
	if DataType(t) != s.param.desc.Type {
		return fmt.Errorf("%w: stored %s, want %s for %s", ErrDataTypeMismatch, DataType(t), s.param.desc.Type, s.param.key)
	}
	override, err := d.BoolOr("IsOverrideEnabled", false)
	if err != nil {
		return err
	}
	defDict, err := d.Dict("DefaultKeyFrame")
	if err != nil {
		return err
	}
	def, err := readKeyFrame(defDict, s.param.desc.Type)
	if err != nil {
		return fmt.Errorf("%s default keyframe: %w", s.param.key, err)
	}
	list, err := d.ListOr("KeyFrames")
	if err != nil {
		return err
	}
	dicts, err := list.Dicts()
	if err != nil {
		return err
	}
	frames := make([]*KeyFrame, 0, len(dicts))
	for i, kd := range dicts {
		k, err := readKeyFrame(kd, s.param.desc.Type)
		if err != nil {
			return fmt.Errorf("%s keyframe %d: %w", s.param.key, i, err)
		}
		if s.param.desc.OutOfRange(k.value) {
			return fmt.Errorf("%s keyframe %d: %w: %s", s.param.key, i, ErrValueOutOfRange, k.value)
		}
		frames = append(frames, k)
	}
	slices.SortStableFunc(frames, func(a, b *KeyFrame) int { return cmp.Compare(a.frame, b.frame) })

	s.Clear()
	s.override = override
	s.def.value = def.value
	s.def.curve = def.curve
	for _, k := range frames {
		k.seq = s.self
	}
	s.keyFrames = frames
	return nil
}

// CopyTo loads this sequence's state into dst, which must drive the same
// parameter.
func (s *Sequence) CopyTo(dst *Sequence) error {
	if s.param != dst.param {
		return fmt.Errorf("automation: cannot copy %s into %s", s.param.key, dst.param.key)
	}
	d := persist.NewDict()
	if err := s.WriteTo(d); err != nil {
		return err
	}
	return dst.ReadFrom(d)
}

// WriteTo stores every sequence keyed by its parameter id.
func (d *Data) WriteTo(out *persist.Dict) error {
	if d.activeID != "" {
		out.SetString("ActiveKeyFullId", d.activeID)
	}
	list := out.CreateList("Sequences")
	for _, s := range d.sequences {
		sd := list.CreateDict()
		sd.SetString("KeyId", s.param.key.String())
		if err := s.WriteTo(sd); err != nil {
			return err
		}
	}
	return nil
}

// ReadFrom loads stored sequences, then pushes the resulting values into
// the owner. Unknown or inapplicable parameter ids are errors.
func (d *Data) ReadFrom(in *persist.Dict) error {
	active, err := in.StringOr("ActiveKeyFullId", "")
	if err != nil {
		return err
	}
	d.activeID = active

	list, err := in.ListOr("Sequences")
	if err != nil {
		return err
	}
	dicts, err := list.Dicts()
	if err != nil {
		return err
	}
	for _, sd := range dicts {
		id, err := sd.StringValue("KeyId")
		if err != nil {
			return err
		}
		p, err := d.registry.LookupID(id)
		if err != nil {
			return err
		}
		s := d.byParam[p]
		if s == nil {
			return fmt.Errorf("%w: %s on %s", ErrNotApplicable, id, d.owner.OwnerType())
		}
		if err := s.ReadFrom(sd); err != nil {
			return err
		}
	}
	d.UpdateAll()
	return nil
}
