package automation

import (
	"math"
)

// Descriptor describes the type, default and valid range of a parameter.
type Descriptor struct {
	Type     DataType
	Default  Value
	Min, Max Value
	HasRange bool
}

// FloatDescriptor describes an unbounded float parameter.
func FloatDescriptor(def float32) Descriptor {
	return Descriptor{Type: TypeFloat, Default: Float(def)}
}

// FloatRangeDescriptor describes a float parameter limited to [lo, hi].
func FloatRangeDescriptor(def, lo, hi float32) Descriptor {
	return Descriptor{Type: TypeFloat, Default: Float(def), Min: Float(lo), Max: Float(hi), HasRange: true}
}

// DoubleDescriptor describes an unbounded double parameter.
func DoubleDescriptor(def float64) Descriptor {
	return Descriptor{Type: TypeDouble, Default: Double(def)}
}

// DoubleRangeDescriptor describes a double parameter limited to [lo, hi].
func DoubleRangeDescriptor(def, lo, hi float64) Descriptor {
	return Descriptor{Type: TypeDouble, Default: Double(def), Min: Double(lo), Max: Double(hi), HasRange: true}
}

// LongDescriptor describes an unbounded long parameter.
func LongDescriptor(def int64) Descriptor {
	return Descriptor{Type: TypeLong, Default: Long(def)}
}

// LongRangeDescriptor describes a long parameter limited to [lo, hi].
func LongRangeDescriptor(def, lo, hi int64) Descriptor {
	return Descriptor{Type: TypeLong, Default: Long(def), Min: Long(lo), Max: Long(hi), HasRange: true}
}

// BoolDescriptor describes a boolean parameter.
func BoolDescriptor(def bool) Descriptor {
	return Descriptor{Type: TypeBool, Default: Bool(def)}
}

// Vector2Descriptor describes an unbounded vector parameter.
func Vector2Descriptor(def Vector2) Descriptor {
	return Descriptor{Type: TypeVector2, Default: Vec2(def)}
}

// Vector2RangeDescriptor describes a vector parameter whose components are
// limited to [lo, hi].
func Vector2RangeDescriptor(def, lo, hi Vector2) Descriptor {
	return Descriptor{Type: TypeVector2, Default: Vec2(def), Min: Vec2(lo), Max: Vec2(hi), HasRange: true}
}

// Clamp limits v to the descriptor's range.
func (d Descriptor) Clamp(v Value) Value {
	if !d.HasRange || v.typ != d.Type {
		return v
	}
	switch d.Type {
	case TypeFloat:
		return Float(float32(math.Min(math.Max(v.num, d.Min.num), d.Max.num)))
	case TypeDouble:
		return Double(math.Min(math.Max(v.num, d.Min.num), d.Max.num))
	case TypeLong:
		return Long(min(max(v.i, d.Min.i), d.Max.i))
	case TypeVector2:
		return Vec2(v.vec.Clamp(d.Min.vec, d.Max.vec))
	}
	return v
}

// OutOfRange reports whether v lies outside the descriptor's range.
func (d Descriptor) OutOfRange(v Value) bool {
	if !d.HasRange {
		return false
	}
	switch d.Type {
	case TypeFloat, TypeDouble:
		return v.num < d.Min.num || v.num > d.Max.num
	case TypeLong:
		return v.i < d.Min.i || v.i > d.Max.i
	case TypeVector2:
		return v.vec.X < d.Min.vec.X || v.vec.X > d.Max.vec.X ||
			v.vec.Y < d.Min.vec.Y || v.vec.Y > d.Max.vec.Y
	}
	return false
}
