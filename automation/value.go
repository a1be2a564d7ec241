package automation

import (
	"fmt"
	"math"
)

// DataType identifies the type of value an automation sequence holds.
type DataType uint8

// Supported data types.
const (
	TypeFloat DataType = iota
	TypeDouble
	TypeLong
	TypeBool
	TypeVector2
)

func (t DataType) String() string {
	switch t {
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeLong:
		return "long"
	case TypeBool:
		return "bool"
	case TypeVector2:
		return "vector2"
	}
	return fmt.Sprintf("DataType(%d)", t)
}

// Vector2 is a 2D vector value.
type Vector2 struct {
	X, Y float64
}

// V2 is a convenience function to create a Vector2.
func V2(x, y float64) Vector2 {
	return Vector2{X: x, Y: y}
}

// Add returns the sum of two vectors.
func (v Vector2) Add(w Vector2) Vector2 {
	return Vector2{X: v.X + w.X, Y: v.Y + w.Y}
}

// Sub returns the difference of two vectors.
func (v Vector2) Sub(w Vector2) Vector2 {
	return Vector2{X: v.X - w.X, Y: v.Y - w.Y}
}

// Mul returns the vector scaled by a scalar.
func (v Vector2) Mul(s float64) Vector2 {
	return Vector2{X: v.X * s, Y: v.Y * s}
}

// Lerp performs linear interpolation between two vectors.
func (v Vector2) Lerp(w Vector2, t float64) Vector2 {
	return Vector2{X: v.X + t*(w.X-v.X), Y: v.Y + t*(w.Y-v.Y)}
}

// Clamp limits both components to [lo, hi].
func (v Vector2) Clamp(lo, hi Vector2) Vector2 {
	return Vector2{X: math.Min(math.Max(v.X, lo.X), hi.X), Y: math.Min(math.Max(v.Y, lo.Y), hi.Y)}
}

// Value is a tagged automation value.
type Value struct {
	typ DataType
	num float64 // float and double
	i   int64
	b   bool
	vec Vector2
}

// Float returns a float value.
func Float(v float32) Value { return Value{typ: TypeFloat, num: float64(v)} }

// Double returns a double value.
func Double(v float64) Value { return Value{typ: TypeDouble, num: v} }

// Long returns a long value.
func Long(v int64) Value { return Value{typ: TypeLong, i: v} }

// Bool returns a boolean value.
func Bool(v bool) Value { return Value{typ: TypeBool, b: v} }

// Vec2 returns a vector value.
func Vec2(v Vector2) Value { return Value{typ: TypeVector2, vec: v} }

// ZeroValue returns the zero value of a data type.
func ZeroValue(t DataType) Value { return Value{typ: t} }

// Type returns the value's data type.
func (v Value) Type() DataType { return v.typ }

// Float returns the value as float32. Only meaningful for TypeFloat.
func (v Value) Float() float32 { return float32(v.num) }

// Double returns the value as float64. Only meaningful for TypeDouble.
func (v Value) Double() float64 { return v.num }

// Long returns the value as int64. Only meaningful for TypeLong.
func (v Value) Long() int64 { return v.i }

// Bool returns the value as bool. Only meaningful for TypeBool.
func (v Value) Bool() bool { return v.b }

// Vector2 returns the value as a vector. Only meaningful for TypeVector2.
func (v Value) Vector2() Vector2 { return v.vec }

func (v Value) String() string {
	switch v.typ {
	case TypeFloat, TypeDouble:
		return fmt.Sprintf("%s(%g)", v.typ, v.num)
	case TypeLong:
		return fmt.Sprintf("long(%d)", v.i)
	case TypeBool:
		return fmt.Sprintf("bool(%t)", v.b)
	case TypeVector2:
		return fmt.Sprintf("vector2(%g, %g)", v.vec.X, v.vec.Y)
	}
	return "invalid"
}

// interpolate blends a towards b. blend is in [0, 1].
// Longs round half up; booleans switch to b at the midpoint.
func interpolate(a, b Value, blend float64) Value {
	switch a.typ {
	case TypeFloat:
		return Float(float32(a.num + blend*(b.num-a.num)))
	case TypeDouble:
		return Double(a.num + blend*(b.num-a.num))
	case TypeLong:
		x := float64(a.i) + blend*float64(b.i-a.i)
		return Long(int64(math.Floor(x + 0.5)))
	case TypeBool:
		if blend >= 0.5 {
			return b
		}
		return a
	case TypeVector2:
		return Vec2(a.vec.Lerp(b.vec, blend))
	}
	return a
}

// lerpFactor computes the blend between two keyframe times, warped by the
// curve of the first keyframe.
func lerpFactor(frame, frameA, frameB int64, curve float64) float64 {
	span := frameB - frameA
	if span == 0 {
		return 1
	}
	blend := float64(frame-frameA) / float64(span)
	if curve != 0 {
		blend = math.Pow(blend, 1/math.Abs(curve))
	}
	return blend
}
