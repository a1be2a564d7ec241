// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Point is a 2D point or vector in canvas coordinates.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Matrix represents a 2D affine transformation matrix.
// It uses a 2x3 matrix in row-major order:
//
//	| a  b  c |
//	| d  e  f |
//
// This represents the transformation:
//
//	x' = a*x + b*y + c
//	y' = d*x + e*y + f
type Matrix struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transformation matrix.
func Identity() Matrix {
	return Matrix{
		A: 1, B: 0, C: 0,
		D: 0, E: 1, F: 0,
	}
}

// Translate creates a translation matrix.
func Translate(x, y float64) Matrix {
	return Matrix{
		A: 1, B: 0, C: x,
		D: 0, E: 1, F: y,
	}
}

// Scale creates a scaling matrix.
func Scale(x, y float64) Matrix {
	return Matrix{
		A: x, B: 0, C: 0,
		D: 0, E: y, F: 0,
	}
}

// Rotate creates a rotation matrix (angle in radians).
func Rotate(angle float64) Matrix {
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	return Matrix{
		A: cos, B: -sin, C: 0,
		D: sin, E: cos, F: 0,
	}
}

// RotateDegrees creates a rotation matrix from an angle in degrees.
func RotateDegrees(deg float64) Matrix {
	return Rotate(deg * math.Pi / 180)
}

// ScaleAbout scales by (x, y) around the pivot point p.
func ScaleAbout(x, y float64, p Point) Matrix {
	return Translate(p.X, p.Y).Multiply(Scale(x, y)).Multiply(Translate(-p.X, -p.Y))
}

// RotateAbout rotates by deg degrees around the pivot point p.
func RotateAbout(deg float64, p Point) Matrix {
	return Translate(p.X, p.Y).Multiply(RotateDegrees(deg)).Multiply(Translate(-p.X, -p.Y))
}

// TransformationMatrix builds the standard media transform: scale about
// scaleOrigin, rotate about rotationOrigin, then translate by position.
func TransformationMatrix(position, scale Point, rotation float64, scaleOrigin, rotationOrigin Point) Matrix {
	return Translate(position.X, position.Y).
		Multiply(ScaleAbout(scale.X, scale.Y, scaleOrigin)).
		Multiply(RotateAbout(rotation, rotationOrigin))
}

// Multiply multiplies two matrices (m * other). The result applies other
// first, then m.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		A: m.A*other.A + m.B*other.D,
		B: m.A*other.B + m.B*other.E,
		C: m.A*other.C + m.B*other.F + m.C,
		D: m.D*other.A + m.E*other.D,
		E: m.D*other.B + m.E*other.E,
		F: m.D*other.C + m.E*other.F + m.F,
	}
}

// TransformPoint applies the transformation to a point.
func (m Matrix) TransformPoint(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

// TransformRect returns the axis-aligned bounds of r after transformation.
func (m Matrix) TransformRect(r Rect) Rect {
	if r.IsEmpty() {
		return Rect{}
	}
	p0 := m.TransformPoint(Pt(r.Left, r.Top))
	p1 := m.TransformPoint(Pt(r.Right, r.Top))
	p2 := m.TransformPoint(Pt(r.Right, r.Bottom))
	p3 := m.TransformPoint(Pt(r.Left, r.Bottom))
	return Rect{
		Left:   min(p0.X, p1.X, p2.X, p3.X),
		Top:    min(p0.Y, p1.Y, p2.Y, p3.Y),
		Right:  max(p0.X, p1.X, p2.X, p3.X),
		Bottom: max(p0.Y, p1.Y, p2.Y, p3.Y),
	}
}

// Invert returns the inverse matrix.
// Returns the identity matrix if the matrix is not invertible.
func (m Matrix) Invert() Matrix {
	det := m.A*m.E - m.B*m.D
	if math.Abs(det) < 1e-10 {
		return Identity()
	}

	invDet := 1.0 / det
	return Matrix{
		A: m.E * invDet,
		B: -m.B * invDet,
		C: (m.B*m.F - m.C*m.E) * invDet,
		D: -m.D * invDet,
		E: m.A * invDet,
		F: (m.C*m.D - m.A*m.F) * invDet,
	}
}

// IsIdentity returns true if the matrix is the identity matrix.
func (m Matrix) IsIdentity() bool {
	return m.A == 1 && m.B == 0 && m.C == 0 &&
		m.D == 0 && m.E == 1 && m.F == 0
}

// IsTranslation returns true if the matrix is only a translation.
func (m Matrix) IsTranslation() bool {
	return m.A == 1 && m.B == 0 && m.D == 0 && m.E == 1
}

// IsInvertible reports whether the matrix has a usable inverse.
func (m Matrix) IsInvertible() bool {
	return math.Abs(m.A*m.E-m.B*m.D) >= 1e-10
}

// aff3 converts to the x/image affine form (source to destination).
func (m Matrix) aff3() f64.Aff3 {
	return f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F}
}
