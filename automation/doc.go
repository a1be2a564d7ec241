// Package automation drives time-varying properties of timeline objects.
//
// A [Parameter] describes one automatable property of an owner type: its
// data type, default and range, and an accessor that writes the effective
// value into the owner's live field. Parameters are registered once in a
// [Registry] and shared read-only.
//
// Every owner has one [Data], holding a [Sequence] per applicable
// parameter. A sequence is an ordered list of [KeyFrame] values plus a
// default keyframe. [Sequence.UpdateValue] interpolates the value at a frame
// and pushes it into the owner.
//
// All mutation and value updates happen on the coordination goroutine.
package automation
