// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package engine

// State is the phase of the render pipeline.
type State int32

const (
	// StateIdle means no render is in flight.
	StateIdle State = iota
	// StatePreparing means track snapshots are being taken on the loop.
	StatePreparing
	// StatePrepared means every snapshot is ready.
	StatePrepared
	// StateRendering means workers are drawing track surfaces.
	StateRendering
	// StateComposited means the output frame is complete.
	StateComposited
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePreparing:
		return "Preparing"
	case StatePrepared:
		return "Prepared"
	case StateRendering:
		return "Rendering"
	case StateComposited:
		return "Composited"
	default:
		return "Unknown"
	}
}
