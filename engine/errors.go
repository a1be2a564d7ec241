// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrRenderInProgress is returned when a render is requested while
	// another is in flight.
	ErrRenderInProgress = errors.New("engine: render in progress")

	// ErrLoopClosed is returned when work is sent to a closed loop.
	ErrLoopClosed = errors.New("engine: loop closed")

	// ErrManagerClosed is returned by a closed manager.
	ErrManagerClosed = errors.New("engine: manager closed")

	// ErrAlreadyPlaying is returned by Play on a running player.
	ErrAlreadyPlaying = errors.New("engine: already playing")

	// ErrEmptyRange is returned when an export covers no frames.
	ErrEmptyRange = errors.New("engine: empty frame range")
)

// RenderError reports a failure while preparing or rendering one track.
type RenderError struct {
	Track uuid.UUID
	Frame int64
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("engine: track %s frame %d: %v", e.Track, e.Frame, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
