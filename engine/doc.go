// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package engine renders a timeline project.
//
// A project and everything on it belong to one coordination goroutine, run
// by a [Loop]. The [Manager] renders a frame in two phases: on the loop it
// prepares an immutable snapshot of every track, then worker goroutines
// render the snapshots into per-track surfaces, which are composited bottom
// to top into the output image. Audio is mixed from the same snapshot.
//
// [Player] drives playback in real time and [Exporter] writes a frame
// range to PNG files and a WAV file.
//
//	loop := engine.NewLoop()
//	defer loop.Close()
//	m := engine.NewManager(project, loop, engine.WithWorkers(4))
//	defer m.Close()
//	frame, err := m.Render(ctx)
package engine
