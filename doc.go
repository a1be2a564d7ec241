// Package nle provides a non-linear editing engine for Go.
//
// # Overview
//
// nle models an edit as a timeline of tracks holding time-bounded clips.
// Every clip and track property can be automated with keyframes, and frames
// are produced by a two-phase pipeline: a prepare phase on a single
// coordination goroutine snapshots per-frame state, then a render phase on
// worker goroutines draws each track into its own off-screen surface before
// the tracks are composited bottom to top.
//
// # Quick Start
//
//	proj, err := timeline.NewProject(timeline.DefaultSettings())
//	if err != nil {
//		return err
//	}
//	track := timeline.NewVideoTrack(proj.Env())
//	_ = proj.Timeline().AddTrack(track)
//
//	clip := timeline.NewShapeClip(proj.Env())
//	_ = clip.SetSpan(timeline.FrameSpan{Begin: 0, Duration: 100})
//	_ = track.AddClip(clip)
//
//	loop := engine.NewLoop()
//	defer loop.Close()
//	mgr := engine.NewManager(proj, loop)
//	defer mgr.Close()
//	frame, err := mgr.RenderAt(ctx, 0)
//
// # Architecture
//
// The module is organized into:
//   - timeline: frame spans, the chunked clip range cache, clips, tracks, effects
//   - automation: parameters, keyframes, sequences and their registry
//   - render: the canvas contract, a software canvas and guarded surfaces
//   - engine: the render manager, playback and export
//   - persist, resource: persistence and resource collaborators
//
// # Threading
//
// All structural mutation and the prepare phase belong to one coordination
// goroutine (see engine.Loop). Render workers only read prepared snapshots.
package nle

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0-alpha.1"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0

	// VersionPrerelease is the prerelease identifier
	VersionPrerelease = "alpha.1"
)
