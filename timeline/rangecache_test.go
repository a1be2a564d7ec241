package timeline

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/samber/lo"
)

func bruteForceInRange(clips []Clip, span FrameSpan) []Clip {
	return lo.Filter(clips, func(c Clip, _ int) bool { return c.Span().Intersects(span) })
}

func sameClips(a, b []Clip) bool {
	if len(a) != len(b) {
		return false
	}
	for _, c := range a {
		if !slices.Contains(b, c) {
			return false
		}
	}
	return true
}

func trueBounds(clips []Clip) (smallest, largest int64) {
	for i, c := range clips {
		s := c.Span()
		if i == 0 {
			smallest, largest = s.Begin, s.EndIndex()
			continue
		}
		smallest = min(smallest, s.Begin)
		largest = max(largest, s.EndIndex())
	}
	return smallest, largest
}

func TestClipRangeCache_MatchesBruteForce(t *testing.T) {
	env := newTestEnv()
	track := NewVideoTrack(env)
	rng := rand.New(rand.NewPCG(7, 11))
	randSpan := func() FrameSpan {
		return FrameSpan{Begin: rng.Int64N(1000), Duration: rng.Int64N(400)}
	}

	for step := range 2000 {
		clips := track.Clips()
		switch op := rng.IntN(3); {
		case op == 0 || len(clips) == 0:
			c := NewShapeClip(env)
			if err := c.SetSpan(randSpan()); err != nil {
				t.Fatal(err)
			}
			mustAdd(t, track, c)
		case op == 1:
			c := clips[rng.IntN(len(clips))]
			if ok, err := track.RemoveClip(c); !ok || err != nil {
				t.Fatalf("step %d: RemoveClip = %v, %v", step, ok, err)
			}
		default:
			c := clips[rng.IntN(len(clips))]
			if err := c.SetSpan(randSpan()); err != nil {
				t.Fatal(err)
			}
		}

		clips = track.Clips()
		for range 5 {
			q := randSpan()
			got := track.ClipsInRange(q)
			if want := bruteForceInRange(clips, q); !sameClips(got, want) {
				t.Fatalf("step %d: ClipsInRange(%s) = %d clips, want %d", step, q, len(got), len(want))
			}
			if track.Cache().IsRegionEmpty(q) != (len(got) == 0) {
				t.Fatalf("step %d: IsRegionEmpty(%s) disagrees with ClipsInRange", step, q)
			}
		}
		smallest, largest := trueBounds(clips)
		cache := track.Cache()
		if cache.SmallestActiveFrame() != smallest || cache.LargestActiveFrame() != largest {
			t.Fatalf("step %d: bounds = (%d, %d), want (%d, %d)", step,
				cache.SmallestActiveFrame(), cache.LargestActiveFrame(), smallest, largest)
		}
	}
}

func TestClipRangeCache_EmptyBounds(t *testing.T) {
	env := newTestEnv()
	track := NewVideoTrack(env)
	c := newShape(t, env, 300, 50)
	mustAdd(t, track, c)
	if got := track.Cache().LargestActiveFrame(); got != 350 {
		t.Errorf("LargestActiveFrame = %d, want 350", got)
	}
	if _, err := track.RemoveClip(c); err != nil {
		t.Fatal(err)
	}
	cache := track.Cache()
	if cache.SmallestActiveFrame() != 0 || cache.LargestActiveFrame() != 0 {
		t.Errorf("empty bounds = (%d, %d), want (0, 0)", cache.SmallestActiveFrame(), cache.LargestActiveFrame())
	}
	if cache.PreviousLargestActiveFrame() != 350 {
		t.Errorf("PreviousLargestActiveFrame = %d, want 350", cache.PreviousLargestActiveFrame())
	}
	if cache.ChunkCount() != 0 {
		t.Errorf("ChunkCount = %d after removing the last clip", cache.ChunkCount())
	}
}

func TestClipRangeCache_ChunkBoundaries(t *testing.T) {
	env := newTestEnv()
	track := NewVideoTrack(env)
	// Ends exactly on a chunk boundary.
	a := newShape(t, env, 0, ChunkSize)
	b := newShape(t, env, ChunkSize, 10)
	mustAdd(t, track, a)
	mustAdd(t, track, b)

	if got := track.ClipAt(ChunkSize - 1); got != a {
		t.Errorf("ClipAt(%d) = %v, want a", ChunkSize-1, got)
	}
	if got := track.ClipAt(ChunkSize); got != b {
		t.Errorf("ClipAt(%d) = %v, want b", ChunkSize, got)
	}
	if got := track.ClipAt(ChunkSize + 10); got != nil {
		t.Errorf("ClipAt past the end = %v, want nil", got)
	}
	if err := b.SetSpan(FrameSpan{Begin: 5 * ChunkSize, Duration: 1}); err != nil {
		t.Fatal(err)
	}
	if got := track.ClipAt(ChunkSize); got != nil {
		t.Errorf("ClipAt after move = %v, want nil", got)
	}
	if got := track.ClipAt(5 * ChunkSize); got != b {
		t.Errorf("ClipAt at new span = %v, want b", got)
	}
}

func TestClipRangeCache_OverlapPrefersLatest(t *testing.T) {
	env := newTestEnv()
	track := NewVideoTrack(env)
	under := newShape(t, env, 0, 100)
	over := newShape(t, env, 50, 100)
	mustAdd(t, track, under)
	mustAdd(t, track, over)

	if got := track.ClipAt(60); got != over {
		t.Errorf("ClipAt(60) = %v, want the later clip", got)
	}
	if got := track.Cache().ClipsAtFrame(60); len(got) != 2 || got[0] != over {
		t.Errorf("ClipsAtFrame(60) = %v", got)
	}
	if got := track.SpanUntilClip(200, 100); got != (FrameSpan{Begin: 200, Duration: 100}) {
		t.Errorf("SpanUntilClip after clips = %s", got)
	}
}

func TestTrack_SpanUntilClip(t *testing.T) {
	env := newTestEnv()
	track := NewVideoTrack(env)
	mustAdd(t, track, newShape(t, env, 100, 10))

	if got := track.SpanUntilClip(40, 500); got != (FrameSpan{Begin: 40, Duration: 60}) {
		t.Errorf("SpanUntilClip(40) = %s", got)
	}
	if got := track.SpanUntilClip(105, 500); !got.IsEmpty() {
		t.Errorf("SpanUntilClip inside a clip = %s, want empty", got)
	}
	if got := track.SpanUntilClip(0, 30); got.Duration != 30 {
		t.Errorf("SpanUntilClip limit = %s", got)
	}
}
