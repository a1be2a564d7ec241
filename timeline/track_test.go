package timeline

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/nle/automation"
	"github.com/gogpu/nle/persist"
)

func TestTrack_RejectsWrongClipType(t *testing.T) {
	env := newTestEnv()
	video := NewVideoTrack(env)
	audio := NewAudioTrack(env)
	mustAdd(t, video, newShape(t, env, 0, 10))
	mustAdd(t, audio, NewAudioClip(env))

	for _, tc := range []struct {
		track Track
		clip  Clip
	}{
		{video, NewAudioClip(env)},
		{audio, newShape(t, env, 0, 10)},
		{video, nil},
	} {
		before := tc.track.Clips()
		beforeChunks := tc.track.Cache().ChunkCount()
		err := tc.track.InsertClip(0, tc.clip)
		var te *ClipTypeError
		if !errors.As(err, &te) {
			t.Fatalf("InsertClip on %s error = %v, want *ClipTypeError", tc.track.Kind(), err)
		}
		if te.Track != tc.track.Kind() {
			t.Errorf("ClipTypeError.Track = %q", te.Track)
		}
		if !slices.Equal(tc.track.Clips(), before) || tc.track.Cache().ChunkCount() != beforeChunks {
			t.Errorf("%s changed after a rejected insert", tc.track.Kind())
		}
		if _, err := tc.track.RemoveClip(tc.clip); !errors.As(err, &te) {
			t.Errorf("RemoveClip of wrong type error = %v", err)
		}
	}
}

func TestTrack_InsertErrors(t *testing.T) {
	env := newTestEnv()
	a, b := NewVideoTrack(env), NewVideoTrack(env)
	c := newShape(t, env, 0, 10)
	mustAdd(t, a, c)

	if err := b.AddClip(c); !errors.Is(err, ErrClipOwned) {
		t.Errorf("AddClip of owned clip error = %v", err)
	}
	if err := b.InsertClip(3, newShape(t, env, 0, 1)); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("InsertClip out of range error = %v", err)
	}
	if _, err := a.RemoveClipAt(5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("RemoveClipAt out of range error = %v", err)
	}
}

func TestTrack_RemoveClip(t *testing.T) {
	env := newTestEnv()
	track := NewVideoTrack(env)
	c := newShape(t, env, 0, 10)
	mustAdd(t, track, c)

	var removed []ClipEvent
	track.OnClipRemoved(func(e ClipEvent) { removed = append(removed, e) })

	ok, err := track.RemoveClip(c)
	if err != nil || !ok {
		t.Fatalf("RemoveClip = %v, %v, want true", ok, err)
	}
	if c.Track() != nil {
		t.Error("removed clip still reports a track")
	}
	if track.ClipAt(5) != nil {
		t.Error("cache still lists the removed clip")
	}
	if len(removed) != 1 || removed[0].Clip != c || removed[0].Index != 0 {
		t.Errorf("ClipRemoved events = %+v", removed)
	}
	if ok, err := track.RemoveClip(c); ok || err != nil {
		t.Errorf("second RemoveClip = %v, %v, want false, nil", ok, err)
	}
}

func TestTrack_MoveClipToTrack(t *testing.T) {
	p := newTestProject(t)
	src, dst := addVideoTrack(t, p), addVideoTrack(t, p)
	c := newShape(t, p.Env(), 20, 10)
	mustAdd(t, src, c)

	var srcEvents, dstEvents int
	src.OnClipMovedTracks(func(ClipMove) { srcEvents++ })
	dst.OnClipMovedTracks(func(ClipMove) { dstEvents++ })
	var changes []TrackChange
	c.OnTrackChanged(func(tc TrackChange) { changes = append(changes, tc) })

	if err := src.MoveClipToTrack(0, dst, 0); err != nil {
		t.Fatalf("MoveClipToTrack: %v", err)
	}
	if src.ClipCount() != 0 || dst.ClipCount() != 1 || c.Track() != Track(dst) {
		t.Errorf("after move: src=%d dst=%d track=%v", src.ClipCount(), dst.ClipCount(), c.Track())
	}
	if dst.ClipAt(25) != c || src.ClipAt(25) != nil {
		t.Error("caches not updated by the move")
	}
	if srcEvents != 1 || dstEvents != 1 {
		t.Errorf("ClipMovedTracks events = %d, %d, want 1, 1", srcEvents, dstEvents)
	}
	if len(changes) != 1 || changes[0].Old != Track(src) || changes[0].New != Track(dst) {
		t.Errorf("TrackChanged = %+v", changes)
	}

	detached := NewVideoTrack(p.Env())
	if err := dst.MoveClipToTrack(0, detached, 0); !errors.Is(err, ErrDifferentTimeline) {
		t.Errorf("move to a detached track error = %v", err)
	}
	audio := NewAudioTrack(p.Env())
	if err := p.Timeline().AddTrack(audio); err != nil {
		t.Fatal(err)
	}
	var te *ClipTypeError
	if err := dst.MoveClipToTrack(0, audio, 0); !errors.As(err, &te) {
		t.Errorf("move to an audio track error = %v", err)
	}
}

func TestCutAt(t *testing.T) {
	p := newTestProject(t)
	track := addVideoTrack(t, p)
	c := newShape(t, p.Env(), 0, 100)
	c.SetMediaFrameOffset(7)
	c.SetDisplayName("Box")
	mustAdd(t, track, c)

	tail, err := CutAt(c, 30)
	if err != nil {
		t.Fatalf("CutAt: %v", err)
	}
	if c.Span() != (FrameSpan{Begin: 0, Duration: 30}) {
		t.Errorf("head span = %s", c.Span())
	}
	if tail.Span() != (FrameSpan{Begin: 30, Duration: 70}) {
		t.Errorf("tail span = %s", tail.Span())
	}
	if tail.MediaFrameOffset() != 37 {
		t.Errorf("tail media offset = %d, want 37", tail.MediaFrameOffset())
	}
	if tail.ID() == c.ID() || tail.DisplayName() != "Box" {
		t.Errorf("tail id/name = %s/%q", tail.ID(), tail.DisplayName())
	}
	if got := track.Clips(); len(got) != 2 || got[0] != Clip(c) || got[1] != tail {
		t.Errorf("track clips = %v", got)
	}
	if u := c.Span().Union(tail.Span()); u != (FrameSpan{Begin: 0, Duration: 100}) || c.Span().Intersects(tail.Span()) {
		t.Errorf("halves do not tile the original span: %s + %s", c.Span(), tail.Span())
	}
	if track.ClipAt(29) != c || track.ClipAt(30) != tail {
		t.Error("cache does not reflect the cut")
	}

	for _, off := range []int64{0, 30, -1} {
		if _, err := CutAt(c, off); !errors.Is(err, ErrInvalidCutOffset) {
			t.Errorf("CutAt(%d) error = %v", off, err)
		}
	}
}

func TestTrack_HeightAndName(t *testing.T) {
	track := NewVideoTrack(newTestEnv())
	var heights int
	track.OnHeightChanged(func(Track) { heights++ })

	track.SetHeight(1000)
	if track.Height() != MaxTrackHeight {
		t.Errorf("Height = %d, want %d", track.Height(), MaxTrackHeight)
	}
	track.SetHeight(0)
	if track.Height() != MinTrackHeight {
		t.Errorf("Height = %d, want %d", track.Height(), MinTrackHeight)
	}
	track.SetHeight(MinTrackHeight)
	if heights != 2 {
		t.Errorf("HeightChanged fired %d times, want 2", heights)
	}
	if track.Index() != -1 || track.Timeline() != nil {
		t.Error("detached track reports a timeline")
	}
}

// buildRichTrack returns a track with automated clips and effects.
func buildRichTrack(t *testing.T, env *Env) *VideoTrack {
	t.Helper()
	track := NewVideoTrack(env)
	track.SetDisplayName("V1")
	track.SetHeight(80)

	a := newShape(t, env, 0, 50)
	a.SetColourKey("red")
	seq, err := a.AutomationData().SequenceByKey(KeyClipOpacity)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []*automation.KeyFrame{
		automation.NewKeyFrame(0, automation.Double(0)),
		automation.NewKeyFrame(25, automation.Double(1)),
	} {
		if _, err := seq.AddKeyFrame(k); err != nil {
			t.Fatal(err)
		}
	}
	motion := NewMotionEffect(env, a.ID())
	setDefault(t, motion, KeyMotionPosition, automation.Vec2(automation.V2(5, 6)))
	if err := a.AddEffect(motion); err != nil {
		t.Fatal(err)
	}
	if err := a.AddEffect(NewBrightnessEffect(env, a.ID())); err != nil {
		t.Fatal(err)
	}
	mustAdd(t, track, a)

	text := NewTextClip(env)
	text.SetText("hello")
	if err := text.SetSpan(FrameSpan{Begin: 60, Duration: 20}); err != nil {
		t.Fatal(err)
	}
	mustAdd(t, track, text)

	if err := track.AddEffect(NewMotionEffect(env, track.ID())); err != nil {
		t.Fatal(err)
	}
	return track
}

func TestReadFrom_ReplacesExistingEffects(t *testing.T) {
	env := newTestEnv()
	saved := persist.NewDict()
	src := buildRichTrack(t, env)
	if err := src.WriteTo(saved); err != nil {
		t.Fatal(err)
	}

	dst := NewVideoTrack(env)
	old := NewMotionEffect(env, dst.ID())
	if err := dst.AddEffect(old); err != nil {
		t.Fatal(err)
	}
	if err := dst.ReadFrom(saved); err != nil {
		t.Fatalf("track ReadFrom: %v", err)
	}
	if dst.ID() != src.ID() || dst.EffectCount() != 1 {
		t.Errorf("track = %s with %d effects, want %s with 1", dst.ID(), dst.EffectCount(), src.ID())
	}
	if old.Holder() != nil {
		t.Error("replaced track effect still has a holder")
	}
	if e := dst.Effects()[0]; e == old || e.OwnerID() != dst.ID() {
		t.Errorf("loaded effect owned by %s, want %s", e.OwnerID(), dst.ID())
	}

	clipDict := persist.NewDict()
	if err := src.Clips()[0].WriteTo(clipDict); err != nil {
		t.Fatal(err)
	}
	clip := newShape(t, env, 0, 10)
	stale := NewBrightnessEffect(env, clip.ID())
	if err := clip.AddEffect(stale); err != nil {
		t.Fatal(err)
	}
	if err := clip.ReadFrom(clipDict); err != nil {
		t.Fatalf("clip ReadFrom: %v", err)
	}
	if clip.ID() != src.Clips()[0].ID() || stale.Holder() != nil {
		t.Errorf("clip = %s, stale holder = %v", clip.ID(), stale.Holder())
	}
	for _, e := range clip.Effects() {
		if e.OwnerID() != clip.ID() {
			t.Errorf("clip effect %s owned by %s, want %s", e.Kind(), e.OwnerID(), clip.ID())
		}
	}
}

func TestTrack_PersistRoundTrip(t *testing.T) {
	env := newTestEnv()
	track := buildRichTrack(t, env)

	saved := persist.NewDict()
	if err := track.WriteTo(saved); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	data, err := persist.MarshalYAML(saved)
	if err != nil {
		t.Fatalf("MarshalYAML: %v", err)
	}
	loaded, err := persist.UnmarshalYAML(data)
	if err != nil {
		t.Fatalf("UnmarshalYAML: %v", err)
	}

	fresh := NewVideoTrack(env)
	if err := fresh.ReadFrom(loaded); err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	again := persist.NewDict()
	if err := fresh.WriteTo(again); err != nil {
		t.Fatal(err)
	}
	if !saved.Equal(again) {
		t.Error("re-serialized track differs from the original")
	}

	if fresh.ID() != track.ID() || fresh.DisplayName() != "V1" || fresh.Height() != 80 || fresh.Colour() != track.Colour() {
		t.Errorf("track fields = %s %q %d %v", fresh.ID(), fresh.DisplayName(), fresh.Height(), fresh.Colour())
	}
	want, got := track.Clips(), fresh.Clips()
	if len(got) != len(want) {
		t.Fatalf("clips = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Kind() != want[i].Kind() || got[i].Span() != want[i].Span() {
			t.Errorf("clip %d = %s %s, want %s %s", i, got[i].Kind(), got[i].Span(), want[i].Kind(), want[i].Span())
		}
		if got[i].Track() != Track(fresh) {
			t.Errorf("clip %d not attached to the fresh track", i)
		}
	}
	shape := got[0].(*ShapeClip)
	if shape.Colour().Key() != "red" {
		t.Errorf("colour key = %q", shape.Colour().Key())
	}
	seq, _ := shape.AutomationData().SequenceByKey(KeyClipOpacity)
	if seq.Len() != 2 || seq.KeyFrameAt(1).Frame() != 25 || seq.KeyFrameAt(1).Value().Double() != 1 {
		t.Errorf("opacity keyframes = %v", seq.KeyFrames())
	}
	kinds := func(effects []Effect) []string {
		out := make([]string, len(effects))
		for i, e := range effects {
			out[i] = e.Kind()
			if e.OwnerID() != e.Holder().ID() {
				t.Errorf("effect %s owned by %s but held by %s", e.ID(), e.OwnerID(), e.Holder().ID())
			}
		}
		return out
	}
	if k := kinds(shape.Effects()); !slices.Equal(k, []string{KindMotionEffect, KindBrightnessEffect}) {
		t.Errorf("clip effects = %v", k)
	}
	if m := shape.Effects()[0].(*MotionEffect); m.position != automation.V2(5, 6) {
		t.Errorf("motion position = %v", m.position)
	}
	if k := kinds(fresh.Effects()); !slices.Equal(k, []string{KindMotionEffect}) {
		t.Errorf("track effects = %v", k)
	}
	if got[1].(*TextClip).Text() != "hello" {
		t.Errorf("text = %q", got[1].(*TextClip).Text())
	}
}

func TestTrack_CloneAssignsNewIDs(t *testing.T) {
	env := newTestEnv()
	track := buildRichTrack(t, env)

	clone, err := track.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if clone.ID() == track.ID() {
		t.Error("clone kept the track id")
	}
	orig, copies := track.Clips(), clone.Clips()
	if len(copies) != len(orig) {
		t.Fatalf("clone has %d clips, want %d", len(copies), len(orig))
	}
	for i := range orig {
		if copies[i].ID() == orig[i].ID() {
			t.Errorf("clip %d kept its id", i)
		}
		if copies[i].Span() != orig[i].Span() {
			t.Errorf("clip %d span = %s, want %s", i, copies[i].Span(), orig[i].Span())
		}
	}
	e := copies[0].Effects()
	if len(e) != 2 || e[0].ID() == orig[0].Effects()[0].ID() || e[0].OwnerID() != copies[0].ID() {
		t.Errorf("cloned effects not re-owned: %v", e)
	}
}

func TestTrack_ReadRejectsUnknownClip(t *testing.T) {
	env := newTestEnv()
	d := persist.NewDict()
	d.SetString("Kind", KindVideoTrack)
	d.CreateList("Clips").CreateDict().SetString("Kind", "Hologram")
	if err := NewVideoTrack(env).ReadFrom(d); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ReadFrom error = %v, want ErrUnknownKind", err)
	}
	if _, err := NewTrack("Hologram", env); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("NewTrack error = %v", err)
	}
}
