package timeline

import (
	"errors"
	"image/color"
	"testing"

	"github.com/gogpu/nle"
	"github.com/gogpu/nle/automation"
	"github.com/gogpu/nle/resource"
)

var red = color.NRGBA{R: 255, A: 255}

// testSettings is small enough to render quickly.
var testSettings = Settings{Width: 200, Height: 100, FrameRate: 25, SampleRate: 8000}

func newTestProject(t *testing.T) *Project {
	t.Helper()
	p, err := NewProject(testSettings)
	if err != nil {
		t.Fatalf("NewProject: %v", err)
	}
	if err := p.Resources().Register("red", red); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return p
}

func newTestEnv() *Env { return NewEnv(resource.NewStore()) }

func newShape(t *testing.T, env *Env, begin, duration int64) *ShapeClip {
	t.Helper()
	c := NewShapeClip(env)
	if err := c.SetSpan(FrameSpan{Begin: begin, Duration: duration}); err != nil {
		t.Fatalf("SetSpan: %v", err)
	}
	return c
}

// addVideoTrack adds a video track to the project's timeline.
func addVideoTrack(t *testing.T, p *Project) *VideoTrack {
	t.Helper()
	vt := NewVideoTrack(p.Env())
	if err := p.Timeline().AddTrack(vt); err != nil {
		t.Fatalf("AddTrack: %v", err)
	}
	return vt
}

func mustAdd(t *testing.T, tr Track, c Clip) {
	t.Helper()
	if err := tr.AddClip(c); err != nil {
		t.Fatalf("AddClip(%s): %v", c.Kind(), err)
	}
}

func setDefault(t *testing.T, o automation.Owner, key automation.Key, v automation.Value) {
	t.Helper()
	if err := o.AutomationData().SetDefault(key, v); err != nil {
		t.Fatalf("SetDefault(%s): %v", key, err)
	}
}

// expectInvariant fails unless fn panics with an *nle.InvariantError.
func expectInvariant(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		err, ok := r.(error)
		var ie *nle.InvariantError
		if !ok || !errors.As(err, &ie) {
			t.Fatalf("recovered %v, want *nle.InvariantError", r)
		}
	}()
	fn()
}
