package persist

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func sampleDict() *Dict {
	d := NewDict()
	d.SetString("DisplayName", "true")
	d.SetInt64("Height", 56)
	d.SetFloat64("Opacity", 1)
	d.SetFloat64("Gain", math.Inf(-1))
	d.SetBool("IsEnabled", false)
	_ = d.SetStruct("Span", spanBlob{Begin: 5, Duration: 130})
	clips := d.CreateList("Clips")
	for i := range 3 {
		c := clips.CreateDict()
		c.SetInt("Index", i)
		c.SetString("Kind", "shape")
	}
	return d
}

func TestYAML_RoundTrip(t *testing.T) {
	src := sampleDict()
	data, err := MarshalYAML(src)
	if err != nil {
		t.Fatalf("MarshalYAML() = %v", err)
	}

	got, err := UnmarshalYAML(data)
	if err != nil {
		t.Fatalf("UnmarshalYAML() = %v\n%s", err, data)
	}
	if !src.Equal(got) {
		t.Errorf("round-trip mismatch:\n%s", data)
	}

	// A string that looks like a bool must stay a string.
	if name, err := got.StringValue("DisplayName"); err != nil || name != "true" {
		t.Errorf("DisplayName = %q, %v, want \"true\"", name, err)
	}
	// Whole floats stay floats.
	if got.Kind("Opacity") != KindFloat {
		t.Errorf("Kind(Opacity) = %v, want float", got.Kind("Opacity"))
	}
}

func TestYAML_KeepsOrder(t *testing.T) {
	data, err := MarshalYAML(sampleDict())
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if strings.Index(text, "DisplayName") > strings.Index(text, "Height") {
		t.Errorf("field order not preserved:\n%s", text)
	}
	if !strings.Contains(text, "!!binary") {
		t.Errorf("struct blob should be written as !!binary:\n%s", text)
	}
}

func TestYAML_NotMapping(t *testing.T) {
	if _, err := UnmarshalYAML([]byte("- 1\n- 2\n")); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("UnmarshalYAML(sequence) error = %v, want ErrInvalidDocument", err)
	}
}

func TestYAML_Handwritten(t *testing.T) {
	doc := `
Settings:
  Width: 1280
  FrameRate: 29.97
Tracks:
  - Kind: video
    Name: Main
`
	d, err := UnmarshalYAML([]byte(doc))
	if err != nil {
		t.Fatalf("UnmarshalYAML() = %v", err)
	}
	settings, err := d.Dict("Settings")
	if err != nil {
		t.Fatal(err)
	}
	if w, _ := settings.Int64("Width"); w != 1280 {
		t.Errorf("Width = %d, want 1280", w)
	}
	if fps, _ := settings.Float64("FrameRate"); fps != 29.97 {
		t.Errorf("FrameRate = %v, want 29.97", fps)
	}
	tracks, err := d.List("Tracks")
	if err != nil || tracks.Len() != 1 {
		t.Fatalf("Tracks = %v, %v", tracks, err)
	}
}
