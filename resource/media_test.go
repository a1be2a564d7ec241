package resource

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func solid(c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := range 3 {
		for x := range 4 {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestImageSequence_FrameAt(t *testing.T) {
	frames := []image.Image{solid(color.White), solid(color.Black), solid(color.Transparent)}
	seq, err := NewImageSequence(10, frames...)
	if err != nil {
		t.Fatalf("NewImageSequence() error = %v", err)
	}
	if got := seq.Duration(); got != 300*time.Millisecond {
		t.Errorf("Duration() = %v, want 300ms", got)
	}
	if got := seq.Size(); got != image.Pt(4, 3) {
		t.Errorf("Size() = %v", got)
	}

	tests := []struct {
		at   time.Duration
		want int
	}{
		{-time.Second, 0},
		{0, 0},
		{99 * time.Millisecond, 0},
		{100 * time.Millisecond, 1},
		{250 * time.Millisecond, 2},
		{time.Hour, 2},
	}
	for _, tt := range tests {
		if got := seq.Index(tt.at); got != tt.want {
			t.Errorf("Index(%v) = %d, want %d", tt.at, got, tt.want)
		}
		img, err := seq.FrameAt(tt.at)
		if err != nil || img != frames[tt.want] {
			t.Errorf("FrameAt(%v) returned the wrong frame (err %v)", tt.at, err)
		}
	}
}

func TestImageSequence_Invalid(t *testing.T) {
	if _, err := NewImageSequence(25); !errors.Is(err, ErrNoFrames) {
		t.Errorf("NewImageSequence() error = %v, want ErrNoFrames", err)
	}
	if _, err := NewImageSequence(0, solid(color.White)); err == nil {
		t.Error("NewImageSequence(rate 0) succeeded")
	}
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestLoadImageSequence(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "f001.png"), solid(color.White))
	writePNG(t, filepath.Join(dir, "f002.png"), solid(color.Black))

	seq, err := LoadImageSequence(filepath.Join(dir, "f*.png"), 2)
	if err != nil {
		t.Fatalf("LoadImageSequence() error = %v", err)
	}
	if seq.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", seq.Len())
	}
	img, err := seq.FrameAt(time.Second)
	if err != nil {
		t.Fatalf("FrameAt() error = %v", err)
	}
	r, g, b, _ := img.At(0, 0).RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("second frame pixel = %d,%d,%d, want black", r, g, b)
	}

	if _, err := LoadImageSequence(filepath.Join(dir, "none*.png"), 2); !errors.Is(err, ErrNoFrames) {
		t.Errorf("empty glob error = %v, want ErrNoFrames", err)
	}
}
