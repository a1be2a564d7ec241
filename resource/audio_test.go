package resource

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
)

func TestNewTone(t *testing.T) {
	tone := NewTone(8000, 2, 1000, 0.5, 100*time.Millisecond)
	if tone.Frames() != 800 {
		t.Errorf("Frames() = %d, want 800", tone.Frames())
	}
	if tone.Channels() != 2 || tone.SampleRate() != 8000 {
		t.Errorf("format = %d ch @ %d", tone.Channels(), tone.SampleRate())
	}
	if got := tone.Duration(); got != 100*time.Millisecond {
		t.Errorf("Duration() = %v", got)
	}
	// Quarter period of 1 kHz at 8 kHz is sample 2.
	if got := tone.Sample(1, 2); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Sample(1, 2) = %v, want 0.5", got)
	}
	if tone.Sample(0, -1) != 0 || tone.Sample(5, 0) != 0 || tone.Sample(0, 10000) != 0 {
		t.Error("out of range samples are not silent")
	}
}

func TestNewAudioBuffer_Invalid(t *testing.T) {
	if _, err := NewAudioBuffer(nil); err == nil {
		t.Error("NewAudioBuffer(nil) succeeded")
	}
	if _, err := NewAudioBuffer(&audio.FloatBuffer{Format: &audio.Format{}}); err == nil {
		t.Error("NewAudioBuffer(zero format) succeeded")
	}
}

func TestWAV_RoundTrip(t *testing.T) {
	for _, depth := range []int{8, 16, 24} {
		tone := NewTone(8000, 1, 440, 0.8, 50*time.Millisecond)
		path := filepath.Join(t.TempDir(), "tone.wav")
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := EncodeWAV(f, tone.Float(), depth); err != nil {
			t.Fatalf("EncodeWAV(%d) error = %v", depth, err)
		}
		f.Close()

		got, err := LoadWAVFile(path)
		if err != nil {
			t.Fatalf("LoadWAVFile(%d) error = %v", depth, err)
		}
		if got.Frames() != tone.Frames() {
			t.Fatalf("depth %d: Frames() = %d, want %d", depth, got.Frames(), tone.Frames())
		}
		tol := 2.0 / math.Exp2(float64(depth-1))
		for i := range tone.Frames() {
			if d := math.Abs(got.Sample(0, i) - tone.Sample(0, i)); d > tol {
				t.Fatalf("depth %d: sample %d off by %v", depth, i, d)
			}
		}
	}
}

func TestLoadWAV_Invalid(t *testing.T) {
	_, err := LoadWAV(bytes.NewReader([]byte("not a wav file at all")))
	if !errors.Is(err, ErrInvalidWAV) {
		t.Errorf("LoadWAV(garbage) error = %v, want ErrInvalidWAV", err)
	}
}

func TestEncodeWAV_BadDepth(t *testing.T) {
	tone := NewTone(8000, 1, 440, 0.5, time.Millisecond)
	f, err := os.Create(filepath.Join(t.TempDir(), "x.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := EncodeWAV(f, tone.Float(), 12); err == nil {
		t.Error("EncodeWAV(12 bit) succeeded")
	}
}
