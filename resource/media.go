package resource

import (
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"math"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/gogpu/nle/internal/cache"
)

// MediaSource is a timed sequence of video frames.
type MediaSource interface {
	Size() image.Point
	FrameRate() float64
	Duration() time.Duration
	// FrameAt returns the frame shown at t. Times outside the media clamp
	// to the first or last frame.
	FrameAt(t time.Duration) (image.Image, error)
}

// AudioSource is decoded audio in normalized float samples.
type AudioSource interface {
	SampleRate() int
	Channels() int
	// Frames returns the number of sample frames.
	Frames() int
	// Sample returns the sample for channel ch at sample frame i.
	Sample(ch, i int) float64
}

const decodedFrameCache = 16

// ImageSequence is a MediaSource backed by in-memory frames or by image
// files decoded on demand.
type ImageSequence struct {
	rate   float64
	size   image.Point
	frames []image.Image
	paths  []string

	mu      sync.Mutex
	decoded *cache.Cache[int, image.Image]
}

// NewImageSequence returns media playing frames at rate frames per second.
func NewImageSequence(rate float64, frames ...image.Image) (*ImageSequence, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	if rate <= 0 || math.IsNaN(rate) {
		return nil, fmt.Errorf("resource: invalid frame rate %v", rate)
	}
	return &ImageSequence{rate: rate, size: frames[0].Bounds().Size(), frames: frames}, nil
}

// LoadImageSequence returns media over the files matching pattern in
// lexical order. The first file is decoded eagerly to learn the size.
func LoadImageSequence(pattern string, rate float64) (*ImageSequence, error) {
	if rate <= 0 || math.IsNaN(rate) {
		return nil, fmt.Errorf("resource: invalid frame rate %v", rate)
	}
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("resource: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFrames, pattern)
	}
	slices.Sort(paths)
	first, err := LoadImage(paths[0])
	if err != nil {
		return nil, err
	}
	s := &ImageSequence{
		rate:    rate,
		size:    first.Bounds().Size(),
		paths:   paths,
		decoded: cache.New[int, image.Image](decodedFrameCache),
	}
	s.decoded.Set(0, first)
	return s, nil
}

// Size implements MediaSource.
func (s *ImageSequence) Size() image.Point { return s.size }

// FrameRate implements MediaSource.
func (s *ImageSequence) FrameRate() float64 { return s.rate }

// Len returns the number of frames.
func (s *ImageSequence) Len() int {
	if s.paths != nil {
		return len(s.paths)
	}
	return len(s.frames)
}

// Duration implements MediaSource.
func (s *ImageSequence) Duration() time.Duration {
	return time.Duration(float64(s.Len()) / s.rate * float64(time.Second))
}

// Index returns the frame index shown at t.
func (s *ImageSequence) Index(t time.Duration) int {
	i := int(math.Floor(t.Seconds() * s.rate))
	return max(0, min(i, s.Len()-1))
}

// FrameAt implements MediaSource.
func (s *ImageSequence) FrameAt(t time.Duration) (image.Image, error) {
	i := s.Index(t)
	if s.paths == nil {
		return s.frames[i], nil
	}
	if img, ok := s.decoded.Get(i); ok {
		return img, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if img, ok := s.decoded.Get(i); ok {
		return img, nil
	}
	img, err := LoadImage(s.paths[i])
	if err != nil {
		return nil, err
	}
	s.decoded.Set(i, img)
	return img, nil
}

// LoadImage decodes a PNG or JPEG file.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("resource: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("resource: decode %s: %w", path, err)
	}
	return img, nil
}
