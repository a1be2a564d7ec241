package resource

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV is returned for input the WAV decoder rejects.
var ErrInvalidWAV = errors.New("resource: invalid wav file")

// AudioBuffer is an AudioSource over interleaved float samples in [-1, 1].
type AudioBuffer struct {
	buf *audio.FloatBuffer
}

// NewAudioBuffer wraps buf. The buffer is not copied.
func NewAudioBuffer(buf *audio.FloatBuffer) (*AudioBuffer, error) {
	if buf == nil || buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("resource: audio buffer has no valid format")
	}
	return &AudioBuffer{buf: buf}, nil
}

// SampleRate implements AudioSource.
func (b *AudioBuffer) SampleRate() int { return b.buf.Format.SampleRate }

// Channels implements AudioSource.
func (b *AudioBuffer) Channels() int { return b.buf.Format.NumChannels }

// Frames implements AudioSource.
func (b *AudioBuffer) Frames() int { return len(b.buf.Data) / b.buf.Format.NumChannels }

// Duration returns the playing time.
func (b *AudioBuffer) Duration() time.Duration {
	return time.Duration(float64(b.Frames()) / float64(b.SampleRate()) * float64(time.Second))
}

// Sample implements AudioSource. Out of range positions are silent.
func (b *AudioBuffer) Sample(ch, i int) float64 {
	n := b.buf.Format.NumChannels
	if ch < 0 || ch >= n || i < 0 {
		return 0
	}
	idx := i*n + ch
	if idx >= len(b.buf.Data) {
		return 0
	}
	return b.buf.Data[idx]
}

// Float returns the underlying buffer.
func (b *AudioBuffer) Float() *audio.FloatBuffer { return b.buf }

// NewTone synthesizes a sine wave, mostly useful for tests and demos.
func NewTone(sampleRate, channels int, freq, amplitude float64, d time.Duration) *AudioBuffer {
	frames := int(d.Seconds() * float64(sampleRate))
	data := make([]float64, frames*channels)
	for i := range frames {
		v := amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		for ch := range channels {
			data[i*channels+ch] = v
		}
	}
	return &AudioBuffer{buf: &audio.FloatBuffer{
		Format: &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:   data,
	}}
}

// LoadWAV decodes PCM WAV data and normalizes it to [-1, 1].
func LoadWAV(r io.ReadSeeker) (*AudioBuffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("resource: decode wav: %w", err)
	}
	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = pcm.SourceBitDepth
	}
	scale := float64(audio.IntMaxSignedValue(depth))
	if scale <= 0 {
		scale = math.Exp2(float64(depth - 1))
	}
	out := &audio.FloatBuffer{
		Format: &audio.Format{NumChannels: pcm.Format.NumChannels, SampleRate: pcm.Format.SampleRate},
		Data:   make([]float64, len(pcm.Data)),
	}
	bias := 0
	if depth == 8 {
		// 8-bit PCM is unsigned.
		bias = 128
		scale = 128
	}
	for i, v := range pcm.Data {
		out.Data[i] = float64(v-bias) / scale
	}
	return NewAudioBuffer(out)
}

// LoadWAVFile decodes the WAV file at path.
func LoadWAVFile(path string) (*AudioBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("resource: %w", err)
	}
	defer f.Close()
	return LoadWAV(f)
}

// EncodeWAV writes buf as integer PCM with the given bit depth. Samples are
// clamped to [-1, 1].
func EncodeWAV(w io.WriteSeeker, buf *audio.FloatBuffer, bitDepth int) error {
	if buf == nil || buf.Format == nil {
		return fmt.Errorf("resource: audio buffer has no format")
	}
	scale := float64(audio.IntMaxSignedValue(bitDepth))
	if scale <= 0 {
		return fmt.Errorf("resource: unsupported bit depth %d", bitDepth)
	}
	pcm := &audio.IntBuffer{
		Format:         buf.Format,
		Data:           make([]int, len(buf.Data)),
		SourceBitDepth: bitDepth,
	}
	bias := 0
	if bitDepth == 8 {
		bias = 128
	}
	for i, v := range buf.Data {
		pcm.Data[i] = int(math.Round(max(-1, min(1, v))*scale)) + bias
	}
	enc := wav.NewEncoder(w, buf.Format.SampleRate, bitDepth, buf.Format.NumChannels, 1)
	if err := enc.Write(pcm); err != nil {
		return fmt.Errorf("resource: encode wav: %w", err)
	}
	return enc.Close()
}
