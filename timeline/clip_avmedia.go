package timeline

import (
	"fmt"
	"image"
	"time"

	"github.com/gogpu/nle"
	"github.com/gogpu/nle/internal/cache"
	"github.com/gogpu/nle/persist"
	"github.com/gogpu/nle/render"
	"github.com/gogpu/nle/resource"
)

// mediaFrameCacheSize is the number of decoded frames kept per clip.
const mediaFrameCacheSize = 32

// AVMediaClip plays the video frames of a media resource. Decoded frames
// are kept in a small LRU cache shared with in-flight renders.
type AVMediaClip struct {
	VideoClipBase

	media   *resource.Link[resource.MediaSource]
	frames  *cache.Cache[int64, *image.RGBA]
	quality render.FilterQuality
}

// NewAVMediaClip returns a detached media clip.
func NewAVMediaClip(env *Env) *AVMediaClip {
	c := &AVMediaClip{
		frames:  cache.New[int64, *image.RGBA](mediaFrameCacheSize),
		quality: render.FilterMedium,
	}
	c.media = resource.NewLink[resource.MediaSource](env.Resources, "")
	c.initVideo(c, env, KindAVMediaClip, AVMediaOwnerType)
	c.addLink(c.media)
	c.media.OnChanged(func(resource.Event) {
		c.frames.Clear()
		c.InvalidateRender()
	})
	return c
}

// Media returns the media link.
func (c *AVMediaClip) Media() *resource.Link[resource.MediaSource] { return c.media }

// SetMediaKey points the clip at a media resource.
func (c *AVMediaClip) SetMediaKey(key string) {
	c.media.SetKey(key)
	c.MarkModified()
}

// FrameCacheStats returns statistics of the decoded frame cache.
func (c *AVMediaClip) FrameCacheStats() cache.Stats { return c.frames.Stats() }

// MediaDuration returns the length of the linked media in frames at fps,
// and false when the media is unavailable.
func (c *AVMediaClip) MediaDuration(fps float64) (int64, bool) {
	m, ok := c.media.TryGet()
	if !ok {
		return 0, false
	}
	return int64(m.Duration().Seconds() * fps), true
}

// PrepareFrame implements VideoClip. Decoding happens at render time.
func (c *AVMediaClip) PrepareFrame(pc *PrepareContext) (ClipFrame, error) {
	m, ok := c.media.TryGet()
	if !ok {
		nle.Logger().Debug("timeline: media unavailable", "clip", c.id, "key", c.media.Key())
		return nil, nil
	}
	frame := c.mediaFrame(pc)
	return mediaFrame{
		media:   m,
		frame:   frame,
		at:      pc.FrameTime(frame),
		frames:  c.frames,
		quality: min(c.quality, pc.Quality),
	}, nil
}

type mediaFrame struct {
	media   resource.MediaSource
	frame   int64
	at      time.Duration
	frames  *cache.Cache[int64, *image.RGBA]
	quality render.FilterQuality
}

func (f mediaFrame) Draw(c render.Canvas, rc *RenderContext) error {
	img, ok := f.frames.Get(f.frame)
	if !ok {
		src, err := f.media.FrameAt(f.at)
		if err != nil {
			return fmt.Errorf("timeline: media frame %d: %w", f.frame, err)
		}
		img = render.ToRGBA(src)
		f.frames.Set(f.frame, img)
	}
	return imageFrame{img: img, quality: f.quality}.Draw(c, rc)
}

// WriteTo implements Clip.
func (c *AVMediaClip) WriteTo(d *persist.Dict) error {
	if err := c.ClipBase.WriteTo(d); err != nil {
		return err
	}
	d.SetString("MediaKey", c.media.Key())
	return nil
}

// ReadFrom implements Clip.
func (c *AVMediaClip) ReadFrom(d *persist.Dict) error {
	if err := c.ClipBase.ReadFrom(d); err != nil {
		return err
	}
	key, err := d.StringOr("MediaKey", "")
	if err != nil {
		return err
	}
	c.media.SetKey(key)
	return nil
}
