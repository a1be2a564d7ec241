package timeline

import (
	"slices"

	"github.com/samber/lo"

	"github.com/gogpu/nle"
	"github.com/gogpu/nle/internal/event"
)

// chunkShift sets the cache granularity: 1<<7 = 128 frames per chunk.
const chunkShift = 7

// ChunkSize is the number of frames covered by one cache chunk.
const ChunkSize = 1 << chunkShift

// chunkIndex returns the chunk that contains frame.
func chunkIndex(frame int64) int64 { return frame >> chunkShift }

// chunkRange returns the inclusive chunk range for a span. The chunk of the
// end index is included, matching how clips are listed.
func chunkRange(s FrameSpan) (first, last int64) {
	return chunkIndex(s.Begin), chunkIndex(s.EndIndex())
}

// ClipRangeCache indexes the clips of a track by 128-frame chunk so that
// frame and range queries touch only a few candidates. It is derived from
// the track's clip list and is kept in step by the track: every Add is
// paired with a Remove, and every span change goes through OnSpanChanged.
//
// Not safe for concurrent use.
type ClipRangeCache struct {
	chunks map[int64][]Clip
	keys   []int64 // populated chunk indices, ascending

	smallest, largest         int64
	prevSmallest, prevLargest int64

	frameDataChanged event.List[*ClipRangeCache]
}

// NewClipRangeCache returns an empty cache.
func NewClipRangeCache() *ClipRangeCache {
	return &ClipRangeCache{chunks: make(map[int64][]Clip)}
}

// SmallestActiveFrame returns the smallest begin frame over all clips, or 0
// when the cache is empty.
func (c *ClipRangeCache) SmallestActiveFrame() int64 { return c.smallest }

// LargestActiveFrame returns the largest end index over all clips, or 0
// when the cache is empty.
func (c *ClipRangeCache) LargestActiveFrame() int64 { return c.largest }

// PreviousSmallestActiveFrame returns the smallest frame before the last
// change.
func (c *ClipRangeCache) PreviousSmallestActiveFrame() int64 { return c.prevSmallest }

// PreviousLargestActiveFrame returns the largest frame before the last
// change.
func (c *ClipRangeCache) PreviousLargestActiveFrame() int64 { return c.prevLargest }

// ChunkCount returns the number of populated chunks.
func (c *ClipRangeCache) ChunkCount() int { return len(c.keys) }

// OnFrameDataChanged registers a handler fired after every change.
func (c *ClipRangeCache) OnFrameDataChanged(fn func(*ClipRangeCache)) (remove func()) {
	return c.frameDataChanged.Add(fn)
}

// Add lists clip in every chunk its span touches.
func (c *ClipRangeCache) Add(clip Clip) {
	span := clip.Span()
	wasEmpty := len(c.keys) == 0
	c.addRange(clip, span)
	c.prevSmallest, c.prevLargest = c.smallest, c.largest
	if wasEmpty {
		c.smallest, c.largest = span.Begin, span.EndIndex()
	} else {
		c.smallest = min(c.smallest, span.Begin)
		c.largest = max(c.largest, span.EndIndex())
	}
	c.frameDataChanged.Fire(c)
}

// Remove unlists clip from the chunks of its current span.
func (c *ClipRangeCache) Remove(clip Clip) {
	c.RemoveSpan(clip, clip.Span())
}

// RemoveSpan unlists clip from the chunks of span, which must be the span the
// clip was listed under.
func (c *ClipRangeCache) RemoveSpan(clip Clip, span FrameSpan) {
	c.removeRange(clip, span)
	c.updateBounds()
}

// OnSpanChanged relists clip after its span changed from old.
func (c *ClipRangeCache) OnSpanChanged(clip Clip, old FrameSpan) {
	span := clip.Span()
	if span == old {
		return
	}
	oldLo, oldHi := chunkRange(old)
	newLo, newHi := chunkRange(span)
	if oldLo != newLo || oldHi != newHi {
		c.removeRange(clip, old)
		c.addRange(clip, span)
	}
	c.updateBounds()
}

func (c *ClipRangeCache) addRange(clip Clip, span FrameSpan) {
	first, last := chunkRange(span)
	for i := first; i <= last; i++ {
		list, ok := c.chunks[i]
		if !ok {
			pos, _ := slices.BinarySearch(c.keys, i)
			c.keys = slices.Insert(c.keys, pos, i)
		} else if slices.Contains(list, clip) {
			nle.Invariant("ClipRangeCache.Add", "clip %s already listed in chunk %d", clip.ID(), i)
		}
		c.chunks[i] = append(list, clip)
	}
}

func (c *ClipRangeCache) removeRange(clip Clip, span FrameSpan) {
	first, last := chunkRange(span)
	for i := first; i <= last; i++ {
		list, ok := c.chunks[i]
		if !ok {
			nle.Invariant("ClipRangeCache.Remove", "no chunk %d for clip %s at %s", i, clip.ID(), span)
		}
		idx := slices.Index(list, clip)
		if idx < 0 {
			nle.Invariant("ClipRangeCache.Remove", "clip %s not listed in chunk %d", clip.ID(), i)
		}
		list = slices.Delete(list, idx, idx+1)
		if len(list) == 0 {
			delete(c.chunks, i)
			pos, _ := slices.BinarySearch(c.keys, i)
			c.keys = slices.Delete(c.keys, pos, pos+1)
		} else {
			c.chunks[i] = list
		}
	}
}

// updateBounds recomputes the active frame bounds. The clip with the
// smallest begin is always listed in the lowest populated chunk, and the
// clip with the largest end in the highest, so only those two are scanned.
func (c *ClipRangeCache) updateBounds() {
	var smallest, largest int64
	if n := len(c.keys); n > 0 {
		first := c.chunks[c.keys[0]]
		smallest = first[0].Span().Begin
		for _, clip := range first[1:] {
			smallest = min(smallest, clip.Span().Begin)
		}
		for _, clip := range c.chunks[c.keys[n-1]] {
			largest = max(largest, clip.Span().EndIndex())
		}
	}
	c.prevSmallest, c.prevLargest = c.smallest, c.largest
	c.smallest, c.largest = smallest, largest
	c.frameDataChanged.Fire(c)
}

// PrimaryClipAt returns the clip at frame. When several clips overlap the
// most recently listed one wins.
func (c *ClipRangeCache) PrimaryClipAt(frame int64) Clip {
	list := c.chunks[chunkIndex(frame)]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Span().Contains(frame) {
			return list[i]
		}
	}
	return nil
}

// ClipsAtFrame returns every clip covering frame, most recently listed
// first.
func (c *ClipRangeCache) ClipsAtFrame(frame int64) []Clip {
	list := c.chunks[chunkIndex(frame)]
	var out []Clip
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Span().Contains(frame) {
			out = append(out, list[i])
		}
	}
	return out
}

// ClipsInRange returns every clip intersecting span, each once, in chunk
// order and most recently listed first within a chunk.
func (c *ClipRangeCache) ClipsInRange(span FrameSpan) []Clip {
	first, last := chunkRange(span)
	var out []Clip
	for _, i := range c.populatedIn(first, last) {
		list := c.chunks[i]
		for j := len(list) - 1; j >= 0; j-- {
			if list[j].Span().Intersects(span) {
				out = append(out, list[j])
			}
		}
	}
	// A clip spanning several chunks is listed in each of them.
	return lo.Uniq(out)
}

// IsRegionEmpty reports whether no clip intersects span.
func (c *ClipRangeCache) IsRegionEmpty(span FrameSpan) bool {
	first, last := chunkRange(span)
	for _, i := range c.populatedIn(first, last) {
		if slices.ContainsFunc(c.chunks[i], func(clip Clip) bool { return clip.Span().Intersects(span) }) {
			return false
		}
	}
	return true
}

// populatedIn returns the populated chunk indices within [first, last].
func (c *ClipRangeCache) populatedIn(first, last int64) []int64 {
	from, _ := slices.BinarySearch(c.keys, first)
	to, _ := slices.BinarySearch(c.keys, last+1)
	return c.keys[from:to]
}

// Clear empties the cache.
func (c *ClipRangeCache) Clear() {
	clear(c.chunks)
	c.keys = nil
	c.prevSmallest, c.prevLargest = c.smallest, c.largest
	c.smallest, c.largest = 0, 0
	c.frameDataChanged.Fire(c)
}
