package timeline

import (
	"fmt"
)

// FrameSpan locates a clip on the timeline: a begin frame and a duration.
// The covered range is half-open, [Begin, EndIndex()).
type FrameSpan struct {
	Begin    int64
	Duration int64
}

// NewFrameSpan returns a span, rejecting negative fields.
func NewFrameSpan(begin, duration int64) (FrameSpan, error) {
	s := FrameSpan{Begin: begin, Duration: duration}
	return s, s.Validate()
}

// FrameSpanFromIndex returns the span [begin, end).
func FrameSpanFromIndex(begin, end int64) (FrameSpan, error) {
	return NewFrameSpan(begin, end-begin)
}

// Validate reports ErrNegativeSpan when either field is negative.
func (s FrameSpan) Validate() error {
	if s.Begin < 0 || s.Duration < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeSpan, s)
	}
	return nil
}

// EndIndex returns the exclusive end frame.
func (s FrameSpan) EndIndex() int64 { return s.Begin + s.Duration }

// IsEmpty reports whether the span covers no frames.
func (s FrameSpan) IsEmpty() bool { return s.Duration == 0 }

// Contains reports whether frame lies within the span.
func (s FrameSpan) Contains(frame int64) bool {
	return frame >= s.Begin && frame < s.EndIndex()
}

// Intersects reports whether the two half-open ranges overlap.
func (s FrameSpan) Intersects(o FrameSpan) bool {
	return s.Begin < o.EndIndex() && s.EndIndex() > o.Begin
}

// Overlaps reports whether the closed ranges touch or intersect, so that
// adjacent spans overlap.
func (s FrameSpan) Overlaps(o FrameSpan) bool {
	return s.Begin <= o.EndIndex() && o.Begin <= s.EndIndex()
}

// Union returns the smallest span covering both spans.
func (s FrameSpan) Union(o FrameSpan) FrameSpan {
	begin := min(s.Begin, o.Begin)
	return FrameSpan{Begin: begin, Duration: max(s.EndIndex(), o.EndIndex()) - begin}
}

// Clamp limits the span to bounds. Spans that do not overlap bounds
// collapse to an empty span at the nearest edge.
func (s FrameSpan) Clamp(bounds FrameSpan) FrameSpan {
	begin := min(max(s.Begin, bounds.Begin), bounds.EndIndex())
	end := max(min(s.EndIndex(), bounds.EndIndex()), begin)
	return FrameSpan{Begin: begin, Duration: end - begin}
}

// Offset moves the span by frames.
func (s FrameSpan) Offset(frames int64) FrameSpan {
	return FrameSpan{Begin: s.Begin + frames, Duration: s.Duration}
}

// WithBegin returns the span moved to begin, keeping the duration.
func (s FrameSpan) WithBegin(begin int64) FrameSpan {
	return FrameSpan{Begin: begin, Duration: s.Duration}
}

// WithDuration returns the span with a new duration.
func (s FrameSpan) WithDuration(duration int64) FrameSpan {
	return FrameSpan{Begin: s.Begin, Duration: duration}
}

// WithEndIndex returns the span ending at end. end must not precede Begin.
func (s FrameSpan) WithEndIndex(end int64) (FrameSpan, error) {
	if end < s.Begin {
		return s, fmt.Errorf("%w: end %d before begin %d", ErrNegativeSpan, end, s.Begin)
	}
	return FrameSpan{Begin: s.Begin, Duration: end - s.Begin}, nil
}

// MoveBegin moves the begin frame while keeping the end fixed.
func (s FrameSpan) MoveBegin(begin int64) (FrameSpan, error) {
	end := s.EndIndex()
	if begin > end {
		return s, fmt.Errorf("%w: begin %d after end %d", ErrNegativeSpan, begin, end)
	}
	return FrameSpan{Begin: begin, Duration: end - begin}, nil
}

// Expand grows the span by n frames on each side.
func (s FrameSpan) Expand(n int64) FrameSpan {
	return FrameSpan{Begin: s.Begin - n, Duration: s.Duration + 2*n}
}

// Contract shrinks the span by n frames on each side.
func (s FrameSpan) Contract(n int64) FrameSpan {
	return FrameSpan{Begin: s.Begin + n, Duration: s.Duration - 2*n}
}

func (s FrameSpan) String() string {
	return fmt.Sprintf("%d->%d (%d)", s.Begin, s.EndIndex(), s.Duration)
}

// UnionAll returns the span covering every span, and false when spans is
// empty.
func UnionAll(spans []FrameSpan) (FrameSpan, bool) {
	if len(spans) == 0 {
		return FrameSpan{}, false
	}
	u := spans[0]
	for _, s := range spans[1:] {
		u = u.Union(s)
	}
	return u, true
}
