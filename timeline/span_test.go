package timeline

import (
	"errors"
	"testing"
)

func TestFrameSpan_Queries(t *testing.T) {
	s := FrameSpan{Begin: 10, Duration: 20}
	tests := []struct {
		name string
		got  bool
		want bool
	}{
		{"contains begin", s.Contains(10), true},
		{"contains last", s.Contains(29), true},
		{"excludes end", s.Contains(30), false},
		{"excludes before", s.Contains(9), false},
		{"intersects inner", s.Intersects(FrameSpan{Begin: 15, Duration: 1}), true},
		{"adjacent does not intersect", s.Intersects(FrameSpan{Begin: 30, Duration: 5}), false},
		{"adjacent overlaps", s.Overlaps(FrameSpan{Begin: 30, Duration: 5}), true},
		{"gap does not overlap", s.Overlaps(FrameSpan{Begin: 31, Duration: 5}), false},
		{"empty", FrameSpan{Begin: 3}.IsEmpty(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestFrameSpan_Arithmetic(t *testing.T) {
	s := FrameSpan{Begin: 10, Duration: 20}
	tests := []struct {
		name string
		got  FrameSpan
		want FrameSpan
	}{
		{"union", s.Union(FrameSpan{Begin: 40, Duration: 10}), FrameSpan{Begin: 10, Duration: 40}},
		{"clamp inside", s.Clamp(FrameSpan{Begin: 15, Duration: 5}), FrameSpan{Begin: 15, Duration: 5}},
		{"clamp outside", s.Clamp(FrameSpan{Begin: 50, Duration: 5}), FrameSpan{Begin: 50}},
		{"offset", s.Offset(-5), FrameSpan{Begin: 5, Duration: 20}},
		{"expand", s.Expand(2), FrameSpan{Begin: 8, Duration: 24}},
		{"contract", s.Contract(2), FrameSpan{Begin: 12, Duration: 16}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}

	moved, err := s.MoveBegin(25)
	if err != nil || moved != (FrameSpan{Begin: 25, Duration: 5}) {
		t.Errorf("MoveBegin(25) = %s, %v", moved, err)
	}
	if _, err := s.MoveBegin(31); !errors.Is(err, ErrNegativeSpan) {
		t.Errorf("MoveBegin(31) error = %v", err)
	}
	if _, err := s.WithEndIndex(9); !errors.Is(err, ErrNegativeSpan) {
		t.Errorf("WithEndIndex(9) error = %v", err)
	}
	if u, ok := UnionAll([]FrameSpan{{Begin: 5, Duration: 1}, s}); !ok || u != (FrameSpan{Begin: 5, Duration: 25}) {
		t.Errorf("UnionAll = %s, %v", u, ok)
	}
	if _, ok := UnionAll(nil); ok {
		t.Error("UnionAll(nil) reported a span")
	}
}

func TestFrameSpan_Validate(t *testing.T) {
	if _, err := NewFrameSpan(-1, 5); !errors.Is(err, ErrNegativeSpan) {
		t.Errorf("negative begin error = %v", err)
	}
	if _, err := NewFrameSpan(0, -5); !errors.Is(err, ErrNegativeSpan) {
		t.Errorf("negative duration error = %v", err)
	}
	if s, err := FrameSpanFromIndex(3, 8); err != nil || s.Duration != 5 {
		t.Errorf("FrameSpanFromIndex = %s, %v", s, err)
	}
}
