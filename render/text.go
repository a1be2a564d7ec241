// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/go-text/typesetting/di"
	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"

	"github.com/gogpu/nle/internal/cache"
)

// ErrInvalidFontSize is returned when a face is requested with a
// non-positive or non-finite size.
var ErrInvalidFontSize = errors.New("render: invalid font size")

// faceCacheLimit bounds the number of sizes kept per font.
const faceCacheLimit = 32

// Font is parsed TrueType/OpenType data. It is safe for concurrent use and
// hands out Faces at specific sizes.
type Font struct {
	name    string
	sfnt    *opentype.Font
	shaping *gtfont.Font
	faces   *cache.Cache[float64, *Face]
}

// ParseFont parses font data. name is used for diagnostics and persistence.
func ParseFont(name string, data []byte) (*Font, error) {
	sf, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("render: parse font %q: %w", name, err)
	}
	gf, err := gtfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("render: parse font %q for shaping: %w", name, err)
	}
	return &Font{
		name:    name,
		sfnt:    sf,
		shaping: gf.Font,
		faces:   cache.New[float64, *Face](faceCacheLimit),
	}, nil
}

func mustParseFont(name string, data []byte) *Font {
	f, err := ParseFont(name, data)
	if err != nil {
		panic(err)
	}
	return f
}

var (
	defaultFont = sync.OnceValue(func() *Font { return mustParseFont("Go Regular", goregular.TTF) })
	monoFont    = sync.OnceValue(func() *Font { return mustParseFont("Go Mono", gomono.TTF) })
)

// DefaultFont returns the built-in proportional font.
func DefaultFont() *Font { return defaultFont() }

// MonoFont returns the built-in monospace font.
func MonoFont() *Font { return monoFont() }

// Name returns the font name.
func (f *Font) Name() string { return f.name }

// Face returns the face at size (in pixels), cached per size.
func (f *Font) Face(size float64) (*Face, error) {
	if !(size > 0) || math.IsInf(size, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFontSize, size)
	}
	var err error
	face := f.faces.GetOrCreate(size, func() *Face {
		var xf font.Face
		xf, err = opentype.NewFace(f.sfnt, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			return nil
		}
		return &Face{font: f, size: size, face: xf}
	})
	if face == nil {
		f.faces.Delete(size)
		if err == nil {
			err = fmt.Errorf("render: face %q at %v unavailable", f.name, size)
		}
		return nil, err
	}
	return face, nil
}

// Face is a font at a fixed pixel size. The underlying x/image face is not
// safe for concurrent use, so drawing and measuring are serialised.
type Face struct {
	font *Font
	size float64

	mu   sync.Mutex
	face font.Face
}

// Font returns the font the face was created from.
func (f *Face) Font() *Font { return f.font }

// Size returns the pixel size.
func (f *Face) Size() float64 { return f.size }

// Metrics describes vertical font metrics in pixels.
type Metrics struct {
	Ascent, Descent, Height float64
}

// Metrics returns the vertical metrics of the face.
func (f *Face) Metrics() Metrics {
	f.mu.Lock()
	m := f.face.Metrics()
	f.mu.Unlock()
	return Metrics{
		Ascent:  fixedToFloat(m.Ascent),
		Descent: fixedToFloat(m.Descent),
		Height:  fixedToFloat(m.Height),
	}
}

// Bounds returns the ink bounds of text drawn with its baseline origin at
// (0, 0).
func (f *Face) Bounds(text string) Rect {
	f.mu.Lock()
	b, _ := font.BoundString(f.face, text)
	f.mu.Unlock()
	return Rect{
		Left:   fixedToFloat(b.Min.X),
		Top:    fixedToFloat(b.Min.Y),
		Right:  fixedToFloat(b.Max.X),
		Bottom: fixedToFloat(b.Max.Y),
	}
}

// rasterize draws text into a tight image and returns it with the baseline
// origin inside that image.
func (f *Face) rasterize(text string, col color.Color) (*image.RGBA, Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, _ := font.BoundString(f.face, text)
	minX, minY := b.Min.X.Floor(), b.Min.Y.Floor()
	maxX, maxY := b.Max.X.Ceil(), b.Max.Y.Ceil()
	if maxX <= minX || maxY <= minY {
		return nil, Point{}
	}
	img := image.NewRGBA(image.Rect(0, 0, maxX-minX, maxY-minY))
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: f.face,
		Dot:  fixed.P(-minX, -minY),
	}
	d.DrawString(text)
	return img, Pt(float64(-minX), float64(-minY))
}

// TextRun is a directional run of a laid out line.
type TextRun struct {
	Text    string
	RTL     bool
	Advance float64
}

// TextLayout is a single line split into bidi runs in visual order.
type TextLayout struct {
	Runs    []TextRun
	Advance float64
	Metrics Metrics
}

// Layout splits text into bidi runs and measures each with HarfBuzz
// shaping. The returned runs are in visual order.
func (f *Face) Layout(text string) (TextLayout, error) {
	layout := TextLayout{Metrics: f.Metrics()}
	if text == "" {
		return layout, nil
	}
	var p bidi.Paragraph
	if _, err := p.SetString(text, bidi.DefaultDirection(bidi.LeftToRight)); err != nil {
		return layout, fmt.Errorf("render: bidi: %w", err)
	}
	order, err := p.Order()
	if err != nil {
		return layout, fmt.Errorf("render: bidi order: %w", err)
	}
	shaper := shaping.HarfbuzzShaper{}
	face := gtfont.NewFace(f.font.shaping)
	for i := range order.NumRuns() {
		run := order.Run(i)
		s := run.String()
		rtl := run.Direction() == bidi.RightToLeft
		adv := shapeAdvance(&shaper, face, s, rtl, f.size)
		layout.Runs = append(layout.Runs, TextRun{Text: s, RTL: rtl, Advance: adv})
		layout.Advance += adv
	}
	return layout, nil
}

// VisualText returns the line with right-to-left runs reversed so that it
// can be drawn left to right.
func (l TextLayout) VisualText() string {
	var b bytes.Buffer
	for _, r := range l.Runs {
		if r.RTL {
			b.WriteString(bidi.ReverseString(r.Text))
		} else {
			b.WriteString(r.Text)
		}
	}
	return b.String()
}

func shapeAdvance(shaper *shaping.HarfbuzzShaper, face *gtfont.Face, s string, rtl bool, size float64) float64 {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	dir := di.DirectionLTR
	if rtl {
		dir = di.DirectionRTL
	}
	out := shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: dir,
		Face:      face,
		Size:      fixed.Int26_6(size * 64),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	})
	var adv fixed.Int26_6
	for _, g := range out.Glyphs {
		adv += g.Advance
	}
	return fixedToFloat(adv)
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }
