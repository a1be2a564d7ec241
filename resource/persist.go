package resource

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/gogpu/nle"
	"github.com/gogpu/nle/persist"
)

// RegisterImageFile decodes path and registers it under key.
func (s *Store) RegisterImageFile(key, path string) error {
	img, err := LoadImage(path)
	if err != nil {
		return err
	}
	return s.register(key, img, Origin{Kind: KindImage, Path: path})
}

// RegisterImageSequence registers the frames matching pattern under key.
func (s *Store) RegisterImageSequence(key, pattern string, rate float64) error {
	seq, err := LoadImageSequence(pattern, rate)
	if err != nil {
		return err
	}
	return s.register(key, seq, Origin{Kind: KindMedia, Path: pattern, FrameRate: rate})
}

// RegisterWAVFile decodes the WAV at path and registers it under key.
func (s *Store) RegisterWAVFile(key, path string) error {
	buf, err := LoadWAVFile(path)
	if err != nil {
		return err
	}
	return s.register(key, buf, Origin{Kind: KindAudio, Path: path})
}

// WriteTo records every entry. Colours are stored by value, file-backed
// entries by origin, and anything else by key and kind only.
func (s *Store) WriteTo(d *persist.Dict) error {
	list := d.CreateList("Resources")
	for _, key := range s.Keys() {
		s.mu.RLock()
		e, ok := s.entries[key]
		var (
			value  any
			origin Origin
		)
		if ok {
			value, origin = e.value, e.origin
		}
		s.mu.RUnlock()
		if !ok {
			continue
		}
		item := list.CreateDict()
		item.SetString("Key", key)
		item.SetString("Kind", origin.Kind.String())
		if c, isColour := value.(color.Color); isColour && origin.Kind == KindColour {
			item.SetString("Colour", FormatColour(c))
		}
		if origin.Path != "" {
			item.SetString("Path", origin.Path)
		}
		if origin.FrameRate > 0 {
			item.SetFloat64("FrameRate", origin.FrameRate)
		}
	}
	return nil
}

// ReadFrom registers the entries written by WriteTo. Entries whose value
// cannot be restored are registered offline.
func (s *Store) ReadFrom(d *persist.Dict) error {
	list, err := d.ListOr("Resources")
	if err != nil {
		return err
	}
	for i := range list.Len() {
		item, err := list.DictAt(i)
		if err != nil {
			return err
		}
		if err := s.readEntry(item); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) readEntry(item *persist.Dict) error {
	key, err := item.StringValue("Key")
	if err != nil {
		return err
	}
	kindName, err := item.StringValue("Kind")
	if err != nil {
		return err
	}
	kind, err := ParseKind(kindName)
	if err != nil {
		return fmt.Errorf("%w: %q for %q", err, kindName, key)
	}
	path, err := item.StringOr("Path", "")
	if err != nil {
		return err
	}
	rate, err := item.Float64Or("FrameRate", 0)
	if err != nil {
		return err
	}
	origin := Origin{Kind: kind, Path: path, FrameRate: rate}

	var value any
	var loadErr error
	switch kind {
	case KindColour:
		str, err := item.StringValue("Colour")
		if err != nil {
			return err
		}
		c, err := ParseColour(str)
		if err != nil {
			return err
		}
		value = c
	case KindImage:
		if path != "" {
			value, loadErr = LoadImage(path)
		}
	case KindMedia:
		if path != "" {
			value, loadErr = LoadImageSequence(path, rate)
		}
	case KindAudio:
		if path != "" {
			value, loadErr = LoadWAVFile(path)
		}
	}
	if loadErr != nil {
		nle.Logger().Warn("resource: restored offline", "key", key, "err", loadErr)
		value = nil
	}
	return s.register(key, value, origin)
}

// FormatColour renders c as #rrggbbaa (non-premultiplied).
func FormatColour(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
}

// ParseColour parses #rrggbb or #rrggbbaa.
func ParseColour(s string) (color.NRGBA, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return color.NRGBA{}, fmt.Errorf("resource: invalid colour %q", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("resource: invalid colour %q", s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
