package resource

import (
	"image"
	"image/color"
)

// Kind classifies a resource value.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindColour
	KindImage
	KindMedia
	KindAudio
)

var kindNames = [...]string{"unknown", "colour", "image", "media", "audio"}

// String returns the persisted name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if i > 0 && n == s {
			return Kind(i), nil
		}
	}
	return KindUnknown, ErrUnknownKind
}

func kindOf(v any) Kind {
	switch v.(type) {
	case MediaSource:
		return KindMedia
	case AudioSource:
		return KindAudio
	case image.Image:
		return KindImage
	case color.Color:
		return KindColour
	default:
		return KindUnknown
	}
}
