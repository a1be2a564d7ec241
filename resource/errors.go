package resource

import "errors"

var (
	// ErrEmptyKey is returned when registering under an empty key.
	ErrEmptyKey = errors.New("resource: empty key")

	// ErrDuplicateKey is returned when a key is already registered.
	ErrDuplicateKey = errors.New("resource: key already registered")

	// ErrNotFound is returned for operations on an unknown key.
	ErrNotFound = errors.New("resource: not found")

	// ErrUnknownKind is returned when reading an entry of unknown kind.
	ErrUnknownKind = errors.New("resource: unknown kind")

	// ErrNoFrames is returned when an image sequence has no frames.
	ErrNoFrames = errors.New("resource: media has no frames")
)
