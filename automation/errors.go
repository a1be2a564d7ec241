package automation

import "errors"

var (
	// ErrDuplicateParameter is returned when a key is registered twice.
	ErrDuplicateParameter = errors.New("automation: parameter already registered")

	// ErrDescriptorType is returned when a descriptor does not match the
	// typed registration function it was passed to.
	ErrDescriptorType = errors.New("automation: descriptor type does not match accessor")

	// ErrInvalidKey is returned when a parameter id cannot be parsed.
	ErrInvalidKey = errors.New("automation: invalid parameter key")

	// ErrUnknownParameter is returned when a persisted parameter id is not
	// registered.
	ErrUnknownParameter = errors.New("automation: unknown parameter")

	// ErrNotApplicable is returned when a parameter is used with an owner
	// whose type it was not registered for.
	ErrNotApplicable = errors.New("automation: parameter not applicable to owner")

	// ErrNegativeFrame is returned when a keyframe is placed before frame 0.
	ErrNegativeFrame = errors.New("automation: keyframe frame must be non-negative")

	// ErrDataTypeMismatch is returned when a keyframe or value has a
	// different data type than its sequence.
	ErrDataTypeMismatch = errors.New("automation: data type mismatch")

	// ErrKeyFrameOwned is returned when adding a keyframe that already
	// belongs to a sequence.
	ErrKeyFrameOwned = errors.New("automation: keyframe already belongs to a sequence")

	// ErrValueOutOfRange is returned when a keyframe value lies outside the
	// parameter's range.
	ErrValueOutOfRange = errors.New("automation: keyframe value out of range")

	// ErrInvalidCurve is returned when a curve bend is outside [-1, 1].
	ErrInvalidCurve = errors.New("automation: curve bend must be within [-1, 1]")
)
