package render

import "errors"

// Sentinel errors for render package operations.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrDestroyed indicates the renderer was destroyed.
	ErrDestroyed = errors.New("renderer destroyed")

	// ErrUnsupportedKind indicates an unknown renderer kind.
	ErrUnsupportedKind = errors.New("unsupported renderer kind")

	// ErrInvalidSurface indicates a non-positive surface size.
	ErrInvalidSurface = errors.New("invalid surface size")
)

// Frame errors.
var (
	// ErrFrameSize indicates the buffer length does not match the frame dimensions.
	ErrFrameSize = errors.New("frame buffer size mismatch")

	// ErrFilterRange indicates a filter index outside [0, MaxFilter).
	ErrFilterRange = errors.New("filter index out of range")

	// ErrTooManyFilters indicates a filter bank that does not fit the parameter bitfield.
	ErrTooManyFilters = errors.New("too many filters")
)
