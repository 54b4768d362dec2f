package stream

import "errors"

// Sentinel errors for stream package operations.
var (
	// ErrSinkClosed indicates the sink was closed.
	ErrSinkClosed = errors.New("sink closed")

	// ErrInvalidMTU indicates an MTU too small to carry a frame header.
	ErrInvalidMTU = errors.New("invalid MTU")

	// ErrFrameTooLarge indicates dimensions that do not fit the frame header.
	ErrFrameTooLarge = errors.New("frame dimensions exceed header range")

	// ErrBadHeader indicates a reassembled payload with a malformed header.
	ErrBadHeader = errors.New("malformed frame header")
)
