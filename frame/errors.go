package frame

import (
	"errors"
	"fmt"
)

// Sentinel errors for frame operations.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrTruncatedPlane indicates a plane buffer ended before a full read.
	// The frame must be dropped; no partial output is produced.
	ErrTruncatedPlane = errors.New("truncated plane")

	// ErrMalformedImage indicates the image descriptor cannot be packed.
	ErrMalformedImage = errors.New("malformed image")

	// ErrBufferTooSmall indicates a destination buffer is smaller than PackedSize.
	ErrBufferTooSmall = errors.New("destination buffer too small")
)

// PlaneError describes where a plane ran out of data.
type PlaneError struct {
	Plane     int // plane index, 0 is luma
	Row       int // row being read when the buffer ran out
	Needed    int // bytes required for the read
	Remaining int // bytes left in the plane buffer
}

func (e *PlaneError) Error() string {
	return fmt.Sprintf("plane %d row %d: need %d bytes, %d remaining: %v",
		e.Plane, e.Row, e.Needed, e.Remaining, ErrTruncatedPlane)
}

// Unwrap returns ErrTruncatedPlane.
func (e *PlaneError) Unwrap() error {
	return ErrTruncatedPlane
}
