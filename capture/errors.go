package capture

import "errors"

// Sentinel errors for capture package operations.
var (
	// ErrQueueClosed indicates the image queue accepts no more images and
	// has none left to hand out.
	ErrQueueClosed = errors.New("image queue closed")

	// ErrAlreadyRunning indicates Run was called on a pipeline that already ran.
	ErrAlreadyRunning = errors.New("pipeline already running")

	// ErrInvalidSensor indicates unusable synthetic sensor options.
	ErrInvalidSensor = errors.New("invalid sensor options")
)
