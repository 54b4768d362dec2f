package controller

import "errors"

// Sentinel errors for controller operations.
var (
	// ErrNoCameras indicates the controller was created without cameras.
	ErrNoCameras = errors.New("no cameras available")

	// ErrCameraNotFound indicates no camera faces the requested direction.
	ErrCameraNotFound = errors.New("camera not found")

	// ErrNoOutputSizes indicates a camera that reports no output sizes.
	ErrNoOutputSizes = errors.New("camera has no output sizes")

	// ErrUnknownSize indicates a size the active camera does not offer.
	ErrUnknownSize = errors.New("size not offered by camera")

	// ErrNotInitialized indicates Initialize has not been called.
	ErrNotInitialized = errors.New("controller not initialized")
)
