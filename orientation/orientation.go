// Package orientation composes the rotation a renderer must apply to a
// camera frame and decides whether the frame is mirrored.
//
// The sensor is mounted at a fixed angle relative to the device, and the
// display itself can be rotated. Rotation returned by Compose is
//
//	(Correction(display) + sensorOrientation + 270) mod 360
//
// where Correction maps the display rotation to the sensor-relative
// correction {0:90, 90:0, 180:270, 270:180}.
package orientation

import (
	"errors"
	"fmt"
)

// ErrInvalidRotation indicates an angle that is not a multiple of 90 degrees.
var ErrInvalidRotation = errors.New("invalid rotation")

// Rotation is a display rotation in degrees.
type Rotation int

// Display rotations.
const (
	Rotation0   Rotation = 0
	Rotation90  Rotation = 90
	Rotation180 Rotation = 180
	Rotation270 Rotation = 270
)

// composeOffset is added to every composed rotation so the renderer's
// texture coordinates line up with the sensor's native landscape readout.
const composeOffset = 270

// FromDegrees normalises degrees into [0, 360) and returns the matching
// Rotation.
func FromDegrees(degrees int) (Rotation, error) {
	d := Normalize(degrees)
	if d%90 != 0 {
		return 0, fmt.Errorf("%w: %d degrees", ErrInvalidRotation, degrees)
	}
	return Rotation(d), nil
}

// Normalize maps any angle into [0, 360).
func Normalize(degrees int) int {
	d := degrees % 360
	if d < 0 {
		d += 360
	}
	return d
}

// Correction returns the sensor-relative correction for a display rotation.
func Correction(r Rotation) int {
	switch Rotation(Normalize(int(r))) {
	case Rotation0:
		return 90
	case Rotation90:
		return 0
	case Rotation180:
		return 270
	case Rotation270:
		return 180
	default:
		return 0
	}
}

// Compose returns the rotation in degrees the renderer applies to a frame.
func Compose(display Rotation, sensorOrientation int) int {
	return Normalize(Correction(display) + sensorOrientation + composeOffset)
}

// String implements fmt.Stringer.
func (r Rotation) String() string {
	return fmt.Sprintf("%d°", int(r))
}

// Facing is the direction a camera lens points.
type Facing int

// Lens facings.
const (
	FacingFront Facing = iota
	FacingBack
	FacingExternal
)

// Mirrored reports whether frames from a camera should be mirrored. Only
// user-facing cameras are mirrored.
func Mirrored(f Facing) bool {
	return f == FacingFront
}

// Opposite returns the facing to switch to: front and back swap, external
// cameras switch to the front camera.
func (f Facing) Opposite() Facing {
	if f == FacingFront {
		return FacingBack
	}
	return FacingFront
}

// String implements fmt.Stringer.
func (f Facing) String() string {
	switch f {
	case FacingFront:
		return "front"
	case FacingBack:
		return "back"
	case FacingExternal:
		return "external"
	default:
		return fmt.Sprintf("Facing(%d)", int(f))
	}
}

// ParseFacing parses the names produced by Facing.String.
func ParseFacing(s string) (Facing, error) {
	switch s {
	case "front":
		return FacingFront, nil
	case "back":
		return FacingBack, nil
	case "external":
		return FacingExternal, nil
	default:
		return 0, fmt.Errorf("unknown facing %q", s)
	}
}
