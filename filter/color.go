package filter

import (
	"fmt"

	"github.com/opd-ai/campreview/frame"
)

// Brightness shifts luminance by a fixed amount.
type Brightness struct {
	adjustment int // -255 to +255
}

// NewBrightness creates a brightness filter. adjustment is clamped to
// [-255, 255]; 0 leaves the frame unchanged.
func NewBrightness(adjustment int) *Brightness {
	if adjustment < -255 {
		adjustment = -255
	}
	if adjustment > 255 {
		adjustment = 255
	}
	return &Brightness{adjustment: adjustment}
}

// Apply adjusts the Y plane only.
func (b *Brightness) Apply(f *frame.I420) (*frame.I420, error) {
	if f == nil {
		return nil, ErrNilFrame
	}
	out := f.Clone()
	mapPlane(out.Y, out.Width, out.Height, out.YStride, func(v byte) byte {
		return clamp(int(v) + b.adjustment)
	})
	return out, nil
}

// GetName returns the filter name.
func (b *Brightness) GetName() string {
	return fmt.Sprintf("Brightness(%+d)", b.adjustment)
}

// Contrast scales luminance around mid-grey.
type Contrast struct {
	factor float64 // 0.0 = flat grey, 1.0 = unchanged
}

// NewContrast creates a contrast filter. factor is clamped to [0, 3].
func NewContrast(factor float64) *Contrast {
	if factor < 0 {
		factor = 0
	}
	if factor > 3 {
		factor = 3
	}
	return &Contrast{factor: factor}
}

// Apply adjusts the Y plane around 128.
func (c *Contrast) Apply(f *frame.I420) (*frame.I420, error) {
	if f == nil {
		return nil, ErrNilFrame
	}
	const midpoint = 128.0

	out := f.Clone()
	mapPlane(out.Y, out.Width, out.Height, out.YStride, func(v byte) byte {
		return clampFloat(midpoint + (float64(v)-midpoint)*c.factor)
	})
	return out, nil
}

// GetName returns the filter name.
func (c *Contrast) GetName() string {
	return fmt.Sprintf("Contrast(%.2f)", c.factor)
}

// Negative inverts every sample.
type Negative struct{}

// NewNegative creates the inversion filter.
func NewNegative() *Negative {
	return &Negative{}
}

// Apply inverts all three planes. Inverting chroma around 128 swaps hues to
// their complements.
func (Negative) Apply(f *frame.I420) (*frame.I420, error) {
	if f == nil {
		return nil, ErrNilFrame
	}
	invert := func(v byte) byte { return 255 - v }

	out := f.Clone()
	cw, ch := out.ChromaSize()
	mapPlane(out.Y, out.Width, out.Height, out.YStride, invert)
	mapPlane(out.U, cw, ch, out.CStride, invert)
	mapPlane(out.V, cw, ch, out.CStride, invert)
	return out, nil
}

// GetName returns the filter name.
func (Negative) GetName() string {
	return "Negative"
}

// Posterize reduces luminance to a small number of levels.
type Posterize struct {
	levels int
}

// NewPosterize creates a posterize filter. levels is clamped to [2, 64].
func NewPosterize(levels int) *Posterize {
	if levels < 2 {
		levels = 2
	}
	if levels > 64 {
		levels = 64
	}
	return &Posterize{levels: levels}
}

// Apply quantizes the Y plane.
func (p *Posterize) Apply(f *frame.I420) (*frame.I420, error) {
	if f == nil {
		return nil, ErrNilFrame
	}
	step := 255.0 / float64(p.levels-1)

	out := f.Clone()
	mapPlane(out.Y, out.Width, out.Height, out.YStride, func(v byte) byte {
		level := int(float64(v)/step + 0.5)
		return clampFloat(float64(level) * step)
	})
	return out, nil
}

// GetName returns the filter name.
func (p *Posterize) GetName() string {
	return fmt.Sprintf("Posterize(%d)", p.levels)
}

// Grayscale removes colour by setting both chroma planes to neutral.
type Grayscale struct{}

// NewGrayscale creates the grayscale filter.
func NewGrayscale() *Grayscale {
	return &Grayscale{}
}

// Apply sets U and V to 128.
func (Grayscale) Apply(f *frame.I420) (*frame.I420, error) {
	if f == nil {
		return nil, ErrNilFrame
	}
	neutral := func(byte) byte { return 128 }

	out := f.Clone()
	cw, ch := out.ChromaSize()
	mapPlane(out.U, cw, ch, out.CStride, neutral)
	mapPlane(out.V, cw, ch, out.CStride, neutral)
	return out, nil
}

// GetName returns the filter name.
func (Grayscale) GetName() string {
	return "Grayscale"
}

// Sepia tints a grayscale picture brown.
type Sepia struct{}

// NewSepia creates the sepia filter.
func NewSepia() *Sepia {
	return &Sepia{}
}

// Sepia chroma in BT.601: blue difference below neutral, red above.
const (
	sepiaU = 114
	sepiaV = 144
)

// Apply replaces chroma with a fixed sepia tone.
func (Sepia) Apply(f *frame.I420) (*frame.I420, error) {
	if f == nil {
		return nil, ErrNilFrame
	}
	out := f.Clone()
	cw, ch := out.ChromaSize()
	mapPlane(out.U, cw, ch, out.CStride, func(byte) byte { return sepiaU })
	mapPlane(out.V, cw, ch, out.CStride, func(byte) byte { return sepiaV })
	return out, nil
}

// GetName returns the filter name.
func (Sepia) GetName() string {
	return "Sepia"
}

// ColorTemperature warms (positive) or cools (negative) the picture.
type ColorTemperature struct {
	temperature int // -100 (cool) to +100 (warm)
}

// NewColorTemperature creates a colour temperature filter. temperature is
// clamped to [-100, 100].
func NewColorTemperature(temperature int) *ColorTemperature {
	if temperature < -100 {
		temperature = -100
	}
	if temperature > 100 {
		temperature = 100
	}
	return &ColorTemperature{temperature: temperature}
}

// Apply shifts V (red difference) with the temperature and U (blue
// difference) against it.
func (c *ColorTemperature) Apply(f *frame.I420) (*frame.I420, error) {
	if f == nil {
		return nil, ErrNilFrame
	}
	shift := c.temperature * 40 / 100

	out := f.Clone()
	cw, ch := out.ChromaSize()
	mapPlane(out.U, cw, ch, out.CStride, func(v byte) byte { return clamp(int(v) - shift) })
	mapPlane(out.V, cw, ch, out.CStride, func(v byte) byte { return clamp(int(v) + shift) })
	return out, nil
}

// GetName returns the filter name.
func (c *ColorTemperature) GetName() string {
	switch {
	case c.temperature > 0:
		return fmt.Sprintf("ColorTemperature(Warm%+d)", c.temperature)
	case c.temperature < 0:
		return fmt.Sprintf("ColorTemperature(Cool%+d)", c.temperature)
	default:
		return "ColorTemperature(Neutral)"
	}
}
