package filter

import (
	"fmt"
	"math"

	"github.com/opd-ai/campreview/frame"
)

// BoxBlur averages luminance over a square window.
type BoxBlur struct {
	radius int // 1-5
}

// NewBoxBlur creates a blur filter. radius is clamped to [1, 5].
func NewBoxBlur(radius int) *BoxBlur {
	if radius < 1 {
		radius = 1
	}
	if radius > 5 {
		radius = 5
	}
	return &BoxBlur{radius: radius}
}

// Apply blurs the Y plane. Samples outside the frame are skipped.
func (b *BoxBlur) Apply(f *frame.I420) (*frame.I420, error) {
	if f == nil {
		return nil, ErrNilFrame
	}
	out := f.Clone()

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			sum, count := 0, 0
			for dy := -b.radius; dy <= b.radius; dy++ {
				ny := y + dy
				if ny < 0 || ny >= f.Height {
					continue
				}
				for dx := -b.radius; dx <= b.radius; dx++ {
					nx := x + dx
					if nx < 0 || nx >= f.Width {
						continue
					}
					sum += int(f.Y[ny*f.YStride+nx])
					count++
				}
			}
			out.Y[y*out.YStride+x] = byte(sum / count)
		}
	}
	return out, nil
}

// GetName returns the filter name.
func (b *BoxBlur) GetName() string {
	return fmt.Sprintf("Blur(%d)", b.radius)
}

// Sharpen applies a 3x3 unsharp kernel to luminance.
type Sharpen struct {
	strength float64 // 0.0 = no effect, 2.0 = strong
}

// NewSharpen creates a sharpen filter. strength is clamped to [0, 2].
func NewSharpen(strength float64) *Sharpen {
	if strength < 0 {
		strength = 0
	}
	if strength > 2 {
		strength = 2
	}
	return &Sharpen{strength: strength}
}

// Apply sharpens interior Y samples; the one-pixel border is copied.
func (s *Sharpen) Apply(f *frame.I420) (*frame.I420, error) {
	if f == nil {
		return nil, ErrNilFrame
	}
	out := f.Clone()

	for y := 1; y < f.Height-1; y++ {
		for x := 1; x < f.Width-1; x++ {
			center := float64(lumaAt(f, x, y))
			sum := center * (1 + 4*s.strength)
			sum -= float64(lumaAt(f, x, y-1)) * s.strength
			sum -= float64(lumaAt(f, x, y+1)) * s.strength
			sum -= float64(lumaAt(f, x-1, y)) * s.strength
			sum -= float64(lumaAt(f, x+1, y)) * s.strength
			out.Y[y*out.YStride+x] = clampFloat(sum)
		}
	}
	return out, nil
}

// GetName returns the filter name.
func (s *Sharpen) GetName() string {
	return fmt.Sprintf("Sharpen(%.2f)", s.strength)
}

// EdgeDetect replaces luminance with its Sobel gradient magnitude and drops
// colour.
type EdgeDetect struct{}

// NewEdgeDetect creates the edge detection filter.
func NewEdgeDetect() *EdgeDetect {
	return &EdgeDetect{}
}

// Apply computes the gradient with edge-clamped sampling.
func (EdgeDetect) Apply(f *frame.I420) (*frame.I420, error) {
	if f == nil {
		return nil, ErrNilFrame
	}
	out, err := Grayscale{}.Apply(f)
	if err != nil {
		return nil, err
	}

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			gx := -int(clampedLuma(f, x-1, y-1)) - 2*int(clampedLuma(f, x-1, y)) - int(clampedLuma(f, x-1, y+1)) +
				int(clampedLuma(f, x+1, y-1)) + 2*int(clampedLuma(f, x+1, y)) + int(clampedLuma(f, x+1, y+1))
			gy := -int(clampedLuma(f, x-1, y-1)) - 2*int(clampedLuma(f, x, y-1)) - int(clampedLuma(f, x+1, y-1)) +
				int(clampedLuma(f, x-1, y+1)) + 2*int(clampedLuma(f, x, y+1)) + int(clampedLuma(f, x+1, y+1))
			out.Y[y*out.YStride+x] = clampFloat(math.Hypot(float64(gx), float64(gy)))
		}
	}
	return out, nil
}

// GetName returns the filter name.
func (EdgeDetect) GetName() string {
	return "EdgeDetect"
}

// Emboss renders luminance as a relief lit from the top left.
type Emboss struct{}

// NewEmboss creates the emboss filter.
func NewEmboss() *Emboss {
	return &Emboss{}
}

// Apply shades each sample by the difference of its diagonal neighbours.
func (Emboss) Apply(f *frame.I420) (*frame.I420, error) {
	if f == nil {
		return nil, ErrNilFrame
	}
	out, err := Grayscale{}.Apply(f)
	if err != nil {
		return nil, err
	}

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			d := int(clampedLuma(f, x+1, y+1)) - int(clampedLuma(f, x-1, y-1))
			out.Y[y*out.YStride+x] = clamp(128 + d)
		}
	}
	return out, nil
}

// GetName returns the filter name.
func (Emboss) GetName() string {
	return "Emboss"
}

// Mirror flips the picture horizontally.
type Mirror struct{}

// NewMirror creates the horizontal flip filter.
func NewMirror() *Mirror {
	return &Mirror{}
}

// Apply reverses every row of all three planes.
func (Mirror) Apply(f *frame.I420) (*frame.I420, error) {
	if f == nil {
		return nil, ErrNilFrame
	}
	out := f.Clone()
	cw, ch := out.ChromaSize()
	flipRows(out.Y, out.Width, out.Height, out.YStride)
	flipRows(out.U, cw, ch, out.CStride)
	flipRows(out.V, cw, ch, out.CStride)
	return out, nil
}

// GetName returns the filter name.
func (Mirror) GetName() string {
	return "Mirror"
}

func flipRows(plane []byte, width, height, stride int) {
	for y := 0; y < height; y++ {
		row := plane[y*stride : y*stride+width]
		for i, j := 0, len(row)-1; i < j; i, j = i+1, j-1 {
			row[i], row[j] = row[j], row[i]
		}
	}
}

func lumaAt(f *frame.I420, x, y int) byte {
	return f.Y[y*f.YStride+x]
}

// clampedLuma samples luminance, repeating the border outside the frame.
func clampedLuma(f *frame.I420, x, y int) byte {
	x = max(0, min(x, f.Width-1))
	y = max(0, min(y, f.Height-1))
	return lumaAt(f, x, y)
}
