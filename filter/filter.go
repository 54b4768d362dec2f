// Package filter implements per-frame picture filters over planar I420
// frames and the indexed filter bank a renderer switches between.
//
// Filters never modify their input: Apply returns a new frame. Filters that
// only touch luma (brightness, contrast, spatial kernels) copy the chroma
// planes unchanged and the reverse holds for colour filters.
//
//	bank := filter.DefaultBank()
//	out, err := bank.Apply(3, f) // filter index 3
//
// Filter types in this package are stateless and safe for concurrent use.
package filter

import (
	"errors"
	"fmt"

	"github.com/opd-ai/campreview/frame"
)

// ErrNilFrame is returned when a filter receives a nil frame.
var ErrNilFrame = errors.New("input frame cannot be nil")

// ErrIndexOutOfRange is returned for a bank index outside [0, Len()).
var ErrIndexOutOfRange = errors.New("filter index out of range")

// Filter transforms a frame.
type Filter interface {
	// Apply processes a frame and returns the filtered copy.
	Apply(f *frame.I420) (*frame.I420, error)
	// GetName returns the filter name for identification.
	GetName() string
}

// Chain applies filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a chain from filters.
func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: append([]Filter(nil), filters...)}
}

// Add appends a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Len returns the number of filters in the chain.
func (c *Chain) Len() int {
	return len(c.filters)
}

// Apply runs the frame through every filter. An empty chain returns a copy.
func (c *Chain) Apply(f *frame.I420) (*frame.I420, error) {
	if f == nil {
		return nil, ErrNilFrame
	}

	current := f.Clone()
	for i, flt := range c.filters {
		next, err := flt.Apply(current)
		if err != nil {
			return nil, fmt.Errorf("filter %d (%s) failed: %w", i, flt.GetName(), err)
		}
		current = next
	}
	return current, nil
}

// GetName returns the names of the chained filters.
func (c *Chain) GetName() string {
	name := "Chain("
	for i, f := range c.filters {
		if i > 0 {
			name += ","
		}
		name += f.GetName()
	}
	return name + ")"
}

// Bank is an ordered, fixed set of filters addressed by index. Index 0 is
// the unfiltered picture.
type Bank struct {
	filters []Filter
}

// NewBank creates a bank. The caller decides the order.
func NewBank(filters ...Filter) *Bank {
	return &Bank{filters: append([]Filter(nil), filters...)}
}

// DefaultBank returns the thirteen built-in filters with Identity first.
func DefaultBank() *Bank {
	return NewBank(
		NewIdentity(),
		NewGrayscale(),
		NewSepia(),
		NewNegative(),
		NewBrightness(40),
		NewContrast(1.5),
		NewColorTemperature(60),
		NewColorTemperature(-60),
		NewPosterize(4),
		NewBoxBlur(2),
		NewSharpen(1.0),
		NewEdgeDetect(),
		NewEmboss(),
	)
}

// Len returns the number of filters in the bank.
func (b *Bank) Len() int {
	return len(b.filters)
}

// At returns the filter at index.
func (b *Bank) At(index int) (Filter, error) {
	if index < 0 || index >= len(b.filters) {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, index, len(b.filters))
	}
	return b.filters[index], nil
}

// Names lists the filter names in bank order.
func (b *Bank) Names() []string {
	names := make([]string, len(b.filters))
	for i, f := range b.filters {
		names[i] = f.GetName()
	}
	return names
}

// Apply filters f with the filter at index.
func (b *Bank) Apply(index int, f *frame.I420) (*frame.I420, error) {
	flt, err := b.At(index)
	if err != nil {
		return nil, err
	}
	return flt.Apply(f)
}

// Identity returns the frame unchanged.
type Identity struct{}

// NewIdentity creates the pass-through filter.
func NewIdentity() *Identity {
	return &Identity{}
}

// Apply returns a copy of f.
func (Identity) Apply(f *frame.I420) (*frame.I420, error) {
	if f == nil {
		return nil, ErrNilFrame
	}
	return f.Clone(), nil
}

// GetName returns the filter name.
func (Identity) GetName() string {
	return "Identity"
}

func clamp(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

func clampFloat(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v + 0.5)
}

// mapPlane applies fn to every visible sample of a plane in place.
func mapPlane(plane []byte, width, height, stride int, fn func(byte) byte) {
	for y := 0; y < height; y++ {
		row := plane[y*stride : y*stride+width]
		for x, v := range row {
			row[x] = fn(v)
		}
	}
}
