package capture

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/opd-ai/campreview/frame"
)

// Layout is the memory arrangement a SyntheticSensor gives its planes.
type Layout int

const (
	// LayoutPacked stores each plane tightly, pixel stride 1.
	LayoutPacked Layout = iota
	// LayoutSemiPlanar interleaves chroma as V,U pairs in one buffer with
	// pixel stride 2, the usual camera HAL output.
	LayoutSemiPlanar
	// LayoutPadded rounds every row stride up to the sensor alignment.
	LayoutPadded
	// LayoutShortLastRow pads rows like LayoutPadded but ends each buffer
	// right after the last sample, with semi-planar chroma.
	LayoutShortLastRow
)

var layoutNames = map[Layout]string{
	LayoutPacked:       "packed",
	LayoutSemiPlanar:   "semiplanar",
	LayoutPadded:       "padded",
	LayoutShortLastRow: "shortlastrow",
}

// String implements fmt.Stringer.
func (l Layout) String() string {
	if s, ok := layoutNames[l]; ok {
		return s
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// ParseLayout parses a layout name as produced by String.
func ParseLayout(s string) (Layout, error) {
	for l, name := range layoutNames {
		if strings.EqualFold(s, name) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown layout %q", ErrInvalidSensor, s)
}

// DefaultAlignment is the row alignment used by padded layouts.
const DefaultAlignment = 64

// SensorOptions configures a SyntheticSensor.
type SensorOptions struct {
	Width        int
	Height       int
	Layout       Layout
	Alignment    int // row alignment for padded layouts
	FrameRate    int // frames per second; 0 produces frames as fast as requested
	Frames       int // frames before io.EOF; 0 means unbounded
	TimeProvider TimeProvider
}

// SyntheticSensor is a Source producing a moving test pattern in a chosen
// plane layout.
type SyntheticSensor struct {
	opts     SensorOptions
	tp       TimeProvider
	produced int
	next     time.Time
	live     atomic.Int64
}

// NewSyntheticSensor validates opts and creates a sensor.
func NewSyntheticSensor(opts SensorOptions) (*SyntheticSensor, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidSensor, opts.Width, opts.Height)
	}
	if _, ok := layoutNames[opts.Layout]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSensor, opts.Layout)
	}
	if opts.Alignment <= 0 {
		opts.Alignment = DefaultAlignment
	}
	if opts.FrameRate < 0 || opts.Frames < 0 {
		return nil, fmt.Errorf("%w: negative frame rate or count", ErrInvalidSensor)
	}
	return &SyntheticSensor{opts: opts, tp: getTimeProvider(opts.TimeProvider)}, nil
}

// Outstanding returns the number of produced images not yet released.
func (s *SyntheticSensor) Outstanding() int {
	return int(s.live.Load())
}

// Next returns the next frame, pacing to the frame rate when one is set.
// It is not safe for concurrent use.
func (s *SyntheticSensor) Next(ctx context.Context) (*frame.Image, error) {
	if s.opts.Frames > 0 && s.produced >= s.opts.Frames {
		return nil, io.EOF
	}
	if err := s.pace(ctx); err != nil {
		return nil, err
	}

	n := s.produced
	s.produced++
	s.live.Add(1)
	return frame.NewImage(s.opts.Width, s.opts.Height, s.planes(n), s.tp.Now(), func() {
		s.live.Add(-1)
	}), nil
}

func (s *SyntheticSensor) pace(ctx context.Context) error {
	if s.opts.FrameRate == 0 {
		return ctx.Err()
	}
	interval := time.Second / time.Duration(s.opts.FrameRate)
	now := s.tp.Now()
	if s.next.IsZero() || s.next.Before(now) {
		s.next = now
	}
	// The schedule follows the time provider; a clock that stands still
	// still yields one frame per interval.
	wait := min(s.next.Sub(now), interval)
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	s.next = s.next.Add(interval)
	return nil
}

// Expected returns the packed I420 buffer that frame n must pack to.
func (s *SyntheticSensor) Expected(n int) []byte {
	out := make([]byte, 0, frame.PackedSize(s.opts.Width, s.opts.Height))
	for plane := 0; plane < frame.PlaneCount; plane++ {
		pw, ph := frame.PlaneSize(plane, s.opts.Width, s.opts.Height)
		for y := 0; y < ph; y++ {
			for x := 0; x < pw; x++ {
				out = append(out, sample(plane, x, y, n))
			}
		}
	}
	return out
}

// sample is the test pattern: diagonal luma bands drifting one step per
// frame and chroma gradients along each axis.
func sample(plane, x, y, n int) byte {
	switch plane {
	case 0:
		return byte(x + 2*y + 3*n)
	case 1:
		return byte(64 + 4*x + n)
	default:
		return byte(192 - 4*y + n)
	}
}

func (s *SyntheticSensor) planes(n int) []frame.Plane {
	w, a := s.opts.Width, s.opts.Alignment
	cw, _ := frame.PlaneSize(1, s.opts.Width, s.opts.Height)

	switch s.opts.Layout {
	case LayoutSemiPlanar:
		u, v := s.interleavedChroma(n, 2*cw, false)
		return []frame.Plane{s.linearPlane(0, n, w, false), u, v}
	case LayoutPadded:
		return []frame.Plane{
			s.linearPlane(0, n, align(w, a), false),
			s.linearPlane(1, n, align(cw, a), false),
			s.linearPlane(2, n, align(cw, a), false),
		}
	case LayoutShortLastRow:
		u, v := s.interleavedChroma(n, align(2*cw, a), true)
		return []frame.Plane{s.linearPlane(0, n, align(w, a), true), u, v}
	default:
		return []frame.Plane{
			s.linearPlane(0, n, w, false),
			s.linearPlane(1, n, cw, false),
			s.linearPlane(2, n, cw, false),
		}
	}
}

// linearPlane lays out plane with pixel stride 1 and the given row stride.
// A clipped plane ends right after its last sample.
func (s *SyntheticSensor) linearPlane(plane, n, rowStride int, clipped bool) frame.Plane {
	pw, ph := frame.PlaneSize(plane, s.opts.Width, s.opts.Height)
	size := rowStride * ph
	if clipped {
		size = rowStride*(ph-1) + pw
	}
	data := make([]byte, size)
	for i := range data {
		data[i] = 0xEE // padding marker
	}
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			data[y*rowStride+x] = sample(plane, x, y, n)
		}
	}
	return frame.Plane{Data: data, RowStride: rowStride, PixelStride: 1}
}

// interleavedChroma lays out U and V as V,U pairs in one shared buffer.
// The V plane starts at offset 0 and U at offset 1, both with pixel stride 2.
func (s *SyntheticSensor) interleavedChroma(n, rowStride int, clipped bool) (u, v frame.Plane) {
	cw, ch := frame.PlaneSize(1, s.opts.Width, s.opts.Height)
	size := rowStride * ch
	if clipped {
		size = rowStride*(ch-1) + 2*cw
	}
	vu := make([]byte, size)
	for i := range vu {
		vu[i] = 0xEE
	}
	for y := 0; y < ch; y++ {
		for x := 0; x < cw; x++ {
			vu[y*rowStride+2*x] = sample(2, x, y, n)
			vu[y*rowStride+2*x+1] = sample(1, x, y, n)
		}
	}
	v = frame.Plane{Data: vu[:size-1], RowStride: rowStride, PixelStride: 2}
	u = frame.Plane{Data: vu[1:], RowStride: rowStride, PixelStride: 2}
	return u, v
}

func align(n, to int) int {
	return (n + to - 1) / to * to
}
