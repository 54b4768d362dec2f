// Package render defines the contract between the capture pipeline and a
// video renderer, and provides a software implementation of it.
//
// A renderer receives packed I420 frames through Draw and presents the most
// recent one on Render, applying the active filter. The filter is selected
// through a parameter word (see [Params]) so a controller can page through
// filters without knowing how many the renderer offers up front:
//
//	r, err := render.New(render.KindGLYUV420Filter)
//	if err != nil {
//	    return err
//	}
//	defer r.Destroy()
//
//	r.Init(1080, 1920)
//	handler := render.Handler(r)      // Draw + Render per frame
//	err = handler(ev)
//
//	p := r.Parameters()
//	r.SetParameters(p.WithFilter(p.Filter() + 1))
//
// # Thread Safety
//
// Software renderers serialize every call with an internal mutex; Draw may
// be called from the capture worker while Render runs on a display loop.
// Present callbacks run without the lock held.
package render

import (
	"errors"
	"fmt"
	"time"

	"github.com/opd-ai/campreview/frame"
)

// FrameReady is a packed frame handed from the capture pipeline to a
// renderer, together with its presentation metadata.
type FrameReady struct {
	Data      []byte // packed I420, frame.PackedSize(Width, Height) bytes
	Width     int
	Height    int
	Rotation  int  // degrees in [0, 360)
	Mirror    bool // flip horizontally, set for user-facing cameras
	Sequence  uint64
	Timestamp time.Time
	Digest    [frame.DigestSize]byte
}

// Validate checks that Data matches the frame dimensions.
func (ev FrameReady) Validate() error {
	if ev.Width <= 0 || ev.Height <= 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrFrameSize, ev.Width, ev.Height)
	}
	if want := frame.PackedSize(ev.Width, ev.Height); len(ev.Data) != want {
		return fmt.Errorf("%w: got %d bytes, %dx%d needs %d",
			ErrFrameSize, len(ev.Data), ev.Width, ev.Height, want)
	}
	return nil
}

// Renderer is the rendering collaborator contract.
type Renderer interface {
	// Init sets the size of the output surface.
	Init(width, height int) error
	// Draw uploads a frame. The renderer must not retain ev.Data.
	Draw(ev FrameReady) error
	// Render presents the most recently drawn frame.
	Render() error
	// ApplyFilter selects the active filter.
	ApplyFilter(index int) error
	// MaxFilter returns the number of filters offered.
	MaxFilter() int
	// SetParameters updates the parameter word; only the filter bits are writable.
	SetParameters(p Params) error
	// Parameters returns the current parameter word.
	Parameters() Params
	// Destroy releases renderer resources.
	Destroy() error
}

// FrameHandler consumes frame-ready events.
type FrameHandler func(ev FrameReady) error

// Handler adapts a Renderer into a FrameHandler that draws and then renders
// every frame.
func Handler(r Renderer) FrameHandler {
	return func(ev FrameReady) error {
		if err := r.Draw(ev); err != nil {
			return fmt.Errorf("draw: %w", err)
		}
		if err := r.Render(); err != nil {
			return fmt.Errorf("render: %w", err)
		}
		return nil
	}
}

// Fanout delivers each event to every handler, in order, and joins their
// errors. A failing handler does not stop the others.
func Fanout(handlers ...FrameHandler) FrameHandler {
	return func(ev FrameReady) error {
		var errs []error
		for _, h := range handlers {
			if err := h(ev); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}

// Kind selects a renderer implementation.
type Kind int

// Renderer kinds.
const (
	// KindGLYUV420 draws YUV420 frames without filters.
	KindGLYUV420 Kind = iota
	// KindVKYUV420 draws YUV420 frames without filters on the Vulkan path.
	KindVKYUV420
	// KindGLYUV420Filter draws YUV420 frames through the filter bank.
	KindGLYUV420Filter
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindGLYUV420:
		return "gl-yuv420"
	case KindVKYUV420:
		return "vk-yuv420"
	case KindGLYUV420Filter:
		return "gl-yuv420-filter"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses the names produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{KindGLYUV420, KindVKYUV420, KindGLYUV420Filter} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
}
