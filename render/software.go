package render

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/campreview/filter"
	"github.com/opd-ai/campreview/frame"
)

// RenderedFrame is what a software renderer presents.
type RenderedFrame struct {
	Frame      *frame.I420
	Rotation   int
	Mirror     bool
	Filter     int
	FilterName string
	Sequence   uint64
}

// PresentFunc receives every presented frame. The frame is owned by the
// callee.
type PresentFunc func(RenderedFrame)

// Software is a CPU renderer backed by a filter bank.
type Software struct {
	mu        sync.Mutex
	kind      Kind
	bank      *filter.Bank
	mirror    filter.Filter
	active    int
	width     int
	height    int
	current   *frame.I420
	ev        FrameReady
	presents  []PresentFunc
	rendered  uint64
	destroyed bool
}

// New creates a renderer of the given kind. The filtering kind uses
// filter.DefaultBank; the plain kinds offer only the unfiltered picture.
func New(kind Kind) (*Software, error) {
	switch kind {
	case KindGLYUV420, KindVKYUV420:
		return NewSoftware(kind, filter.NewBank(filter.NewIdentity()))
	case KindGLYUV420Filter:
		return NewSoftware(kind, filter.DefaultBank())
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
}

// NewSoftware creates a renderer with a caller-supplied filter bank.
func NewSoftware(kind Kind, bank *filter.Bank) (*Software, error) {
	if bank == nil || bank.Len() == 0 {
		return nil, fmt.Errorf("%w: empty filter bank", ErrFilterRange)
	}
	if bank.Len() > MaxFilters {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyFilters, bank.Len(), MaxFilters)
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewSoftware",
		"kind":     kind.String(),
		"filters":  bank.Len(),
	}).Debug("Created software renderer")

	return &Software{
		kind:   kind,
		bank:   bank,
		mirror: filter.NewMirror(),
	}, nil
}

// OnPresent registers a callback for presented frames.
func (s *Software) OnPresent(fn PresentFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presents = append(s.presents, fn)
}

// Init sets the output surface size.
func (s *Software) Init(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return ErrDestroyed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSurface, width, height)
	}
	s.width, s.height = width, height

	logrus.WithFields(logrus.Fields{
		"function": "Software.Init",
		"width":    width,
		"height":   height,
	}).Info("Renderer surface initialized")
	return nil
}

// Draw copies the packed frame into the renderer.
func (s *Software) Draw(ev FrameReady) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	// Copy before taking the lock; the caller reuses ev.Data.
	buf := append([]byte(nil), ev.Data...)
	f, err := frame.SplitI420(buf, ev.Width, ev.Height)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFrameSize, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrDestroyed
	}
	s.current = f
	s.ev = ev
	s.ev.Data = nil
	return nil
}

// Render filters the last drawn frame and hands it to present callbacks.
// Rendering before the first Draw does nothing.
func (s *Software) Render() error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrDestroyed
	}
	if s.current == nil {
		s.mu.Unlock()
		return nil
	}

	active := s.active
	out, err := s.bank.Apply(active, s.current)
	if err == nil && s.ev.Mirror {
		out, err = s.mirror.Apply(out)
	}
	if err != nil {
		s.mu.Unlock()
		logrus.WithFields(logrus.Fields{
			"function": "Software.Render",
			"filter":   active,
			"error":    err.Error(),
		}).Error("Filter failed")
		return fmt.Errorf("apply filter %d: %w", active, err)
	}

	flt, _ := s.bank.At(active)
	rf := RenderedFrame{
		Frame:      out,
		Rotation:   s.ev.Rotation,
		Mirror:     s.ev.Mirror,
		Filter:     active,
		FilterName: flt.GetName(),
		Sequence:   s.ev.Sequence,
	}
	s.rendered++
	presents := append([]PresentFunc(nil), s.presents...)
	s.mu.Unlock()

	for i, fn := range presents {
		if i > 0 {
			rf.Frame = out.Clone()
		}
		fn(rf)
	}
	return nil
}

// ApplyFilter selects the active filter.
func (s *Software) ApplyFilter(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return ErrDestroyed
	}
	if index < 0 || index >= s.bank.Len() {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrFilterRange, index, s.bank.Len())
	}
	if index != s.active {
		flt, _ := s.bank.At(index)
		logrus.WithFields(logrus.Fields{
			"function": "Software.ApplyFilter",
			"filter":   index,
			"name":     flt.GetName(),
		}).Info("Filter changed")
	}
	s.active = index
	return nil
}

// MaxFilter returns the number of filters in the bank.
func (s *Software) MaxFilter() int {
	return s.bank.Len()
}

// SetParameters applies the filter bits of p. The filter count bits are
// read-only and ignored.
func (s *Software) SetParameters(p Params) error {
	return s.ApplyFilter(p.Filter())
}

// Parameters returns the active filter and the filter count.
func (s *Software) Parameters() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NewParams(s.active, s.bank.Len())
}

// GetKind returns the renderer kind.
func (s *Software) GetKind() Kind {
	return s.kind
}

// GetFilterNames lists the filters offered, in index order.
func (s *Software) GetFilterNames() []string {
	return s.bank.Names()
}

// GetSurfaceSize returns the size set by Init.
func (s *Software) GetSurfaceSize() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// GetRenderedCount returns how many frames were presented.
func (s *Software) GetRenderedCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rendered
}

// Destroy drops the current frame and callbacks. Further calls other than
// Destroy fail with ErrDestroyed.
func (s *Software) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return nil
	}
	s.destroyed = true
	s.current = nil
	s.presents = nil

	logrus.WithFields(logrus.Fields{
		"function": "Software.Destroy",
		"rendered": s.rendered,
	}).Info("Renderer destroyed")
	return nil
}

var _ Renderer = (*Software)(nil)
