// Package controller ties camera selection, preview sizing and display
// orientation to a renderer, and maps user gestures to filter and camera
// changes.
package controller

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/campreview/gesture"
	"github.com/opd-ai/campreview/orientation"
	"github.com/opd-ai/campreview/render"
)

// Camera describes one capture device.
type Camera struct {
	ID                string
	Facing            orientation.Facing
	SensorOrientation int
	OutputSizes       []Size
}

// Action reports what a gesture did.
type Action int

const (
	// ActionNone means the gesture had no effect.
	ActionNone Action = iota
	// ActionFilterChanged means the renderer switched filter.
	ActionFilterChanged
	// ActionShowResolutions asks the UI to offer the output sizes.
	ActionShowResolutions
)

// String implements fmt.Stringer.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionFilterChanged:
		return "filter-changed"
	case ActionShowResolutions:
		return "show-resolutions"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// SizeChangeFunc is called with the active camera and its new preview size.
type SizeChangeFunc func(cam Camera, size Size)

// Options configures a CameraController.
type Options struct {
	// Display is the current display rotation.
	Display orientation.Rotation
	// Facing selects the camera opened by Initialize.
	Facing orientation.Facing
}

// NewOptions returns options selecting the front camera with an upright
// display.
func NewOptions() *Options {
	return &Options{
		Display: orientation.Rotation0,
		Facing:  orientation.FacingFront,
	}
}

// CameraController owns the active camera and its preview size. All methods
// are safe for concurrent use; Orientation and Mirrored are read from the
// capture worker for every frame.
type CameraController struct {
	mu          sync.Mutex
	cameras     []Camera
	renderer    render.Renderer
	opts        Options
	active      int
	view        Size
	preview     Size
	initialized bool
	listeners   []SizeChangeFunc
}

// New creates a controller for the given cameras. A nil opts selects
// NewOptions.
func New(cameras []Camera, renderer render.Renderer, opts *Options) (*CameraController, error) {
	if len(cameras) == 0 {
		return nil, ErrNoCameras
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer cannot be nil")
	}
	if opts == nil {
		opts = NewOptions()
	}
	return &CameraController{
		cameras:  append([]Camera(nil), cameras...),
		renderer: renderer,
		opts:     *opts,
	}, nil
}

// OnSizeChange registers fn to be told about preview size changes.
func (c *CameraController) OnSizeChange(fn SizeChangeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Initialize opens the camera facing Options.Facing, or the first camera if
// none does, and sizes the preview for a width x height view.
func (c *CameraController) Initialize(width, height int) error {
	c.mu.Lock()
	idx, ok := c.findFacing(c.opts.Facing)
	if !ok {
		idx = 0
	}
	cam := c.cameras[idx]
	preview, err := OptimalPreviewSize(cam.OutputSizes, width, height)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("camera %s: %w", cam.ID, err)
	}
	if err := c.renderer.Init(width, height); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("renderer init: %w", err)
	}
	view := Size{Width: width, Height: height}
	c.active = idx
	c.view = view
	c.preview = preview
	c.initialized = true
	listeners := c.listeners
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "CameraController.Initialize",
		"camera":   cam.ID,
		"facing":   cam.Facing.String(),
		"view":     view.String(),
		"preview":  preview.String(),
	}).Info("Camera controller initialized")

	notify(listeners, cam, preview)
	return nil
}

// SwitchCamera toggles between the front and back cameras and re-sizes the
// preview for the current view.
func (c *CameraController) SwitchCamera() error {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	want := c.cameras[c.active].Facing.Opposite()
	idx, ok := c.findFacing(want)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrCameraNotFound, want)
	}
	cam := c.cameras[idx]
	preview, err := OptimalPreviewSize(cam.OutputSizes, c.view.Width, c.view.Height)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("camera %s: %w", cam.ID, err)
	}
	c.active = idx
	c.preview = preview
	listeners := c.listeners
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "CameraController.SwitchCamera",
		"camera":   cam.ID,
		"facing":   cam.Facing.String(),
		"preview":  preview.String(),
	}).Info("Switched camera")

	notify(listeners, cam, preview)
	return nil
}

// ChangeSize sets the preview size. size must be one of the active
// camera's output sizes.
func (c *CameraController) ChangeSize(size Size) error {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	cam := c.cameras[c.active]
	if !containsSize(cam.OutputSizes, size) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s on camera %s", ErrUnknownSize, size, cam.ID)
	}
	c.preview = size
	listeners := c.listeners
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "CameraController.ChangeSize",
		"camera":   cam.ID,
		"preview":  size.String(),
	}).Info("Preview size changed")

	notify(listeners, cam, size)
	return nil
}

// SetDisplayRotation records a new display rotation.
func (c *CameraController) SetDisplayRotation(r orientation.Rotation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts.Display = r
}

// Orientation returns the rotation in degrees to apply to frames from the
// active camera at the current display rotation.
func (c *CameraController) Orientation() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return orientation.Compose(c.opts.Display, c.cameras[c.active].SensorOrientation)
}

// Mirrored reports whether frames from the active camera are flipped.
func (c *CameraController) Mirrored() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return orientation.Mirrored(c.cameras[c.active].Facing)
}

// PreviewSize returns the current preview size.
func (c *CameraController) PreviewSize() Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preview
}

// OutputSizes returns a copy of the active camera's output sizes.
func (c *CameraController) OutputSizes() []Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Size(nil), c.cameras[c.active].OutputSizes...)
}

// ActiveCamera returns the active camera.
func (c *CameraController) ActiveCamera() Camera {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cameras[c.active]
}

// OnSwipe applies a swipe. Left selects the next filter and right the
// previous one, each stopping at the ends of the renderer's filter range.
// Up asks for the resolution list.
func (c *CameraController) OnSwipe(d gesture.Direction) (Action, error) {
	switch d {
	case gesture.Up:
		return ActionShowResolutions, nil
	case gesture.Left, gesture.Right:
	default:
		return ActionNone, nil
	}

	p := c.renderer.Parameters()
	filter := p.Filter()
	if d == gesture.Left {
		if filter >= p.MaxFilter()-1 {
			return ActionNone, nil
		}
		filter++
	} else {
		if filter <= 0 {
			return ActionNone, nil
		}
		filter--
	}

	if err := c.renderer.SetParameters(p.WithFilter(filter)); err != nil {
		return ActionNone, fmt.Errorf("set filter %d: %w", filter, err)
	}
	logrus.WithFields(logrus.Fields{
		"function":  "CameraController.OnSwipe",
		"direction": d.String(),
		"filter":    filter,
	}).Debug("Filter selected by swipe")
	return ActionFilterChanged, nil
}

// OnDoubleTap switches camera.
func (c *CameraController) OnDoubleTap() error {
	return c.SwitchCamera()
}

func (c *CameraController) findFacing(f orientation.Facing) (int, bool) {
	for i, cam := range c.cameras {
		if cam.Facing == f {
			return i, true
		}
	}
	return 0, false
}

func containsSize(sizes []Size, s Size) bool {
	for _, v := range sizes {
		if v == s {
			return true
		}
	}
	return false
}

func notify(listeners []SizeChangeFunc, cam Camera, size Size) {
	for _, fn := range listeners {
		fn(cam, size)
	}
}
