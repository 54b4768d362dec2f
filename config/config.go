// Package config holds the campreview runtime options, their defaults and
// their YAML representation.
//
//	opts, err := config.Load("campreview.yaml")
//	if err != nil {
//	    return err
//	}
//	if err := opts.Log.Apply(); err != nil {
//	    return err
//	}
//
// Fields missing from the file keep the values from NewOptions.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/opd-ai/campreview/capture"
	"github.com/opd-ai/campreview/controller"
	"github.com/opd-ai/campreview/orientation"
	"github.com/opd-ai/campreview/render"
	"github.com/opd-ai/campreview/stream"
)

// ErrInvalidOptions indicates options that fail validation.
var ErrInvalidOptions = errors.New("invalid options")

// SensorOptions configures the synthetic sensor.
type SensorOptions struct {
	Layout    string `yaml:"layout"`
	Alignment int    `yaml:"alignment"`
	FrameRate int    `yaml:"fps"`
	Frames    int    `yaml:"frames"`
}

// CameraOptions describes one camera offered to the controller.
type CameraOptions struct {
	ID                string            `yaml:"id"`
	Facing            string            `yaml:"facing"`
	SensorOrientation int               `yaml:"sensor_orientation"`
	OutputSizes       []controller.Size `yaml:"output_sizes"`
}

// DisplayOptions describes the preview surface.
type DisplayOptions struct {
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Rotation int    `yaml:"rotation"`
	Facing   string `yaml:"facing"`
}

// RendererOptions selects the renderer.
type RendererOptions struct {
	Kind   string `yaml:"kind"`
	Filter int    `yaml:"filter"`
}

// StreamOptions configures the optional RTP output.
type StreamOptions struct {
	Destination    string `yaml:"destination"`
	MTU            int    `yaml:"mtu"`
	PayloadType    int    `yaml:"payload_type"`
	SkipDuplicates bool   `yaml:"skip_duplicates"`
}

// LogOptions configures logrus.
type LogOptions struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Options is the complete runtime configuration.
type Options struct {
	Sensor    SensorOptions   `yaml:"sensor"`
	Cameras   []CameraOptions `yaml:"cameras"`
	Display   DisplayOptions  `yaml:"display"`
	MaxImages int             `yaml:"max_images"`
	Renderer  RendererOptions `yaml:"renderer"`
	Stream    StreamOptions   `yaml:"stream"`
	Log       LogOptions      `yaml:"log"`
}

// NewOptions returns the default configuration: a portrait 1080x1920
// display, a back and a front camera, a 30 fps semi-planar sensor and the
// filtering renderer. RTP output is disabled.
func NewOptions() *Options {
	return &Options{
		Sensor: SensorOptions{
			Layout:    capture.LayoutSemiPlanar.String(),
			Alignment: capture.DefaultAlignment,
			FrameRate: 30,
		},
		Cameras: []CameraOptions{
			{
				ID:                "0",
				Facing:            orientation.FacingBack.String(),
				SensorOrientation: 90,
				OutputSizes: []controller.Size{
					{Width: 1920, Height: 1080}, {Width: 1280, Height: 720},
					{Width: 640, Height: 480}, {Width: 320, Height: 240},
				},
			},
			{
				ID:                "1",
				Facing:            orientation.FacingFront.String(),
				SensorOrientation: 270,
				OutputSizes: []controller.Size{
					{Width: 1280, Height: 720}, {Width: 640, Height: 480},
				},
			},
		},
		Display: DisplayOptions{
			Width:    1080,
			Height:   1920,
			Rotation: 0,
			Facing:   orientation.FacingFront.String(),
		},
		MaxImages: capture.DefaultMaxImages,
		Renderer: RendererOptions{
			Kind: render.KindGLYUV420Filter.String(),
		},
		Stream: StreamOptions{
			MTU:         stream.DefaultMTU,
			PayloadType: stream.DefaultPayloadType,
		},
		Log: LogOptions{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	opts, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return opts, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Options, error) {
	opts := NewOptions()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(opts); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function": "config.Parse",
		"cameras":  len(opts.Cameras),
		"renderer": opts.Renderer.Kind,
		"stream":   opts.Stream.Destination,
	}).Debug("Configuration loaded")
	return opts, nil
}

// Marshal encodes the options as YAML.
func (o *Options) Marshal() ([]byte, error) {
	return yaml.Marshal(o)
}

// Validate checks every field and joins all problems into one error that
// matches ErrInvalidOptions.
func (o *Options) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if _, err := o.SensorLayout(); err != nil {
		add("sensor.layout: %v", err)
	}
	if o.Sensor.FrameRate < 0 || o.Sensor.Frames < 0 || o.Sensor.Alignment < 0 {
		add("sensor: fps, frames and alignment must not be negative")
	}

	if len(o.Cameras) == 0 {
		add("cameras: at least one camera is required")
	}
	for i, cam := range o.Cameras {
		if _, err := orientation.ParseFacing(cam.Facing); err != nil {
			add("cameras[%d].facing: %v", i, err)
		}
		if _, err := orientation.FromDegrees(cam.SensorOrientation); err != nil {
			add("cameras[%d].sensor_orientation: %v", i, err)
		}
		if len(cam.OutputSizes) == 0 {
			add("cameras[%d].output_sizes: %v", i, controller.ErrNoOutputSizes)
		}
		for _, s := range cam.OutputSizes {
			if s.Width <= 0 || s.Height <= 0 {
				add("cameras[%d].output_sizes: invalid size %s", i, s)
			}
		}
	}

	if o.Display.Width <= 0 || o.Display.Height <= 0 {
		add("display: invalid size %dx%d", o.Display.Width, o.Display.Height)
	}
	if _, err := orientation.FromDegrees(o.Display.Rotation); err != nil {
		add("display.rotation: %v", err)
	}
	if _, err := orientation.ParseFacing(o.Display.Facing); err != nil {
		add("display.facing: %v", err)
	}

	if o.MaxImages < 1 {
		add("max_images: must be at least 1, got %d", o.MaxImages)
	}

	if _, err := render.ParseKind(o.Renderer.Kind); err != nil {
		add("renderer.kind: %v", err)
	}
	if o.Renderer.Filter < 0 || o.Renderer.Filter >= render.MaxFilters {
		add("renderer.filter: %d not in [0,%d)", o.Renderer.Filter, render.MaxFilters)
	}

	if o.Stream.MTU <= stream.HeaderSize+12 || o.Stream.MTU > 65535 {
		add("stream.mtu: %d out of range", o.Stream.MTU)
	}
	if o.Stream.PayloadType < 0 || o.Stream.PayloadType > 127 {
		add("stream.payload_type: %d not in [0,127]", o.Stream.PayloadType)
	}

	if _, err := logrus.ParseLevel(o.Log.Level); err != nil {
		add("log.level: %v", err)
	}
	if o.Log.Format != "text" && o.Log.Format != "json" {
		add("log.format: %q is not text or json", o.Log.Format)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidOptions, errors.Join(errs...))
}

// SensorLayout returns the parsed sensor layout.
func (o *Options) SensorLayout() (capture.Layout, error) {
	return capture.ParseLayout(o.Sensor.Layout)
}

// ControllerCameras converts the camera list for controller.New.
func (o *Options) ControllerCameras() ([]controller.Camera, error) {
	cams := make([]controller.Camera, 0, len(o.Cameras))
	for _, c := range o.Cameras {
		facing, err := orientation.ParseFacing(c.Facing)
		if err != nil {
			return nil, err
		}
		cams = append(cams, controller.Camera{
			ID:                c.ID,
			Facing:            facing,
			SensorOrientation: c.SensorOrientation,
			OutputSizes:       append([]controller.Size(nil), c.OutputSizes...),
		})
	}
	return cams, nil
}

// ControllerOptions converts the display section for controller.New.
func (o *Options) ControllerOptions() (*controller.Options, error) {
	rot, err := orientation.FromDegrees(o.Display.Rotation)
	if err != nil {
		return nil, err
	}
	facing, err := orientation.ParseFacing(o.Display.Facing)
	if err != nil {
		return nil, err
	}
	return &controller.Options{Display: rot, Facing: facing}, nil
}

// SinkOptions converts the stream section for stream.NewRTPSink.
func (o *Options) SinkOptions() stream.SinkOptions {
	return stream.SinkOptions{
		MTU:            uint16(o.Stream.MTU),
		PayloadType:    uint8(o.Stream.PayloadType),
		SkipDuplicates: o.Stream.SkipDuplicates,
	}
}

// Apply configures the standard logrus logger.
func (l LogOptions) Apply() error {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	logrus.SetLevel(level)

	switch l.Format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidOptions, l.Format)
	}
	return nil
}
