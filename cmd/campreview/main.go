package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/campreview/capture"
	"github.com/opd-ai/campreview/config"
	"github.com/opd-ai/campreview/controller"
	"github.com/opd-ai/campreview/render"
	"github.com/opd-ai/campreview/stream"
)

// CLIConfig holds the command-line flags. Flags that were set override the
// configuration file.
type CLIConfig struct {
	configPath     string
	layout         string
	fps            int
	frames         int
	display        string
	rotation       int
	facing         string
	renderer       string
	filter         int
	rtpDestination string
	mtu            int
	skipDuplicates bool
	duration       time.Duration
	statsInterval  time.Duration
	logLevel       string
	logFormat      string
	commands       bool
	help           bool

	set map[string]bool
}

// parseCLIFlags parses args into a CLIConfig.
func parseCLIFlags(args []string, output io.Writer) (*CLIConfig, *flag.FlagSet, error) {
	cfg := &CLIConfig{set: make(map[string]bool)}
	fs := flag.NewFlagSet("campreview", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cfg.configPath, "config", "", "YAML configuration file")

	// Sensor
	fs.StringVar(&cfg.layout, "layout", "semiplanar", "Sensor plane layout (packed, semiplanar, padded, shortlastrow)")
	fs.IntVar(&cfg.fps, "fps", 30, "Sensor frame rate, 0 for unpaced")
	fs.IntVar(&cfg.frames, "frames", 0, "Stop after this many frames, 0 for unlimited")

	// Display and camera
	fs.StringVar(&cfg.display, "display", "1080x1920", "Preview surface size WIDTHxHEIGHT")
	fs.IntVar(&cfg.rotation, "rotation", 0, "Display rotation in degrees (0, 90, 180, 270)")
	fs.StringVar(&cfg.facing, "facing", "front", "Camera to open first (front, back, external)")

	// Rendering
	fs.StringVar(&cfg.renderer, "renderer", render.KindGLYUV420Filter.String(), "Renderer kind")
	fs.IntVar(&cfg.filter, "filter", 0, "Initial filter index")

	// Streaming
	fs.StringVar(&cfg.rtpDestination, "rtp", "", "Stream frames over RTP/UDP to HOST:PORT")
	fs.IntVar(&cfg.mtu, "mtu", stream.DefaultMTU, "RTP packet size limit")
	fs.BoolVar(&cfg.skipDuplicates, "skip-duplicates", false, "Do not resend frames identical to the previous one")

	// Run control
	fs.DurationVar(&cfg.duration, "duration", 0, "Stop after this long, 0 to run until interrupted")
	fs.DurationVar(&cfg.statsInterval, "stats-interval", 5*time.Second, "Interval between statistics log lines, 0 to disable")
	fs.BoolVar(&cfg.commands, "commands", false, "Read gesture commands from stdin")

	// Logging
	fs.StringVar(&cfg.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.logFormat, "log-format", "text", "Log format (text, json)")

	fs.BoolVar(&cfg.help, "help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	fs.Visit(func(f *flag.Flag) { cfg.set[f.Name] = true })
	return cfg, fs, nil
}

// printUsage prints the usage information.
func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "campreview: camera preview frame pipeline")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintf(w, "  %s [options]\n", fs.Name())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintf(w, "  # Preview 300 frames with the back camera\n")
	fmt.Fprintf(w, "  %s -facing back -frames 300\n", fs.Name())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  # Stream to a local receiver\n")
	fmt.Fprintf(w, "  %s -rtp 127.0.0.1:5004 -skip-duplicates\n", fs.Name())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  # Drive filters from the keyboard (left, right, up, down, tap, size WxH)\n")
	fmt.Fprintf(w, "  %s -commands\n", fs.Name())
}

// validateCLIConfig checks flag values that the options layer does not.
func validateCLIConfig(cfg *CLIConfig) error {
	if cfg.duration < 0 {
		return fmt.Errorf("duration cannot be negative")
	}
	if cfg.statsInterval < 0 {
		return fmt.Errorf("stats interval cannot be negative")
	}
	if cfg.set["display"] {
		if _, err := controller.ParseSize(cfg.display); err != nil {
			return err
		}
	}
	return nil
}

// loadOptions reads the configuration file, if any, and applies the flags
// that were set on the command line.
func loadOptions(cfg *CLIConfig) (*config.Options, error) {
	opts := config.NewOptions()
	if cfg.configPath != "" {
		loaded, err := config.Load(cfg.configPath)
		if err != nil {
			return nil, err
		}
		opts = loaded
	}

	set := cfg.set
	if set["layout"] {
		opts.Sensor.Layout = cfg.layout
	}
	if set["fps"] {
		opts.Sensor.FrameRate = cfg.fps
	}
	if set["frames"] {
		opts.Sensor.Frames = cfg.frames
	}
	if set["display"] {
		size, err := controller.ParseSize(cfg.display)
		if err != nil {
			return nil, err
		}
		opts.Display.Width, opts.Display.Height = size.Width, size.Height
	}
	if set["rotation"] {
		opts.Display.Rotation = cfg.rotation
	}
	if set["facing"] {
		opts.Display.Facing = cfg.facing
	}
	if set["renderer"] {
		opts.Renderer.Kind = cfg.renderer
	}
	if set["filter"] {
		opts.Renderer.Filter = cfg.filter
	}
	if set["rtp"] {
		opts.Stream.Destination = cfg.rtpDestination
	}
	if set["mtu"] {
		opts.Stream.MTU = cfg.mtu
	}
	if set["skip-duplicates"] {
		opts.Stream.SkipDuplicates = cfg.skipDuplicates
	}
	if set["log-level"] {
		opts.Log.Level = cfg.logLevel
	}
	if set["log-format"] {
		opts.Log.Format = cfg.logFormat
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// setupSignalHandling cancels ctx on interrupt.
func setupSignalHandling(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	go func() {
		sig := <-sigChan
		logrus.WithFields(logrus.Fields{
			"function": "setupSignalHandling",
			"signal":   sig.String(),
		}).Info("Received signal, shutting down")
		cancel()
	}()
}

// app holds the wired components of one run.
type app struct {
	opts      *config.Options
	renderer  *render.Software
	ctrl      *controller.CameraController
	sink      *stream.RTPSink
	conn      net.Conn
	handler   render.FrameHandler
	resize    chan controller.Size
	presented atomic.Uint64
}

// newApp builds the renderer, controller and optional RTP sink.
func newApp(opts *config.Options) (*app, error) {
	kind, err := render.ParseKind(opts.Renderer.Kind)
	if err != nil {
		return nil, err
	}
	r, err := render.New(kind)
	if err != nil {
		return nil, err
	}
	if err := r.ApplyFilter(opts.Renderer.Filter); err != nil {
		return nil, err
	}

	cams, err := opts.ControllerCameras()
	if err != nil {
		return nil, err
	}
	copts, err := opts.ControllerOptions()
	if err != nil {
		return nil, err
	}
	ctrl, err := controller.New(cams, r, copts)
	if err != nil {
		return nil, err
	}

	a := &app{
		opts:     opts,
		renderer: r,
		ctrl:     ctrl,
		resize:   make(chan controller.Size, 1),
	}
	r.OnPresent(a.onPresent)
	ctrl.OnSizeChange(a.onSizeChange)

	handlers := []render.FrameHandler{render.Handler(r)}
	if opts.Stream.Destination != "" {
		conn, err := net.Dial("udp", opts.Stream.Destination)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", opts.Stream.Destination, err)
		}
		sink, err := stream.NewRTPSink(conn, opts.SinkOptions())
		if err != nil {
			conn.Close()
			return nil, err
		}
		a.conn, a.sink = conn, sink
		handlers = append(handlers, sink.Handle)
	}
	a.handler = render.Fanout(handlers...)
	return a, nil
}

func (a *app) onPresent(rf render.RenderedFrame) {
	n := a.presented.Add(1)
	logrus.WithFields(logrus.Fields{
		"function": "app.onPresent",
		"sequence": rf.Sequence,
		"filter":   rf.FilterName,
		"rotation": rf.Rotation,
		"mirror":   rf.Mirror,
		"count":    n,
	}).Debug("Frame presented")
}

// onSizeChange forwards the newest preview size to the capture loop.
func (a *app) onSizeChange(_ controller.Camera, size controller.Size) {
	select {
	case <-a.resize:
	default:
	}
	a.resize <- size
}

func (a *app) close() {
	if a.sink != nil {
		a.sink.Close()
	}
	if a.conn != nil {
		a.conn.Close()
	}
	a.renderer.Destroy()
}

// run initializes the controller and captures until ctx ends or the sensor
// runs out of frames. A preview size change restarts capture at the new
// size.
func (a *app) run(ctx context.Context, statsInterval time.Duration) error {
	if err := a.ctrl.Initialize(a.opts.Display.Width, a.opts.Display.Height); err != nil {
		return err
	}
	size := <-a.resize

	for {
		pipe, err := a.newPipeline(size)
		if err != nil {
			return err
		}

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- pipe.Run(runCtx) }()

		stopStats := a.logStats(runCtx, pipe, statsInterval)

		var next *controller.Size
		select {
		case err = <-done:
		case s := <-a.resize:
			next = &s
			cancel()
			err = <-done
		}
		cancel()
		stopStats()
		a.logFinal(pipe)

		switch {
		case next != nil:
			size = *next
			continue
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil
		default:
			return err
		}
	}
}

func (a *app) newPipeline(size controller.Size) (*capture.Pipeline, error) {
	layout, err := a.opts.SensorLayout()
	if err != nil {
		return nil, err
	}
	sensor, err := capture.NewSyntheticSensor(capture.SensorOptions{
		Width:     size.Width,
		Height:    size.Height,
		Layout:    layout,
		Alignment: a.opts.Sensor.Alignment,
		FrameRate: a.opts.Sensor.FrameRate,
		Frames:    a.opts.Sensor.Frames,
	})
	if err != nil {
		return nil, err
	}

	popts := capture.NewOptions()
	popts.MaxImages = a.opts.MaxImages
	popts.Orientation = a.ctrl.Orientation
	popts.Mirror = a.ctrl.Mirrored

	logrus.WithFields(logrus.Fields{
		"function": "app.newPipeline",
		"camera":   a.ctrl.ActiveCamera().ID,
		"size":     size.String(),
		"layout":   layout.String(),
	}).Info("Starting capture")

	return capture.New(sensor, a.handler, popts)
}

// logStats logs pipeline counters every interval until the returned stop
// function is called.
func (a *app) logStats(ctx context.Context, pipe *capture.Pipeline, interval time.Duration) func() {
	if interval <= 0 {
		return func() {}
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				s := pipe.GetStats()
				logrus.WithFields(logrus.Fields{
					"function":  "app.logStats",
					"received":  s.Received,
					"packed":    s.Packed,
					"dropped":   s.Dropped,
					"truncated": s.Truncated,
					"presented": a.presented.Load(),
				}).Info("Pipeline statistics")
			}
		}
	}()
	return func() {
		close(stop)
		<-done
	}
}

func (a *app) logFinal(pipe *capture.Pipeline) {
	s := pipe.GetStats()
	fields := logrus.Fields{
		"function":       "app.logFinal",
		"session_id":     pipe.GetSessionID().String(),
		"received":       s.Received,
		"packed":         s.Packed,
		"dropped":        s.Dropped,
		"truncated":      s.Truncated,
		"malformed":      s.Malformed,
		"handler_errors": s.HandlerErrors,
	}
	if a.sink != nil {
		ss := a.sink.GetStats()
		fields["rtp_frames"] = ss.FramesSent
		fields["rtp_packets"] = ss.PacketsSent
		fields["rtp_skipped"] = ss.FramesSkipped
	}
	logrus.WithFields(fields).Info("Capture finished")
}

// main is the entry point for campreview.
func main() {
	cliConfig, fs, err := parseCLIFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if cliConfig.help {
		printUsage(os.Stdout, fs)
		os.Exit(0)
	}

	if err := validateCLIConfig(cliConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Use -help for usage information.\n")
		os.Exit(1)
	}

	opts, err := loadOptions(cliConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if err := opts.Log.Apply(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	a, err := newApp(opts)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "main",
			"error":    err.Error(),
		}).Error("Failed to start")
		os.Exit(1)
	}
	defer a.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cliConfig.duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, cliConfig.duration)
		defer cancel()
	}
	setupSignalHandling(cancel)

	if cliConfig.commands {
		go readCommands(ctx, os.Stdin, a.ctrl, os.Stdout)
	}

	if err := a.run(ctx, cliConfig.statsInterval); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "main",
			"error":    err.Error(),
		}).Error("Capture failed")
		a.close()
		os.Exit(1)
	}
}
