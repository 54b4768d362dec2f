package main

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/campreview/config"
	"github.com/opd-ai/campreview/controller"
	"github.com/opd-ai/campreview/frame"
	"github.com/opd-ai/campreview/render"
	"github.com/opd-ai/campreview/stream"
)

func mustParse(t *testing.T, args ...string) *CLIConfig {
	t.Helper()
	cfg, _, err := parseCLIFlags(args, &bytes.Buffer{})
	require.NoError(t, err)
	return cfg
}

func TestParseCLIFlags(t *testing.T) {
	cfg := mustParse(t)
	assert.Equal(t, "semiplanar", cfg.layout)
	assert.Equal(t, 30, cfg.fps)
	assert.Equal(t, stream.DefaultMTU, cfg.mtu)
	assert.Equal(t, 5*time.Second, cfg.statsInterval)
	assert.Empty(t, cfg.set)

	cfg = mustParse(t, "-fps", "0", "-rtp", "127.0.0.1:5004", "-skip-duplicates")
	assert.True(t, cfg.set["fps"])
	assert.True(t, cfg.set["rtp"])
	assert.True(t, cfg.set["skip-duplicates"])
	assert.False(t, cfg.set["layout"])

	_, _, err := parseCLIFlags([]string{"-no-such-flag"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestPrintUsage(t *testing.T) {
	_, fs, err := parseCLIFlags(nil, &bytes.Buffer{})
	require.NoError(t, err)

	var out bytes.Buffer
	printUsage(&out, fs)
	assert.Contains(t, out.String(), "Usage:")
	assert.Contains(t, out.String(), "-skip-duplicates")
}

func TestValidateCLIConfig(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantErr     bool
		errContains string
	}{
		{name: "defaults", args: nil},
		{name: "display", args: []string{"-display", "640x480"}},
		{name: "negative duration", args: []string{"-duration", "-1s"}, wantErr: true, errContains: "duration"},
		{name: "negative stats interval", args: []string{"-stats-interval", "-1s"}, wantErr: true, errContains: "stats interval"},
		{name: "bad display", args: []string{"-display", "wide"}, wantErr: true, errContains: "wide"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCLIConfig(mustParse(t, tt.args...))
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadOptions_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campreview.yaml")
	data := "sensor:\n  layout: padded\n  fps: 15\nrenderer:\n  filter: 3\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	opts, err := loadOptions(mustParse(t, "-config", path, "-fps", "0", "-display", "320x240", "-facing", "back"))
	require.NoError(t, err)

	assert.Equal(t, "padded", opts.Sensor.Layout, "file value kept")
	assert.Equal(t, 3, opts.Renderer.Filter, "file value kept")
	assert.Equal(t, 0, opts.Sensor.FrameRate, "flag wins")
	assert.Equal(t, 320, opts.Display.Width)
	assert.Equal(t, 240, opts.Display.Height)
	assert.Equal(t, "back", opts.Display.Facing)
}

func TestLoadOptions_Invalid(t *testing.T) {
	_, err := loadOptions(mustParse(t, "-layout", "tiled"))
	assert.True(t, errors.Is(err, config.ErrInvalidOptions))

	_, err = loadOptions(mustParse(t, "-config", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func newTestApp(t *testing.T, args ...string) *app {
	t.Helper()
	base := []string{"-fps", "0", "-display", "320x240", "-facing", "back", "-log-level", "error"}
	opts, err := loadOptions(mustParse(t, append(base, args...)...))
	require.NoError(t, err)
	a, err := newApp(opts)
	require.NoError(t, err)
	t.Cleanup(a.close)
	return a
}

func TestHandleCommand(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.ctrl.Initialize(320, 240))

	tests := []struct {
		line    string
		want    string
		wantErr bool
	}{
		{line: "left", want: "filter-changed"},
		{line: "right", want: "filter-changed"},
		{line: "right", want: "none"},
		{line: "down", want: "none"},
		{line: "up", want: "1920x1080 1280x720 640x480 320x240"},
		{line: "fling 300 0 0 0 500 0", want: "filter-changed"},
		{line: "fling 0 0 10 10 500 500", want: "ignored"},
		{line: "size 640x480", want: "preview 640x480"},
		{line: "size 641x480", wantErr: true},
		{line: "rotate 90", want: "orientation 0"},
		{line: "rotate 45", wantErr: true},
		{line: "tap", want: "camera 1 (front) 640x480"},
		{line: "sizes", want: "1280x720 640x480"},
		{line: "fling 1 2", wantErr: true},
		{line: "zoom", wantErr: true},
	}

	for _, tt := range tests {
		got, err := handleCommand(a.ctrl, tt.line)
		if tt.wantErr {
			assert.Error(t, err, tt.line)
			continue
		}
		require.NoError(t, err, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestReadCommands(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.ctrl.Initialize(320, 240))

	var out bytes.Buffer
	readCommands(context.Background(), strings.NewReader("left\n\nbogus\n"), a.ctrl, &out)
	assert.Equal(t, "filter-changed\nerror: unknown command \"bogus\"\n", out.String())
	assert.Equal(t, 1, a.renderer.Parameters().Filter())
}

func TestApp_RunUntilSensorExhausted(t *testing.T) {
	a := newTestApp(t, "-frames", "6")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, a.run(ctx, 0))

	assert.Greater(t, a.presented.Load(), uint64(0))
	assert.Equal(t, a.presented.Load(), a.renderer.GetRenderedCount())
	w, h := a.renderer.GetSurfaceSize()
	assert.Equal(t, 320, w)
	assert.Equal(t, 240, h)
}

func TestApp_RunCancelled(t *testing.T) {
	a := newTestApp(t, "-fps", "100")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.NoError(t, a.run(ctx, 20*time.Millisecond))
}

func TestApp_ResizeRestartsCapture(t *testing.T) {
	a := newTestApp(t, "-fps", "100")

	var width atomic.Int64
	a.renderer.OnPresent(func(rf render.RenderedFrame) {
		width.Store(int64(rf.Frame.Width))
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.run(ctx, 0) }()

	require.Eventually(t, func() bool { return width.Load() == 320 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, a.ctrl.ChangeSize(controller.Size{Width: 640, Height: 480}))
	require.Eventually(t, func() bool { return width.Load() == 640 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestApp_StreamsOverUDP(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	a := newTestApp(t, "-frames", "3", "-rtp", pc.LocalAddr().String())
	require.NotNil(t, a.sink)

	received := make(chan *render.FrameReady, 1)
	go func() {
		r := stream.NewReassembler()
		buf := make([]byte, 2048)
		_ = pc.SetReadDeadline(time.Now().Add(5 * time.Second))
		for {
			n, _, err := pc.ReadFrom(buf)
			if err != nil {
				close(received)
				return
			}
			ev, err := r.Push(buf[:n])
			if err == nil && ev != nil {
				received <- ev
				return
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, a.run(ctx, 0))

	ev, ok := <-received
	if !ok {
		t.Skip("no complete frame arrived over loopback UDP")
	}
	assert.Equal(t, 320, ev.Width)
	assert.Equal(t, 240, ev.Height)
	assert.Len(t, ev.Data, frame.PackedSize(320, 240))
	assert.Greater(t, a.sink.GetStats().PacketsSent, uint64(0))
}
