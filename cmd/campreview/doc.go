/*
Campreview runs a camera preview pipeline against a synthetic sensor.

Each sensor image is packed into a contiguous I420 frame, rotated and
mirrored for the active camera, passed through the selected filter and
optionally streamed as RTP over UDP.

# Usage

	campreview [options]

# Configuration Options

	-config string           YAML configuration file
	-layout string           Sensor plane layout (default "semiplanar")
	-fps int                 Sensor frame rate, 0 for unpaced (default 30)
	-frames int              Stop after this many frames
	-display string          Preview surface size (default "1080x1920")
	-rotation int            Display rotation in degrees
	-facing string           Camera to open first (default "front")
	-renderer string         Renderer kind (default "gl-yuv420-filter")
	-filter int              Initial filter index
	-rtp string              Stream frames over RTP/UDP to HOST:PORT
	-mtu int                 RTP packet size limit (default 1200)
	-skip-duplicates         Do not resend identical frames
	-duration duration       Stop after this long
	-stats-interval duration Interval between statistics log lines (default 5s)
	-commands                Read gesture commands from stdin
	-log-level string        Log level (default "info")
	-log-format string       Log format, text or json (default "text")
	-help                    Show help message

Flags given on the command line override the configuration file.

# Commands

With -commands, each stdin line is one of:

	left, right        select the next or previous filter
	up                 list the output sizes
	fling X1 Y1 X2 Y2 VX VY
	tap                switch between the front and back cameras
	size WxH           change the preview size
	rotate DEGREES     set the display rotation
	sizes              list the output sizes

A preview size change restarts capture at the new size.
*/
package main
