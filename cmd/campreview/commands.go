package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/campreview/controller"
	"github.com/opd-ai/campreview/gesture"
	"github.com/opd-ai/campreview/orientation"
)

// readCommands feeds lines from r to handleCommand until EOF or ctx ends.
// Replies go to out.
func readCommands(ctx context.Context, r io.Reader, ctrl *controller.CameraController, out io.Writer) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		reply, err := handleCommand(ctrl, line)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "readCommands",
				"command":  line,
				"error":    err.Error(),
			}).Warn("Command failed")
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, reply)
	}
}

// handleCommand applies one command line to the controller:
//
//	left | right | up | down          swipe
//	fling X1 Y1 X2 Y2 VX VY           classified swipe
//	tap                               switch camera
//	size WxH                          change preview size
//	rotate DEGREES                    set display rotation
//	sizes                             list output sizes
func handleCommand(ctrl *controller.CameraController, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", fmt.Errorf("empty command")
	}

	switch cmd := strings.ToLower(fields[0]); cmd {
	case "left", "right", "up", "down":
		return swipe(ctrl, directions[cmd])

	case "fling":
		if len(fields) != 7 {
			return "", fmt.Errorf("usage: fling X1 Y1 X2 Y2 VX VY")
		}
		var v [6]float64
		for i := range v {
			f, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return "", fmt.Errorf("fling: %w", err)
			}
			v[i] = f
		}
		d, ok := gesture.Classify(gesture.Fling{
			StartX: v[0], StartY: v[1],
			EndX: v[2], EndY: v[3],
			VelocityX: v[4], VelocityY: v[5],
		})
		if !ok {
			return "ignored", nil
		}
		return swipe(ctrl, d)

	case "tap":
		if err := ctrl.OnDoubleTap(); err != nil {
			return "", err
		}
		cam := ctrl.ActiveCamera()
		return fmt.Sprintf("camera %s (%s) %s", cam.ID, cam.Facing, ctrl.PreviewSize()), nil

	case "size":
		if len(fields) != 2 {
			return "", fmt.Errorf("usage: size WIDTHxHEIGHT")
		}
		size, err := controller.ParseSize(fields[1])
		if err != nil {
			return "", err
		}
		if err := ctrl.ChangeSize(size); err != nil {
			return "", err
		}
		return "preview " + size.String(), nil

	case "rotate":
		if len(fields) != 2 {
			return "", fmt.Errorf("usage: rotate DEGREES")
		}
		deg, err := strconv.Atoi(fields[1])
		if err != nil {
			return "", fmt.Errorf("rotate: %w", err)
		}
		rot, err := orientation.FromDegrees(deg)
		if err != nil {
			return "", err
		}
		ctrl.SetDisplayRotation(rot)
		return fmt.Sprintf("orientation %d", ctrl.Orientation()), nil

	case "sizes":
		return formatSizes(ctrl.OutputSizes()), nil

	default:
		return "", fmt.Errorf("unknown command %q", fields[0])
	}
}

var directions = map[string]gesture.Direction{
	"left":  gesture.Left,
	"right": gesture.Right,
	"up":    gesture.Up,
	"down":  gesture.Down,
}

func swipe(ctrl *controller.CameraController, d gesture.Direction) (string, error) {
	action, err := ctrl.OnSwipe(d)
	if err != nil {
		return "", err
	}
	if action == controller.ActionShowResolutions {
		return formatSizes(ctrl.OutputSizes()), nil
	}
	return action.String(), nil
}

func formatSizes(sizes []controller.Size) string {
	names := make([]string, len(sizes))
	for i, s := range sizes {
		names[i] = s.String()
	}
	return strings.Join(names, " ")
}
