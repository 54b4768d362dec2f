// Package capture drives camera images from a Source through the frame
// packer to a frame handler.
//
// A Pipeline runs two goroutines. The producer pulls images from the
// Source into a bounded ImageQueue; when the queue is full the oldest
// pending image is released and dropped. The worker always acquires the
// newest pending image, packs it into a contiguous I420 buffer, releases
// the image straight away and hands a render.FrameReady event to the
// handler, carrying the display rotation and mirror flag at that moment.
//
//	sensor, _ := capture.NewSyntheticSensor(capture.SensorOptions{
//	    Width: 640, Height: 480, Layout: capture.LayoutSemiPlanar, FrameRate: 30,
//	})
//	p, _ := capture.New(sensor, render.Handler(r), capture.NewOptions())
//	err := p.Run(ctx)
//
// Images are never held past packing, so the queue bound is the only limit
// on how many source buffers are alive at once.
package capture
