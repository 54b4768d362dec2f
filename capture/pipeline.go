package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/campreview/frame"
	"github.com/opd-ai/campreview/render"
)

// Source produces camera images. Next blocks until an image is available;
// it returns io.EOF when the source is exhausted. The caller owns the
// returned image and must release it.
type Source interface {
	Next(ctx context.Context) (*frame.Image, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (*frame.Image, error)

// Next calls f.
func (f SourceFunc) Next(ctx context.Context) (*frame.Image, error) {
	return f(ctx)
}

// Options configures a Pipeline.
type Options struct {
	// MaxImages bounds the pending image queue.
	MaxImages int
	// Orientation returns the rotation in degrees to attach to each frame.
	Orientation func() int
	// Mirror reports whether frames should be flipped horizontally.
	Mirror func() bool
	// TimeProvider stamps frames whose image carries no timestamp.
	TimeProvider TimeProvider
}

// NewOptions returns the default pipeline options.
func NewOptions() *Options {
	return &Options{
		MaxImages:    DefaultMaxImages,
		TimeProvider: DefaultTimeProvider{},
	}
}

// Pipeline moves images from a Source to a frame handler.
type Pipeline struct {
	id      uuid.UUID
	src     Source
	handler render.FrameHandler
	opts    Options
	queue   *ImageQueue
	stats   Stats
	running atomic.Bool

	buf      []byte
	sequence uint64
}

// New creates a pipeline. A nil opts selects NewOptions.
func New(src Source, handler render.FrameHandler, opts *Options) (*Pipeline, error) {
	if src == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}
	if opts == nil {
		opts = NewOptions()
	}

	p := &Pipeline{
		id:      uuid.New(),
		src:     src,
		handler: handler,
		opts:    *opts,
		queue:   NewImageQueue(opts.MaxImages),
	}
	p.opts.TimeProvider = getTimeProvider(opts.TimeProvider)

	logrus.WithFields(logrus.Fields{
		"function":   "capture.New",
		"session_id": p.id.String(),
		"max_images": p.queue.maxImages,
	}).Info("Capture pipeline created")

	return p, nil
}

// GetSessionID returns the pipeline identifier used in logs.
func (p *Pipeline) GetSessionID() uuid.UUID {
	return p.id
}

// GetStats returns a snapshot of the pipeline counters.
func (p *Pipeline) GetStats() StatsSnapshot {
	return p.stats.Snapshot()
}

// ResetStats zeroes the pipeline counters, for example between reporting
// intervals of a long run.
func (p *Pipeline) ResetStats() {
	p.stats.Reset()
}

// Run processes images until the source is exhausted or ctx is cancelled.
// Exhaustion drains the pending images and returns nil; cancellation
// releases them and returns ctx.Err(). A source error other than io.EOF
// stops the run and is returned after draining.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	logger := logrus.WithFields(logrus.Fields{
		"function":   "Pipeline.Run",
		"session_id": p.id.String(),
	})
	logger.Info("Capture pipeline started")

	var (
		wg        sync.WaitGroup
		sourceErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		sourceErr = p.produce(ctx)
	}()
	go func() {
		defer wg.Done()
		p.consume(ctx)
	}()
	wg.Wait()

	p.stats.addDropped(p.queue.Close())

	snap := p.stats.Snapshot()
	logger.WithFields(logrus.Fields{
		"received":  snap.Received,
		"packed":    snap.Packed,
		"dropped":   snap.Dropped,
		"truncated": snap.Truncated,
	}).Info("Capture pipeline stopped")

	if err := ctx.Err(); err != nil {
		return err
	}
	return sourceErr
}

func (p *Pipeline) produce(ctx context.Context) error {
	defer p.queue.Finish()

	for {
		img, err := p.src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			p.stats.sourceErrors.Add(1)
			logrus.WithFields(logrus.Fields{
				"function":   "Pipeline.produce",
				"session_id": p.id.String(),
				"error":      err.Error(),
			}).Error("Source read failed")
			return fmt.Errorf("source: %w", err)
		}
		if img == nil {
			continue
		}
		p.stats.received.Add(1)

		evicted, err := p.queue.Offer(img)
		p.stats.addDropped(evicted)
		if err != nil {
			p.stats.addDropped(1)
			return nil
		}
	}
}

func (p *Pipeline) consume(ctx context.Context) {
	for {
		img, skipped, err := p.queue.AcquireLatest(ctx)
		p.stats.addDropped(skipped)
		if err != nil {
			return
		}
		p.process(img)
	}
}

// process packs one image, releases it and delivers the frame.
func (p *Pipeline) process(img *frame.Image) {
	size := frame.PackedSize(img.Width, img.Height)
	if img.Width > 0 && img.Height > 0 && cap(p.buf) < size {
		p.buf = make([]byte, size)
	}
	n, err := frame.PackInto(p.buf[:cap(p.buf)], img)
	timestamp := img.Timestamp
	img.Release()

	if err != nil {
		p.recordPackError(err)
		return
	}
	data := p.buf[:n]

	if timestamp.IsZero() {
		timestamp = p.opts.TimeProvider.Now()
	}
	p.sequence++
	ev := render.FrameReady{
		Data:      data,
		Width:     img.Width,
		Height:    img.Height,
		Rotation:  p.rotation(),
		Mirror:    p.mirror(),
		Sequence:  p.sequence,
		Timestamp: timestamp,
		Digest:    frame.Digest(data),
	}
	p.stats.packed.Add(1)

	if err := p.handler(ev); err != nil {
		p.stats.handlerErrors.Add(1)
		logrus.WithFields(logrus.Fields{
			"function":   "Pipeline.process",
			"session_id": p.id.String(),
			"sequence":   ev.Sequence,
			"error":      err.Error(),
		}).Warn("Frame handler failed")
	}
}

func (p *Pipeline) recordPackError(err error) {
	fields := logrus.Fields{
		"function":   "Pipeline.process",
		"session_id": p.id.String(),
		"error":      err.Error(),
	}
	var planeErr *frame.PlaneError
	if errors.As(err, &planeErr) {
		p.stats.truncated.Add(1)
		fields["plane"] = planeErr.Plane
		fields["row"] = planeErr.Row
		logrus.WithFields(fields).Warn("Dropping truncated image")
		return
	}
	p.stats.malformed.Add(1)
	logrus.WithFields(fields).Warn("Dropping malformed image")
}

func (p *Pipeline) rotation() int {
	if p.opts.Orientation == nil {
		return 0
	}
	return p.opts.Orientation()
}

func (p *Pipeline) mirror() bool {
	return p.opts.Mirror != nil && p.opts.Mirror()
}
