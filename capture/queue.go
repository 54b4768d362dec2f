package capture

import (
	"context"
	"sync"

	"github.com/opd-ai/campreview/frame"
)

// DefaultMaxImages is the default number of images a queue holds.
const DefaultMaxImages = 3

// ImageQueue is a bounded buffer of pending camera images with
// drop-oldest admission and acquire-latest retrieval. Every image that
// leaves the queue other than through AcquireLatest is released.
type ImageQueue struct {
	mu        sync.Mutex
	pending   []*frame.Image
	maxImages int
	finished  bool
	// ready is closed and replaced whenever the queue state changes.
	ready chan struct{}
}

// NewImageQueue creates a queue holding at most maxImages pending images.
// Non-positive values select DefaultMaxImages.
func NewImageQueue(maxImages int) *ImageQueue {
	if maxImages <= 0 {
		maxImages = DefaultMaxImages
	}
	return &ImageQueue{
		maxImages: maxImages,
		ready:     make(chan struct{}),
	}
}

// Offer adds img to the queue and returns how many older images were
// released to make room. Offering to a finished queue releases img and
// returns ErrQueueClosed.
func (q *ImageQueue) Offer(img *frame.Image) (int, error) {
	q.mu.Lock()
	if q.finished {
		q.mu.Unlock()
		img.Release()
		return 0, ErrQueueClosed
	}

	var evicted []*frame.Image
	for len(q.pending) >= q.maxImages {
		evicted = append(evicted, q.pending[0])
		q.pending[0] = nil
		q.pending = q.pending[1:]
	}
	q.pending = append(q.pending, img)
	q.signalLocked()
	q.mu.Unlock()

	for _, old := range evicted {
		old.Release()
	}
	return len(evicted), nil
}

// AcquireLatest blocks until an image is pending and returns the newest
// one, releasing any older pending images. The second result is the number
// of images released that way. After Finish it keeps returning pending
// images until none are left, then ErrQueueClosed.
func (q *ImageQueue) AcquireLatest(ctx context.Context) (*frame.Image, int, error) {
	for {
		q.mu.Lock()
		if n := len(q.pending); n > 0 {
			latest := q.pending[n-1]
			older := q.pending[:n-1]
			q.pending = nil
			q.mu.Unlock()

			for _, img := range older {
				img.Release()
			}
			return latest, len(older), nil
		}
		if q.finished {
			q.mu.Unlock()
			return nil, 0, ErrQueueClosed
		}
		ready := q.ready
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		case <-ready:
		}
	}
}

// Len returns the number of pending images.
func (q *ImageQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Finish stops admission. Pending images stay available to AcquireLatest.
func (q *ImageQueue) Finish() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.finished {
		q.finished = true
		q.signalLocked()
	}
}

// Close stops admission and releases every pending image. It returns the
// number of images released.
func (q *ImageQueue) Close() int {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	if !q.finished {
		q.finished = true
		q.signalLocked()
	}
	q.mu.Unlock()

	for _, img := range pending {
		img.Release()
	}
	return len(pending)
}

func (q *ImageQueue) signalLocked() {
	close(q.ready)
	q.ready = make(chan struct{})
}
