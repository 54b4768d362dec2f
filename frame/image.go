package frame

import (
	"sync"
	"time"
)

// PlaneCount is the number of planes in a YUV 4:2:0 image.
const PlaneCount = 3

// Plane is one component of an Image.
//
// Data is a read-only view into memory owned by the producer. RowStride is
// the byte distance between the starts of consecutive rows and PixelStride the
// byte distance between consecutive samples within a row.
type Plane struct {
	Data        []byte
	RowStride   int
	PixelStride int
}

// Image is a single camera frame with one luma and two chroma planes.
//
// An Image belongs to whoever acquired it until Release is called. Consumers
// must release images promptly: the producer has a small pool of buffers and
// stalls once every one of them is held.
type Image struct {
	Width     int
	Height    int
	Planes    []Plane
	Timestamp time.Time

	releaseOnce sync.Once
	release     func()
}

// NewImage creates an image whose release hook returns its buffers to the
// producer. release may be nil.
func NewImage(width, height int, planes []Plane, timestamp time.Time, release func()) *Image {
	return &Image{
		Width:     width,
		Height:    height,
		Planes:    planes,
		Timestamp: timestamp,
		release:   release,
	}
}

// Release hands the image buffers back to the producer. Calling it more than
// once has no further effect. The plane data must not be used afterwards.
func (img *Image) Release() {
	if img == nil {
		return
	}
	img.releaseOnce.Do(func() {
		if img.release != nil {
			img.release()
		}
	})
}

// PlaneSize returns the sample dimensions of plane index for an image of
// width x height. Chroma planes round up so odd dimensions keep their last
// column and row.
func PlaneSize(index, width, height int) (planeWidth, planeHeight int) {
	if index == 0 {
		return width, height
	}
	return (width + 1) / 2, (height + 1) / 2
}

// PackedSize returns the byte length of a packed 4:2:0 buffer:
// width*height + 2*ceil(width/2)*ceil(height/2).
func PackedSize(width, height int) int {
	cw, ch := PlaneSize(1, width, height)
	return width*height + 2*cw*ch
}
