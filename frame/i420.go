package frame

import (
	"fmt"
	"image"
)

// I420 is a planar 4:2:0 frame. Frames produced by SplitI420 alias the
// packed buffer they were split from.
type I420 struct {
	Width   int
	Height  int
	Y       []byte // luminance, YStride bytes per row
	U       []byte // chroma, CStride bytes per row
	V       []byte // chroma, CStride bytes per row
	YStride int
	CStride int
}

// NewI420 allocates a zeroed frame of the given size.
func NewI420(width, height int) *I420 {
	f, _ := SplitI420(make([]byte, PackedSize(width, height)), width, height)
	return f
}

// SplitI420 returns a view over a packed buffer produced by Pack.
func SplitI420(buf []byte, width, height int) (*I420, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrMalformedImage, width, height)
	}
	if size := PackedSize(width, height); len(buf) != size {
		return nil, fmt.Errorf("%w: buffer is %d bytes, %dx%d needs %d",
			ErrMalformedImage, len(buf), width, height, size)
	}

	cw, ch := PlaneSize(1, width, height)
	ySize := width * height
	cSize := cw * ch

	return &I420{
		Width:   width,
		Height:  height,
		Y:       buf[:ySize:ySize],
		U:       buf[ySize : ySize+cSize : ySize+cSize],
		V:       buf[ySize+cSize:],
		YStride: width,
		CStride: cw,
	}, nil
}

// ChromaSize returns the dimensions of the U and V planes.
func (f *I420) ChromaSize() (width, height int) {
	return PlaneSize(1, f.Width, f.Height)
}

// Clone returns a deep copy backed by a fresh packed buffer.
func (f *I420) Clone() *I420 {
	c, _ := SplitI420(f.Bytes(), f.Width, f.Height)
	return c
}

// Bytes returns the frame in packed Y, U, V order. The result never aliases f.
func (f *I420) Bytes() []byte {
	out := make([]byte, 0, PackedSize(f.Width, f.Height))
	cw, ch := f.ChromaSize()
	out = appendRows(out, f.Y, f.Width, f.Height, f.YStride)
	out = appendRows(out, f.U, cw, ch, f.CStride)
	out = appendRows(out, f.V, cw, ch, f.CStride)
	return out
}

// YCbCr exposes the frame as a standard library image. The planes are shared.
func (f *I420) YCbCr() *image.YCbCr {
	return &image.YCbCr{
		Y:              f.Y,
		Cb:             f.U,
		Cr:             f.V,
		YStride:        f.YStride,
		CStride:        f.CStride,
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           image.Rect(0, 0, f.Width, f.Height),
	}
}

func appendRows(dst, plane []byte, width, height, stride int) []byte {
	for row := 0; row < height; row++ {
		start := row * stride
		dst = append(dst, plane[start:start+width]...)
	}
	return dst
}
