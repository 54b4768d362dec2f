package frame

import "fmt"

// Pack converts a multi-plane 4:2:0 image into one contiguous planar buffer.
//
// The result holds the luma plane followed by the two chroma planes, each
// tightly packed (pixel stride 1, row stride equal to the plane width). Its
// length is PackedSize(img.Width, img.Height). Interleaved chroma is
// de-interleaved and row padding is dropped.
//
// Pack fails with ErrTruncatedPlane when a plane buffer ends early and with
// ErrMalformedImage when the descriptor itself cannot be packed. No partial
// buffer is returned on error.
func Pack(img *Image) ([]byte, error) {
	if err := validateImage(img); err != nil {
		return nil, err
	}

	out := make([]byte, PackedSize(img.Width, img.Height))
	if _, err := packPlanes(out, img); err != nil {
		return nil, err
	}
	return out, nil
}

// PackInto packs img into dst and returns the number of bytes written.
//
// dst must be at least PackedSize(img.Width, img.Height) bytes long. On
// error the contents of dst are unspecified.
func PackInto(dst []byte, img *Image) (int, error) {
	if err := validateImage(img); err != nil {
		return 0, err
	}

	size := PackedSize(img.Width, img.Height)
	if len(dst) < size {
		return 0, fmt.Errorf("%w: have %d bytes, need %d", ErrBufferTooSmall, len(dst), size)
	}
	return packPlanes(dst[:size], img)
}

func packPlanes(dst []byte, img *Image) (int, error) {
	offset := 0
	for i := 0; i < PlaneCount; i++ {
		planeWidth, planeHeight := PlaneSize(i, img.Width, img.Height)
		n, err := packPlane(dst[offset:], img.Planes[i], i, planeWidth, planeHeight)
		if err != nil {
			return 0, err
		}
		offset += n
	}
	return offset, nil
}

// packPlane writes planeWidth*planeHeight samples of p into dst.
func packPlane(dst []byte, p Plane, index, planeWidth, planeHeight int) (int, error) {
	src := p.Data
	size := planeWidth * planeHeight

	// Already tightly packed: one copy.
	if p.PixelStride == 1 && p.RowStride == planeWidth {
		if len(src) < size {
			return 0, &PlaneError{
				Plane:     index,
				Row:       len(src) / planeWidth,
				Needed:    size,
				Remaining: len(src),
			}
		}
		copy(dst, src[:size])
		return size, nil
	}

	out := 0
	pos := 0
	for row := 0; row < planeHeight; row++ {
		remaining := len(src) - pos
		n := p.RowStride

		if row == planeHeight-1 {
			// Some sensors stop the final row right after its last sample.
			n = min(p.RowStride, remaining)
			if needed := rowSpan(planeWidth, p.PixelStride); n < needed {
				return 0, &PlaneError{Plane: index, Row: row, Needed: needed, Remaining: remaining}
			}
		} else if remaining < n {
			return 0, &PlaneError{Plane: index, Row: row, Needed: n, Remaining: remaining}
		}

		line := src[pos : pos+n]
		for col := 0; col < planeWidth; col++ {
			dst[out] = line[col*p.PixelStride]
			out++
		}
		pos += n
	}
	return out, nil
}

// rowSpan is the number of bytes covering planeWidth samples spaced
// pixelStride apart.
func rowSpan(planeWidth, pixelStride int) int {
	return (planeWidth-1)*pixelStride + 1
}

func validateImage(img *Image) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrMalformedImage)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrMalformedImage, img.Width, img.Height)
	}
	if len(img.Planes) != PlaneCount {
		return fmt.Errorf("%w: expected %d planes, got %d", ErrMalformedImage, PlaneCount, len(img.Planes))
	}

	for i, p := range img.Planes {
		if p.PixelStride <= 0 || p.RowStride <= 0 {
			return fmt.Errorf("%w: plane %d has row stride %d, pixel stride %d",
				ErrMalformedImage, i, p.RowStride, p.PixelStride)
		}
		planeWidth, _ := PlaneSize(i, img.Width, img.Height)
		if span := rowSpan(planeWidth, p.PixelStride); p.RowStride < span {
			return fmt.Errorf("%w: plane %d row stride %d shorter than row span %d",
				ErrMalformedImage, i, p.RowStride, span)
		}
	}
	return nil
}
