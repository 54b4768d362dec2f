// Package frame models camera sensor images and packs them into contiguous
// planar YUV 4:2:0 buffers.
//
// A sensor delivers an [Image] made of three [Plane] values: full resolution
// luma followed by two chroma planes subsampled by two in both directions.
// Each plane carries its own row stride and pixel stride, so chroma may be
// interleaved (pixel stride 2, as produced by NV12/NV21 style sensors) and
// rows may be padded for alignment.
//
// # Packing
//
// [Pack] removes strides and interleaving and returns one I420 buffer:
//
//	buf, err := frame.Pack(img)
//	if err != nil {
//	    // errors.Is(err, frame.ErrTruncatedPlane): drop the frame
//	}
//	img.Release()
//
// The output length is always [PackedSize] of the image dimensions. Packing is
// a pure function: it takes no locks, keeps no state between calls and holds
// no reference to the image once it returns. [PackInto] does the same work
// into a caller-owned buffer so hot loops can reuse allocations.
//
// # Working With Packed Buffers
//
// [SplitI420] returns an [I420] view whose Y, U and V slices alias the packed
// buffer. The view converts to an [image.YCbCr] for snapshots and encoders,
// and [Digest] fingerprints a packed buffer with BLAKE2b-256.
//
// # Thread Safety
//
// Images are owned by one consumer at a time. Release is safe to call more
// than once. I420 views are not synchronized.
package frame
