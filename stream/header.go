package stream

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/opd-ai/campreview/frame"
	"github.com/opd-ai/campreview/render"
)

// HeaderSize is the length of the per-frame header.
const HeaderSize = 16

const (
	headerVersion = 1
	flagMirror    = 0x01
)

var headerMagic = [4]byte{'I', '4', '2', '0'}

// frameHeader precedes the pixel data of every frame on the wire:
//
//	0..3   magic "I420"
//	4..5   width
//	6..7   height
//	8..9   rotation in degrees
//	10     flags, bit 0 mirror
//	11     version
//	12..15 low 32 bits of the frame sequence
type frameHeader struct {
	Width    int
	Height   int
	Rotation int
	Mirror   bool
	Sequence uint32
}

func headerFor(ev render.FrameReady) (frameHeader, error) {
	if ev.Width > math.MaxUint16 || ev.Height > math.MaxUint16 {
		return frameHeader{}, fmt.Errorf("%w: %dx%d", ErrFrameTooLarge, ev.Width, ev.Height)
	}
	return frameHeader{
		Width:    ev.Width,
		Height:   ev.Height,
		Rotation: ev.Rotation,
		Mirror:   ev.Mirror,
		Sequence: uint32(ev.Sequence),
	}, nil
}

func (h frameHeader) appendTo(b []byte) []byte {
	var flags byte
	if h.Mirror {
		flags |= flagMirror
	}
	b = append(b, headerMagic[:]...)
	b = binary.BigEndian.AppendUint16(b, uint16(h.Width))
	b = binary.BigEndian.AppendUint16(b, uint16(h.Height))
	b = binary.BigEndian.AppendUint16(b, uint16(h.Rotation))
	b = append(b, flags, headerVersion)
	return binary.BigEndian.AppendUint32(b, h.Sequence)
}

// payloadSize is the number of bytes that follow the header.
func (h frameHeader) payloadSize() int {
	return frame.PackedSize(h.Width, h.Height)
}

func parseHeader(b []byte) (frameHeader, error) {
	if len(b) < HeaderSize {
		return frameHeader{}, fmt.Errorf("%w: %d bytes", ErrBadHeader, len(b))
	}
	if [4]byte(b[0:4]) != headerMagic {
		return frameHeader{}, fmt.Errorf("%w: bad magic %q", ErrBadHeader, b[0:4])
	}
	if b[11] != headerVersion {
		return frameHeader{}, fmt.Errorf("%w: version %d", ErrBadHeader, b[11])
	}
	h := frameHeader{
		Width:    int(binary.BigEndian.Uint16(b[4:6])),
		Height:   int(binary.BigEndian.Uint16(b[6:8])),
		Rotation: int(binary.BigEndian.Uint16(b[8:10])),
		Mirror:   b[10]&flagMirror != 0,
		Sequence: binary.BigEndian.Uint32(b[12:16]),
	}
	if h.Width == 0 || h.Height == 0 || h.Rotation >= 360 {
		return frameHeader{}, fmt.Errorf("%w: %dx%d rotation %d", ErrBadHeader, h.Width, h.Height, h.Rotation)
	}
	return h, nil
}
