package stream

import (
	"fmt"

	"github.com/pion/rtp"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/campreview/frame"
	"github.com/opd-ai/campreview/render"
)

// defaultMaxPending bounds the number of frames assembled at once.
const defaultMaxPending = 4

// assembly collects the packets of one frame, keyed by sequence number.
type assembly struct {
	timestamp uint32
	chunks    map[uint16][]byte
	markerSeq uint16
	hasMarker bool
	order     uint64
}

// Reassembler rebuilds frames from RTP packets produced by an RTPSink.
// It is not safe for concurrent use.
type Reassembler struct {
	pending    map[uint32]*assembly
	maxPending int
	counter    uint64
	dropped    uint64
}

// NewReassembler creates a reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{
		pending:    make(map[uint32]*assembly),
		maxPending: defaultMaxPending,
	}
}

// GetDroppedCount returns how many partial frames were discarded.
func (r *Reassembler) GetDroppedCount() uint64 {
	return r.dropped
}

// Push parses one marshalled RTP packet. It returns the frame once all of
// its packets have arrived, or nil while the frame is incomplete.
func (r *Reassembler) Push(raw []byte) (*render.FrameReady, error) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal RTP packet: %w", err)
	}
	return r.PushPacket(&pkt)
}

// PushPacket adds a parsed packet. The payload is copied.
func (r *Reassembler) PushPacket(pkt *rtp.Packet) (*render.FrameReady, error) {
	a := r.assemblyFor(pkt.Timestamp)
	a.chunks[pkt.SequenceNumber] = append([]byte(nil), pkt.Payload...)
	if pkt.Marker {
		a.hasMarker = true
		a.markerSeq = pkt.SequenceNumber
	}
	if !a.hasMarker {
		return nil, nil
	}

	ev, done, err := a.complete()
	if err != nil || done {
		delete(r.pending, a.timestamp)
	}
	if err != nil {
		r.dropped++
		return nil, err
	}
	return ev, nil
}

func (r *Reassembler) assemblyFor(ts uint32) *assembly {
	if a, ok := r.pending[ts]; ok {
		return a
	}
	if len(r.pending) >= r.maxPending {
		r.evictOldest()
	}
	r.counter++
	a := &assembly{
		timestamp: ts,
		chunks:    make(map[uint16][]byte),
		order:     r.counter,
	}
	r.pending[ts] = a
	return a
}

func (r *Reassembler) evictOldest() {
	var oldest *assembly
	for _, a := range r.pending {
		if oldest == nil || a.order < oldest.order {
			oldest = a
		}
	}
	if oldest == nil {
		return
	}
	delete(r.pending, oldest.timestamp)
	r.dropped++

	logrus.WithFields(logrus.Fields{
		"function":  "Reassembler.evictOldest",
		"timestamp": oldest.timestamp,
		"packets":   len(oldest.chunks),
	}).Debug("Dropped incomplete frame")
}

// complete walks back from the marker packet over contiguous sequence
// numbers. The frame is done once that run starts with a header and its
// length matches the header.
func (a *assembly) complete() (*render.FrameReady, bool, error) {
	run := 0
	first := a.markerSeq
	total := 0
	for {
		chunk, ok := a.chunks[first]
		if !ok {
			first++
			break
		}
		total += len(chunk)
		run++
		if run == len(a.chunks) {
			break
		}
		first--
	}
	if run == 0 {
		return nil, false, nil
	}

	head := a.chunks[first]
	if len(head) < HeaderSize {
		return nil, false, nil
	}
	hdr, err := parseHeader(head)
	if err != nil {
		// A chunk from the middle of the frame; the start is still missing.
		return nil, false, nil
	}
	want := HeaderSize + hdr.payloadSize()
	if total < want {
		return nil, false, nil
	}
	if total > want {
		return nil, false, fmt.Errorf("%w: %d bytes for %dx%d", ErrBadHeader, total, hdr.Width, hdr.Height)
	}

	buf := make([]byte, 0, total)
	for i, seq := 0, first; i < run; i, seq = i+1, seq+1 {
		buf = append(buf, a.chunks[seq]...)
	}
	data := buf[HeaderSize:]

	return &render.FrameReady{
		Data:     data,
		Width:    hdr.Width,
		Height:   hdr.Height,
		Rotation: hdr.Rotation,
		Mirror:   hdr.Mirror,
		Sequence: uint64(hdr.Sequence),
		Digest:   frame.Digest(data),
	}, true, nil
}
