package stream

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/rtp"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/campreview/frame"
	"github.com/opd-ai/campreview/render"
)

const (
	// ClockRate is the RTP video clock.
	ClockRate = 90000

	// DefaultMTU keeps packets under common path MTUs after IP/UDP headers.
	DefaultMTU = 1200

	// DefaultPayloadType is a dynamic RTP payload type.
	DefaultPayloadType = 96

	rtpHeaderSize = 12

	// defaultFrameTicks advances frames whose capture time does not (30 fps).
	defaultFrameTicks = ClockRate / 30
)

// SinkOptions configures an RTPSink.
type SinkOptions struct {
	MTU            uint16
	PayloadType    uint8
	SkipDuplicates bool
}

// DefaultSinkOptions returns options with MTU 1200 and payload type 96.
func DefaultSinkOptions() SinkOptions {
	return SinkOptions{
		MTU:         DefaultMTU,
		PayloadType: DefaultPayloadType,
	}
}

// SinkStats is a point-in-time copy of sink counters.
type SinkStats struct {
	FramesSent    uint64
	FramesSkipped uint64
	PacketsSent   uint64
	BytesSent     uint64
}

// RTPSink writes frames as RTP packets to an io.Writer, one Write per packet.
type RTPSink struct {
	mu         sync.Mutex
	id         uuid.UUID
	w          io.Writer
	opts       SinkOptions
	packetizer rtp.Packetizer
	ssrc       uint32
	buf        []byte
	clock      mediaClock
	lastDigest [frame.DigestSize]byte
	hasDigest  bool
	stats      SinkStats
	closed     bool
}

// NewRTPSink creates a sink writing to w. The SSRC is derived from a random
// stream ID.
func NewRTPSink(w io.Writer, opts SinkOptions) (*RTPSink, error) {
	if w == nil {
		return nil, fmt.Errorf("writer cannot be nil")
	}
	if opts.MTU == 0 {
		opts.MTU = DefaultMTU
	}
	if opts.MTU <= rtpHeaderSize+HeaderSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMTU, opts.MTU)
	}

	id := uuid.New()
	ssrc := binary.BigEndian.Uint32(id[:4])

	s := &RTPSink{
		id:   id,
		w:    w,
		opts: opts,
		ssrc: ssrc,
		packetizer: rtp.NewPacketizer(opts.MTU, opts.PayloadType, ssrc,
			&chunkPayloader{}, rtp.NewRandomSequencer(), ClockRate),
	}

	logrus.WithFields(logrus.Fields{
		"function":        "NewRTPSink",
		"stream_id":       id.String(),
		"ssrc":            ssrc,
		"mtu":             opts.MTU,
		"payload_type":    opts.PayloadType,
		"skip_duplicates": opts.SkipDuplicates,
	}).Info("RTP sink created")

	return s, nil
}

// GetStreamID returns the stream identifier.
func (s *RTPSink) GetStreamID() uuid.UUID {
	return s.id
}

// GetSSRC returns the RTP synchronization source.
func (s *RTPSink) GetSSRC() uint32 {
	return s.ssrc
}

// GetStats returns a copy of the sink counters.
func (s *RTPSink) GetStats() SinkStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Handle packetizes and writes one frame. It matches render.FrameHandler.
func (s *RTPSink) Handle(ev render.FrameReady) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	hdr, err := headerFor(ev)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}
	if s.opts.SkipDuplicates && s.hasDigest && ev.Digest == s.lastDigest {
		s.stats.FramesSkipped++
		logrus.WithFields(logrus.Fields{
			"function": "RTPSink.Handle",
			"sequence": ev.Sequence,
		}).Debug("Skipping duplicate frame")
		return nil
	}

	s.buf = hdr.appendTo(s.buf[:0])
	s.buf = append(s.buf, ev.Data...)

	packets := s.packetizer.Packetize(s.buf, 0)
	if len(packets) == 0 {
		return nil
	}
	ts := s.clock.timestamp(ev.Timestamp, packets[0].Timestamp)
	for _, pkt := range packets {
		pkt.Timestamp = ts
		raw, err := pkt.Marshal()
		if err != nil {
			return fmt.Errorf("failed to marshal RTP packet: %w", err)
		}
		if _, err := s.w.Write(raw); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":        "RTPSink.Handle",
				"sequence_number": pkt.SequenceNumber,
				"error":           err.Error(),
			}).Error("Failed to write RTP packet")
			return fmt.Errorf("failed to write RTP packet: %w", err)
		}
		s.stats.PacketsSent++
		s.stats.BytesSent += uint64(len(raw))
	}

	s.stats.FramesSent++
	s.lastDigest = ev.Digest
	s.hasDigest = true

	logrus.WithFields(logrus.Fields{
		"function": "RTPSink.Handle",
		"sequence": ev.Sequence,
		"packets":  len(packets),
	}).Debug("Frame sent")
	return nil
}

// mediaClock maps capture times onto the 90 kHz RTP clock. The first
// frame anchors the clock; later frames are stamped by their offset from
// it. Timestamps strictly increase from frame to frame.
type mediaClock struct {
	started  bool
	anchor   time.Time // capture time of the anchoring frame, zero until one is seen
	base     uint32    // RTP timestamp of the anchoring frame
	last     uint32
	lastTime time.Time
}

// timestamp returns the RTP timestamp for a frame captured at ts. initial
// is used for the first frame.
func (c *mediaClock) timestamp(ts time.Time, initial uint32) uint32 {
	var rtpTS uint32
	switch {
	case !c.started:
		rtpTS = initial
	case c.anchor.IsZero() || !ts.After(c.lastTime):
		rtpTS = c.last + defaultFrameTicks
	default:
		rtpTS = c.base + ticks(ts.Sub(c.anchor))
		if int32(rtpTS-c.last) <= 0 {
			rtpTS = c.last + 1
		}
	}

	if c.anchor.IsZero() && !ts.IsZero() {
		c.anchor = ts
		c.base = rtpTS
	}
	if ts.After(c.lastTime) {
		c.lastTime = ts
	}
	c.started = true
	c.last = rtpTS
	return rtpTS
}

// ticks converts a non-negative duration to 90 kHz clock ticks without
// overflowing on long streams.
func ticks(d time.Duration) uint32 {
	sec := uint64(d / time.Second)
	frac := uint64(d % time.Second)
	return uint32(sec*ClockRate + frac*ClockRate/uint64(time.Second))
}

// Close stops the sink. The writer is owned by the caller and stays open.
func (s *RTPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	logrus.WithFields(logrus.Fields{
		"function":       "RTPSink.Close",
		"stream_id":      s.id.String(),
		"frames_sent":    s.stats.FramesSent,
		"frames_skipped": s.stats.FramesSkipped,
	}).Info("RTP sink closed")
	return nil
}

// chunkPayloader splits a payload into consecutive slices of at most mtu
// bytes.
type chunkPayloader struct{}

func (*chunkPayloader) Payload(mtu uint16, payload []byte) [][]byte {
	if mtu == 0 || len(payload) == 0 {
		return nil
	}
	size := int(mtu)
	out := make([][]byte, 0, (len(payload)+size-1)/size)
	for len(payload) > 0 {
		n := min(size, len(payload))
		out = append(out, payload[:n])
		payload = payload[n:]
	}
	return out
}
