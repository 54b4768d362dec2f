package stream

import (
	"errors"
	"testing"
	"time"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/campreview/frame"
	"github.com/opd-ai/campreview/render"
)

// packetRecorder keeps each Write as one datagram.
type packetRecorder struct {
	packets [][]byte
	err     error
}

func (p *packetRecorder) Write(b []byte) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	p.packets = append(p.packets, append([]byte(nil), b...))
	return len(b), nil
}

func testFrame(width, height int, seed byte, seq uint64, ts time.Time) render.FrameReady {
	data := make([]byte, frame.PackedSize(width, height))
	for i := range data {
		data[i] = seed + byte(i*7)
	}
	return render.FrameReady{
		Data:      data,
		Width:     width,
		Height:    height,
		Rotation:  270,
		Mirror:    true,
		Sequence:  seq,
		Timestamp: ts,
		Digest:    frame.Digest(data),
	}
}

func unmarshalAll(t *testing.T, raw [][]byte) []*rtp.Packet {
	t.Helper()
	out := make([]*rtp.Packet, len(raw))
	for i, b := range raw {
		pkt := &rtp.Packet{}
		require.NoError(t, pkt.Unmarshal(b))
		out[i] = pkt
	}
	return out
}

func TestNewRTPSink_Validation(t *testing.T) {
	_, err := NewRTPSink(nil, DefaultSinkOptions())
	assert.Error(t, err)

	_, err = NewRTPSink(&packetRecorder{}, SinkOptions{MTU: 20})
	assert.True(t, errors.Is(err, ErrInvalidMTU))

	sink, err := NewRTPSink(&packetRecorder{}, SinkOptions{})
	require.NoError(t, err)
	assert.Equal(t, uint16(DefaultMTU), sink.opts.MTU)
	assert.NotEqual(t, [16]byte{}, [16]byte(sink.GetStreamID()))
}

func TestRTPSink_Packetization(t *testing.T) {
	rec := &packetRecorder{}
	opts := DefaultSinkOptions()
	opts.MTU = 200
	sink, err := NewRTPSink(rec, opts)
	require.NoError(t, err)

	ev := testFrame(32, 16, 1, 5, time.Unix(100, 0))
	require.NoError(t, sink.Handle(ev))

	wantBytes := HeaderSize + frame.PackedSize(32, 16)
	perPacket := int(opts.MTU) - rtpHeaderSize
	wantPackets := (wantBytes + perPacket - 1) / perPacket
	require.Len(t, rec.packets, wantPackets)

	pkts := unmarshalAll(t, rec.packets)
	for i, pkt := range pkts {
		assert.LessOrEqual(t, len(rec.packets[i]), int(opts.MTU))
		assert.Equal(t, uint8(DefaultPayloadType), pkt.PayloadType)
		assert.Equal(t, sink.GetSSRC(), pkt.SSRC)
		assert.Equal(t, pkts[0].Timestamp, pkt.Timestamp, "one timestamp per frame")
		assert.Equal(t, pkts[0].SequenceNumber+uint16(i), pkt.SequenceNumber)
		assert.Equal(t, i == len(pkts)-1, pkt.Marker, "marker on last packet only")
	}

	stats := sink.GetStats()
	assert.Equal(t, uint64(1), stats.FramesSent)
	assert.Equal(t, uint64(wantPackets), stats.PacketsSent)
}

func TestRTPSink_TimestampAdvancesWithCaptureTime(t *testing.T) {
	rec := &packetRecorder{}
	sink, err := NewRTPSink(rec, DefaultSinkOptions())
	require.NoError(t, err)

	start := time.Unix(100, 0)
	require.NoError(t, sink.Handle(testFrame(4, 4, 0, 1, start)))
	require.NoError(t, sink.Handle(testFrame(4, 4, 1, 2, start.Add(100*time.Millisecond))))
	require.NoError(t, sink.Handle(testFrame(4, 4, 2, 3, start.Add(200*time.Millisecond))))

	pkts := unmarshalAll(t, rec.packets)
	require.Len(t, pkts, 3)
	assert.Equal(t, uint32(9000), pkts[1].Timestamp-pkts[0].Timestamp)
	assert.Equal(t, uint32(9000), pkts[2].Timestamp-pkts[1].Timestamp)
	assert.Equal(t, uint32(18000), pkts[2].Timestamp-pkts[0].Timestamp, "offset from the first frame")
}

func TestRTPSink_TimestampFallbacks(t *testing.T) {
	start := time.Unix(100, 0)
	tests := []struct {
		name   string
		times  []time.Time
		deltas []uint32
	}{
		{
			name:   "zero capture times",
			times:  []time.Time{{}, {}, {}},
			deltas: []uint32{defaultFrameTicks, defaultFrameTicks},
		},
		{
			name:   "repeated capture time",
			times:  []time.Time{start, start, start.Add(time.Second)},
			deltas: []uint32{defaultFrameTicks, ClockRate - defaultFrameTicks},
		},
		{
			name:   "sub-tick interval still advances",
			times:  []time.Time{start, start.Add(5 * time.Microsecond), start.Add(10 * time.Microsecond)},
			deltas: []uint32{1, 1},
		},
		{
			name:   "anchor taken from first real capture time",
			times:  []time.Time{{}, start, start.Add(time.Second)},
			deltas: []uint32{defaultFrameTicks, ClockRate},
		},
		{
			name:   "offset behind a fallback is clamped",
			times:  []time.Time{start, start, start.Add(10 * time.Millisecond)},
			deltas: []uint32{defaultFrameTicks, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &packetRecorder{}
			sink, err := NewRTPSink(rec, DefaultSinkOptions())
			require.NoError(t, err)
			for i, ts := range tt.times {
				require.NoError(t, sink.Handle(testFrame(4, 4, byte(i), uint64(i+1), ts)))
			}

			pkts := unmarshalAll(t, rec.packets)
			require.Len(t, pkts, len(tt.times))
			for i, want := range tt.deltas {
				assert.Equal(t, want, pkts[i+1].Timestamp-pkts[i].Timestamp, "frame %d", i+1)
			}
		})
	}
}

func TestRTPSink_SkipDuplicates(t *testing.T) {
	rec := &packetRecorder{}
	opts := DefaultSinkOptions()
	opts.SkipDuplicates = true
	sink, err := NewRTPSink(rec, opts)
	require.NoError(t, err)

	ev := testFrame(8, 8, 3, 1, time.Unix(1, 0))
	require.NoError(t, sink.Handle(ev))
	sent := len(rec.packets)

	ev.Sequence = 2
	require.NoError(t, sink.Handle(ev))
	assert.Len(t, rec.packets, sent)

	require.NoError(t, sink.Handle(testFrame(8, 8, 4, 3, time.Unix(2, 0))))
	assert.Greater(t, len(rec.packets), sent)

	stats := sink.GetStats()
	assert.Equal(t, uint64(2), stats.FramesSent)
	assert.Equal(t, uint64(1), stats.FramesSkipped)
}

func TestRTPSink_Errors(t *testing.T) {
	rec := &packetRecorder{err: errors.New("network unreachable")}
	sink, err := NewRTPSink(rec, DefaultSinkOptions())
	require.NoError(t, err)

	err = sink.Handle(testFrame(4, 4, 0, 1, time.Time{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network unreachable")

	bad := testFrame(4, 4, 0, 1, time.Time{})
	bad.Data = bad.Data[:3]
	assert.True(t, errors.Is(sink.Handle(bad), render.ErrFrameSize))

	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())
	assert.True(t, errors.Is(sink.Handle(testFrame(4, 4, 0, 1, time.Time{})), ErrSinkClosed))
}

func TestChunkPayloader(t *testing.T) {
	p := &chunkPayloader{}
	assert.Nil(t, p.Payload(10, nil))
	assert.Nil(t, p.Payload(0, []byte{1}))

	chunks := p.Payload(4, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	assert.Equal(t, [][]byte{{1, 2, 3, 4}, {5, 6, 7, 8}, {9, 10}}, chunks)
}
