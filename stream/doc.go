// Package stream carries packed I420 preview frames over RTP.
//
// An RTPSink prefixes each frame with a small header describing its
// geometry and presentation flags, then splits header and pixels into
// MTU-sized RTP packets using github.com/pion/rtp. All packets of a frame
// share one 90 kHz timestamp and the last one carries the marker bit.
//
//	conn, _ := net.Dial("udp", "127.0.0.1:5004")
//	sink, err := stream.NewRTPSink(conn, stream.DefaultSinkOptions())
//	...
//	handler := render.Fanout(render.Handler(r), sink.Handle)
//
// A Reassembler performs the reverse, tolerating reordering within a frame
// and discarding frames that lost packets.
package stream
