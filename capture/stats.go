package capture

import "sync/atomic"

// Stats holds pipeline counters. They are updated from the pipeline
// goroutines and may be read at any time.
type Stats struct {
	received      atomic.Uint64 // images pulled from the source
	dropped       atomic.Uint64 // images released unpacked (queue overflow, superseded, shutdown)
	packed        atomic.Uint64 // images packed and delivered to the handler
	truncated     atomic.Uint64 // images whose plane buffers were too short
	malformed     atomic.Uint64 // images with invalid geometry
	handlerErrors atomic.Uint64 // handler calls that returned an error
	sourceErrors  atomic.Uint64 // source reads that failed
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Received      uint64
	Dropped       uint64
	Packed        uint64
	Truncated     uint64
	Malformed     uint64
	HandlerErrors uint64
	SourceErrors  uint64
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Received:      s.received.Load(),
		Dropped:       s.dropped.Load(),
		Packed:        s.packed.Load(),
		Truncated:     s.truncated.Load(),
		Malformed:     s.malformed.Load(),
		HandlerErrors: s.handlerErrors.Load(),
		SourceErrors:  s.sourceErrors.Load(),
	}
}

// Reset zeroes every counter. Counts in flight during a Reset may be
// split across both sides of it.
func (s *Stats) Reset() {
	s.received.Store(0)
	s.dropped.Store(0)
	s.packed.Store(0)
	s.truncated.Store(0)
	s.malformed.Store(0)
	s.handlerErrors.Store(0)
	s.sourceErrors.Store(0)
}

// Settled reports whether every received image has been accounted for.
func (s StatsSnapshot) Settled() bool {
	return s.Received == s.Dropped+s.Packed+s.Truncated+s.Malformed
}

func (s *Stats) addDropped(n int) {
	if n > 0 {
		s.dropped.Add(uint64(n))
	}
}
