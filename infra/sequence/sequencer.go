// Package sequence issues the monotonic event ids stamped on every
// outbound record: order events, trades, deltas and snapshots.
package sequence

import "sync/atomic"

// Sequencer generates strictly monotonic event IDs.
type Sequencer struct {
	next atomic.Uint64
}

// New creates a sequencer starting after the given value.
// On fresh start → start = 0
// On recovery → start = last persisted event id
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next event ID.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current returns the last issued event ID.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}
