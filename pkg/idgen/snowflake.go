package idgen

import (
	"errors"
	"sync"

	"github.com/spaolacci/murmur3"
)

// Layout of a 63-bit id: 41 bits of milliseconds since Epoch, 10 bits of node
// id, 12 bits of per-millisecond sequence.
const (
	nodeBits     = 10
	sequenceBits = 12

	maxNodeID   = 1<<nodeBits - 1
	maxSequence = 1<<sequenceBits - 1

	nodeShift      = sequenceBits
	timestampShift = sequenceBits + nodeBits

	// Epoch is 2024-01-01 00:00:00 UTC in milliseconds.
	Epoch = 1704067200000
)

var (
	ErrNodeIDTooLarge = errors.New("node ID too large")
	ErrClockMovedBack = errors.New("clock moved backwards")
)

// NodeIDFromHostname derives a stable node id so agents need no id assignment.
func NodeIDFromHostname(hostname string) int64 {
	return int64(murmur3.Sum64([]byte(hostname)) % (maxNodeID + 1))
}

// Snowflake hands out unique, time-ordered iteration ids.
type Snowflake struct {
	mu       sync.Mutex
	clock    Clock
	nodeID   int64
	lastTime int64
	sequence int64
}

// New creates a generator for nodeID. A nil clock uses the system clock.
func New(nodeID int64, clock Clock) (*Snowflake, error) {
	if nodeID < 0 || nodeID > maxNodeID {
		return nil, ErrNodeIDTooLarge
	}
	if clock == nil {
		clock = &SystemClock{}
	}
	return &Snowflake{clock: clock, nodeID: nodeID, lastTime: -1}, nil
}

// Next returns the next id.
func (s *Snowflake) Next() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	switch {
	case now < s.lastTime:
		return 0, ErrClockMovedBack
	case now == s.lastTime:
		s.sequence = (s.sequence + 1) & maxSequence
		if s.sequence == 0 {
			for now <= s.lastTime {
				now = s.clock.Now()
			}
		}
	default:
		s.sequence = 0
	}
	s.lastTime = now

	return (now-Epoch)<<timestampShift | s.nodeID<<nodeShift | s.sequence, nil
}
