package hub

import "sync/atomic"

// ReadyState is a connection's readiness as observed by the relay.
type ReadyState int32

const (
	StateConnecting ReadyState = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s ReadyState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// readyState enforces connecting -> open -> closing -> closed. Any state may
// jump forward; nothing leaves closed.
type readyState struct {
	v atomic.Int32
}

func (s *readyState) load() ReadyState {
	return ReadyState(s.v.Load())
}

// advance moves to next if next is later than the current state and reports
// whether it did.
func (s *readyState) advance(next ReadyState) bool {
	for {
		cur := s.v.Load()
		if ReadyState(cur) >= next {
			return false
		}
		if s.v.CompareAndSwap(cur, int32(next)) {
			return true
		}
	}
}
