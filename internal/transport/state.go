package transport

import "sync/atomic"

// State is the phase a connection is in.
type State int32

const (
	NotConnected State = iota
	Connecting
	Handshaking
	Idle
	Sending
	Receiving
	ShuttingDown
)

func (s State) String() string {
	switch s {
	case NotConnected:
		return "not_connected"
	case Connecting:
		return "connecting"
	case Handshaking:
		return "handshake"
	case Idle:
		return "idle"
	case Sending:
		return "send"
	case Receiving:
		return "receive"
	case ShuttingDown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// stateMachine is the lock-free gate deciding whether an operation is
// legal right now.  It never guards the socket handle itself.
type stateMachine struct {
	v atomic.Int32
}

func (m *stateMachine) load() State { return State(m.v.Load()) }

func (m *stateMachine) store(s State) { m.v.Store(int32(s)) }

func (m *stateMachine) swap(s State) State { return State(m.v.Swap(int32(s))) }

// transition moves from -> to and reports whether the current state was
// from.
func (m *stateMachine) transition(from, to State) bool {
	return m.v.CompareAndSwap(int32(from), int32(to))
}
