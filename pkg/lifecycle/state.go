package lifecycle

// ReadinessState is the outcome of waiting for a container to become ready.
// Pending is the only non-terminal state.
type ReadinessState int

const (
	Pending ReadinessState = iota
	Ready
	TimedOut
	StreamEnded
)

func (s ReadinessState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case TimedOut:
		return "timed out"
	case StreamEnded:
		return "stream ended"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s ReadinessState) Terminal() bool {
	return s != Pending
}
