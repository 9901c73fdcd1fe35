package producer

// State is the lifecycle state of a Producer.
type State int

const (
	// StateIdle means the producer is alive but not emitting tasks.
	StateIdle State = iota
	// StateRunning means the producer emits one task per interval.
	StateRunning
	// StateTerminating means shutdown was requested and the loop is exiting.
	StateTerminating
	// StateStopped means the loop has exited. It is terminal.
	StateStopped
)

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateTerminating:
		return "terminating"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Valid returns true if the state is a known value.
func (s State) Valid() bool {
	switch s {
	case StateIdle, StateRunning, StateTerminating, StateStopped:
		return true
	default:
		return false
	}
}

// EventKind identifies what an Event carries.
type EventKind int

const (
	// EventTask carries a freshly produced task.
	EventTask EventKind = iota
	// EventState acknowledges that the loop has observed a state change.
	EventState
)
