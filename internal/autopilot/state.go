package autopilot

type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StopReason says which branch ended a Running phase.
type StopReason int

const (
	StopCancelled StopReason = iota
	StopTargetReached
	StopFailed
)

func (r StopReason) String() string {
	switch r {
	case StopTargetReached:
		return "target_reached"
	case StopFailed:
		return "failed"
	default:
		return "cancelled"
	}
}

// Progress is a snapshot of the counters of the current Running phase.
// Total adds the configured baseline to Answered.
type Progress struct {
	Answered int
	Correct  int
	Total    int
}
