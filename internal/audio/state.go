package audio

// State is the lifecycle state of a Session
type State int

const (
	StateIdle State = iota
	StateRecording
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// transitions lists the states reachable from each state through Start,
// Pause, Resume and Stop. Clear resets any state to idle and is not listed.
var transitions = map[State][]State{
	StateIdle:      {StateRecording},
	StateRecording: {StatePaused, StateStopped},
	StatePaused:    {StateRecording, StateStopped},
	StateStopped:   {},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
