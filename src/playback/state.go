package playback

type State string

const (
	StateStopped  State = "stopped"
	StatePlaying  State = "playing"
	StatePaused   State = "paused"
	StateStepping State = "stepping"
	StateSeeking  State = "seeking"
)

func (s State) String() string {
	return string(s)
}

// StateChange is published to state observers on every transition.
type StateChange struct {
	From State
	To   State
}
