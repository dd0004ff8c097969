package hydrate

// State is the hydration state of an Instance.
type State uint8

const (
	// StateDeferred: the trigger is armed and has not fired.
	StateDeferred State = iota
	// StateTriggered: the trigger fired; the load is about to start.
	StateTriggered
	// StateLoading: the loader is running, or failed.
	StateLoading
	// StateMounted: the loaded subtree is rendered.
	StateMounted
)

func (s State) String() string {
	switch s {
	case StateDeferred:
		return "deferred"
	case StateTriggered:
		return "triggered"
	case StateLoading:
		return "loading"
	case StateMounted:
		return "mounted"
	default:
		return "unknown"
	}
}
