package objectspace

// Agent is a thin pass-through over a Space: it exists so a goroutine that
// owns a long-running loop over a Space can be handed around as one value,
// the way agent.rs wraps an ObjectSpace for a goroutine/thread to share.
// It adds no behavior of its own beyond Start; every read/write/take call
// goes through the generic Space functions against the embedded *Space.
type Agent struct {
	*Space
}

// NewAgent wraps an existing Space. Space may be shared by multiple
// Agents, and typically is.
func NewAgent(s *Space) *Agent {
	return &Agent{Space: s}
}

// Start runs f in its own goroutine. It does not wait for f to finish and
// does not recover panics; f runs against the Agent's Space like any other
// caller.
func (a *Agent) Start(f func()) {
	go f()
}
