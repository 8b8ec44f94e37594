package workflow

// State represents a stage in the fund request approval lifecycle.
type State string

const (
	// StatePending is the state every submitted fund request starts in.
	StatePending State = "PENDING"
	// StateApproved is reached when a reviewer confirms approval.
	StateApproved State = "APPROVED"
	// StateRejected is reached when a reviewer rejects the request.
	StateRejected State = "REJECTED"
	// StatePaid is set by the external payment process; no trigger in this
	// system reaches it, but fetched records may already carry it.
	StatePaid State = "PAID"
)

var validStates = map[State]bool{
	StatePending:  true,
	StateApproved: true,
	StateRejected: true,
	StatePaid:     true,
}

var terminalStates = map[State]bool{
	StateApproved: true,
	StateRejected: true,
	StatePaid:     true,
}

// IsTerminal returns true if no further transitions are allowed from the state.
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a known lifecycle state.
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}
