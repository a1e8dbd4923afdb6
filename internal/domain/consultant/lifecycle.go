package consultant

import (
	appErrors "consultant-access/pkg/errors"
)

// State machine for consultant status transitions
var validTransitions = map[Status][]Status{
	StatusPending: {
		StatusActive,
		StatusRejected,
	},
	StatusActive: {
		StatusSuspended,
	},
	StatusSuspended: {
		StatusActive,
	},
	StatusRejected: {
		// Terminal state - no transitions
	},
}

// CanTransition reports whether the graph has an edge from -> to
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// GetAllowedTransitions returns allowed next statuses
func GetAllowedTransitions(current Status) []Status {
	return validTransitions[current]
}

// Transition is an admin lifecycle action
type Transition string

const (
	TransitionApprove    Transition = "approve"
	TransitionReject     Transition = "reject"
	TransitionSuspend    Transition = "suspend"
	TransitionReactivate Transition = "reactivate"
)

type edge struct {
	From Status
	To   Status
}

var transitionEdges = map[Transition]edge{
	TransitionApprove:    {From: StatusPending, To: StatusActive},
	TransitionReject:     {From: StatusPending, To: StatusRejected},
	TransitionSuspend:    {From: StatusActive, To: StatusSuspended},
	TransitionReactivate: {From: StatusSuspended, To: StatusActive},
}

// Edge returns the single from/to pair an action is allowed to take.
func (t Transition) Edge() (from, to Status) {
	e := transitionEdges[t]
	return e.From, e.To
}

// ValidateTransition checks an action against the current status and
// returns the caller facing error when the move is not allowed.
func ValidateTransition(t Transition, current Status) error {
	from, to := t.Edge()
	if current == from && CanTransition(from, to) {
		return nil
	}

	switch t {
	case TransitionApprove, TransitionReject:
		switch current {
		case StatusActive, StatusSuspended:
			return appErrors.ErrAlreadyApproved
		case StatusRejected:
			return appErrors.ErrAlreadyRejected
		}
	}

	return appErrors.InvalidTransition(string(current), string(to))
}
