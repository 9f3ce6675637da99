package orders

import "fmt"

// Status is the closed set of lifecycle states an order moves through.
// Received is the initial state, Done is terminal.
type Status int

const (
	StatusReceived Status = iota
	StatusCooking
	StatusDone
)

// String returns the wire/storage representation of the status.
func (s Status) String() string {
	switch s {
	case StatusReceived:
		return "received"
	case StatusCooking:
		return "cooking"
	case StatusDone:
		return "done"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParseStatus converts a stored status string back to a Status.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "received":
		return StatusReceived, nil
	case "cooking":
		return StatusCooking, nil
	case "done":
		return StatusDone, nil
	default:
		return 0, fmt.Errorf("unknown order status %q", s)
	}
}

// Allowed state transitions in the order lifecycle.
var allowed = map[Status]map[Status]bool{
	StatusReceived: {StatusCooking: true},
	StatusCooking:  {StatusDone: true},
	StatusDone:     {},
}

// CanTransition checks if from->to is allowed.
func CanTransition(from, to Status) bool {
	nexts := allowed[from]
	return nexts != nil && nexts[to]
}

// CanStartCooking reports whether the cooking transition is available.
func (s Status) CanStartCooking() bool { return s == StatusReceived }

// CanFinish reports whether the order can be finished.
func (s Status) CanFinish() bool { return s == StatusCooking }

// IsTerminal reports whether no further transition exists.
func (s Status) IsTerminal() bool { return s == StatusDone }

// InvalidTransitionError reports a lifecycle guard failure. It carries the
// current and the attempted state so callers can surface both.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: order is %q and cannot move to %q", e.From, e.To)
}

// Transition validates a from->to move, returning *InvalidTransitionError when
// the lifecycle does not allow it.
func Transition(from, to Status) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}
