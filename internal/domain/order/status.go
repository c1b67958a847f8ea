package order

import (
	"fmt"
	"slices"

	"github.com/go-faster/errors"
)

// Status is the lifecycle state of an order.
type Status string

// Recognized order statuses.
const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusPreparing Status = "preparing"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every recognized status in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusPaid,
	StatusPreparing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// transitions is the forward-only lifecycle. Delivered and cancelled are
// terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
}

// ErrInvalidTransition is matched by every *TransitionError.
var ErrInvalidTransition = errors.New("invalid status transition")

// InvalidStatusError indicates a value outside the recognized statuses.
type InvalidStatusError struct {
	Value string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid order status %q", e.Value)
}

// TransitionError indicates a status change the lifecycle does not allow.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// ParseStatus validates s as a recognized status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", &InvalidStatusError{Value: s}
	}
	return st, nil
}

// Valid reports whether s is a recognized status.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// CanTransition reports whether an order in s may move to to. Staying in
// the same status is allowed so that retried updates are harmless.
func (s Status) CanTransition(to Status) bool {
	if s == to {
		return s.Valid()
	}
	return slices.Contains(transitions[s], to)
}

// Sources returns every status from which to can be reached, including to
// itself.
func Sources(to Status) []Status {
	out := []Status{to}
	for _, from := range Statuses {
		if from != to && from.CanTransition(to) {
			out = append(out, from)
		}
	}
	return out
}
