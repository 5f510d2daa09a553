package app

import "fmt"

// MalformedEventError is a schema violation in an incoming event. Terminal:
// the supervisor logs and acknowledges, redelivery cannot fix the payload.
type MalformedEventError struct {
	Topic string
	Err   error
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed %s event: %v", e.Topic, e.Err)
}

func (e *MalformedEventError) Unwrap() error { return e.Err }

// Terminal marks the error as non-retryable for the consumer supervisor.
func (e *MalformedEventError) Terminal() bool { return true }

// OrderingAnomalyError is an event that operates on a missing prerequisite
// record, e.g. a price update for a plan that was never created or was already
// deleted. The event has been parked before this error is returned; the
// supervisor acknowledges it.
type OrderingAnomalyError struct {
	Topic    string
	EntityID string
}

func (e *OrderingAnomalyError) Error() string {
	return fmt.Sprintf("ordering anomaly: %s for unknown entity %s (event parked)", e.Topic, e.EntityID)
}

func (e *OrderingAnomalyError) Terminal() bool { return true }
