package store

import "printq/internal/request"

// EventKind distinguishes the mutation that produced an event.
type EventKind string

const (
	EventCreated       EventKind = "created"
	EventStatusChanged EventKind = "status_changed"
	EventArchived      EventKind = "archived"
)

// Event describes a committed mutation, addressed to the submitting user.
// Status-change and archival events are only emitted for requests whose
// requester has a deliverable address.
type Event struct {
	Kind      EventKind
	RequestID string
	NewStatus request.Status
	Recipient string
	Title     string
}

const eventBufferSize = 64

// Events returns the channel transitions and archivals are published on.
// The channel is buffered; when no consumer keeps up, events are dropped
// rather than blocking a store mutation.
func (s *Store) Events() <-chan Event {
	return s.events
}

// emit publishes an event without ever blocking the calling mutation.
func (s *Store) emit(event Event) {
	select {
	case s.events <- event:
	default:
		s.droppedEvents.Add(1)
		s.logger.Warn("notification event dropped; consumer not keeping up",
			"request_id", event.RequestID,
			"kind", string(event.Kind),
		)
	}
}

// DroppedEvents reports how many events were discarded because the event
// buffer was full.
func (s *Store) DroppedEvents() uint64 {
	return s.droppedEvents.Load()
}
