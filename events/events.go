// Package events defines the domain event contract and the in-process
// dispatcher used by the unit of work. Events describe committed state
// changes; they are dispatched after the persistence commit, never
// during it.
package events

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact about a committed state change.
type DomainEvent interface {
	// EventID returns a unique identifier for this event instance.
	EventID() string

	// EventType returns the event name, e.g. "product.created".
	EventType() string

	// AggregateID returns the identity of the aggregate that raised
	// the event.
	AggregateID() string

	// OccurredAt returns when the event was raised, in UTC.
	OccurredAt() time.Time
}

// Recorder is implemented by aggregates that collect domain events
// between mutations and a SaveChanges commit.
type Recorder interface {
	PendingEvents() []DomainEvent
	ClearPendingEvents()
}

// BaseEvent carries the fields every domain event shares. Embed it and
// implement EventType on the concrete event.
type BaseEvent struct {
	ID          string    `json:"event_id"`
	Aggregate   string    `json:"aggregate_id"`
	RaisedAtUTC time.Time `json:"occurred_at"`
}

// NewBaseEvent stamps a fresh event envelope for the given aggregate.
func NewBaseEvent(aggregateID string) BaseEvent {
	return BaseEvent{
		ID:          uuid.New().String(),
		Aggregate:   aggregateID,
		RaisedAtUTC: time.Now().UTC(),
	}
}

// EventID returns the unique event identifier.
func (e BaseEvent) EventID() string { return e.ID }

// AggregateID returns the owning aggregate identity.
func (e BaseEvent) AggregateID() string { return e.Aggregate }

// OccurredAt returns the event timestamp.
func (e BaseEvent) OccurredAt() time.Time { return e.RaisedAtUTC }
