// Package queue defines message payloads exchanged over the message broker.
package queue

// LocationEventsQueue is the durable queue carrying location lifecycle
// events. The publisher and the consumer both declare it, so whichever
// side starts first creates it.
const LocationEventsQueue = "location.events"

// Actions carried by LocationEvent. The value doubles as the audit verb
// written by the consumer.
const (
	ActionLocationCreated = "location.created"
	ActionLocationUpdated = "location.updated"
	ActionLocationDeleted = "location.deleted"
)

// LocationEvent is published after a location mutation commits. It
// contains enough information for downstream consumers to audit, notify
// or reindex without querying the primary database. EventID is a v4
// UUID assigned by the publisher so consumers can deduplicate
// redelivered messages.
type LocationEvent struct {
	EventID    string  `json:"event_id"`
	Action     string  `json:"action"`
	LocationID uint64  `json:"location_id"`
	Name       string  `json:"name"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	CategoryID *uint64 `json:"category_id,omitempty"`
	ActorID    uint64  `json:"actor_id"`
	OccurredAt string  `json:"occurred_at"`
}
