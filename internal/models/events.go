package models

import "time"

// EventType names a committed domain event.
type EventType string

const (
	EventInvestmentCreated EventType = "investment.created"
	EventInvestmentUpdated EventType = "investment.updated"
	EventInvestmentDeleted EventType = "investment.deleted"
	EventReviewCreated     EventType = "review.created"
	EventReviewUpdated     EventType = "review.updated"
	EventReviewDeleted     EventType = "review.deleted"
	EventPropertyViewed    EventType = "property.viewed"
	EventPropertyDeleted   EventType = "property.deleted"
)

// DomainEvent is published to collaborators after its unit of work commits.
type DomainEvent struct {
	Type       EventType   `json:"type"`
	PropertyID string      `json:"property_id"`
	EntityID   string      `json:"entity_id,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload,omitempty"`
}
