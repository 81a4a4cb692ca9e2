package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventMessageSent    EventType = "message_sent"
	// EventMessageDropped fires when the recipient had no live connection.
	EventMessageDropped EventType = "message_dropped"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	UserID  string `json:"user_id"`
	College string `json:"college,omitempty"`
}

// MessagePayload describes a chat message outcome.
type MessagePayload struct {
	MessageID   string `json:"message_id"`
	RecipientID string `json:"recipient_id"`
	Status      string `json:"status"`
	BodyPreview string `json:"body_preview"`
}
