package domain

import "time"

// MaxMessageBodyLength bounds a single chat message.
const MaxMessageBodyLength = 4000

// Message is the durable record of a chat message between two matched users.
type Message struct {
	ID          string
	SenderID    string
	RecipientID string
	Body        string
	CreatedAt   time.Time
}

// Envelope is a chat event addressed to a single recipient.
type Envelope struct {
	MessageID string    `json:"id"`
	From      string    `json:"from"`
	Recipient string    `json:"recipient"`
	Payload   string    `json:"payload"`
	SentAt    time.Time `json:"sent_at"`
}
