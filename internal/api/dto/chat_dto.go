package dto

import (
	"time"

	"github.com/spec-kit/campusmatch/internal/domain"
)

// SendMessageRequest payload for POST /messages.
type SendMessageRequest struct {
	Recipient string `json:"recipient"`
	Payload   string `json:"payload"`
}

// MessageResponse is one entry of the chat log.
type MessageResponse struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Payload   string    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessageResponse maps a domain message.
func NewMessageResponse(m domain.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		From:      m.SenderID,
		To:        m.RecipientID,
		Payload:   m.Body,
		CreatedAt: m.CreatedAt,
	}
}

// SendMessageResponse reports the stored message and its relay outcome.
type SendMessageResponse struct {
	Message MessageResponse `json:"message"`
	Status  string          `json:"status"`
}
