package relay

import (
	"encoding/json"
	"time"

	"github.com/spec-kit/campusmatch/internal/domain"
)

// Frame types exchanged over the chat socket.
const (
	FrameMessage  = "message"
	FrameDelivery = "delivery"
	FrameError    = "error"
)

// InboundFrame is what clients send.
type InboundFrame struct {
	Type      string `json:"type"`
	Recipient string `json:"recipient"`
	Payload   string `json:"payload"`
}

// MessageFrame carries a chat message to its recipient.
type MessageFrame struct {
	Type    string    `json:"type"`
	ID      string    `json:"id"`
	From    string    `json:"from"`
	Payload string    `json:"payload"`
	SentAt  time.Time `json:"sent_at"`
}

// DeliveryFrame acknowledges a send to its sender.
type DeliveryFrame struct {
	Type      string         `json:"type"`
	ID        string         `json:"id"`
	Recipient string         `json:"recipient"`
	Status    DeliveryStatus `json:"status"`
}

// ErrorFrame reports a rejected inbound frame.
type ErrorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func encodeMessage(env domain.Envelope) ([]byte, error) {
	return json.Marshal(MessageFrame{
		Type:    FrameMessage,
		ID:      env.MessageID,
		From:    env.From,
		Payload: env.Payload,
		SentAt:  env.SentAt,
	})
}

// EncodeDelivery builds a delivery acknowledgement frame.
func EncodeDelivery(messageID, recipient string, status DeliveryStatus) []byte {
	b, _ := json.Marshal(DeliveryFrame{Type: FrameDelivery, ID: messageID, Recipient: recipient, Status: status})
	return b
}

// EncodeError builds an error frame.
func EncodeError(code, message string) []byte {
	b, _ := json.Marshal(ErrorFrame{Type: FrameError, Code: code, Message: message})
	return b
}
