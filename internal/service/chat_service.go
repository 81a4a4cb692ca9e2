package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/campusmatch/internal/domain"
	"github.com/spec-kit/campusmatch/internal/events"
	"github.com/spec-kit/campusmatch/internal/relay"
	"github.com/spec-kit/campusmatch/internal/repository"
	apperrors "github.com/spec-kit/campusmatch/pkg/util"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
	previewLength       = 64
)

// Deliverer forwards envelopes to live connections.
type Deliverer interface {
	Deliver(ctx context.Context, env domain.Envelope) (relay.DeliveryStatus, error)
}

// ChatService sends and lists messages between matched members.
type ChatService struct {
	matches    repository.MatchRepository
	messages   repository.MessageRepository
	relay      Deliverer
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// ChatDependencies bundles collaborators for the chat service.
type ChatDependencies struct {
	MatchRepo   repository.MatchRepository
	MessageRepo repository.MessageRepository
	Relay       Deliverer
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewChatService constructs the service.
func NewChatService(deps ChatDependencies) *ChatService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		matches:    deps.MatchRepo,
		messages:   deps.MessageRepo,
		relay:      deps.Relay,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Send stores the message in the durable log, then relays it best-effort.
// The returned status tells the sender whether the recipient was reachable.
func (s *ChatService) Send(ctx context.Context, senderID, recipientID, body string) (*domain.Message, relay.DeliveryStatus, error) {
	recipientID = strings.TrimSpace(recipientID)
	if err := validateMessage(senderID, recipientID, body); err != nil {
		return nil, "", err
	}
	if err := s.requireMatch(ctx, senderID, recipientID); err != nil {
		return nil, "", err
	}

	msg := &domain.Message{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}

	status, err := s.relay.Deliver(ctx, domain.Envelope{
		MessageID: msg.ID,
		From:      msg.SenderID,
		Recipient: msg.RecipientID,
		Payload:   msg.Body,
		SentAt:    msg.CreatedAt,
	})
	if err != nil {
		s.logger.Warn("relay delivery failed", zap.String("message_id", msg.ID), zap.Error(err))
		status = relay.StatusDropped
	}

	eventType := events.EventMessageSent
	if status == relay.StatusDropped {
		eventType = events.EventMessageDropped
	}
	s.publish(ctx, events.Event{
		Type:    eventType,
		ActorID: senderID,
		Payload: events.MessagePayload{
			MessageID:   msg.ID,
			RecipientID: recipientID,
			Status:      string(status),
			BodyPreview: preview(body),
		},
	})

	return msg, status, nil
}

// History lists the conversation between callerID and peerID, newest first.
func (s *ChatService) History(ctx context.Context, callerID, peerID string, before time.Time, limit int) ([]domain.Message, error) {
	if strings.TrimSpace(peerID) == "" || peerID == callerID {
		return nil, apperrors.NewValidationError("valid peer required", nil)
	}
	if err := s.requireMatch(ctx, callerID, peerID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if before.IsZero() {
		before = s.now().UTC().Add(time.Second)
	}

	msgs, err := s.messages.ListConversation(ctx, callerID, peerID, before, limit)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return msgs, nil
}

// AreMatched reports whether two members matched.
func (s *ChatService) AreMatched(ctx context.Context, userA, userB string) (bool, error) {
	matched, err := s.matches.AreMatched(ctx, userA, userB)
	if err != nil {
		return false, apperrors.NewInternalError(err)
	}
	return matched, nil
}

func (s *ChatService) requireMatch(ctx context.Context, a, b string) error {
	matched, err := s.AreMatched(ctx, a, b)
	if err != nil {
		return err
	}
	if !matched {
		return apperrors.NewForbidden("not matched")
	}
	return nil
}

func validateMessage(senderID, recipientID, body string) error {
	details := map[string]any{}
	if recipientID == "" {
		details["recipient"] = "required"
	} else if recipientID == senderID {
		details["recipient"] = "cannot message yourself"
	}
	if strings.TrimSpace(body) == "" {
		details["payload"] = "required"
	} else if utf8.RuneCountInString(body) > domain.MaxMessageBodyLength {
		details["payload"] = "too long"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid message", details)
	}
	return nil
}

func preview(body string) string {
	runes := []rune(body)
	if len(runes) <= previewLength {
		return body
	}
	return string(runes[:previewLength]) + "..."
}

func (s *ChatService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
