package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/campusmatch/internal/events"
)

// NotificationService reacts to domain events with out-of-band notifications.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	push       PushSender
}

// PushSender delivers a mobile push notification. The production sender is
// owned by the mobile gateway; the default only logs.
type PushSender interface {
	SendPush(ctx context.Context, userID, title, body string) error
}

type logPushSender struct {
	logger *zap.Logger
}

func (l logPushSender) SendPush(_ context.Context, userID, title, _ string) error {
	l.logger.Debug("push notification", zap.String("user_id", userID), zap.String("title", title))
	return nil
}

// NewNotificationService creates the service. push may be nil.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, push PushSender) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if push == nil {
		push = logPushSender{logger: logger}
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		push:       push,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventMessageDropped, n.handleMessageDropped)
}

// handleUserRegistered records new sign-ups awaiting moderator approval.
func (n *NotificationService) handleUserRegistered(_ context.Context, event events.Event) error {
	n.logger.Info("UserRegistered", zap.String("user_id", event.ActorID))
	return nil
}

// handleMessageDropped pushes to recipients that were offline when a message arrived.
func (n *NotificationService) handleMessageDropped(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MessagePayload)
	if !ok {
		return nil
	}
	return n.push.SendPush(ctx, payload.RecipientID, "New message", payload.BodyPreview)
}
