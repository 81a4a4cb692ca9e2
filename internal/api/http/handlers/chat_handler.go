package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/campusmatch/internal/auth"
	"github.com/spec-kit/campusmatch/internal/relay"
	"github.com/spec-kit/campusmatch/internal/service"
	apperrors "github.com/spec-kit/campusmatch/pkg/util"
)

const socketSendTimeout = 5 * time.Second

// ChatHandler upgrades authenticated requests to chat sockets.
type ChatHandler struct {
	chat   *service.ChatService
	relay  *relay.Relay
	cfg    relay.ClientConfig
	logger *zap.Logger
}

// NewChatHandler constructs handler.
func NewChatHandler(chat *service.ChatService, r *relay.Relay, cfg relay.ClientConfig, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{chat: chat, relay: r, cfg: cfg, logger: logger}
}

// RequireUpgrade rejects plain HTTP requests on socket routes.
func (h *ChatHandler) RequireUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// Upgrade returns the GET /ws/chat handler. It must run after the auth middleware.
func (h *ChatHandler) Upgrade() fiber.Handler {
	return websocket.New(h.serve)
}

func (h *ChatHandler) serve(conn *websocket.Conn) {
	caller, ok := conn.Locals(auth.CallerLocalsKey).(*auth.Caller)
	if !ok || caller == nil {
		_ = conn.WriteMessage(websocket.TextMessage, relay.EncodeError(apperrors.CodeIdentityMissing, "missing token"))
		_ = conn.Close()
		return
	}

	client := relay.NewClient(caller.UserID, conn, h.cfg, h.logger)
	h.relay.Attach(caller.UserID, client)
	defer h.relay.Detach(caller.UserID, client)

	client.Serve(func(data []byte) {
		h.handleFrame(client, caller, data)
	})
}

func (h *ChatHandler) handleFrame(client *relay.Client, caller *auth.Caller, data []byte) {
	var in relay.InboundFrame
	if err := json.Unmarshal(data, &in); err != nil {
		h.reply(client, relay.EncodeError(apperrors.CodeValidationFailed, "malformed frame"))
		return
	}
	if in.Type != relay.FrameMessage {
		h.reply(client, relay.EncodeError(apperrors.CodeValidationFailed, "unsupported frame type"))
		return
	}

	ctx, cancel := context.WithTimeout(auth.WithCaller(context.Background(), caller), socketSendTimeout)
	defer cancel()

	msg, status, err := h.chat.Send(ctx, caller.UserID, in.Recipient, in.Payload)
	if err != nil {
		de := apperrors.ToDomainError(err)
		if de.HTTPStatus >= fiber.StatusInternalServerError {
			h.logger.Error("socket send failed", zap.String("user_id", caller.UserID), zap.Error(err))
		}
		h.reply(client, relay.EncodeError(de.Code, de.Message))
		return
	}
	h.reply(client, relay.EncodeDelivery(msg.ID, msg.RecipientID, status))
}

func (h *ChatHandler) reply(client *relay.Client, frame []byte) {
	if err := client.Send(frame); err != nil {
		h.logger.Debug("socket reply dropped", zap.String("user_id", client.UserID()), zap.Error(err))
	}
}
