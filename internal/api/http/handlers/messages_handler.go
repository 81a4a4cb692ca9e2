package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campusmatch/internal/api/dto"
	"github.com/spec-kit/campusmatch/internal/auth"
	"github.com/spec-kit/campusmatch/internal/service"
	apperrors "github.com/spec-kit/campusmatch/pkg/util"
)

// MessagesHandler exposes the chat log over HTTP.
type MessagesHandler struct {
	chat *service.ChatService
}

// NewMessagesHandler constructs handler.
func NewMessagesHandler(chat *service.ChatService) *MessagesHandler {
	return &MessagesHandler{chat: chat}
}

// Send handles POST /messages.
func (h *MessagesHandler) Send(c *fiber.Ctx) error {
	caller, _ := auth.CallerFromFiber(c)

	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	msg, status, err := h.chat.Send(c.UserContext(), caller.UserID, req.Recipient, req.Payload)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": dto.SendMessageResponse{
			Message: dto.NewMessageResponse(*msg),
			Status:  string(status),
		},
	})
}

// History handles GET /messages/:peerId?limit=&before=.
func (h *MessagesHandler) History(c *fiber.Ctx) error {
	caller, _ := auth.CallerFromFiber(c)

	var before time.Time
	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return apperrors.NewValidationError("before must be RFC3339", map[string]any{"before": raw})
		}
		before = parsed
	}

	msgs, err := h.chat.History(c.UserContext(), caller.UserID, c.Params("peerId"), before, c.QueryInt("limit"))
	if err != nil {
		return err
	}

	out := make([]dto.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, dto.NewMessageResponse(m))
	}
	return c.JSON(fiber.Map{"data": out})
}
