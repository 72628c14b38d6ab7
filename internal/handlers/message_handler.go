package handlers

import (
	"errors"
	"strconv"

	"github.com/eventzx/messaging/internal/httpx"
	"github.com/eventzx/messaging/internal/models"
	"github.com/eventzx/messaging/internal/service"
	"github.com/eventzx/messaging/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// serviceError maps the service sentinels onto HTTP statuses; anything else
// is an internal error reported under fallbackCode.
func serviceError(c *fiber.Ctx, err error, fallbackCode string) error {
	switch {
	case errors.Is(err, service.ErrValidationFailed):
		return httpx.BadRequest(c, "validation_failed", err.Error())
	case errors.Is(err, service.ErrNotAuthorized):
		return httpx.Forbidden(c, "not_authorized", err.Error())
	case errors.Is(err, service.ErrNotFound):
		return httpx.NotFound(c, "not_found", err.Error())
	default:
		return httpx.Internal(c, fallbackCode)
	}
}

func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input service.SendMessageInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if input.RecipientID == nil || *input.RecipientID == 0 {
		return httpx.BadRequest(c, "missing_recipient", "recipient_id is required")
	}
	input.CircleID = nil

	message, err := h.messageService.Send(userID, input)
	if err != nil {
		return serviceError(c, err, "send_message_failed")
	}

	return c.Status(fiber.StatusCreated).JSON(message.ToResponse())
}

func (h *MessageHandler) SendCircleMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	circleID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || circleID == 0 {
		return httpx.BadRequest(c, "invalid_circle", "Invalid circle id")
	}

	var input service.SendMessageInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	cid := uint(circleID)
	input.CircleID = &cid
	input.RecipientID = nil

	message, err := h.messageService.Send(userID, input)
	if err != nil {
		return serviceError(c, err, "send_message_failed")
	}

	return c.Status(fiber.StatusCreated).JSON(message.ToResponse())
}

func (h *MessageHandler) GetMessages(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	peerIDStr := c.Query("peer_id")
	if peerIDStr == "" {
		return httpx.BadRequest(c, "missing_peer", "peer_id is required")
	}
	peerID, err := strconv.ParseUint(peerIDStr, 10, 32)
	if err != nil || peerID == 0 {
		return httpx.BadRequest(c, "invalid_peer", "Invalid peer_id")
	}

	return h.renderPage(c, userID, models.PrivateChat(uint(peerID)))
}

func (h *MessageHandler) GetCircleMessages(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	circleID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || circleID == 0 {
		return httpx.BadRequest(c, "invalid_circle", "Invalid circle id")
	}

	return h.renderPage(c, userID, models.CircleChat(uint(circleID)))
}

func (h *MessageHandler) renderPage(c *fiber.Ctx, userID uint, chat models.ChatIdentity) error {
	pageIndex := validation.ParsePage(c.Query("page"))
	pageSize := validation.ParsePageSize(c.Query("page_size"), service.DefaultPageSize)

	page, err := h.messageService.GetPage(userID, chat, pageIndex, pageSize)
	if err != nil {
		if errors.Is(err, service.ErrNotAuthorized) {
			return httpx.Forbidden(c, "not_authorized", err.Error())
		}
		return httpx.Internal(c, "fetch_messages_failed")
	}

	responses := make([]models.MessageResponse, len(page.Messages))
	for i, msg := range page.Messages {
		responses[i] = msg.ToResponse()
	}

	return c.JSON(fiber.Map{
		"messages": responses,
		"has_more": page.HasMore,
		"page":     pageIndex,
	})
}
