package handlers

import (
	"strconv"

	"github.com/eventzx/messaging/internal/httpx"
	"github.com/eventzx/messaging/internal/models"
	"github.com/eventzx/messaging/internal/service"
	"github.com/gofiber/fiber/v2"
)

type ConversationHandler struct {
	conversationService *service.ConversationService
	readStateService    *service.ReadStateService
}

func NewConversationHandler(conversationService *service.ConversationService, readStateService *service.ReadStateService) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
		readStateService:    readStateService,
	}
}

func (h *ConversationHandler) GetConversations(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	conversations, err := h.conversationService.List(userID)
	if err != nil {
		return httpx.Internal(c, "fetch_conversations_failed")
	}

	return c.JSON(fiber.Map{
		"conversations": conversations,
		"count":         len(conversations),
	})
}

func (h *ConversationHandler) MarkConversationRead(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	peerID, err := strconv.ParseUint(c.Params("peer_id"), 10, 32)
	if err != nil || peerID == 0 {
		return httpx.BadRequest(c, "invalid_peer", "Invalid peer id")
	}

	if err := h.readStateService.MarkRead(userID, models.PrivateChat(uint(peerID))); err != nil {
		return serviceError(c, err, "mark_read_failed")
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *ConversationHandler) MarkCircleRead(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	circleID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || circleID == 0 {
		return httpx.BadRequest(c, "invalid_circle", "Invalid circle id")
	}

	if err := h.readStateService.MarkRead(userID, models.CircleChat(uint(circleID))); err != nil {
		return serviceError(c, err, "mark_read_failed")
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *ConversationHandler) GetTotalUnread(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	total, err := h.readStateService.TotalUnread(userID)
	if err != nil {
		return httpx.Internal(c, "fetch_unread_failed")
	}

	states, err := h.readStateService.UnreadByChat(userID)
	if err != nil {
		return httpx.Internal(c, "fetch_unread_failed")
	}

	chats := make([]fiber.Map, 0, len(states))
	for _, state := range states {
		chats = append(chats, fiber.Map{
			"chat":         state.Chat(),
			"unread_count": state.UnreadCount,
		})
	}

	return c.JSON(fiber.Map{
		"total_unread": total,
		"chats":        chats,
	})
}
