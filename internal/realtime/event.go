package realtime

import (
	"fmt"

	"github.com/eventzx/messaging/internal/models"
)

type EventType string

const (
	// EventMessageCreated carries a newly inserted message.
	EventMessageCreated EventType = "message.created"
	// EventChatRead signals that a user reset their unread cursor for a chat.
	EventChatRead EventType = "chat.read"
	// EventTotalUnread carries a user's recomputed total unread count.
	EventTotalUnread EventType = "unread.total"
)

// Event is the broker's wire unit. Delivery is at-least-once and unordered;
// consumers must deduplicate messages by id and order by created_at.
type Event struct {
	Type    EventType               `json:"type"`
	Chat    models.ChatIdentity     `json:"chat,omitempty"`
	Message *models.MessageResponse `json:"message,omitempty"`
	UserID  uint                    `json:"user_id,omitempty"`
	Total   int64                   `json:"total,omitempty"`
}

// UserTopic is the per-user delivery topic every connected device of a user
// listens on.
func UserTopic(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}
