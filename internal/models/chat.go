package models

import (
	"fmt"
	"time"
)

type ChatType string

const (
	ChatTypePrivate ChatType = "private"
	ChatTypeCircle  ChatType = "circle"
)

// ChatIdentity identifies a conversation. For private chats the ID is the
// *other* participant's user id from the viewer's perspective, so the same
// underlying conversation has a different identity depending on who is asking.
type ChatIdentity struct {
	Type ChatType `json:"type"`
	ID   uint     `json:"id"`
}

func PrivateChat(peerID uint) ChatIdentity {
	return ChatIdentity{Type: ChatTypePrivate, ID: peerID}
}

func CircleChat(circleID uint) ChatIdentity {
	return ChatIdentity{Type: ChatTypeCircle, ID: circleID}
}

func (c ChatIdentity) IsCircle() bool {
	return c.Type == ChatTypeCircle
}

// TopicKey returns the viewer-independent key used for realtime routing.
// Private chats are normalized to the canonical participant pair so both sides
// of a conversation subscribe to the same topic.
func (c ChatIdentity) TopicKey(viewerID uint) string {
	if c.Type == ChatTypeCircle {
		return fmt.Sprintf("circle:%d", c.ID)
	}
	a, b := viewerID, c.ID
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("private:%d:%d", a, b)
}

// ChatReadState is the per-(user, chat) unread cursor. The read-state tracker
// is the only writer of UnreadCount.
type ChatReadState struct {
	UserID        uint      `gorm:"primaryKey" json:"user_id"`
	ChatID        uint      `gorm:"primaryKey" json:"chat_id"`
	ChatType      ChatType  `gorm:"primaryKey;type:varchar(10)" json:"chat_type"`
	UnreadCount   int64     `gorm:"not null;default:0" json:"unread_count"`
	LastReadAt    time.Time `json:"last_read_at"`
	LastMessageAt time.Time `json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (s *ChatReadState) Chat() ChatIdentity {
	return ChatIdentity{Type: s.ChatType, ID: s.ChatID}
}

// Conversation is one row of the aggregated conversation list. It is derived
// from the message log and read states and never persisted.
type Conversation struct {
	Chat            ChatIdentity     `json:"chat"`
	Name            string           `json:"name"`
	Avatar          string           `json:"avatar"`
	LastMessage     *MessageResponse `json:"last_message"`
	LastMessageTime time.Time        `json:"last_message_time"`
	UnreadCount     int64            `json:"unread_count"`
	IsCircle        bool             `json:"is_circle"`
	MemberCount     int64            `json:"member_count,omitempty"`
}
