package models

import (
	"time"
)

type Message struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Client-generated idempotency token. Replaying the same (sender, client_id)
	// must not produce a second row.
	ClientID string `gorm:"type:varchar(36);uniqueIndex:idx_client_sender;not null" json:"client_id"`

	SenderID uint `gorm:"not null;uniqueIndex:idx_client_sender;index" json:"sender_id"`
	Sender   User `gorm:"foreignKey:SenderID" json:"sender"`

	// Exactly one of RecipientID / CircleID is set.
	RecipientID *uint   `gorm:"index" json:"recipient_id"`
	CircleID    *uint   `gorm:"index" json:"circle_id"`
	Circle      *Circle `gorm:"foreignKey:CircleID" json:"circle,omitempty"`

	Content string `gorm:"type:text;not null" json:"content"`

	// Direct messages only; write-once null -> timestamp when the recipient
	// marks the chat read.
	ReadAt *time.Time `json:"read_at"`
}

// IsDirect reports whether the message is addressed to a single user.
func (m *Message) IsDirect() bool {
	return m.RecipientID != nil
}

// Chat returns the chat identity of the message from the viewer's perspective.
// For direct messages the chat id is the other participant's id.
func (m *Message) Chat(viewerID uint) ChatIdentity {
	if m.CircleID != nil {
		return CircleChat(*m.CircleID)
	}
	peer := m.SenderID
	if peer == viewerID && m.RecipientID != nil {
		peer = *m.RecipientID
	}
	return PrivateChat(peer)
}

type MessageResponse struct {
	ID          uint         `json:"id"`
	ClientID    string       `json:"client_id"`
	SenderID    uint         `json:"sender_id"`
	Sender      UserResponse `json:"sender"`
	RecipientID *uint        `json:"recipient_id"`
	CircleID    *uint        `json:"circle_id"`
	Content     string       `json:"content"`
	ReadAt      *time.Time   `json:"read_at"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (m *Message) ToResponse() MessageResponse {
	return MessageResponse{
		ID:          m.ID,
		ClientID:    m.ClientID,
		SenderID:    m.SenderID,
		Sender:      m.Sender.ToResponse(),
		RecipientID: m.RecipientID,
		CircleID:    m.CircleID,
		Content:     m.Content,
		ReadAt:      m.ReadAt,
		CreatedAt:   m.CreatedAt,
	}
}

// MessagePage is one page of chat history, oldest-first, suitable for
// concatenating in front of an already-loaded newer page.
type MessagePage struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
}
