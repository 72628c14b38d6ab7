package repository

import (
	"github.com/eventzx/messaging/internal/models"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

func (r *MessageRepository) FindByID(id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.Preload("Sender").First(&message, id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) FindByClientID(clientID string, senderID uint) (*models.Message, error) {
	var message models.Message
	err := r.db.Preload("Sender").
		Where("client_id = ? AND sender_id = ?", clientID, senderID).
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// FindPage returns one page of chat history. Storage is queried newest-first
// at offset pageIndex*pageSize, then the slice is reversed to oldest-first so
// successive pages can be concatenated in front of already-loaded newer ones.
// hasMore is true iff the raw page came back full-sized.
func (r *MessageRepository) FindPage(viewerID uint, chat models.ChatIdentity, pageIndex, pageSize int) ([]models.Message, bool, error) {
	if pageSize <= 0 {
		pageSize = 15
	}
	if pageIndex < 0 {
		pageIndex = 0
	}

	q := r.db.Preload("Sender").
		Order("created_at DESC, id DESC").
		Offset(pageIndex * pageSize).
		Limit(pageSize)

	if chat.IsCircle() {
		q = q.Where("circle_id = ?", chat.ID)
	} else {
		q = q.Where("circle_id IS NULL AND ((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?))",
			viewerID, chat.ID, chat.ID, viewerID)
	}

	var messages []models.Message
	if err := q.Find(&messages).Error; err != nil {
		return nil, false, err
	}

	hasMore := len(messages) == pageSize

	// Reverse to chronological order within the page.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, hasMore, nil
}

// StampDirectRead sets read_at on the peer's unread direct messages to the
// viewer. Write-once: rows with read_at already set are left alone.
func (r *MessageRepository) StampDirectRead(viewerID, peerID uint) (int64, error) {
	res := r.db.Model(&models.Message{}).
		Where("circle_id IS NULL AND sender_id = ? AND recipient_id = ? AND read_at IS NULL", peerID, viewerID).
		Update("read_at", gorm.Expr("NOW()"))
	return res.RowsAffected, res.Error
}

// CountDirectChatExists reports whether any message has ever been exchanged
// between the two users, used to detect a brand-new conversation.
func (r *MessageRepository) CountDirectChatExists(userID1, userID2 uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Message{}).
		Where("circle_id IS NULL AND ((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?))",
			userID1, userID2, userID2, userID1).
		Count(&count).Error
	return count > 0, err
}
