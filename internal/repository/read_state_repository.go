package repository

import (
	"errors"

	"github.com/eventzx/messaging/internal/models"
	"gorm.io/gorm"
)

type ReadStateRepository struct {
	db *gorm.DB
}

func NewReadStateRepository(db *gorm.DB) *ReadStateRepository {
	return &ReadStateRepository{db: db}
}

// IncrementUnread bumps the recipient's unread count for a chat by one and
// advances last_message_at. The increment happens server-side so concurrent
// senders never lose an update.
func (r *ReadStateRepository) IncrementUnread(userID uint, chat models.ChatIdentity) error {
	return r.db.Exec(`
		INSERT INTO chat_read_states (user_id, chat_id, chat_type, unread_count, last_read_at, last_message_at, created_at, updated_at)
		VALUES (?, ?, ?, 1, to_timestamp(0), NOW(), NOW(), NOW())
		ON CONFLICT (user_id, chat_id, chat_type) DO UPDATE
		SET unread_count = chat_read_states.unread_count + 1,
			last_message_at = GREATEST(chat_read_states.last_message_at, EXCLUDED.last_message_at),
			updated_at = NOW()
	`, userID, chat.ID, chat.Type).Error
}

// TouchSender records chat activity for the sender's own row without touching
// the unread count; senders are always caught up on their own messages.
func (r *ReadStateRepository) TouchSender(userID uint, chat models.ChatIdentity) error {
	return r.db.Exec(`
		INSERT INTO chat_read_states (user_id, chat_id, chat_type, unread_count, last_read_at, last_message_at, created_at, updated_at)
		VALUES (?, ?, ?, 0, NOW(), NOW(), NOW(), NOW())
		ON CONFLICT (user_id, chat_id, chat_type) DO UPDATE
		SET last_message_at = GREATEST(chat_read_states.last_message_at, EXCLUDED.last_message_at),
			updated_at = NOW()
	`, userID, chat.ID, chat.Type).Error
}

// Reset zeroes the unread count and stamps last_read_at. Idempotent: calling
// it again with no new messages in between changes nothing observable.
func (r *ReadStateRepository) Reset(userID uint, chat models.ChatIdentity) error {
	return r.db.Exec(`
		INSERT INTO chat_read_states (user_id, chat_id, chat_type, unread_count, last_read_at, last_message_at, created_at, updated_at)
		VALUES (?, ?, ?, 0, NOW(), to_timestamp(0), NOW(), NOW())
		ON CONFLICT (user_id, chat_id, chat_type) DO UPDATE
		SET unread_count = 0,
			last_read_at = NOW(),
			updated_at = NOW()
	`, userID, chat.ID, chat.Type).Error
}

func (r *ReadStateRepository) Get(userID uint, chat models.ChatIdentity) (*models.ChatReadState, error) {
	var state models.ChatReadState
	err := r.db.Where("user_id = ? AND chat_id = ? AND chat_type = ?", userID, chat.ID, chat.Type).
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// No row means the user has never had unread messages in this chat.
		return &models.ChatReadState{UserID: userID, ChatID: chat.ID, ChatType: chat.Type}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *ReadStateRepository) ListByUser(userID uint) ([]models.ChatReadState, error) {
	var states []models.ChatReadState
	err := r.db.Where("user_id = ?", userID).Find(&states).Error
	return states, err
}

// TotalUnread sums the unread counts across all of the user's chats.
func (r *ReadStateRepository) TotalUnread(userID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.ChatReadState{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(unread_count), 0)").
		Scan(&total).Error
	return total, err
}

func (r *ReadStateRepository) DeleteForMember(userID uint, chat models.ChatIdentity) error {
	return r.db.Where("user_id = ? AND chat_id = ? AND chat_type = ?", userID, chat.ID, chat.Type).
		Delete(&models.ChatReadState{}).Error
}
