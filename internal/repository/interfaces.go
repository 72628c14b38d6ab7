package repository

import (
	"github.com/eventzx/messaging/internal/models"
)

// MessageRepositoryInterface defines the contract for the append-only message store.
type MessageRepositoryInterface interface {
	Create(message *models.Message) error
	FindByID(id uint) (*models.Message, error)
	FindByClientID(clientID string, senderID uint) (*models.Message, error)
	FindPage(viewerID uint, chat models.ChatIdentity, pageIndex, pageSize int) ([]models.Message, bool, error)
	StampDirectRead(viewerID, peerID uint) (int64, error)
	CountDirectChatExists(userID1, userID2 uint) (bool, error)
	ListConversations(userID uint) ([]ConversationRow, error)
}

// ReadStateRepositoryInterface defines the contract for the per-(user, chat)
// unread cursor. Implementations must make IncrementUnread and Reset atomic
// per row; callers never do read-modify-write on unread counts.
type ReadStateRepositoryInterface interface {
	IncrementUnread(userID uint, chat models.ChatIdentity) error
	TouchSender(userID uint, chat models.ChatIdentity) error
	Reset(userID uint, chat models.ChatIdentity) error
	Get(userID uint, chat models.ChatIdentity) (*models.ChatReadState, error)
	ListByUser(userID uint) ([]models.ChatReadState, error)
	TotalUnread(userID uint) (int64, error)
	DeleteForMember(userID uint, chat models.ChatIdentity) error
}

// UserRepositoryInterface is the identity provider boundary: profile lookups
// only, never mutation.
type UserRepositoryInterface interface {
	Exists(id uint) (bool, error)
}

// CircleRepositoryInterface is the group-membership provider boundary.
type CircleRepositoryInterface interface {
	FindByID(id uint) (*models.Circle, error)
	IsMember(circleID, userID uint) (bool, error)
	MemberIDs(circleID uint) ([]uint, error)
}
