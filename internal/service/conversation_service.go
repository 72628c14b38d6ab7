package service

import (
	"sort"

	"github.com/eventzx/messaging/internal/cache"
	"github.com/eventzx/messaging/internal/models"
	"github.com/eventzx/messaging/internal/repository"
)

// ConversationService derives the conversation list by folding over the
// message log and read states. The list is never persisted; staleness is
// resolved by re-running the fold, never by patching entries.
type ConversationService struct {
	messageRepo repository.MessageRepositoryInterface
	chatCache   *cache.ChatCache
}

func NewConversationService(messageRepo repository.MessageRepositoryInterface, chatCache *cache.ChatCache) *ConversationService {
	return &ConversationService{
		messageRepo: messageRepo,
		chatCache:   chatCache,
	}
}

// List returns one entry per direct peer the user has exchanged messages with
// plus every circle they belong to, newest activity first. Circles without
// messages sort by their creation time.
func (s *ConversationService) List(userID uint) ([]models.Conversation, error) {
	if cached, ok := s.chatCache.GetConversationList(userID); ok {
		return cached, nil
	}

	rows, err := s.messageRepo.ListConversations(userID)
	if err != nil {
		return nil, err
	}

	conversations := make([]models.Conversation, 0, len(rows))
	for _, row := range rows {
		conversations = append(conversations, rowToConversation(row))
	}

	// The query already orders by activity; re-sort with an explicit id
	// tie-break so equal timestamps stay deterministic.
	sort.SliceStable(conversations, func(i, j int) bool {
		a, b := conversations[i], conversations[j]
		if !a.LastMessageTime.Equal(b.LastMessageTime) {
			return a.LastMessageTime.After(b.LastMessageTime)
		}
		return a.Chat.ID < b.Chat.ID
	})

	_ = s.chatCache.SetConversationList(userID, conversations)
	return conversations, nil
}

func rowToConversation(row repository.ConversationRow) models.Conversation {
	conv := models.Conversation{
		UnreadCount:     row.UnreadCount,
		LastMessageTime: row.LastActivity,
	}

	if row.ConversationType == "circle" {
		conv.Chat = models.CircleChat(uint(row.CircleID.Int64))
		conv.Name = row.CircleName.String
		conv.Avatar = row.CircleAvatar.String
		conv.IsCircle = true
		conv.MemberCount = row.MemberCount.Int64
	} else {
		conv.Chat = models.PrivateChat(uint(row.PeerID.Int64))
		conv.Name = row.PeerFullName.String
		if conv.Name == "" {
			conv.Name = row.PeerUsername.String
		}
		conv.Avatar = row.PeerAvatar.String
	}

	// MessageID 0 marks a circle with no messages yet.
	if row.MessageID != 0 {
		conv.LastMessage = &models.MessageResponse{
			ID:       row.MessageID,
			ClientID: row.MessageClientID,
			SenderID: row.MessageSenderID,
			Sender: models.UserResponse{
				ID:       row.MessageSenderID,
				Username: row.SenderUsername,
				FullName: row.SenderFullName,
				Avatar:   row.SenderAvatar,
			},
			Content:   row.MessageContent,
			CreatedAt: row.MessageCreatedAt,
		}
	}

	return conv
}
