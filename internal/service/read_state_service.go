package service

import (
	"fmt"
	"log"

	"github.com/eventzx/messaging/internal/cache"
	"github.com/eventzx/messaging/internal/models"
	"github.com/eventzx/messaging/internal/realtime"
	"github.com/eventzx/messaging/internal/repository"
)

// ReadStateService is the single writer of unread counts. The conversation
// aggregator and all caches are derived, read-only views of its rows.
type ReadStateService struct {
	readStateRepo repository.ReadStateRepositoryInterface
	messageRepo   repository.MessageRepositoryInterface
	userRepo      repository.UserRepositoryInterface
	circleRepo    repository.CircleRepositoryInterface
	broker        realtime.Broker
	chatCache     *cache.ChatCache
}

func NewReadStateService(
	readStateRepo repository.ReadStateRepositoryInterface,
	messageRepo repository.MessageRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
	circleRepo repository.CircleRepositoryInterface,
	broker realtime.Broker,
	chatCache *cache.ChatCache,
) *ReadStateService {
	return &ReadStateService{
		readStateRepo: readStateRepo,
		messageRepo:   messageRepo,
		userRepo:      userRepo,
		circleRepo:    circleRepo,
		broker:        broker,
		chatCache:     chatCache,
	}
}

// MarkRead resets the user's unread cursor for a chat. Idempotent; a second
// call with no new messages in between is a no-op.
func (s *ReadStateService) MarkRead(userID uint, chat models.ChatIdentity) error {
	if chat.IsCircle() {
		if _, err := s.circleRepo.FindByID(chat.ID); err != nil {
			return fmt.Errorf("%w: circle %d", ErrNotFound, chat.ID)
		}
		member, err := s.circleRepo.IsMember(chat.ID, userID)
		if err != nil {
			return err
		}
		if !member {
			// A removed member keeps a stale cursor row that would inflate
			// their total; purge it instead of resetting it.
			if err := s.readStateRepo.DeleteForMember(userID, chat); err != nil {
				log.Printf("stale cursor purge failed for user %d circle %d: %v", userID, chat.ID, err)
			}
			_ = s.chatCache.InvalidateTotalUnread(userID)
			return fmt.Errorf("%w: not a member of circle %d", ErrNotAuthorized, chat.ID)
		}
	} else {
		exists, err := s.userRepo.Exists(chat.ID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: peer", ErrNotFound)
		}
	}

	if err := s.readStateRepo.Reset(userID, chat); err != nil {
		return err
	}

	// Direct chats additionally stamp read_at on the peer's messages;
	// write-once, already-read rows are untouched.
	if !chat.IsCircle() {
		if _, err := s.messageRepo.StampDirectRead(userID, chat.ID); err != nil {
			log.Printf("read_at stamp failed for user %d peer %d: %v", userID, chat.ID, err)
		}
	}

	_ = s.chatCache.InvalidateTotalUnread(userID)
	_ = s.chatCache.InvalidateConversationList(userID)

	if s.broker != nil {
		s.broker.Publish(chat.TopicKey(userID), realtime.Event{
			Type:   realtime.EventChatRead,
			Chat:   chat,
			UserID: userID,
		})

		total, err := s.readStateRepo.TotalUnread(userID)
		if err == nil {
			_ = s.chatCache.SetTotalUnread(userID, total)
			s.broker.Publish(realtime.UserTopic(userID), realtime.Event{
				Type:   realtime.EventTotalUnread,
				UserID: userID,
				Total:  total,
			})
		}
	}

	return nil
}

// UnreadCount is a point read of one chat's unread counter.
func (s *ReadStateService) UnreadCount(userID uint, chat models.ChatIdentity) (int64, error) {
	state, err := s.readStateRepo.Get(userID, chat)
	if err != nil {
		return 0, err
	}
	return state.UnreadCount, nil
}

// UnreadByChat returns the chats that currently have unread messages, for
// clients reconciling per-chat badges after a reconnect.
func (s *ReadStateService) UnreadByChat(userID uint) ([]models.ChatReadState, error) {
	states, err := s.readStateRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	unread := states[:0]
	for _, state := range states {
		if state.UnreadCount > 0 {
			unread = append(unread, state)
		}
	}
	return unread, nil
}

// TotalUnread sums unread counts across all of the user's chats; this value
// drives the navigation badge. Cache-aside with a short TTL, invalidated by
// every mutation, so the caller observes its own writes.
func (s *ReadStateService) TotalUnread(userID uint) (int64, error) {
	if total, ok := s.chatCache.GetTotalUnread(userID); ok {
		return total, nil
	}

	total, err := s.readStateRepo.TotalUnread(userID)
	if err != nil {
		return 0, err
	}
	_ = s.chatCache.SetTotalUnread(userID, total)
	return total, nil
}
