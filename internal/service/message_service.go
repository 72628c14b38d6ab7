package service

import (
	"errors"
	"fmt"
	"log"

	"github.com/eventzx/messaging/internal/cache"
	"github.com/eventzx/messaging/internal/models"
	"github.com/eventzx/messaging/internal/notify"
	"github.com/eventzx/messaging/internal/realtime"
	"github.com/eventzx/messaging/internal/repository"
	"github.com/eventzx/messaging/internal/validation"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultPageSize = 15

type MessageService struct {
	messageRepo   repository.MessageRepositoryInterface
	readStateRepo repository.ReadStateRepositoryInterface
	userRepo      repository.UserRepositoryInterface
	circleRepo    repository.CircleRepositoryInterface
	broker        realtime.Broker
	notifier      notify.Notifier
	chatCache     *cache.ChatCache
}

func NewMessageService(
	messageRepo repository.MessageRepositoryInterface,
	readStateRepo repository.ReadStateRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
	circleRepo repository.CircleRepositoryInterface,
	broker realtime.Broker,
	notifier notify.Notifier,
	chatCache *cache.ChatCache,
) *MessageService {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &MessageService{
		messageRepo:   messageRepo,
		readStateRepo: readStateRepo,
		userRepo:      userRepo,
		circleRepo:    circleRepo,
		broker:        broker,
		notifier:      notifier,
		chatCache:     chatCache,
	}
}

type SendMessageInput struct {
	RecipientID *uint  `json:"recipient_id"`
	CircleID    *uint  `json:"circle_id"`
	Content     string `json:"content"`
	ClientID    string `json:"client_id"`
}

// Send validates, persists and fans out one message. Replaying the same
// (sender, client_id) returns the original row without repeating side effects.
func (s *MessageService) Send(senderID uint, input SendMessageInput) (*models.Message, error) {
	content := validation.TrimAndLimit(input.Content, validation.MaxMessageLength())
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidationFailed)
	}

	direct := input.RecipientID != nil && *input.RecipientID != 0
	circle := input.CircleID != nil && *input.CircleID != 0
	if direct == circle {
		return nil, fmt.Errorf("%w: exactly one of recipient_id and circle_id must be set", ErrValidationFailed)
	}
	if direct && *input.RecipientID == senderID {
		return nil, fmt.Errorf("%w: cannot message yourself", ErrValidationFailed)
	}

	clientID := input.ClientID
	if clientID == "" {
		clientID = uuid.NewString()
	} else if existing, err := s.messageRepo.FindByClientID(clientID, senderID); err == nil {
		// Idempotent replay of a retried send.
		return existing, nil
	}

	firstMessage := false
	if direct {
		exists, err := s.userRepo.Exists(*input.RecipientID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("%w: recipient", ErrNotFound)
		}
		had, err := s.messageRepo.CountDirectChatExists(senderID, *input.RecipientID)
		if err == nil {
			firstMessage = !had
		}
	} else {
		member, err := s.circleRepo.IsMember(*input.CircleID, senderID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, fmt.Errorf("%w: not a member of circle %d", ErrNotAuthorized, *input.CircleID)
		}
	}

	message := &models.Message{
		ClientID:    clientID,
		SenderID:    senderID,
		RecipientID: input.RecipientID,
		CircleID:    input.CircleID,
		Content:     content,
	}

	if err := s.messageRepo.Create(message); err != nil {
		// Two racing retries of the same send: the loser reads the winner's row.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.messageRepo.FindByClientID(clientID, senderID)
		}
		return nil, err
	}

	stored, err := s.messageRepo.FindByID(message.ID)
	if err != nil {
		return nil, err
	}

	s.fanOut(stored)

	if firstMessage {
		recipientID := *stored.RecipientID
		sender := stored.Sender
		go func() {
			err := s.notifier.Notify(notify.Notification{
				UserID:    recipientID,
				Kind:      "chat.new",
				Title:     "New message",
				Body:      fmt.Sprintf("%s started a chat with you", sender.Username),
				ActionURL: fmt.Sprintf("/chat/%d", sender.ID),
			})
			if err != nil {
				log.Printf("notify failed for user %d: %v", recipientID, err)
			}
		}()
	}

	return stored, nil
}

// fanOut updates every recipient's unread cursor and pushes realtime events.
// The message is already durable; a failed increment is logged and the next
// mutation of that row repairs the count, it is never patched client-side.
func (s *MessageService) fanOut(message *models.Message) {
	senderID := message.SenderID

	var recipients []uint
	if message.IsDirect() {
		recipients = []uint{*message.RecipientID}
	} else {
		memberIDs, err := s.circleRepo.MemberIDs(*message.CircleID)
		if err != nil {
			log.Printf("member lookup failed for circle %d: %v", *message.CircleID, err)
			return
		}
		for _, id := range memberIDs {
			if id != senderID {
				recipients = append(recipients, id)
			}
		}
	}

	for _, uid := range recipients {
		if err := s.readStateRepo.IncrementUnread(uid, message.Chat(uid)); err != nil {
			log.Printf("unread increment failed for user %d: %v", uid, err)
		}
	}
	if err := s.readStateRepo.TouchSender(senderID, message.Chat(senderID)); err != nil {
		log.Printf("sender read-state touch failed for user %d: %v", senderID, err)
	}

	resp := message.ToResponse()

	if s.broker != nil {
		s.broker.Publish(message.Chat(senderID).TopicKey(senderID), realtime.Event{
			Type:    realtime.EventMessageCreated,
			Chat:    message.Chat(senderID),
			Message: &resp,
		})
	}

	participants := append(recipients, senderID)
	for _, uid := range participants {
		_ = s.chatCache.InvalidateConversationList(uid)
		if s.broker != nil {
			// Chat identity is per viewer: for a direct message each side
			// addresses the chat by the other participant's id.
			s.broker.Publish(realtime.UserTopic(uid), realtime.Event{
				Type:    realtime.EventMessageCreated,
				Chat:    message.Chat(uid),
				Message: &resp,
			})
		}
	}

	for _, uid := range recipients {
		_ = s.chatCache.InvalidateTotalUnread(uid)
		total, err := s.readStateRepo.TotalUnread(uid)
		if err != nil {
			log.Printf("total unread lookup failed for user %d: %v", uid, err)
			continue
		}
		_ = s.chatCache.SetTotalUnread(uid, total)
		if s.broker != nil {
			s.broker.Publish(realtime.UserTopic(uid), realtime.Event{
				Type:   realtime.EventTotalUnread,
				UserID: uid,
				Total:  total,
			})
		}
	}
}

// GetPage returns one page of chat history, oldest-first within the page.
func (s *MessageService) GetPage(viewerID uint, chat models.ChatIdentity, pageIndex, pageSize int) (*models.MessagePage, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > 100 {
		pageSize = 100
	}

	if chat.IsCircle() {
		member, err := s.circleRepo.IsMember(chat.ID, viewerID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, fmt.Errorf("%w: not a member of circle %d", ErrNotAuthorized, chat.ID)
		}
	}

	messages, hasMore, err := s.messageRepo.FindPage(viewerID, chat, pageIndex, pageSize)
	if err != nil {
		return nil, err
	}
	return &models.MessagePage{Messages: messages, HasMore: hasMore}, nil
}
