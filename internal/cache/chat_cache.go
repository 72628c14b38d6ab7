package cache

import (
	"fmt"
	"time"

	"github.com/eventzx/messaging/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	ConversationListTTL = 2 * time.Minute
	TotalUnreadTTL      = 1 * time.Minute
)

// ChatCache holds short-lived derived views: the conversation list and the
// total unread count. Both are recomputable folds, so the cache is strictly
// an accelerator; every method is a no-op on a nil cache.
type ChatCache struct {
	redis *RedisCache
}

func NewChatCache(redis *RedisCache) *ChatCache {
	return &ChatCache{redis: redis}
}

func conversationListKey(userID uint) string {
	return fmt.Sprintf("convlist:%d", userID)
}

func totalUnreadKey(userID uint) string {
	return fmt.Sprintf("unread_total:%d", userID)
}

func (cc *ChatCache) GetConversationList(userID uint) ([]models.Conversation, bool) {
	if cc == nil || cc.redis == nil {
		return nil, false
	}
	data, err := cc.redis.Get(conversationListKey(userID))
	if err != nil || data == nil {
		return nil, false
	}

	var conversations []models.Conversation
	if err := msgpack.Unmarshal(data, &conversations); err != nil {
		return nil, false
	}
	return conversations, true
}

func (cc *ChatCache) SetConversationList(userID uint, conversations []models.Conversation) error {
	if cc == nil || cc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(conversations)
	if err != nil {
		return err
	}
	return cc.redis.Set(conversationListKey(userID), data, ConversationListTTL)
}

func (cc *ChatCache) InvalidateConversationList(userID uint) error {
	if cc == nil || cc.redis == nil {
		return nil
	}
	return cc.redis.Delete(conversationListKey(userID))
}

func (cc *ChatCache) GetTotalUnread(userID uint) (int64, bool) {
	if cc == nil || cc.redis == nil {
		return 0, false
	}
	data, err := cc.redis.Get(totalUnreadKey(userID))
	if err != nil || data == nil {
		return 0, false
	}

	var total int64
	if err := msgpack.Unmarshal(data, &total); err != nil {
		return 0, false
	}
	return total, true
}

func (cc *ChatCache) SetTotalUnread(userID uint, total int64) error {
	if cc == nil || cc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(total)
	if err != nil {
		return err
	}
	return cc.redis.Set(totalUnreadKey(userID), data, TotalUnreadTTL)
}

func (cc *ChatCache) InvalidateTotalUnread(userID uint) error {
	if cc == nil || cc.redis == nil {
		return nil
	}
	return cc.redis.Delete(totalUnreadKey(userID))
}
