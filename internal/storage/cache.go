package storage

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/thereayou/market-chat/internal/models"
)

const historyCacheTTL = 5 * time.Minute

// Cached оборачивает Store read-through кешем истории комнаты в Redis.
// Ключ room:{id}:messages сбрасывается при каждой записи в комнату,
// поэтому кеш никогда не отдаёт историю без свежего сообщения.
// Ошибки Redis не фатальны: падаем обратно на внутреннее хранилище.
type Cached struct {
	inner Store
	rdb   *redis.Client
}

func NewCached(inner Store, rdb *redis.Client) *Cached {
	return &Cached{inner: inner, rdb: rdb}
}

func historyKey(roomID string) string {
	return "room:" + roomID + ":messages"
}

func (c *Cached) CreateMessage(roomID, senderID, content string) (*models.Message, error) {
	msg, err := c.inner.CreateMessage(roomID, senderID, content)
	if err != nil {
		return nil, err
	}

	// Инвалидация до возврата: следующий GetMessagesByRoom увидит новое сообщение.
	if err := c.rdb.Del(context.Background(), historyKey(roomID)).Err(); err != nil {
		log.Printf("Failed to invalidate history cache for room %s: %v", roomID, err)
	}

	return msg, nil
}

func (c *Cached) GetMessagesByRoom(roomID string) ([]models.Message, error) {
	ctx := context.Background()

	data, err := c.rdb.Get(ctx, historyKey(roomID)).Bytes()
	if err == nil {
		var messages []models.Message
		if err := json.Unmarshal(data, &messages); err == nil {
			return messages, nil
		}
		log.Printf("Corrupted history cache for room %s, dropping", roomID)
		c.rdb.Del(ctx, historyKey(roomID))
	} else if err != redis.Nil {
		log.Printf("Redis get failed for room %s: %v", roomID, err)
	}

	messages, err := c.inner.GetMessagesByRoom(roomID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(messages); err == nil {
		if err := c.rdb.Set(ctx, historyKey(roomID), data, historyCacheTTL).Err(); err != nil {
			log.Printf("Redis set failed for room %s: %v", roomID, err)
		}
	}

	return messages, nil
}

func (c *Cached) CreateChatRoom(productID, buyerID, sellerID string) (*models.ChatRoom, error) {
	return c.inner.CreateChatRoom(productID, buyerID, sellerID)
}

func (c *Cached) GetChatRoom(id string) (*models.ChatRoom, error) {
	return c.inner.GetChatRoom(id)
}

func (c *Cached) GetChatRoomsByUser(userID string) ([]models.ChatRoom, error) {
	return c.inner.GetChatRoomsByUser(userID)
}

func (c *Cached) GetChatRoomByProductAndBuyer(productID, buyerID string) (*models.ChatRoom, error) {
	return c.inner.GetChatRoomByProductAndBuyer(productID, buyerID)
}
