package storage

import (
	"errors"

	"github.com/thereayou/market-chat/internal/models"
)

var ErrRoomNotFound = errors.New("chat room not found")

// Store — контракт хранилища сообщений и комнат.
// Relay вызывает только CreateMessage/GetMessagesByRoom; операции с комнатами
// использует REST-слой. Реализация выбирается при деплое (memory или postgres).
type Store interface {
	CreateMessage(roomID, senderID, content string) (*models.Message, error)
	GetMessagesByRoom(roomID string) ([]models.Message, error)

	CreateChatRoom(productID, buyerID, sellerID string) (*models.ChatRoom, error)
	GetChatRoom(id string) (*models.ChatRoom, error)
	GetChatRoomsByUser(userID string) ([]models.ChatRoom, error)
	GetChatRoomByProductAndBuyer(productID, buyerID string) (*models.ChatRoom, error)
}
