package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/market-chat/internal/models"
)

// Memory хранит всё в памяти процесса. Используется когда DATABASE_URL не задан,
// и в тестах. Seq растёт монотонно под мьютексом, поэтому порядок вставки
// сохраняется даже при одинаковых CreatedAt.
type Memory struct {
	mu       sync.RWMutex
	messages map[string][]models.Message
	rooms    []models.ChatRoom
	seq      int64
}

func NewMemory() *Memory {
	return &Memory{
		messages: make(map[string][]models.Message),
	}
}

func (m *Memory) CreateMessage(roomID, senderID, content string) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	msg := models.Message{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
		Seq:       m.seq,
	}
	m.messages[roomID] = append(m.messages[roomID], msg)

	return &msg, nil
}

// GetMessagesByRoom возвращает копию среза: append идёт только в хвост,
// так что сообщения уже лежат в порядке создания.
func (m *Memory) GetMessagesByRoom(roomID string) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.messages[roomID]
	result := make([]models.Message, len(stored))
	copy(result, stored)

	return result, nil
}

func (m *Memory) CreateChatRoom(productID, buyerID, sellerID string) (*models.ChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room := models.ChatRoom{
		ID:        uuid.NewString(),
		ProductID: productID,
		BuyerID:   buyerID,
		SellerID:  sellerID,
		CreatedAt: time.Now().UTC(),
	}
	m.rooms = append(m.rooms, room)

	return &room, nil
}

func (m *Memory) GetChatRoom(id string) (*models.ChatRoom, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.rooms {
		if m.rooms[i].ID == id {
			room := m.rooms[i]
			return &room, nil
		}
	}
	return nil, ErrRoomNotFound
}

func (m *Memory) GetChatRoomsByUser(userID string) ([]models.ChatRoom, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.ChatRoom, 0)
	for _, room := range m.rooms {
		if room.BuyerID == userID || room.SellerID == userID {
			result = append(result, room)
		}
	}
	return result, nil
}

func (m *Memory) GetChatRoomByProductAndBuyer(productID, buyerID string) (*models.ChatRoom, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.rooms {
		if m.rooms[i].ProductID == productID && m.rooms[i].BuyerID == buyerID {
			room := m.rooms[i]
			return &room, nil
		}
	}
	return nil, ErrRoomNotFound
}
