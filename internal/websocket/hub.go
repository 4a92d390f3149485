package websocket

import (
	"context"
	"log"
	"sync"
)

// FrameType определяет типы кадров протокола
type FrameType string

const (
	// Клиент -> сервер
	TypeJoin    FrameType = "join"
	TypeMessage FrameType = "message"

	// Сервер -> клиент
	TypeError FrameType = "error"
)

// Frame — один входящий JSON-кадр. Набор полей зависит от Type:
// join несёт userId/roomId, message несёт roomId/senderId/content.
type Frame struct {
	Type     FrameType `json:"type"`
	UserID   string    `json:"userId,omitempty"`
	RoomID   string    `json:"roomId,omitempty"`
	SenderID string    `json:"senderId,omitempty"`
	Content  string    `json:"content,omitempty"`
}

type Hub struct {
	clients map[*Client]struct{}

	// Подключения по комнатам; членство появляется только после join
	rooms map[string]map[*Client]struct{}

	// Каналы для регистрации/отмены регистрации
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub создает новый Hub
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run запускает hub
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// Stop останавливает hub
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.Send)
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
	h.clients = make(map[*Client]struct{})
	h.rooms = make(map[string]map[*Client]struct{})
}

// Register регистрирует нового клиента
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister отменяет регистрацию клиента
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = struct{}{}

	log.Printf("Client registered: %s", client.ID)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}

	h.removeFromRoomUnsafe(client)
	delete(h.clients, client)
	close(client.Send)

	log.Printf("Client unregistered: %s", client.ID)
}

// Join привязывает identity к соединению. Повторный join молча
// перезаписывает userId/roomId и переносит соединение в новую комнату.
func (h *Hub) Join(client *Client, userID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomUnsafe(client)

	client.setIdentity(userID, roomID)

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*Client]struct{})
	}
	h.rooms[roomID][client] = struct{}{}

	log.Printf("User %s joined room %s", userID, roomID)
}

func (h *Hub) removeFromRoomUnsafe(client *Client) {
	_, roomID, joined := client.Identity()
	if !joined {
		return
	}

	if room, ok := h.rooms[roomID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// BroadcastToRoom доставляет payload всем соединениям комнаты, включая
// отправителя. Один проход по комнате на одно сообщение: порядок в Send
// каждого получателя совпадает с порядком рассылок.
func (h *Hub) BroadcastToRoom(roomID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[roomID] {
		select {
		case client.Send <- payload:
		default:
			log.Printf("Client %s send channel full, dropping frame", client.ID)
		}
	}
}

// RoomSize возвращает число соединений в комнате
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[roomID])
}
