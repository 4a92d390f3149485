package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/thereayou/market-chat/internal/models"
)

const (
	// Время ожидания записи
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал отправки ping
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер кадра
	maxFrameSize = 64 * 1024
)

type FrameHandler interface {
	HandleFrame(client *Client, frame *Frame) error
}

// Client — одно серверное соединение. Identity пустая до первого join;
// после закрытия соединения членство в комнате снимается безусловно.
type Client struct {
	ID   uuid.UUID
	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub

	mu     sync.RWMutex
	userID string
	roomID string
	joined bool
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.New(),
		Conn: conn,
		Send: make(chan []byte, 256),
		Hub:  hub,
	}
}

func (c *Client) Identity() (userID, roomID string, joined bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID, c.roomID, c.joined
}

// вызывается только из Hub.Join под его мьютексом
func (c *Client) setIdentity(userID, roomID string) {
	c.mu.Lock()
	c.userID = userID
	c.roomID = roomID
	c.joined = true
	c.mu.Unlock()
}

// ReadPump читает кадры от клиента. Битый JSON логируется и пропускается,
// соединение при этом живёт дальше; ошибка handler'а уходит клиенту
// кадром error и тоже не закрывает соединение.
func (c *Client) ReadPump(handler FrameHandler) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxFrameSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Printf("WebSocket frame parse error: %v", err)
			continue
		}

		if handler != nil {
			if err := handler.HandleFrame(c, &frame); err != nil {
				log.Printf("Error handling frame: %v", err)
				c.SendError(err.Error())
			}
		}
	}
}

// WritePump отправляет кадры клиенту. Единственный писатель в Conn,
// поэтому порядок Send сохраняется до самого сокета.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub закрыл канал
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

			// Дописываем накопившиеся кадры в том же порядке
			n := len(c.Send)
			for i := 0; i < n; i++ {
				if err := c.Conn.WriteMessage(websocket.TextMessage, <-c.Send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// RecordFrame собирает исходящий кадр message с сохранённой записью.
// Payload маршалится один раз на рассылку, не на получателя.
func RecordFrame(msg *models.Message) ([]byte, error) {
	return json.Marshal(struct {
		Type    FrameType       `json:"type"`
		Message *models.Message `json:"message"`
	}{TypeMessage, msg})
}

func (c *Client) SendError(errorMsg string) {
	payload, err := json.Marshal(struct {
		Type  FrameType `json:"type"`
		Error string    `json:"error"`
	}{TypeError, errorMsg})
	if err != nil {
		return
	}
	if err := c.enqueue(payload); err != nil {
		log.Printf("Failed to send error to client %s: %v", c.ID, err)
	}
}

func (c *Client) enqueue(payload []byte) error {
	select {
	case c.Send <- payload:
		return nil
	default:
		return ErrClientQueueFull
	}
}
