// Package chatclient — переподключающийся клиент чат-relay для одной
// пары (userId, roomId). Владеет одним сокетом, при открытии шлёт join,
// после обрыва переподключается с экспоненциальным backoff.
package chatclient

import (
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message — запись, доставленная relay'ем. Поля совпадают с payload
// кадра message и с ответом GET /api/messages/{roomId}: историю и
// сокетные записи сливают по ID.
type Message struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	baseReconnectDelay   = time.Second
	maxReconnectDelay    = 10 * time.Second
	maxReconnectAttempts = 5
)

const (
	errCannotSend       = "Cannot send message. Check your connection."
	errConnectionFailed = "WebSocket connection error"
	errReconnectFailed  = "Reconnection failed. Please reload the page."
)

// Config задаёт сессию клиента. Callbacks зовутся из горутины чтения;
// дедупликация доставленных записей по id — забота получателя,
// сервер возвращает отправителю его же сообщение.
type Config struct {
	// BaseURL — http(s) адрес сервера; схема сокета выводится из неё
	BaseURL string
	UserID  string
	RoomID  string

	OnMessage func(Message)
	OnError   func(string)
}

type Client struct {
	cfg   Config
	wsURL string

	mu         sync.Mutex
	conn       *websocket.Conn
	connected  bool
	closed     bool
	attempts   int
	retryTimer *time.Timer
	lastErr    string

	// переопределяются в тестах
	baseDelay time.Duration
	maxDelay  time.Duration
}

func New(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, errors.New("chatclient: unsupported scheme " + u.Scheme)
	}
	u.Path = "/ws"

	return &Client{
		cfg:       cfg,
		wsURL:     u.String(),
		baseDelay: baseReconnectDelay,
		maxDelay:  maxReconnectDelay,
	}, nil
}

// Connect открывает сокет и шлёт join. Неудачный dial считается обрывом:
// запускает тот же backoff, что и закрытие уже открытого соединения.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("chatclient: client is closed")
	}
	c.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.Dial(c.wsURL, nil)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return errors.New("chatclient: client is closed")
	}

	if err != nil {
		log.Printf("WebSocket connection failed: %v", err)
		c.lastErr = errConnectionFailed
		cb := c.errCallbackLocked()
		c.scheduleReconnectLocked()
		c.mu.Unlock()

		if cb != nil {
			cb(errConnectionFailed)
		}
		return err
	}

	c.conn = conn
	c.connected = true
	c.attempts = 0
	c.lastErr = ""

	join := struct {
		Type   string `json:"type"`
		UserID string `json:"userId"`
		RoomID string `json:"roomId"`
	}{"join", c.cfg.UserID, c.cfg.RoomID}

	if err := conn.WriteJSON(join); err != nil {
		c.connected = false
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
		return err
	}
	c.mu.Unlock()

	go c.readLoop(conn)

	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var frame struct {
			Type    string   `json:"type"`
			Message *Message `json:"message"`
			Error   string   `json:"error"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Printf("WebSocket message parse error: %v", err)
			continue
		}

		switch frame.Type {
		case "message":
			if frame.Message == nil {
				continue
			}
			c.mu.Lock()
			cb := c.cfg.OnMessage
			if c.closed {
				cb = nil
			}
			c.mu.Unlock()
			if cb != nil {
				cb(*frame.Message)
			}

		case "error":
			c.mu.Lock()
			c.lastErr = frame.Error
			cb := c.errCallbackLocked()
			c.mu.Unlock()
			if cb != nil {
				cb(frame.Error)
			}
		}
	}

	c.onClose(conn)
}

// onClose — единственная точка, из которой стартует reconnect
func (c *Client) onClose(conn *websocket.Conn) {
	conn.Close()

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
		c.connected = false
	}
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.scheduleReconnectLocked()
	c.mu.Unlock()
}

// scheduleReconnectLocked планирует попытку по расписанию
// min(baseDelay * 2^attempt, maxDelay); после пятой подряд — терминальная
// ошибка, дальше клиент сам не переподключается. Удачное открытие
// сбрасывает счётчик, так что бюджет попыток на одну полосу неудач.
func (c *Client) scheduleReconnectLocked() {
	if c.attempts >= maxReconnectAttempts {
		c.lastErr = errReconnectFailed
		cb := c.errCallbackLocked()
		if cb != nil {
			go cb(errReconnectFailed)
		}
		return
	}

	delay := c.baseDelay << c.attempts
	if delay > c.maxDelay {
		delay = c.maxDelay
	}

	c.retryTimer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.attempts++
		c.mu.Unlock()

		c.Connect()
	})
}

func (c *Client) errCallbackLocked() func(string) {
	if c.closed {
		return nil
	}
	return c.cfg.OnError
}

// SendMessage шлёт кадр message, если сокет открыт. Очереди на отправку
// нет: при закрытом сокете просто false и локальная ошибка, черновик
// пользователя остаётся у вызывающего.
func (c *Client) SendMessage(content string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected || c.conn == nil {
		log.Printf("WebSocket is not connected")
		c.lastErr = errCannotSend
		return false
	}

	frame := struct {
		Type     string `json:"type"`
		RoomID   string `json:"roomId"`
		SenderID string `json:"senderId"`
		Content  string `json:"content"`
	}{"message", c.cfg.RoomID, c.cfg.UserID, content}

	if err := c.conn.WriteJSON(frame); err != nil {
		log.Printf("WebSocket send failed: %v", err)
		c.lastErr = errCannotSend
		return false
	}

	return true
}

// Close гасит сессию: отменяет запланированный reconnect, закрывает сокет.
// После Close ни один callback не зовётся.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true

	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}

	conn := c.conn
	c.conn = nil
	c.connected = false
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// Connected сообщает, открыт ли сокет сейчас
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Err возвращает последнюю ошибку сессии ("" если её нет)
func (c *Client) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}
