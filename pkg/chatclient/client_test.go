package chatclient

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/market-chat/internal/handlers"
	"github.com/thereayou/market-chat/internal/storage"
	ws "github.com/thereayou/market-chat/internal/websocket"
)

func newRelay(t *testing.T) (*httptest.Server, storage.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemory()
	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	msgH := handlers.NewMessageHandler(store, hub)
	wsH := handlers.NewWebSocketHandler(hub, msgH)

	router := gin.New()
	router.GET("/ws", wsH.HandleWebSocket)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store
}

func newFastClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	c, err := New(cfg)
	require.NoError(t, err)
	c.baseDelay = time.Millisecond
	c.maxDelay = 10 * time.Millisecond
	t.Cleanup(c.Close)
	return c
}

func Test_Connect_Join_Send_Receive(t *testing.T) {
	req := require.New(t)
	srv, store := newRelay(t)

	gotA := make(chan Message, 8)
	gotB := make(chan Message, 8)

	a := newFastClient(t, Config{
		BaseURL: srv.URL, UserID: "u1", RoomID: "room-42",
		OnMessage: func(m Message) { gotA <- m },
	})
	b := newFastClient(t, Config{
		BaseURL: srv.URL, UserID: "u2", RoomID: "room-42",
		OnMessage: func(m Message) { gotB <- m },
	})

	req.NoError(a.Connect())
	req.NoError(b.Connect())
	req.Eventually(func() bool { return a.Connected() && b.Connected() }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond) // join кадры обеих сессий должны дойти до hub'а

	req.True(a.SendMessage("hi"))

	var fromA, fromB Message
	select {
	case fromA = <-gotA:
	case <-time.After(2 * time.Second):
		t.Fatal("sender did not receive own message back")
	}
	select {
	case fromB = <-gotB:
	case <-time.After(2 * time.Second):
		t.Fatal("peer did not receive message")
	}

	// эхо отправителю и доставка собеседнику — одна и та же запись
	req.Equal("hi", fromA.Content)
	req.Equal("u1", fromA.SenderID)
	req.Equal(fromA.ID, fromB.ID)

	history, err := store.GetMessagesByRoom("room-42")
	req.NoError(err)
	req.Len(history, 1)
	req.Equal(fromA.ID, history[0].ID)
}

func Test_Send_Without_Connection_Returns_False(t *testing.T) {
	req := require.New(t)

	c, err := New(Config{BaseURL: "http://localhost:0", UserID: "u1", RoomID: "r1"})
	req.NoError(err)
	defer c.Close()

	req.False(c.SendMessage("draft"))
	req.Equal("Cannot send message. Check your connection.", c.Err())
}

func Test_Error_Frame_Surfaces_To_Callback(t *testing.T) {
	req := require.New(t)
	srv, store := newRelay(t)

	errCh := make(chan string, 8)
	c := newFastClient(t, Config{
		BaseURL: srv.URL, UserID: "u1", RoomID: "room-42",
		OnError: func(e string) { errCh <- e },
	})
	req.NoError(c.Connect())
	req.Eventually(func() bool { return c.Connected() }, time.Second, 5*time.Millisecond)

	// пустой content сервер отклоняет кадром error
	req.True(c.SendMessage(""))

	select {
	case got := <-errCh:
		req.Equal("roomId, senderId, and content are required", got)
	case <-time.After(2 * time.Second):
		t.Fatal("error frame was not surfaced")
	}
	req.Equal("roomId, senderId, and content are required", c.Err())

	history, err := store.GetMessagesByRoom("room-42")
	req.NoError(err)
	req.Empty(history)
}

// ждёт терминальную ошибку, пропуская обычные connection errors полосы неудач
func waitForTerminalError(t *testing.T, errCh <-chan string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-errCh:
			if got == "Reconnection failed. Please reload the page." {
				return
			}
		case <-deadline:
			t.Fatal("terminal reconnect error never surfaced")
		}
	}
}

func Test_Reconnect_Stops_After_Five_Failed_Attempts(t *testing.T) {
	req := require.New(t)

	var dials int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&dials, 1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	errCh := make(chan string, 16)
	c := newFastClient(t, Config{
		BaseURL: srv.URL, UserID: "u1", RoomID: "r1",
		OnError: func(e string) { errCh <- e },
	})

	req.Error(c.Connect())
	waitForTerminalError(t, errCh)

	// первый dial плюс пять повторов, и ни одного сверх бюджета
	req.EqualValues(6, atomic.LoadInt64(&dials))
	time.Sleep(50 * time.Millisecond)
	req.EqualValues(6, atomic.LoadInt64(&dials))
	req.Equal("Reconnection failed. Please reload the page.", c.Err())
}

func Test_Successful_Open_Resets_Attempt_Counter(t *testing.T) {
	req := require.New(t)

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	var dials, rejectAll int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&dials, 1)
		// пропускаем только третью попытку; после взвода rejectAll — никого
		if atomic.LoadInt64(&rejectAll) == 1 || n != 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	errCh := make(chan string, 16)
	c := newFastClient(t, Config{
		BaseURL: srv.URL, UserID: "u1", RoomID: "r1",
		OnError: func(e string) { errCh <- e },
	})

	req.Error(c.Connect())
	req.Eventually(func() bool { return c.Connected() }, 2*time.Second, 5*time.Millisecond)

	// удачное открытие сбрасывает счётчик попыток
	c.mu.Lock()
	attempts := c.attempts
	c.mu.Unlock()
	req.Zero(attempts)

	// новая полоса неудач получает свежий бюджет из пяти попыток
	atomic.StoreInt64(&rejectAll, 1)
	before := atomic.LoadInt64(&dials)
	srv.CloseClientConnections()

	waitForTerminalError(t, errCh)
	req.EqualValues(before+5, atomic.LoadInt64(&dials))
}

func Test_Close_Cancels_Pending_Reconnect(t *testing.T) {
	req := require.New(t)

	var dials int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&dials, 1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL, UserID: "u1", RoomID: "r1",
		OnError: func(string) {}})
	req.NoError(err)
	c.baseDelay = 50 * time.Millisecond
	c.maxDelay = 50 * time.Millisecond

	req.Error(c.Connect())
	c.Close()

	time.Sleep(150 * time.Millisecond)
	req.EqualValues(1, atomic.LoadInt64(&dials))
}
