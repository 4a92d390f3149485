package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub) *Client {
	// Conn == nil: pumps в этих тестах не запускаются, читаем Send напрямую
	return NewClient(hub, nil)
}

func Test_Join_Attaches_Identity_And_Membership(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	defer hub.Stop()
	go hub.Run()

	client := newTestClient(hub)
	hub.Register(client)

	_, _, joined := client.Identity()
	req.False(joined)
	req.Zero(hub.RoomSize("room-42"))

	hub.Join(client, "u1", "room-42")

	userID, roomID, joined := client.Identity()
	req.True(joined)
	req.Equal("u1", userID)
	req.Equal("room-42", roomID)
	req.Equal(1, hub.RoomSize("room-42"))
}

func Test_Second_Join_Overwrites_Identity(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	defer hub.Stop()
	go hub.Run()

	client := newTestClient(hub)
	hub.Register(client)

	hub.Join(client, "u1", "room-a")
	hub.Join(client, "u2", "room-b")

	userID, roomID, joined := client.Identity()
	req.True(joined)
	req.Equal("u2", userID)
	req.Equal("room-b", roomID)
	req.Zero(hub.RoomSize("room-a"))
	req.Equal(1, hub.RoomSize("room-b"))
}

func Test_Broadcast_Reaches_Only_Room_Members(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	defer hub.Stop()
	go hub.Run()

	a := newTestClient(hub)
	b := newTestClient(hub)
	outsider := newTestClient(hub)
	for _, c := range []*Client{a, b, outsider} {
		hub.Register(c)
	}

	hub.Join(a, "u1", "r1")
	hub.Join(b, "u2", "r1")
	hub.Join(outsider, "u3", "r2")

	hub.BroadcastToRoom("r1", []byte("hello"))

	req.Equal([]byte("hello"), <-a.Send)
	req.Equal([]byte("hello"), <-b.Send)
	req.Empty(outsider.Send)
}

func Test_Broadcast_Preserves_Order_Per_Recipient(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	defer hub.Stop()
	go hub.Run()

	client := newTestClient(hub)
	hub.Register(client)
	hub.Join(client, "u1", "r1")

	payloads := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	for _, p := range payloads {
		hub.BroadcastToRoom("r1", p)
	}

	for _, want := range payloads {
		req.Equal(want, <-client.Send)
	}
}

func Test_Unregister_Removes_Membership_And_Closes_Send(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	defer hub.Stop()
	go hub.Run()

	client := newTestClient(hub)
	hub.Register(client)
	hub.Join(client, "u1", "r1")
	req.Equal(1, hub.RoomSize("r1"))

	hub.Unregister(client)

	req.Eventually(func() bool {
		return hub.RoomSize("r1") == 0
	}, time.Second, 10*time.Millisecond)

	_, open := <-client.Send
	req.False(open)
}
