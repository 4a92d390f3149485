package websocket

import "errors"

var (
	ErrClientQueueFull       = errors.New("client message queue is full")
	ErrJoinFieldsRequired    = errors.New("userId and roomId are required")
	ErrMessageFieldsRequired = errors.New("roomId, senderId, and content are required")
	ErrNotJoined             = errors.New("join is required before sending messages")
)
