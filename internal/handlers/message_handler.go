package handlers

import (
	"errors"
	"log"

	"github.com/thereayou/market-chat/internal/storage"
	"github.com/thereayou/market-chat/internal/websocket"
)

type MessageHandler struct {
	store storage.Store
	hub   *websocket.Hub
}

func NewMessageHandler(store storage.Store, hub *websocket.Hub) *MessageHandler {
	return &MessageHandler{
		store: store,
		hub:   hub,
	}
}

// HandleFrame обрабатывает один входящий кадр. Возвращённая ошибка уходит
// только отправителю кадром error; соединение не закрывается.
func (h *MessageHandler) HandleFrame(client *websocket.Client, frame *websocket.Frame) error {
	switch frame.Type {
	case websocket.TypeJoin:
		return h.handleJoin(client, frame)

	case websocket.TypeMessage:
		return h.handleMessage(client, frame)

	default:
		log.Printf("Unknown frame type: %s", frame.Type)
		return nil
	}
}

func (h *MessageHandler) handleJoin(client *websocket.Client, frame *websocket.Frame) error {
	if frame.UserID == "" || frame.RoomID == "" {
		return websocket.ErrJoinFieldsRequired
	}

	h.hub.Join(client, frame.UserID, frame.RoomID)

	return nil
}

// handleMessage сохраняет сообщение и только потом рассылает: получатели
// всегда видят запись с серверными id/createdAt. Ошибка хранилища
// не доходит до остальных участников комнаты.
func (h *MessageHandler) handleMessage(client *websocket.Client, frame *websocket.Frame) error {
	if _, _, joined := client.Identity(); !joined {
		return websocket.ErrNotJoined
	}

	if frame.RoomID == "" || frame.SenderID == "" || frame.Content == "" {
		return websocket.ErrMessageFieldsRequired
	}

	saved, err := h.store.CreateMessage(frame.RoomID, frame.SenderID, frame.Content)
	if err != nil {
		log.Printf("Failed to save message: %v", err)
		return errors.New("failed to save message")
	}

	payload, err := websocket.RecordFrame(saved)
	if err != nil {
		return err
	}

	h.hub.BroadcastToRoom(frame.RoomID, payload)

	return nil
}
