package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/market-chat/internal/storage"
)

type HTTPMessageHandler struct {
	store storage.Store
}

func NewHTTPMessageHandler(store storage.Store) *HTTPMessageHandler {
	return &HTTPMessageHandler{store: store}
}

// GetRoomMessages получает историю сообщений комнаты от старых к новым.
// Форма ответа совпадает с payload кадра message, чтобы клиент мог
// слить историю и сокетные записи по id. Неизвестная комната — пустой список.
func (h *HTTPMessageHandler) GetRoomMessages(c *gin.Context) {
	roomID := c.Param("roomId")

	messages, err := h.store.GetMessagesByRoom(roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch messages"})
		return
	}

	c.JSON(http.StatusOK, messages)
}
