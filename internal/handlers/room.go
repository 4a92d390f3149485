package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/market-chat/internal/storage"
)

type RoomHandler struct {
	store storage.Store
}

func NewRoomHandler(store storage.Store) *RoomHandler {
	return &RoomHandler{store: store}
}

// CreateChatRoom создает комнату покупатель-продавец по товару.
// Для пары (товар, покупатель) комната одна: повторный запрос
// возвращает существующую.
func (h *RoomHandler) CreateChatRoom(c *gin.Context) {
	var req struct {
		ProductID string `json:"productId"`
		BuyerID   string `json:"buyerId"`
		SellerID  string `json:"sellerId"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.ProductID == "" || req.BuyerID == "" || req.SellerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId, buyerId, and sellerId are required"})
		return
	}

	existing, err := h.store.GetChatRoomByProductAndBuyer(req.ProductID, req.BuyerID)
	if err == nil {
		c.JSON(http.StatusOK, existing)
		return
	}
	if !errors.Is(err, storage.ErrRoomNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create chat room"})
		return
	}

	room, err := h.store.CreateChatRoom(req.ProductID, req.BuyerID, req.SellerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create chat room"})
		return
	}

	c.JSON(http.StatusOK, room)
}

// GetChatRooms возвращает комнаты, где пользователь покупатель или продавец.
// Сессий в этом ядре нет, идентификатор приходит явно.
func (h *RoomHandler) GetChatRooms(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	rooms, err := h.store.GetChatRoomsByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch chat rooms"})
		return
	}

	c.JSON(http.StatusOK, rooms)
}
