package main

import (
	"github.com/gin-gonic/gin"
	"github.com/thereayou/market-chat/internal/handlers"
)

func APIEndpoints(r *gin.Engine, wsH *handlers.WebSocketHandler, msgH *handlers.HTTPMessageHandler, roomH *handlers.RoomHandler) {
	// Realtime relay
	r.GET("/ws", wsH.HandleWebSocket)

	// REST glue: история для гидрации до открытия сокета и комнаты
	api := r.Group("/api")
	{
		api.GET("/messages/:roomId", msgH.GetRoomMessages)
		api.POST("/chat-rooms", roomH.CreateChatRoom)
		api.GET("/chat-rooms", roomH.GetChatRooms)
	}
}
