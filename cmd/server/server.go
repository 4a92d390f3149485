package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/thereayou/market-chat/internal/handlers"
	"github.com/thereayou/market-chat/internal/storage"
	"github.com/thereayou/market-chat/internal/websocket"
)

type Server struct {
	Router *gin.Engine
	Store  storage.Store
	Hub    *websocket.Hub
	Redis  *redis.Client
}

// NewServer собирает процесс: хранилище по DATABASE_URL (без него — память),
// поверх опциональный Redis-кеш истории, hub и роутер.
func NewServer() *Server {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}

	var store storage.Store
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		pg, err := storage.NewPostgres(dsn)
		if err != nil {
			log.Fatalf("Postgres connect failed: %v", err)
		}
		store = pg
	} else {
		log.Println("DATABASE_URL is not set, using in-memory store")
		store = storage.NewMemory()
	}

	var rdb *redis.Client
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisOpts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		rdb = redis.NewClient(redisOpts)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Redis connect failed: %v", err)
		}
		store = storage.NewCached(store, rdb)
	}

	hub := websocket.NewHub()
	go hub.Run()

	msgH := handlers.NewMessageHandler(store, hub)
	wsH := handlers.NewWebSocketHandler(hub, msgH)
	httpMsgH := handlers.NewHTTPMessageHandler(store)
	roomH := handlers.NewRoomHandler(store)

	router := gin.Default()
	APIEndpoints(router, wsH, httpMsgH, roomH)

	return &Server{
		Router: router,
		Store:  store,
		Hub:    hub,
		Redis:  rdb,
	}
}

func (s *Server) Run() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s", port)
	if err := s.Router.Run(":" + port); err != nil {
		log.Fatalf("Server run error: %v", err)
	}
}
