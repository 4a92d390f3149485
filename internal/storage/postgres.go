package storage

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/market-chat/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Postgres struct {
	db *gorm.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.ChatRoom{}, &models.Message{}); err != nil {
		return nil, err
	}

	return &Postgres{db: db}, nil
}

func (p *Postgres) CreateMessage(roomID, senderID, content string) (*models.Message, error) {
	msg := models.Message{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := p.db.Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetMessagesByRoom отдаёт историю комнаты от старых к новым.
// seq — вторичный ключ: bigserial разруливает совпадающие created_at.
func (p *Postgres) GetMessagesByRoom(roomID string) ([]models.Message, error) {
	var messages []models.Message

	err := p.db.
		Where("room_id = ?", roomID).
		Order("created_at ASC, seq ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (p *Postgres) CreateChatRoom(productID, buyerID, sellerID string) (*models.ChatRoom, error) {
	room := models.ChatRoom{
		ID:        uuid.NewString(),
		ProductID: productID,
		BuyerID:   buyerID,
		SellerID:  sellerID,
		CreatedAt: time.Now().UTC(),
	}
	if err := p.db.Create(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (p *Postgres) GetChatRoom(id string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := p.db.First(&room, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

func (p *Postgres) GetChatRoomsByUser(userID string) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom

	err := p.db.
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}

	return rooms, nil
}

func (p *Postgres) GetChatRoomByProductAndBuyer(productID, buyerID string) (*models.ChatRoom, error) {
	var room models.ChatRoom

	err := p.db.
		First(&room, "product_id = ? AND buyer_id = ?", productID, buyerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	return &room, nil
}
