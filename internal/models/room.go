package models

import (
	"time"
)

// ChatRoom связывает товар с покупателем и продавцом.
// Создаётся REST-слоем; relay видит только ID.
type ChatRoom struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID string    `gorm:"index;not null" json:"productId"`
	BuyerID   string    `gorm:"index;not null" json:"buyerId"`
	SellerID  string    `gorm:"index;not null" json:"sellerId"`
	CreatedAt time.Time `json:"createdAt"`
}
