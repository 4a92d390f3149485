package models

import (
	"time"
)

// Message неизменяемо после создания: в этом ядре нет ни update, ни delete.
// Seq — вторичный ключ сортировки, сохраняет порядок вставки при равных CreatedAt.
// Идентификаторы непрозрачные строки: relay не проверяет, что RoomID существует.
type Message struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID    string    `gorm:"index;not null" json:"roomId"`
	SenderID  string    `gorm:"not null" json:"senderId"`
	Content   string    `gorm:"not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Seq       int64     `gorm:"autoIncrement" json:"-"`
}
