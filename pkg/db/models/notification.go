package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification stores the durable in-app notification record per recipient.
// The engine only ever creates rows and flips ReadAt; deletion is out of its
// hands.
type Notification struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserName  string     `gorm:"column:user_name;type:text;not null;index"`
	Title     string     `gorm:"column:title;type:text;not null"`
	Message   string     `gorm:"column:message;type:text;not null"`
	ReadAt    *time.Time `gorm:"column:read_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
