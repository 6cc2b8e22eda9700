package models

import (
	"time"

	"github.com/google/uuid"
)

// ClothImage is an image pair owned by a cloth item, ordered by Position.
type ClothImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID    uuid.UUID `gorm:"column:item_id;type:uuid;not null;index"`
	FullURL   string    `gorm:"column:full_url;type:text;not null"`
	ThumbURL  string    `gorm:"column:thumb_url;type:text;not null"`
	Position  int       `gorm:"column:position;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
