package models

import (
	"time"

	"github.com/google/uuid"
)

// DeviceToken is one push token registered for a user. The set only grows;
// stale tokens are tolerated at send time rather than reaped.
type DeviceToken struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserName  string    `gorm:"column:user_name;type:text;not null;uniqueIndex:idx_device_tokens_user_token"`
	Token     string    `gorm:"column:token;type:text;not null;uniqueIndex:idx_device_tokens_user_token"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
