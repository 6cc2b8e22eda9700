package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/threadline/threadline-backend/pkg/enums"
	"github.com/threadline/threadline-backend/pkg/types"
)

// HistoryEntry is one immutable record of a status/assignee change on an
// item. Seq is strictly increasing per item and assigned inside the same
// transaction that moves the item, so history order matches transition order.
type HistoryEntry struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID     uuid.UUID           `gorm:"column:item_id;type:uuid;not null;index"`
	Seq        int                 `gorm:"column:seq;not null"`
	Status     enums.ClothStatus   `gorm:"column:status;type:text;not null"`
	AssignedTo *string             `gorm:"column:assigned_to;type:text"`
	Action     enums.HistoryAction `gorm:"column:action;type:text;not null"`
	Params     types.JSONMap       `gorm:"column:params;type:jsonb;serializer:json"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
}
