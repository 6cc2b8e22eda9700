package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/threadline/threadline-backend/pkg/enums"
)

// ClothItem is the garment entity moved through the tailoring pipeline.
// Status and AssignedTo always mirror the latest history entry; the items
// service owns the only write path for that triple.
type ClothItem struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Type         enums.ClothType   `gorm:"column:type;type:text;not null"`
	BillNumber   string            `gorm:"column:bill_number;type:text;not null"`
	Quantity     int               `gorm:"column:quantity;not null;default:1"`
	CustomerName *string           `gorm:"column:customer_name;type:text"`
	Status       enums.ClothStatus `gorm:"column:status;type:text;not null"`
	AssignedTo   *string           `gorm:"column:assigned_to;type:text"`
	Images       []ClothImage      `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	History      []HistoryEntry    `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
