package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/threadline/threadline-backend/pkg/enums"
)

// RosterEntry places one worker in one role's ordered list. Position 0 is
// the default assignee for the role.
type RosterEntry struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Role      enums.WorkerRole `gorm:"column:role;type:text;not null;uniqueIndex:idx_roster_role_name"`
	Name      string           `gorm:"column:name;type:text;not null;uniqueIndex:idx_roster_role_name"`
	Position  int              `gorm:"column:position;not null"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
