package audit

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog rows are append-only.
type AuditLog struct {
	ID         int64             `gorm:"primaryKey"`
	UserID     *int64            `gorm:"column:user_id;index"`
	Action     string            `gorm:"column:action;not null;index"`
	EntityType string            `gorm:"column:entity_type;not null;index"`
	EntityID   string            `gorm:"column:entity_id"`
	OldValues  datatypes.JSONMap `gorm:"column:old_values"`
	NewValues  datatypes.JSONMap `gorm:"column:new_values"`
	IPAddress  string            `gorm:"column:ip_address"`
	UserAgent  string            `gorm:"column:user_agent"`
	DivisionID *int64            `gorm:"column:division_id"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime;index"`
}
