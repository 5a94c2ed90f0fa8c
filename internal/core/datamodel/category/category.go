package category

import "time"

type ContactCategory struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Color       string    `gorm:"column:color"`
	Description string    `gorm:"column:description"`
	DivisionID  *int64    `gorm:"column:division_id;index"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	CreatedBy   *int64    `gorm:"column:created_by"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
