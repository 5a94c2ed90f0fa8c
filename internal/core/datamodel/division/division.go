package division

import "time"

type Division struct {
	ID             int64     `gorm:"primaryKey"`
	Name           string    `gorm:"column:name;uniqueIndex;not null"`
	Description    string    `gorm:"column:description"`
	LogoURL        string    `gorm:"column:logo_url"`
	PrimaryColor   string    `gorm:"column:primary_color"`
	SecondaryColor string    `gorm:"column:secondary_color"`
	IsActive       bool      `gorm:"column:is_active;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
