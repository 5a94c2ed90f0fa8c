package contact

import (
	"time"

	"gorm.io/datatypes"
)

type Contact struct {
	ID           int64             `gorm:"primaryKey"`
	FirstName    string            `gorm:"column:first_name"`
	LastName     string            `gorm:"column:last_name"`
	Email        string            `gorm:"column:email;index"`
	Phone        string            `gorm:"column:phone"`
	Company      string            `gorm:"column:company"`
	JobTitle     string            `gorm:"column:job_title"`
	Address      string            `gorm:"column:address"`
	City         string            `gorm:"column:city"`
	State        string            `gorm:"column:state"`
	PostalCode   string            `gorm:"column:postal_code"`
	Country      string            `gorm:"column:country"`
	Notes        string            `gorm:"column:notes"`
	CustomFields datatypes.JSONMap `gorm:"column:custom_fields"`
	CategoryID   *int64            `gorm:"column:category_id;index"`
	DivisionID   *int64            `gorm:"column:division_id;index"`
	UploadID     *int64            `gorm:"column:upload_id;index"`
	IsActive     bool              `gorm:"column:is_active;not null;index"`
	CreatedBy    *int64            `gorm:"column:created_by"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
