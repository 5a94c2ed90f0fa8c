package customfield

import (
	"time"

	"gorm.io/datatypes"
)

type CustomFieldDefinition struct {
	ID         int64                       `gorm:"primaryKey"`
	Key        string                      `gorm:"column:key;not null;index"`
	Label      string                      `gorm:"column:label;not null"`
	FieldType  string                      `gorm:"column:field_type;not null"`
	IsRequired bool                        `gorm:"column:is_required;not null"`
	Validation datatypes.JSONMap           `gorm:"column:validation"`
	Options    datatypes.JSONSlice[string] `gorm:"column:options"`
	DivisionID *int64                      `gorm:"column:division_id;index"`
	IsGlobal   bool                        `gorm:"column:is_global;not null"`
	SortOrder  int                         `gorm:"column:sort_order;not null"`
	IsActive   bool                        `gorm:"column:is_active;not null"`
	CreatedBy  *int64                      `gorm:"column:created_by"`
	CreatedAt  time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}
