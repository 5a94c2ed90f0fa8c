package upload

import (
	"time"

	"gorm.io/datatypes"
)

type Upload struct {
	ID              int64             `gorm:"primaryKey"`
	FileName        string            `gorm:"column:file_name;not null"`
	OriginalName    string            `gorm:"column:original_name;not null"`
	FileSize        int64             `gorm:"column:file_size;not null"`
	MimeType        string            `gorm:"column:mime_type"`
	Status          string            `gorm:"column:status;not null;index"`
	RecordsTotal    int               `gorm:"column:records_total;not null"`
	RecordsImported int               `gorm:"column:records_imported;not null"`
	RecordsSkipped  int               `gorm:"column:records_skipped;not null"`
	ErrorMessage    *string           `gorm:"column:error_message"`
	FieldMapping    datatypes.JSONMap `gorm:"column:field_mapping"`
	UploadedBy      int64             `gorm:"column:uploaded_by;not null;index"`
	DivisionID      *int64            `gorm:"column:division_id;index"`
	ProcessedAt     *time.Time        `gorm:"column:processed_at"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
