package upload

import (
	"time"

	uploadDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/upload"
	"github.com/frahmantamala/contacthub/internal/fieldmap"
	"github.com/frahmantamala/contacthub/internal/importer"
)

const (
	StatusPending    = importer.StatusPending
	StatusProcessing = importer.StatusProcessing
	StatusCompleted  = importer.StatusCompleted
	StatusFailed     = importer.StatusFailed
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

type Upload struct {
	ID              int64            `json:"id"`
	OriginalName    string           `json:"originalName"`
	FileSize        int64            `json:"fileSize"`
	MimeType        string           `json:"mimeType"`
	Status          string           `json:"status"`
	RecordsTotal    int              `json:"recordsTotal"`
	RecordsImported int              `json:"recordsImported"`
	RecordsSkipped  int              `json:"recordsSkipped"`
	ErrorMessage    *string          `json:"errorMessage"`
	FieldMapping    fieldmap.Mapping `json:"fieldMapping,omitempty"`
	UploadedBy      int64            `json:"uploadedBy"`
	DivisionID      *int64           `json:"divisionId"`
	ProcessedAt     *time.Time       `json:"processedAt"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

func FromDataModel(u *uploadDatamodel.Upload) *Upload {
	out := &Upload{
		ID:              u.ID,
		OriginalName:    u.OriginalName,
		FileSize:        u.FileSize,
		MimeType:        u.MimeType,
		Status:          u.Status,
		RecordsTotal:    u.RecordsTotal,
		RecordsImported: u.RecordsImported,
		RecordsSkipped:  u.RecordsSkipped,
		ErrorMessage:    u.ErrorMessage,
		UploadedBy:      u.UploadedBy,
		DivisionID:      u.DivisionID,
		ProcessedAt:     u.ProcessedAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
	if len(u.FieldMapping) > 0 {
		out.FieldMapping = make(fieldmap.Mapping, len(u.FieldMapping))
		for column, target := range u.FieldMapping {
			if s, ok := target.(string); ok {
				out.FieldMapping[column] = s
			}
		}
	}
	return out
}

func snapshot(u *uploadDatamodel.Upload) map[string]interface{} {
	return map[string]interface{}{
		"originalName": u.OriginalName,
		"fileSize":     u.FileSize,
		"status":       u.Status,
		"divisionId":   u.DivisionID,
	}
}
