package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeImportCompleted = "import.completed"
	EventTypeImportFailed    = "import.failed"
)

type ImportCompletedEvent struct {
	BaseEvent
	UploadID   int64  `json:"upload_id"`
	UploadedBy int64  `json:"uploaded_by"`
	DivisionID *int64 `json:"division_id,omitempty"`
	Total      int    `json:"total"`
	Imported   int    `json:"imported"`
	Skipped    int    `json:"skipped"`
}

func NewImportCompletedEvent(uploadID, uploadedBy int64, divisionID *int64, total, imported, skipped int) *ImportCompletedEvent {
	return &ImportCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeImportCompleted,
			Timestamp: time.Now().UTC(),
			Data: map[string]interface{}{
				"upload_id": uploadID,
				"total":     total,
				"imported":  imported,
				"skipped":   skipped,
			},
		},
		UploadID:   uploadID,
		UploadedBy: uploadedBy,
		DivisionID: divisionID,
		Total:      total,
		Imported:   imported,
		Skipped:    skipped,
	}
}

type ImportFailedEvent struct {
	BaseEvent
	UploadID   int64  `json:"upload_id"`
	UploadedBy int64  `json:"uploaded_by"`
	DivisionID *int64 `json:"division_id,omitempty"`
	Reason     string `json:"reason"`
}

func NewImportFailedEvent(uploadID, uploadedBy int64, divisionID *int64, reason string) *ImportFailedEvent {
	return &ImportFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeImportFailed,
			Timestamp: time.Now().UTC(),
			Data: map[string]interface{}{
				"upload_id": uploadID,
				"reason":    reason,
			},
		},
		UploadID:   uploadID,
		UploadedBy: uploadedBy,
		DivisionID: divisionID,
		Reason:     reason,
	}
}
