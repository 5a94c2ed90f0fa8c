package upload

import (
	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/core/common/validation"
	"github.com/frahmantamala/contacthub/internal/fieldmap"
)

// ProcessUploadDTO triggers an import. Status is the only transition a
// client may request.
type ProcessUploadDTO struct {
	Status       string           `json:"status"`
	FieldMapping fieldmap.Mapping `json:"fieldMapping"`
	DivisionID   *int64           `json:"divisionId"`
}

func (d *ProcessUploadDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("status", d.Status).Required().OneOf(StatusProcessing)
	if d.FieldMapping == nil {
		v.AddError("fieldMapping", "fieldMapping is required", internal.ErrCodeValidationFailed)
	}
	return v.Validate()
}

type ListFilter struct {
	DivisionID *int64
	Status     string
	Limit      int
	Offset     int
}

type UploadsResponse struct {
	Uploads []*Upload `json:"uploads"`
}

// ColumnsResponse previews a stored file with a suggested mapping the
// client may edit before triggering the import.
type ColumnsResponse struct {
	Headers    []string         `json:"headers"`
	SampleRows [][]string       `json:"sampleRows"`
	TotalRows  int              `json:"totalRows"`
	Suggested  fieldmap.Mapping `json:"suggestedMapping"`
	Targets    []fieldmap.Field `json:"targets"`
}
