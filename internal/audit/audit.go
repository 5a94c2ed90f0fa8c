package audit

import (
	"context"
	"strconv"
	"time"

	"gorm.io/datatypes"

	auditDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/audit"
)

const (
	ActionLogin            = "login"
	ActionLoginFailed      = "login_failed"
	ActionLogout           = "logout"
	ActionCreate           = "create"
	ActionUpdate           = "update"
	ActionDeactivate       = "deactivate"
	ActionDelete           = "delete"
	ActionBulkDelete       = "bulk_delete"
	ActionResetPassword    = "reset_password"
	ActionAssignDivisions  = "assign_divisions"
	ActionUploadCreated    = "upload_created"
	ActionUploadProcessing = "upload_processing"
	ActionUploadDeleted    = "upload_deleted"
	ActionImportCompleted  = "import_completed"
	ActionImportFailed     = "import_failed"
)

const (
	EntityUser        = "user"
	EntityDivision    = "division"
	EntityBranding    = "branding"
	EntityCategory    = "contact_category"
	EntityCustomField = "custom_field"
	EntityUpload      = "upload"
	EntityContact     = "contact"
	EntitySession     = "session"
)

// Entry describes one mutating action. Actor and client details are taken
// from the request context unless UserID is set explicitly.
type Entry struct {
	Action     string
	EntityType string
	EntityID   string
	OldValues  map[string]interface{}
	NewValues  map[string]interface{}
	DivisionID *int64
	UserID     *int64
}

// Recorder is implemented by Service; mutating services depend on it.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

type Log struct {
	ID         int64                  `json:"id"`
	UserID     *int64                 `json:"userId"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entityType"`
	EntityID   string                 `json:"entityId"`
	OldValues  map[string]interface{} `json:"oldValues,omitempty"`
	NewValues  map[string]interface{} `json:"newValues,omitempty"`
	IPAddress  string                 `json:"ipAddress"`
	UserAgent  string                 `json:"userAgent"`
	DivisionID *int64                 `json:"divisionId"`
	CreatedAt  time.Time              `json:"createdAt"`
}

type Filter struct {
	EntityType string
	EntityID   string
	Action     string
	UserID     *int64
	Limit      int
	Offset     int
}

type ListResponse struct {
	Logs   []Log `json:"logs"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

func ID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func FromDataModel(m *auditDatamodel.AuditLog) Log {
	return Log{
		ID:         m.ID,
		UserID:     m.UserID,
		Action:     m.Action,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		OldValues:  m.OldValues,
		NewValues:  m.NewValues,
		IPAddress:  m.IPAddress,
		UserAgent:  m.UserAgent,
		DivisionID: m.DivisionID,
		CreatedAt:  m.CreatedAt,
	}
}

func toJSONMap(m map[string]interface{}) datatypes.JSONMap {
	if len(m) == 0 {
		return nil
	}
	return datatypes.JSONMap(m)
}
