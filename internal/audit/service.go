package audit

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/contacthub/internal"
	auditDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/audit"
	"github.com/frahmantamala/contacthub/internal/core/events"
)

type RepositoryAPI interface {
	Create(ctx context.Context, log *auditDatamodel.AuditLog) error
	List(ctx context.Context, filter Filter) ([]*auditDatamodel.AuditLog, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Record appends an entry. A failed write is logged and does not fail the
// caller's operation.
func (s *Service) Record(ctx context.Context, entry Entry) {
	info := internal.RequestInfoFromContext(ctx)
	row := &auditDatamodel.AuditLog{
		UserID:     entry.UserID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		OldValues:  toJSONMap(entry.OldValues),
		NewValues:  toJSONMap(entry.NewValues),
		IPAddress:  info.IPAddress,
		UserAgent:  info.UserAgent,
		DivisionID: entry.DivisionID,
	}
	if row.UserID == nil {
		if user, ok := internal.UserFromContext(ctx); ok {
			id := user.ID
			row.UserID = &id
		}
	}

	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to write audit log",
			"action", entry.Action,
			"entity_type", entry.EntityType,
			"entity_id", entry.EntityID,
			"error", err)
	}
}

func (s *Service) List(ctx context.Context, filter Filter) (*ListResponse, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list audit logs", "error", err)
		return nil, internal.NewInternalError("failed to list audit logs", err)
	}

	logs := make([]Log, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, FromDataModel(row))
	}
	return &ListResponse{Logs: logs, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// HandleImportEvent records the outcome of a background import.
func (s *Service) HandleImportEvent(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case *events.ImportCompletedEvent:
		s.Record(ctx, Entry{
			Action:     ActionImportCompleted,
			EntityType: EntityUpload,
			EntityID:   ID(e.UploadID),
			NewValues: map[string]interface{}{
				"recordsTotal":    e.Total,
				"recordsImported": e.Imported,
				"recordsSkipped":  e.Skipped,
			},
			DivisionID: e.DivisionID,
			UserID:     &e.UploadedBy,
		})
	case *events.ImportFailedEvent:
		s.Record(ctx, Entry{
			Action:     ActionImportFailed,
			EntityType: EntityUpload,
			EntityID:   ID(e.UploadID),
			NewValues:  map[string]interface{}{"errorMessage": e.Reason},
			DivisionID: e.DivisionID,
			UserID:     &e.UploadedBy,
		})
	default:
		s.logger.WarnContext(ctx, "unexpected event for audit", "event_type", event.EventType())
	}
	return nil
}
