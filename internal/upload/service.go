package upload

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/audit"
	"github.com/frahmantamala/contacthub/internal/auth"
	uploadDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/upload"
	"github.com/frahmantamala/contacthub/internal/customfield"
	"github.com/frahmantamala/contacthub/internal/fieldmap"
	"github.com/frahmantamala/contacthub/internal/importer"
	"github.com/frahmantamala/contacthub/internal/spreadsheet"
)

const (
	previewRows           = 5
	DefaultMaxUploadBytes = 10 << 20
)

type RepositoryAPI interface {
	Create(ctx context.Context, upload *uploadDatamodel.Upload) error
	// List returns uploads in scope plus the user's own, newest first.
	List(ctx context.Context, scope internal.DivisionScope, ownerID int64, filter ListFilter) ([]*uploadDatamodel.Upload, error)
	GetByID(ctx context.Context, id int64) (*uploadDatamodel.Upload, error)
	// MarkProcessing moves a pending upload to processing. It reports false
	// when the upload was no longer pending.
	MarkProcessing(ctx context.Context, id int64, mapping datatypes.JSONMap, divisionID *int64) (bool, error)
	Fail(ctx context.Context, id int64, message string, at time.Time) error
	// Delete removes an upload that is not processing and detaches its
	// contacts. It reports false when nothing was deleted.
	Delete(ctx context.Context, id int64) (bool, error)
}

type FileStore interface {
	Save(name string, r io.Reader) (int64, error)
	Open(name string) (io.ReadCloser, error)
	Delete(name string) error
}

type DivisionGuard interface {
	EnsureWritable(ctx context.Context, user *internal.User, divisionID int64) error
}

type FieldSource interface {
	ForDivision(ctx context.Context, divisionID *int64) ([]*customfield.Definition, error)
}

type Queue interface {
	Submit(uploadID int64) error
}

type Service struct {
	repo      RepositoryAPI
	files     FileStore
	divisions DivisionGuard
	fields    FieldSource
	queue     Queue
	policy    auth.DivisionPolicy
	auditor   audit.Recorder
	logger    *slog.Logger
	maxBytes  int64
	now       func() time.Time
}

func NewService(repo RepositoryAPI, files FileStore, divisions DivisionGuard, fields FieldSource, queue Queue, auditor audit.Recorder, logger *slog.Logger, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &Service{
		repo:      repo,
		files:     files,
		divisions: divisions,
		fields:    fields,
		queue:     queue,
		auditor:   auditor,
		logger:    logger,
		maxBytes:  maxBytes,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

func (s *Service) Create(ctx context.Context, user *internal.User, in Intake) (*Upload, error) {
	if in.Size > s.maxBytes {
		return nil, internal.ErrFileTooLarge
	}
	ext, ok := extensionOf(in.OriginalName)
	if !ok {
		return nil, internal.ErrInvalidFileType
	}
	if in.DivisionID != nil {
		if err := s.divisions.EnsureWritable(ctx, user, *in.DivisionID); err != nil {
			return nil, err
		}
	}

	content, mimeType, accepted, err := sniff(in.Content, ext)
	if err != nil {
		return nil, internal.NewInternalError("failed to read uploaded file", err)
	}
	if !accepted {
		s.logger.WarnContext(ctx, "rejected upload with mismatched content", "original_name", in.OriginalName, "mime_type", mimeType)
		return nil, internal.ErrInvalidFileType
	}

	name := uuid.NewString() + ext
	written, err := s.files.Save(name, io.LimitReader(content, s.maxBytes+1))
	if err != nil {
		return nil, internal.NewInternalError("failed to store uploaded file", err)
	}
	if written > s.maxBytes {
		s.removeFile(ctx, name)
		return nil, internal.ErrFileTooLarge
	}

	row := &uploadDatamodel.Upload{
		FileName:     name,
		OriginalName: filepath.Base(in.OriginalName),
		FileSize:     written,
		MimeType:     mimeType,
		Status:       StatusPending,
		UploadedBy:   user.ID,
		DivisionID:   in.DivisionID,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.removeFile(ctx, name)
		s.logger.ErrorContext(ctx, "failed to create upload", "error", err)
		return nil, internal.NewInternalError("failed to create upload", err)
	}

	s.logger.InfoContext(ctx, "upload stored", "upload_id", row.ID, "file_size", written, "mime_type", mimeType)
	s.auditor.Record(ctx, audit.Entry{
		Action:     audit.ActionUploadCreated,
		EntityType: audit.EntityUpload,
		EntityID:   audit.ID(row.ID),
		NewValues:  snapshot(row),
		DivisionID: row.DivisionID,
	})
	return FromDataModel(row), nil
}

func (s *Service) List(ctx context.Context, user *internal.User, filter ListFilter) ([]*Upload, error) {
	if filter.Status != "" && !ValidStatus(filter.Status) {
		return nil, internal.NewValidationFieldError("status", "status must be one of: pending, processing, completed, failed", internal.ErrCodeValidationFailed)
	}
	scope, err := user.Scope().Narrow(filter.DivisionID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, scope, user.ID, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list uploads", "error", err)
		return nil, internal.NewInternalError("failed to list uploads", err)
	}
	out := make([]*Upload, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

// visible loads an upload the user may see: one in scope, or their own.
func (s *Service) visible(ctx context.Context, user *internal.User, id int64) (*uploadDatamodel.Upload, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load upload", err)
	}
	if row == nil {
		return nil, internal.ErrUploadNotFound
	}
	if row.UploadedBy != user.ID {
		if err := s.policy.CanAccess(user, row.DivisionID); err != nil {
			return nil, err
		}
	}
	return row, nil
}

func (s *Service) Get(ctx context.Context, user *internal.User, id int64) (*Upload, error) {
	row, err := s.visible(ctx, user, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

// Columns previews the stored file and suggests a mapping.
func (s *Service) Columns(ctx context.Context, user *internal.User, id int64) (*ColumnsResponse, error) {
	row, err := s.visible(ctx, user, id)
	if err != nil {
		return nil, err
	}

	f, err := s.files.Open(row.FileName)
	if err != nil {
		s.logger.ErrorContext(ctx, "stored upload file missing", "upload_id", id, "error", err)
		return nil, internal.NewValidationError("The uploaded file could not be opened", internal.ErrCodeUnreadableFile)
	}
	defer f.Close()

	sheet, err := spreadsheet.Read(f, filepath.Ext(row.FileName))
	if err != nil {
		return nil, internal.NewValidationError(readError(err), internal.ErrCodeUnreadableFile).WithCause(err)
	}

	defs, err := s.fields.ForDivision(ctx, row.DivisionID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load custom fields", err)
	}

	total := 0
	for _, r := range sheet.Rows {
		if !spreadsheet.IsBlank(r) {
			total++
		}
	}
	return &ColumnsResponse{
		Headers:    sheet.Headers,
		SampleRows: sheet.Preview(previewRows),
		TotalRows:  total,
		Suggested:  fieldmap.AutoMap(sheet.Headers, defs),
		Targets:    fieldmap.Targets(defs),
	}, nil
}

func readError(err error) string {
	if errors.Is(err, spreadsheet.ErrLegacyXLS) || errors.Is(err, spreadsheet.ErrNoHeader) {
		return err.Error()
	}
	return "The file could not be read"
}

// Process validates the mapping, claims the upload and queues the import.
func (s *Service) Process(ctx context.Context, user *internal.User, id int64, dto ProcessUploadDTO) (*Upload, error) {
	if vErr := dto.Validate(); vErr != nil {
		return nil, vErr
	}
	row, err := s.visible(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if row.Status != StatusPending {
		return nil, internal.ErrUploadNotPending
	}

	defs, err := s.fields.ForDivision(ctx, dto.DivisionID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load custom fields", err)
	}
	if vErr := fieldmap.Validate(dto.FieldMapping, dto.DivisionID, defs); vErr != nil {
		return nil, vErr
	}
	if err := s.divisions.EnsureWritable(ctx, user, *dto.DivisionID); err != nil {
		return nil, err
	}

	mapping := make(datatypes.JSONMap, len(dto.FieldMapping))
	for column, target := range dto.FieldMapping {
		mapping[column] = target
	}
	claimed, err := s.repo.MarkProcessing(ctx, id, mapping, dto.DivisionID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to mark upload processing", "upload_id", id, "error", err)
		return nil, internal.NewInternalError("failed to start import", err)
	}
	if !claimed {
		return nil, internal.ErrUploadNotPending
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:     audit.ActionUploadProcessing,
		EntityType: audit.EntityUpload,
		EntityID:   audit.ID(id),
		OldValues:  map[string]interface{}{"status": StatusPending},
		NewValues:  map[string]interface{}{"status": StatusProcessing, "fieldMapping": dto.FieldMapping, "divisionId": dto.DivisionID},
		DivisionID: dto.DivisionID,
	})

	if err := s.queue.Submit(id); err != nil {
		s.logger.WarnContext(ctx, "import could not be queued", "upload_id", id, "error", err)
		if failErr := s.repo.Fail(ctx, id, queueFailure(err), s.now()); failErr != nil {
			return nil, internal.NewInternalError("failed to record import failure", failErr)
		}
	}

	row, err = s.repo.GetByID(ctx, id)
	if err != nil || row == nil {
		return nil, internal.NewInternalError("failed to reload upload", err)
	}
	return FromDataModel(row), nil
}

func queueFailure(err error) string {
	if errors.Is(err, importer.ErrQueueFull) {
		return importer.ErrQueueFull.Error()
	}
	return "import could not be started"
}

func (s *Service) Delete(ctx context.Context, user *internal.User, id int64) error {
	row, err := s.visible(ctx, user, id)
	if err != nil {
		return err
	}
	if row.Status == StatusProcessing {
		return internal.ErrUploadProcessing
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to delete upload", "upload_id", id, "error", err)
		return internal.NewInternalError("failed to delete upload", err)
	}
	if !deleted {
		return internal.ErrUploadProcessing
	}
	s.removeFile(ctx, row.FileName)

	s.auditor.Record(ctx, audit.Entry{
		Action:     audit.ActionUploadDeleted,
		EntityType: audit.EntityUpload,
		EntityID:   audit.ID(id),
		OldValues:  snapshot(row),
		DivisionID: row.DivisionID,
	})
	return nil
}

func (s *Service) removeFile(ctx context.Context, name string) {
	if err := s.files.Delete(name); err != nil {
		s.logger.WarnContext(ctx, "failed to remove stored file", "file_name", name, "error", err)
	}
}
