// Package importer turns a mapped upload into contact rows in the
// background.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/frahmantamala/contacthub/internal/core/common/validation"
	contactDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/contact"
	uploadDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/upload"
	"github.com/frahmantamala/contacthub/internal/core/events"
	"github.com/frahmantamala/contacthub/internal/customfield"
	"github.com/frahmantamala/contacthub/internal/fieldmap"
	"github.com/frahmantamala/contacthub/internal/spreadsheet"
	"github.com/frahmantamala/contacthub/pkg/logger"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Result is the outcome written back to the upload.
type Result struct {
	Total    int
	Imported int
	Skipped  int
}

type UploadStore interface {
	GetByID(ctx context.Context, id int64) (*uploadDatamodel.Upload, error)
	Complete(ctx context.Context, id int64, result Result, at time.Time) error
	Fail(ctx context.Context, id int64, message string, at time.Time) error
	FailProcessing(ctx context.Context, message string, at time.Time) (int64, error)
}

type ContactStore interface {
	Create(ctx context.Context, contact *contactDatamodel.Contact) error
}

type FileStore interface {
	Open(name string) (io.ReadCloser, error)
}

type FieldSource interface {
	ForDivision(ctx context.Context, divisionID *int64) ([]*customfield.Definition, error)
}

type Runner struct {
	uploads   UploadStore
	contacts  ContactStore
	files     FileStore
	fields    FieldSource
	publisher events.Publisher
	metrics   *Metrics
	now       func() time.Time
	logger    *slog.Logger
}

func NewRunner(uploads UploadStore, contacts ContactStore, files FileStore, fields FieldSource, publisher events.Publisher, metrics *Metrics, logger *slog.Logger) *Runner {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Runner{
		uploads:   uploads,
		contacts:  contacts,
		files:     files,
		fields:    fields,
		publisher: publisher,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// Process adapts Run to the dispatcher.
func (r *Runner) Process(ctx context.Context, job Job) {
	if err := r.Run(ctx, job.UploadID); err != nil {
		r.logger.ErrorContext(ctx, "import job failed", "upload_id", job.UploadID, "error", err)
	}
}

// Run imports one upload that has already been moved to processing. Any
// error before rows are read fails the upload; per-row problems only count
// as skipped.
func (r *Runner) Run(ctx context.Context, uploadID int64) error {
	started := time.Now()
	lg := logger.From(ctx).With("upload_id", uploadID)

	up, err := r.uploads.GetByID(ctx, uploadID)
	if err != nil {
		return fmt.Errorf("load upload: %w", err)
	}
	if up == nil {
		return fmt.Errorf("upload %d not found", uploadID)
	}
	if up.Status != StatusProcessing {
		lg.WarnContext(ctx, "upload is not processing, skipping import", "status", up.Status)
		return nil
	}

	sheet, defs, err := r.prepare(ctx, up)
	if err != nil {
		return r.fail(ctx, up, err.Error(), started)
	}

	mapping := mappingFrom(up.FieldMapping)
	customKeys := make(map[string]*customfield.Definition, len(defs))
	for _, d := range defs {
		customKeys[d.Key] = d
	}

	var result Result
	for i, row := range sheet.Rows {
		if ctx.Err() != nil {
			return r.fail(ctx, up, "import interrupted before all rows were processed", started)
		}
		if spreadsheet.IsBlank(row) {
			continue
		}
		result.Total++

		contact, dropped, reason := buildContact(sheet.Record(row), mapping, customKeys)
		if contact == nil {
			result.Skipped++
			lg.DebugContext(ctx, "row skipped", "row", i+2, "reason", reason)
			continue
		}
		for _, msg := range dropped {
			lg.DebugContext(ctx, "custom value dropped", "row", i+2, "reason", msg)
		}
		contact.DivisionID = up.DivisionID
		contact.UploadID = &up.ID
		contact.CreatedBy = &up.UploadedBy

		if err := r.contacts.Create(ctx, contact); err != nil {
			result.Skipped++
			lg.WarnContext(ctx, "row insert failed", "row", i+2, "error", err)
			continue
		}
		result.Imported++
	}

	if err := r.uploads.Complete(ctx, up.ID, result, r.now()); err != nil {
		return fmt.Errorf("complete upload: %w", err)
	}
	r.metrics.observe(StatusCompleted, time.Since(started).Seconds(), result.Imported, result.Skipped)
	lg.InfoContext(ctx, "import completed", "total", result.Total, "imported", result.Imported, "skipped", result.Skipped)

	r.publish(ctx, events.NewImportCompletedEvent(up.ID, up.UploadedBy, up.DivisionID, result.Total, result.Imported, result.Skipped))
	return nil
}

func (r *Runner) prepare(ctx context.Context, up *uploadDatamodel.Upload) (*spreadsheet.Sheet, []*customfield.Definition, error) {
	if len(up.FieldMapping) == 0 {
		return nil, nil, errors.New("upload has no field mapping")
	}

	f, err := r.files.Open(up.FileName)
	if err != nil {
		return nil, nil, errors.New("the uploaded file could not be opened")
	}
	defer f.Close()

	sheet, err := spreadsheet.Read(f, filepath.Ext(up.FileName))
	if err != nil {
		if errors.Is(err, spreadsheet.ErrLegacyXLS) || errors.Is(err, spreadsheet.ErrNoHeader) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("the file could not be read: %w", err)
	}

	defs, err := r.fields.ForDivision(ctx, up.DivisionID)
	if err != nil {
		return nil, nil, errors.New("custom field definitions could not be loaded")
	}
	return sheet, defs, nil
}

func (r *Runner) fail(ctx context.Context, up *uploadDatamodel.Upload, message string, started time.Time) error {
	r.metrics.observe(StatusFailed, time.Since(started).Seconds(), 0, 0)
	logger.From(ctx).WarnContext(ctx, "import failed", "upload_id", up.ID, "reason", message)

	// The job context may already be cancelled; the failure must still land.
	dctx := logger.Detach(ctx)
	if err := r.uploads.Fail(dctx, up.ID, message, r.now()); err != nil {
		return fmt.Errorf("mark upload failed: %w", err)
	}
	r.publish(dctx, events.NewImportFailedEvent(up.ID, up.UploadedBy, up.DivisionID, message))
	return nil
}

func (r *Runner) publish(ctx context.Context, event events.Event) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, event); err != nil {
		r.logger.WarnContext(ctx, "failed to publish import event", "event_type", event.EventType(), "error", err)
	}
}

// RecoverInterrupted fails uploads left processing by a previous process.
func (r *Runner) RecoverInterrupted(ctx context.Context) (int64, error) {
	n, err := r.uploads.FailProcessing(ctx, "import was interrupted by a server restart; upload the file again", r.now())
	if err != nil {
		return 0, fmt.Errorf("recover interrupted imports: %w", err)
	}
	if n > 0 {
		r.logger.WarnContext(ctx, "marked interrupted imports as failed", "count", n)
	}
	return n, nil
}

func mappingFrom(m datatypes.JSONMap) fieldmap.Mapping {
	out := make(fieldmap.Mapping, len(m))
	for column, target := range m {
		if s, ok := target.(string); ok {
			out[column] = s
		}
	}
	return out
}

// buildContact copies mapped cells into a contact. Custom values that do not
// fit their definition are left out and reported in dropped. It returns a nil
// contact and a reason when the row cannot be imported.
func buildContact(record map[string]string, mapping fieldmap.Mapping, custom map[string]*customfield.Definition) (c *contactDatamodel.Contact, dropped []string, reason string) {
	c = &contactDatamodel.Contact{IsActive: true, CustomFields: datatypes.JSONMap{}}
	for column, target := range mapping {
		if fieldmap.IsSkip(target) {
			continue
		}
		value := strings.TrimSpace(record[column])
		if value == "" {
			continue
		}
		if key, ok := customfield.KeyFromTarget(target); ok {
			def, known := custom[key]
			if !known {
				continue
			}
			coerced, msg := def.Coerce(value)
			if msg != "" {
				dropped = append(dropped, msg)
				continue
			}
			c.CustomFields[key] = coerced
			continue
		}
		SetField(c, target, value)
	}

	c.Email = strings.ToLower(c.Email)
	if c.Email == "" {
		return nil, nil, "missing email"
	}
	if !validation.IsEmail(c.Email) {
		return nil, nil, "invalid email"
	}
	return c, dropped, ""
}

// SetField assigns a canonical field by its mapping key.
func SetField(c *contactDatamodel.Contact, key, value string) bool {
	switch key {
	case "firstName":
		c.FirstName = value
	case "lastName":
		c.LastName = value
	case "email":
		c.Email = value
	case "phone":
		c.Phone = value
	case "company":
		c.Company = value
	case "jobTitle":
		c.JobTitle = value
	case "address":
		c.Address = value
	case "city":
		c.City = value
	case "state":
		c.State = value
	case "postalCode":
		c.PostalCode = value
	case "country":
		c.Country = value
	case "notes":
		c.Notes = value
	default:
		return false
	}
	return true
}
