package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/frahmantamala/contacthub/internal"
	contactDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/contact"
	uploadDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/upload"
	"github.com/frahmantamala/contacthub/internal/importer"
	"github.com/frahmantamala/contacthub/internal/upload"
)

// UploadRepository backs both the upload endpoints and the import runner.
type UploadRepository struct {
	db *gorm.DB
}

func NewUploadRepository(db *gorm.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

var (
	_ upload.RepositoryAPI = (*UploadRepository)(nil)
	_ importer.UploadStore = (*UploadRepository)(nil)
)

func (r *UploadRepository) Create(ctx context.Context, u *uploadDatamodel.Upload) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UploadRepository) List(ctx context.Context, scope internal.DivisionScope, ownerID int64, filter upload.ListFilter) ([]*uploadDatamodel.Upload, error) {
	var uploads []*uploadDatamodel.Upload
	q := r.db.WithContext(ctx).Model(&uploadDatamodel.Upload{})
	switch {
	case filter.DivisionID != nil:
		q = q.Where("division_id = ?", *filter.DivisionID)
	case !scope.All && len(scope.DivisionIDs) > 0:
		q = q.Where("division_id IN ? OR uploaded_by = ?", scope.DivisionIDs, ownerID)
	case !scope.All:
		q = q.Where("uploaded_by = ?", ownerID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if err := q.Order("created_at DESC, id DESC").Find(&uploads).Error; err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return uploads, nil
}

func (r *UploadRepository) GetByID(ctx context.Context, id int64) (*uploadDatamodel.Upload, error) {
	var u uploadDatamodel.Upload
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get upload: %w", err)
	}
	return &u, nil
}

// MarkProcessing is a single conditional UPDATE so that overlapping triggers
// cannot both claim the upload.
func (r *UploadRepository) MarkProcessing(ctx context.Context, id int64, mapping datatypes.JSONMap, divisionID *int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&uploadDatamodel.Upload{}).
		Where("id = ? AND status = ?", id, importer.StatusPending).
		Updates(map[string]interface{}{
			"status":        importer.StatusProcessing,
			"field_mapping": mapping,
			"division_id":   divisionID,
			"error_message": nil,
		})
	if res.Error != nil {
		return false, fmt.Errorf("mark upload processing: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *UploadRepository) Complete(ctx context.Context, id int64, result importer.Result, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&uploadDatamodel.Upload{}).
		Where("id = ? AND status = ?", id, importer.StatusProcessing).
		Updates(map[string]interface{}{
			"status":           importer.StatusCompleted,
			"records_total":    result.Total,
			"records_imported": result.Imported,
			"records_skipped":  result.Skipped,
			"processed_at":     at,
		}).Error
	if err != nil {
		return fmt.Errorf("complete upload: %w", err)
	}
	return nil
}

// Fail never overwrites a terminal state.
func (r *UploadRepository) Fail(ctx context.Context, id int64, message string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&uploadDatamodel.Upload{}).
		Where("id = ? AND status IN ?", id, []string{importer.StatusPending, importer.StatusProcessing}).
		Updates(map[string]interface{}{
			"status":        importer.StatusFailed,
			"error_message": message,
			"processed_at":  at,
		}).Error
	if err != nil {
		return fmt.Errorf("fail upload: %w", err)
	}
	return nil
}

func (r *UploadRepository) FailProcessing(ctx context.Context, message string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&uploadDatamodel.Upload{}).
		Where("status = ?", importer.StatusProcessing).
		Updates(map[string]interface{}{
			"status":        importer.StatusFailed,
			"error_message": message,
			"processed_at":  at,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("fail processing uploads: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *UploadRepository) Delete(ctx context.Context, id int64) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND status <> ?", id, importer.StatusProcessing).Delete(&uploadDatamodel.Upload{})
		if res.Error != nil {
			return fmt.Errorf("delete upload: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		if err := tx.Model(&contactDatamodel.Contact{}).
			Where("upload_id = ?", id).
			Update("upload_id", nil).Error; err != nil {
			return fmt.Errorf("detach contacts: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}
