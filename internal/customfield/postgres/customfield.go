package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/frahmantamala/contacthub/internal"
	customfieldDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/customfield"
	"github.com/frahmantamala/contacthub/internal/customfield"
)

type CustomFieldRepository struct {
	db *gorm.DB
}

func NewCustomFieldRepository(db *gorm.DB) customfield.RepositoryAPI {
	return &CustomFieldRepository{db: db}
}

func (r *CustomFieldRepository) List(ctx context.Context, scope internal.DivisionScope, activeOnly bool) ([]*customfieldDatamodel.CustomFieldDefinition, error) {
	var rows []*customfieldDatamodel.CustomFieldDefinition
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if !scope.All {
		if len(scope.DivisionIDs) == 0 {
			q = q.Where("division_id IS NULL")
		} else {
			q = q.Where("division_id IS NULL OR division_id IN ?", scope.DivisionIDs)
		}
	}
	if err := q.Order("sort_order ASC, label ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list custom fields: %w", err)
	}
	return rows, nil
}

func (r *CustomFieldRepository) GetByID(ctx context.Context, id int64) (*customfieldDatamodel.CustomFieldDefinition, error) {
	var row customfieldDatamodel.CustomFieldDefinition
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get custom field: %w", err)
	}
	return &row, nil
}

// GetByKey looks inside one scope: a division's own keys or the global set.
func (r *CustomFieldRepository) GetByKey(ctx context.Context, key string, divisionID *int64) (*customfieldDatamodel.CustomFieldDefinition, error) {
	var row customfieldDatamodel.CustomFieldDefinition
	q := r.db.WithContext(ctx).Where("key = ?", key)
	if divisionID == nil {
		q = q.Where("division_id IS NULL")
	} else {
		q = q.Where("division_id = ?", *divisionID)
	}
	if err := q.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get custom field by key: %w", err)
	}
	return &row, nil
}

func (r *CustomFieldRepository) Create(ctx context.Context, row *customfieldDatamodel.CustomFieldDefinition) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *CustomFieldRepository) Update(ctx context.Context, row *customfieldDatamodel.CustomFieldDefinition) error {
	return r.db.WithContext(ctx).Save(row).Error
}
