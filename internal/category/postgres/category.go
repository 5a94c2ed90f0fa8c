package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/category"
	categoryDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/category"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) category.RepositoryAPI {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) List(ctx context.Context, scope internal.DivisionScope) ([]*categoryDatamodel.ContactCategory, error) {
	var categories []*categoryDatamodel.ContactCategory
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if !scope.All {
		if len(scope.DivisionIDs) == 0 {
			q = q.Where("division_id IS NULL")
		} else {
			q = q.Where("division_id IS NULL OR division_id IN ?", scope.DivisionIDs)
		}
	}
	if err := q.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// GetByName matches case-insensitively within one division or the global set.
func (r *CategoryRepository) GetByName(ctx context.Context, name string, divisionID *int64) (*categoryDatamodel.ContactCategory, error) {
	var cat categoryDatamodel.ContactCategory
	q := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name)
	if divisionID == nil {
		q = q.Where("division_id IS NULL")
	} else {
		q = q.Where("division_id = ?", *divisionID)
	}
	if err := q.First(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category by name: %w", err)
	}
	return &cat, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*categoryDatamodel.ContactCategory, error) {
	var cat categoryDatamodel.ContactCategory
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&cat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &cat, nil
}

func (r *CategoryRepository) Create(ctx context.Context, cat *categoryDatamodel.ContactCategory) error {
	return r.db.WithContext(ctx).Create(cat).Error
}

func (r *CategoryRepository) Update(ctx context.Context, cat *categoryDatamodel.ContactCategory) error {
	return r.db.WithContext(ctx).Save(cat).Error
}
