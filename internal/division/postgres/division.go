package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	divisionDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/division"
	"github.com/frahmantamala/contacthub/internal/division"
)

type DivisionRepository struct {
	db *gorm.DB
}

func NewDivisionRepository(db *gorm.DB) division.RepositoryAPI {
	return &DivisionRepository{db: db}
}

func (r *DivisionRepository) GetAll(ctx context.Context) ([]*divisionDatamodel.Division, error) {
	var rows []*divisionDatamodel.Division
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list divisions: %w", err)
	}
	return rows, nil
}

func (r *DivisionRepository) GetByIDs(ctx context.Context, ids []int64, activeOnly bool) ([]*divisionDatamodel.Division, error) {
	var rows []*divisionDatamodel.Division
	if len(ids) == 0 {
		return rows, nil
	}
	q := r.db.WithContext(ctx).Where("id IN ?", ids)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list divisions by id: %w", err)
	}
	return rows, nil
}

func (r *DivisionRepository) GetByID(ctx context.Context, id int64) (*divisionDatamodel.Division, error) {
	var d divisionDatamodel.Division
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get division: %w", err)
	}
	return &d, nil
}

func (r *DivisionRepository) GetByName(ctx context.Context, name string) (*divisionDatamodel.Division, error) {
	var d divisionDatamodel.Division
	err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get division by name: %w", err)
	}
	return &d, nil
}

func (r *DivisionRepository) Create(ctx context.Context, d *divisionDatamodel.Division) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DivisionRepository) Update(ctx context.Context, d *divisionDatamodel.Division) error {
	return r.db.WithContext(ctx).Save(d).Error
}
