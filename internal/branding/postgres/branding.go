package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/frahmantamala/contacthub/internal/branding"
	brandingDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/branding"
)

type BrandingRepository struct {
	db *gorm.DB
}

func NewBrandingRepository(db *gorm.DB) branding.RepositoryAPI {
	return &BrandingRepository{db: db}
}

// Get returns the lowest-id row; only one global row is ever written.
func (r *BrandingRepository) Get(ctx context.Context) (*brandingDatamodel.BrandingSettings, error) {
	var row brandingDatamodel.BrandingSettings
	err := r.db.WithContext(ctx).Order("id ASC").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get branding: %w", err)
	}
	return &row, nil
}

func (r *BrandingRepository) Save(ctx context.Context, row *brandingDatamodel.BrandingSettings) error {
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return fmt.Errorf("save branding: %w", err)
	}
	return nil
}
