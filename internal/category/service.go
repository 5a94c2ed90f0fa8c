package category

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/audit"
	"github.com/frahmantamala/contacthub/internal/auth"
	categoryDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/category"
)

type RepositoryAPI interface {
	// List returns global categories plus those in the scope.
	List(ctx context.Context, scope internal.DivisionScope) ([]*categoryDatamodel.ContactCategory, error)
	GetByID(ctx context.Context, id int64) (*categoryDatamodel.ContactCategory, error)
	GetByName(ctx context.Context, name string, divisionID *int64) (*categoryDatamodel.ContactCategory, error)
	Create(ctx context.Context, category *categoryDatamodel.ContactCategory) error
	Update(ctx context.Context, category *categoryDatamodel.ContactCategory) error
}

type DivisionGuard interface {
	EnsureWritable(ctx context.Context, user *internal.User, divisionID int64) error
}

type Service struct {
	repo      RepositoryAPI
	divisions DivisionGuard
	policy    auth.DivisionPolicy
	auditor   audit.Recorder
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, divisions DivisionGuard, auditor audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		divisions: divisions,
		auditor:   auditor,
		logger:    logger,
	}
}

func (s *Service) List(ctx context.Context, user *internal.User, divisionID *int64) ([]*Category, error) {
	scope, err := user.Scope().Narrow(divisionID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, scope)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get categories from repository", "error", err)
		return nil, internal.NewInternalError("failed to list categories", err)
	}

	out := make([]*Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	s.logger.DebugContext(ctx, "retrieved categories", "count", len(out))
	return out, nil
}

func (s *Service) load(ctx context.Context, id int64) (*categoryDatamodel.ContactCategory, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load category", err)
	}
	if row == nil {
		return nil, internal.ErrCategoryNotFound
	}
	return row, nil
}

func (s *Service) Create(ctx context.Context, user *internal.User, dto CreateCategoryDTO) (*Category, error) {
	if vErr := dto.Validate(); vErr != nil {
		return nil, vErr
	}
	if err := s.checkWritable(ctx, user, dto.DivisionID); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByName(ctx, dto.Name, dto.DivisionID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check category name", err)
	}
	if existing != nil {
		return nil, internal.ErrCategoryExists
	}

	row := &categoryDatamodel.ContactCategory{
		Name:        dto.Name,
		Color:       dto.Color,
		Description: dto.Description,
		DivisionID:  dto.DivisionID,
		IsActive:    true,
		CreatedBy:   &user.ID,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to create category", "error", err)
		return nil, internal.NewInternalError("failed to create category", err)
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:     audit.ActionCreate,
		EntityType: audit.EntityCategory,
		EntityID:   audit.ID(row.ID),
		NewValues:  snapshot(row),
	})
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, user *internal.User, id int64, dto UpdateCategoryDTO) (*Category, error) {
	if vErr := dto.Validate(); vErr != nil {
		return nil, vErr
	}
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanAccess(user, row.DivisionID); err != nil {
		return nil, err
	}
	before := snapshot(row)

	if dto.Name != nil && *dto.Name != row.Name {
		existing, err := s.repo.GetByName(ctx, *dto.Name, row.DivisionID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check category name", err)
		}
		if existing != nil && existing.ID != row.ID {
			return nil, internal.ErrCategoryExists
		}
		row.Name = *dto.Name
	}
	if dto.Color != nil {
		row.Color = *dto.Color
	}
	if dto.Description != nil {
		row.Description = *dto.Description
	}
	if dto.IsActive != nil {
		row.IsActive = *dto.IsActive
	}

	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to update category", "category_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update category", err)
	}

	action := audit.ActionUpdate
	if before["isActive"] == true && !row.IsActive {
		action = audit.ActionDeactivate
	}
	s.auditor.Record(ctx, audit.Entry{
		Action:     action,
		EntityType: audit.EntityCategory,
		EntityID:   audit.ID(id),
		OldValues:  before,
		NewValues:  snapshot(row),
	})
	return FromDataModel(row), nil
}

// EnsureAssignable checks that a contact in divisionID may reference the
// category.
func (s *Service) EnsureAssignable(ctx context.Context, id int64, divisionID *int64) error {
	row, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !FromDataModel(row).UsableIn(divisionID) {
		return internal.NewValidationFieldError("categoryId", "Category is not available for this division", internal.ErrCodeCategoryNotFound)
	}
	return nil
}

// checkWritable allows global categories for all-division roles only.
func (s *Service) checkWritable(ctx context.Context, user *internal.User, divisionID *int64) error {
	if divisionID == nil {
		return s.policy.CanAccess(user, nil)
	}
	return s.divisions.EnsureWritable(ctx, user, *divisionID)
}
