package division

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/audit"
	divisionDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/division"
)

// RepositoryAPI lookups return nil, nil when the row does not exist.
type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*divisionDatamodel.Division, error)
	GetByIDs(ctx context.Context, ids []int64, activeOnly bool) ([]*divisionDatamodel.Division, error)
	GetByID(ctx context.Context, id int64) (*divisionDatamodel.Division, error)
	GetByName(ctx context.Context, name string) (*divisionDatamodel.Division, error)
	Create(ctx context.Context, division *divisionDatamodel.Division) error
	Update(ctx context.Context, division *divisionDatamodel.Division) error
}

type Service struct {
	repo    RepositoryAPI
	auditor audit.Recorder
	logger  *slog.Logger
}

func NewService(repo RepositoryAPI, auditor audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		auditor: auditor,
		logger:  logger,
	}
}

// List returns every division to all-division roles and the active assigned
// divisions to everyone else.
func (s *Service) List(ctx context.Context, user *internal.User) ([]*Division, error) {
	scope := user.Scope()
	var (
		rows []*divisionDatamodel.Division
		err  error
	)
	switch {
	case scope.All:
		rows, err = s.repo.GetAll(ctx)
	case scope.Empty():
		return []*Division{}, nil
	default:
		rows, err = s.repo.GetByIDs(ctx, scope.DivisionIDs, true)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list divisions", "error", err)
		return nil, internal.NewInternalError("failed to list divisions", err)
	}

	out := make([]*Division, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, user *internal.User, id int64) (*Division, error) {
	if !user.Scope().Allows(id) {
		return nil, internal.ErrDivisionForbidden
	}
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) load(ctx context.Context, id int64) (*divisionDatamodel.Division, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load division", err)
	}
	if row == nil {
		return nil, internal.ErrDivisionNotFound
	}
	return row, nil
}

// Lookup returns a division without scope checks, or nil when missing.
func (s *Service) Lookup(ctx context.Context, id int64) (*Division, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load division", err)
	}
	if row == nil {
		return nil, nil
	}
	return FromDataModel(row), nil
}

// EnsureWritable checks that a division exists, is active, and is inside
// the caller's scope before records are attached to it.
func (s *Service) EnsureWritable(ctx context.Context, user *internal.User, id int64) error {
	if !user.Scope().Allows(id) {
		return internal.ErrDivisionForbidden
	}
	row, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !row.IsActive {
		return internal.ErrDivisionInactive
	}
	return nil
}

func (s *Service) Create(ctx context.Context, dto CreateDivisionDTO) (*Division, error) {
	if vErr := dto.Validate(); vErr != nil {
		return nil, vErr
	}

	existing, err := s.repo.GetByName(ctx, dto.Name)
	if err != nil {
		return nil, internal.NewInternalError("failed to check division name", err)
	}
	if existing != nil {
		return nil, internal.ErrDivisionExists
	}

	row := &divisionDatamodel.Division{
		Name:           dto.Name,
		Description:    dto.Description,
		LogoURL:        dto.LogoURL,
		PrimaryColor:   dto.PrimaryColor,
		SecondaryColor: dto.SecondaryColor,
		IsActive:       true,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to create division", "error", err)
		return nil, internal.NewInternalError("failed to create division", err)
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:     audit.ActionCreate,
		EntityType: audit.EntityDivision,
		EntityID:   audit.ID(row.ID),
		NewValues:  snapshot(row),
		DivisionID: &row.ID,
	})
	s.logger.InfoContext(ctx, "division created", "division_id", row.ID)
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateDivisionDTO) (*Division, error) {
	if vErr := dto.Validate(); vErr != nil {
		return nil, vErr
	}

	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	before := snapshot(row)

	if dto.Name != nil && *dto.Name != row.Name {
		existing, err := s.repo.GetByName(ctx, *dto.Name)
		if err != nil {
			return nil, internal.NewInternalError("failed to check division name", err)
		}
		if existing != nil && existing.ID != id {
			return nil, internal.ErrDivisionExists
		}
		row.Name = *dto.Name
	}
	if dto.Description != nil {
		row.Description = *dto.Description
	}
	if dto.LogoURL != nil {
		row.LogoURL = *dto.LogoURL
	}
	if dto.PrimaryColor != nil {
		row.PrimaryColor = *dto.PrimaryColor
	}
	if dto.SecondaryColor != nil {
		row.SecondaryColor = *dto.SecondaryColor
	}
	if dto.IsActive != nil {
		row.IsActive = *dto.IsActive
	}

	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to update division", "division_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update division", err)
	}

	action := audit.ActionUpdate
	if dto.IsActive != nil && !*dto.IsActive && before["isActive"] == true {
		action = audit.ActionDeactivate
	}
	s.auditor.Record(ctx, audit.Entry{
		Action:     action,
		EntityType: audit.EntityDivision,
		EntityID:   audit.ID(row.ID),
		OldValues:  before,
		NewValues:  snapshot(row),
		DivisionID: &row.ID,
	})
	return FromDataModel(row), nil
}

func snapshot(d *divisionDatamodel.Division) map[string]interface{} {
	return map[string]interface{}{
		"name":           d.Name,
		"description":    d.Description,
		"logoUrl":        d.LogoURL,
		"primaryColor":   d.PrimaryColor,
		"secondaryColor": d.SecondaryColor,
		"isActive":       d.IsActive,
	}
}
