package branding

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/audit"
	brandingDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/branding"
	"github.com/frahmantamala/contacthub/internal/division"
)

type RepositoryAPI interface {
	// Get returns the global row, or nil when it has not been written yet.
	Get(ctx context.Context) (*brandingDatamodel.BrandingSettings, error)
	Save(ctx context.Context, settings *brandingDatamodel.BrandingSettings) error
}

type DivisionLookup interface {
	Lookup(ctx context.Context, id int64) (*division.Division, error)
}

type Service struct {
	repo      RepositoryAPI
	divisions DivisionLookup
	auditor   audit.Recorder
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, divisions DivisionLookup, auditor audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		divisions: divisions,
		auditor:   auditor,
		logger:    logger,
	}
}

// Get returns the stored global settings; an empty row is reported as
// blank settings so callers see the defaults through Resolve.
func (s *Service) Get(ctx context.Context) (*Settings, error) {
	row, err := s.repo.Get(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load branding", "error", err)
		return nil, internal.NewInternalError("failed to load branding", err)
	}
	if row == nil {
		return &Settings{}, nil
	}
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, actor *internal.User, dto UpdateBrandingDTO) (*Settings, error) {
	if vErr := dto.Validate(); vErr != nil {
		return nil, vErr
	}
	dto.Sanitize()

	row, err := s.repo.Get(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to load branding", err)
	}
	if row == nil {
		row = &brandingDatamodel.BrandingSettings{}
	}
	before := snapshot(FromDataModel(row))

	apply(&row.OrganizationName, dto.OrganizationName)
	apply(&row.LogoURL, dto.LogoURL)
	apply(&row.FaviconURL, dto.FaviconURL)
	apply(&row.PrimaryColor, dto.PrimaryColor)
	apply(&row.SecondaryColor, dto.SecondaryColor)
	apply(&row.AccentColor, dto.AccentColor)
	apply(&row.FontFamily, dto.FontFamily)
	apply(&row.CustomCSS, dto.CustomCSS)
	apply(&row.FooterText, dto.FooterText)
	if dto.ShowFooter != nil {
		row.ShowFooter = *dto.ShowFooter
	}
	if actor != nil {
		row.UpdatedBy = &actor.ID
	}

	if err := s.repo.Save(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to save branding", "error", err)
		return nil, internal.NewInternalError("failed to save branding", err)
	}

	settings := FromDataModel(row)
	s.auditor.Record(ctx, audit.Entry{
		Action:     audit.ActionUpdate,
		EntityType: audit.EntityBranding,
		EntityID:   audit.ID(row.ID),
		OldValues:  before,
		NewValues:  snapshot(settings),
	})
	return settings, nil
}

func apply(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// Effective resolves the theme for the caller's selected division. A
// missing, inactive or out-of-scope selection falls back to global branding.
func (s *Service) Effective(ctx context.Context, user *internal.User) (Theme, error) {
	global, err := s.Get(ctx)
	if err != nil {
		return Theme{}, err
	}

	var override *DivisionOverride
	if user != nil && user.SelectedDivisionID != nil && user.Scope().Allows(*user.SelectedDivisionID) {
		d, err := s.divisions.Lookup(ctx, *user.SelectedDivisionID)
		if err != nil {
			return Theme{}, err
		}
		if d != nil && d.IsActive {
			override = &DivisionOverride{
				ID:             d.ID,
				Name:           d.Name,
				LogoURL:        d.LogoURL,
				PrimaryColor:   d.PrimaryColor,
				SecondaryColor: d.SecondaryColor,
			}
		}
	}
	return Resolve(override, global), nil
}
