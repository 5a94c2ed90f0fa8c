package customfield

import (
	"context"
	"log/slog"
	"strings"

	"gorm.io/datatypes"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/audit"
	customfieldDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/customfield"
)

type RepositoryAPI interface {
	// List returns global definitions plus those in the scope, ordered by
	// sort order then label.
	List(ctx context.Context, scope internal.DivisionScope, activeOnly bool) ([]*customfieldDatamodel.CustomFieldDefinition, error)
	GetByID(ctx context.Context, id int64) (*customfieldDatamodel.CustomFieldDefinition, error)
	GetByKey(ctx context.Context, key string, divisionID *int64) (*customfieldDatamodel.CustomFieldDefinition, error)
	Create(ctx context.Context, def *customfieldDatamodel.CustomFieldDefinition) error
	Update(ctx context.Context, def *customfieldDatamodel.CustomFieldDefinition) error
}

type DivisionGuard interface {
	EnsureWritable(ctx context.Context, user *internal.User, divisionID int64) error
}

type Service struct {
	repo      RepositoryAPI
	divisions DivisionGuard
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

func (s *Service) List(ctx context.Context, user *internal.User, divisionID *int64) ([]*Definition, error) {
	scope, err := user.Scope().Narrow(divisionID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, scope)
}

// ForDivision returns the active definitions applicable to records of one
// division: global ones plus that division's own.
func (s *Service) ForDivision(ctx context.Context, divisionID *int64) ([]*Definition, error) {
	scope := internal.DivisionScope{}
	if divisionID != nil {
		scope.DivisionIDs = []int64{*divisionID}
	}
	return s.list(ctx, scope)
}

func (s *Service) list(ctx context.Context, scope internal.DivisionScope) ([]*Definition, error) {
	rows, err := s.repo.List(ctx, scope, true)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list custom fields", "error", err)
		return nil, internal.NewInternalError("failed to list custom fields", err)
	}
	out := make([]*Definition, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, id int64) (*customfieldDatamodel.CustomFieldDefinition, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load custom field", err)
	}
	if row == nil {
		return nil, internal.ErrCustomFieldNotFound
	}
	return row, nil
}

func (s *Service) Create(ctx context.Context, user *internal.User, dto CreateCustomFieldDTO) (*Definition, error) {
	if vErr := dto.Validate(); vErr != nil {
		return nil, vErr
	}
	if dto.DivisionID != nil {
		if err := s.divisions.EnsureWritable(ctx, user, *dto.DivisionID); err != nil {
			return nil, err
		}
	}

	existing, err := s.repo.GetByKey(ctx, dto.Key, dto.DivisionID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check custom field key", err)
	}
	if existing != nil {
		return nil, internal.ErrCustomFieldExists
	}

	row := &customfieldDatamodel.CustomFieldDefinition{
		Key:        dto.Key,
		Label:      dto.Label,
		FieldType:  dto.FieldType,
		IsRequired: dto.IsRequired,
		Validation: rulesToJSON(dto.Validation),
		Options:    datatypes.JSONSlice[string](dto.Options),
		DivisionID: dto.DivisionID,
		IsGlobal:   dto.DivisionID == nil,
		SortOrder:  dto.SortOrder,
		IsActive:   true,
		CreatedBy:  &user.ID,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to create custom field", "key", dto.Key, "error", err)
		return nil, internal.NewInternalError("failed to create custom field", err)
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:     audit.ActionCreate,
		EntityType: audit.EntityCustomField,
		EntityID:   audit.ID(row.ID),
		NewValues:  snapshot(row),
		DivisionID: row.DivisionID,
	})
	return FromDataModel(row), nil
}

// Update never changes key, type or scope; existing contact values stay
// interpretable.
func (s *Service) Update(ctx context.Context, id int64, dto UpdateCustomFieldDTO) (*Definition, error) {
	if vErr := dto.Validate(); vErr != nil {
		return nil, vErr
	}
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	before := snapshot(row)

	if dto.Label != nil {
		row.Label = *dto.Label
	}
	if dto.IsRequired != nil {
		row.IsRequired = *dto.IsRequired
	}
	if dto.Validation != nil {
		row.Validation = rulesToJSON(*dto.Validation)
	}
	if dto.Options != nil {
		if row.FieldType == string(TypeSelect) && len(*dto.Options) == 0 {
			return nil, internal.NewValidationFieldError("options", "Select fields need at least one option", internal.ErrCodeValidationFailed)
		}
		row.Options = datatypes.JSONSlice[string](*dto.Options)
	}
	if dto.SortOrder != nil {
		row.SortOrder = *dto.SortOrder
	}
	if dto.IsActive != nil {
		row.IsActive = *dto.IsActive
	}

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, internal.NewInternalError("failed to update custom field", err)
	}
	s.auditor.Record(ctx, audit.Entry{
		Action:     audit.ActionUpdate,
		EntityType: audit.EntityCustomField,
		EntityID:   audit.ID(id),
		OldValues:  before,
		NewValues:  snapshot(row),
		DivisionID: row.DivisionID,
	})
	return FromDataModel(row), nil
}

// Deactivate hides the definition; stored contact values are kept.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	row, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !row.IsActive {
		return nil
	}
	row.IsActive = false
	if err := s.repo.Update(ctx, row); err != nil {
		return internal.NewInternalError("failed to deactivate custom field", err)
	}
	s.auditor.Record(ctx, audit.Entry{
		Action:     audit.ActionDeactivate,
		EntityType: audit.EntityCustomField,
		EntityID:   audit.ID(id),
		DivisionID: row.DivisionID,
	})
	return nil
}

// ValidateValues checks a contact's custom values against the definitions.
// Unknown keys are rejected; required fields must be present unless partial
// is set. The returned map holds coerced values.
func ValidateValues(defs []*Definition, values map[string]interface{}, partial bool) (map[string]interface{}, []internal.ValidationError) {
	byKey := make(map[string]*Definition, len(defs))
	for _, d := range defs {
		byKey[d.Key] = d
	}

	out := make(map[string]interface{}, len(values))
	var errs []internal.ValidationError
	for key, raw := range values {
		def, ok := byKey[key]
		if !ok {
			errs = append(errs, internal.ValidationError{
				Field:   "customFields." + key,
				Message: "Unknown custom field \"" + key + "\"",
				Code:    string(internal.ErrCodeValidationFailed),
			})
			continue
		}
		v, msg := def.Coerce(raw)
		if msg != "" {
			errs = append(errs, internal.ValidationError{Field: "customFields." + key, Message: msg, Code: string(internal.ErrCodeValidationFailed)})
			continue
		}
		if v != nil {
			out[key] = v
		}
	}

	if !partial {
		for _, d := range defs {
			if _, present := out[d.Key]; d.IsRequired && !present {
				errs = append(errs, internal.ValidationError{Field: "customFields." + d.Key, Message: d.Label + " is required", Code: string(internal.ErrCodeValidationFailed)})
			}
		}
	}
	return out, errs
}

// KeyFromTarget returns the custom field key of a mapping target.
func KeyFromTarget(target string) (string, bool) {
	if !strings.HasPrefix(target, TargetPrefix) {
		return "", false
	}
	key := strings.TrimPrefix(target, TargetPrefix)
	return key, key != ""
}
