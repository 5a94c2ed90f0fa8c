package contact

import (
	"context"
	"log/slog"
	"slices"

	"gorm.io/datatypes"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/audit"
	"github.com/frahmantamala/contacthub/internal/auth"
	contactDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/contact"
	"github.com/frahmantamala/contacthub/internal/customfield"
	"github.com/frahmantamala/contacthub/internal/transport"
)

const maxExportRows = 50000

type RepositoryAPI interface {
	// List returns active contacts in scope and the unpaged total.
	List(ctx context.Context, scope internal.DivisionScope, filter ListFilter) ([]*contactDatamodel.Contact, int64, error)
	GetByID(ctx context.Context, id int64) (*contactDatamodel.Contact, error)
	Create(ctx context.Context, contact *contactDatamodel.Contact) error
	Update(ctx context.Context, contact *contactDatamodel.Contact) error
	// Deactivate soft-deletes active contacts among ids within scope and
	// returns how many changed.
	Deactivate(ctx context.Context, scope internal.DivisionScope, ids []int64) (int64, error)
}

type DivisionGuard interface {
	EnsureWritable(ctx context.Context, user *internal.User, divisionID int64) error
}

type CategoryGuard interface {
	EnsureAssignable(ctx context.Context, categoryID int64, divisionID *int64) error
}

type FieldSource interface {
	ForDivision(ctx context.Context, divisionID *int64) ([]*customfield.Definition, error)
}

type Service struct {
	repo       RepositoryAPI
	divisions  DivisionGuard
	categories CategoryGuard
	fields     FieldSource
	policy     auth.DivisionPolicy
	auditor    audit.Recorder
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, divisions DivisionGuard, categories CategoryGuard, fields FieldSource, auditor audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		divisions:  divisions,
		categories: categories,
		fields:     fields,
		auditor:    auditor,
		logger:     logger,
	}
}

func (s *Service) List(ctx context.Context, user *internal.User, filter ListFilter) (*ContactsResponse, error) {
	scope, err := user.Scope().Narrow(filter.DivisionID)
	if err != nil {
		return nil, err
	}
	if filter.Limit <= 0 || filter.Limit > transport.MaxPageLimit {
		filter.Limit = transport.DefaultPageLimit
	}
	resp := &ContactsResponse{Contacts: []*Contact{}, Limit: filter.Limit, Offset: filter.Offset}
	if scope.Empty() {
		return resp, nil
	}

	rows, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list contacts", "error", err)
		return nil, internal.NewInternalError("failed to list contacts", err)
	}
	for _, row := range rows {
		resp.Contacts = append(resp.Contacts, FromDataModel(row))
	}
	resp.Total = total
	return resp, nil
}

// load returns a contact the user may see, active or not.
func (s *Service) load(ctx context.Context, user *internal.User, id int64) (*contactDatamodel.Contact, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load contact", err)
	}
	if row == nil {
		return nil, internal.ErrContactNotFound
	}
	if err := s.policy.CanAccess(user, row.DivisionID); err != nil {
		// out-of-scope rows are indistinguishable from missing ones
		return nil, internal.ErrContactNotFound
	}
	return row, nil
}

func (s *Service) Get(ctx context.Context, user *internal.User, id int64) (*Contact, error) {
	row, err := s.load(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if !row.IsActive {
		return nil, internal.ErrContactNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, user *internal.User, dto CreateContactDTO) (*Contact, error) {
	if vErr := dto.Validate(); vErr != nil {
		return nil, vErr
	}
	if err := s.checkDivision(ctx, user, dto.DivisionID); err != nil {
		return nil, err
	}
	if dto.CategoryID != nil {
		if err := s.categories.EnsureAssignable(ctx, *dto.CategoryID, dto.DivisionID); err != nil {
			return nil, err
		}
	}
	custom, err := s.customValues(ctx, dto.DivisionID, dto.CustomFields, false)
	if err != nil {
		return nil, err
	}

	row := &contactDatamodel.Contact{
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		Email:        dto.Email,
		Phone:        dto.Phone,
		Company:      dto.Company,
		JobTitle:     dto.JobTitle,
		Address:      dto.Address,
		City:         dto.City,
		State:        dto.State,
		PostalCode:   dto.PostalCode,
		Country:      dto.Country,
		Notes:        dto.Notes,
		CustomFields: custom,
		CategoryID:   dto.CategoryID,
		DivisionID:   dto.DivisionID,
		IsActive:     true,
		CreatedBy:    &user.ID,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to create contact", "error", err)
		return nil, internal.NewInternalError("failed to create contact", err)
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:     audit.ActionCreate,
		EntityType: audit.EntityContact,
		EntityID:   audit.ID(row.ID),
		NewValues:  snapshot(row),
		DivisionID: row.DivisionID,
	})
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, user *internal.User, id int64, dto UpdateContactDTO) (*Contact, error) {
	if vErr := dto.Validate(); vErr != nil {
		return nil, vErr
	}
	row, err := s.load(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if !row.IsActive {
		return nil, internal.ErrContactNotFound
	}
	before := snapshot(row)

	if dto.DivisionID.Set && !sameID(dto.DivisionID.Value, row.DivisionID) {
		if err := s.checkDivision(ctx, user, dto.DivisionID.Value); err != nil {
			return nil, err
		}
		row.DivisionID = dto.DivisionID.Value
	} else if row.DivisionID != nil {
		if err := s.divisions.EnsureWritable(ctx, user, *row.DivisionID); err != nil {
			return nil, err
		}
	}

	apply(&row.FirstName, dto.FirstName)
	apply(&row.LastName, dto.LastName)
	apply(&row.Email, dto.Email)
	apply(&row.Phone, dto.Phone)
	apply(&row.Company, dto.Company)
	apply(&row.JobTitle, dto.JobTitle)
	apply(&row.Address, dto.Address)
	apply(&row.City, dto.City)
	apply(&row.State, dto.State)
	apply(&row.PostalCode, dto.PostalCode)
	apply(&row.Country, dto.Country)
	apply(&row.Notes, dto.Notes)
	if row.FirstName == "" && row.LastName == "" && row.Email == "" {
		return nil, internal.NewValidationFieldError("email", "A contact needs a name or an email address", internal.ErrCodeValidationFailed)
	}

	if dto.CategoryID.Set {
		row.CategoryID = dto.CategoryID.Value
	}
	if row.CategoryID != nil && (dto.CategoryID.Set || dto.DivisionID.Set) {
		if err := s.categories.EnsureAssignable(ctx, *row.CategoryID, row.DivisionID); err != nil {
			return nil, err
		}
	}

	if dto.CustomFields != nil {
		merged := make(map[string]interface{}, len(row.CustomFields)+len(dto.CustomFields))
		for k, v := range row.CustomFields {
			merged[k] = v
		}
		for k, v := range dto.CustomFields {
			if v == nil {
				delete(merged, k)
				continue
			}
			merged[k] = v
		}
		custom, err := s.customValues(ctx, row.DivisionID, merged, true)
		if err != nil {
			return nil, err
		}
		row.CustomFields = custom
	}

	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to update contact", "contact_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update contact", err)
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:     audit.ActionUpdate,
		EntityType: audit.EntityContact,
		EntityID:   audit.ID(id),
		OldValues:  before,
		NewValues:  snapshot(row),
		DivisionID: row.DivisionID,
	})
	return FromDataModel(row), nil
}

// Delete soft-deletes a contact. Deleting an inactive contact succeeds.
func (s *Service) Delete(ctx context.Context, user *internal.User, id int64) error {
	row, err := s.load(ctx, user, id)
	if err != nil {
		return err
	}
	if !row.IsActive {
		return nil
	}

	n, err := s.repo.Deactivate(ctx, user.Scope(), []int64{id})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to delete contact", "contact_id", id, "error", err)
		return internal.NewInternalError("failed to delete contact", err)
	}
	if n > 0 {
		s.auditor.Record(ctx, audit.Entry{
			Action:     audit.ActionDelete,
			EntityType: audit.EntityContact,
			EntityID:   audit.ID(id),
			OldValues:  snapshot(row),
			DivisionID: row.DivisionID,
		})
	}
	return nil
}

// BulkDelete soft-deletes the visible active contacts among ids. Unknown or
// out-of-scope ids are ignored.
func (s *Service) BulkDelete(ctx context.Context, user *internal.User, dto BulkDeleteDTO) (*BulkDeleteResponse, error) {
	if vErr := dto.Validate(); vErr != nil {
		return nil, vErr
	}
	ids := slices.Clone(dto.IDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	scope := user.Scope()
	if scope.Empty() {
		return &BulkDeleteResponse{}, nil
	}
	n, err := s.repo.Deactivate(ctx, scope, ids)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to bulk delete contacts", "count", len(ids), "error", err)
		return nil, internal.NewInternalError("failed to delete contacts", err)
	}

	s.logger.InfoContext(ctx, "contacts bulk deleted", "requested", len(ids), "deleted", n)
	s.auditor.Record(ctx, audit.Entry{
		Action:     audit.ActionBulkDelete,
		EntityType: audit.EntityContact,
		NewValues:  map[string]interface{}{"ids": ids, "deleted": n},
	})
	return &BulkDeleteResponse{Deleted: n}, nil
}

// Export builds a table of the contacts matching filter.
func (s *Service) Export(ctx context.Context, user *internal.User, filter ListFilter) (*Table, error) {
	scope, err := user.Scope().Narrow(filter.DivisionID)
	if err != nil {
		return nil, err
	}
	defs, err := s.fields.ForDivision(ctx, filter.DivisionID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load custom fields", err)
	}
	table := newTable(defs)
	if scope.Empty() {
		return table, nil
	}

	filter.Limit, filter.Offset = maxExportRows, 0
	rows, _, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to export contacts", "error", err)
		return nil, internal.NewInternalError("failed to export contacts", err)
	}
	for _, row := range rows {
		table.add(FromDataModel(row))
	}
	return table, nil
}

func (s *Service) checkDivision(ctx context.Context, user *internal.User, divisionID *int64) error {
	if divisionID == nil {
		return s.policy.CanAccess(user, nil)
	}
	return s.divisions.EnsureWritable(ctx, user, *divisionID)
}

func (s *Service) customValues(ctx context.Context, divisionID *int64, values map[string]interface{}, partial bool) (datatypes.JSONMap, error) {
	defs, err := s.fields.ForDivision(ctx, divisionID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load custom fields", err)
	}
	out, errs := customfield.ValidateValues(defs, values, partial)
	if len(errs) > 0 {
		return nil, internal.NewValidationErrors(errs)
	}
	return datatypes.JSONMap(out), nil
}

func apply(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
