package user

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/audit"
	"github.com/frahmantamala/contacthub/internal/auth"
	userDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/user"
)

// RepositoryAPI lookups return nil, nil when the row does not exist.
type RepositoryAPI interface {
	List(ctx context.Context) ([]*userDatamodel.User, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	Create(ctx context.Context, user *userDatamodel.User, memberships []*userDatamodel.UserDivision) error
	Update(ctx context.Context, user *userDatamodel.User) error
	SetPasswordHash(ctx context.Context, id int64, hash string) error
	ListMemberships(ctx context.Context, userID int64) ([]*userDatamodel.UserDivision, error)
	ListAllMemberships(ctx context.Context) ([]*userDatamodel.UserDivision, error)
	ReplaceMemberships(ctx context.Context, userID int64, memberships []*userDatamodel.UserDivision) error
}

type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type DivisionGuard interface {
	EnsureWritable(ctx context.Context, user *internal.User, divisionID int64) error
}

type Service struct {
	repo      RepositoryAPI
	hasher    PasswordHasher
	divisions DivisionGuard
	auditor   audit.Recorder
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, hasher PasswordHasher, divisions DivisionGuard, auditor audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		hasher:    hasher,
		divisions: divisions,
		auditor:   auditor,
		logger:    logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list users", "error", err)
		return nil, internal.NewInternalError("failed to list users", err)
	}
	memberships, err := s.repo.ListAllMemberships(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list memberships", err)
	}
	byUser := make(map[int64][]*userDatamodel.UserDivision)
	for _, m := range memberships {
		byUser[m.UserID] = append(byUser[m.UserID], m)
	}

	out := make([]*User, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row, byUser[row.ID]))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	memberships, err := s.repo.ListMemberships(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to list memberships", err)
	}
	return FromDataModel(row, memberships), nil
}

func (s *Service) load(ctx context.Context, id int64) (*userDatamodel.User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if row == nil {
		return nil, internal.ErrUserNotFound
	}
	return row, nil
}

// Create provisions an account with a one-time temporary password. Only the
// bcrypt hash is stored.
func (s *Service) Create(ctx context.Context, actor *internal.User, dto CreateUserDTO) (*CreateUserResponse, error) {
	if vErr := dto.Validate(); vErr != nil {
		return nil, vErr
	}

	existing, err := s.repo.GetByEmail(ctx, dto.Email)
	if err != nil {
		return nil, internal.NewInternalError("failed to check email", err)
	}
	if existing != nil {
		return nil, internal.ErrEmailTaken
	}

	memberships, err := s.memberships(ctx, actor, dto.Divisions)
	if err != nil {
		return nil, err
	}

	password, err := auth.GenerateTemporaryPassword()
	if err != nil {
		return nil, internal.NewInternalError("failed to generate password", err)
	}
	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	row := &userDatamodel.User{
		Email:        dto.Email,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		PasswordHash: hash,
		Role:         dto.Role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, row, memberships); err != nil {
		s.logger.ErrorContext(ctx, "failed to create user", "error", err)
		return nil, internal.NewInternalError("failed to create user", err)
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:     audit.ActionCreate,
		EntityType: audit.EntityUser,
		EntityID:   audit.ID(row.ID),
		NewValues:  snapshot(row),
	})
	s.logger.InfoContext(ctx, "user created", "user_id", row.ID, "role", row.Role)

	return &CreateUserResponse{
		User:              FromDataModel(row, memberships),
		TemporaryPassword: password,
	}, nil
}

func (s *Service) Update(ctx context.Context, actor *internal.User, id int64, dto UpdateUserDTO) (*User, error) {
	if vErr := dto.Validate(); vErr != nil {
		return nil, vErr
	}
	if id == actor.ID && dto.IsActive != nil && !*dto.IsActive {
		return nil, internal.ErrSelfDeactivation
	}

	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	before := snapshot(row)

	if dto.FirstName != nil {
		row.FirstName = *dto.FirstName
	}
	if dto.LastName != nil {
		row.LastName = *dto.LastName
	}
	if dto.Role != nil {
		row.Role = *dto.Role
	}
	if dto.IsActive != nil {
		row.IsActive = *dto.IsActive
	}
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to update user", "user_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update user", err)
	}

	action := audit.ActionUpdate
	if before["isActive"] == true && !row.IsActive {
		action = audit.ActionDeactivate
	}
	s.auditor.Record(ctx, audit.Entry{
		Action:     action,
		EntityType: audit.EntityUser,
		EntityID:   audit.ID(id),
		OldValues:  before,
		NewValues:  snapshot(row),
	})
	return s.Get(ctx, id)
}

// Deactivate disables the account; users are never hard-deleted.
func (s *Service) Deactivate(ctx context.Context, actor *internal.User, id int64) error {
	inactive := false
	_, err := s.Update(ctx, actor, id, UpdateUserDTO{IsActive: &inactive})
	return err
}

func (s *Service) ResetPassword(ctx context.Context, id int64) (*ResetPasswordResponse, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	password, err := auth.GenerateTemporaryPassword()
	if err != nil {
		return nil, internal.NewInternalError("failed to generate password", err)
	}
	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}
	if err := s.repo.SetPasswordHash(ctx, id, hash); err != nil {
		return nil, internal.NewInternalError("failed to reset password", err)
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:     audit.ActionResetPassword,
		EntityType: audit.EntityUser,
		EntityID:   audit.ID(id),
	})
	return &ResetPasswordResponse{TemporaryPassword: password}, nil
}

func (s *Service) ListDivisions(ctx context.Context, id int64) ([]internal.Membership, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Divisions, nil
}

// AssignDivisions replaces the user's memberships.
func (s *Service) AssignDivisions(ctx context.Context, actor *internal.User, id int64, dto AssignDivisionsDTO) ([]internal.Membership, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	previous, err := s.repo.ListMemberships(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to list memberships", err)
	}

	memberships, err := s.memberships(ctx, actor, dto.Divisions)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceMemberships(ctx, id, memberships); err != nil {
		s.logger.ErrorContext(ctx, "failed to assign divisions", "user_id", id, "error", err)
		return nil, internal.NewInternalError("failed to assign divisions", err)
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:     audit.ActionAssignDivisions,
		EntityType: audit.EntityUser,
		EntityID:   audit.ID(id),
		OldValues:  map[string]interface{}{"divisions": divisionIDs(previous)},
		NewValues:  map[string]interface{}{"divisions": divisionIDs(memberships)},
	})
	return FromDataModel(&userDatamodel.User{}, memberships).Divisions, nil
}

// memberships validates requested divisions, de-duplicating by id.
func (s *Service) memberships(ctx context.Context, actor *internal.User, reqs []MembershipRequest) ([]*userDatamodel.UserDivision, error) {
	seen := make(map[int64]bool, len(reqs))
	out := make([]*userDatamodel.UserDivision, 0, len(reqs))
	for _, req := range reqs {
		if seen[req.DivisionID] {
			continue
		}
		seen[req.DivisionID] = true
		if err := s.divisions.EnsureWritable(ctx, actor, req.DivisionID); err != nil {
			return nil, err
		}
		out = append(out, &userDatamodel.UserDivision{DivisionID: req.DivisionID, CanManage: req.CanManage})
	}
	return out, nil
}

func divisionIDs(memberships []*userDatamodel.UserDivision) []int64 {
	ids := make([]int64, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.DivisionID)
	}
	return ids
}
