package auth

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/audit"
	"github.com/frahmantamala/contacthub/internal/core/common/validation"
	sessionDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/session"
	userDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/user"
)

type Config struct {
	BCryptCost int
	SessionTTL time.Duration
}

// Service is the main auth service with dependencies
type Service struct {
	repo    RepositoryAPI
	auditor audit.Recorder
	cfg     Config
	now     func() time.Time
	logger  *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates a new auth service
func NewService(repo RepositoryAPI, auditor audit.Recorder, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		auditor: auditor,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Authenticate verifies credentials and opens a server-side session.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*LoginResult, error) {
	dto.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	if vErr := validation.Struct(dto); vErr != nil {
		return nil, vErr
	}

	user, err := s.repo.GetUserByEmail(ctx, dto.Email)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up user", err)
	}
	if user == nil {
		// Same bcrypt work as a real account so timing does not reveal emails.
		_ = VerifyPassword(s.unknownUserHash(), dto.Password)
		s.recordFailure(ctx, dto.Email, nil, "invalid_credentials")
		return nil, internal.ErrInvalidCredentials
	}
	if VerifyPassword(user.PasswordHash, dto.Password) != nil {
		s.recordFailure(ctx, dto.Email, user, "invalid_credentials")
		return nil, internal.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.recordFailure(ctx, dto.Email, user, "inactive")
		return nil, internal.ErrUserInactive
	}

	token, err := GenerateRandomToken()
	if err != nil {
		return nil, internal.NewInternalError("failed to create session", err)
	}

	now := s.now()
	info := internal.RequestInfoFromContext(ctx)
	session := &sessionDatamodel.Session{
		ID:        HashToken(token),
		UserID:    user.ID,
		IPAddress: info.IPAddress,
		UserAgent: info.UserAgent,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
		CreatedAt: now,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, internal.NewInternalError("failed to create session", err)
	}
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.WarnContext(ctx, "failed to update last login", "user_id", user.ID, "error", err)
	}

	principal, err := s.principal(ctx, user, session)
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:     audit.ActionLogin,
		EntityType: audit.EntitySession,
		EntityID:   audit.ID(user.ID),
		UserID:     &user.ID,
	})
	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID, "role", user.Role)

	return &LoginResult{User: principal, Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// unknownUserHash is a hash at the configured cost that no password matches.
func (s *Service) unknownUserHash() string {
	s.dummyOnce.Do(func() {
		token, err := GenerateRandomToken()
		if err != nil {
			token = "unknown-user"
		}
		hash, err := HashPassword(token, s.cfg.BCryptCost)
		if err != nil {
			s.logger.Warn("failed to prepare unknown user hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *Service) recordFailure(ctx context.Context, email string, user *userDatamodel.User, reason string) {
	entry := audit.Entry{
		Action:     audit.ActionLoginFailed,
		EntityType: audit.EntitySession,
		NewValues:  map[string]interface{}{"email": email, "reason": reason},
	}
	if user != nil {
		entry.EntityID = audit.ID(user.ID)
		entry.UserID = &user.ID
	}
	s.auditor.Record(ctx, entry)
	s.logger.WarnContext(ctx, "login rejected", "reason", reason)
}

// ResolveSession maps a raw token to the active principal. Expiry is
// absolute; activity does not extend it.
func (s *Service) ResolveSession(ctx context.Context, token string) (*internal.User, error) {
	if token == "" {
		return nil, internal.ErrSessionInvalid
	}
	id := HashToken(token)

	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load session", err)
	}
	if session == nil {
		return nil, internal.ErrSessionInvalid
	}
	if !s.now().Before(session.ExpiresAt) {
		if err := s.repo.DeleteSession(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "failed to delete expired session", "error", err)
		}
		return nil, internal.ErrSessionExpired
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if user == nil || !user.IsActive {
		if err := s.repo.DeleteSession(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "failed to delete orphaned session", "error", err)
		}
		return nil, internal.ErrSessionInvalid
	}

	return s.principal(ctx, user, session)
}

func (s *Service) principal(ctx context.Context, user *userDatamodel.User, session *sessionDatamodel.Session) (*internal.User, error) {
	memberships, err := s.repo.ListMemberships(ctx, user.ID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load division memberships", err)
	}
	return toPrincipal(user, memberships, session), nil
}

// Logout is idempotent: an unknown token is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.repo.DeleteSession(ctx, HashToken(token)); err != nil {
		return internal.NewInternalError("failed to end session", err)
	}
	if user, ok := internal.UserFromContext(ctx); ok {
		s.auditor.Record(ctx, audit.Entry{
			Action:     audit.ActionLogout,
			EntityType: audit.EntitySession,
			EntityID:   audit.ID(user.ID),
		})
	}
	return nil
}

// SelectDivision stores the current division used for branding.
func (s *Service) SelectDivision(ctx context.Context, user *internal.User, divisionID *int64) error {
	if divisionID != nil && !user.Scope().Allows(*divisionID) {
		return internal.ErrDivisionForbidden
	}
	if err := s.repo.SetSessionDivision(ctx, user.SessionID, divisionID); err != nil {
		return internal.NewInternalError("failed to update session", err)
	}
	user.SelectedDivisionID = divisionID
	return nil
}

func (s *Service) HashPassword(password string) (string, error) {
	return HashPassword(password, s.cfg.BCryptCost)
}

// PurgeExpiredSessions removes sessions past their absolute expiry.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, internal.NewInternalError("failed to purge sessions", err)
	}
	return n, nil
}
