package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/contacthub/internal"
	sessionDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/session"
	userDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/user"
)

// RepositoryAPI lookups return nil, nil when the row does not exist.
type RepositoryAPI interface {
	GetUserByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	GetUserByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	ListMemberships(ctx context.Context, userID int64) ([]*userDatamodel.UserDivision, error)
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error

	CreateSession(ctx context.Context, session *sessionDatamodel.Session) error
	GetSession(ctx context.Context, id string) (*sessionDatamodel.Session, error)
	SetSessionDivision(ctx context.Context, id string, divisionID *int64) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// LoginResult carries the raw session token; it is only ever sent to the
// client inside the signed cookie.
type LoginResult struct {
	User      *internal.User
	Token     string
	ExpiresAt time.Time
}

func toPrincipal(u *userDatamodel.User, memberships []*userDatamodel.UserDivision, s *sessionDatamodel.Session) *internal.User {
	divisions := make([]internal.Membership, 0, len(memberships))
	for _, m := range memberships {
		divisions = append(divisions, internal.Membership{DivisionID: m.DivisionID, CanManage: m.CanManage})
	}
	p := &internal.User{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      internal.Role(u.Role),
		Divisions: divisions,
	}
	if s != nil {
		p.SessionID = s.ID
		p.SelectedDivisionID = s.SelectedDivisionID
	}
	return p
}
