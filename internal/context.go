package internal

import (
	"context"
	"slices"
	"time"
)

type ctxKey string

const (
	ContextUserKey    ctxKey = "user"
	ContextRequestKey ctxKey = "requestInfo"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleUploader Role = "uploader"
	RoleUser     Role = "user"
	RoleExco     Role = "exco"
)

// SeesAllDivisions reports whether the role bypasses division membership.
func (r Role) SeesAllDivisions() bool {
	return r == RoleAdmin || r == RoleExco
}

type Membership struct {
	DivisionID int64 `json:"divisionId"`
	CanManage  bool  `json:"canManage"`
}

// User is the authenticated principal attached to a request.
type User struct {
	ID                 int64        `json:"id"`
	Email              string       `json:"email"`
	FirstName          string       `json:"firstName"`
	LastName           string       `json:"lastName"`
	Role               Role         `json:"role"`
	Divisions          []Membership `json:"divisions"`
	SessionID          string       `json:"-"`
	SelectedDivisionID *int64       `json:"selectedDivisionId,omitempty"`
}

// Scope returns the set of divisions the user may read or write.
func (u *User) Scope() DivisionScope {
	if u == nil {
		return DivisionScope{}
	}
	if u.Role.SeesAllDivisions() {
		return DivisionScope{All: true}
	}
	ids := make([]int64, 0, len(u.Divisions))
	for _, m := range u.Divisions {
		ids = append(ids, m.DivisionID)
	}
	return DivisionScope{DivisionIDs: ids}
}

// DivisionScope is the server-derived set of permitted divisions.
type DivisionScope struct {
	All         bool
	DivisionIDs []int64
}

func (s DivisionScope) Allows(divisionID int64) bool {
	return s.All || slices.Contains(s.DivisionIDs, divisionID)
}

// Narrow applies an optional client-requested division. A request outside the
// permitted set is rejected rather than silently widened.
func (s DivisionScope) Narrow(requested *int64) (DivisionScope, error) {
	if requested == nil {
		return s, nil
	}
	if !s.Allows(*requested) {
		return DivisionScope{}, ErrDivisionForbidden
	}
	return DivisionScope{DivisionIDs: []int64{*requested}}, nil
}

// Empty reports whether the scope can never match a row.
func (s DivisionScope) Empty() bool {
	return !s.All && len(s.DivisionIDs) == 0
}

func UserFromContext(ctx context.Context) (*User, bool) {
	if ctx == nil {
		return nil, false
	}
	user, ok := ctx.Value(ContextUserKey).(*User)
	return user, ok && user != nil
}

func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, user)
}

// RequestInfo carries client metadata recorded in the audit trail.
type RequestInfo struct {
	IPAddress string
	UserAgent string
}

func RequestInfoFromContext(ctx context.Context) RequestInfo {
	if ctx == nil {
		return RequestInfo{}
	}
	info, _ := ctx.Value(ContextRequestKey).(RequestInfo)
	return info
}

func ContextWithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, ContextRequestKey, info)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
