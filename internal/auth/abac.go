package auth

import (
	"github.com/frahmantamala/contacthub/internal"
)

// DivisionPolicy is the attribute-based check for division-owned records.
// Records without a division are only reachable by all-division roles.
type DivisionPolicy struct{}

func (p DivisionPolicy) CanAccess(u *internal.User, divisionID *int64) error {
	if u == nil {
		return internal.ErrSessionInvalid
	}
	scope := u.Scope()
	if divisionID == nil {
		if scope.All {
			return nil
		}
		return internal.ErrDivisionForbidden
	}
	if !scope.Allows(*divisionID) {
		return internal.ErrDivisionForbidden
	}
	return nil
}

