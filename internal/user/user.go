package user

import (
	"time"

	"github.com/frahmantamala/contacthub/internal"
	userDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/user"
)

type User struct {
	ID          int64                 `json:"id"`
	Email       string                `json:"email"`
	FirstName   string                `json:"firstName"`
	LastName    string                `json:"lastName"`
	Role        internal.Role         `json:"role"`
	IsActive    bool                  `json:"isActive"`
	LastLoginAt *time.Time            `json:"lastLoginAt,omitempty"`
	Divisions   []internal.Membership `json:"divisions"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

func FromDataModel(u *userDatamodel.User, memberships []*userDatamodel.UserDivision) *User {
	divisions := make([]internal.Membership, 0, len(memberships))
	for _, m := range memberships {
		divisions = append(divisions, internal.Membership{DivisionID: m.DivisionID, CanManage: m.CanManage})
	}
	return &User{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        internal.Role(u.Role),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		Divisions:   divisions,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func snapshot(u *userDatamodel.User) map[string]interface{} {
	return map[string]interface{}{
		"email":     u.Email,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"role":      u.Role,
		"isActive":  u.IsActive,
	}
}
