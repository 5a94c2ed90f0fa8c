package user

import (
	"strings"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/core/common/validation"
)

var allowedRoles = []string{
	string(internal.RoleAdmin),
	string(internal.RoleUploader),
	string(internal.RoleUser),
	string(internal.RoleExco),
}

type CreateUserDTO struct {
	Email     string              `json:"email"`
	FirstName string              `json:"firstName"`
	LastName  string              `json:"lastName"`
	Role      string              `json:"role"`
	Divisions []MembershipRequest `json:"divisions"`
}

func (d *CreateUserDTO) Validate() *internal.AppError {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)

	v := validation.NewValidator()
	v.Field("email", d.Email).As("Email").Required().Email().MaxLength(255)
	v.Field("firstName", d.FirstName).As("First name").Required().MaxLength(255)
	v.Field("lastName", d.LastName).As("Last name").MaxLength(255)
	v.Field("role", d.Role).As("Role").Required().OneOf(allowedRoles...)
	return v.Validate()
}

// UpdateUserDTO is a partial update; nil fields are left unchanged.
type UpdateUserDTO struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      *string `json:"role"`
	IsActive  *bool   `json:"isActive"`
}

func (d *UpdateUserDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	if d.FirstName != nil {
		v.Field("firstName", *d.FirstName).As("First name").Required().MaxLength(255)
	}
	if d.LastName != nil {
		v.Field("lastName", *d.LastName).As("Last name").MaxLength(255)
	}
	if d.Role != nil {
		v.Field("role", *d.Role).As("Role").Required().OneOf(allowedRoles...)
	}
	return v.Validate()
}

type MembershipRequest struct {
	DivisionID int64 `json:"divisionId"`
	CanManage  bool  `json:"canManage"`
}

type AssignDivisionsDTO struct {
	Divisions []MembershipRequest `json:"divisions"`
}

type CreateUserResponse struct {
	User              *User  `json:"user"`
	TemporaryPassword string `json:"temporaryPassword"`
}

type ResetPasswordResponse struct {
	TemporaryPassword string `json:"temporaryPassword"`
}

type UsersResponse struct {
	Users []*User `json:"users"`
}

type MembershipsResponse struct {
	Divisions []internal.Membership `json:"divisions"`
}
