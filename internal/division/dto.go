package division

import (
	"strings"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/core/common/validation"
)

type CreateDivisionDTO struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	LogoURL        string `json:"logoUrl"`
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
}

func (d *CreateDivisionDTO) Validate() *internal.AppError {
	d.Name = strings.TrimSpace(d.Name)
	v := validation.NewValidator()
	v.Field("name", d.Name).As("Name").Required().MaxLength(255)
	v.Field("description", d.Description).As("Description").MaxLength(2000)
	v.Field("primaryColor", d.PrimaryColor).As("Primary color").HexColor()
	v.Field("secondaryColor", d.SecondaryColor).As("Secondary color").HexColor()
	return v.Validate()
}

// UpdateDivisionDTO is a partial update; nil fields are left unchanged.
type UpdateDivisionDTO struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	LogoURL        *string `json:"logoUrl"`
	PrimaryColor   *string `json:"primaryColor"`
	SecondaryColor *string `json:"secondaryColor"`
	IsActive       *bool   `json:"isActive"`
}

func (d *UpdateDivisionDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	if d.Name != nil {
		trimmed := strings.TrimSpace(*d.Name)
		d.Name = &trimmed
		v.Field("name", *d.Name).As("Name").Required().MaxLength(255)
	}
	if d.Description != nil {
		v.Field("description", *d.Description).As("Description").MaxLength(2000)
	}
	if d.PrimaryColor != nil {
		v.Field("primaryColor", *d.PrimaryColor).As("Primary color").HexColor()
	}
	if d.SecondaryColor != nil {
		v.Field("secondaryColor", *d.SecondaryColor).As("Secondary color").HexColor()
	}
	return v.Validate()
}

type DivisionsResponse struct {
	Divisions []*Division `json:"divisions"`
}
