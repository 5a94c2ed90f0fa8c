package category

import (
	"strings"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/core/common/validation"
)

type CreateCategoryDTO struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
	DivisionID  *int64 `json:"divisionId"`
}

func (d *CreateCategoryDTO) Validate() *internal.AppError {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	if d.Color == "" {
		d.Color = DefaultColor
	}

	v := validation.NewValidator()
	v.Field("name", d.Name).As("Name").Required().MaxLength(100)
	v.Field("color", d.Color).As("Color").HexColor()
	v.Field("description", d.Description).As("Description").MaxLength(500)
	return v.Validate()
}

type UpdateCategoryDTO struct {
	Name        *string `json:"name"`
	Color       *string `json:"color"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

func (d *UpdateCategoryDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	if d.Name != nil {
		trimmed := strings.TrimSpace(*d.Name)
		d.Name = &trimmed
		v.Field("name", d.Name).As("Name").Required().MaxLength(100)
	}
	v.Field("color", d.Color).As("Color").HexColor()
	v.Field("description", d.Description).As("Description").MaxLength(500)
	return v.Validate()
}

type CategoriesResponse struct {
	Categories []*Category `json:"categories"`
}
