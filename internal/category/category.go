package category

import (
	"time"

	categoryDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/category"
)

const DefaultColor = "#6B7280"

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	Description string    `json:"description"`
	DivisionID  *int64    `json:"divisionId"`
	IsActive    bool      `json:"isActive"`
	CreatedBy   *int64    `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsGlobal reports whether the category is shared by every division.
func (c *Category) IsGlobal() bool {
	return c.DivisionID == nil
}

// UsableIn reports whether contacts of the given division may reference it.
func (c *Category) UsableIn(divisionID *int64) bool {
	if !c.IsActive {
		return false
	}
	if c.IsGlobal() {
		return true
	}
	return divisionID != nil && *divisionID == *c.DivisionID
}

func ToDataModel(c *Category) *categoryDatamodel.ContactCategory {
	return &categoryDatamodel.ContactCategory{
		ID:          c.ID,
		Name:        c.Name,
		Color:       c.Color,
		Description: c.Description,
		DivisionID:  c.DivisionID,
		IsActive:    c.IsActive,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func FromDataModel(c *categoryDatamodel.ContactCategory) *Category {
	return &Category{
		ID:          c.ID,
		Name:        c.Name,
		Color:       c.Color,
		Description: c.Description,
		DivisionID:  c.DivisionID,
		IsActive:    c.IsActive,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func snapshot(c *categoryDatamodel.ContactCategory) map[string]interface{} {
	return map[string]interface{}{
		"name":        c.Name,
		"color":       c.Color,
		"description": c.Description,
		"divisionId":  c.DivisionID,
		"isActive":    c.IsActive,
	}
}
