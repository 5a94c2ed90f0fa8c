package division

import (
	"time"

	divisionDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/division"
)

type Division struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	LogoURL        string    `json:"logoUrl"`
	PrimaryColor   string    `json:"primaryColor"`
	SecondaryColor string    `json:"secondaryColor"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func ToDataModel(d *Division) *divisionDatamodel.Division {
	return &divisionDatamodel.Division{
		ID:             d.ID,
		Name:           d.Name,
		Description:    d.Description,
		LogoURL:        d.LogoURL,
		PrimaryColor:   d.PrimaryColor,
		SecondaryColor: d.SecondaryColor,
		IsActive:       d.IsActive,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func FromDataModel(d *divisionDatamodel.Division) *Division {
	return &Division{
		ID:             d.ID,
		Name:           d.Name,
		Description:    d.Description,
		LogoURL:        d.LogoURL,
		PrimaryColor:   d.PrimaryColor,
		SecondaryColor: d.SecondaryColor,
		IsActive:       d.IsActive,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}
