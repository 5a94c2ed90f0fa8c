package contact

import (
	"time"

	contactDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/contact"
)

type Contact struct {
	ID           int64                  `json:"id"`
	FirstName    string                 `json:"firstName"`
	LastName     string                 `json:"lastName"`
	Email        string                 `json:"email"`
	Phone        string                 `json:"phone"`
	Company      string                 `json:"company"`
	JobTitle     string                 `json:"jobTitle"`
	Address      string                 `json:"address"`
	City         string                 `json:"city"`
	State        string                 `json:"state"`
	PostalCode   string                 `json:"postalCode"`
	Country      string                 `json:"country"`
	Notes        string                 `json:"notes"`
	CustomFields map[string]interface{} `json:"customFields"`
	CategoryID   *int64                 `json:"categoryId"`
	DivisionID   *int64                 `json:"divisionId"`
	UploadID     *int64                 `json:"uploadId"`
	IsActive     bool                   `json:"isActive"`
	CreatedBy    *int64                 `json:"createdBy"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

func FromDataModel(c *contactDatamodel.Contact) *Contact {
	custom := map[string]interface{}(c.CustomFields)
	if custom == nil {
		custom = map[string]interface{}{}
	}
	return &Contact{
		ID:           c.ID,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Email:        c.Email,
		Phone:        c.Phone,
		Company:      c.Company,
		JobTitle:     c.JobTitle,
		Address:      c.Address,
		City:         c.City,
		State:        c.State,
		PostalCode:   c.PostalCode,
		Country:      c.Country,
		Notes:        c.Notes,
		CustomFields: custom,
		CategoryID:   c.CategoryID,
		DivisionID:   c.DivisionID,
		UploadID:     c.UploadID,
		IsActive:     c.IsActive,
		CreatedBy:    c.CreatedBy,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (c *Contact) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

func snapshot(c *contactDatamodel.Contact) map[string]interface{} {
	return map[string]interface{}{
		"firstName":    c.FirstName,
		"lastName":     c.LastName,
		"email":        c.Email,
		"phone":        c.Phone,
		"company":      c.Company,
		"categoryId":   c.CategoryID,
		"divisionId":   c.DivisionID,
		"customFields": map[string]interface{}(c.CustomFields),
		"isActive":     c.IsActive,
	}
}
