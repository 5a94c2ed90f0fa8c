package contact

import (
	"encoding/json"
	"strings"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/core/common/validation"
)

const (
	maxFieldLength = 255
	maxNotesLength = 5000
	MaxBulkIDs     = 1000
)

type CreateContactDTO struct {
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
}

func (d *CreateContactDTO) normalize() {
	for _, f := range []*string{&d.FirstName, &d.LastName, &d.Phone, &d.Company, &d.JobTitle,
		&d.Address, &d.City, &d.State, &d.PostalCode, &d.Country, &d.Notes} {
		*f = strings.TrimSpace(*f)
	}
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
}

func (d *CreateContactDTO) Validate() *internal.AppError {
	d.normalize()
	v := validation.NewValidator()
	if d.FirstName == "" && d.LastName == "" && d.Email == "" {
		v.AddError("email", "A contact needs a name or an email address", internal.ErrCodeValidationFailed)
	}
	v.Field("email", d.Email).Email().MaxLength(maxFieldLength)
	checkLengths(v, map[string]*string{
		"firstName": &d.FirstName, "lastName": &d.LastName, "phone": &d.Phone,
		"company": &d.Company, "jobTitle": &d.JobTitle, "address": &d.Address,
		"city": &d.City, "state": &d.State, "postalCode": &d.PostalCode, "country": &d.Country,
	})
	v.Field("notes", d.Notes).MaxLength(maxNotesLength)
	return v.Validate()
}

// UpdateContactDTO is a partial update. A custom field set to null is
// removed.
type UpdateContactDTO struct {
	FirstName    *string                `json:"firstName"`
	LastName     *string                `json:"lastName"`
	Email        *string                `json:"email"`
	Phone        *string                `json:"phone"`
	Company      *string                `json:"company"`
	JobTitle     *string                `json:"jobTitle"`
	Address      *string                `json:"address"`
	City         *string                `json:"city"`
	State        *string                `json:"state"`
	PostalCode   *string                `json:"postalCode"`
	Country      *string                `json:"country"`
	Notes        *string                `json:"notes"`
	CustomFields map[string]interface{} `json:"customFields"`
	CategoryID   OptionalID             `json:"categoryId"`
	DivisionID   OptionalID             `json:"divisionId"`
}

// OptionalID tells an absent field apart from an explicit null, which clears
// the reference.
type OptionalID struct {
	Set   bool
	Value *int64
}

// SetID is an OptionalID assigning id.
func SetID(id int64) OptionalID {
	return OptionalID{Set: true, Value: &id}
}

// ClearID is an OptionalID clearing the reference.
func ClearID() OptionalID {
	return OptionalID{Set: true}
}

func (o *OptionalID) UnmarshalJSON(b []byte) error {
	o.Set = true
	o.Value = nil
	if string(b) == "null" {
		return nil
	}
	var id int64
	if err := json.Unmarshal(b, &id); err != nil {
		return err
	}
	o.Value = &id
	return nil
}

func (d *UpdateContactDTO) Validate() *internal.AppError {
	fields := map[string]*string{
		"firstName": d.FirstName, "lastName": d.LastName, "phone": d.Phone,
		"company": d.Company, "jobTitle": d.JobTitle, "address": d.Address,
		"city": d.City, "state": d.State, "postalCode": d.PostalCode, "country": d.Country,
		"notes": d.Notes,
	}
	for _, f := range fields {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
	if d.Email != nil {
		*d.Email = strings.ToLower(strings.TrimSpace(*d.Email))
	}

	v := validation.NewValidator()
	v.Field("email", d.Email).Email().MaxLength(maxFieldLength)
	delete(fields, "notes")
	checkLengths(v, fields)
	v.Field("notes", d.Notes).MaxLength(maxNotesLength)
	return v.Validate()
}

func checkLengths(v *validation.ValidationBuilder, fields map[string]*string) {
	for _, name := range []string{"firstName", "lastName", "phone", "company", "jobTitle", "address", "city", "state", "postalCode", "country"} {
		if f, ok := fields[name]; ok && f != nil {
			v.Field(name, *f).MaxLength(maxFieldLength)
		}
	}
}

type BulkDeleteDTO struct {
	IDs []int64 `json:"ids"`
}

func (d *BulkDeleteDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	if len(d.IDs) == 0 {
		v.AddError("ids", "ids must not be empty", internal.ErrCodeValidationFailed)
	}
	if len(d.IDs) > MaxBulkIDs {
		v.AddError("ids", "ids must not contain more than 1000 entries", internal.ErrCodeValidationFailed)
	}
	return v.Validate()
}

type BulkDeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

type ListFilter struct {
	DivisionID *int64
	CategoryID *int64
	Search     string
	Limit      int
	Offset     int
}

type ContactsResponse struct {
	Contacts []*Contact `json:"contacts"`
	Total    int64      `json:"total"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}
