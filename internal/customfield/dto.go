package customfield

import (
	"regexp"
	"strings"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/core/common/validation"
)

var (
	keyPattern   = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify derives a field key from a label: "Lead Source" -> "lead_source".
func Slugify(label string) string {
	s := nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(label)), "_")
	s = strings.Trim(s, "_")
	if s != "" && (s[0] >= '0' && s[0] <= '9') {
		s = "f_" + s
	}
	return s
}

type CreateCustomFieldDTO struct {
	Key        string   `json:"key"`
	Label      string   `json:"label"`
	FieldType  string   `json:"fieldType"`
	IsRequired bool     `json:"isRequired"`
	Validation Rules    `json:"validation"`
	Options    []string `json:"options"`
	DivisionID *int64   `json:"divisionId"`
	SortOrder  int      `json:"sortOrder"`
}

func (d *CreateCustomFieldDTO) Validate() *internal.AppError {
	d.Label = strings.TrimSpace(d.Label)
	d.Key = strings.TrimSpace(d.Key)
	if d.Key == "" {
		d.Key = Slugify(d.Label)
	}
	d.Options = cleanOptions(d.Options)

	v := validation.NewValidator()
	v.Field("label", d.Label).As("Label").Required().MaxLength(100)
	v.Field("key", d.Key).As("Key").Required().MaxLength(64)
	if d.Key != "" && !keyPattern.MatchString(d.Key) {
		v.AddError("key", "Key must start with a letter and contain only lowercase letters, digits and underscores", internal.ErrCodeValidationFailed)
	}
	v.Field("fieldType", d.FieldType).As("Field type").Required().OneOf(fieldTypes...)
	if FieldType(d.FieldType) == TypeSelect && len(d.Options) == 0 {
		v.AddError("options", "Select fields need at least one option", internal.ErrCodeValidationFailed)
	}
	validateRules(v, d.Validation)
	return v.Validate()
}

type UpdateCustomFieldDTO struct {
	Label      *string   `json:"label"`
	IsRequired *bool     `json:"isRequired"`
	Validation *Rules    `json:"validation"`
	Options    *[]string `json:"options"`
	SortOrder  *int      `json:"sortOrder"`
	IsActive   *bool     `json:"isActive"`
}

func (d *UpdateCustomFieldDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	if d.Label != nil {
		trimmed := strings.TrimSpace(*d.Label)
		d.Label = &trimmed
		v.Field("label", trimmed).As("Label").Required().MaxLength(100)
	}
	if d.Options != nil {
		cleaned := cleanOptions(*d.Options)
		d.Options = &cleaned
	}
	if d.Validation != nil {
		validateRules(v, *d.Validation)
	}
	return v.Validate()
}

func validateRules(v *validation.ValidationBuilder, r Rules) {
	if r.MinLength != nil && r.MaxLength != nil && *r.MinLength > *r.MaxLength {
		v.AddError("validation.minLength", "Minimum length cannot exceed maximum length", internal.ErrCodeValidationFailed)
	}
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		v.AddError("validation.min", "Minimum cannot exceed maximum", internal.ErrCodeValidationFailed)
	}
	if r.Pattern != "" {
		if _, err := regexp.Compile(r.Pattern); err != nil {
			v.AddError("validation.pattern", "Pattern is not a valid regular expression", internal.ErrCodeValidationFailed)
		}
	}
}

func cleanOptions(options []string) []string {
	out := make([]string, 0, len(options))
	seen := make(map[string]bool, len(options))
	for _, o := range options {
		o = strings.TrimSpace(o)
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	return out
}

type CustomFieldsResponse struct {
	CustomFields []*Definition `json:"customFields"`
}
