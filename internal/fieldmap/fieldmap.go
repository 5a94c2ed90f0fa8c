// Package fieldmap suggests and validates column-to-field mappings for
// contact imports.
package fieldmap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/customfield"
)

// Skip marks a column that is not imported. An empty target means the same.
const Skip = "__skip__"

type Field struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Required bool     `json:"required"`
	Synonyms []string `json:"-"`
}

// Canonical contact fields in matching order.
var Canonical = []Field{
	{Key: "firstName", Label: "First Name", Synonyms: []string{"first name", "firstname", "fname", "given name", "first"}},
	{Key: "lastName", Label: "Last Name", Synonyms: []string{"last name", "lastname", "lname", "surname", "family name", "last"}},
	{Key: "email", Label: "Email Address", Required: true, Synonyms: []string{"email", "email address", "e-mail", "e-mail address", "mail"}},
	{Key: "phone", Label: "Phone", Synonyms: []string{"phone", "phone number", "telephone", "tel", "mobile", "cell", "mobile number"}},
	{Key: "company", Label: "Company", Synonyms: []string{"company", "company name", "organization", "organisation", "employer", "business"}},
	{Key: "jobTitle", Label: "Job Title", Synonyms: []string{"job title", "title", "position", "role", "designation"}},
	{Key: "address", Label: "Address", Synonyms: []string{"address", "street", "street address", "address line 1", "address1"}},
	{Key: "city", Label: "City", Synonyms: []string{"city", "town"}},
	{Key: "state", Label: "State", Synonyms: []string{"state", "province", "region", "county"}},
	{Key: "postalCode", Label: "Postal Code", Synonyms: []string{"postal code", "zip", "zip code", "postcode", "post code"}},
	{Key: "country", Label: "Country", Synonyms: []string{"country", "nation"}},
	{Key: "notes", Label: "Notes", Synonyms: []string{"notes", "note", "comments", "comment", "remarks"}},
}

// Mapping is column header -> target key.
type Mapping map[string]string

// Targets lists every field a column may map to.
func Targets(custom []*customfield.Definition) []Field {
	out := make([]Field, 0, len(Canonical)+len(custom))
	out = append(out, Canonical...)
	for _, d := range custom {
		out = append(out, Field{
			Key:      d.Target(),
			Label:    d.Label,
			Synonyms: []string{strings.ToLower(d.Key), strings.ToLower(d.Label)},
		})
	}
	return out
}

func normalize(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))
	s = strings.NewReplacer("_", " ", "\t", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// AutoMap suggests a target for each header. A header's candidate is the
// first field with an exact synonym match, else the first whose synonym
// appears inside the header. Exact candidates are claimed before contained
// ones, each in column order. A column whose candidate is already claimed,
// or that has none, maps to Skip.
func AutoMap(headers []string, custom []*customfield.Definition) Mapping {
	targets := Targets(custom)
	claimed := make(map[string]bool, len(targets))
	out := make(Mapping, len(headers))

	claim := func(header, target string) {
		if target == "" || claimed[target] {
			out[header] = Skip
			return
		}
		claimed[target] = true
		out[header] = target
	}

	var loose []string
	for _, header := range headers {
		if target := candidate(normalize(header), targets, exact); target != "" {
			claim(header, target)
			continue
		}
		loose = append(loose, header)
	}
	for _, header := range loose {
		claim(header, candidate(normalize(header), targets, contains))
	}
	return out
}

func exact(h, syn string) bool { return h == syn }

func contains(h, syn string) bool { return len(syn) > 2 && strings.Contains(h, syn) }

func candidate(h string, targets []Field, eq func(h, syn string) bool) string {
	if h == "" {
		return ""
	}
	for _, f := range targets {
		for _, syn := range f.Synonyms {
			if eq(h, normalize(syn)) {
				return f.Key
			}
		}
	}
	return ""
}

// IsSkip reports whether a target leaves the column out of the import.
func IsSkip(target string) bool {
	return target == "" || target == Skip
}

// Validate checks a submitted mapping and reports every problem at once.
func Validate(mapping Mapping, divisionID *int64, custom []*customfield.Definition) *internal.AppError {
	known := make(map[string]Field)
	for _, f := range Targets(custom) {
		known[f.Key] = f
	}

	columns := make([]string, 0, len(mapping))
	for c := range mapping {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	var errs []internal.ValidationError
	sources := make(map[string][]string)
	var unknown []internal.ValidationError
	for _, column := range columns {
		target := mapping[column]
		if IsSkip(target) {
			continue
		}
		if _, ok := known[target]; !ok {
			unknown = append(unknown, mappingError(column, fmt.Sprintf("Column %q maps to unknown field %q.", column, target)))
			continue
		}
		sources[target] = append(sources[target], column)
	}

	missing := false
	for _, f := range Canonical {
		if f.Required && len(sources[f.Key]) == 0 {
			missing = true
		}
	}
	if missing {
		errs = append(errs, mappingError("fieldMapping", "At least one required field (Email Address) must be mapped."))
	}

	for _, f := range Targets(custom) {
		if cols := sources[f.Key]; len(cols) > 1 {
			errs = append(errs, mappingError("fieldMapping", fmt.Sprintf("%s is mapped from more than one column (%s).", f.Label, strings.Join(cols, ", "))))
		}
	}

	if divisionID == nil {
		errs = append(errs, mappingError("divisionId", "Please select a division."))
	}
	errs = append(errs, unknown...)

	if len(errs) == 0 {
		return nil
	}
	appErr := internal.NewValidationErrors(errs)
	appErr.Code = internal.ErrCodeInvalidMapping
	appErr.Message = "Invalid field mapping"
	return appErr
}

func mappingError(field, message string) internal.ValidationError {
	return internal.ValidationError{Field: field, Message: message, Code: string(internal.ErrCodeInvalidMapping)}
}
