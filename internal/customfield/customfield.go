package customfield

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/frahmantamala/contacthub/internal/core/common/validation"
	customfieldDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/customfield"
)

type FieldType string

const (
	TypeText     FieldType = "text"
	TypeNumber   FieldType = "number"
	TypeEmail    FieldType = "email"
	TypePhone    FieldType = "phone"
	TypeDate     FieldType = "date"
	TypeSelect   FieldType = "select"
	TypeCheckbox FieldType = "checkbox"
	TypeTextarea FieldType = "textarea"
)

var fieldTypes = []string{
	string(TypeText), string(TypeNumber), string(TypeEmail), string(TypePhone),
	string(TypeDate), string(TypeSelect), string(TypeCheckbox), string(TypeTextarea),
}

// TargetPrefix marks a field-mapping target that writes into the JSON bag.
const TargetPrefix = "custom:"

var phonePattern = regexp.MustCompile(`^[+0-9 ()\-.]{5,30}$`)

// Rules are optional value constraints stored alongside the definition.
type Rules struct {
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
}

type Definition struct {
	ID         int64     `json:"id"`
	Key        string    `json:"key"`
	Label      string    `json:"label"`
	FieldType  FieldType `json:"fieldType"`
	IsRequired bool      `json:"isRequired"`
	Validation Rules     `json:"validation"`
	Options    []string  `json:"options"`
	DivisionID *int64    `json:"divisionId"`
	IsGlobal   bool      `json:"isGlobal"`
	SortOrder  int       `json:"sortOrder"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Target is the mapping target naming this field.
func (d *Definition) Target() string {
	return TargetPrefix + d.Key
}

// Coerce converts a raw value into the stored representation or returns a
// human-readable reason it is invalid. Empty values return nil, "".
func (d *Definition) Coerce(raw interface{}) (interface{}, string) {
	if raw == nil {
		return nil, ""
	}
	if b, ok := raw.(bool); ok && d.FieldType == TypeCheckbox {
		return b, ""
	}
	if n, ok := raw.(float64); ok && d.FieldType == TypeNumber {
		return d.checkRange(n)
	}

	s := strings.TrimSpace(fmt.Sprint(raw))
	if s == "" {
		return nil, ""
	}

	switch d.FieldType {
	case TypeNumber:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Sprintf("%s must be a number", d.Label)
		}
		return d.checkRange(n)
	case TypeEmail:
		if !validation.IsEmail(s) {
			return nil, fmt.Sprintf("%s must be a valid email address", d.Label)
		}
	case TypePhone:
		if !phonePattern.MatchString(s) {
			return nil, fmt.Sprintf("%s must be a valid phone number", d.Label)
		}
	case TypeDate:
		t, err := parseDate(s)
		if err != nil {
			return nil, fmt.Sprintf("%s must be a date (YYYY-MM-DD)", d.Label)
		}
		return t.Format(time.DateOnly), ""
	case TypeSelect:
		if len(d.Options) > 0 && !slices.Contains(d.Options, s) {
			return nil, fmt.Sprintf("%s must be one of: %s", d.Label, strings.Join(d.Options, ", "))
		}
	case TypeCheckbox:
		switch strings.ToLower(s) {
		case "true", "yes", "y", "1", "x":
			return true, ""
		case "false", "no", "n", "0":
			return false, ""
		}
		return nil, fmt.Sprintf("%s must be yes or no", d.Label)
	}

	if msg := d.checkLength(s); msg != "" {
		return nil, msg
	}
	return s, ""
}

func (d *Definition) checkRange(n float64) (interface{}, string) {
	if d.Validation.Min != nil && n < *d.Validation.Min {
		return nil, fmt.Sprintf("%s must be at least %v", d.Label, *d.Validation.Min)
	}
	if d.Validation.Max != nil && n > *d.Validation.Max {
		return nil, fmt.Sprintf("%s must be at most %v", d.Label, *d.Validation.Max)
	}
	return n, ""
}

func (d *Definition) checkLength(s string) string {
	n := len([]rune(s))
	if d.Validation.MinLength != nil && n < *d.Validation.MinLength {
		return fmt.Sprintf("%s must be at least %d characters", d.Label, *d.Validation.MinLength)
	}
	if d.Validation.MaxLength != nil && n > *d.Validation.MaxLength {
		return fmt.Sprintf("%s must not exceed %d characters", d.Label, *d.Validation.MaxLength)
	}
	if d.Validation.Pattern != "" {
		re, err := regexp.Compile(d.Validation.Pattern)
		if err == nil && !re.MatchString(s) {
			return fmt.Sprintf("%s has an invalid format", d.Label)
		}
	}
	return ""
}

// Spreadsheet dates arrive in a handful of layouts.
var dateLayouts = []string{time.DateOnly, "2006/01/02", "01/02/2006", "1/2/2006", time.RFC3339}

func parseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func rulesFromJSON(m datatypes.JSONMap) Rules {
	var r Rules
	if len(m) == 0 {
		return r
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return r
	}
	_ = json.Unmarshal(raw, &r)
	return r
}

func rulesToJSON(r Rules) datatypes.JSONMap {
	raw, err := json.Marshal(r)
	if err != nil {
		return datatypes.JSONMap{}
	}
	out := datatypes.JSONMap{}
	_ = json.Unmarshal(raw, &out)
	return out
}

func FromDataModel(c *customfieldDatamodel.CustomFieldDefinition) *Definition {
	options := []string(c.Options)
	if options == nil {
		options = []string{}
	}
	return &Definition{
		ID:         c.ID,
		Key:        c.Key,
		Label:      c.Label,
		FieldType:  FieldType(c.FieldType),
		IsRequired: c.IsRequired,
		Validation: rulesFromJSON(c.Validation),
		Options:    options,
		DivisionID: c.DivisionID,
		IsGlobal:   c.IsGlobal,
		SortOrder:  c.SortOrder,
		IsActive:   c.IsActive,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func snapshot(c *customfieldDatamodel.CustomFieldDefinition) map[string]interface{} {
	return map[string]interface{}{
		"key":        c.Key,
		"label":      c.Label,
		"fieldType":  c.FieldType,
		"isRequired": c.IsRequired,
		"divisionId": c.DivisionID,
		"isActive":   c.IsActive,
	}
}
