package validation

import (
	"fmt"
	"net/mail"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	errors "github.com/frahmantamala/contacthub/internal"
)

type ValidatorFunc func(interface{}) *errors.ValidationError

type FieldValidator struct {
	FieldName  string
	Label      string
	Value      interface{}
	Validators []ValidatorFunc
}

// ValidationBuilder collects every violated rule before reporting.
type ValidationBuilder struct {
	fields []*FieldValidator
	errors []errors.ValidationError
}

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{}
}

// Field registers a value; label is used in messages and defaults to the name.
func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := &FieldValidator{FieldName: name, Label: name, Value: value}
	v.fields = append(v.fields, fv)
	return fv
}

// AddError records a rule violation not tied to a field chain.
func (v *ValidationBuilder) AddError(field, message string, code errors.ErrorCode) {
	v.errors = append(v.errors, errors.ValidationError{Field: field, Message: message, Code: string(code)})
}

func (fv *FieldValidator) As(label string) *FieldValidator {
	fv.Label = label
	return fv
}

func (fv *FieldValidator) fail(message string) *errors.ValidationError {
	return &errors.ValidationError{Field: fv.FieldName, Message: message, Code: string(errors.ErrCodeValidationFailed)}
}

func stringValue(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	}
	return "", false
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.ValidationError {
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				return fv.fail(fmt.Sprintf("%s is required", fv.Label))
			}
		case *string:
			if v == nil || strings.TrimSpace(*v) == "" {
				return fv.fail(fmt.Sprintf("%s is required", fv.Label))
			}
		case int64:
			if v == 0 {
				return fv.fail(fmt.Sprintf("%s is required", fv.Label))
			}
		case *int64:
			if v == nil || *v == 0 {
				return fv.fail(fmt.Sprintf("%s is required", fv.Label))
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MinLength(min int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.ValidationError {
		if s, ok := stringValue(value); ok && s != "" && len([]rune(s)) < min {
			return fv.fail(fmt.Sprintf("%s must be at least %d characters", fv.Label, min))
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.ValidationError {
		if s, ok := stringValue(value); ok && len([]rune(s)) > max {
			return fv.fail(fmt.Sprintf("%s must not exceed %d characters", fv.Label, max))
		}
		return nil
	})
	return fv
}

// Email accepts an empty value; combine with Required when mandatory.
func (fv *FieldValidator) Email() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.ValidationError {
		s, ok := stringValue(value)
		if !ok || s == "" {
			return nil
		}
		if !IsEmail(s) {
			return fv.fail(fmt.Sprintf("%s must be a valid email address", fv.Label))
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) HexColor() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.ValidationError {
		s, ok := stringValue(value)
		if !ok || s == "" {
			return nil
		}
		if !IsHexColor(s) {
			return fv.fail(fmt.Sprintf("%s must be a hex color such as #1E40AF", fv.Label))
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) OneOf(allowed ...string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.ValidationError {
		s, ok := stringValue(value)
		if !ok || s == "" {
			return nil
		}
		if !slices.Contains(allowed, s) {
			return fv.fail(fmt.Sprintf("%s must be one of: %s", fv.Label, strings.Join(allowed, ", ")))
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Custom(validator func(interface{}) *errors.ValidationError) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

// Validate returns nil or one error listing every violation.
func (v *ValidationBuilder) Validate() *errors.AppError {
	validationErrors := slices.Clone(v.errors)
	for _, field := range v.fields {
		for _, validate := range field.Validators {
			if err := validate(field.Value); err != nil {
				validationErrors = append(validationErrors, *err)
			}
		}
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationErrors(validationErrors)
	}
	return nil
}

func IsEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s, "@")
}

func IsHexColor(s string) bool {
	return hexColorPattern.MatchString(s)
}

var tagValidator = newTagValidator()

func newTagValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Struct runs `validate` struct tags and converts failures into the
// aggregated validation error shape.
func Struct(s interface{}) *errors.AppError {
	err := tagValidator.Struct(s)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewValidationError(err.Error(), errors.ErrCodeInvalidRequest)
	}
	out := make([]errors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, errors.ValidationError{
			Field:   fe.Field(),
			Message: tagMessage(fe),
			Code:    string(errors.ErrCodeValidationFailed),
		})
	}
	return errors.NewValidationErrors(out)
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
