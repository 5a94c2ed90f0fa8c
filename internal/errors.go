package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeTooLarge     ErrorType = "TOO_LARGE"
	ErrorTypeRateLimited  ErrorType = "RATE_LIMITED"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrCodeInvalidID        ErrorCode = "INVALID_ID"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeSessionInvalid     ErrorCode = "SESSION_INVALID"
	ErrCodeSessionExpired     ErrorCode = "SESSION_EXPIRED"
	ErrCodeInsufficientRole   ErrorCode = "INSUFFICIENT_ROLE"
	ErrCodeDivisionForbidden  ErrorCode = "DIVISION_FORBIDDEN"
	ErrCodeTooManyAttempts    ErrorCode = "TOO_MANY_ATTEMPTS"

	ErrCodeUserNotFound     ErrorCode = "USER_NOT_FOUND"
	ErrCodeEmailTaken       ErrorCode = "EMAIL_TAKEN"
	ErrCodeSelfDeactivation ErrorCode = "SELF_DEACTIVATION"

	ErrCodeDivisionNotFound ErrorCode = "DIVISION_NOT_FOUND"
	ErrCodeDivisionInactive ErrorCode = "DIVISION_INACTIVE"
	ErrCodeDivisionExists   ErrorCode = "DIVISION_EXISTS"

	ErrCodeCategoryNotFound    ErrorCode = "CATEGORY_NOT_FOUND"
	ErrCodeCategoryExists      ErrorCode = "CATEGORY_EXISTS"
	ErrCodeCustomFieldNotFound ErrorCode = "CUSTOM_FIELD_NOT_FOUND"
	ErrCodeCustomFieldExists   ErrorCode = "CUSTOM_FIELD_EXISTS"

	ErrCodeUploadNotFound    ErrorCode = "UPLOAD_NOT_FOUND"
	ErrCodeInvalidFileType   ErrorCode = "INVALID_FILE_TYPE"
	ErrCodeFileTooLarge      ErrorCode = "FILE_TOO_LARGE"
	ErrCodeUploadNotPending  ErrorCode = "UPLOAD_NOT_PENDING"
	ErrCodeUploadProcessing  ErrorCode = "UPLOAD_PROCESSING"
	ErrCodeInvalidMapping    ErrorCode = "INVALID_FIELD_MAPPING"
	ErrCodeUnreadableFile    ErrorCode = "UNREADABLE_FILE"
	ErrCodeContactNotFound   ErrorCode = "CONTACT_NOT_FOUND"
	ErrCodeBrandingInvalid   ErrorCode = "BRANDING_INVALID"
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			messages := make([]string, len(validationErrors.Errors))
			for i, err := range validationErrors.Errors {
				messages[i] = err.Message
			}
			return strings.Join(messages, "; ")
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on type and code so package sentinels work with errors.Is
// even after WithCause/WithDetails copies.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithCause returns a copy carrying cause, leaving shared sentinels untouched.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// Messages lists every violated rule in order.
func (v ValidationErrors) Messages() []string {
	out := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		out[i] = e.Message
	}
	return out
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return NewValidationErrors([]ValidationError{
		{Field: field, Message: message, Code: string(code)},
	})
}

// NewValidationErrors reports every violated rule in a single response.
func NewValidationErrors(errs []ValidationError) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    ValidationErrors{Errors: errs},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewTooLargeError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeTooLarge,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusRequestEntityTooLarge,
	}
}

func NewRateLimitedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeRateLimited,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}

var (
	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
	ErrSessionInvalid     = NewUnauthorizedError("Authentication required", ErrCodeSessionInvalid)
	ErrSessionExpired     = NewUnauthorizedError("Session has expired", ErrCodeSessionExpired)
	ErrInsufficientRole   = NewForbiddenError("Insufficient permissions", ErrCodeInsufficientRole)
	ErrDivisionForbidden  = NewForbiddenError("Access to this division is not allowed", ErrCodeDivisionForbidden)
	ErrTooManyAttempts    = NewRateLimitedError("Too many login attempts, please try again later", ErrCodeTooManyAttempts)

	ErrUserNotFound     = NewNotFoundError("User not found", ErrCodeUserNotFound)
	ErrEmailTaken       = NewConflictError("A user with this email already exists", ErrCodeEmailTaken)
	ErrSelfDeactivation = NewValidationError("You cannot deactivate your own account", ErrCodeSelfDeactivation)

	ErrDivisionNotFound = NewNotFoundError("Division not found", ErrCodeDivisionNotFound)
	ErrDivisionInactive = NewValidationError("Division is inactive", ErrCodeDivisionInactive)
	ErrDivisionExists   = NewConflictError("A division with this name already exists", ErrCodeDivisionExists)

	ErrCategoryNotFound    = NewNotFoundError("Contact category not found", ErrCodeCategoryNotFound)
	ErrCategoryExists      = NewConflictError("A category with this name already exists", ErrCodeCategoryExists)
	ErrCustomFieldNotFound = NewNotFoundError("Custom field not found", ErrCodeCustomFieldNotFound)
	ErrCustomFieldExists   = NewConflictError("A custom field with this key already exists", ErrCodeCustomFieldExists)

	ErrUploadNotFound   = NewNotFoundError("Upload not found", ErrCodeUploadNotFound)
	ErrInvalidFileType  = NewValidationError("Invalid file type. Only .xlsx, .xls and .csv files are allowed.", ErrCodeInvalidFileType)
	ErrFileTooLarge     = NewTooLargeError("File too large. Maximum size is 10MB.", ErrCodeFileTooLarge)
	ErrUploadNotPending = NewConflictError("Upload is no longer pending", ErrCodeUploadNotPending)
	ErrUploadProcessing = NewConflictError("Upload is currently being processed", ErrCodeUploadProcessing)
	ErrContactNotFound  = NewNotFoundError("Contact not found", ErrCodeContactNotFound)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
