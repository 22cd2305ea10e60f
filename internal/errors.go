package internal

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

// FieldErrors maps a request field (e.g. "0.name", "permissions.2") to its messages.
type FieldErrors map[string][]string

func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

func (f FieldErrors) Has(field string) bool {
	_, ok := f[field]
	return ok
}

func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

// Fields returns the field keys in a stable order.
func (f FieldErrors) Fields() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type AppError struct {
	Type       ErrorType
	Message    string
	Fields     FieldErrors
	Reasons    []string
	StatusCode int
	Cause      error
}

func (e *AppError) Error() string {
	if len(e.Fields) > 0 {
		field := e.Fields.Fields()[0]
		return fmt.Sprintf("%s %s", e.Message, e.Fields[field][0])
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// GetDetailedMessage flattens field errors into a single line for logs.
func (e *AppError) GetDetailedMessage() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	var messages []string
	for _, field := range e.Fields.Fields() {
		messages = append(messages, e.Fields[field]...)
	}
	return strings.Join(messages, "; ")
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Details is the value rendered in the envelope's errors member.
func (e *AppError) Details() interface{} {
	switch {
	case e.Type == ErrorTypeValidation && len(e.Fields) > 0:
		return e.Fields
	case len(e.Reasons) > 0:
		return e.Reasons
	case e.Type == ErrorTypeInternal && e.Cause != nil:
		return []string{e.Cause.Error()}
	default:
		return []string{}
	}
}

func NewValidationError(fields FieldErrors) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    "Validation error.",
		Fields:     fields,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func NewValidationFieldError(field, message string) *AppError {
	fields := FieldErrors{}
	fields.Add(field, message)
	return NewValidationError(fields)
}

func NewNotFoundError(message string, reasons ...string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		Reasons:    reasons,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrPermissionNotFound  = NewNotFoundError("Permission not found.")
	ErrPermissionsNotFound = NewNotFoundError("One or more permissions not found.")
	ErrRoleNotFound        = NewNotFoundError("Role not found.", "The specified role does not exist.")
	ErrRoleNotFoundBare    = NewNotFoundError("Role not found.")
)

// IsAppError unwraps err into an *AppError when one is present in the chain.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsNotFound reports whether err classifies as a missing entity.
func IsNotFound(err error) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Type == ErrorTypeNotFound
}

// IsValidation reports whether err classifies as rejected input.
func IsValidation(err error) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Type == ErrorTypeValidation
}
