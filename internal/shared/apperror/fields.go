package apperror

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

// FieldErrors maps an input field to the message describing what is wrong with it.
type FieldErrors map[string]string

func (f FieldErrors) Add(field, message string) {
	if _, exists := f[field]; exists {
		return
	}
	f[field] = message
}

func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return strings.Join(parts, "; ")
}

var ErrValidationFailed = New(
	CodeValidation,
	"Validation failed",
	http.StatusBadRequest,
)

// Validation wraps field errors into a 400 VALIDATION_ERROR carrying them as details.
func Validation(fields FieldErrors) *AppError {
	e := ErrValidationFailed.WithDetails(map[string]string(fields))
	e.Err = fields
	return e
}

// FieldsOf extracts the field map from a validation error, if err is one.
func FieldsOf(err error) (FieldErrors, bool) {
	var fields FieldErrors
	if errors.As(err, &fields) {
		return fields, true
	}
	return nil, false
}

func RequiredField(field string) *AppError {
	return New(CodeInvalidInput, field+" is required", http.StatusBadRequest)
}

func InvalidField(field string) *AppError {
	return New(CodeInvalidInput, field+" is invalid", http.StatusBadRequest)
}
