package apperror

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func formatFieldName(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	return cases.Title(language.English).String(s)
}

// MapValidationError turns a gin binding error into a VALIDATION_ERROR whose
// details list every failing field with a readable message.
func MapValidationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return ErrInvalidInput.WithDetails(err.Error())
	}

	fields := FieldErrors{}
	for _, e := range errs {
		human := formatFieldName(e.Field())
		switch e.Tag() {
		case "required":
			fields.Add(e.Field(), RequiredField(human).Message)
		default:
			fields.Add(e.Field(), InvalidField(human).Message)
		}
	}
	return Validation(fields)
}
