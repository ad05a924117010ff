// Package validation wraps go-playground/validator with the rules used by
// commands, queries and request bodies.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"multinet/domain/core/valueobjects"
	pkgerrors "multinet/pkg/errors"
)

var (
	instance *validator.Validate
	once     sync.Once
)

// Validator returns the shared validator instance
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New()

		// Use JSON tag names in error messages
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		// name: workspace, table and graph identifiers
		_ = v.RegisterValidation("name", func(fl validator.FieldLevel) bool {
			return valueobjects.ValidateName("value", fl.Field().String()) == nil
		})

		instance = v
	})
	return instance
}

// Struct validates s by its struct tags and returns a validation AppError
// listing every failing field.
func Struct(s interface{}) error {
	if err := Validator().Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors to an AppError
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return pkgerrors.NewValidationError(err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	fields := make(map[string]interface{}, len(validationErrors))
	for _, e := range validationErrors {
		msg := formatFieldError(e)
		messages = append(messages, msg)
		fields[e.Field()] = msg
	}

	return pkgerrors.NewValidationError(strings.Join(messages, "; ")).
		WithDetail("fields", fields)
}

// formatFieldError formats a single field validation error
func formatFieldError(e validator.FieldError) string {
	field := e.Field()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s item(s)", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "name":
		return fmt.Sprintf("%s must start with a letter and contain only letters, digits, '_' or '-'", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
