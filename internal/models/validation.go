package models

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"notebook/pkg/password"

	"github.com/go-playground/validator/v10"
)

// validate is shared by every value object constructor. validator.Validate
// caches struct metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name so messages match the API payloads.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("passwordhash", func(fl validator.FieldLevel) bool {
		return password.IsWellFormed(fl.Field().String())
	})

	return v
}

// ValidationError reports which fields of a value object broke its contract.
type ValidationError struct {
	Object string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("invalid %s", e.Object)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("invalid %s: %s", e.Object, strings.Join(msgs, "; "))
}

// IsValidationError reports whether err is, or wraps, a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func newValidationError(object, field, msg string) *ValidationError {
	return &ValidationError{Object: object, Fields: map[string]string{field: msg}}
}

// Validate checks s against its validate tags and reports every failing
// field, by JSON name, in a *ValidationError about object.
func Validate(object string, s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %s: %w", object, err)
	}

	fields := make(map[string]string, len(verrs))
	for _, e := range verrs {
		fields[e.Field()] = describe(e)
	}
	return &ValidationError{Object: object, Fields: fields}
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s items", e.Param())
		}
		return fmt.Sprintf("must be at most %s characters", e.Param())
	case "passwordhash":
		return "is not a supported password hash"
	default:
		return fmt.Sprintf("failed on the '%s' tag", e.Tag())
	}
}
