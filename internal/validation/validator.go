// Package validation validates API request bodies using the validator/v10 library.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/listenupapp/booktable/internal/booktable"
	domainerrors "github.com/listenupapp/booktable/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator with the sortkey tag registered. It accepts a
// table header identifier (alpha, author, year, rating, publisher).
func New() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	//nolint:errcheck // Tags are static; registration only fails on an empty tag.
	v.RegisterValidation("sortkey", func(fl validator.FieldLevel) bool {
		_, err := booktable.ParseSortKey(fl.Field().String())
		return err == nil
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a VALIDATION error with per-field details.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	names := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = friendlyMessage(e)
		names = append(names, e.Field())
	}

	return domainerrors.ValidationWithDetails(
		"validation failed: "+strings.Join(names, ", "),
		fieldErrors,
	)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "sortkey":
		return fmt.Sprintf("must be one of: %s", joinKeys(booktable.SortKeys()))
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}

func joinKeys(keys []booktable.SortKey) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, string(k))
	}
	return strings.Join(parts, " ")
}
