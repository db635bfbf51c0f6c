package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/and161185/rubrica/internal/errs"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func draftValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// report json names so client and server speak about the same fields
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks d against the draft rules. On failure it returns an
// *errs.ValidationError keyed by json field name.
func (d UserDraft) Validate() error {
	d = d.Trimmed()
	err := draftValidator().Struct(d)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return fmt.Errorf("validate draft: %w", err)
	}
	fields := make(map[string]string, len(ves))
	for _, fe := range ves {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = describe(fe)
	}
	return &errs.ValidationError{Message: "invalid user", Fields: fields}
}

// Trimmed returns d with surrounding whitespace removed from every field.
func (d UserDraft) Trimmed() UserDraft {
	return UserDraft{
		Name:         strings.TrimSpace(d.Name),
		Surname:      strings.TrimSpace(d.Surname),
		Address:      strings.TrimSpace(d.Address),
		Location:     strings.TrimSpace(d.Location),
		Municipality: strings.TrimSpace(d.Municipality),
		Province:     strings.TrimSpace(d.Province),
		Email:        strings.TrimSpace(d.Email),
		Notes:        strings.TrimSpace(d.Notes),
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
