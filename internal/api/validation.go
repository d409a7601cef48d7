package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"huddle/internal/models"
)

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateReportTarget, models.Report{})
	return v
}

func validateReportTarget(sl validator.StructLevel) {
	report := sl.Current().Interface().(models.Report)
	if _, ok := report.Kind(); !ok {
		sl.ReportError(report.ActivityID, "target", "Target", "one_target", "")
	}
}

// validateRequest checks dst against its validate tags and returns the first
// failure as a *ValidationError.
func validateRequest(dst any) error {
	err := requestValidator.Struct(dst)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return &ValidationError{Message: "invalid request payload"}
	}

	first := validationErrors[0]
	field := first.Field()
	verr := &ValidationError{Field: field, Tag: first.Tag()}
	switch first.Tag() {
	case "required":
		verr.Message = fmt.Sprintf("%s is required", field)
	case "email":
		verr.Message = "invalid email format"
	case "min":
		verr.Message = fmt.Sprintf("%s must be at least %s", field, first.Param())
	case "max":
		verr.Message = fmt.Sprintf("%s must be at most %s", field, first.Param())
	case "datetime":
		verr.Message = fmt.Sprintf("%s must look like 2006-01-02T15:04:05", field)
	case "one_target":
		verr.Message = "a report needs exactly one of activity, message or user"
	default:
		verr.Message = fmt.Sprintf("invalid %s", field)
	}
	return verr
}
