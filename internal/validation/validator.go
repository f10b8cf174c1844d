// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

// Package validation provides struct validation using
// go-playground/validator v10: a thread-safe singleton instance with
// custom validators for activity kinds and RFC3339 timestamps, and
// error translation into the API's VALIDATION_ERROR format.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/catalogus/internal/activity"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single field validation failure.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

// RequestError is a collection of validation failures for one request.
type RequestError struct {
	errors []FieldError
}

// Errors returns the individual field errors.
func (re *RequestError) Errors() []FieldError {
	return re.errors
}

// Error implements the error interface.
func (re *RequestError) Error() string {
	if len(re.errors) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(re.errors))
	for i, e := range re.errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// getValidator returns the singleton validator, registering custom
// validators on first use.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// activitykind: value is a member of the closed kind set.
		_ = validate.RegisterValidation("activitykind", func(fl validator.FieldLevel) bool {
			return activity.KnownKind(activity.Kind(fl.Field().String()))
		})

		// rfc3339: value parses as an RFC3339 timestamp.
		_ = validate.RegisterValidation("rfc3339", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(time.RFC3339, fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// ValidateStruct validates a struct and converts failures into a
// *RequestError.
func ValidateStruct(s interface{}) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return fmt.Errorf("invalid validation target: %w", err)
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	re := &RequestError{}
	for _, fe := range verrs {
		re.errors = append(re.errors, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: messageFor(fe),
		})
	}
	return re
}

// messageFor builds a human-readable message for one field error.
func messageFor(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "activitykind":
		return fmt.Sprintf("%s is not a known activity kind", field)
	case "rfc3339":
		return fmt.Sprintf("%s must be an RFC3339 timestamp", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
