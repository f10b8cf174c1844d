// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package activity

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the store and the query engine.
var (
	// ErrNotFound indicates an activity id that does not exist.
	ErrNotFound = errors.New("activity not found")

	// ErrInvalidKind indicates a kind outside the closed kind set.
	ErrInvalidKind = errors.New("unknown activity kind")

	// ErrSubjectNotFound indicates a subject id that does not resolve
	// through the kind's existence validator.
	ErrSubjectNotFound = errors.New("subject not found")
)

// ValidationError reports a rejected request parameter. It is surfaced
// to the caller and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func errLimitOutOfRange(limit, max int) error {
	return &ValidationError{
		Field:  "limit",
		Reason: fmt.Sprintf("must be in [1, %d], got %d", max, limit),
	}
}

func errConflictingKindFilters() error {
	return &ValidationError{
		Field:  "kinds",
		Reason: "kinds and exclude_kinds must not both be given",
	}
}
