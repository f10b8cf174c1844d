// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

// Package api provides the HTTP surface of Catalogus. All endpoints
// use a consistent response envelope for better client handling.
package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/catalogus/internal/logging"
)

// Response is the standardized envelope for all API endpoints.
type Response struct {
	// Success indicates whether the request succeeded.
	Success bool `json:"success"`

	// Data contains the response payload (null on error).
	Data interface{} `json:"data,omitempty"`

	// Error contains error details (null on success).
	Error *Error `json:"error,omitempty"`

	// Meta contains optional metadata about the response.
	Meta *Meta `json:"meta,omitempty"`
}

// Error is the machine-readable error body.
type Error struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// Details contains additional error details (optional).
	Details interface{} `json:"details,omitempty"`

	// RequestID is the request id for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// Meta carries response metadata.
type Meta struct {
	RequestID  string      `json:"request_id,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes a list page.
type Pagination struct {
	Count   int  `json:"count"`
	Offset  int  `json:"offset,omitempty"`
	Limit   int  `json:"limit,omitempty"`
	HasMore bool `json:"has_more"`
}

// Error codes returned by the API.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeSubjectNotFound = "SUBJECT_NOT_FOUND"
	CodeInternal        = "INTERNAL_ERROR"
)

// respondJSON writes a success envelope.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}, pagination *Pagination) {
	resp := Response{
		Success: true,
		Data:    data,
		Meta: &Meta{
			RequestID:  logging.RequestIDFromContext(r.Context()),
			Timestamp:  time.Now().UTC(),
			Pagination: pagination,
		},
	}
	writeJSON(w, status, &resp)
}

// respondError writes an error envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details interface{}) {
	resp := Response{
		Success: false,
		Error: &Error{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
		Meta: &Meta{
			RequestID: logging.RequestIDFromContext(r.Context()),
			Timestamp: time.Now().UTC(),
		},
	}
	writeJSON(w, status, &resp)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("Failed to encode API response")
	}
}

// decodeJSONBody decodes a JSON request body into dst, rejecting
// unknown fields.
func decodeJSONBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
