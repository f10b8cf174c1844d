// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/catalogus/internal/activity"
	"github.com/tomtom215/catalogus/internal/logging"
	"github.com/tomtom215/catalogus/internal/validation"
)

// purgeRequest is the body of DELETE /api/v1/admin/activity.
type purgeRequest struct {
	SubjectID    string   `json:"subject_id"`
	Before       string   `json:"before" validate:"omitempty,rfc3339"`
	After        string   `json:"after" validate:"omitempty,rfc3339"`
	Kinds        []string `json:"kinds" validate:"dive,activitykind"`
	ExcludeKinds []string `json:"exclude_kinds" validate:"dive,activitykind"`
}

// Purge handles DELETE /api/v1/admin/activity: bulk deletion of log
// entries matching a predicate. An empty body deletes nothing.
func (h *Handlers) Purge(w http.ResponseWriter, r *http.Request) {
	var req purgeRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, "invalid JSON body", nil)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, err.Error(), nil)
		return
	}
	if req.SubjectID == "" && req.Before == "" && req.After == "" &&
		len(req.Kinds) == 0 && len(req.ExcludeKinds) == 0 {
		respondError(w, r, http.StatusBadRequest, CodeValidation,
			"purge requires at least one of subject_id, before, after, kinds or exclude_kinds", nil)
		return
	}

	p := activity.Purge{SubjectID: req.SubjectID}
	if req.Before != "" {
		t, _ := time.Parse(time.RFC3339, req.Before)
		p.Before = &t
	}
	if req.After != "" {
		t, _ := time.Parse(time.RFC3339, req.After)
		p.After = &t
	}
	for _, k := range req.Kinds {
		p.Kinds = append(p.Kinds, activity.Kind(k))
	}
	for _, k := range req.ExcludeKinds {
		p.ExcludeKinds = append(p.ExcludeKinds, activity.Kind(k))
	}

	deleted, err := h.engine.Purge(r.Context(), p)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Activity purge failed")
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "purge failed", nil)
		return
	}
	logging.Ctx(r.Context()).Info().
		Int64("deleted", deleted).
		Str("subject_id", req.SubjectID).
		Msg("Activity purge completed")
	respondJSON(w, r, http.StatusOK, map[string]int64{"deleted": deleted}, nil)
}
