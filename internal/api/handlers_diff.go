// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/catalogus/internal/activity"
	"github.com/tomtom215/catalogus/internal/diff"
)

// diffResponse is the body of the activity diff endpoint.
type diffResponse struct {
	ActivityID string          `json:"activity_id"`
	PreviousID string          `json:"previous_id"`
	Changes    diff.ChangeList `json:"changes,omitempty"`
	Text       string          `json:"text,omitempty"`
}

// Diff handles GET /api/v1/activity/{activity_id}/diff: the change
// between an activity's snapshot and the snapshot of the previous
// activity for the same subject.
func (h *Handlers) Diff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	activityID := chi.URLParam(r, "activity_id")

	current, err := h.engine.Get(ctx, activityID)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}

	t, ok := activity.ObjectTypeOf(current.Kind)
	if !ok || t != activity.ObjectDataset {
		respondError(w, r, http.StatusBadRequest, CodeValidation,
			"diff is only available for dataset activities", nil)
		return
	}

	previous, err := h.priorActivity(r, current)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	if previous == nil {
		respondError(w, r, http.StatusNotFound, CodeNotFound,
			"no prior version to diff against", nil)
		return
	}

	oldSnap, err := snapshotOf(previous)
	if err != nil {
		respondError(w, r, http.StatusNotFound, CodeNotFound,
			"no prior version to diff against", nil)
		return
	}
	newSnap, err := snapshotOf(current)
	if err != nil {
		respondError(w, r, http.StatusNotFound, CodeNotFound,
			"activity carries no snapshot to diff", nil)
		return
	}

	resp := diffResponse{ActivityID: current.ID, PreviousID: previous.ID}
	switch mode := r.URL.Query().Get("mode"); mode {
	case "", "changes":
		resp.Changes = diff.Compare(oldSnap, newSnap)
	case "unified", "context":
		text, err := diff.Render(oldSnap, newSnap, diff.Mode(mode),
			previous.Timestamp.Format(timestampLabel),
			current.Timestamp.Format(timestampLabel))
		if err != nil {
			respondError(w, r, http.StatusInternalServerError, CodeInternal, "failed to render diff", nil)
			return
		}
		resp.Text = text
	default:
		respondError(w, r, http.StatusBadRequest, CodeValidation,
			"mode must be changes, unified or context", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, resp, nil)
}

const timestampLabel = "2006-01-02T15:04:05Z07:00"

// priorActivity returns the newest activity for the same subject
// strictly before the given one, or nil when none exists.
func (h *Handlers) priorActivity(r *http.Request, current *activity.Activity) (*activity.Activity, error) {
	t, _ := activity.ObjectTypeOf(current.Kind)
	page := activity.Page{
		Limit:         1,
		Before:        &current.Timestamp,
		IncludeHidden: true,
	}
	entries, err := h.engine.BySubject(r.Context(), t, current.SubjectID, page)
	if err != nil {
		if errors.Is(err, activity.ErrSubjectNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// snapshotOf decodes an activity payload into a snapshot map.
func snapshotOf(a *activity.Activity) (map[string]any, error) {
	if len(a.Payload) == 0 {
		return nil, errors.New("activity has no payload")
	}
	var snap map[string]any
	if err := json.Unmarshal(a.Payload, &snap); err != nil {
		return nil, err
	}
	return snap, nil
}
