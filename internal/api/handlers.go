// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/catalogus/internal/activity"
	"github.com/tomtom215/catalogus/internal/catalog"
	"github.com/tomtom215/catalogus/internal/dashboard"
	"github.com/tomtom215/catalogus/internal/dispatch"
	"github.com/tomtom215/catalogus/internal/logging"
	"github.com/tomtom215/catalogus/internal/validation"
)

// Pinger reports storage liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds the HTTP handlers and their collaborators.
type Handlers struct {
	engine     *activity.Engine
	tracker    *dashboard.Tracker
	dispatcher *dispatch.Dispatcher
	visibility catalog.Visibility
	pinger     Pinger
}

// NewHandlers creates the handler set. A nil visibility defaults to
// allow-all; authorization is the embedding application's concern. A
// nil pinger makes the health endpoint report liveness only.
func NewHandlers(engine *activity.Engine, tracker *dashboard.Tracker, dispatcher *dispatch.Dispatcher, visibility catalog.Visibility, pinger Pinger) *Handlers {
	if visibility == nil {
		visibility = catalog.AllowAll{}
	}
	return &Handlers{
		engine:     engine,
		tracker:    tracker,
		dispatcher: dispatcher,
		visibility: visibility,
		pinger:     pinger,
	}
}

// pageRequest carries the validated pagination parameters.
type pageRequest struct {
	Limit  int    `validate:"min=0,max=1000"`
	Offset int    `validate:"min=0"`
	Before string `validate:"omitempty,rfc3339"`
	After  string `validate:"omitempty,rfc3339"`
}

// parsePage builds an activity.Page from query parameters.
func parsePage(r *http.Request) (activity.Page, error) {
	q := r.URL.Query()
	var req pageRequest
	var err error

	if v := q.Get("limit"); v != "" {
		if req.Limit, err = strconv.Atoi(v); err != nil {
			return activity.Page{}, &activity.ValidationError{Field: "limit", Reason: "must be an integer"}
		}
	}
	if v := q.Get("offset"); v != "" {
		if req.Offset, err = strconv.Atoi(v); err != nil {
			return activity.Page{}, &activity.ValidationError{Field: "offset", Reason: "must be an integer"}
		}
	}
	req.Before = q.Get("before")
	req.After = q.Get("after")

	if err := validation.ValidateStruct(&req); err != nil {
		return activity.Page{}, err
	}

	p := activity.Page{
		Limit:         req.Limit,
		Offset:        req.Offset,
		IncludeHidden: q.Get("include_hidden") == "true",
	}
	if req.Before != "" {
		t, _ := time.Parse(time.RFC3339, req.Before)
		p.Before = &t
	}
	if req.After != "" {
		t, _ := time.Parse(time.RFC3339, req.After)
		p.After = &t
	}
	for _, k := range q["kind"] {
		p.Kinds = append(p.Kinds, activity.Kind(k))
	}
	for _, k := range q["exclude_kind"] {
		p.ExcludeKinds = append(p.ExcludeKinds, activity.Kind(k))
	}
	return p, nil
}

// objectTypeFor maps the route's subject type segment to an object
// type. Organizations are groups with is_organization set.
func objectTypeFor(segment string) (activity.ObjectType, bool) {
	switch segment {
	case "dataset":
		return activity.ObjectDataset, true
	case "group", "organization":
		return activity.ObjectGroup, true
	case "user":
		return activity.ObjectUser, true
	default:
		return "", false
	}
}

// BySubject handles GET /api/v1/activity/{type}/{id}.
func (h *Handlers) BySubject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	t, ok := objectTypeFor(chi.URLParam(r, "type"))
	if !ok {
		respondError(w, r, http.StatusBadRequest, CodeValidation,
			"subject type must be dataset, group, organization or user", nil)
		return
	}
	id := chi.URLParam(r, "id")

	p, err := parsePage(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, err.Error(), nil)
		return
	}

	entries, err := h.engine.BySubject(ctx, t, id, p)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}

	entries = h.applyVisibility(r, entries)
	respondJSON(w, r, http.StatusOK, entries, paginationFor(entries, p))
}

// Dashboard handles GET /api/v1/dashboard/{user}: the fan-in feed with
// is_new annotations.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "user")

	p, err := parsePage(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, err.Error(), nil)
		return
	}

	entries, err := h.engine.Dashboard(ctx, userID, p)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	entries = h.applyVisibility(r, entries)

	annotated, err := h.tracker.Annotate(ctx, userID, entries)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to annotate dashboard feed")
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "failed to annotate feed", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, annotated, paginationFor(entries, p))
}

// MarkViewed handles POST /api/v1/dashboard/{user}/viewed.
func (h *Handlers) MarkViewed(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user")
	if err := h.tracker.MarkViewed(r.Context(), userID); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("user", userID).Msg("Failed to mark dashboard viewed")
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "failed to mark dashboard viewed", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "marked"}, nil)
}

// UnreadCount handles GET /api/v1/dashboard/{user}/unread.
func (h *Handlers) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user")
	count, err := h.tracker.UnreadCount(r.Context(), userID)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]int{"unread_count": count}, nil)
}

// eventRequest is the body of POST /api/v1/events.
type eventRequest struct {
	Name            string `json:"name" validate:"required"`
	Op              string `json:"op" validate:"required,oneof=create update delete"`
	ActorID         string `json:"actor_id" validate:"required"`
	ActorName       string `json:"actor_name"`
	ResultObjectID  string `json:"result_object_id"`
	RequestObjectID string `json:"request_object_id" validate:"required_without=ResultObjectID"`
}

// AppendFromEvent handles POST /api/v1/events: the exposed
// appendFromEvent operation.
func (h *Handlers) AppendFromEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, "invalid JSON body", nil)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, err.Error(), nil)
		return
	}

	ev := dispatch.Event{
		Name:            req.Name,
		Op:              dispatch.Op(req.Op),
		ActorID:         req.ActorID,
		ActorName:       req.ActorName,
		ResultObjectID:  req.ResultObjectID,
		RequestObjectID: req.RequestObjectID,
	}
	if err := h.dispatcher.Dispatch(r.Context(), ev); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, err.Error(), nil)
		return
	}
	respondJSON(w, r, http.StatusAccepted, map[string]string{"status": "dispatched"}, nil)
}

// applyVisibility drops entries the viewer may not see. The viewer id
// comes from the embedding application (query parameter here); absence
// means an anonymous viewer.
func (h *Handlers) applyVisibility(r *http.Request, entries []activity.Activity) []activity.Activity {
	viewer := r.URL.Query().Get("viewer")
	out := entries[:0]
	for _, a := range entries {
		visible, err := h.visibility.IsVisible(r.Context(), viewer, a.SubjectID)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Str("subject", a.SubjectID).Msg("Dropping entry: visibility check failed")
			continue
		}
		if visible {
			out = append(out, a)
		}
	}
	return out
}

// respondEngineError maps engine errors onto HTTP statuses.
func (h *Handlers) respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case activity.IsValidation(err):
		respondError(w, r, http.StatusBadRequest, CodeValidation, err.Error(), nil)
	case errors.Is(err, activity.ErrSubjectNotFound):
		respondError(w, r, http.StatusNotFound, CodeSubjectNotFound, err.Error(), nil)
	case errors.Is(err, activity.ErrNotFound):
		respondError(w, r, http.StatusNotFound, CodeNotFound, err.Error(), nil)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Feed query failed")
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "query failed", nil)
	}
}

// paginationFor builds pagination metadata for a page of entries.
func paginationFor(entries []activity.Activity, p activity.Page) *Pagination {
	return &Pagination{
		Count:   len(entries),
		Offset:  p.Offset,
		Limit:   p.Limit,
		HasMore: p.Limit > 0 && len(entries) == p.Limit,
	}
}
