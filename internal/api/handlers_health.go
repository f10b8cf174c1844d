// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/catalogus/internal/logging"
)

// healthStatus is the body of the health endpoint.
type healthStatus struct {
	Status    string    `json:"status"`
	Database  string    `json:"database,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Health handles GET /healthz.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{Status: "ok", Timestamp: time.Now().UTC()}

	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Health check: database ping failed")
			status.Status = "degraded"
			status.Database = "unreachable"
			writeJSON(w, http.StatusServiceUnavailable, &status)
			return
		}
		status.Database = "ok"
	}
	writeJSON(w, http.StatusOK, &status)
}

// GetActivity handles GET /api/v1/activity/id/{activity_id}.
func (h *Handlers) GetActivity(w http.ResponseWriter, r *http.Request) {
	a, err := h.engine.Get(r.Context(), chi.URLParam(r, "activity_id"))
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, a, nil)
}
