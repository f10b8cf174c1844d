// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

// Package dashboard tracks per-user "last viewed" markers and derives
// unread counts and is_new annotations for dashboard feed pages.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/catalogus/internal/activity"
	"github.com/tomtom215/catalogus/internal/metrics"
)

// MarkerStore persists dashboard markers. One row per user, created
// lazily on the first explicit mark.
type MarkerStore interface {
	// Get returns the user's marker; ok is false when the user has
	// never marked their dashboard viewed.
	Get(ctx context.Context, userID string) (time.Time, bool, error)

	// Set upserts the user's marker.
	Set(ctx context.Context, userID string, viewedAt time.Time) error
}

// Querier is the slice of the activity engine the tracker needs.
type Querier interface {
	Dashboard(ctx context.Context, userID string, p Page) ([]activity.Activity, error)
}

// Page aliases the engine's page type for readability at call sites.
type Page = activity.Page

// Annotated is a feed entry tagged with its unread flag.
type Annotated struct {
	activity.Activity
	IsNew bool `json:"is_new"`
}

// Tracker derives dashboard read-state from the marker store and the
// fan-in query.
type Tracker struct {
	markers  MarkerStore
	querier  Querier
	pageSize int
}

// NewTracker creates a tracker. pageSize bounds the internal pages the
// unread-count walk fetches at a time.
func NewTracker(markers MarkerStore, querier Querier, pageSize int) *Tracker {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Tracker{markers: markers, querier: querier, pageSize: pageSize}
}

// MarkViewed records now as the user's last dashboard view.
func (t *Tracker) MarkViewed(ctx context.Context, userID string) error {
	if err := t.markers.Set(ctx, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set dashboard marker: %w", err)
	}
	return nil
}

// UnreadCount counts dashboard entries by other actors newer than the
// user's marker. With no marker, every non-self entry counts — the
// conservative, maximal answer.
func (t *Tracker) UnreadCount(ctx context.Context, userID string) (int, error) {
	metrics.DashboardUnreadQueries.Inc()

	marker, hasMarker, err := t.markers.Get(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read dashboard marker: %w", err)
	}

	// Walk the feed newest-first in bounded pages, advancing by offset.
	// The feed order is total (timestamp, then id), so offset paging
	// never skips entries that share the boundary timestamp, which a
	// bare timestamp cursor would. Once a page's oldest entry is at or
	// before the marker no later page can add unread entries.
	count := 0
	for offset := 0; ; offset += t.pageSize {
		entries, err := t.querier.Dashboard(ctx, userID, Page{Limit: t.pageSize, Offset: offset})
		if err != nil {
			return 0, err
		}
		for _, a := range entries {
			if a.ActorID == userID {
				continue
			}
			if !hasMarker || a.Timestamp.After(marker) {
				count++
			}
		}
		if len(entries) < t.pageSize {
			return count, nil
		}
		oldest := entries[len(entries)-1].Timestamp
		if hasMarker && !oldest.After(marker) {
			return count, nil
		}
	}
}

// Annotate tags each entry with is_new: by another actor and newer than
// the marker. The user's own entries are never new.
func (t *Tracker) Annotate(ctx context.Context, userID string, entries []activity.Activity) ([]Annotated, error) {
	marker, hasMarker, err := t.markers.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read dashboard marker: %w", err)
	}

	out := make([]Annotated, len(entries))
	for i, a := range entries {
		isNew := a.ActorID != userID && (!hasMarker || a.Timestamp.After(marker))
		out[i] = Annotated{Activity: a, IsNew: isNew}
	}
	return out, nil
}
