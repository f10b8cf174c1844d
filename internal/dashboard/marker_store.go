// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package dashboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DuckDBMarkerStore implements MarkerStore on the dashboard_marker
// table.
type DuckDBMarkerStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewDuckDBMarkerStore creates a DuckDB-backed marker store.
func NewDuckDBMarkerStore(db *sql.DB) *DuckDBMarkerStore {
	return &DuckDBMarkerStore{db: db}
}

// Get returns the user's marker.
func (s *DuckDBMarkerStore) Get(ctx context.Context, userID string) (time.Time, bool, error) {
	var viewedAt time.Time
	err := s.db.QueryRowContext(ctx,
		"SELECT last_viewed_at FROM dashboard_marker WHERE user_id = ?", userID).Scan(&viewedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to get dashboard marker: %w", err)
	}
	return viewedAt, true, nil
}

// Set upserts the user's marker.
func (s *DuckDBMarkerStore) Set(ctx context.Context, userID string, viewedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dashboard_marker (user_id, last_viewed_at)
		VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET last_viewed_at = excluded.last_viewed_at
	`, userID, viewedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert dashboard marker: %w", err)
	}
	return nil
}

// MemoryMarkerStore is an in-memory MarkerStore for tests and embedded
// use.
type MemoryMarkerStore struct {
	mu      sync.RWMutex
	markers map[string]time.Time
}

// NewMemoryMarkerStore creates an empty in-memory marker store.
func NewMemoryMarkerStore() *MemoryMarkerStore {
	return &MemoryMarkerStore{markers: make(map[string]time.Time)}
}

// Get returns the user's marker.
func (s *MemoryMarkerStore) Get(_ context.Context, userID string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.markers[userID]
	return t, ok, nil
}

// Set upserts the user's marker.
func (s *MemoryMarkerStore) Set(_ context.Context, userID string, viewedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[userID] = viewedAt
	return nil
}
