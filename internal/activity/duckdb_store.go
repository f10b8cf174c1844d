// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package activity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/catalogus/internal/logging"
)

// DuckDBStore implements Store on the activity table created by
// internal/database migrations.
type DuckDBStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewDuckDBStore creates a DuckDB-backed activity store. The caller is
// responsible for ensuring the schema exists.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// Append persists an activity.
func (s *DuckDBStore) Append(ctx context.Context, a *Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a == nil {
		return fmt.Errorf("activity cannot be nil")
	}
	if !KnownKind(a.Kind) {
		return fmt.Errorf("%w: %q", ErrInvalidKind, a.Kind)
	}

	var payload *string
	if len(a.Payload) > 0 {
		p := string(a.Payload)
		payload = &p
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity (id, timestamp, actor_id, subject_id, kind, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, a.Timestamp, a.ActorID, a.SubjectID, string(a.Kind), payload)
	if err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

// Get retrieves an activity by id.
func (s *DuckDBStore) Get(ctx context.Context, id string) (*Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectColumns+" FROM activity WHERE id = ?", id)
	a, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

// Query retrieves activities matching the filter, ordered and bounded.
func (s *DuckDBStore) Query(ctx context.Context, f Filter) ([]Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query, args := buildQuery(f, false)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		a, err := scanActivityFromRows(rows)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to scan activity row")
			continue
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}
	return out, nil
}

// Count returns the number of activities matching the filter.
func (s *DuckDBStore) Count(ctx context.Context, f Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query, args := buildQuery(f, true)

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}
	return count, nil
}

// DeleteWhere removes activities matching the predicate. It runs in two
// phases: select matching ids, then delete by id. A predicate-based
// DELETE with LIMIT/OFFSET is not well-defined on most engines, and the
// id list gives callers a bounded, auditable batch.
func (s *DuckDBStore) DeleteWhere(ctx context.Context, p Purge) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := Filter{Before: p.Before, After: p.After, Kinds: p.Kinds, ExcludeKinds: p.ExcludeKinds}
	if p.SubjectID != "" {
		f.SubjectIDs = []string{p.SubjectID}
	}
	conditions, args := buildConditions(f)

	query := "SELECT id FROM activity"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to select activities for deletion: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan activity id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("error iterating activity ids: %w", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(ids))
	delArgs := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		delArgs[i] = id
	}
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM activity WHERE id IN ("+strings.Join(placeholders, ",")+")", delArgs...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete activities: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted count: %w", err)
	}

	if count > 0 {
		logging.Info().Int64("deleted", count).Msg("Purged activities")
	}
	return count, nil
}

// HasKindForSubject reports whether an activity of the given kind
// exists for the subject.
func (s *DuckDBStore) HasKindForSubject(ctx context.Context, subjectID string, kind Kind) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM activity WHERE subject_id = ? AND kind = ?",
		subjectID, string(kind)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check for %s activity: %w", kind, err)
	}
	return n > 0, nil
}

// selectColumns casts the JSON payload to VARCHAR for proper scanning.
const selectColumns = `SELECT id, timestamp, actor_id, subject_id, kind, CAST(payload AS VARCHAR) AS payload`

// buildQuery constructs the SQL query for a Filter.
func buildQuery(f Filter, countOnly bool) (string, []interface{}) {
	conditions, args := buildConditions(f)

	query := "SELECT COUNT(*) FROM activity"
	if !countOnly {
		query = selectColumns + " FROM activity"
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if !countOnly {
		if f.Ascending {
			query += " ORDER BY timestamp ASC, id ASC"
		} else {
			query += " ORDER BY timestamp DESC, id DESC"
		}
		if f.Limit > 0 {
			query += fmt.Sprintf(" LIMIT %d", f.Limit)
		}
		if f.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", f.Offset)
		}
	}
	return query, args
}

// buildConditions builds WHERE clause conditions from a Filter.
func buildConditions(f Filter) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}

	// Subject membership and the self-stream OR together.
	var scope []string
	if len(f.SubjectIDs) > 0 {
		placeholders := make([]string, len(f.SubjectIDs))
		for i, id := range f.SubjectIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		scope = append(scope, "subject_id IN ("+strings.Join(placeholders, ",")+")")
	}
	if f.SelfID != "" {
		scope = append(scope, "(actor_id = ? OR subject_id = ?)")
		args = append(args, f.SelfID, f.SelfID)
	}
	if len(scope) > 0 {
		conditions = append(conditions, "("+strings.Join(scope, " OR ")+")")
	}

	if len(f.HiddenActorIDs) > 0 {
		placeholders := make([]string, len(f.HiddenActorIDs))
		for i, id := range f.HiddenActorIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		conditions = append(conditions, "actor_id NOT IN ("+strings.Join(placeholders, ",")+")")
	}

	if len(f.Kinds) > 0 {
		placeholders := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		conditions = append(conditions, "kind IN ("+strings.Join(placeholders, ",")+")")
	}
	if len(f.ExcludeKinds) > 0 {
		placeholders := make([]string, len(f.ExcludeKinds))
		for i, k := range f.ExcludeKinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		conditions = append(conditions, "kind NOT IN ("+strings.Join(placeholders, ",")+")")
	}

	// Strict timestamp bounds.
	if f.Before != nil {
		conditions = append(conditions, "timestamp < ?")
		args = append(args, *f.Before)
	}
	if f.After != nil {
		conditions = append(conditions, "timestamp > ?")
		args = append(args, *f.After)
	}

	return conditions, args
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanInto(sc scanner) (*Activity, error) {
	var a Activity
	var kind string
	var payload sql.NullString

	if err := sc.Scan(&a.ID, &a.Timestamp, &a.ActorID, &a.SubjectID, &kind, &payload); err != nil {
		return nil, err
	}
	a.Kind = Kind(kind)
	if payload.Valid && payload.String != "" {
		a.Payload = json.RawMessage(payload.String)
	}
	return &a, nil
}

func scanActivity(row *sql.Row) (*Activity, error) {
	return scanInto(row)
}

func scanActivityFromRows(rows *sql.Rows) (*Activity, error) {
	return scanInto(rows)
}
