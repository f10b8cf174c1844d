// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package activity

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Filter is the conjunction of predicates a single bounded sub-query
// applies. The query engine builds one Filter per constituent stream of
// a fan-in union.
type Filter struct {
	// SubjectIDs keeps rows whose subject_id is in the set.
	SubjectIDs []string

	// SelfID, when set, keeps rows where actor_id = SelfID OR
	// subject_id = SelfID (a user's own public stream). Combined with
	// SubjectIDs the two conditions OR together.
	SelfID string

	// HiddenActorIDs drops rows whose actor_id is in the set.
	HiddenActorIDs []string

	// Kinds keeps only the listed kinds; ExcludeKinds drops them.
	// At most one of the two may be set.
	Kinds        []Kind
	ExcludeKinds []Kind

	// Before/After apply strict timestamp bounds (<, >).
	Before *time.Time
	After  *time.Time

	// Ascending sorts timestamp asc, ties by id asc. Default is
	// descending.
	Ascending bool

	// Limit bounds the row count (0 = unbounded); Offset skips rows
	// after ordering.
	Limit  int
	Offset int
}

// Purge is the administrative deletion predicate. Deletion runs in two
// phases (select ids, delete by id) so batch-bounded purges stay
// well-defined.
type Purge struct {
	SubjectID    string
	Before       *time.Time
	After        *time.Time
	Kinds        []Kind
	ExcludeKinds []Kind
}

// Store is the append-only event store. Implementations must order
// query results by timestamp with id as the tie-breaker.
type Store interface {
	// Append inserts a new activity. The record is immutable afterwards.
	Append(ctx context.Context, a *Activity) error

	// Get returns the activity with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (*Activity, error)

	// Query returns activities matching the filter, ordered and bounded.
	Query(ctx context.Context, f Filter) ([]Activity, error)

	// Count returns the number of activities matching the filter,
	// ignoring Limit and Offset.
	Count(ctx context.Context, f Filter) (int64, error)

	// DeleteWhere removes activities matching the predicate and
	// returns the number of rows removed.
	DeleteWhere(ctx context.Context, p Purge) (int64, error)

	// HasKindForSubject reports whether any activity with the given
	// kind exists for the subject. Used by the deleted-transition rule.
	HasKindForSubject(ctx context.Context, subjectID string, kind Kind) (bool, error)
}

// MemoryStore is an in-memory Store with the same ordering semantics as
// the DuckDB store. It backs unit tests and embedded use without a
// database file.
type MemoryStore struct {
	mu   sync.RWMutex
	rows []Activity
	byID map[string]int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]int)}
}

// Append inserts a new activity.
func (s *MemoryStore) Append(_ context.Context, a *Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !KnownKind(a.Kind) {
		return ErrInvalidKind
	}
	s.byID[a.ID] = len(s.rows)
	s.rows = append(s.rows, *a)
	return nil
}

// Get returns the activity with the given id.
func (s *MemoryStore) Get(_ context.Context, id string) (*Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	a := s.rows[i]
	return &a, nil
}

// Query returns activities matching the filter.
func (s *MemoryStore) Query(_ context.Context, f Filter) ([]Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Activity
	for _, a := range s.rows {
		if matches(&a, &f) {
			out = append(out, a)
		}
	}

	sortActivities(out, f.Ascending)

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Count returns the number of matching activities.
func (s *MemoryStore) Count(_ context.Context, f Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, a := range s.rows {
		if matches(&a, &f) {
			n++
		}
	}
	return n, nil
}

// DeleteWhere removes activities matching the predicate.
func (s *MemoryStore) DeleteWhere(_ context.Context, p Purge) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := Filter{Before: p.Before, After: p.After, Kinds: p.Kinds, ExcludeKinds: p.ExcludeKinds}
	if p.SubjectID != "" {
		f.SubjectIDs = []string{p.SubjectID}
	}

	kept := s.rows[:0]
	var removed int64
	for _, a := range s.rows {
		if matches(&a, &f) {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	s.rows = kept

	s.byID = make(map[string]int, len(s.rows))
	for i, a := range s.rows {
		s.byID[a.ID] = i
	}
	return removed, nil
}

// HasKindForSubject reports whether an activity of the given kind
// exists for the subject.
func (s *MemoryStore) HasKindForSubject(_ context.Context, subjectID string, kind Kind) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.rows {
		if a.SubjectID == subjectID && a.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

// matches evaluates the filter conjunction against one activity.
func matches(a *Activity, f *Filter) bool {
	if len(f.SubjectIDs) > 0 || f.SelfID != "" {
		ok := false
		for _, id := range f.SubjectIDs {
			if a.SubjectID == id {
				ok = true
				break
			}
		}
		if f.SelfID != "" && (a.ActorID == f.SelfID || a.SubjectID == f.SelfID) {
			ok = true
		}
		if !ok {
			return false
		}
	}

	for _, id := range f.HiddenActorIDs {
		if a.ActorID == id {
			return false
		}
	}

	if len(f.Kinds) > 0 {
		ok := false
		for _, k := range f.Kinds {
			if a.Kind == k {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, k := range f.ExcludeKinds {
		if a.Kind == k {
			return false
		}
	}

	if f.Before != nil && !a.Timestamp.Before(*f.Before) {
		return false
	}
	if f.After != nil && !a.Timestamp.After(*f.After) {
		return false
	}
	return true
}

// sortActivities orders by timestamp then id, so pagination stays total
// even under equal timestamps.
func sortActivities(rows []Activity, ascending bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := &rows[i], &rows[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			if ascending {
				return a.Timestamp.Before(b.Timestamp)
			}
			return a.Timestamp.After(b.Timestamp)
		}
		if ascending {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
}
