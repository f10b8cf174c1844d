// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/catalogus/internal/logging"
	"github.com/tomtom215/catalogus/internal/metrics"
)

// SubjectDirectory resolves subject existence for kind validation.
// Implemented by internal/catalog.
type SubjectDirectory interface {
	Exists(ctx context.Context, t ObjectType, id string) (bool, error)
}

// FollowGraph reports what a user follows. Implemented by
// internal/catalog; consumed read-only.
type FollowGraph interface {
	FollowedUsers(ctx context.Context, userID string) ([]string, error)
	FollowedDatasets(ctx context.Context, userID string) ([]string, error)
	FollowedGroups(ctx context.Context, userID string) ([]string, error)
}

// Membership reports the datasets currently owned by a group or
// organization under the historical-membership rule: active membership
// of an active dataset, or deleted membership of a deleted dataset.
type Membership interface {
	DatasetsInGroup(ctx context.Context, groupID string) ([]string, error)
}

// Engine builds and executes the canonical feed queries on top of a
// Store. All methods are read-only except Append and may run
// concurrently with each other and with unrelated writes.
type Engine struct {
	store        Store
	directory    SubjectDirectory
	graph        FollowGraph
	members      Membership
	hiddenActors []string
	defaultLimit int
	maxLimit     int
}

// EngineConfig wires the engine's collaborators and limits.
type EngineConfig struct {
	Store        Store
	Directory    SubjectDirectory
	Graph        FollowGraph
	Members      Membership
	HiddenActors []string
	DefaultLimit int
	MaxLimit     int
}

// NewEngine creates a query engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 31
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	return &Engine{
		store:        cfg.Store,
		directory:    cfg.Directory,
		graph:        cfg.Graph,
		members:      cfg.Members,
		hiddenActors: cfg.HiddenActors,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
	}
}

// Append validates and persists an activity: the kind must be known and
// the subject must resolve through the kind's existence validator.
func (e *Engine) Append(ctx context.Context, a *Activity) error {
	objType, ok := ObjectTypeOf(a.Kind)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidKind, a.Kind)
	}
	exists, err := e.directory.Exists(ctx, objType, a.SubjectID)
	if err != nil {
		return fmt.Errorf("failed to validate subject %s: %w", a.SubjectID, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s %s", ErrSubjectNotFound, objType, a.SubjectID)
	}
	if err := e.store.Append(ctx, a); err != nil {
		return err
	}
	metrics.ActivityAppends.WithLabelValues(string(a.Kind)).Inc()
	return nil
}

// Get returns one activity by id.
func (e *Engine) Get(ctx context.Context, id string) (*Activity, error) {
	return e.store.Get(ctx, id)
}

// Purge removes activities matching the predicate and returns the
// count. Administrative use only.
func (e *Engine) Purge(ctx context.Context, p Purge) (int64, error) {
	n, err := e.store.DeleteWhere(ctx, p)
	if err != nil {
		return 0, err
	}
	metrics.ActivityPurged.Add(float64(n))
	return n, nil
}

// BySubject returns one page of the subject's activity stream. For
// groups and organizations the stream includes member datasets under
// the historical-membership rule.
func (e *Engine) BySubject(ctx context.Context, t ObjectType, id string, p Page) ([]Activity, error) {
	start := time.Now()
	defer func() {
		metrics.QueryDuration.WithLabelValues("by_" + string(t)).Observe(time.Since(start).Seconds())
	}()

	p, err := e.normalize(p)
	if err != nil {
		return nil, err
	}

	exists, err := e.directory.Exists(ctx, t, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subject %s: %w", id, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s %s", ErrSubjectNotFound, t, id)
	}

	subjects := []string{id}
	if t == ObjectGroup {
		datasets, err := e.members.DatasetsInGroup(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve group membership for %s: %w", id, err)
		}
		subjects = append(subjects, datasets...)
	}

	f := e.subFilter(p, Filter{SubjectIDs: subjects})
	rows, err := e.store.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	return finishPage([][]Activity{rows}, p), nil
}

// Dashboard returns one page of the user's fan-in feed: the user's own
// public stream unioned with the streams of every followed user,
// dataset and group. Each constituent sub-query is bounded before the
// union so no single followee's history can dominate the page, then the
// merged set is deduplicated by id, re-ordered and re-limited.
//
// A followee sub-query that fails to resolve (e.g. a dangling follow
// edge) is skipped, not fatal.
func (e *Engine) Dashboard(ctx context.Context, userID string, p Page) ([]Activity, error) {
	start := time.Now()
	defer func() {
		metrics.QueryDuration.WithLabelValues("dashboard").Observe(time.Since(start).Seconds())
	}()

	p, err := e.normalize(p)
	if err != nil {
		return nil, err
	}

	exists, err := e.directory.Exists(ctx, ObjectUser, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user %s: %w", userID, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: user %s", ErrSubjectNotFound, userID)
	}

	filters := []Filter{e.subFilter(p, Filter{SelfID: userID})}

	if users, err := e.graph.FollowedUsers(ctx, userID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user", userID).Msg("Skipping followed-users stream")
	} else {
		for _, u := range users {
			filters = append(filters, e.subFilter(p, Filter{SelfID: u}))
		}
	}

	if datasets, err := e.graph.FollowedDatasets(ctx, userID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user", userID).Msg("Skipping followed-datasets stream")
	} else if len(datasets) > 0 {
		filters = append(filters, e.subFilter(p, Filter{SubjectIDs: datasets}))
	}

	if groups, err := e.graph.FollowedGroups(ctx, userID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user", userID).Msg("Skipping followed-groups stream")
	} else {
		for _, g := range groups {
			subjects := []string{g}
			if datasets, err := e.members.DatasetsInGroup(ctx, g); err != nil {
				logging.Ctx(ctx).Warn().Err(err).Str("group", g).Msg("Skipping group membership expansion")
			} else {
				subjects = append(subjects, datasets...)
			}
			filters = append(filters, e.subFilter(p, Filter{SubjectIDs: subjects}))
		}
	}

	results := make([][]Activity, 0, len(filters))
	for _, f := range filters {
		rows, err := e.store.Query(ctx, f)
		if err != nil {
			// Partial-failure policy: one broken sub-stream must not
			// fail the whole dashboard.
			logging.Ctx(ctx).Warn().Err(err).Msg("Skipping failed dashboard sub-query")
			continue
		}
		results = append(results, rows)
	}

	return finishPage(results, p), nil
}

// normalize validates the page and applies defaults.
func (e *Engine) normalize(p Page) (Page, error) {
	if p.Limit == 0 {
		p.Limit = e.defaultLimit
	}
	if p.Limit < 0 || p.Limit > e.maxLimit {
		return p, errLimitOutOfRange(p.Limit, e.maxLimit)
	}
	if p.Offset < 0 {
		return p, &ValidationError{Field: "offset", Reason: fmt.Sprintf("must not be negative, got %d", p.Offset)}
	}
	if len(p.Kinds) > 0 && len(p.ExcludeKinds) > 0 {
		return p, errConflictingKindFilters()
	}
	for _, k := range append(append([]Kind{}, p.Kinds...), p.ExcludeKinds...) {
		if !KnownKind(k) {
			return p, &ValidationError{Field: "kinds", Reason: fmt.Sprintf("unknown kind %q", k)}
		}
	}
	return p, nil
}

// subFilter applies the page's shared predicates to one constituent
// sub-query. Each sub-query is bounded by limit+offset so the post-union
// offset stays correct, and sorted in the direction the reverse-window
// rule dictates.
func (e *Engine) subFilter(p Page, base Filter) Filter {
	base.Kinds = p.Kinds
	base.ExcludeKinds = p.ExcludeKinds
	base.Before = p.Before
	base.After = p.After
	base.Ascending = reverseWindow(p)
	base.Limit = p.Limit + p.Offset
	if !p.IncludeHidden {
		base.HiddenActorIDs = e.hiddenActors
	}
	return base
}

// reverseWindow reports whether the page must be fetched ascending and
// reversed: with only a lower bound given, the rows returned must be
// the ones closest to that bound, not an arbitrary slice from the
// oldest end of the scan.
func reverseWindow(p Page) bool {
	return p.After != nil && p.Before == nil
}

// finishPage merges the bounded sub-query results, dedups by id,
// re-orders, applies the final offset+limit, and restores descending
// presentation order for reverse-window pages.
func finishPage(results [][]Activity, p Page) []Activity {
	asc := reverseWindow(p)

	seen := make(map[string]struct{})
	var merged []Activity
	for _, rows := range results {
		for _, a := range rows {
			if _, ok := seen[a.ID]; ok {
				continue
			}
			seen[a.ID] = struct{}{}
			merged = append(merged, a)
		}
	}

	sortActivities(merged, asc)

	if p.Offset > 0 {
		if p.Offset >= len(merged) {
			merged = nil
		} else {
			merged = merged[p.Offset:]
		}
	}
	if len(merged) > p.Limit {
		merged = merged[:p.Limit]
	}

	// Reverse-window pages were fetched ascending; present newest first.
	if asc {
		for i, j := 0, len(merged)-1; i < j; i, j = i+1, j-1 {
			merged[i], merged[j] = merged[j], merged[i]
		}
	}
	return merged
}
