// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package dispatch

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/catalogus/internal/activity"
	"github.com/tomtom215/catalogus/internal/catalog"
	"github.com/tomtom215/catalogus/internal/logging"
	"github.com/tomtom215/catalogus/internal/metrics"
)

// Appender is the slice of the activity engine the dispatcher needs.
type Appender interface {
	Append(ctx context.Context, a *activity.Activity) error
}

// TransitionStore answers whether a deleted-kind activity already
// exists for a subject, for the once-only reclassification check.
type TransitionStore interface {
	HasKindForSubject(ctx context.Context, subjectID string, kind activity.Kind) (bool, error)
}

// Dispatcher maps domain events to activity appends. It is stateless
// between invocations and safe for concurrent use.
type Dispatcher struct {
	appender Appender
	store    TransitionStore
	resolver catalog.Resolver
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(appender Appender, store TransitionStore, resolver catalog.Resolver) *Dispatcher {
	return &Dispatcher{appender: appender, store: store, resolver: resolver}
}

// Resolve is the pure part of dispatch: it validates the event and
// returns the subject id and candidate kind, with no I/O.
func Resolve(ev Event) (string, activity.Kind, error) {
	if ev.ActorID == "" {
		return "", "", &activity.ValidationError{Field: "actor_id", Reason: "actor could not be resolved"}
	}
	subjectID := ev.SubjectID()
	if subjectID == "" {
		return "", "", &activity.ValidationError{Field: "subject_id", Reason: "subject could not be resolved"}
	}
	kind, ok := KindFor(ev.Name, ev.Op)
	if !ok {
		return "", "", &activity.ValidationError{
			Field:  "event",
			Reason: fmt.Sprintf("no activity kind for event %q op %q", ev.Name, ev.Op),
		}
	}
	return subjectID, kind, nil
}

// BuildActivity assembles the activity record from an event, a resolved
// kind and a rendered snapshot. Pure; the caller performs all I/O.
func BuildActivity(ev Event, subjectID string, kind activity.Kind, snapshot map[string]any) (*activity.Activity, error) {
	payload := make(map[string]any, len(snapshot)+1)
	for k, v := range snapshot {
		payload[k] = v
	}
	// Stored alongside the snapshot so feeds survive actor renames.
	payload["actor_name"] = ev.ActorName

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize payload: %w", err)
	}
	return activity.New(ev.ActorID, subjectID, kind, raw), nil
}

// Dispatch translates one domain event into at most one activity
// append.
//
// Validation failures (unresolvable actor or subject, unmapped event)
// are returned to the caller. Everything past validation is
// best-effort: snapshot and append failures are logged and swallowed so
// the triggering domain mutation is never rolled back by feed
// bookkeeping. That eventual-consistency trade-off is deliberate.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	subjectID, kind, err := Resolve(ev)
	if err != nil {
		metrics.DispatchOutcomes.WithLabelValues("invalid").Inc()
		return err
	}

	kind, suppress, err := d.applyDeletedTransition(ctx, subjectID, kind)
	if err != nil {
		metrics.DispatchOutcomes.WithLabelValues("failed").Inc()
		logging.Ctx(ctx).Error().Err(err).
			Str("event", ev.Name).Str("subject", subjectID).
			Msg("Dispatch skipped: deleted-transition check failed")
		return nil
	}
	if suppress {
		// The deletion was already recorded; dispatching again is a no-op.
		metrics.DispatchOutcomes.WithLabelValues("suppressed").Inc()
		return nil
	}

	objType, _ := activity.ObjectTypeOf(kind)
	snapshot, err := d.resolver.Render(ctx, objType, subjectID)
	if err != nil {
		metrics.DispatchOutcomes.WithLabelValues("failed").Inc()
		logging.Ctx(ctx).Error().Err(err).
			Str("event", ev.Name).Str("subject", subjectID).
			Msg("Dispatch skipped: snapshot render failed")
		return nil
	}

	a, err := BuildActivity(ev, subjectID, kind, snapshot)
	if err != nil {
		metrics.DispatchOutcomes.WithLabelValues("failed").Inc()
		logging.Ctx(ctx).Error().Err(err).
			Str("event", ev.Name).Str("subject", subjectID).
			Msg("Dispatch skipped: payload build failed")
		return nil
	}

	if err := d.appender.Append(ctx, a); err != nil {
		metrics.DispatchOutcomes.WithLabelValues("failed").Inc()
		logging.Ctx(ctx).Error().Err(err).
			Str("event", ev.Name).Str("subject", subjectID).Str("kind", string(kind)).
			Msg("Dispatch skipped: append failed")
		return nil
	}

	metrics.DispatchOutcomes.WithLabelValues("appended").Inc()
	return nil
}

// applyDeletedTransition implements the changed-to-deleted rule: when
// the candidate kind is "changed X" and the subject's current state is
// deleted, either suppress the event (a "deleted X" activity already
// exists) or rewrite the kind to "deleted X" so the deletion is
// recorded exactly once.
func (d *Dispatcher) applyDeletedTransition(ctx context.Context, subjectID string, kind activity.Kind) (activity.Kind, bool, error) {
	deletedKind, ok := activity.DeletedKindFor(kind)
	if !ok {
		return kind, false, nil
	}

	objType, _ := activity.ObjectTypeOf(kind)
	state, err := d.resolver.State(ctx, objType, subjectID)
	if err != nil {
		return kind, false, fmt.Errorf("failed to read subject state: %w", err)
	}
	if state != catalog.StateDeleted {
		return kind, false, nil
	}

	exists, err := d.store.HasKindForSubject(ctx, subjectID, deletedKind)
	if err != nil {
		return kind, false, fmt.Errorf("failed to check for existing %s activity: %w", deletedKind, err)
	}
	if exists {
		return kind, true, nil
	}
	metrics.DispatchOutcomes.WithLabelValues("reclassified").Inc()
	return deletedKind, false, nil
}
