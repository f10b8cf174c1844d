// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

// Package catalog implements the engine's external collaborators over
// the catalog tables: subject existence/state checks, full snapshot
// rendering, the follow graph and group membership. In a deployment
// embedding Catalogus into a larger catalog these would be adapters
// onto the host's own object model.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomtom215/catalogus/internal/activity"
)

// ObjectState is the lifecycle state of a catalog object.
type ObjectState string

const (
	StateActive  ObjectState = "active"
	StateDeleted ObjectState = "deleted"
)

// ErrUnknownObject indicates an object id absent from the catalog.
var ErrUnknownObject = errors.New("object not found in catalog")

// Resolver resolves subject existence, state and full snapshots. The
// dispatcher re-renders a full snapshot at dispatch time rather than
// trusting a possibly-partial mutation result.
type Resolver interface {
	activity.SubjectDirectory
	State(ctx context.Context, t activity.ObjectType, id string) (ObjectState, error)
	Render(ctx context.Context, t activity.ObjectType, id string) (map[string]any, error)
}

// Visibility is the externally supplied authorization check applied by
// callers before returning feed entries to an end user. The engine
// itself never enforces authorization.
type Visibility interface {
	IsVisible(ctx context.Context, actorID, subjectID string) (bool, error)
}

// AllowAll is the Visibility used when no authorization layer is wired.
type AllowAll struct{}

func (AllowAll) IsVisible(context.Context, string, string) (bool, error) { return true, nil }

// Directory is the DuckDB-backed Resolver, FollowGraph and Membership.
type Directory struct {
	db *sql.DB
}

// NewDirectory creates a catalog directory over the given connection.
func NewDirectory(db *sql.DB) *Directory {
	return &Directory{db: db}
}

// tableFor maps an object type to its catalog table.
func tableFor(t activity.ObjectType) (string, error) {
	switch t {
	case activity.ObjectDataset:
		return "dataset", nil
	case activity.ObjectGroup:
		return "grp", nil
	case activity.ObjectUser:
		return "user_account", nil
	default:
		return "", fmt.Errorf("unknown object type %q", t)
	}
}

// Exists reports whether the object id is present in the catalog,
// regardless of state. Deleted objects still exist: their historical
// activity remains addressable.
func (d *Directory) Exists(ctx context.Context, t activity.ObjectType, id string) (bool, error) {
	table, err := tableFor(t)
	if err != nil {
		return false, err
	}
	var n int64
	err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE id = ?", id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", t, err)
	}
	return n > 0, nil
}

// State returns the lifecycle state of the object.
func (d *Directory) State(ctx context.Context, t activity.ObjectType, id string) (ObjectState, error) {
	table, err := tableFor(t)
	if err != nil {
		return "", err
	}
	var state string
	err = d.db.QueryRowContext(ctx, "SELECT state FROM "+table+" WHERE id = ?", id).Scan(&state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s %s", ErrUnknownObject, t, id)
		}
		return "", fmt.Errorf("failed to read %s state: %w", t, err)
	}
	return ObjectState(state), nil
}

// Render returns the full snapshot document of the object as stored in
// the catalog tables.
func (d *Directory) Render(ctx context.Context, t activity.ObjectType, id string) (map[string]any, error) {
	switch t {
	case activity.ObjectDataset:
		var name, state string
		var ownerOrg sql.NullString
		err := d.db.QueryRowContext(ctx,
			"SELECT name, state, owner_org FROM dataset WHERE id = ?", id).
			Scan(&name, &state, &ownerOrg)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: dataset %s", ErrUnknownObject, id)
			}
			return nil, fmt.Errorf("failed to render dataset: %w", err)
		}
		doc := map[string]any{"id": id, "name": name, "state": state}
		if ownerOrg.Valid {
			doc["owner_org"] = ownerOrg.String
		}
		return doc, nil

	case activity.ObjectGroup:
		var name, state string
		var isOrg bool
		err := d.db.QueryRowContext(ctx,
			"SELECT name, state, is_organization FROM grp WHERE id = ?", id).
			Scan(&name, &state, &isOrg)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: group %s", ErrUnknownObject, id)
			}
			return nil, fmt.Errorf("failed to render group: %w", err)
		}
		return map[string]any{"id": id, "name": name, "state": state, "is_organization": isOrg}, nil

	case activity.ObjectUser:
		var name, state string
		err := d.db.QueryRowContext(ctx,
			"SELECT name, state FROM user_account WHERE id = ?", id).
			Scan(&name, &state)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: user %s", ErrUnknownObject, id)
			}
			return nil, fmt.Errorf("failed to render user: %w", err)
		}
		return map[string]any{"id": id, "name": name, "state": state}, nil

	default:
		return nil, fmt.Errorf("unknown object type %q", t)
	}
}

// DatasetsInGroup returns the datasets whose group membership counts as
// current: an active membership of an active dataset, or a deleted
// membership of a deleted dataset. Datasets that have since left the
// group are intentionally excluded from the group's stream.
func (d *Directory) DatasetsInGroup(ctx context.Context, groupID string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT m.dataset_id
		FROM group_membership m
		JOIN dataset p ON p.id = m.dataset_id
		WHERE m.group_id = ?
		  AND ((m.state = 'active' AND p.state = 'active')
		    OR (m.state = 'deleted' AND p.state = 'deleted'))
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group membership: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan membership row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating membership rows: %w", err)
	}
	return ids, nil
}

// followedIDs returns the followee ids of the given kind for a user.
func (d *Directory) followedIDs(ctx context.Context, userID, kind string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT followee_id FROM follow_edge WHERE follower_id = ? AND followee_kind = ?",
		userID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to query follow edges: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan follow edge: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating follow edges: %w", err)
	}
	return ids, nil
}

// FollowedUsers returns the user ids the given user follows.
func (d *Directory) FollowedUsers(ctx context.Context, userID string) ([]string, error) {
	return d.followedIDs(ctx, userID, "user")
}

// FollowedDatasets returns the dataset ids the given user follows.
func (d *Directory) FollowedDatasets(ctx context.Context, userID string) ([]string, error) {
	return d.followedIDs(ctx, userID, "dataset")
}

// FollowedGroups returns the group ids the given user follows.
func (d *Directory) FollowedGroups(ctx context.Context, userID string) ([]string, error) {
	return d.followedIDs(ctx, userID, "group")
}
