// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/catalogus/internal/logging"
)

// Migration is a versioned schema change. Migrations are append-only:
// never modify or remove an entry once databases exist with data.
type Migration struct {
	Version     int
	Name        string
	Description string
	SQL         string
}

// schemaMigrationsTable tracks applied migrations.
const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// initialSchema creates every table Catalogus owns.
//
// activity is the append-only event log. Rows are never updated in place;
// deletion happens only through the administrative purge.
//
// The catalog tables (user_account, dataset, grp, group_membership,
// follow_edge) back the collaborator interfaces in internal/catalog. In a
// deployment embedding Catalogus into a larger catalog these may be views
// onto the host schema.
const initialSchema = `
CREATE TABLE IF NOT EXISTS activity (
	id TEXT PRIMARY KEY,
	timestamp TIMESTAMPTZ NOT NULL,
	actor_id TEXT NOT NULL,
	subject_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	payload JSON
);

CREATE INDEX IF NOT EXISTS idx_activity_subject_ts ON activity(subject_id, timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_activity_actor_ts ON activity(actor_id, timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_activity_kind_ts ON activity(kind, timestamp DESC);

CREATE TABLE IF NOT EXISTS dashboard_marker (
	user_id TEXT PRIMARY KEY,
	last_viewed_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS user_account (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	state TEXT NOT NULL DEFAULT 'active'
);

CREATE TABLE IF NOT EXISTS dataset (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	state TEXT NOT NULL DEFAULT 'active',
	owner_org TEXT
);

CREATE TABLE IF NOT EXISTS grp (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	state TEXT NOT NULL DEFAULT 'active',
	is_organization BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS group_membership (
	group_id TEXT NOT NULL,
	dataset_id TEXT NOT NULL,
	state TEXT NOT NULL DEFAULT 'active',
	PRIMARY KEY (group_id, dataset_id)
);

CREATE TABLE IF NOT EXISTS follow_edge (
	follower_id TEXT NOT NULL,
	followee_id TEXT NOT NULL,
	followee_kind TEXT NOT NULL,
	PRIMARY KEY (follower_id, followee_id, followee_kind)
);

CREATE INDEX IF NOT EXISTS idx_follow_edge_follower ON follow_edge(follower_id, followee_kind);
`

// getMigrations returns all versioned migrations in order. The initial
// schema is version 1; later changes append here.
func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Name:        "initial_schema",
			Description: "Activity log, dashboard markers, follow edges and catalog tables",
			SQL:         initialSchema,
		},
	}
}

// Migrate applies all pending migrations exactly once, in order.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, m := range getMigrations() {
		if applied[m.Version] {
			continue
		}
		start := time.Now()

		for _, stmt := range strings.Split(m.SQL, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
			}
		}

		if _, err := db.conn.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, name, description) VALUES (?, ?, ?)",
			m.Version, m.Name, m.Description); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}

		logging.Info().
			Int("version", m.Version).
			Str("name", m.Name).
			Dur("took", time.Since(start)).
			Msg("Applied migration")
	}

	return nil
}

// appliedVersions returns the set of already-applied migration versions.
func (db *DB) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schema_migrations: %w", err)
	}
	return applied, nil
}
