// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

// Package diff computes structural diffs between two whole-object
// snapshots, producing an ordered list of typed change records, plus a
// line-oriented textual rendering for human display.
package diff

// ChangeType tags one change record.
type ChangeType string

const (
	// NoChange is emitted alone when the snapshots are identical.
	// Callers never receive an empty change list.
	NoChange ChangeType = "no_change"

	TitleChanged   ChangeType = "title_changed"
	NotesChanged   ChangeType = "notes_changed"
	LicenseChanged ChangeType = "license_changed"
	PrivateChanged ChangeType = "private_changed"

	TagAdded   ChangeType = "tag_added"
	TagRemoved ChangeType = "tag_removed"

	ExtraAdded   ChangeType = "extra_added"
	ExtraRemoved ChangeType = "extra_removed"
	ExtraChanged ChangeType = "extra_changed"

	ResourceAdded   ChangeType = "resource_added"
	ResourceDeleted ChangeType = "resource_deleted"
	ResourceChanged ChangeType = "resource_changed"
)

// FieldChange is one differing sub-field of a changed resource.
type FieldChange struct {
	Field string `json:"field"`
	Old   any    `json:"old,omitempty"`
	New   any    `json:"new,omitempty"`
}

// Change is one typed change record.
type Change struct {
	Type ChangeType `json:"type"`

	// Key is the tag name or extra key for tag/extra changes.
	Key string `json:"key,omitempty"`

	// Old and New carry the differing values for scalar and extra
	// changes.
	Old any `json:"old,omitempty"`
	New any `json:"new,omitempty"`

	// ResourceID identifies the resource for resource changes.
	ResourceID string `json:"resource_id,omitempty"`

	// Fields is the sub-diff of a changed resource.
	Fields []FieldChange `json:"fields,omitempty"`
}

// ChangeList is the ordered diff output: metadata changes first in a
// fixed field order, then resource changes in resource-id order.
type ChangeList []Change
