// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

// Package activity implements the activity-feed aggregation engine: an
// append-only log of domain events with by-subject and dashboard fan-in
// queries, bidirectional cursor pagination and hidden-actor filtering.
package activity

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Kind tags the event type of an Activity. The set is closed: unknown
// kinds fail validation on append and on query filters.
type Kind string

const (
	// Dataset lifecycle
	KindNewPackage     Kind = "new package"
	KindChangedPackage Kind = "changed package"
	KindDeletedPackage Kind = "deleted package"

	// Group lifecycle
	KindNewGroup     Kind = "new group"
	KindChangedGroup Kind = "changed group"
	KindDeletedGroup Kind = "deleted group"

	// Organization lifecycle
	KindNewOrganization     Kind = "new organization"
	KindChangedOrganization Kind = "changed organization"
	KindDeletedOrganization Kind = "deleted organization"

	// User lifecycle
	KindNewUser     Kind = "new user"
	KindChangedUser Kind = "changed user"

	// Resource views (attached to the owning dataset)
	KindNewResourceView     Kind = "new resource view"
	KindChangedResourceView Kind = "changed resource view"
	KindDeletedResourceView Kind = "deleted resource view"

	// Follow events
	KindFollowDataset Kind = "follow dataset"
	KindFollowUser    Kind = "follow user"
	KindFollowGroup   Kind = "follow group"
)

// ObjectType identifies which existence validator a Kind's subject
// resolves through.
type ObjectType string

const (
	ObjectDataset ObjectType = "dataset"
	ObjectGroup   ObjectType = "group"
	ObjectUser    ObjectType = "user"
)

// kindObjects maps every known Kind to its subject's object type. This
// is the closed enum-to-capability table: membership here is what makes
// a Kind known.
var kindObjects = map[Kind]ObjectType{
	KindNewPackage:          ObjectDataset,
	KindChangedPackage:      ObjectDataset,
	KindDeletedPackage:      ObjectDataset,
	KindNewGroup:            ObjectGroup,
	KindChangedGroup:        ObjectGroup,
	KindDeletedGroup:        ObjectGroup,
	KindNewOrganization:     ObjectGroup,
	KindChangedOrganization: ObjectGroup,
	KindDeletedOrganization: ObjectGroup,
	KindNewUser:             ObjectUser,
	KindChangedUser:         ObjectUser,
	KindNewResourceView:     ObjectDataset,
	KindChangedResourceView: ObjectDataset,
	KindDeletedResourceView: ObjectDataset,
	KindFollowDataset:       ObjectDataset,
	KindFollowUser:          ObjectUser,
	KindFollowGroup:         ObjectGroup,
}

// deletedForChanged maps a "changed X" kind to its "deleted X"
// counterpart for the deleted-transition rule. Kinds without a deleted
// counterpart are absent.
var deletedForChanged = map[Kind]Kind{
	KindChangedPackage:      KindDeletedPackage,
	KindChangedGroup:        KindDeletedGroup,
	KindChangedOrganization: KindDeletedOrganization,
	KindChangedResourceView: KindDeletedResourceView,
}

// KnownKind reports whether k is a member of the closed kind set.
func KnownKind(k Kind) bool {
	_, ok := kindObjects[k]
	return ok
}

// ObjectTypeOf returns the object type a Kind's subject validates
// against. ok is false for unknown kinds.
func ObjectTypeOf(k Kind) (ObjectType, bool) {
	t, ok := kindObjects[k]
	return t, ok
}

// DeletedKindFor returns the "deleted X" counterpart of a "changed X"
// kind, or ok=false when k has none.
func DeletedKindFor(k Kind) (Kind, bool) {
	d, ok := deletedForChanged[k]
	return d, ok
}

// Kinds returns all known kinds. The result is a copy; order is
// unspecified.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindObjects))
	for k := range kindObjects {
		out = append(out, k)
	}
	return out
}

// Activity is one immutable event record in the feed. Once persisted,
// no field is ever mutated; rows leave the store only through the
// administrative purge.
type Activity struct {
	// ID is the unique opaque identifier, assigned at creation.
	ID string `json:"id"`

	// Timestamp is the creation time; ordering ties are broken by ID.
	Timestamp time.Time `json:"timestamp"`

	// ActorID identifies the user who caused the event. May reference
	// the configured system actor.
	ActorID string `json:"actor_id"`

	// SubjectID identifies the object the event is about (dataset,
	// group, user, or a resource's owning dataset).
	SubjectID string `json:"subject_id"`

	// Kind tags the event type.
	Kind Kind `json:"kind"`

	// Payload is the rendered snapshot of the subject at event time
	// plus auxiliary fields such as actor_name. The engine treats it
	// as opaque; only the diff engine inspects it.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// New constructs an Activity with a fresh id and UTC timestamp.
func New(actorID, subjectID string, kind Kind, payload json.RawMessage) *Activity {
	return &Activity{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		ActorID:   actorID,
		SubjectID: subjectID,
		Kind:      kind,
		Payload:   payload,
	}
}

// Page is the transient pagination cursor plus per-call filters.
type Page struct {
	// Limit is the page size. Zero selects the engine default.
	Limit int

	// Offset skips rows after ordering and bounds are applied.
	Offset int

	// Before keeps rows strictly older than the bound.
	Before *time.Time

	// After keeps rows strictly newer than the bound. When After is
	// set without Before the engine pages with the reverse window
	// (ascending fetch, reversed result).
	After *time.Time

	// IncludeHidden disables hidden-actor filtering.
	IncludeHidden bool

	// Kinds keeps only the listed kinds. Mutually exclusive with
	// ExcludeKinds.
	Kinds []Kind

	// ExcludeKinds drops the listed kinds.
	ExcludeKinds []Kind
}
