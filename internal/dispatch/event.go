// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

// Package dispatch translates heterogeneous domain mutations into
// uniform activity records. Dispatch runs synchronously inside the
// goroutine handling the triggering request; append failures are logged
// and swallowed so they can never fail the triggering mutation.
package dispatch

// Op classifies a domain mutation.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event is the immutable record of one domain mutation, passed by
// value. All state the dispatcher needs beyond this lives in the event
// store and the subject's current catalog state, read at dispatch time.
type Event struct {
	// Name is the domain event name: dataset, group, organization,
	// user, resource_view, follow_dataset, follow_user, follow_group.
	Name string

	// Op is the mutation class.
	Op Op

	// ActorID identifies the user who caused the mutation. Required;
	// there is no silent default actor.
	ActorID string

	// ActorName is the actor's display name at mutation time, stored
	// in the payload for durability against future renames.
	ActorName string

	// ResultObjectID is the subject id from the mutation result;
	// takes precedence over RequestObjectID when present.
	ResultObjectID string

	// RequestObjectID is the subject id from the mutation request.
	RequestObjectID string
}

// SubjectID returns the subject id, result taking precedence.
func (e Event) SubjectID() string {
	if e.ResultObjectID != "" {
		return e.ResultObjectID
	}
	return e.RequestObjectID
}
