// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package dispatch

import (
	"github.com/tomtom215/catalogus/internal/activity"
)

// mappingKey indexes the static kind mapping.
type mappingKey struct {
	name string
	op   Op
}

// kindMapping is the static table from (domain event name, op) to the
// candidate activity kind. Events absent from the table produce no
// activity.
var kindMapping = map[mappingKey]activity.Kind{
	{"dataset", OpCreate}: activity.KindNewPackage,
	{"dataset", OpUpdate}: activity.KindChangedPackage,
	{"dataset", OpDelete}: activity.KindDeletedPackage,

	{"group", OpCreate}: activity.KindNewGroup,
	{"group", OpUpdate}: activity.KindChangedGroup,
	{"group", OpDelete}: activity.KindDeletedGroup,

	{"organization", OpCreate}: activity.KindNewOrganization,
	{"organization", OpUpdate}: activity.KindChangedOrganization,
	{"organization", OpDelete}: activity.KindDeletedOrganization,

	{"user", OpCreate}: activity.KindNewUser,
	{"user", OpUpdate}: activity.KindChangedUser,

	{"resource_view", OpCreate}: activity.KindNewResourceView,
	{"resource_view", OpUpdate}: activity.KindChangedResourceView,
	{"resource_view", OpDelete}: activity.KindDeletedResourceView,

	{"follow_dataset", OpCreate}: activity.KindFollowDataset,
	{"follow_user", OpCreate}:    activity.KindFollowUser,
	{"follow_group", OpCreate}:   activity.KindFollowGroup,
}

// KindFor returns the candidate kind for a domain event, ok=false when
// the event maps to no activity.
func KindFor(name string, op Op) (activity.Kind, bool) {
	k, ok := kindMapping[mappingKey{name, op}]
	return k, ok
}
