// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/catalogus/internal/activity"
)

func TestFakeExistsAndState(t *testing.T) {
	t.Parallel()
	f := NewFake()
	ctx := context.Background()
	f.AddObject(activity.ObjectDataset, "ds1", StateActive, nil)

	ok, err := f.Exists(ctx, activity.ObjectDataset, "ds1")
	if err != nil || !ok {
		t.Fatalf("Exists = (%v, %v)", ok, err)
	}

	// Type matters: ds1 is not a user.
	ok, _ = f.Exists(ctx, activity.ObjectUser, "ds1")
	if ok {
		t.Fatal("object must not exist under another type")
	}

	f.SetState("ds1", StateDeleted)
	state, err := f.State(ctx, activity.ObjectDataset, "ds1")
	if err != nil || state != StateDeleted {
		t.Fatalf("State = (%v, %v)", state, err)
	}

	// Deleted objects still exist.
	ok, _ = f.Exists(ctx, activity.ObjectDataset, "ds1")
	if !ok {
		t.Fatal("deleted object must still exist")
	}

	if _, err := f.State(ctx, activity.ObjectDataset, "ghost"); !errors.Is(err, ErrUnknownObject) {
		t.Fatalf("got %v, want ErrUnknownObject", err)
	}
}

func TestFakeRenderCopies(t *testing.T) {
	t.Parallel()
	f := NewFake()
	ctx := context.Background()
	f.AddObject(activity.ObjectDataset, "ds1", StateActive, map[string]any{"title": "A"})

	snap, err := f.Render(ctx, activity.ObjectDataset, "ds1")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	snap["title"] = "mutated"

	again, err := f.Render(ctx, activity.ObjectDataset, "ds1")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if again["title"] != "A" {
		t.Error("Render must return a copy, not the stored document")
	}
}

func TestFakeFollowGraph(t *testing.T) {
	t.Parallel()
	f := NewFake()
	ctx := context.Background()
	f.AddFollow("alice", "bob", "user")
	f.AddFollow("alice", "ds1", "dataset")
	f.AddFollow("alice", "g1", "group")
	f.AddGroupDataset("g1", "ds2")

	users, _ := f.FollowedUsers(ctx, "alice")
	datasets, _ := f.FollowedDatasets(ctx, "alice")
	groups, _ := f.FollowedGroups(ctx, "alice")
	members, _ := f.DatasetsInGroup(ctx, "g1")

	if len(users) != 1 || users[0] != "bob" {
		t.Errorf("users = %v", users)
	}
	if len(datasets) != 1 || datasets[0] != "ds1" {
		t.Errorf("datasets = %v", datasets)
	}
	if len(groups) != 1 || groups[0] != "g1" {
		t.Errorf("groups = %v", groups)
	}
	if len(members) != 1 || members[0] != "ds2" {
		t.Errorf("members = %v", members)
	}

	if users, _ := f.FollowedUsers(ctx, "nobody"); len(users) != 0 {
		t.Errorf("unknown follower must have no edges, got %v", users)
	}
}
