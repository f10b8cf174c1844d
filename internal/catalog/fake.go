// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/tomtom215/catalogus/internal/activity"
)

// FakeObject is one catalog object held by a Fake.
type FakeObject struct {
	Type     activity.ObjectType
	State    ObjectState
	Snapshot map[string]any
}

// Fake is an in-memory Resolver, FollowGraph and Membership for tests
// and embedded use without a database.
type Fake struct {
	mu      sync.RWMutex
	objects map[string]FakeObject
	follows map[string]map[string][]string // follower -> kind -> followee ids
	groups  map[string][]string            // group -> member dataset ids
}

// NewFake creates an empty fake catalog.
func NewFake() *Fake {
	return &Fake{
		objects: make(map[string]FakeObject),
		follows: make(map[string]map[string][]string),
		groups:  make(map[string][]string),
	}
}

// AddObject registers an object. A nil snapshot gets a minimal document.
func (f *Fake) AddObject(t activity.ObjectType, id string, state ObjectState, snapshot map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if snapshot == nil {
		snapshot = map[string]any{"id": id, "state": string(state)}
	}
	f.objects[id] = FakeObject{Type: t, State: state, Snapshot: snapshot}
}

// SetState changes an object's lifecycle state.
func (f *Fake) SetState(id string, state ObjectState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if obj, ok := f.objects[id]; ok {
		obj.State = state
		f.objects[id] = obj
	}
}

// AddFollow records a follow edge.
func (f *Fake) AddFollow(followerID, followeeID, kind string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.follows[followerID] == nil {
		f.follows[followerID] = make(map[string][]string)
	}
	f.follows[followerID][kind] = append(f.follows[followerID][kind], followeeID)
}

// AddGroupDataset records a current group membership.
func (f *Fake) AddGroupDataset(groupID, datasetID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups[groupID] = append(f.groups[groupID], datasetID)
}

// Exists implements Resolver.
func (f *Fake) Exists(_ context.Context, t activity.ObjectType, id string) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	obj, ok := f.objects[id]
	return ok && obj.Type == t, nil
}

// State implements Resolver.
func (f *Fake) State(_ context.Context, t activity.ObjectType, id string) (ObjectState, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	obj, ok := f.objects[id]
	if !ok || obj.Type != t {
		return "", fmt.Errorf("%w: %s %s", ErrUnknownObject, t, id)
	}
	return obj.State, nil
}

// Render implements Resolver.
func (f *Fake) Render(_ context.Context, t activity.ObjectType, id string) (map[string]any, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	obj, ok := f.objects[id]
	if !ok || obj.Type != t {
		return nil, fmt.Errorf("%w: %s %s", ErrUnknownObject, t, id)
	}
	out := make(map[string]any, len(obj.Snapshot))
	for k, v := range obj.Snapshot {
		out[k] = v
	}
	return out, nil
}

// DatasetsInGroup implements Membership.
func (f *Fake) DatasetsInGroup(_ context.Context, groupID string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.groups[groupID]...), nil
}

// FollowedUsers implements FollowGraph.
func (f *Fake) FollowedUsers(_ context.Context, userID string) ([]string, error) {
	return f.followed(userID, "user"), nil
}

// FollowedDatasets implements FollowGraph.
func (f *Fake) FollowedDatasets(_ context.Context, userID string) ([]string, error) {
	return f.followed(userID, "dataset"), nil
}

// FollowedGroups implements FollowGraph.
func (f *Fake) FollowedGroups(_ context.Context, userID string) ([]string, error) {
	return f.followed(userID, "group"), nil
}

func (f *Fake) followed(userID, kind string) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if m := f.follows[userID]; m != nil {
		return append([]string(nil), m[kind]...)
	}
	return nil
}
