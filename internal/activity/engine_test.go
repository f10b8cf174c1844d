// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package activity

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// fakeDirectory implements SubjectDirectory, FollowGraph and Membership
// without a database.
type fakeDirectory struct {
	objects map[string]ObjectType
	users   map[string][]string // follower -> followed users
	data    map[string][]string // follower -> followed datasets
	grps    map[string][]string // follower -> followed groups
	members map[string][]string // group -> member datasets
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		objects: make(map[string]ObjectType),
		users:   make(map[string][]string),
		data:    make(map[string][]string),
		grps:    make(map[string][]string),
		members: make(map[string][]string),
	}
}

func (d *fakeDirectory) add(t ObjectType, id string) {
	d.objects[id] = t
}

func (d *fakeDirectory) Exists(_ context.Context, t ObjectType, id string) (bool, error) {
	return d.objects[id] == t, nil
}

func (d *fakeDirectory) FollowedUsers(_ context.Context, u string) ([]string, error) {
	return d.users[u], nil
}

func (d *fakeDirectory) FollowedDatasets(_ context.Context, u string) ([]string, error) {
	return d.data[u], nil
}

func (d *fakeDirectory) FollowedGroups(_ context.Context, u string) ([]string, error) {
	return d.grps[u], nil
}

func (d *fakeDirectory) DatasetsInGroup(_ context.Context, g string) ([]string, error) {
	return d.members[g], nil
}

// testClock hands out strictly increasing timestamps one second apart.
type testClock struct {
	t time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) next() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestEngine(t *testing.T) (*Engine, *MemoryStore, *fakeDirectory) {
	t.Helper()
	store := NewMemoryStore()
	dir := newFakeDirectory()
	engine := NewEngine(EngineConfig{
		Store:        store,
		Directory:    dir,
		Graph:        dir,
		Members:      dir,
		HiddenActors: []string{"system"},
		DefaultLimit: 31,
		MaxLimit:     100,
	})
	return engine, store, dir
}

// appendAt inserts an activity with a fixed id and timestamp, bypassing
// engine validation.
func appendAt(t *testing.T, store *MemoryStore, id string, ts time.Time, actor, subject string, kind Kind) {
	t.Helper()
	err := store.Append(context.Background(), &Activity{
		ID:        id,
		Timestamp: ts,
		ActorID:   actor,
		SubjectID: subject,
		Kind:      kind,
	})
	if err != nil {
		t.Fatalf("append %s: %v", id, err)
	}
}

func ids(entries []Activity) []string {
	out := make([]string, len(entries))
	for i, a := range entries {
		out[i] = a.ID
	}
	return out
}

func assertIDs(t *testing.T, got []Activity, want ...string) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("got %d entries %v, want %d %v", len(gotIDs), gotIDs, len(want), want)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("entry %d: got %v, want %v", i, gotIDs, want)
		}
	}
}

func TestEngineAppendValidation(t *testing.T) {
	t.Parallel()
	engine, _, dir := newTestEngine(t)
	dir.add(ObjectDataset, "ds1")
	ctx := context.Background()

	tests := []struct {
		name    string
		act     *Activity
		wantErr error
	}{
		{
			name: "valid append",
			act:  New("alice", "ds1", KindNewPackage, nil),
		},
		{
			name:    "unknown kind",
			act:     New("alice", "ds1", Kind("reticulated splines"), nil),
			wantErr: ErrInvalidKind,
		},
		{
			name:    "missing subject",
			act:     New("alice", "ghost", KindNewPackage, nil),
			wantErr: ErrSubjectNotFound,
		},
		{
			name:    "kind and subject type mismatch",
			act:     New("alice", "ds1", KindNewUser, nil),
			wantErr: ErrSubjectNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engine.Append(ctx, tt.act)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBySubjectOrderingAndTieBreak(t *testing.T) {
	t.Parallel()
	engine, store, dir := newTestEngine(t)
	dir.add(ObjectDataset, "ds1")
	ctx := context.Background()
	clock := newTestClock()

	t1 := clock.next()
	t2 := clock.next()
	appendAt(t, store, "a1", t1, "alice", "ds1", KindNewPackage)
	// a2 and a3 share a timestamp; ids break the tie.
	appendAt(t, store, "a3", t2, "alice", "ds1", KindChangedPackage)
	appendAt(t, store, "a2", t2, "bob", "ds1", KindChangedPackage)

	got, err := engine.BySubject(ctx, ObjectDataset, "ds1", Page{})
	if err != nil {
		t.Fatalf("BySubject: %v", err)
	}
	// Newest first; equal timestamps descend by id.
	assertIDs(t, got, "a3", "a2", "a1")
}

func TestBySubjectUnknownSubject(t *testing.T) {
	t.Parallel()
	engine, _, _ := newTestEngine(t)

	_, err := engine.BySubject(context.Background(), ObjectDataset, "ghost", Page{})
	if !errors.Is(err, ErrSubjectNotFound) {
		t.Fatalf("got %v, want ErrSubjectNotFound", err)
	}
}

func TestBySubjectGroupIncludesMemberDatasets(t *testing.T) {
	t.Parallel()
	engine, store, dir := newTestEngine(t)
	dir.add(ObjectGroup, "g1")
	dir.add(ObjectDataset, "ds1")
	dir.members["g1"] = []string{"ds1"}
	clock := newTestClock()

	appendAt(t, store, "a1", clock.next(), "alice", "g1", KindNewGroup)
	appendAt(t, store, "a2", clock.next(), "alice", "ds1", KindNewPackage)
	appendAt(t, store, "a3", clock.next(), "alice", "ds2", KindNewPackage)

	got, err := engine.BySubject(context.Background(), ObjectGroup, "g1", Page{})
	if err != nil {
		t.Fatalf("BySubject: %v", err)
	}
	assertIDs(t, got, "a2", "a1")
}

func TestBySubjectHiddenActors(t *testing.T) {
	t.Parallel()
	engine, store, dir := newTestEngine(t)
	dir.add(ObjectDataset, "ds1")
	clock := newTestClock()

	appendAt(t, store, "a1", clock.next(), "alice", "ds1", KindNewPackage)
	appendAt(t, store, "a2", clock.next(), "system", "ds1", KindChangedPackage)

	ctx := context.Background()
	got, err := engine.BySubject(ctx, ObjectDataset, "ds1", Page{})
	if err != nil {
		t.Fatalf("BySubject: %v", err)
	}
	assertIDs(t, got, "a1")

	got, err = engine.BySubject(ctx, ObjectDataset, "ds1", Page{IncludeHidden: true})
	if err != nil {
		t.Fatalf("BySubject include_hidden: %v", err)
	}
	assertIDs(t, got, "a2", "a1")
}

func TestBySubjectKindFilters(t *testing.T) {
	t.Parallel()
	engine, store, dir := newTestEngine(t)
	dir.add(ObjectDataset, "ds1")
	clock := newTestClock()

	appendAt(t, store, "a1", clock.next(), "alice", "ds1", KindNewPackage)
	appendAt(t, store, "a2", clock.next(), "alice", "ds1", KindChangedPackage)
	appendAt(t, store, "a3", clock.next(), "alice", "ds1", KindDeletedPackage)

	ctx := context.Background()

	got, err := engine.BySubject(ctx, ObjectDataset, "ds1", Page{Kinds: []Kind{KindChangedPackage}})
	if err != nil {
		t.Fatalf("kinds filter: %v", err)
	}
	assertIDs(t, got, "a2")

	got, err = engine.BySubject(ctx, ObjectDataset, "ds1", Page{ExcludeKinds: []Kind{KindChangedPackage}})
	if err != nil {
		t.Fatalf("exclude filter: %v", err)
	}
	assertIDs(t, got, "a3", "a1")
}

func TestPageValidation(t *testing.T) {
	t.Parallel()
	engine, _, dir := newTestEngine(t)
	dir.add(ObjectDataset, "ds1")
	ctx := context.Background()

	tests := []struct {
		name string
		page Page
	}{
		{"limit above max", Page{Limit: 101}},
		{"negative limit", Page{Limit: -1}},
		{"negative offset", Page{Offset: -3}},
		{"conflicting kind filters", Page{Kinds: []Kind{KindNewPackage}, ExcludeKinds: []Kind{KindNewGroup}}},
		{"unknown kind", Page{Kinds: []Kind{"bogus"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.BySubject(ctx, ObjectDataset, "ds1", tt.page)
			if !IsValidation(err) {
				t.Fatalf("got %v, want validation error", err)
			}
		})
	}
}

// TestCursorWindows verifies the before/after bounds, including the
// reverse window when only a lower bound is given: the page holds the
// entries closest above the bound, presented newest first.
func TestCursorWindows(t *testing.T) {
	t.Parallel()
	engine, store, dir := newTestEngine(t)
	dir.add(ObjectDataset, "ds1")
	clock := newTestClock()

	// Five entries a1..a5, oldest to newest.
	times := make([]time.Time, 6)
	for i := 1; i <= 5; i++ {
		times[i] = clock.next()
		appendAt(t, store, fmt.Sprintf("a%d", i), times[i], "alice", "ds1", KindChangedPackage)
	}
	ctx := context.Background()

	tests := []struct {
		name string
		page Page
		want []string
	}{
		{
			name: "first page newest first",
			page: Page{Limit: 2},
			want: []string{"a5", "a4"},
		},
		{
			name: "before bound is strict",
			page: Page{Limit: 2, Before: &times[4]},
			want: []string{"a3", "a2"},
		},
		{
			name: "after-only takes entries nearest the bound",
			page: Page{Limit: 2, After: &times[1]},
			want: []string{"a3", "a2"},
		},
		{
			name: "after bound is strict",
			page: Page{Limit: 10, After: &times[3]},
			want: []string{"a5", "a4"},
		},
		{
			name: "both bounds form a window",
			page: Page{Limit: 10, After: &times[1], Before: &times[5]},
			want: []string{"a4", "a3", "a2"},
		},
		{
			name: "offset applies after ordering",
			page: Page{Limit: 2, Offset: 1},
			want: []string{"a4", "a3"},
		},
		{
			name: "offset beyond end is empty",
			page: Page{Limit: 2, Offset: 10},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.BySubject(ctx, ObjectDataset, "ds1", tt.page)
			if err != nil {
				t.Fatalf("BySubject: %v", err)
			}
			assertIDs(t, got, tt.want...)
		})
	}
}

// TestCursorRoundTrip pages forward through the whole stream with
// before cursors, then back with after cursors, and checks the pages
// tile without gap or overlap.
func TestCursorRoundTrip(t *testing.T) {
	t.Parallel()
	engine, store, dir := newTestEngine(t)
	dir.add(ObjectDataset, "ds1")
	clock := newTestClock()

	for i := 1; i <= 9; i++ {
		appendAt(t, store, fmt.Sprintf("a%d", i), clock.next(), "alice", "ds1", KindChangedPackage)
	}
	ctx := context.Background()

	var forward []string
	p := Page{Limit: 4}
	for {
		entries, err := engine.BySubject(ctx, ObjectDataset, "ds1", p)
		if err != nil {
			t.Fatalf("forward page: %v", err)
		}
		if len(entries) == 0 {
			break
		}
		forward = append(forward, ids(entries)...)
		before := entries[len(entries)-1].Timestamp
		p = Page{Limit: 4, Before: &before}
	}

	want := []string{"a9", "a8", "a7", "a6", "a5", "a4", "a3", "a2", "a1"}
	if len(forward) != len(want) {
		t.Fatalf("forward walk got %v, want %v", forward, want)
	}
	for i := range want {
		if forward[i] != want[i] {
			t.Fatalf("forward walk got %v, want %v", forward, want)
		}
	}

	// Walk back up from the oldest entry.
	var backward []string
	after := times(t, engine, ctx, "a1")
	p = Page{Limit: 4, After: &after}
	for {
		entries, err := engine.BySubject(ctx, ObjectDataset, "ds1", p)
		if err != nil {
			t.Fatalf("backward page: %v", err)
		}
		if len(entries) == 0 {
			break
		}
		backward = append(backward, ids(entries)...)
		next := entries[0].Timestamp
		p = Page{Limit: 4, After: &next}
	}

	// Pages ascend through the stream; each page presents newest first.
	wantBack := []string{"a5", "a4", "a3", "a2", "a9", "a8", "a7", "a6"}
	if len(backward) != len(wantBack) {
		t.Fatalf("backward walk got %v, want %v", backward, wantBack)
	}
	for i := range wantBack {
		if backward[i] != wantBack[i] {
			t.Fatalf("backward walk got %v, want %v", backward, wantBack)
		}
	}
}

func times(t *testing.T, engine *Engine, ctx context.Context, id string) time.Time {
	t.Helper()
	a, err := engine.Get(ctx, id)
	if err != nil {
		t.Fatalf("get %s: %v", id, err)
	}
	return a.Timestamp
}

func TestDashboardFanIn(t *testing.T) {
	t.Parallel()
	engine, store, dir := newTestEngine(t)
	dir.add(ObjectUser, "alice")
	dir.add(ObjectUser, "bob")
	dir.add(ObjectDataset, "ds1")
	dir.add(ObjectDataset, "ds2")
	dir.add(ObjectGroup, "g1")
	dir.users["alice"] = []string{"bob"}
	dir.data["alice"] = []string{"ds1"}
	dir.grps["alice"] = []string{"g1"}
	dir.members["g1"] = []string{"ds2"}
	clock := newTestClock()

	// Alice's own action on an unrelated subject (actor match).
	appendAt(t, store, "own", clock.next(), "alice", "ds9", KindChangedPackage)
	// Bob acting elsewhere (followed user, actor match).
	appendAt(t, store, "bob-act", clock.next(), "bob", "ds9", KindChangedPackage)
	// Something happening to Bob (followed user, subject match).
	appendAt(t, store, "bob-subj", clock.next(), "carol", "bob", KindFollowUser)
	// Followed dataset.
	appendAt(t, store, "ds1-ev", clock.next(), "carol", "ds1", KindChangedPackage)
	// Member dataset of followed group.
	appendAt(t, store, "ds2-ev", clock.next(), "carol", "ds2", KindChangedPackage)
	// Unrelated noise.
	appendAt(t, store, "noise", clock.next(), "carol", "ds3", KindNewPackage)

	got, err := engine.Dashboard(context.Background(), "alice", Page{})
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	assertIDs(t, got, "ds2-ev", "ds1-ev", "bob-subj", "bob-act", "own")
}

// TestDashboardDedup covers an entry reachable through two sub-streams:
// it must appear once.
func TestDashboardDedup(t *testing.T) {
	t.Parallel()
	engine, store, dir := newTestEngine(t)
	dir.add(ObjectUser, "alice")
	dir.add(ObjectUser, "bob")
	dir.add(ObjectDataset, "ds1")
	dir.users["alice"] = []string{"bob"}
	dir.data["alice"] = []string{"ds1"}
	clock := newTestClock()

	// Bob (followed user) edits ds1 (followed dataset).
	appendAt(t, store, "dup", clock.next(), "bob", "ds1", KindChangedPackage)

	got, err := engine.Dashboard(context.Background(), "alice", Page{})
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	assertIDs(t, got, "dup")
}

func TestDashboardUnknownUser(t *testing.T) {
	t.Parallel()
	engine, _, _ := newTestEngine(t)

	_, err := engine.Dashboard(context.Background(), "ghost", Page{})
	if !errors.Is(err, ErrSubjectNotFound) {
		t.Fatalf("got %v, want ErrSubjectNotFound", err)
	}
}

// TestDashboardOffsetAcrossStreams checks offset correctness when the
// page spans multiple sub-streams: each sub-query is bounded by
// limit+offset so the merged offset slice stays complete.
func TestDashboardOffsetAcrossStreams(t *testing.T) {
	t.Parallel()
	engine, store, dir := newTestEngine(t)
	dir.add(ObjectUser, "alice")
	dir.add(ObjectDataset, "ds1")
	dir.add(ObjectDataset, "ds2")
	dir.data["alice"] = []string{"ds1", "ds2"}
	clock := newTestClock()

	for i := 1; i <= 4; i++ {
		appendAt(t, store, fmt.Sprintf("x%d", i), clock.next(), "carol", "ds1", KindChangedPackage)
		appendAt(t, store, fmt.Sprintf("y%d", i), clock.next(), "carol", "ds2", KindChangedPackage)
	}

	got, err := engine.Dashboard(context.Background(), "alice", Page{Limit: 3, Offset: 2})
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	// Full merged order: y4 x4 y3 x3 y2 x2 y1 x1; offset 2, limit 3.
	assertIDs(t, got, "y3", "x3", "y2")
}

func TestPurge(t *testing.T) {
	t.Parallel()
	engine, store, dir := newTestEngine(t)
	dir.add(ObjectDataset, "ds1")
	dir.add(ObjectDataset, "ds2")
	clock := newTestClock()

	appendAt(t, store, "a1", clock.next(), "alice", "ds1", KindNewPackage)
	appendAt(t, store, "a2", clock.next(), "alice", "ds1", KindChangedPackage)
	appendAt(t, store, "a3", clock.next(), "alice", "ds2", KindNewPackage)

	ctx := context.Background()
	n, err := engine.Purge(ctx, Purge{SubjectID: "ds1"})
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if n != 2 {
		t.Fatalf("purged %d, want 2", n)
	}

	if _, err := engine.Get(ctx, "a1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("a1 should be gone, got %v", err)
	}
	if _, err := engine.Get(ctx, "a3"); err != nil {
		t.Fatalf("a3 should survive: %v", err)
	}
}
