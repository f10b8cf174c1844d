// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package dashboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/catalogus/internal/activity"
)

// feedQuerier serves a fixed newest-first feed with the engine's page
// semantics (strict before bound, then offset, then limit).
type feedQuerier struct {
	entries []activity.Activity // newest first
}

func (q *feedQuerier) Dashboard(_ context.Context, _ string, p Page) ([]activity.Activity, error) {
	var matched []activity.Activity
	for _, a := range q.entries {
		if p.Before != nil && !a.Timestamp.Before(*p.Before) {
			continue
		}
		matched = append(matched, a)
	}
	if p.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[p.Offset:]
	if p.Limit > 0 && len(matched) > p.Limit {
		matched = matched[:p.Limit]
	}
	return matched, nil
}

func feedEntry(id string, ts time.Time, actor string) activity.Activity {
	return activity.Activity{
		ID:        id,
		Timestamp: ts,
		ActorID:   actor,
		SubjectID: "ds1",
		Kind:      activity.KindChangedPackage,
	}
}

// buildFeed returns n entries, newest first, one minute apart ending at
// end. Entries alternate between "bob" and the dashboard owner "alice".
func buildFeed(n int, end time.Time) []activity.Activity {
	out := make([]activity.Activity, n)
	for i := 0; i < n; i++ {
		actor := "bob"
		if i%2 == 1 {
			actor = "alice"
		}
		out[i] = feedEntry(fmt.Sprintf("a%d", n-i), end.Add(-time.Duration(i)*time.Minute), actor)
	}
	return out
}

func TestMarkViewedSetsMarker(t *testing.T) {
	t.Parallel()
	markers := NewMemoryMarkerStore()
	tracker := NewTracker(markers, &feedQuerier{}, 10)
	ctx := context.Background()

	if _, ok, _ := markers.Get(ctx, "alice"); ok {
		t.Fatal("marker must not exist before the first mark")
	}

	before := time.Now().UTC()
	if err := tracker.MarkViewed(ctx, "alice"); err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}

	marker, ok, err := markers.Get(ctx, "alice")
	if err != nil || !ok {
		t.Fatalf("marker missing after mark: ok=%v err=%v", ok, err)
	}
	if marker.Before(before.Add(-time.Second)) {
		t.Errorf("marker %v predates the mark", marker)
	}
}

func TestUnreadCountWithoutMarker(t *testing.T) {
	t.Parallel()
	end := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tracker := NewTracker(NewMemoryMarkerStore(), &feedQuerier{entries: buildFeed(6, end)}, 10)

	// No marker: every entry by another actor counts. Half the feed is
	// alice's own entries, which never count.
	count, err := tracker.UnreadCount(context.Background(), "alice")
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestUnreadCountWithMarker(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	end := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	markers := NewMemoryMarkerStore()
	tracker := NewTracker(markers, &feedQuerier{entries: buildFeed(6, end)}, 10)

	// Marker 2.5 minutes back: a6 (bob), a5 (alice) and a4 (bob) are
	// newer; only the two bob entries count.
	if err := markers.Set(ctx, "alice", end.Add(-150*time.Second)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	count, err := tracker.UnreadCount(ctx, "alice")
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want bob's two entries above the marker", count)
	}
}

// TestUnreadCountPagesThroughLongFeeds drives the walk across several
// internal pages.
func TestUnreadCountPagesThroughLongFeeds(t *testing.T) {
	t.Parallel()
	end := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tracker := NewTracker(NewMemoryMarkerStore(), &feedQuerier{entries: buildFeed(25, end)}, 4)

	count, err := tracker.UnreadCount(context.Background(), "alice")
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	// 25 entries alternating bob/alice starting with bob: 13 by bob.
	if count != 13 {
		t.Errorf("count = %d, want 13", count)
	}
}

// TestUnreadCountCountsTimestampTies covers entries sharing one
// timestamp across internal page boundaries: the feed order breaks
// ties by id, and the walk must not lose the tied entries a timestamp
// cursor would skip.
func TestUnreadCountCountsTimestampTies(t *testing.T) {
	t.Parallel()
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	entries := make([]activity.Activity, 5)
	for i := range entries {
		entries[i] = feedEntry(fmt.Sprintf("a%d", 5-i), ts, "bob")
	}
	tracker := NewTracker(NewMemoryMarkerStore(), &feedQuerier{entries: entries}, 2)

	count, err := tracker.UnreadCount(context.Background(), "alice")
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 5 {
		t.Errorf("count = %d, want all 5 timestamp-tied entries", count)
	}
}

func TestUnreadCountStopsAtMarkerPage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	end := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	markers := NewMemoryMarkerStore()
	tracker := NewTracker(markers, &feedQuerier{entries: buildFeed(25, end)}, 4)

	// Marker 90 seconds back: only a25 (bob) and a24 (alice) are newer.
	if err := markers.Set(ctx, "alice", end.Add(-90*time.Second)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	count, err := tracker.UnreadCount(ctx, "alice")
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestAnnotate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	end := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	markers := NewMemoryMarkerStore()
	tracker := NewTracker(markers, &feedQuerier{}, 10)

	entries := []activity.Activity{
		feedEntry("new-by-bob", end, "bob"),
		feedEntry("new-by-self", end.Add(-time.Minute), "alice"),
		feedEntry("old-by-bob", end.Add(-time.Hour), "bob"),
	}

	if err := markers.Set(ctx, "alice", end.Add(-10*time.Minute)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	annotated, err := tracker.Annotate(ctx, "alice", entries)
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	want := map[string]bool{
		"new-by-bob":  true,  // newer than marker, another actor
		"new-by-self": false, // own entries are never new
		"old-by-bob":  false, // older than marker
	}
	for _, a := range annotated {
		if a.IsNew != want[a.ID] {
			t.Errorf("%s: is_new = %v, want %v", a.ID, a.IsNew, want[a.ID])
		}
	}
}

func TestAnnotateWithoutMarker(t *testing.T) {
	t.Parallel()
	tracker := NewTracker(NewMemoryMarkerStore(), &feedQuerier{}, 10)

	entries := []activity.Activity{
		feedEntry("by-bob", time.Now().UTC(), "bob"),
		feedEntry("by-self", time.Now().UTC(), "alice"),
	}
	annotated, err := tracker.Annotate(context.Background(), "alice", entries)
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if !annotated[0].IsNew || annotated[1].IsNew {
		t.Errorf("without a marker every non-self entry is new: %+v", annotated)
	}
}
