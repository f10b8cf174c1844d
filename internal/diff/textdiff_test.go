// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package diff

import (
	"strings"
	"testing"
)

func TestRenderUnified(t *testing.T) {
	t.Parallel()

	oldSnap := map[string]any{"title": "Air Quality", "notes": "hourly"}
	newSnap := map[string]any{"title": "Air Quality v2", "notes": "hourly"}

	out, err := Render(oldSnap, newSnap, ModeUnified, "2026-08-01", "2026-08-02")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "--- 2026-08-01") || !strings.Contains(out, "+++ 2026-08-02") {
		t.Errorf("labels missing from header:\n%s", out)
	}
	if !strings.Contains(out, `-  "title": "Air Quality"`) {
		t.Errorf("removed line missing:\n%s", out)
	}
	if !strings.Contains(out, `+  "title": "Air Quality v2"`) {
		t.Errorf("added line missing:\n%s", out)
	}
}

func TestRenderContext(t *testing.T) {
	t.Parallel()

	oldSnap := map[string]any{"title": "A"}
	newSnap := map[string]any{"title": "B"}

	out, err := Render(oldSnap, newSnap, ModeContext, "", "")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "*** old") || !strings.Contains(out, "--- new") {
		t.Errorf("default labels missing:\n%s", out)
	}
}

func TestRenderIdenticalIsEmpty(t *testing.T) {
	t.Parallel()

	snap := map[string]any{"title": "A"}
	out, err := Render(snap, snap, ModeUnified, "", "")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "" {
		t.Errorf("identical snapshots should render empty, got:\n%s", out)
	}
}

func TestRenderUnknownMode(t *testing.T) {
	t.Parallel()

	if _, err := Render(nil, nil, Mode("sideways"), "", ""); err == nil {
		t.Fatal("unknown mode must fail")
	}
}
