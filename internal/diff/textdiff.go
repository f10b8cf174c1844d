// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package diff

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pmezard/go-difflib/difflib"
)

// Mode selects the textual diff rendering.
type Mode string

const (
	ModeUnified Mode = "unified"
	ModeContext Mode = "context"
)

// Render produces a line-oriented diff of the two pretty-printed
// snapshot serializations. This is a pure presentation transform for
// human display, independent of the structural ChangeList.
func Render(oldSnap, newSnap map[string]any, mode Mode, oldLabel, newLabel string) (string, error) {
	oldText, err := prettyLines(oldSnap)
	if err != nil {
		return "", fmt.Errorf("failed to serialize old snapshot: %w", err)
	}
	newText, err := prettyLines(newSnap)
	if err != nil {
		return "", fmt.Errorf("failed to serialize new snapshot: %w", err)
	}

	if oldLabel == "" {
		oldLabel = "old"
	}
	if newLabel == "" {
		newLabel = "new"
	}

	switch mode {
	case ModeUnified, "":
		return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        oldText,
			B:        newText,
			FromFile: oldLabel,
			ToFile:   newLabel,
			Context:  3,
		})
	case ModeContext:
		return difflib.GetContextDiffString(difflib.ContextDiff{
			A:        oldText,
			B:        newText,
			FromFile: oldLabel,
			ToFile:   newLabel,
			Context:  3,
		})
	default:
		return "", fmt.Errorf("unknown diff mode %q", mode)
	}
}

// prettyLines serializes a snapshot as indented JSON split into lines.
// Map keys marshal in sorted order, so output is deterministic.
func prettyLines(snap map[string]any) ([]string, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, err
	}
	return difflib.SplitLines(strings.TrimSuffix(string(data), "\n") + "\n"), nil
}
