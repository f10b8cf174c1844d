// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package diff

import (
	"reflect"
	"sort"
)

// scalarFields are the whitelisted top-level fields compared
// field-by-field, in output order.
var scalarFields = []struct {
	key string
	typ ChangeType
}{
	{"title", TitleChanged},
	{"notes", NotesChanged},
	{"license_id", LicenseChanged},
}

// resourceFields are the sub-fields compared for resources present in
// both snapshots, in output order.
var resourceFields = []string{"url", "format", "name", "description"}

// Compare computes the structural diff between two same-shape snapshot
// documents. The result is never empty: identical snapshots yield a
// single no_change record.
func Compare(oldSnap, newSnap map[string]any) ChangeList {
	var out ChangeList

	for _, f := range scalarFields {
		oldVal, newVal := oldSnap[f.key], newSnap[f.key]
		if !equalScalar(oldVal, newVal) {
			out = append(out, Change{Type: f.typ, Old: oldVal, New: newVal})
		}
	}

	out = append(out, diffTags(oldSnap, newSnap)...)
	out = append(out, diffExtras(oldSnap, newSnap)...)

	if !equalScalar(oldSnap["private"], newSnap["private"]) {
		out = append(out, Change{Type: PrivateChanged, Old: oldSnap["private"], New: newSnap["private"]})
	}

	out = append(out, diffResources(oldSnap, newSnap)...)

	if len(out) == 0 {
		out = ChangeList{{Type: NoChange}}
	}
	return out
}

// equalScalar compares two snapshot values. Numbers compare by value
// so float64 vs int after JSON round-trips stays stable; every other
// pairing compares structurally, keeping nil, "1" and 1 distinct.
func equalScalar(a, b any) bool {
	if af, ok := asFloat(a); ok {
		bf, ok := asFloat(b)
		return ok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// tagNames extracts the tag name set from a snapshot. Tags may be plain
// strings or documents with a "name" field.
func tagNames(snap map[string]any) map[string]struct{} {
	out := make(map[string]struct{})
	list, ok := snap["tags"].([]any)
	if !ok {
		return out
	}
	for _, t := range list {
		switch v := t.(type) {
		case string:
			out[v] = struct{}{}
		case map[string]any:
			if name, ok := v["name"].(string); ok {
				out[name] = struct{}{}
			}
		}
	}
	return out
}

func diffTags(oldSnap, newSnap map[string]any) ChangeList {
	oldTags, newTags := tagNames(oldSnap), tagNames(newSnap)

	var added, removed []string
	for name := range newTags {
		if _, ok := oldTags[name]; !ok {
			added = append(added, name)
		}
	}
	for name := range oldTags {
		if _, ok := newTags[name]; !ok {
			removed = append(removed, name)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)

	var out ChangeList
	for _, name := range added {
		out = append(out, Change{Type: TagAdded, Key: name})
	}
	for _, name := range removed {
		out = append(out, Change{Type: TagRemoved, Key: name})
	}
	return out
}

// extraPairs extracts the extras key-value map. Extras may be a plain
// document or a list of {key, value} documents.
func extraPairs(snap map[string]any) map[string]any {
	out := make(map[string]any)
	switch v := snap["extras"].(type) {
	case map[string]any:
		for k, val := range v {
			out[k] = val
		}
	case []any:
		for _, e := range v {
			if doc, ok := e.(map[string]any); ok {
				if key, ok := doc["key"].(string); ok {
					out[key] = doc["value"]
				}
			}
		}
	}
	return out
}

func diffExtras(oldSnap, newSnap map[string]any) ChangeList {
	oldExtras, newExtras := extraPairs(oldSnap), extraPairs(newSnap)

	keys := make(map[string]struct{}, len(oldExtras)+len(newExtras))
	for k := range oldExtras {
		keys[k] = struct{}{}
	}
	for k := range newExtras {
		keys[k] = struct{}{}
	}
	ordered := make([]string, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)

	var out ChangeList
	for _, k := range ordered {
		oldVal, inOld := oldExtras[k]
		newVal, inNew := newExtras[k]
		switch {
		case !inOld:
			out = append(out, Change{Type: ExtraAdded, Key: k, New: newVal})
		case !inNew:
			out = append(out, Change{Type: ExtraRemoved, Key: k, Old: oldVal})
		case !equalScalar(oldVal, newVal):
			out = append(out, Change{Type: ExtraChanged, Key: k, Old: oldVal, New: newVal})
		}
	}
	return out
}

// resourcesByID extracts the resources collection keyed by resource id.
func resourcesByID(snap map[string]any) map[string]map[string]any {
	out := make(map[string]map[string]any)
	list, ok := snap["resources"].([]any)
	if !ok {
		return out
	}
	for _, r := range list {
		doc, ok := r.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := doc["id"].(string); ok {
			out[id] = doc
		}
	}
	return out
}

func diffResources(oldSnap, newSnap map[string]any) ChangeList {
	oldRes, newRes := resourcesByID(oldSnap), resourcesByID(newSnap)

	ids := make(map[string]struct{}, len(oldRes)+len(newRes))
	for id := range oldRes {
		ids[id] = struct{}{}
	}
	for id := range newRes {
		ids[id] = struct{}{}
	}
	ordered := make([]string, 0, len(ids))
	for id := range ids {
		ordered = append(ordered, id)
	}
	sort.Strings(ordered)

	var out ChangeList
	for _, id := range ordered {
		oldDoc, inOld := oldRes[id]
		newDoc, inNew := newRes[id]
		switch {
		case !inOld:
			out = append(out, Change{Type: ResourceAdded, ResourceID: id})
		case !inNew:
			out = append(out, Change{Type: ResourceDeleted, ResourceID: id})
		default:
			var fields []FieldChange
			for _, f := range resourceFields {
				if !equalScalar(oldDoc[f], newDoc[f]) {
					fields = append(fields, FieldChange{Field: f, Old: oldDoc[f], New: newDoc[f]})
				}
			}
			if len(fields) > 0 {
				out = append(out, Change{Type: ResourceChanged, ResourceID: id, Fields: fields})
			}
		}
	}
	return out
}
