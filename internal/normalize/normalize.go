// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

// Package normalize turns loosely-shaped Beacon records into predictable Go
// values.
//
// Beacon exports and API responses disagree on field labels ("Record ID",
// "record_id", "ID"), on cardinality (a region may be a string, a list or a
// comma-joined string) and on money formats ("£1,250.00", {"value": 12}).
// Every function in this package is total: malformed input degrades to a
// zero value instead of an error, so one bad record never aborts a sync.
package normalize

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Lookup returns the first non-empty value in row among the candidate keys.
//
// Exact key matches are tried first, in candidate order. If none of them
// holds a value, row keys and candidates are compared in their NormKey form
// so that "Amount (value)", "amount_value" and "AMOUNT VALUE" all match.
// When several row keys share a normalized form, the first non-empty one in
// sorted key order is used. Lookup returns nil when nothing matches.
func Lookup(row map[string]any, keys ...string) any {
	if len(row) == 0 || len(keys) == 0 {
		return nil
	}

	for _, k := range keys {
		if v, ok := row[k]; ok && !IsEmpty(v) {
			return v
		}
	}

	rowKeys := make([]string, 0, len(row))
	for k := range row {
		rowKeys = append(rowKeys, k)
	}
	sort.Strings(rowKeys)

	normalized := make(map[string]any, len(row))
	for _, k := range rowKeys {
		nk := NormKey(k)
		if nk == "" {
			continue
		}
		if existing, seen := normalized[nk]; seen && !IsEmpty(existing) {
			continue
		}
		normalized[nk] = row[k]
	}

	for _, k := range keys {
		if v, ok := normalized[NormKey(k)]; ok && !IsEmpty(v) {
			return v
		}
	}
	return nil
}

// LookupString is Lookup followed by String, returning "" when absent.
func LookupString(row map[string]any, keys ...string) string {
	v := Lookup(row, keys...)
	if v == nil {
		return ""
	}
	return strings.TrimSpace(String(v))
}

// NormKey lowercases s and drops everything that is not a letter or digit.
func NormKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsEmpty reports whether v is nil, NaN or a blank string.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case float64:
		return math.IsNaN(t)
	default:
		return false
	}
}

// Truthy mirrors the loose "is there anything here" test used when picking
// between alternative fields: nil, blank strings, zero numbers, false and
// empty collections are all falsy.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int:
		return t != 0
	case int64:
		return t != 0
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// Coalesce returns the first Truthy value, or nil.
func Coalesce(values ...any) any {
	for _, v := range values {
		if Truthy(v) {
			return v
		}
	}
	return nil
}

// String renders a scalar the way it would appear in a CSV cell. Whole
// floats lose their ".0" so that ids decoded from JSON numbers stay stable.
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case interface{ String() string }:
		return t.String()
	default:
		return fmtAny(v)
	}
}

// ToList coerces v into a list of trimmed, non-empty strings. Lists are
// stringified element-wise, nil and NaN give an empty list, and scalars are
// split on commas. The result is never nil.
func ToList(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case nil:
		return out
	case []string:
		for _, item := range t {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		for _, item := range t {
			if IsEmpty(item) {
				continue
			}
			if s := strings.TrimSpace(String(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case float64:
		if math.IsNaN(t) {
			return out
		}
	}

	s := strings.TrimSpace(String(v))
	if s == "" {
		return out
	}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		out = append(out, s)
	}
	return out
}

// CleanTimestamp returns the trimmed string form of v, or nil when blank.
func CleanTimestamp(v any) *string {
	if IsEmpty(v) {
		return nil
	}
	s := strings.TrimSpace(String(v))
	if s == "" {
		return nil
	}
	return &s
}

// ToInt parses attendee-style counts ("1,234", "12.0", 7) and returns 0 on
// anything it cannot read.
func ToInt(v any) int {
	switch t := v.(type) {
	case nil:
		return 0
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		return int(t)
	}
	s := strings.ReplaceAll(strings.TrimSpace(String(v)), ",", "")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

// Sanitize returns a deep copy of v with NaN floats replaced by nil.
func Sanitize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = Sanitize(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Sanitize(item)
		}
		return out
	case float64:
		if math.IsNaN(t) {
			return nil
		}
		return t
	default:
		return v
	}
}
