// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package normalize

import (
	"fmt"
	"strings"
)

// ExtractEntity unwraps a Beacon API record. Docs-compliant responses nest
// the fields under "entity" and keep relationship metadata next to it; in
// that case the entity is returned with every sibling key it does not
// already define merged in. Flat records are returned as-is, anything else
// becomes an empty map. The result is always a fresh map.
func ExtractEntity(record any) map[string]any {
	m, ok := record.(map[string]any)
	if !ok {
		return map[string]any{}
	}

	inner, ok := m["entity"].(map[string]any)
	if !ok {
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out
	}

	out := make(map[string]any, len(inner)+len(m))
	for k, v := range inner {
		out[k] = v
	}
	for k, v := range m {
		if k == "entity" {
			continue
		}
		if _, exists := out[k]; !exists {
			out[k] = v
		}
	}
	return out
}

// regionKeys are the payload fields that may carry region labels.
var regionKeys = []string{
	"c_region",
	"region",
	"Region",
	"location_region",
	"location",
	"Location (region)",
	"Location Region",
}

// RegionTags collects region labels from every known region field and from
// address entries (region and country), deduplicated case-insensitively in
// first-seen order. It never returns nil.
func RegionTags(record map[string]any) []string {
	var candidates []string
	for _, key := range regionKeys {
		if v, ok := record[key]; ok && !IsEmpty(v) {
			candidates = append(candidates, ToList(v)...)
		}
	}

	if addresses, ok := record["address"].([]any); ok {
		for _, a := range addresses {
			addr, ok := a.(map[string]any)
			if !ok {
				continue
			}
			if Truthy(addr["region"]) {
				candidates = append(candidates, ToList(addr["region"])...)
			}
			if Truthy(addr["country"]) {
				candidates = append(candidates, ToList(addr["country"])...)
			}
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		s := strings.TrimSpace(c)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ID extracts a record id as a string. Numeric ids decoded from JSON are
// rendered without a decimal part; "{id: ...}" objects are unwrapped.
func ID(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case map[string]any:
		return ID(t["id"])
	default:
		return strings.TrimSpace(String(v))
	}
}

func fmtAny(v any) string {
	return fmt.Sprint(v)
}
