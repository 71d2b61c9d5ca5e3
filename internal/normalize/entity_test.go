// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package normalize

import (
	"reflect"
	"testing"
)

func TestExtractEntity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want map[string]any
	}{
		{
			name: "nested entity merges siblings",
			in: map[string]any{
				"entity":        map[string]any{"id": "e1", "type": "Walk"},
				"type":          "ignored",
				"relationships": []any{"r1"},
			},
			want: map[string]any{"id": "e1", "type": "Walk", "relationships": []any{"r1"}},
		},
		{
			name: "flat record",
			in:   map[string]any{"id": "p1"},
			want: map[string]any{"id": "p1"},
		},
		{
			name: "entity not a map",
			in:   map[string]any{"entity": "x", "id": "p2"},
			want: map[string]any{"entity": "x", "id": "p2"},
		},
		{name: "list", in: []any{1}, want: map[string]any{}},
		{name: "nil", in: nil, want: map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExtractEntity(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractEntity() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestExtractEntityReturnsCopy(t *testing.T) {
	t.Parallel()

	inner := map[string]any{"id": "e1"}
	out := ExtractEntity(map[string]any{"entity": inner})
	out["id"] = "changed"
	if inner["id"] != "e1" {
		t.Error("ExtractEntity must not alias the nested map")
	}
}

func TestRegionTags(t *testing.T) {
	t.Parallel()

	record := map[string]any{
		"c_region": []any{"North West"},
		"region":   "north west, Yorkshire",
		"address": []any{
			map[string]any{"region": "Cumbria", "country": "England"},
			"not-an-address",
		},
	}
	want := []string{"North West", "Yorkshire", "Cumbria", "England"}
	if got := RegionTags(record); !reflect.DeepEqual(got, want) {
		t.Errorf("RegionTags() = %#v, want %#v", got, want)
	}

	if got := RegionTags(map[string]any{}); got == nil || len(got) != 0 {
		t.Errorf("RegionTags(empty) = %#v, want empty non-nil", got)
	}
}

func TestID(t *testing.T) {
	t.Parallel()

	cases := map[string]any{
		"123": 123.0,
		"abc": " abc ",
		"o1":  map[string]any{"id": "o1"},
		"":    nil,
	}
	for want, in := range cases {
		if got := ID(in); got != want {
			t.Errorf("ID(%#v) = %q, want %q", in, got, want)
		}
	}
}
