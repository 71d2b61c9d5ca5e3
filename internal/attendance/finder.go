// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package attendance

import (
	"sort"
	"strings"

	"github.com/tomtom215/beaconkpi/internal/normalize"
)

// Role selects which side of an attendance link a finder looks for.
type Role int

const (
	RoleEvent Role = iota
	RolePerson
)

func (r Role) String() string {
	if r == RoleEvent {
		return "event"
	}
	return "person"
}

// tokens are the key fragments that mark a field as pointing at a role.
var tokens = map[Role][]string{
	RoleEvent:  {"event", "activity", "session"},
	RolePerson: {"person", "contact", "participant", "attendee", "member"},
}

// IDFinder locates the id of the event or person an attendance record
// refers to. Find returns "" when it has no answer.
type IDFinder interface {
	Find(record map[string]any, role Role) string
}

// KnownFieldFinder checks the field names Beacon is known to use.
type KnownFieldFinder struct{}

var knownFields = map[Role][]string{
	RoleEvent: {
		"event_id", "event", "activity_id", "activity", "session_id", "session",
		"Event ID", "Event", "Activity",
	},
	RolePerson: {
		"person_id", "person", "contact_id", "contact", "participant_id", "participant",
		"attendee_id", "attendee", "Person ID", "Person", "Contact", "Participant",
	},
}

// Find implements IDFinder.
func (KnownFieldFinder) Find(record map[string]any, role Role) string {
	return normalize.ID(firstListItem(normalize.Lookup(record, knownFields[role]...)))
}

// RelationshipFinder reads linked-entity sub-objects such as
// {"relationships": [{"type": "event", "id": 7}]} or
// {"links": {"person": {"id": 9}}}.
type RelationshipFinder struct{}

var relationshipKeys = []string{"relationships", "links", "_links", "entity_links"}

// Find implements IDFinder.
func (RelationshipFinder) Find(record map[string]any, role Role) string {
	for _, key := range relationshipKeys {
		switch rel := record[key].(type) {
		case []any:
			if id := findTypedLink(rel, role); id != "" {
				return id
			}
		case map[string]any:
			names := make([]string, 0, len(rel))
			for name := range rel {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				v := rel[name]
				if list, ok := v.([]any); ok {
					if id := findTypedLink(list, role); id != "" {
						return id
					}
				}
				if obj, ok := v.(map[string]any); ok && matchesRole(linkType(obj), role) {
					if id := normalize.ID(obj["id"]); id != "" {
						return id
					}
				}
				if matchesRole(name, role) {
					if id := normalize.ID(firstListItem(v)); id != "" {
						return id
					}
				}
			}
		}
	}
	return ""
}

func findTypedLink(list []any, role Role) string {
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if matchesRole(linkType(obj), role) {
			if id := normalize.ID(obj["id"]); id != "" {
				return id
			}
		}
	}
	return ""
}

func linkType(obj map[string]any) string {
	return normalize.LookupString(obj, "type", "entity_type", "entityType", "kind")
}

// HeuristicFinder scans nested keys for anything that looks like a link to
// the role: a key carrying one of the role tokens whose value is an id or
// an {id} object. The scan stops at MaxDepth levels of nesting.
type HeuristicFinder struct {
	MaxDepth int
}

// DefaultScanDepth bounds the heuristic scan.
const DefaultScanDepth = 4

// Find implements IDFinder.
func (h HeuristicFinder) Find(record map[string]any, role Role) string {
	depth := h.MaxDepth
	if depth <= 0 {
		depth = DefaultScanDepth
	}
	return scan(record, role, depth)
}

func scan(v any, role Role, depth int) string {
	if depth <= 0 {
		return ""
	}
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if idLikeKey(k, role) {
				if id := normalize.ID(firstListItem(t[k])); id != "" && isScalarID(t[k]) {
					return id
				}
			}
		}
		for _, k := range keys {
			if id := scan(t[k], role, depth-1); id != "" {
				return id
			}
		}
	case []any:
		for _, item := range t {
			if id := scan(item, role, depth-1); id != "" {
				return id
			}
		}
	}
	return ""
}

// idLikeKey accepts "event", "event_id", "eventId", "linked_event" but not
// "event_name" or "session_notes". "event_participant_id" is a person key.
func idLikeKey(key string, role Role) bool {
	nk := normalize.NormKey(key)
	if !matchesRole(nk, role) {
		return false
	}
	if strings.HasSuffix(nk, "id") || strings.HasSuffix(nk, "ids") {
		return true
	}
	for _, tok := range tokens[role] {
		if strings.HasSuffix(nk, tok) {
			return true
		}
	}
	return false
}

// isScalarID reports whether v (or its first element) is an id value rather
// than a free-text blob.
func isScalarID(v any) bool {
	switch t := firstListItem(v).(type) {
	case float64, int, int64:
		return true
	case string:
		return t != "" && !strings.ContainsAny(t, " \t\n")
	case map[string]any:
		return !normalize.IsEmpty(t["id"])
	}
	return false
}

// matchesRole reports whether s names role. When s carries tokens of both
// roles, as in "event_participant_id", the token nearest the end wins.
func matchesRole(s string, role Role) bool {
	got, ok := keyRole(strings.ToLower(s))
	return ok && got == role
}

func keyRole(s string) (Role, bool) {
	best, found := RoleEvent, false
	pos := -1
	for _, r := range []Role{RoleEvent, RolePerson} {
		for _, tok := range tokens[r] {
			if i := strings.LastIndex(s, tok); i > pos {
				best, found, pos = r, true, i
			}
		}
	}
	return best, found
}

func firstListItem(v any) any {
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil
		}
		return list[0]
	}
	return v
}

// Chain asks each finder in order and returns the first answer.
type Chain []IDFinder

// Find implements IDFinder.
func (c Chain) Find(record map[string]any, role Role) string {
	for _, f := range c {
		if id := f.Find(record, role); id != "" {
			return id
		}
	}
	return ""
}

// DefaultChain returns known-field and relationship finders, plus the
// heuristic scan when heuristics is true.
func DefaultChain(heuristics bool) Chain {
	c := Chain{KnownFieldFinder{}, RelationshipFinder{}}
	if heuristics {
		c = append(c, HeuristicFinder{MaxDepth: DefaultScanDepth})
	}
	return c
}
