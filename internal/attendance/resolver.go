// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

// Package attendance links Beacon attendance records to events and people.
//
// Beacon accounts expose attendance under different endpoint names and with
// different field layouts, and some accounts have none at all. Discover
// tries each known endpoint name; Link resolves event and person ids with a
// chain of IDFinders and annotates event payloads with the participants.
// A missing endpoint is never an error: events keep the attendee counts
// they were synced with.
package attendance

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/beaconkpi/internal/beacon"
	"github.com/tomtom215/beaconkpi/internal/logging"
	"github.com/tomtom215/beaconkpi/internal/normalize"
)

// CandidateEndpoints are tried in order after any configured override.
var CandidateEndpoints = []string{
	"event_attendee",
	"event_attendance",
	"attendee",
	"attendance",
	"event_participant",
	"participant",
}

// Resolver discovers and links attendance data.
type Resolver struct {
	override string
	finder   IDFinder
	log      zerolog.Logger
}

// NewResolver returns a resolver that tries override first (when set) and
// resolves ids with finder.
func NewResolver(override string, finder IDFinder) *Resolver {
	return &Resolver{
		override: strings.TrimSpace(override),
		finder:   finder,
		log:      logging.WithComponent("attendance"),
	}
}

// Endpoints returns the endpoint names Discover will try, in order.
func (r *Resolver) Endpoints() []string {
	out := make([]string, 0, len(CandidateEndpoints)+1)
	if r.override != "" {
		out = append(out, r.override)
	}
	for _, ep := range CandidateEndpoints {
		if ep != r.override {
			out = append(out, ep)
		}
	}
	return out
}

// Discover fetches from the first candidate endpoint that answers without
// error. It returns false when none does or ctx is cancelled.
func (r *Resolver) Discover(ctx context.Context, f beacon.Fetcher) ([]any, string, bool) {
	for _, ep := range r.Endpoints() {
		if ctx.Err() != nil {
			return nil, "", false
		}
		records, err := f.FetchAll(ctx, ep)
		if err != nil {
			r.log.Debug().Err(err).Str("endpoint", ep).Msg("Attendance endpoint unavailable")
			continue
		}
		r.log.Info().Str("endpoint", ep).Int("records", len(records)).Msg("Attendance endpoint discovered")
		return records, ep, true
	}
	r.log.Debug().Msg("No attendance endpoint available, using event attendee fields")
	return nil, "", false
}

// LinkStats summarises a Link call.
type LinkStats struct {
	Records       int `json:"records"`
	Linked        int `json:"linked"`
	Unmatched     int `json:"unmatched"`
	EventsUpdated int `json:"events_updated"`
}

// Link attaches participant_ids and participant_list to each event payload
// that has resolvable attendance records, and back-fills
// number_of_attendees when the event has none. events and people are keyed
// by id; event payloads are modified in place.
func (r *Resolver) Link(events, people map[string]map[string]any, records []any) LinkStats {
	stats := LinkStats{Records: len(records)}

	type participants struct {
		ids   []string
		names []string
		seen  map[string]struct{}
	}
	byEvent := make(map[string]*participants)
	var order []string

	for _, rec := range records {
		entity := normalize.ExtractEntity(rec)
		eventID := r.finder.Find(entity, RoleEvent)
		personID := r.finder.Find(entity, RolePerson)
		if eventID == "" || personID == "" {
			stats.Unmatched++
			continue
		}
		if _, ok := events[eventID]; !ok {
			stats.Unmatched++
			continue
		}

		p, ok := byEvent[eventID]
		if !ok {
			p = &participants{seen: make(map[string]struct{})}
			byEvent[eventID] = p
			order = append(order, eventID)
		}
		stats.Linked++
		if _, dup := p.seen[personID]; dup {
			continue
		}
		p.seen[personID] = struct{}{}
		p.ids = append(p.ids, personID)
		p.names = append(p.names, displayName(people[personID], personID))
	}

	for _, eventID := range order {
		p := byEvent[eventID]
		payload := events[eventID]
		payload["participant_ids"] = p.ids
		payload["participant_list"] = p.names
		if !normalize.Truthy(payload["number_of_attendees"]) {
			payload["number_of_attendees"] = len(p.ids)
		}
		stats.EventsUpdated++
	}

	r.log.Debug().Int("records", stats.Records).Int("linked", stats.Linked).
		Int("unmatched", stats.Unmatched).Int("events", stats.EventsUpdated).Msg("Attendance linked")
	return stats
}

// displayName picks a readable name for a person payload, falling back to
// the id.
func displayName(person map[string]any, id string) string {
	if person == nil {
		return id
	}
	if name, ok := person["name"].(map[string]any); ok {
		if full := normalize.LookupString(name, "full"); full != "" {
			return full
		}
		if joined := joinName(normalize.LookupString(name, "first"), normalize.LookupString(name, "last")); joined != "" {
			return joined
		}
	}
	if s, ok := person["name"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	if s := normalize.LookupString(person, "full_name"); s != "" {
		return s
	}
	if joined := joinName(normalize.LookupString(person, "first_name"), normalize.LookupString(person, "last_name")); joined != "" {
		return joined
	}
	return id
}

func joinName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
