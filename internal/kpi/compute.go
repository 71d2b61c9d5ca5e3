// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

// Package kpi turns canonical Beacon records into the regional KPI report.
//
// Classification is keyword based over lowercased type and tag text. CRM
// type tags are free text, so exact enums would miss most records.
package kpi

import (
	"strings"
	"time"

	"github.com/tomtom215/beaconkpi/internal/normalize"
)

// GlobalRegion disables region filtering.
const GlobalRegion = "Global"

var (
	strategicOrgKeywords = []string{"university", "trust", "political", "parliamentary", "media", "nhs", "prescriber", "statutory"}
	corporateOrgKeywords = []string{"business", "corporate"}
	bidStageKeywords     = []string{"submitted", "review", "pending"}
	deliveryKeywords     = []string{"walk", "retreat", "delivery", "session", "hike", "trek"}

	eventTypeKeys = []string{"type", "Type", "Event type", "Activity type", "Category"}
	attendeeKeys  = []string{
		"number_of_attendees", "Number of attendees", "Attendees", "Participants",
		"Total participants", "Participant count", "Number attending",
	}
)

// Input is the five canonical collections, as read back from the warehouse.
type Input struct {
	People        []map[string]any `json:"people"`
	Organisations []map[string]any `json:"organisations"`
	Events        []map[string]any `json:"events"`
	Payments      []map[string]any `json:"payments"`
	Grants        []map[string]any `json:"grants"`
}

// Report is the KPI report for one region.
type Report struct {
	Region       string       `json:"region"`
	LastUpdated  string       `json:"last_updated"`
	Governance   Governance   `json:"governance"`
	Partnerships Partnerships `json:"partnerships"`
	Delivery     Delivery     `json:"delivery"`
	Income       Income       `json:"income"`
	Comms        Comms        `json:"comms"`
	Debug        Debug        `json:"_debug"`
	RawIncome    RawIncome    `json:"_raw_income"`
	Source       string       `json:"_source,omitempty"`
}

type Governance struct {
	SteeringGroupActive bool `json:"steering_group_active"`
	SteeringMembers     int  `json:"steering_members"`
	VolunteersNew       int  `json:"volunteers_new"`
}

// Partnerships counts organisations by type. LSP holds strategic partners,
// LDP delivery partners.
type Partnerships struct {
	LSP             map[string]int `json:"LSP"`
	LDP             map[string]int `json:"LDP"`
	ActiveReferrals int            `json:"active_referrals"`
	NetworksSatOn   int            `json:"networks_sat_on"`
}

type Delivery struct {
	WalksDelivered       int            `json:"walks_delivered"`
	Participants         int            `json:"participants"`
	BursaryParticipants  int            `json:"bursary_participants"`
	WellbeingChangeScore float64        `json:"wellbeing_change_score"`
	Demographics         map[string]int `json:"demographics"`
}

type Income struct {
	BidsSubmitted     int     `json:"bids_submitted"`
	TotalFundsRaised  float64 `json:"total_funds_raised"`
	CorporatePartners int     `json:"corporate_partners"`
	InKindValue       float64 `json:"in_kind_value"`
}

// Comms has no CRM source yet and is always zero.
type Comms struct {
	PressReleases   int     `json:"press_releases"`
	MediaCoverage   int     `json:"media_coverage"`
	NewslettersSent int     `json:"newsletters_sent"`
	OpenRate        float64 `json:"open_rate"`
}

// Debug exposes the intermediate counts behind the headline numbers.
type Debug struct {
	RegionPeople         int `json:"region_people"`
	Volunteers           int `json:"volunteers"`
	SteeringVolunteers   int `json:"steering_volunteers"`
	RegionEvents         int `json:"region_events"`
	WalkEvents           int `json:"walk_events"`
	Participants         int `json:"participants"`
	RegionGrants         int `json:"region_grants"`
	BidsSubmitted        int `json:"bids_submitted"`
	DeliveryEventsTagged int `json:"delivery_events_tagged"`
}

// RawIncome carries the in-region income records for time-series charts.
type RawIncome struct {
	Payments []map[string]any `json:"payments"`
	Grants   []map[string]any `json:"grants"`
}

// Compute builds the report for region from in.
func Compute(region string, in Input) *Report {
	return computeAt(region, in, time.Now())
}

func computeAt(region string, in Input, now time.Time) *Report {
	m := regionMatcher(region)

	// Governance
	regionPeople := filter(in.People, m.matches)
	var volunteers, steering int
	for _, p := range regionPeople {
		types := lowerList(p["type"])
		if !anyContains(types, "volunteer") {
			continue
		}
		volunteers++
		if anyContains(types, "steering", "committee") {
			steering++
		}
	}
	// Without steering tags every volunteer stands in for the steering group.
	steeringProxy := steering
	if steering == 0 {
		steeringProxy = volunteers
	}

	// Partnerships
	regionOrgs := filter(in.Organisations, m.matches)
	regionOrgIDs := make(map[string]bool, len(regionOrgs))
	lsp := map[string]int{}
	ldp := map[string]int{}
	corporate := 0
	for _, org := range regionOrgs {
		if id := normalize.ID(org["id"]); id != "" {
			regionOrgIDs[id] = true
		}
		orgType := typeText(org["type"])
		if orgType == "" {
			continue
		}
		lower := strings.ToLower(orgType)
		if containsAny(lower, strategicOrgKeywords...) {
			lsp[orgType]++
		} else {
			ldp[orgType]++
		}
		if containsAny(lower, corporateOrgKeywords...) {
			corporate++
		}
	}
	if len(lsp) == 0 {
		lsp = map[string]int{"None": 0}
	}
	if len(ldp) == 0 {
		ldp = map[string]int{"None": 0}
	}

	// Income
	var regionGrants []map[string]any
	for _, g := range in.Grants {
		linked := linkedOrganisation(g)
		if (linked != "" && regionOrgIDs[linked]) || m.global {
			regionGrants = append(regionGrants, g)
		}
	}
	bids := 0
	var grantsWon float64
	for _, g := range regionGrants {
		stage := strings.ToLower(strings.TrimSpace(normalize.String(g["stage"])))
		if containsAny(stage, bidStageKeywords...) {
			bids++
		}
		if stage == "won" {
			grantsWon += normalize.CoerceMoney(g["amount"])
		}
	}

	regionPayments := filter(in.Payments, m.matches)
	var paymentTotal float64
	for _, p := range regionPayments {
		paymentTotal += normalize.CoerceMoney(p["amount"])
	}

	// Delivery
	regionEvents := filter(in.Events, m.matches)
	walks, participants, tagged := 0, 0, 0
	for _, e := range regionEvents {
		if containsAny(eventType(e), deliveryKeywords...) {
			walks++
			tagged++
			participants += eventAttendees(e)
		}
	}
	// Untagged events are all counted as delivered. This over-counts when
	// type tags are incomplete; kept because reports depend on it.
	if walks == 0 && len(regionEvents) > 0 {
		walks = len(regionEvents)
		participants = 0
		for _, e := range regionEvents {
			participants += eventAttendees(e)
		}
	}

	demographic := participants
	if demographic <= 0 {
		demographic = 1
	}

	return &Report{
		Region:      region,
		LastUpdated: now.Format("15:04:05"),
		Governance: Governance{
			SteeringGroupActive: steeringProxy > 0,
			SteeringMembers:     steeringProxy,
			VolunteersNew:       volunteers,
		},
		Partnerships: Partnerships{
			LSP:             lsp,
			LDP:             ldp,
			ActiveReferrals: len(regionOrgs),
		},
		Delivery: Delivery{
			WalksDelivered: walks,
			Participants:   participants,
			Demographics:   map[string]int{"General": demographic},
		},
		Income: Income{
			BidsSubmitted:     bids,
			TotalFundsRaised:  grantsWon + paymentTotal,
			CorporatePartners: corporate,
		},
		Debug: Debug{
			RegionPeople:         len(regionPeople),
			Volunteers:           volunteers,
			SteeringVolunteers:   steering,
			RegionEvents:         len(regionEvents),
			WalkEvents:           walks,
			Participants:         participants,
			RegionGrants:         len(regionGrants),
			BidsSubmitted:        bids,
			DeliveryEventsTagged: tagged,
		},
		RawIncome: RawIncome{
			Payments: nonNil(regionPayments),
			Grants:   nonNil(regionGrants),
		},
	}
}

type matcher struct {
	global bool
	needle string
}

func regionMatcher(region string) matcher {
	return matcher{global: region == GlobalRegion, needle: strings.ToLower(region)}
}

// matches reports whether any region tag of record contains the target
// region, case-insensitively. c_region falls back to a scalar region field.
func (m matcher) matches(record map[string]any) bool {
	if m.global {
		return true
	}
	tags := normalize.ToList(record["c_region"])
	if len(tags) == 0 && normalize.Truthy(record["region"]) {
		tags = normalize.ToList(record["region"])
	}
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), m.needle) {
			return true
		}
	}
	return false
}

func filter(records []map[string]any, keep func(map[string]any) bool) []map[string]any {
	var out []map[string]any
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func linkedOrganisation(grant map[string]any) string {
	for _, key := range []string{"organization", "organisation"} {
		switch v := grant[key].(type) {
		case map[string]any:
			if id := normalize.ID(v["id"]); id != "" {
				return id
			}
		case string:
			if id := strings.TrimSpace(v); id != "" {
				return id
			}
		}
	}
	return ""
}

// typeText renders an organisation type. Lists are joined so that
// ["Charity", "Trust"] classifies like "Charity, Trust".
func typeText(v any) string {
	switch t := v.(type) {
	case []any, []string:
		return strings.Join(normalize.ToList(t), ", ")
	default:
		return strings.TrimSpace(normalize.String(v))
	}
}

func eventType(e map[string]any) string {
	v := normalize.Lookup(e, eventTypeKeys...)
	if v == nil {
		return ""
	}
	return strings.ToLower(typeText(v))
}

func eventAttendees(e map[string]any) int {
	return normalize.ToInt(normalize.Lookup(e, attendeeKeys...))
}

func lowerList(v any) []string {
	items := normalize.ToList(v)
	for i, s := range items {
		items[i] = strings.ToLower(s)
	}
	return items
}

func anyContains(items []string, keywords ...string) bool {
	for _, item := range items {
		if containsAny(item, keywords...) {
			return true
		}
	}
	return false
}

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func nonNil(records []map[string]any) []map[string]any {
	if records == nil {
		return []map[string]any{}
	}
	return records
}
