// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package kpi

import (
	"reflect"
	"testing"
	"time"
)

var fixedNow = time.Date(2025, 6, 4, 13, 45, 10, 0, time.UTC)

func TestCompute_RegionMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		region string
		record map[string]any
		want   bool
	}{
		{"global matches everything", GlobalRegion, map[string]any{}, true},
		{"substring of tag", "North", map[string]any{"c_region": []any{"North West"}}, true},
		{"case insensitive", "north", map[string]any{"c_region": []any{"NORTH EAST"}}, true},
		{"comma separated scalar", "Wales", map[string]any{"c_region": "Scotland, Wales"}, true},
		{"falls back to region", "Wales", map[string]any{"region": "South Wales"}, true},
		{"empty c_region uses region", "Wales", map[string]any{"c_region": []any{}, "region": "Wales"}, true},
		{"no tags", "Wales", map[string]any{"id": "1"}, false},
		{"other region", "Wales", map[string]any{"c_region": []any{"Scotland"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := regionMatcher(tt.region).matches(tt.record); got != tt.want {
				t.Errorf("matches(%v) = %v, want %v", tt.record, got, tt.want)
			}
		})
	}
}

func TestCompute_Governance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		people       []map[string]any
		wantMembers  int
		wantActive   bool
		wantVols     int
		wantSteering int
	}{
		{
			name: "steering subset",
			people: []map[string]any{
				{"type": []any{"Volunteer", "Steering Group"}, "c_region": []any{"North"}},
				{"type": []any{"Volunteer"}, "c_region": []any{"North"}},
				{"type": "Committee volunteer", "c_region": []any{"North"}},
				{"type": []any{"Donor"}, "c_region": []any{"North"}},
			},
			wantMembers: 2, wantActive: true, wantVols: 3, wantSteering: 2,
		},
		{
			name: "falls back to volunteer count",
			people: []map[string]any{
				{"type": []any{"Volunteer"}, "c_region": []any{"North"}},
				{"type": "volunteer, donor", "c_region": []any{"North"}},
			},
			wantMembers: 2, wantActive: true, wantVols: 2,
		},
		{
			name:   "no volunteers",
			people: []map[string]any{{"type": []any{"Donor"}, "c_region": []any{"North"}}},
		},
		{
			name: "untagged region people are not volunteers",
			people: []map[string]any{
				{"c_region": []any{"North"}},
				{"type": []any{"Participant"}, "c_region": []any{"North"}},
				{"type": "", "c_region": []any{"North"}},
			},
		},
		{
			name: "other region ignored",
			people: []map[string]any{
				{"type": []any{"Volunteer", "Steering"}, "c_region": []any{"South"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := computeAt("North", Input{People: tt.people}, fixedNow)
			g := r.Governance
			if g.SteeringMembers != tt.wantMembers || g.SteeringGroupActive != tt.wantActive || g.VolunteersNew != tt.wantVols {
				t.Errorf("governance = %+v", g)
			}
			if r.Debug.SteeringVolunteers != tt.wantSteering {
				t.Errorf("steering_volunteers = %d, want %d", r.Debug.SteeringVolunteers, tt.wantSteering)
			}
		})
	}
}

func TestCompute_Partnerships(t *testing.T) {
	t.Parallel()

	orgs := []map[string]any{
		{"id": 1.0, "type": "University", "c_region": []any{"North"}},
		{"id": 2.0, "type": []any{"NHS", "Trust"}, "c_region": []any{"North"}},
		{"id": 3.0, "type": "Charity", "c_region": []any{"North"}},
		{"id": 4.0, "type": "Local Business", "c_region": []any{"North"}},
		{"id": 5.0, "type": "  ", "c_region": []any{"North"}},
		{"id": 6.0, "type": "Charity", "c_region": []any{"South"}},
		{"id": 7.0, "type": "Charity", "c_region": []any{"North"}},
	}

	r := computeAt("North", Input{Organisations: orgs}, fixedNow)
	p := r.Partnerships

	wantLSP := map[string]int{"University": 1, "NHS, Trust": 1}
	wantLDP := map[string]int{"Charity": 2, "Local Business": 1}
	if !reflect.DeepEqual(p.LSP, wantLSP) {
		t.Errorf("LSP = %v, want %v", p.LSP, wantLSP)
	}
	if !reflect.DeepEqual(p.LDP, wantLDP) {
		t.Errorf("LDP = %v, want %v", p.LDP, wantLDP)
	}
	if p.ActiveReferrals != 6 {
		t.Errorf("active_referrals = %d, want 6 (untyped orgs still count)", p.ActiveReferrals)
	}
	if r.Income.CorporatePartners != 1 {
		t.Errorf("corporate_partners = %d, want 1", r.Income.CorporatePartners)
	}
}

func TestCompute_EmptyPartnershipsUseNonePlaceholder(t *testing.T) {
	t.Parallel()

	r := computeAt("North", Input{}, fixedNow)
	want := map[string]int{"None": 0}
	if !reflect.DeepEqual(r.Partnerships.LSP, want) || !reflect.DeepEqual(r.Partnerships.LDP, want) {
		t.Errorf("partnerships = %+v", r.Partnerships)
	}
	if r.Delivery.Demographics["General"] != 1 {
		t.Errorf("demographics = %v, want General=1", r.Delivery.Demographics)
	}
	if r.RawIncome.Payments == nil || r.RawIncome.Grants == nil {
		t.Error("raw income lists must be non-nil")
	}
	if r.LastUpdated != "13:45:10" {
		t.Errorf("last_updated = %q", r.LastUpdated)
	}
}

func TestCompute_Income(t *testing.T) {
	t.Parallel()

	in := Input{
		Organisations: []map[string]any{
			{"id": 10.0, "type": "Charity", "c_region": []any{"North"}},
			{"id": "20", "type": "Charity", "c_region": []any{"South"}},
		},
		Grants: []map[string]any{
			{"organization": map[string]any{"id": 10.0}, "stage": " Won ", "amount": 1000.0},
			{"organization": "10", "stage": "Submitted", "amount": 500.0},
			{"organisation": map[string]any{"id": "10"}, "stage": "Under review", "amount": "£250"},
			{"organization": map[string]any{"id": "20"}, "stage": "won", "amount": 9999.0},
			{"stage": "won", "amount": 1.0},
			{"organization": "10", "stage": "Won - partial", "amount": 300.0},
		},
		Payments: []map[string]any{
			{"amount": 50.0, "c_region": []any{"North"}},
			{"amount": "£25.50", "c_region": []any{"North"}},
			{"amount": 70.0, "c_region": []any{"South"}},
			{"amount": -10.0, "c_region": []any{"North"}},
		},
	}

	r := computeAt("North", in, fixedNow)
	if r.Income.BidsSubmitted != 2 {
		t.Errorf("bids_submitted = %d, want 2", r.Income.BidsSubmitted)
	}
	if r.Income.TotalFundsRaised != 1075.5 {
		t.Errorf("total_funds_raised = %v, want 1075.5", r.Income.TotalFundsRaised)
	}
	if r.Debug.RegionGrants != 4 {
		t.Errorf("region_grants = %d, want 4", r.Debug.RegionGrants)
	}
	if len(r.RawIncome.Payments) != 3 || len(r.RawIncome.Grants) != 4 {
		t.Errorf("raw income = %d payments, %d grants", len(r.RawIncome.Payments), len(r.RawIncome.Grants))
	}

	global := computeAt(GlobalRegion, in, fixedNow)
	if global.Debug.RegionGrants != len(in.Grants) {
		t.Errorf("global region_grants = %d, want %d", global.Debug.RegionGrants, len(in.Grants))
	}
	if global.Income.TotalFundsRaised != 1000+9999+1+50+25.5+70 {
		t.Errorf("global total_funds_raised = %v", global.Income.TotalFundsRaised)
	}
}

func TestCompute_Delivery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		events     []map[string]any
		wantWalks  int
		wantPeople int
		wantTagged int
	}{
		{
			name: "tagged events only",
			events: []map[string]any{
				{"type": "Group Walk", "number_of_attendees": 12.0, "c_region": []any{"North"}},
				{"Event type": "Wellbeing Retreat", "Attendees": "8", "c_region": []any{"North"}},
				{"type": "Fundraising dinner", "number_of_attendees": 40.0, "c_region": []any{"North"}},
				{"type": "Walk", "number_of_attendees": 99.0, "c_region": []any{"South"}},
			},
			wantWalks: 2, wantPeople: 20, wantTagged: 2,
		},
		{
			name: "list type",
			events: []map[string]any{
				{"type": []any{"Outdoor", "Hike"}, "Participants": 5.0, "c_region": []any{"North"}},
			},
			wantWalks: 1, wantPeople: 5, wantTagged: 1,
		},
		{
			name: "untagged falls back to all region events",
			events: []map[string]any{
				{"type": "Meeting", "number_of_attendees": 3.0, "c_region": []any{"North"}},
				{"number_of_attendees": 4.0, "c_region": []any{"North"}},
			},
			wantWalks: 2, wantPeople: 7,
		},
		{
			name: "no region events",
			events: []map[string]any{
				{"type": "Walk", "number_of_attendees": 3.0, "c_region": []any{"South"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := computeAt("North", Input{Events: tt.events}, fixedNow)
			if r.Delivery.WalksDelivered != tt.wantWalks || r.Delivery.Participants != tt.wantPeople {
				t.Errorf("delivery = %+v, want walks=%d participants=%d", r.Delivery, tt.wantWalks, tt.wantPeople)
			}
			if r.Debug.DeliveryEventsTagged != tt.wantTagged {
				t.Errorf("delivery_events_tagged = %d, want %d", r.Debug.DeliveryEventsTagged, tt.wantTagged)
			}
			wantGeneral := tt.wantPeople
			if wantGeneral == 0 {
				wantGeneral = 1
			}
			if r.Delivery.Demographics["General"] != wantGeneral {
				t.Errorf("demographics = %v", r.Delivery.Demographics)
			}
		})
	}
}
