// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package csvimport

import (
	"github.com/tomtom215/beaconkpi/internal/normalize"
	"github.com/tomtom215/beaconkpi/internal/transform"
)

// Candidate column names, first match wins. Beacon exports rename columns
// between report templates, so each field lists the spellings seen so far.
var (
	idColumns      = []string{"Record ID", "ID", "Id"}
	createdColumns = []string{"Created date", "Created", "Created at"}
	regionColumns  = []string{"Region", "Location (region)", "Location (Region)", "Location Region", "Region (region)", "Region (Region)"}

	personTypeColumns = []string{"Type", "Person type", "Role", "Roles", "Tags", "Category"}
	orgTypeColumns    = []string{"Type", "Organisation type", "Organization type", "Category"}

	eventDateColumns      = []string{"Start date", "Start", "Date", "Event date"}
	eventTypeColumns      = []string{"Type", "Event type", "Activity type", "Category"}
	eventRegionColumns    = []string{"Location (region)", "Location (Region)", "Location Region", "Region", "Region (region)", "Region (Region)"}
	eventAttendeesColumns = []string{"Number of attendees", "Attendees", "Participants", "Total participants", "Participant count"}

	paymentDateColumns   = []string{"Payment date", "Date", "Received date"}
	paymentAmountColumns = []string{"Amount (value)", "Amount", "Value"}

	grantDateColumns   = []string{"Award date", "Close date", "Decision date"}
	grantAmountColumns = []string{"Amount granted (value)", "Amount requested (value)", "Value (value)", "Amount", "Value"}
	grantStageColumns  = []string{"Stage", "Status", "Grant stage"}
)

// mapFunc fills the canonical fields of payload from the raw CSV row and
// returns the date column value and, for events, the region.
type mapFunc func(row, payload map[string]any) (date, region *string)

var mappers = map[transform.Kind]mapFunc{
	transform.People:        mapPerson,
	transform.Organisations: mapOrganisation,
	transform.Events:        mapEvent,
	transform.Payments:      mapPayment,
	transform.Grants:        mapGrant,
}

// MapRow converts one CSV row into a canonical row. The payload keeps every
// original column. It returns false when the row has no id.
func MapRow(kind transform.Kind, row map[string]any, updatedAt string) (transform.Row, bool) {
	mapper, ok := mappers[kind]
	if !ok {
		return transform.Row{}, false
	}
	id := normalize.ID(normalize.Lookup(row, idColumns...))
	if id == "" {
		return transform.Row{}, false
	}

	payload := make(map[string]any, len(row)+6)
	for k, v := range row {
		payload[k] = v
	}
	payload["id"] = id
	date, region := mapper(row, payload)

	return transform.Row{
		ID:        id,
		Payload:   payload,
		Date:      date,
		Region:    region,
		UpdatedAt: updatedAt,
	}, true
}

// MapRows maps rows into a last-write-wins batch.
func MapRows(kind transform.Kind, rows []map[string]any, updatedAt string) *transform.Batch {
	b := transform.NewBatch()
	for _, r := range rows {
		if row, ok := MapRow(kind, r, updatedAt); ok {
			b.Put(row)
		}
	}
	return b
}

func mapPerson(row, payload map[string]any) (*string, *string) {
	created := normalize.CleanTimestamp(normalize.Lookup(row, createdColumns...))
	payload["created_at"] = strValue(created)
	payload["type"] = normalize.ToList(normalize.Lookup(row, personTypeColumns...))
	payload["c_region"] = normalize.ToList(normalize.Lookup(row, regionColumns...))
	return created, nil
}

func mapOrganisation(row, payload map[string]any) (*string, *string) {
	created := normalize.CleanTimestamp(normalize.Lookup(row, createdColumns...))
	payload["created_at"] = strValue(created)
	payload["type"] = normalize.Lookup(row, orgTypeColumns...)
	payload["c_region"] = normalize.ToList(normalize.Lookup(row, regionColumns...))
	return created, nil
}

func mapEvent(row, payload map[string]any) (*string, *string) {
	start := normalize.CleanTimestamp(normalize.Lookup(row, eventDateColumns...))
	regions := normalize.ToList(normalize.Lookup(row, eventRegionColumns...))
	payload["start_date"] = strValue(start)
	payload["type"] = normalize.Lookup(row, eventTypeColumns...)
	payload["c_region"] = regions
	payload["number_of_attendees"] = normalize.Lookup(row, eventAttendeesColumns...)

	var region *string
	if len(regions) > 0 {
		region = &regions[0]
	}
	return start, region
}

func mapPayment(row, payload map[string]any) (*string, *string) {
	paid := normalize.CleanTimestamp(normalize.Lookup(row, paymentDateColumns...))
	payload["payment_date"] = strValue(paid)
	payload["amount"] = normalize.Lookup(row, paymentAmountColumns...)
	return paid, nil
}

func mapGrant(row, payload map[string]any) (*string, *string) {
	closed := normalize.CleanTimestamp(normalize.Lookup(row, grantDateColumns...))
	payload["close_date"] = strValue(closed)
	payload["amount"] = normalize.Lookup(row, grantAmountColumns...)
	payload["stage"] = normalize.Lookup(row, grantStageColumns...)
	return closed, nil
}

func strValue(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
