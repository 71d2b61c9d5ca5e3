// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package warehouse

import "github.com/tomtom215/beaconkpi/internal/transform"

// Table describes one warehouse table.
type Table struct {
	Kind       transform.Kind
	Name       string
	DateColumn string

	// HasRegion is set for tables that carry a scalar region column.
	HasRegion bool
}

var (
	PeopleTable        = Table{Kind: transform.People, Name: "beacon_people", DateColumn: "created_at"}
	OrganisationsTable = Table{Kind: transform.Organisations, Name: "beacon_organisations", DateColumn: "created_at"}
	EventsTable        = Table{Kind: transform.Events, Name: "beacon_events", DateColumn: "start_date", HasRegion: true}
	PaymentsTable      = Table{Kind: transform.Payments, Name: "beacon_payments", DateColumn: "payment_date"}
	GrantsTable        = Table{Kind: transform.Grants, Name: "beacon_grants", DateColumn: "close_date"}
)

// Tables lists every warehouse table in upsert order.
var Tables = []Table{PeopleTable, OrganisationsTable, EventsTable, PaymentsTable, GrantsTable}

// TableFor returns the table storing kind.
func TableFor(kind transform.Kind) (Table, bool) {
	for _, t := range Tables {
		if t.Kind == kind {
			return t, true
		}
	}
	return Table{}, false
}

func (t Table) columns() []string {
	cols := []string{"id", "payload", t.DateColumn}
	if t.HasRegion {
		cols = append(cols, "region")
	}
	return append(cols, "updated_at")
}
