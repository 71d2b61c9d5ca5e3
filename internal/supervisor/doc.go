// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

/*
Package supervisor runs the long-lived services under a suture supervisor
tree so a crashed component restarts without taking the process down.

	beaconkpi (root)
	├── sync-layer
	│   ├── websocket-hub
	│   └── sync-manager
	└── api-layer
	    └── http-server

Restart policy is suture's: a service that fails more than FailureThreshold
times within the decay window waits FailureBackoff before the next restart.
Supervisor events are logged through sutureslog into the zerolog logger.
*/
package supervisor
