// Package core wires the persistent store, query and aggregation
// engines, and attachment intake into the service surface the CLI uses.
package core

import "restorecore/pkg/domain"

type (
	// Project aliases the domain record for package-local brevity.
	Project = domain.Project
	// MonitoringPoint aliases the domain record for package-local brevity.
	MonitoringPoint = domain.MonitoringPoint
	// Observation aliases the domain record for package-local brevity.
	Observation = domain.Observation
	// TeamMember aliases the domain record for package-local brevity.
	TeamMember = domain.TeamMember
	// Activity aliases the domain record for package-local brevity.
	Activity = domain.Activity
	// Snapshot aliases the domain snapshot for package-local brevity.
	Snapshot = domain.Snapshot
	// Bundle aliases the domain export bundle for package-local brevity.
	Bundle = domain.Bundle

	// Transaction aliases the persistence contract.
	Transaction = domain.Transaction
	// TransactionView aliases the persistence contract.
	TransactionView = domain.TransactionView
	// PersistentStore aliases the persistence contract.
	PersistentStore = domain.PersistentStore
	// BackupStore aliases the persistence contract.
	BackupStore = domain.BackupStore
)
