// Package repository maps domain entities onto the partitioned table store.
// Every repository follows the same shape: JSON documents inside the store
// envelope, partitioned by their natural scope, with version counters kept in
// sync between the envelope and the document. All conditional mutations go
// through tablestore.Mutate; nothing in this package hand-rolls a CAS loop.
package repository

// Logical table names. One partitioned table per entity kind.
const (
	TableLeagues     = "leagues"
	TableUsers       = "users"
	TableMemberships = "memberships"
	TableTeams       = "teams"
	TableFields      = "fields"
	TableRules       = "availability_rules"
	TableExceptions  = "availability_exceptions"
	TableSlots       = "slots"
	TableFieldDays   = "field_days"
	TableRequests    = "requests"
	TableExportJobs  = "export_jobs"
)

// Fixed partition keys for tables that are not league-scoped.
const (
	partitionLeagues = "league"
	partitionUsers   = "user"
)
