package domain

import (
	"context"
	"time"
)

// Transaction exposes the domain operations that a persistence
// implementation must support within an atomic scope. Updates are
// full-record replaces keyed by id; the id itself is immutable.
type Transaction interface {
	Snapshot() TransactionView
	CreateProject(Project) (Project, error)
	UpdateProject(id string, record Project) (Project, error)
	DeleteProject(id string) error
	CreateMonitoringPoint(MonitoringPoint) (MonitoringPoint, error)
	UpdateMonitoringPoint(id string, record MonitoringPoint) (MonitoringPoint, error)
	DeleteMonitoringPoint(id string) error
	CreateTeamMember(TeamMember) (TeamMember, error)
	UpdateTeamMember(id string, record TeamMember) (TeamMember, error)
	DeleteTeamMember(id string) error
	RecordObservation(pointID string, obs Observation) (Observation, error)
	AppendActivity(Activity) (Activity, error)
	ReplaceAll(Snapshot) error
	FindProject(id string) (Project, bool)
	FindMonitoringPoint(id string) (MonitoringPoint, bool)
	FindTeamMember(id string) (TeamMember, bool)
}

// TransactionView provides read-only access to transactional state.
type TransactionView interface {
	ListProjects() []Project
	ListMonitoringPoints() []MonitoringPoint
	ListTeamMembers() []TeamMember
	ListActivities() []Activity
	FindProject(id string) (Project, bool)
	FindMonitoringPoint(id string) (MonitoringPoint, bool)
	FindTeamMember(id string) (TeamMember, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It
// mirrors the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) ([]Change, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	Snapshot() Snapshot
	GetProject(id string) (Project, bool)
	ListProjects() []Project
	GetMonitoringPoint(id string) (MonitoringPoint, bool)
	ListMonitoringPoints() []MonitoringPoint
	GetTeamMember(id string) (TeamMember, bool)
	ListTeamMembers() []TeamMember
	ListActivities() []Activity
}

// BackupStore is implemented by durable backends that can snapshot the
// whole store under a date-stamped key. Keys sort lexically in
// chronological order, which PruneBackups relies on.
type BackupStore interface {
	Backup(now time.Time) (string, error)
	PruneBackups(keep int) (int, error)
	ListBackups() ([]string, error)
}

// Bundle is the versioned export/import payload carrying all four
// collections. Exports stamp ExportedAt; backups stamp BackedUpAt.
type Bundle struct {
	Version          int               `json:"version"`
	ExportedAt       *time.Time        `json:"exportedAt,omitempty"`
	BackedUpAt       *time.Time        `json:"backedUpAt,omitempty"`
	Projects         []Project         `json:"projects"`
	MonitoringPoints []MonitoringPoint `json:"monitoringPoints"`
	Activities       []Activity        `json:"activities"`
	TeamMembers      []TeamMember      `json:"teamMembers"`
}

// BundleVersion is the current export format revision.
const BundleVersion = 2
