// Package domain defines the core persistent entities, value types, and
// error taxonomy used by restorecore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityProject identifies a restoration project record.
	EntityProject EntityType = "project"
	// EntityMonitoringPoint identifies a monitoring point record.
	EntityMonitoringPoint EntityType = "monitoring_point"
	// EntityTeamMember identifies a team member record.
	EntityTeamMember EntityType = "team_member"
	// EntityActivity identifies an activity log entry.
	EntityActivity EntityType = "activity"
)

// ProjectType enumerates the restoration contexts a project can target.
type ProjectType string

// Canonical restoration types.
const (
	ProjectRiparian     ProjectType = "riparian"
	ProjectCoastal      ProjectType = "coastal"
	ProjectWetland      ProjectType = "wetland"
	ProjectForest       ProjectType = "forest"
	ProjectGrassland    ProjectType = "grassland"
	ProjectUrban        ProjectType = "urban"
	ProjectMine         ProjectType = "mine"
	ProjectAgricultural ProjectType = "agricultural"
)

// ProjectStatus enumerates project lifecycle states.
type ProjectStatus string

// Canonical project statuses, in the fixed order used by the status chart.
const (
	StatusActive    ProjectStatus = "active"
	StatusPlanned   ProjectStatus = "planned"
	StatusCompleted ProjectStatus = "completed"
	StatusOnHold    ProjectStatus = "on-hold"
)

// MonitoringType enumerates what a monitoring point tracks.
type MonitoringType string

// Canonical monitoring point types.
const (
	MonitoringVegetation   MonitoringType = "vegetation"
	MonitoringWaterQuality MonitoringType = "water-quality"
	MonitoringWildlife     MonitoringType = "wildlife"
	MonitoringSoil         MonitoringType = "soil"
	MonitoringErosion      MonitoringType = "erosion"
)

// MemberRole enumerates team member roles.
type MemberRole string

// Canonical team roles.
const (
	RoleProjectManager  MemberRole = "project-manager"
	RoleEcologist       MemberRole = "ecologist"
	RoleFieldTechnician MemberRole = "field-technician"
	RoleVolunteer       MemberRole = "volunteer"
	RoleDataAnalyst     MemberRole = "data-analyst"
)

// MemberStatus enumerates team member availability states.
type MemberStatus string

// Canonical member statuses.
const (
	MemberActive   MemberStatus = "active"
	MemberInactive MemberStatus = "inactive"
)

// ActivityType enumerates the events recorded in the activity log.
type ActivityType string

// Canonical activity types.
const (
	ActivityProjectCreation     ActivityType = "project-creation"
	ActivityProjectUpdate       ActivityType = "project-update"
	ActivityProjectDeletion     ActivityType = "project-deletion"
	ActivityMonitoringCreation  ActivityType = "monitoring-creation"
	ActivityMonitoringDeletion  ActivityType = "monitoring-deletion"
	ActivityObservationRecorded ActivityType = "observation-recorded"
	ActivityDataImport          ActivityType = "data-import"
)

// ActivityLogCap bounds the activity log; insertion is most-recent-first
// and the oldest entries are evicted beyond this length.
const ActivityLogCap = 100

// Coords is a latitude/longitude pair in decimal degrees.
type Coords [2]float64

// Location names a place and pins it to a coordinate pair.
type Location struct {
	Name   string `json:"name"`
	Coords Coords `json:"coords"`
}

// Photo is an attachment embedded in a project, monitoring point, or
// observation. Data holds an inline-encoded payload when no blob store is
// configured; URL points at offloaded storage otherwise.
type Photo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Data        string    `json:"data,omitempty"`
	URL         string    `json:"url,omitempty"`
	SizeBytes   int64     `json:"size"`
	ContentType string    `json:"type"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// Milestone is an embedded child of exactly one project. Completion is
// monotonic only by convention; nothing enforces milestone date ordering.
type Milestone struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Date        string `json:"date"`
	Completed   bool   `json:"completed"`
	Description string `json:"description"`
}

// Project is a restoration program with its embedded milestones and photos.
type Project struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Type         ProjectType   `json:"type"`
	Status       ProjectStatus `json:"status"`
	Location     Location      `json:"location"`
	Description  string        `json:"description"`
	StartDate    string        `json:"startDate"`
	EndDate      *string       `json:"endDate"`
	AreaHectares *float64      `json:"area"`
	Budget       *float64      `json:"budget"`
	Photos       []Photo       `json:"photos"`
	Milestones   []Milestone   `json:"milestones"`
}

// Observation is an embedded child of exactly one monitoring point; it has
// no lifecycle outside its point.
type Observation struct {
	ID           string   `json:"id"`
	Date         string   `json:"date"`
	Notes        string   `json:"notes"`
	Weather      string   `json:"weather,omitempty"`
	TemperatureC *float64 `json:"temp"`
	Photos       []Photo  `json:"photos"`
}

// MonitoringPoint belongs to exactly one project and owns its observations.
// ProjectID must reference a live project; an orphaned point is store
// corruption, not a valid state.
type MonitoringPoint struct {
	ID           string         `json:"id"`
	ProjectID    string         `json:"projectId"`
	Name         string         `json:"name"`
	Type         MonitoringType `json:"type"`
	Coords       Coords         `json:"coords"`
	Photos       []Photo        `json:"photos"`
	Observations []Observation  `json:"observations"`
}

// TeamMember references projects many-to-many via id list.
type TeamMember struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Role       MemberRole   `json:"role"`
	Email      string       `json:"email"`
	Phone      *string      `json:"phone"`
	Status     MemberStatus `json:"status"`
	ProjectIDs []string     `json:"projects"`
}

// Activity is an append-only log entry. ProjectID is optional; deletion
// entries carry none because the project no longer exists.
type Activity struct {
	ID          string       `json:"id"`
	ProjectID   *string      `json:"projectId"`
	Type        ActivityType `json:"type"`
	Date        time.Time    `json:"date"`
	Description string       `json:"description"`
}

// Snapshot is an immutable copy of the four root collections, consumed by
// the query and aggregation engines.
type Snapshot struct {
	Projects         []Project         `json:"projects"`
	MonitoringPoints []MonitoringPoint `json:"monitoringPoints"`
	Activities       []Activity        `json:"activities"`
	TeamMembers      []TeamMember      `json:"teamMembers"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured for metrics.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)
