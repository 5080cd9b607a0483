// Package memory provides the in-memory transactional store that the
// durable SQLite and Postgres stores build upon. It lives under infra to
// keep domain dependencies one-way (domain -> nothing).
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"restorecore/pkg/domain"
)

// Exported aliases to keep method signatures concise while still exposing
// domain types from this infra package.
type (
	// Project is a restoration project (alias of domain.Project).
	Project = domain.Project
	// MonitoringPoint is an alias of domain.MonitoringPoint.
	MonitoringPoint = domain.MonitoringPoint
	// Observation is an alias of domain.Observation.
	Observation = domain.Observation
	// TeamMember is an alias of domain.TeamMember.
	TeamMember = domain.TeamMember
	// Activity is an alias of domain.Activity.
	Activity = domain.Activity
	// Change is an alias of domain.Change.
	Change = domain.Change
	// Snapshot is an alias of domain.Snapshot.
	Snapshot = domain.Snapshot
	// Transaction is an alias of domain.Transaction.
	Transaction = domain.Transaction
	// TransactionView is an alias of domain.TransactionView.
	TransactionView = domain.TransactionView
	// PersistentStore is an alias of domain.PersistentStore.
	PersistentStore = domain.PersistentStore
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

type memoryState struct {
	projects []Project
	points   []MonitoringPoint
	members  []TeamMember
	// activities is ordered most-recent-first and capped at
	// domain.ActivityLogCap entries.
	activities []Activity
}

func (s memoryState) clone() memoryState {
	cloned := memoryState{
		projects:   make([]Project, 0, len(s.projects)),
		points:     make([]MonitoringPoint, 0, len(s.points)),
		members:    make([]TeamMember, 0, len(s.members)),
		activities: make([]Activity, 0, len(s.activities)),
	}
	for _, p := range s.projects {
		cloned.projects = append(cloned.projects, cloneProject(p))
	}
	for _, p := range s.points {
		cloned.points = append(cloned.points, clonePoint(p))
	}
	for _, m := range s.members {
		cloned.members = append(cloned.members, cloneMember(m))
	}
	cloned.activities = append(cloned.activities, s.activities...)
	return cloned
}

func cloneProject(p Project) Project {
	cp := p
	cp.Photos = append([]domain.Photo(nil), p.Photos...)
	cp.Milestones = append([]domain.Milestone(nil), p.Milestones...)
	return cp
}

func clonePoint(p MonitoringPoint) MonitoringPoint {
	cp := p
	cp.Photos = append([]domain.Photo(nil), p.Photos...)
	cp.Observations = make([]Observation, 0, len(p.Observations))
	for _, o := range p.Observations {
		cp.Observations = append(cp.Observations, cloneObservation(o))
	}
	return cp
}

func cloneObservation(o Observation) Observation {
	cp := o
	cp.Photos = append([]domain.Photo(nil), o.Photos...)
	return cp
}

func cloneMember(m TeamMember) TeamMember {
	cp := m
	cp.ProjectIDs = append([]string(nil), m.ProjectIDs...)
	return cp
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu    sync.RWMutex
	state memoryState
	nowFn func() time.Time
	idFn  func() string
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{
		nowFn: func() time.Time { return time.Now().UTC() },
		idFn:  uuid.NewString,
	}
}

// SetNowFunc overrides the clock, for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

// SetIDFunc overrides identifier generation, for tests.
func (s *Store) SetIDFunc(fn func() string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idFn = fn
}

// ExportState returns a deep copy of the committed collections.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromState(s.state)
}

// ImportState replaces the committed collections wholesale.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateFromSnapshot(snapshot)
}

func snapshotFromState(state memoryState) Snapshot {
	cloned := state.clone()
	return Snapshot{
		Projects:         cloned.projects,
		MonitoringPoints: cloned.points,
		Activities:       cloned.activities,
		TeamMembers:      cloned.members,
	}
}

func stateFromSnapshot(snapshot Snapshot) memoryState {
	state := memoryState{
		projects:   snapshot.Projects,
		points:     snapshot.MonitoringPoints,
		members:    snapshot.TeamMembers,
		activities: snapshot.Activities,
	}
	if len(state.activities) > domain.ActivityLogCap {
		state.activities = state.activities[:domain.ActivityLogCap]
	}
	return state.clone()
}

// transaction applies mutations against a cloned state that is committed
// only when the transaction function succeeds.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

// RunInTransaction executes fn within a transactional copy of the store
// state, committing and reporting the recorded changes on success.
func (s *Store) RunInTransaction(_ context.Context, fn func(Transaction) error) ([]Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}
	if err := fn(tx); err != nil {
		return nil, err
	}
	s.state = tx.state
	return tx.changes, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := s.state.clone()
	return fn(transactionView{state: &snapshot})
}

// Snapshot returns a deep copy of committed state for the query and
// aggregation engines.
func (s *Store) Snapshot() Snapshot {
	return s.ExportState()
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot exposes the transactional state read-only.
func (tx *transaction) Snapshot() TransactionView {
	return transactionView{state: &tx.state}
}

func (tx *transaction) newID() string { return tx.store.idFn() }

func validateProject(p Project) error {
	if p.Name == "" {
		return domain.ValidationError{Entity: domain.EntityProject, Field: "name"}
	}
	switch p.Type {
	case domain.ProjectRiparian, domain.ProjectCoastal, domain.ProjectWetland,
		domain.ProjectForest, domain.ProjectGrassland, domain.ProjectUrban,
		domain.ProjectMine, domain.ProjectAgricultural:
	case "":
		return domain.ValidationError{Entity: domain.EntityProject, Field: "type"}
	default:
		return domain.ValidationError{Entity: domain.EntityProject, Field: "type", Reason: "unknown restoration type " + string(p.Type)}
	}
	switch p.Status {
	case domain.StatusActive, domain.StatusPlanned, domain.StatusCompleted, domain.StatusOnHold:
	case "":
		return domain.ValidationError{Entity: domain.EntityProject, Field: "status"}
	default:
		return domain.ValidationError{Entity: domain.EntityProject, Field: "status", Reason: "unknown status " + string(p.Status)}
	}
	if p.Location.Name == "" {
		return domain.ValidationError{Entity: domain.EntityProject, Field: "location"}
	}
	if p.StartDate == "" {
		return domain.ValidationError{Entity: domain.EntityProject, Field: "startDate"}
	}
	return nil
}

func validatePoint(p MonitoringPoint) error {
	if p.ProjectID == "" {
		return domain.ValidationError{Entity: domain.EntityMonitoringPoint, Field: "projectId"}
	}
	if p.Name == "" {
		return domain.ValidationError{Entity: domain.EntityMonitoringPoint, Field: "name"}
	}
	switch p.Type {
	case domain.MonitoringVegetation, domain.MonitoringWaterQuality,
		domain.MonitoringWildlife, domain.MonitoringSoil, domain.MonitoringErosion:
	case "":
		return domain.ValidationError{Entity: domain.EntityMonitoringPoint, Field: "type"}
	default:
		return domain.ValidationError{Entity: domain.EntityMonitoringPoint, Field: "type", Reason: "unknown monitoring type " + string(p.Type)}
	}
	if p.Coords == (domain.Coords{}) {
		return domain.ValidationError{Entity: domain.EntityMonitoringPoint, Field: "coords"}
	}
	return nil
}

func validateMember(m TeamMember) error {
	if m.Name == "" {
		return domain.ValidationError{Entity: domain.EntityTeamMember, Field: "name"}
	}
	if m.Role == "" {
		return domain.ValidationError{Entity: domain.EntityTeamMember, Field: "role"}
	}
	if m.Email == "" {
		return domain.ValidationError{Entity: domain.EntityTeamMember, Field: "email"}
	}
	switch m.Status {
	case domain.MemberActive, domain.MemberInactive:
	case "":
		return domain.ValidationError{Entity: domain.EntityTeamMember, Field: "status"}
	default:
		return domain.ValidationError{Entity: domain.EntityTeamMember, Field: "status", Reason: "unknown status " + string(m.Status)}
	}
	return nil
}

func validateObservation(o Observation) error {
	if o.Date == "" {
		return domain.ValidationError{Entity: domain.EntityMonitoringPoint, Field: "observation.date"}
	}
	if o.Notes == "" {
		return domain.ValidationError{Entity: domain.EntityMonitoringPoint, Field: "observation.notes"}
	}
	return nil
}

func (s *memoryState) projectIndex(id string) int {
	for i := range s.projects {
		if s.projects[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *memoryState) pointIndex(id string) int {
	for i := range s.points {
		if s.points[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *memoryState) memberIndex(id string) int {
	for i := range s.members {
		if s.members[i].ID == id {
			return i
		}
	}
	return -1
}

// CreateProject stores a new project within the transaction.
func (tx *transaction) CreateProject(p Project) (Project, error) {
	if err := validateProject(p); err != nil {
		return Project{}, err
	}
	if p.ID == "" {
		p.ID = tx.newID()
	} else if tx.state.projectIndex(p.ID) >= 0 {
		return Project{}, domain.ValidationError{Entity: domain.EntityProject, Field: "id", Reason: "already exists"}
	}
	if p.Photos == nil {
		p.Photos = []domain.Photo{}
	}
	if p.Milestones == nil {
		p.Milestones = []domain.Milestone{}
	}
	tx.state.projects = append(tx.state.projects, cloneProject(p))
	tx.recordChange(Change{Entity: domain.EntityProject, Action: domain.ActionCreate, After: cloneProject(p)})
	return cloneProject(p), nil
}

// UpdateProject replaces the project matched by id. The stored id wins
// over whatever the record carries.
func (tx *transaction) UpdateProject(id string, record Project) (Project, error) {
	idx := tx.state.projectIndex(id)
	if idx < 0 {
		return Project{}, domain.NotFoundError{Entity: domain.EntityProject, ID: id}
	}
	record.ID = id
	if err := validateProject(record); err != nil {
		return Project{}, err
	}
	before := cloneProject(tx.state.projects[idx])
	tx.state.projects[idx] = cloneProject(record)
	tx.recordChange(Change{Entity: domain.EntityProject, Action: domain.ActionUpdate, Before: before, After: cloneProject(record)})
	return cloneProject(record), nil
}

// DeleteProject removes a project. Cascading to monitoring points and
// team references is the service's job, inside the same transaction.
func (tx *transaction) DeleteProject(id string) error {
	idx := tx.state.projectIndex(id)
	if idx < 0 {
		return domain.NotFoundError{Entity: domain.EntityProject, ID: id}
	}
	before := cloneProject(tx.state.projects[idx])
	tx.state.projects = append(tx.state.projects[:idx], tx.state.projects[idx+1:]...)
	tx.recordChange(Change{Entity: domain.EntityProject, Action: domain.ActionDelete, Before: before})
	return nil
}

// CreateMonitoringPoint stores a new point after checking its project
// reference against live state.
func (tx *transaction) CreateMonitoringPoint(p MonitoringPoint) (MonitoringPoint, error) {
	if err := validatePoint(p); err != nil {
		return MonitoringPoint{}, err
	}
	if tx.state.projectIndex(p.ProjectID) < 0 {
		return MonitoringPoint{}, domain.ReferentialError{
			Entity: domain.EntityMonitoringPoint, ID: p.ID,
			RefEntity: domain.EntityProject, RefID: p.ProjectID,
		}
	}
	if p.ID == "" {
		p.ID = tx.newID()
	} else if tx.state.pointIndex(p.ID) >= 0 {
		return MonitoringPoint{}, domain.ValidationError{Entity: domain.EntityMonitoringPoint, Field: "id", Reason: "already exists"}
	}
	if p.Photos == nil {
		p.Photos = []domain.Photo{}
	}
	if p.Observations == nil {
		p.Observations = []Observation{}
	}
	tx.state.points = append(tx.state.points, clonePoint(p))
	tx.recordChange(Change{Entity: domain.EntityMonitoringPoint, Action: domain.ActionCreate, After: clonePoint(p)})
	return clonePoint(p), nil
}

// UpdateMonitoringPoint replaces the point matched by id, re-validating
// the project reference.
func (tx *transaction) UpdateMonitoringPoint(id string, record MonitoringPoint) (MonitoringPoint, error) {
	idx := tx.state.pointIndex(id)
	if idx < 0 {
		return MonitoringPoint{}, domain.NotFoundError{Entity: domain.EntityMonitoringPoint, ID: id}
	}
	record.ID = id
	if err := validatePoint(record); err != nil {
		return MonitoringPoint{}, err
	}
	if tx.state.projectIndex(record.ProjectID) < 0 {
		return MonitoringPoint{}, domain.ReferentialError{
			Entity: domain.EntityMonitoringPoint, ID: id,
			RefEntity: domain.EntityProject, RefID: record.ProjectID,
		}
	}
	before := clonePoint(tx.state.points[idx])
	tx.state.points[idx] = clonePoint(record)
	tx.recordChange(Change{Entity: domain.EntityMonitoringPoint, Action: domain.ActionUpdate, Before: before, After: clonePoint(record)})
	return clonePoint(record), nil
}

// DeleteMonitoringPoint removes a point and its embedded observations as
// one unit.
func (tx *transaction) DeleteMonitoringPoint(id string) error {
	idx := tx.state.pointIndex(id)
	if idx < 0 {
		return domain.NotFoundError{Entity: domain.EntityMonitoringPoint, ID: id}
	}
	before := clonePoint(tx.state.points[idx])
	tx.state.points = append(tx.state.points[:idx], tx.state.points[idx+1:]...)
	tx.recordChange(Change{Entity: domain.EntityMonitoringPoint, Action: domain.ActionDelete, Before: before})
	return nil
}

// CreateTeamMember stores a new team member.
func (tx *transaction) CreateTeamMember(m TeamMember) (TeamMember, error) {
	if err := validateMember(m); err != nil {
		return TeamMember{}, err
	}
	if m.ID == "" {
		m.ID = tx.newID()
	} else if tx.state.memberIndex(m.ID) >= 0 {
		return TeamMember{}, domain.ValidationError{Entity: domain.EntityTeamMember, Field: "id", Reason: "already exists"}
	}
	if m.ProjectIDs == nil {
		m.ProjectIDs = []string{}
	}
	tx.state.members = append(tx.state.members, cloneMember(m))
	tx.recordChange(Change{Entity: domain.EntityTeamMember, Action: domain.ActionCreate, After: cloneMember(m)})
	return cloneMember(m), nil
}

// UpdateTeamMember replaces the member matched by id.
func (tx *transaction) UpdateTeamMember(id string, record TeamMember) (TeamMember, error) {
	idx := tx.state.memberIndex(id)
	if idx < 0 {
		return TeamMember{}, domain.NotFoundError{Entity: domain.EntityTeamMember, ID: id}
	}
	record.ID = id
	if err := validateMember(record); err != nil {
		return TeamMember{}, err
	}
	before := cloneMember(tx.state.members[idx])
	tx.state.members[idx] = cloneMember(record)
	tx.recordChange(Change{Entity: domain.EntityTeamMember, Action: domain.ActionUpdate, Before: before, After: cloneMember(record)})
	return cloneMember(record), nil
}

// DeleteTeamMember removes a team member.
func (tx *transaction) DeleteTeamMember(id string) error {
	idx := tx.state.memberIndex(id)
	if idx < 0 {
		return domain.NotFoundError{Entity: domain.EntityTeamMember, ID: id}
	}
	before := cloneMember(tx.state.members[idx])
	tx.state.members = append(tx.state.members[:idx], tx.state.members[idx+1:]...)
	tx.recordChange(Change{Entity: domain.EntityTeamMember, Action: domain.ActionDelete, Before: before})
	return nil
}

// RecordObservation appends an observation to its owning point.
// Observations have no lifecycle outside the point's update path.
func (tx *transaction) RecordObservation(pointID string, obs Observation) (Observation, error) {
	idx := tx.state.pointIndex(pointID)
	if idx < 0 {
		return Observation{}, domain.NotFoundError{Entity: domain.EntityMonitoringPoint, ID: pointID}
	}
	if err := validateObservation(obs); err != nil {
		return Observation{}, err
	}
	if obs.ID == "" {
		obs.ID = tx.newID()
	}
	if obs.Photos == nil {
		obs.Photos = []domain.Photo{}
	}
	point := clonePoint(tx.state.points[idx])
	before := clonePoint(tx.state.points[idx])
	point.Observations = append(point.Observations, cloneObservation(obs))
	tx.state.points[idx] = point
	tx.recordChange(Change{Entity: domain.EntityMonitoringPoint, Action: domain.ActionUpdate, Before: before, After: clonePoint(point)})
	return cloneObservation(obs), nil
}

// AppendActivity inserts an entry at the front of the log and trims the
// log to its cap.
func (tx *transaction) AppendActivity(a Activity) (Activity, error) {
	if a.ID == "" {
		a.ID = tx.newID()
	}
	if a.Date.IsZero() {
		a.Date = tx.now
	}
	tx.state.activities = append([]Activity{a}, tx.state.activities...)
	if len(tx.state.activities) > domain.ActivityLogCap {
		tx.state.activities = tx.state.activities[:domain.ActivityLogCap]
	}
	tx.recordChange(Change{Entity: domain.EntityActivity, Action: domain.ActionCreate, After: a})
	return a, nil
}

// ReplaceAll swaps the entire store content, used by the import path.
func (tx *transaction) ReplaceAll(snapshot Snapshot) error {
	tx.state = stateFromSnapshot(snapshot)
	tx.recordChange(Change{Entity: domain.EntityActivity, Action: domain.ActionUpdate, After: "import"})
	return nil
}

// FindProject retrieves a project from transactional state.
func (tx *transaction) FindProject(id string) (Project, bool) {
	if idx := tx.state.projectIndex(id); idx >= 0 {
		return cloneProject(tx.state.projects[idx]), true
	}
	return Project{}, false
}

// FindMonitoringPoint retrieves a point from transactional state.
func (tx *transaction) FindMonitoringPoint(id string) (MonitoringPoint, bool) {
	if idx := tx.state.pointIndex(id); idx >= 0 {
		return clonePoint(tx.state.points[idx]), true
	}
	return MonitoringPoint{}, false
}

// FindTeamMember retrieves a member from transactional state.
func (tx *transaction) FindTeamMember(id string) (TeamMember, bool) {
	if idx := tx.state.memberIndex(id); idx >= 0 {
		return cloneMember(tx.state.members[idx]), true
	}
	return TeamMember{}, false
}

// ListProjects returns all projects within the view snapshot.
func (v transactionView) ListProjects() []Project {
	out := make([]Project, 0, len(v.state.projects))
	for _, p := range v.state.projects {
		out = append(out, cloneProject(p))
	}
	return out
}

// ListMonitoringPoints returns all points within the view snapshot.
func (v transactionView) ListMonitoringPoints() []MonitoringPoint {
	out := make([]MonitoringPoint, 0, len(v.state.points))
	for _, p := range v.state.points {
		out = append(out, clonePoint(p))
	}
	return out
}

// ListTeamMembers returns all members within the view snapshot.
func (v transactionView) ListTeamMembers() []TeamMember {
	out := make([]TeamMember, 0, len(v.state.members))
	for _, m := range v.state.members {
		out = append(out, cloneMember(m))
	}
	return out
}

// ListActivities returns the activity log, most recent first.
func (v transactionView) ListActivities() []Activity {
	return append([]Activity(nil), v.state.activities...)
}

// FindProject retrieves a project by id from the view snapshot.
func (v transactionView) FindProject(id string) (Project, bool) {
	if idx := v.state.projectIndex(id); idx >= 0 {
		return cloneProject(v.state.projects[idx]), true
	}
	return Project{}, false
}

// FindMonitoringPoint retrieves a point by id from the view snapshot.
func (v transactionView) FindMonitoringPoint(id string) (MonitoringPoint, bool) {
	if idx := v.state.pointIndex(id); idx >= 0 {
		return clonePoint(v.state.points[idx]), true
	}
	return MonitoringPoint{}, false
}

// FindTeamMember retrieves a member by id from the view snapshot.
func (v transactionView) FindTeamMember(id string) (TeamMember, bool) {
	if idx := v.state.memberIndex(id); idx >= 0 {
		return cloneMember(v.state.members[idx]), true
	}
	return TeamMember{}, false
}

// Read helpers ---------------------------------------------------------------

// GetProject retrieves a project by id from committed state.
func (s *Store) GetProject(id string) (Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.state.projectIndex(id); idx >= 0 {
		return cloneProject(s.state.projects[idx]), true
	}
	return Project{}, false
}

// ListProjects returns all projects from committed state.
func (s *Store) ListProjects() []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Project, 0, len(s.state.projects))
	for _, p := range s.state.projects {
		out = append(out, cloneProject(p))
	}
	return out
}

// GetMonitoringPoint retrieves a point by id from committed state.
func (s *Store) GetMonitoringPoint(id string) (MonitoringPoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.state.pointIndex(id); idx >= 0 {
		return clonePoint(s.state.points[idx]), true
	}
	return MonitoringPoint{}, false
}

// ListMonitoringPoints returns all points from committed state.
func (s *Store) ListMonitoringPoints() []MonitoringPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]MonitoringPoint, 0, len(s.state.points))
	for _, p := range s.state.points {
		out = append(out, clonePoint(p))
	}
	return out
}

// GetTeamMember retrieves a member by id from committed state.
func (s *Store) GetTeamMember(id string) (TeamMember, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.state.memberIndex(id); idx >= 0 {
		return cloneMember(s.state.members[idx]), true
	}
	return TeamMember{}, false
}

// ListTeamMembers returns all members from committed state.
func (s *Store) ListTeamMembers() []TeamMember {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]TeamMember, 0, len(s.state.members))
	for _, m := range s.state.members {
		out = append(out, cloneMember(m))
	}
	return out
}

// ListActivities returns the activity log from committed state, most
// recent first.
func (s *Store) ListActivities() []Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Activity(nil), s.state.activities...)
}
