package core

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"restorecore/internal/metrics"
	"restorecore/pkg/domain"
)

// Service exposes the transactional operations of the record keeper. It
// enforces the cross-entity rules the store alone cannot: cascading
// project deletion, membership reference stripping, and the activity
// entries that accompany each mutation.
type Service struct {
	store   PersistentStore
	log     *zap.Logger
	metrics *metrics.Metrics
	nowFn   func() time.Time
}

// NewService constructs a service over the supplied store. A nil logger
// or metrics handle is replaced with a no-op.
func NewService(store PersistentStore, log *zap.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:   store,
		log:     log,
		metrics: m,
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// Store returns the underlying persistent store.
func (s *Service) Store() PersistentStore { return s.store }

// SetNowFunc overrides the clock, for tests.
func (s *Service) SetNowFunc(fn func() time.Time) { s.nowFn = fn }

func (s *Service) commit(ctx context.Context, op string, fn func(Transaction) error) error {
	changes, err := s.store.RunInTransaction(ctx, fn)
	if err != nil {
		var storageErr domain.StorageError
		if errors.As(err, &storageErr) {
			s.metrics.IncPersistFailure()
			s.log.Error("transaction write-through failed", zap.String("op", op), zap.Error(err))
		}
		return err
	}
	s.metrics.ObserveChanges(changes)
	s.log.Info("transaction committed", zap.String("op", op), zap.Int("changes", len(changes)))
	return nil
}

// CreateProject persists a new project and records a creation activity.
func (s *Service) CreateProject(ctx context.Context, project Project) (Project, error) {
	var created Project
	err := s.commit(ctx, "create_project", func(tx Transaction) error {
		var err error
		created, err = tx.CreateProject(project)
		if err != nil {
			return err
		}
		_, err = tx.AppendActivity(Activity{
			ProjectID:   &created.ID,
			Type:        domain.ActivityProjectCreation,
			Date:        s.nowFn(),
			Description: "Created project: " + created.Name,
		})
		return err
	})
	return created, err
}

// UpdateProject replaces a project record and records an update activity.
func (s *Service) UpdateProject(ctx context.Context, id string, record Project) (Project, error) {
	var updated Project
	err := s.commit(ctx, "update_project", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateProject(id, record)
		if err != nil {
			return err
		}
		_, err = tx.AppendActivity(Activity{
			ProjectID:   &updated.ID,
			Type:        domain.ActivityProjectUpdate,
			Date:        s.nowFn(),
			Description: "Updated project: " + updated.Name,
		})
		return err
	})
	return updated, err
}

// DeleteProject removes a project together with all of its monitoring
// points, strips its id from every team member assignment, and records a
// single deletion activity. The cascade is all-or-nothing.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	return s.commit(ctx, "delete_project", func(tx Transaction) error {
		project, ok := tx.FindProject(id)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityProject, ID: id}
		}
		view := tx.Snapshot()
		for _, point := range view.ListMonitoringPoints() {
			if point.ProjectID != id {
				continue
			}
			if err := tx.DeleteMonitoringPoint(point.ID); err != nil {
				return err
			}
		}
		for _, member := range view.ListTeamMembers() {
			stripped, changed := withoutID(member.ProjectIDs, id)
			if !changed {
				continue
			}
			member.ProjectIDs = stripped
			if _, err := tx.UpdateTeamMember(member.ID, member); err != nil {
				return err
			}
		}
		if err := tx.DeleteProject(id); err != nil {
			return err
		}
		// No ProjectID: the referenced project is gone.
		_, err := tx.AppendActivity(Activity{
			Type:        domain.ActivityProjectDeletion,
			Date:        s.nowFn(),
			Description: "Deleted project: " + project.Name,
		})
		return err
	})
}

// CreateMonitoringPoint persists a new point and records a creation activity.
func (s *Service) CreateMonitoringPoint(ctx context.Context, point MonitoringPoint) (MonitoringPoint, error) {
	var created MonitoringPoint
	err := s.commit(ctx, "create_monitoring_point", func(tx Transaction) error {
		var err error
		created, err = tx.CreateMonitoringPoint(point)
		if err != nil {
			return err
		}
		_, err = tx.AppendActivity(Activity{
			ProjectID:   &created.ProjectID,
			Type:        domain.ActivityMonitoringCreation,
			Date:        s.nowFn(),
			Description: "Added monitoring point: " + created.Name,
		})
		return err
	})
	return created, err
}

// UpdateMonitoringPoint replaces a point record.
func (s *Service) UpdateMonitoringPoint(ctx context.Context, id string, record MonitoringPoint) (MonitoringPoint, error) {
	var updated MonitoringPoint
	err := s.commit(ctx, "update_monitoring_point", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateMonitoringPoint(id, record)
		return err
	})
	return updated, err
}

// DeleteMonitoringPoint removes a point (and its embedded observations)
// and records a deletion activity.
func (s *Service) DeleteMonitoringPoint(ctx context.Context, id string) error {
	return s.commit(ctx, "delete_monitoring_point", func(tx Transaction) error {
		point, ok := tx.FindMonitoringPoint(id)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityMonitoringPoint, ID: id}
		}
		if err := tx.DeleteMonitoringPoint(id); err != nil {
			return err
		}
		_, err := tx.AppendActivity(Activity{
			ProjectID:   &point.ProjectID,
			Type:        domain.ActivityMonitoringDeletion,
			Date:        s.nowFn(),
			Description: "Removed monitoring point: " + point.Name,
		})
		return err
	})
}

// RecordObservation appends an observation to the named point and records
// an observation activity against the point's project.
func (s *Service) RecordObservation(ctx context.Context, pointID string, obs Observation) (Observation, error) {
	var recorded Observation
	err := s.commit(ctx, "record_observation", func(tx Transaction) error {
		point, ok := tx.FindMonitoringPoint(pointID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityMonitoringPoint, ID: pointID}
		}
		var err error
		recorded, err = tx.RecordObservation(pointID, obs)
		if err != nil {
			return err
		}
		_, err = tx.AppendActivity(Activity{
			ProjectID:   &point.ProjectID,
			Type:        domain.ActivityObservationRecorded,
			Date:        s.nowFn(),
			Description: "Recorded observation at " + point.Name,
		})
		return err
	})
	return recorded, err
}

// CreateTeamMember persists a new team member. Membership changes do not
// generate activity entries.
func (s *Service) CreateTeamMember(ctx context.Context, member TeamMember) (TeamMember, error) {
	var created TeamMember
	err := s.commit(ctx, "create_team_member", func(tx Transaction) error {
		var err error
		created, err = tx.CreateTeamMember(member)
		return err
	})
	return created, err
}

// UpdateTeamMember replaces a team member record.
func (s *Service) UpdateTeamMember(ctx context.Context, id string, record TeamMember) (TeamMember, error) {
	var updated TeamMember
	err := s.commit(ctx, "update_team_member", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateTeamMember(id, record)
		return err
	})
	return updated, err
}

// DeleteTeamMember removes a team member.
func (s *Service) DeleteTeamMember(ctx context.Context, id string) error {
	return s.commit(ctx, "delete_team_member", func(tx Transaction) error {
		return tx.DeleteTeamMember(id)
	})
}

// AssignToProject adds a project id to a member's assignment list. Adding
// an assignment the member already has is a no-op.
func (s *Service) AssignToProject(ctx context.Context, memberID, projectID string) (TeamMember, error) {
	var updated TeamMember
	err := s.commit(ctx, "assign_to_project", func(tx Transaction) error {
		member, ok := tx.FindTeamMember(memberID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityTeamMember, ID: memberID}
		}
		if _, ok := tx.FindProject(projectID); !ok {
			return domain.ReferentialError{
				Entity: domain.EntityTeamMember, ID: memberID,
				RefEntity: domain.EntityProject, RefID: projectID,
			}
		}
		for _, existing := range member.ProjectIDs {
			if existing == projectID {
				updated = member
				return nil
			}
		}
		member.ProjectIDs = append(member.ProjectIDs, projectID)
		var err error
		updated, err = tx.UpdateTeamMember(memberID, member)
		return err
	})
	return updated, err
}

func withoutID(ids []string, id string) ([]string, bool) {
	out := ids[:0:0]
	changed := false
	for _, v := range ids {
		if v == id {
			changed = true
			continue
		}
		out = append(out, v)
	}
	return out, changed
}
