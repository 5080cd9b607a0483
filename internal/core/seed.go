package core

import (
	"context"

	"restorecore/pkg/domain"
)

// Seed installs the starter dataset when every collection is empty, so a
// fresh install opens with a worked example instead of a blank screen. A
// store holding any record at all is left untouched. Returns whether the
// seed was applied.
func (s *Service) Seed(ctx context.Context) (bool, error) {
	snapshot := s.store.Snapshot()
	if len(snapshot.Projects) > 0 || len(snapshot.MonitoringPoints) > 0 ||
		len(snapshot.Activities) > 0 || len(snapshot.TeamMembers) > 0 {
		return false, nil
	}
	err := s.commit(ctx, "seed", func(tx Transaction) error {
		if _, err := tx.CreateProject(seedProject()); err != nil {
			return err
		}
		if _, err := tx.CreateMonitoringPoint(seedMonitoringPoint()); err != nil {
			return err
		}
		_, err := tx.CreateTeamMember(seedTeamMember())
		return err
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func seedProject() Project {
	endDate := "2023-12-31"
	area := 5.2
	budget := 125000.0
	return Project{
		ID:     "1",
		Name:   "Riverside Wetland Restoration",
		Type:   domain.ProjectWetland,
		Status: domain.StatusActive,
		Location: domain.Location{
			Name:   "Smith River, NSW",
			Coords: domain.Coords{-33.8688, 151.2093},
		},
		Description:  "Restoring 5ha of degraded wetland habitat with native vegetation and improving water quality.",
		StartDate:    "2023-01-01",
		EndDate:      &endDate,
		AreaHectares: &area,
		Budget:       &budget,
		Milestones: []domain.Milestone{
			{ID: "1", Name: "Site Assessment", Date: "2023-01-15", Completed: true, Description: "Initial ecological assessment completed"},
			{ID: "2", Name: "Planting Phase 1", Date: "2023-03-20", Completed: true, Description: "Planted 200 native sedges and 50 trees"},
			{ID: "3", Name: "Planting Phase 2", Date: "2023-06-15", Completed: false, Description: "Plant remaining vegetation"},
		},
	}
}

func seedMonitoringPoint() MonitoringPoint {
	return MonitoringPoint{
		ID:        "monitoring-1",
		ProjectID: "1",
		Name:      "Wetland Vegetation Plot A",
		Type:      domain.MonitoringVegetation,
		Coords:    domain.Coords{-33.8690, 151.2095},
	}
}

func seedTeamMember() TeamMember {
	phone := "+61 412 345 678"
	return TeamMember{
		ID:         "member-1",
		Name:       "John Smith",
		Role:       domain.RoleProjectManager,
		Email:      "john.smith@example.com",
		Phone:      &phone,
		Status:     domain.MemberActive,
		ProjectIDs: []string{"1"},
	}
}
