package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"restorecore/internal/core"
	"restorecore/internal/infra/persistence/memory"
	"restorecore/pkg/domain"
)

var testNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*core.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SetNowFunc(func() time.Time { return testNow })
	svc := core.NewService(store, nil, nil)
	svc.SetNowFunc(func() time.Time { return testNow })
	return svc, store
}

func fixtureProject(name string) domain.Project {
	return domain.Project{
		Name:      name,
		Type:      domain.ProjectGrassland,
		Status:    domain.StatusActive,
		Location:  domain.Location{Name: "Basalt Plains", Coords: domain.Coords{-37.7, 144.4}},
		StartDate: "2024-01-10",
	}
}

func TestCreateProjectRecordsActivity(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, fixtureProject("Plains Recovery"))
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if project.ID == "" {
		t.Fatal("expected generated project id")
	}
	activities := store.ListActivities()
	if len(activities) != 1 {
		t.Fatalf("expected one activity, got %d", len(activities))
	}
	a := activities[0]
	if a.Type != domain.ActivityProjectCreation {
		t.Fatalf("unexpected activity type %s", a.Type)
	}
	if a.ProjectID == nil || *a.ProjectID != project.ID {
		t.Fatalf("expected activity bound to project, got %+v", a.ProjectID)
	}
	if a.Description != "Created project: Plains Recovery" {
		t.Fatalf("unexpected description %q", a.Description)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	keep, err := svc.CreateProject(ctx, fixtureProject("Keep"))
	if err != nil {
		t.Fatalf("create keep: %v", err)
	}
	doomed, err := svc.CreateProject(ctx, fixtureProject("Doomed"))
	if err != nil {
		t.Fatalf("create doomed: %v", err)
	}
	for _, projectID := range []string{keep.ID, doomed.ID} {
		if _, err := svc.CreateMonitoringPoint(ctx, domain.MonitoringPoint{
			ProjectID: projectID,
			Name:      "Plot for " + projectID,
			Type:      domain.MonitoringSoil,
			Coords:    domain.Coords{-37.71, 144.41},
		}); err != nil {
			t.Fatalf("create point: %v", err)
		}
	}
	member, err := svc.CreateTeamMember(ctx, domain.TeamMember{
		Name:       "Priya Nair",
		Role:       domain.RoleFieldTechnician,
		Email:      "priya@example.com",
		Status:     domain.MemberActive,
		ProjectIDs: []string{keep.ID, doomed.ID},
	})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	activitiesBefore := len(store.ListActivities())
	if err := svc.DeleteProject(ctx, doomed.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}

	if _, ok := store.GetProject(doomed.ID); ok {
		t.Fatal("expected project removed")
	}
	for _, point := range store.ListMonitoringPoints() {
		if point.ProjectID == doomed.ID {
			t.Fatal("expected points of deleted project removed")
		}
	}
	if got := len(store.ListMonitoringPoints()); got != 1 {
		t.Fatalf("expected surviving point, got %d", got)
	}
	updated, _ := store.GetTeamMember(member.ID)
	if len(updated.ProjectIDs) != 1 || updated.ProjectIDs[0] != keep.ID {
		t.Fatalf("expected deleted project stripped from assignments, got %v", updated.ProjectIDs)
	}

	activities := store.ListActivities()
	if len(activities) != activitiesBefore+1 {
		t.Fatalf("expected exactly one deletion activity, got %d new", len(activities)-activitiesBefore)
	}
	a := activities[0]
	if a.Type != domain.ActivityProjectDeletion {
		t.Fatalf("unexpected activity type %s", a.Type)
	}
	if a.ProjectID != nil {
		t.Fatal("deletion activity must not reference the removed project")
	}
}

func TestDeleteMissingProjectSurfacesNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.DeleteProject(context.Background(), "missing")
	var notFound domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestRecordObservationBindsActivityToProject(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, fixtureProject("Wetland"))
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	point, err := svc.CreateMonitoringPoint(ctx, domain.MonitoringPoint{
		ProjectID: project.ID,
		Name:      "Pond Edge",
		Type:      domain.MonitoringWaterQuality,
		Coords:    domain.Coords{-37.7, 144.5},
	})
	if err != nil {
		t.Fatalf("create point: %v", err)
	}
	obs, err := svc.RecordObservation(ctx, point.ID, domain.Observation{Date: "2024-06-14", Notes: "Turbidity down"})
	if err != nil {
		t.Fatalf("record observation: %v", err)
	}
	if obs.ID == "" {
		t.Fatal("expected generated observation id")
	}
	a := store.ListActivities()[0]
	if a.Type != domain.ActivityObservationRecorded || *a.ProjectID != project.ID {
		t.Fatalf("unexpected activity %+v", a)
	}
}

func TestAssignToProject(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, fixtureProject("Dunes"))
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	member, err := svc.CreateTeamMember(ctx, domain.TeamMember{
		Name: "Sam Osei", Role: domain.RoleVolunteer, Email: "sam@example.com", Status: domain.MemberActive,
	})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	if _, err := svc.AssignToProject(ctx, member.ID, project.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	// Assigning twice stays idempotent.
	if _, err := svc.AssignToProject(ctx, member.ID, project.ID); err != nil {
		t.Fatalf("reassign: %v", err)
	}
	updated, _ := store.GetTeamMember(member.ID)
	if len(updated.ProjectIDs) != 1 {
		t.Fatalf("expected single assignment, got %v", updated.ProjectIDs)
	}

	_, err = svc.AssignToProject(ctx, member.ID, "missing")
	var refErr domain.ReferentialError
	if !errors.As(err, &refErr) {
		t.Fatalf("expected ReferentialError, got %v", err)
	}
}

func TestSeedOnlyWhenEmpty(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seeded, err := svc.Seed(ctx)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !seeded {
		t.Fatal("expected empty store to be seeded")
	}
	project, ok := store.GetProject("1")
	if !ok || project.Name != "Riverside Wetland Restoration" {
		t.Fatalf("unexpected seed project %+v", project)
	}
	if _, ok := store.GetMonitoringPoint("monitoring-1"); !ok {
		t.Fatal("expected seed monitoring point")
	}
	if _, ok := store.GetTeamMember("member-1"); !ok {
		t.Fatal("expected seed team member")
	}

	seeded, err = svc.Seed(ctx)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if seeded {
		t.Fatal("expected populated store left untouched")
	}
}

func TestSeedSkippedWhenAnyCollectionPopulated(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateTeamMember(ctx, domain.TeamMember{
		Name: "Lone Member", Role: domain.RoleDataAnalyst, Email: "lone@example.com", Status: domain.MemberActive,
	}); err != nil {
		t.Fatalf("create member: %v", err)
	}
	seeded, err := svc.Seed(ctx)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if seeded {
		t.Fatal("expected seed to skip a store with any records")
	}
	if got := len(store.ListProjects()); got != 0 {
		t.Fatalf("expected no seeded projects, got %d", got)
	}
}
