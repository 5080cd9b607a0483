package memory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"restorecore/internal/infra/persistence/memory"
	"restorecore/pkg/domain"
)

type storeIDs struct {
	projectID string
	pointID   string
	memberID  string
}

func newTestStore() *memory.Store {
	store := memory.NewStore()
	store.SetNowFunc(func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) })
	return store
}

func validProject() domain.Project {
	return domain.Project{
		Name:      "Creek Bank Revegetation",
		Type:      domain.ProjectRiparian,
		Status:    domain.StatusActive,
		Location:  domain.Location{Name: "Reedy Creek", Coords: domain.Coords{-36.1, 146.9}},
		StartDate: "2024-02-01",
	}
}

func validPoint(projectID string) domain.MonitoringPoint {
	return domain.MonitoringPoint{
		ProjectID: projectID,
		Name:      "Transect 1",
		Type:      domain.MonitoringVegetation,
		Coords:    domain.Coords{-36.11, 146.91},
	}
}

func validMember() domain.TeamMember {
	return domain.TeamMember{
		Name:   "Ana Reyes",
		Role:   domain.RoleEcologist,
		Email:  "ana@example.com",
		Status: domain.MemberActive,
	}
}

func TestStoreCRUD(t *testing.T) {
	store := newTestStore()
	ids := seedStore(t, store)
	verifyPostCreate(t, store, ids)
	exerciseUpdates(t, store, ids)
	exerciseDeletes(t, store, ids)
}

func seedStore(t *testing.T, store *memory.Store) storeIDs {
	t.Helper()
	ctx := context.Background()
	var ids storeIDs
	changes, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		project, err := tx.CreateProject(validProject())
		mustNoErr(t, err)
		ids.projectID = project.ID

		point, err := tx.CreateMonitoringPoint(validPoint(project.ID))
		mustNoErr(t, err)
		ids.pointID = point.ID

		member, err := tx.CreateTeamMember(validMember())
		mustNoErr(t, err)
		ids.memberID = member.ID

		if _, err := tx.RecordObservation(point.ID, domain.Observation{Date: "2024-05-20", Notes: "Sedges establishing well"}); err != nil {
			return err
		}
		_, err = tx.AppendActivity(domain.Activity{Type: domain.ActivityProjectCreation, Description: "Created project"})
		return err
	})
	mustNoErr(t, err)
	if len(changes) != 5 {
		t.Fatalf("expected 5 recorded changes, got %d", len(changes))
	}
	return ids
}

func verifyPostCreate(t *testing.T, store *memory.Store, ids storeIDs) {
	t.Helper()
	project, ok := store.GetProject(ids.projectID)
	requireFound(t, ok, "expected project lookup to succeed")
	if project.Photos == nil || project.Milestones == nil {
		t.Fatal("expected embedded slices normalized to empty, not nil")
	}
	point, ok := store.GetMonitoringPoint(ids.pointID)
	requireFound(t, ok, "expected point lookup to succeed")
	if len(point.Observations) != 1 {
		t.Fatalf("expected one recorded observation, got %d", len(point.Observations))
	}
	if point.Observations[0].ID == "" {
		t.Fatal("expected observation id assigned")
	}
	activities := store.ListActivities()
	if len(activities) != 1 || activities[0].Date.IsZero() {
		t.Fatalf("expected one dated activity, got %+v", activities)
	}
}

func exerciseUpdates(t *testing.T, store *memory.Store, ids storeIDs) {
	t.Helper()
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		record := validProject()
		record.ID = "spoofed"
		record.Status = domain.StatusCompleted
		updated, err := tx.UpdateProject(ids.projectID, record)
		if err != nil {
			return err
		}
		// Full-record replace; the stored id wins over the record's.
		if updated.ID != ids.projectID {
			return fmt.Errorf("expected stored id %s, got %s", ids.projectID, updated.ID)
		}
		if updated.Status != domain.StatusCompleted {
			return fmt.Errorf("expected status replaced, got %s", updated.Status)
		}
		return nil
	})
	mustNoErr(t, err)

	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateProject("missing", validProject())
		return err
	})
	var notFound domain.NotFoundError
	if !errors.As(err, &notFound) || notFound.Entity != domain.EntityProject {
		t.Fatalf("expected project NotFoundError, got %v", err)
	}
}

func exerciseDeletes(t *testing.T, store *memory.Store, ids storeIDs) {
	t.Helper()
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := tx.DeleteMonitoringPoint(ids.pointID); err != nil {
			return err
		}
		if err := tx.DeleteTeamMember(ids.memberID); err != nil {
			return err
		}
		return tx.DeleteProject(ids.projectID)
	})
	mustNoErr(t, err)
	if got := len(store.ListProjects()); got != 0 {
		t.Fatalf("expected no projects after delete, got %d", got)
	}
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteProject(ids.projectID)
	})
	var notFound domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError deleting twice, got %v", err)
	}
}

func TestStoreValidation(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	cases := []struct {
		name  string
		fn    func(tx domain.Transaction) error
		field string
	}{
		{"project missing name", func(tx domain.Transaction) error {
			p := validProject()
			p.Name = ""
			_, err := tx.CreateProject(p)
			return err
		}, "name"},
		{"project unknown type", func(tx domain.Transaction) error {
			p := validProject()
			p.Type = "volcanic"
			_, err := tx.CreateProject(p)
			return err
		}, "type"},
		{"project unknown status", func(tx domain.Transaction) error {
			p := validProject()
			p.Status = "paused"
			_, err := tx.CreateProject(p)
			return err
		}, "status"},
		{"project missing start date", func(tx domain.Transaction) error {
			p := validProject()
			p.StartDate = ""
			_, err := tx.CreateProject(p)
			return err
		}, "startDate"},
		{"member missing email", func(tx domain.Transaction) error {
			m := validMember()
			m.Email = ""
			_, err := tx.CreateTeamMember(m)
			return err
		}, "email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.RunInTransaction(ctx, tc.fn)
			var vErr domain.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, vErr.Field)
			}
		})
	}
}

func TestStoreRejectsOrphanPoint(t *testing.T) {
	store := newTestStore()
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateMonitoringPoint(validPoint("no-such-project"))
		return err
	})
	var refErr domain.ReferentialError
	if !errors.As(err, &refErr) {
		t.Fatalf("expected ReferentialError, got %v", err)
	}
	if refErr.RefID != "no-such-project" {
		t.Fatalf("unexpected referenced id %q", refErr.RefID)
	}
}

func TestStoreRejectsDuplicateID(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		p := validProject()
		p.ID = "fixed"
		if _, err := tx.CreateProject(p); err != nil {
			return err
		}
		_, err := tx.CreateProject(p)
		return err
	})
	var vErr domain.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "id" {
		t.Fatalf("expected duplicate id ValidationError, got %v", err)
	}
	// Failed transactions leave committed state untouched.
	if got := len(store.ListProjects()); got != 0 {
		t.Fatalf("expected rollback to empty state, got %d projects", got)
	}
}

func TestActivityLogCapAndOrder(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		for i := 0; i < domain.ActivityLogCap+10; i++ {
			if _, err := tx.AppendActivity(domain.Activity{
				Type:        domain.ActivityProjectUpdate,
				Description: fmt.Sprintf("entry %d", i),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	mustNoErr(t, err)
	activities := store.ListActivities()
	if len(activities) != domain.ActivityLogCap {
		t.Fatalf("expected log capped at %d, got %d", domain.ActivityLogCap, len(activities))
	}
	if activities[0].Description != fmt.Sprintf("entry %d", domain.ActivityLogCap+9) {
		t.Fatalf("expected newest entry first, got %q", activities[0].Description)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	store := newTestStore()
	seedStore(t, store)
	exported := store.ExportState()

	restored := memory.NewStore()
	restored.ImportState(exported)
	if len(restored.ListProjects()) != 1 || len(restored.ListMonitoringPoints()) != 1 ||
		len(restored.ListTeamMembers()) != 1 || len(restored.ListActivities()) != 1 {
		t.Fatal("expected all collections restored")
	}

	// Mutating the export must not leak into committed state.
	exported.Projects[0].Name = "mutated"
	project, _ := store.GetProject(exported.Projects[0].ID)
	if project.Name == "mutated" {
		t.Fatal("expected exported snapshot to be a deep copy")
	}
}

func must[T any](t *testing.T, value T, err error) T {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return value
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func requireFound(t *testing.T, ok bool, msg string) {
	t.Helper()
	if !ok {
		t.Fatal(msg)
	}
}
