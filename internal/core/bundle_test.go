package core_test

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"restorecore/internal/core"
	"restorecore/pkg/domain"
)

func TestExportImportBundleRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	bundle := svc.ExportBundle()
	if bundle.Version != domain.BundleVersion {
		t.Fatalf("expected version %d, got %d", domain.BundleVersion, bundle.Version)
	}
	if bundle.ExportedAt == nil || !bundle.ExportedAt.Equal(testNow) {
		t.Fatalf("expected export stamped with clock, got %v", bundle.ExportedAt)
	}

	data, err := json.Marshal(bundle)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, err := core.DecodeBundle(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	target, _ := newTestService(t)
	if err := target.ImportBundle(ctx, decoded); err != nil {
		t.Fatalf("import: %v", err)
	}
	// Importing an export must reproduce the exported state verbatim.
	before := svc.Store().Snapshot()
	after := target.Store().Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("imported state diverged from exported state:\n%+v\nvs\n%+v", before, after)
	}
	if len(after.Activities) != len(bundle.Activities) {
		t.Fatalf("expected activity log carried unchanged, got %d entries", len(after.Activities))
	}
}

func TestImportReplacesExistingState(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateProject(ctx, fixtureProject("Old World")); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := svc.ImportBundle(ctx, core.Bundle{
		Version:          domain.BundleVersion,
		Projects:         []domain.Project{},
		MonitoringPoints: []domain.MonitoringPoint{},
		Activities:       []domain.Activity{},
		TeamMembers:      []domain.TeamMember{},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := len(store.ListProjects()); got != 0 {
		t.Fatalf("expected prior projects replaced, got %d", got)
	}
}

func TestDecodeBundleReportsMissingSections(t *testing.T) {
	_, err := core.DecodeBundle([]byte(`{"version":2,"projects":[]}`))
	var fmtErr domain.ImportFormatError
	if !errors.As(err, &fmtErr) {
		t.Fatalf("expected ImportFormatError, got %v", err)
	}
	if len(fmtErr.Missing) != 3 {
		t.Fatalf("expected 3 missing sections, got %v", fmtErr.Missing)
	}

	// Null sections count as missing; empty arrays do not.
	_, err = core.DecodeBundle([]byte(`{"projects":null,"monitoringPoints":[],"activities":[],"teamMembers":[]}`))
	if !errors.As(err, &fmtErr) || len(fmtErr.Missing) != 1 || fmtErr.Missing[0] != "projects" {
		t.Fatalf("expected projects flagged, got %v", err)
	}

	if _, err := core.DecodeBundle([]byte(`{"projects":[],"monitoringPoints":[],"activities":[],"teamMembers":[]}`)); err != nil {
		t.Fatalf("expected empty sections accepted, got %v", err)
	}
}

func TestDecodeBundleRejectsMalformedJSON(t *testing.T) {
	if _, err := core.DecodeBundle([]byte(`{not json`)); err == nil {
		t.Fatal("expected parse error")
	}
}
