package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"restorecore/internal/metrics"
	"restorecore/pkg/domain"
)

func TestObserveChanges(t *testing.T) {
	m := metrics.New()
	m.ObserveChanges([]domain.Change{
		{Entity: domain.EntityProject, Action: domain.ActionCreate},
		{Entity: domain.EntityProject, Action: domain.ActionCreate},
		{Entity: domain.EntityActivity, Action: domain.ActionCreate},
	})
	if got := testutil.ToFloat64(m.Mutations.WithLabelValues("project", "create")); got != 2 {
		t.Fatalf("expected 2 project creates, got %v", got)
	}
	if got := testutil.ToFloat64(m.Mutations.WithLabelValues("activity", "create")); got != 1 {
		t.Fatalf("expected 1 activity create, got %v", got)
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *metrics.Metrics
	m.ObserveChanges([]domain.Change{{Entity: domain.EntityProject, Action: domain.ActionCreate}})
	m.IncPersistFailure()
	m.IncBackup()
	m.IncImport()
}

func TestCountersRegistered(t *testing.T) {
	m := metrics.New()
	m.IncBackup()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "restorecore_backups_total" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected backups counter registered")
	}
}
