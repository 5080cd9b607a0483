// Package metrics exposes Prometheus counters for store mutations and
// backup activity. The CLI surfaces them through the stats command; a
// long-running deployment can mount the registry on an HTTP handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"restorecore/pkg/domain"
)

// Metrics bundles the process counters with their registry.
type Metrics struct {
	registry *prometheus.Registry

	Mutations       *prometheus.CounterVec
	PersistFailures prometheus.Counter
	Backups         prometheus.Counter
	Imports         prometheus.Counter
}

// New constructs a registry with all counters registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "restorecore_mutations_total",
			Help: "Committed entity mutations by entity type and action.",
		}, []string{"entity", "action"}),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "restorecore_persist_failures_total",
			Help: "Transactions rolled back because the write-through failed.",
		}),
		Backups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "restorecore_backups_total",
			Help: "Backup bundles written.",
		}),
		Imports: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "restorecore_imports_total",
			Help: "Full-state bundle imports applied.",
		}),
	}
	m.registry.MustRegister(m.Mutations, m.PersistFailures, m.Backups, m.Imports)
	return m
}

// Registry returns the backing registry for scraping or gathering.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// IncPersistFailure records a transaction rolled back on write-through failure.
func (m *Metrics) IncPersistFailure() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

// IncBackup records a written backup bundle.
func (m *Metrics) IncBackup() {
	if m == nil {
		return
	}
	m.Backups.Inc()
}

// IncImport records an applied bundle import.
func (m *Metrics) IncImport() {
	if m == nil {
		return
	}
	m.Imports.Inc()
}

// ObserveChanges increments the mutation counter for each committed change.
func (m *Metrics) ObserveChanges(changes []domain.Change) {
	if m == nil {
		return
	}
	for _, ch := range changes {
		m.Mutations.WithLabelValues(string(ch.Entity), string(ch.Action)).Inc()
	}
}
