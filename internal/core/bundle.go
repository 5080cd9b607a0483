package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"restorecore/pkg/domain"
)

// ExportBundle captures the full state as a versioned bundle stamped with
// the export time.
func (s *Service) ExportBundle() Bundle {
	snapshot := s.store.Snapshot()
	stamp := s.nowFn()
	return Bundle{
		Version:          domain.BundleVersion,
		ExportedAt:       &stamp,
		Projects:         snapshot.Projects,
		MonitoringPoints: snapshot.MonitoringPoints,
		Activities:       snapshot.Activities,
		TeamMembers:      snapshot.TeamMembers,
	}
}

// bundleProbe distinguishes absent sections from present-but-empty ones.
type bundleProbe struct {
	Projects         *[]Project         `json:"projects"`
	MonitoringPoints *[]MonitoringPoint `json:"monitoringPoints"`
	Activities       *[]Activity        `json:"activities"`
	TeamMembers      *[]TeamMember      `json:"teamMembers"`
}

// DecodeBundle parses a bundle document and verifies all four sections
// are present. A section that is missing or null yields an
// ImportFormatError naming it; empty arrays are valid.
func DecodeBundle(data []byte) (Bundle, error) {
	var probe bundleProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return Bundle{}, fmt.Errorf("parse bundle: %w", err)
	}
	var missing []string
	if probe.Projects == nil {
		missing = append(missing, "projects")
	}
	if probe.MonitoringPoints == nil {
		missing = append(missing, "monitoringPoints")
	}
	if probe.Activities == nil {
		missing = append(missing, "activities")
	}
	if probe.TeamMembers == nil {
		missing = append(missing, "teamMembers")
	}
	if len(missing) > 0 {
		return Bundle{}, domain.ImportFormatError{Missing: missing}
	}
	var bundle Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return Bundle{}, fmt.Errorf("parse bundle: %w", err)
	}
	return bundle, nil
}

// ImportBundle replaces the entire state with the bundle's collections,
// activity log included, so importing an export reproduces the exported
// state exactly. The replacement is destructive; the caller is
// responsible for confirming intent first.
func (s *Service) ImportBundle(ctx context.Context, bundle Bundle) error {
	err := s.commit(ctx, "import_bundle", func(tx Transaction) error {
		return tx.ReplaceAll(Snapshot{
			Projects:         bundle.Projects,
			MonitoringPoints: bundle.MonitoringPoints,
			Activities:       bundle.Activities,
			TeamMembers:      bundle.TeamMembers,
		})
	})
	if err != nil {
		return err
	}
	s.metrics.IncImport()
	return nil
}

// Backup writes a date-keyed backup bundle when the underlying store
// supports it.
func (s *Service) Backup(now time.Time) (string, error) {
	bs, ok := s.store.(BackupStore)
	if !ok {
		return "", fmt.Errorf("storage backend does not support backups")
	}
	key, err := bs.Backup(now)
	if err != nil {
		return "", err
	}
	s.metrics.IncBackup()
	s.log.Info("backup written", zap.String("key", key))
	return key, nil
}

// PruneBackups trims stored backups down to the keep most recent.
func (s *Service) PruneBackups(keep int) (int, error) {
	bs, ok := s.store.(BackupStore)
	if !ok {
		return 0, fmt.Errorf("storage backend does not support backups")
	}
	return bs.PruneBackups(keep)
}

// ListBackups returns backup keys in chronological order.
func (s *Service) ListBackups() ([]string, error) {
	bs, ok := s.store.(BackupStore)
	if !ok {
		return nil, fmt.Errorf("storage backend does not support backups")
	}
	return bs.ListBackups()
}
