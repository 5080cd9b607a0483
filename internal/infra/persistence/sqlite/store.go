// Package sqlite persists the in-memory store to an embedded SQLite file.
// Each collection is stored as one JSON blob in a state(bucket,payload)
// table; full-bundle backups live in a separate date-keyed table.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"restorecore/internal/infra/persistence/memory"
	"restorecore/pkg/domain"
)

// Compile-time contract assertions.
var (
	_ domain.PersistentStore = (*Store)(nil)
	_ domain.BackupStore     = (*Store)(nil)
)

const backupKeyPrefix = "backup-"

// Store persists the in-memory state to SQLite as JSON blobs. It
// snapshots the full state after every successful transaction
// (write-through, no coalescing); a failed write rolls the in-memory
// state back so memory never runs ahead of disk.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (or creates) the database at path and hydrates the
// in-memory store from it. A missing or corrupt bucket hydrates as an
// empty collection rather than failing the load.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "restorecore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, domain.StorageError{Op: "create dirs", Err: err}
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, domain.StorageError{Op: "open sqlite", Err: err}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, domain.StorageError{Op: "create state table", Err: err}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS backups (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, domain.StorageError{Op: "create backups table", Err: err}
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

var buckets = []string{"projects", "monitoring_points", "activities", "team_members"}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return domain.StorageError{Op: "select state", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var snapshot memory.Snapshot
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return domain.StorageError{Op: "scan state", Err: err}
		}
		// A corrupt bucket is treated as empty, not fatal.
		switch bucket {
		case "projects":
			_ = json.Unmarshal(payload, &snapshot.Projects)
		case "monitoring_points":
			_ = json.Unmarshal(payload, &snapshot.MonitoringPoints)
		case "activities":
			_ = json.Unmarshal(payload, &snapshot.Activities)
		case "team_members":
			_ = json.Unmarshal(payload, &snapshot.TeamMembers)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.StorageError{Op: "iterate state", Err: err}
	}
	s.ImportState(snapshot)
	return nil
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return domain.StorageError{Op: "begin", Err: err}
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range buckets {
		var data []byte
		switch bucket {
		case "projects":
			data, err = json.Marshal(snapshot.Projects)
		case "monitoring_points":
			data, err = json.Marshal(snapshot.MonitoringPoints)
		case "activities":
			data, err = json.Marshal(snapshot.Activities)
		case "team_members":
			data, err = json.Marshal(snapshot.TeamMembers)
		}
		if err != nil {
			retErr = domain.StorageError{Op: "encode " + bucket, Err: err}
			return retErr
		}
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = domain.StorageError{Op: "upsert " + bucket, Err: err}
			return retErr
		}
	}
	if err = tx.Commit(); err != nil {
		return domain.StorageError{Op: "commit", Err: err}
	}
	return nil
}

// RunInTransaction applies fn in memory, then writes all four buckets
// through. On a write failure the pre-transaction state is restored and
// a StorageError is returned.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) ([]domain.Change, error) {
	prev := s.ExportState()
	changes, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return nil, err
	}
	if pErr := s.persist(); pErr != nil {
		s.ImportState(prev)
		return nil, pErr
	}
	return changes, nil
}

// Backup stores a full versioned bundle under a date-stamped key. A
// second backup on the same day overwrites the first.
func (s *Store) Backup(now time.Time) (string, error) {
	snapshot := s.ExportState()
	stamp := now.UTC()
	bundle := domain.Bundle{
		Version:          domain.BundleVersion,
		BackedUpAt:       &stamp,
		Projects:         snapshot.Projects,
		MonitoringPoints: snapshot.MonitoringPoints,
		Activities:       snapshot.Activities,
		TeamMembers:      snapshot.TeamMembers,
	}
	data, err := json.Marshal(bundle)
	if err != nil {
		return "", domain.StorageError{Op: "encode backup", Err: err}
	}
	key := backupKeyPrefix + stamp.Format("2006-01-02")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`INSERT INTO backups(key,payload) VALUES(?,?) ON CONFLICT(key) DO UPDATE SET payload=excluded.payload`, key, data); err != nil {
		return "", domain.StorageError{Op: "write backup", Err: err}
	}
	return key, nil
}

// ListBackups returns backup keys in ascending (chronological) order.
func (s *Store) ListBackups() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(`SELECT key FROM backups ORDER BY key`)
	if err != nil {
		return nil, domain.StorageError{Op: "select backups", Err: err}
	}
	defer func() { _ = rows.Close() }()
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, domain.StorageError{Op: "scan backup", Err: err}
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// PruneBackups keeps only the keep most-recently dated backups. ISO date
// keys sort lexically in chronological order, which this relies on.
func (s *Store) PruneBackups(keep int) (int, error) {
	if keep < 1 {
		return 0, fmt.Errorf("prune backups: keep must be at least 1, got %d", keep)
	}
	keys, err := s.ListBackups()
	if err != nil {
		return 0, err
	}
	if len(keys) <= keep {
		return 0, nil
	}
	sort.Strings(keys)
	stale := keys[:len(keys)-keep]
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, key := range stale {
		if _, err := s.db.Exec(`DELETE FROM backups WHERE key=?`, key); err != nil {
			return removed, domain.StorageError{Op: "prune backup", Err: err}
		}
		removed++
	}
	return removed, nil
}

// ReadBackup loads a stored bundle by key.
func (s *Store) ReadBackup(key string) (domain.Bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var payload []byte
	if err := s.db.QueryRow(`SELECT payload FROM backups WHERE key=?`, key).Scan(&payload); err != nil {
		return domain.Bundle{}, domain.StorageError{Op: "read backup", Err: err}
	}
	var bundle domain.Bundle
	if err := json.Unmarshal(payload, &bundle); err != nil {
		return domain.Bundle{}, domain.StorageError{Op: "decode backup", Err: err}
	}
	return bundle, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// String implements fmt.Stringer for log context.
func (s *Store) String() string { return fmt.Sprintf("sqlite(%s)", s.path) }
