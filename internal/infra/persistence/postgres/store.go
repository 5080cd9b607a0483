// Package postgres provides a Postgres-backed persistent store that
// mirrors the in-memory semantics, for deployments that keep field data
// on a shared workstation database instead of an embedded file.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"restorecore/internal/infra/persistence/memory"
	"restorecore/pkg/domain"
)

// Compile-time contract assertions.
var (
	_ domain.PersistentStore = (*Store)(nil)
	_ domain.BackupStore     = (*Store)(nil)
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/restorecore?sslmode=disable"

	backupKeyPrefix = "backup-"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists state to Postgres while reusing the in-memory
// implementation for transactions.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

var buckets = []string{"projects", "monitoring_points", "activities", "team_members"}

// NewStore opens a Postgres-backed store using the provided DSN (falls
// back to defaultDSN), ensures the state and backup tables exist, and
// hydrates the in-memory store from any existing snapshot.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, domain.StorageError{Op: "open postgres", Err: err}
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, domain.StorageError{Op: "ping postgres", Err: err}
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`); err != nil {
		return nil, domain.StorageError{Op: "ensure state table", Err: err}
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS backups (
		key TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`); err != nil {
		return nil, domain.StorageError{Op: "ensure backups table", Err: err}
	}
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	mem := memory.NewStore()
	mem.ImportState(snapshot)
	return &Store{Store: mem, db: db}, nil
}

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return memory.Snapshot{}, domain.StorageError{Op: "select state", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var snapshot memory.Snapshot
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return memory.Snapshot{}, domain.StorageError{Op: "scan state", Err: err}
		}
		// Corrupt buckets hydrate empty, same as the sqlite store.
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
	return snapshot, rows.Err()
}

func (s *Store) persist(ctx context.Context) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
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
		if _, err = tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT (bucket) DO UPDATE SET payload=EXCLUDED.payload`, bucket, data); err != nil {
			retErr = domain.StorageError{Op: "upsert " + bucket, Err: err}
			return retErr
		}
	}
	if err = tx.Commit(); err != nil {
		return domain.StorageError{Op: "commit", Err: err}
	}
	return nil
}

// RunInTransaction applies fn in memory, then snapshots to Postgres. A
// failed write restores the pre-transaction state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) ([]domain.Change, error) {
	prev := s.ExportState()
	changes, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return nil, err
	}
	if pErr := s.persist(ctx); pErr != nil {
		s.ImportState(prev)
		return nil, pErr
	}
	return changes, nil
}

// Backup stores a full versioned bundle under a date-stamped key.
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
	if _, err := s.db.Exec(`INSERT INTO backups(key,payload) VALUES($1,$2) ON CONFLICT (key) DO UPDATE SET payload=EXCLUDED.payload`, key, data); err != nil {
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

// PruneBackups keeps only the keep most-recently dated backups.
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
		if _, err := s.db.Exec(`DELETE FROM backups WHERE key=$1`, key); err != nil {
			return removed, domain.StorageError{Op: "prune backup", Err: err}
		}
		removed++
	}
	return removed, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }
