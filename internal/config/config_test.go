package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"restorecore/internal/config"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.SQLitePath != "restorecore.db" {
		t.Fatalf("unexpected storage defaults %+v", cfg.Storage)
	}
	if cfg.Blob.Driver != "fs" || cfg.Backup.Keep != 5 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restorecore.yaml")
	doc := []byte("storage:\n  driver: memory\nbackup:\n  keep: 3\n")
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RESTORECORE_STORAGE_DRIVER", "postgres")
	t.Setenv("RESTORECORE_POSTGRES_DSN", "postgres://test/db")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// Environment wins over the file.
	if cfg.Storage.Driver != "postgres" || cfg.Storage.PostgresDSN != "postgres://test/db" {
		t.Fatalf("expected env override, got %+v", cfg.Storage)
	}
	if cfg.Backup.Keep != 3 {
		t.Fatalf("expected file value kept, got %d", cfg.Backup.Keep)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("RESTORECORE_STORAGE_DRIVER", "floppy")
	if _, err := config.Load(""); err == nil {
		t.Fatal("expected unknown driver rejected")
	}
}

func TestLoadIgnoresInvalidKeepOverride(t *testing.T) {
	t.Setenv("RESTORECORE_BACKUP_KEEP", "-2")
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backup.Keep != config.DefaultBackupKeep {
		t.Fatalf("expected invalid override ignored, got %d", cfg.Backup.Keep)
	}
}
