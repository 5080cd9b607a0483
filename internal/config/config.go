// Package config loads the restorecore runtime configuration from an
// optional YAML file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Defaults applied before file and environment values.
const (
	DefaultStorageDriver = "sqlite"
	DefaultSQLitePath    = "restorecore.db"
	DefaultBlobDriver    = "fs"
	DefaultBlobRoot      = "./photodata"
	DefaultBackupKeep    = 5
)

// Storage selects and parameterizes the persistent store backend.
type Storage struct {
	Driver      string `yaml:"driver"`       // memory|sqlite|postgres
	SQLitePath  string `yaml:"sqlite_path"`  // sqlite file location
	PostgresDSN string `yaml:"postgres_dsn"` // DSN when driver=postgres
}

// Blob selects and parameterizes photo payload storage.
type Blob struct {
	Driver string `yaml:"driver"` // fs|s3|memory
	Root   string `yaml:"root"`   // fs root directory
	Bucket string `yaml:"bucket"` // s3 bucket
}

// Backup controls retention for date-keyed backup bundles.
type Backup struct {
	Keep int `yaml:"keep"`
}

// Config is the root configuration document.
type Config struct {
	Storage Storage `yaml:"storage"`
	Blob    Blob    `yaml:"blob"`
	Backup  Backup  `yaml:"backup"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Storage: Storage{Driver: DefaultStorageDriver, SQLitePath: DefaultSQLitePath},
		Blob:    Blob{Driver: DefaultBlobDriver, Root: DefaultBlobRoot},
		Backup:  Backup{Keep: DefaultBackupKeep},
	}
}

// Load reads path (when non-empty and present) over the defaults, then
// applies environment overrides. A missing file is not an error; a
// malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("RESTORECORE_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("RESTORECORE_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("RESTORECORE_POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("RESTORECORE_BLOB_DRIVER"); v != "" {
		cfg.Blob.Driver = v
	}
	if v := os.Getenv("RESTORECORE_BLOB_FS_ROOT"); v != "" {
		cfg.Blob.Root = v
	}
	if v := os.Getenv("RESTORECORE_BLOB_S3_BUCKET"); v != "" {
		cfg.Blob.Bucket = v
	}
	if v := os.Getenv("RESTORECORE_BACKUP_KEEP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Backup.Keep = n
		}
	}
}

func (c Config) validate() error {
	switch c.Storage.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Blob.Driver {
	case "fs", "s3", "memory":
	default:
		return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
	}
	if c.Backup.Keep < 1 {
		return fmt.Errorf("backup keep must be positive, got %d", c.Backup.Keep)
	}
	return nil
}
