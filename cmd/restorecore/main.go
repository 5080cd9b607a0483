package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"restorecore/internal/config"
	"restorecore/internal/core"
	"restorecore/internal/metrics"
)

var (
	// Global flags
	verbose    bool
	configPath string
	noSeed     bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "restorecore",
	Short: "restorecore - local-first record keeper for ecological restoration programs",
	Long: `restorecore keeps restoration project records, monitoring points,
field observations, and team assignments in a local store, with
versioned export/import bundles and date-keyed backups.

All commands operate on the store selected by configuration
(RESTORECORE_STORAGE_DRIVER, default sqlite).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	SilenceUsage: true,
}

// openService loads configuration, opens the persistent store, and seeds
// a completely empty store with the starter dataset. The returned close
// function releases the store handle.
func openService(cmd *cobra.Command) (*core.Service, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	store, err := core.OpenPersistentStore(cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if c, ok := store.(io.Closer); ok {
			_ = c.Close()
		}
	}
	svc := core.NewService(store, logger, metrics.New())
	if !noSeed {
		seeded, err := svc.Seed(cmd.Context())
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		if seeded {
			logger.Info("seeded empty store with starter dataset")
		}
	}
	return svc, closeFn, nil
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "restorecore.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&noSeed, "no-seed", false, "do not seed an empty store with the starter dataset")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
