package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"restorecore/internal/core"
)

var (
	exportOut  string
	importYes  bool
	pruneKeepN int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the full state as a versioned bundle",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()
		bundle := svc.ExportBundle()
		data, err := json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			return err
		}
		if exportOut == "" || exportOut == "-" {
			fmt.Println(string(data))
			return nil
		}
		if err := os.WriteFile(exportOut, data, 0o644); err != nil {
			return err
		}
		logger.Info("bundle exported", zap.String("path", exportOut), zap.Int("projects", len(bundle.Projects)))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <bundle.json>",
	Short: "Replace all records with a bundle's contents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !importYes {
			return fmt.Errorf("importing replaces all current data; rerun with --yes to confirm")
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		bundle, err := core.DecodeBundle(data)
		if err != nil {
			return err
		}
		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()
		if err := svc.ImportBundle(cmd.Context(), bundle); err != nil {
			return err
		}
		fmt.Printf("Imported %d projects, %d monitoring points, %d team members\n",
			len(bundle.Projects), len(bundle.MonitoringPoints), len(bundle.TeamMembers))
		return nil
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a date-keyed backup bundle into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()
		key, err := svc.Backup(time.Now())
		if err != nil {
			return err
		}
		fmt.Println("Backup written:", key)
		return nil
	},
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List stored backup keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()
		keys, err := svc.ListBackups()
		if err != nil {
			return err
		}
		for _, key := range keys {
			fmt.Println(key)
		}
		return nil
	},
}

var pruneBackupsCmd = &cobra.Command{
	Use:   "prune-backups",
	Short: "Delete all but the most recent backups",
	RunE: func(cmd *cobra.Command, args []string) error {
		keep := pruneKeepN
		if keep == 0 {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			keep = cfg.Backup.Keep
		}
		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()
		removed, err := svc.PruneBackups(keep)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d backups, keeping at most %d\n", removed, keep)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path (default stdout)")
	importCmd.Flags().BoolVar(&importYes, "yes", false, "confirm replacing all current data")
	pruneBackupsCmd.Flags().IntVar(&pruneKeepN, "keep", 0, "backups to retain (default from config)")

	rootCmd.AddCommand(exportCmd, importCmd, backupCmd, backupsCmd, pruneBackupsCmd)
}
