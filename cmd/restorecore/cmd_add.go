package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	blobcore "restorecore/internal/blob/core"
	"restorecore/internal/core"
	"restorecore/pkg/domain"
)

var addProjectPhotos []string

// addProjectCmd loads a project record from a JSON file, mostly for
// seeding fixtures and scripted demos; interactive capture is out of
// scope for the CLI.
var addProjectCmd = &cobra.Command{
	Use:   "add-project <project.json>",
	Short: "Create a project from a JSON record, optionally attaching photos",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var project domain.Project
		if err := json.Unmarshal(data, &project); err != nil {
			return fmt.Errorf("parse project: %w", err)
		}
		if len(addProjectPhotos) > 0 {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			blobs, err := core.OpenBlobStore(cmd.Context(), cfg.Blob)
			if err != nil {
				return err
			}
			photos, err := stagePhotos(cmd.Context(), blobs, addProjectPhotos)
			if err != nil {
				return err
			}
			project.Photos = append(project.Photos, photos...)
		}
		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()
		created, err := svc.CreateProject(cmd.Context(), project)
		if err != nil {
			return err
		}
		fmt.Println("Created project:", created.ID)
		return nil
	},
}

// stagePhotos runs photo files through intake validation and offloads the
// payloads to the blob store, returning attachment records.
func stagePhotos(ctx context.Context, blobs blobcore.Store, paths []string) ([]domain.Photo, error) {
	buffer := core.NewPhotoBuffer()
	for _, path := range paths {
		payload, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if _, err := buffer.Add(filepath.Base(path), http.DetectContentType(payload), payload); err != nil {
			return nil, fmt.Errorf("photo %s: %w", path, err)
		}
	}
	return core.OffloadPhotos(ctx, blobs, buffer.Flush())
}

func init() {
	addProjectCmd.Flags().StringArrayVar(&addProjectPhotos, "photo", nil, "photo file to attach (repeatable)")
	rootCmd.AddCommand(addProjectCmd)
}
