package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/shareline/config"
	"github.com/sagarc03/shareline/database"
	"github.com/sagarc03/shareline/filesystem"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Reclaim orphaned content",
	Long: `Scan the storage directory and delete content that no file record
references. Orphans appear when an upload stores its bytes but the metadata
insert fails; they are harmless until reclaimed.`,
	RunE: runGC,
}

func init() {
	gcCmd.Flags().Bool("dry-run", false, "report orphans without deleting them")

	rootCmd.AddCommand(gcCmd)
}

func runGC(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")

	repos, closeDB, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer closeDB()

	root, err := os.OpenRoot(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open storage root: %w", err)
	}
	defer func() { _ = root.Close() }()

	storage := filesystem.NewStore(root)

	keys, err := storage.List(ctx)
	if err != nil {
		return fmt.Errorf("list storage: %w", err)
	}

	var scanned, reclaimed, failed int
	for _, key := range keys {
		scanned++

		exists, err := repos.Files.ExistsByStorageKey(ctx, key)
		if err != nil {
			return fmt.Errorf("check storage key %q: %w", key, err)
		}
		if exists {
			continue
		}

		if dryRun {
			slog.Info("orphaned content found", "key", key)
			reclaimed++
			continue
		}

		if err := storage.Delete(ctx, key); err != nil {
			slog.Warn("failed to delete orphaned content", "key", key, "err", err)
			failed++
			continue
		}

		slog.Info("reclaimed orphaned content", "key", key)
		reclaimed++
	}

	slog.Info("gc complete", "scanned", scanned, "orphans", reclaimed, "failed", failed, "dry_run", dryRun)
	return nil
}
