package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/shareline/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "shareline",
	Short:   "Personal file sharing server with capability-token links",
	Long: `Shareline is a personal file sharing server. Authenticated users upload
and manage files; any file can be exposed to anonymous visitors through an
unguessable share link, optionally bounded by an expiry.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// setup writes the config file; it cannot require one.
		if cmd.Name() == "setup" {
			setupLogging("")
			return nil
		}

		var configFiles []string
		if cf, _ := cmd.Flags().GetString("config"); cf != "" {
			configFiles = append(configFiles, cf)
		}

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg.Log.Level)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (default: sqlite, env: SHARELINE_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (default: shareline.db, env: SHARELINE_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-path", "", "content directory path (default: ./uploads, env: SHARELINE_STORAGE_PATH)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
