package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"moodtracker/internal/config"
	"moodtracker/internal/db"
	"moodtracker/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "moodctl",
	Short: "Operator commands for the mood tracker",
	Long: `moodctl runs maintenance tasks against the configured database.

Configuration is read the same way as the server: defaults, then config.yaml
(or CONFIG_PATH), then environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logging.Init(logging.Config{Level: cfg.LogLevel, Format: "console"})
		appConfig = cfg
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var appConfig *config.Config

func openDB() (*gorm.DB, error) {
	gormDB, err := db.Open(appConfig)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		return nil, err
	}
	return gormDB, nil
}

func main() {
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(deleteUserCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
