package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zaplinker/backend/internal/config"
	"github.com/zaplinker/backend/internal/database"
	"github.com/zaplinker/backend/internal/logger"
)

var (
	cfg     *config.Config
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "zaplinker-admin",
	Short: "Zaplinker admin CLI - database maintenance and account management",
	Long: `zaplinker-admin runs maintenance tasks against the Zaplinker database:
migrations, development seed data, plan changes and analytics retention.
Connection settings come from the same environment as the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		level := "info"
		if verbose {
			level = "debug"
		}
		if err := logger.Initialize(level, cfg.LogFile); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if err := database.Initialize(cfg.Database, verbose); err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = database.Close()
		_ = logger.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log SQL statements and debug output")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(setPlanCmd)
	rootCmd.AddCommand(pruneCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
