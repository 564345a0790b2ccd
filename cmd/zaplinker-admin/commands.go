package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zaplinker/backend/internal/database"
	"github.com/zaplinker/backend/internal/jobs"
	"github.com/zaplinker/backend/internal/models"
	"github.com/zaplinker/backend/internal/repository"
	"github.com/zaplinker/backend/internal/seed"
)

var (
	seedMode  string
	seedValue uint64
	pruneDays int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(database.DB); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All migrations completed successfully")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with fake users, workspaces and visits",
	Long: `Seed creates fake accounts (Firebase UIDs prefixed with "seed-"), workspaces,
numbers and visit history. --mode=clean removes everything a previous run created.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := database.Migrate(database.DB); err != nil {
			return err
		}

		seeder := seed.NewSeeder(database.DB)
		if seedValue != 0 {
			seeder = seed.NewSeederWithSeed(database.DB, seedValue)
		}

		var (
			summary *seed.Summary
			err     error
		)
		switch seedMode {
		case "dev":
			summary, err = seeder.SeedDev(ctx)
		case "test":
			summary, err = seeder.SeedTest(ctx)
		case "clean":
			if err := seeder.Clean(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Seed data removed")
			return nil
		default:
			return fmt.Errorf("unknown mode %q (want dev, test or clean)", seedMode)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users, %d workspaces, %d numbers, %d visits\n",
			summary.Users, summary.Workspaces, summary.Numbers, summary.Visits)
		return nil
	},
}

var setPlanCmd = &cobra.Command{
	Use:   "set-plan <firebase-uid> <free|pro|premium>",
	Short: "Change the subscription plan of a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan := models.Plan(args[1])
		if !plan.Valid() {
			return fmt.Errorf("unknown plan %q", args[1])
		}

		ctx := cmd.Context()
		users := repository.NewUserRepository(database.DB)
		user, err := users.GetByFirebaseUID(ctx, args[0])
		if err != nil {
			return fmt.Errorf("user %s: %w", args[0], err)
		}
		if user.Plan == plan {
			fmt.Fprintf(cmd.OutOrStdout(), "User %s is already on %s\n", args[0], plan)
			return nil
		}
		if err := users.SetPlan(ctx, user.ID, plan); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "User %s moved from %s to %s\n", args[0], user.Plan, plan)
		return nil
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete access history older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		days := pruneDays
		if days == 0 {
			days = cfg.Retention.Days
		}
		if days <= 0 {
			return fmt.Errorf("--days must be positive")
		}

		job := jobs.NewRetentionJob(repository.NewAnalyticsRepository(database.DB), days)
		events, hits, err := job.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d access events and %d number hits before %s\n",
			events, hits, job.Cutoff().Format("2006-01-02"))
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedMode, "mode", "dev", "Seed mode: dev, test or clean")
	seedCmd.Flags().Uint64Var(&seedValue, "seed", 0, "Random seed for reproducible data (0 picks one)")
	pruneCmd.Flags().IntVar(&pruneDays, "days", 0, "Retention window in days (defaults to RETENTION_DAYS)")
}
