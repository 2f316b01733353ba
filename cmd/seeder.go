package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/assignment-tracker/internal/storage"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Insert the demonstration locations, employees and assignments into an empty store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}

		db, err := storage.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer storage.Close(db)

		if err := storage.EnsureSchema(ctx, db); err != nil {
			return err
		}

		if clearData {
			if err := storage.Clear(ctx, db); err != nil {
				return fmt.Errorf("failed to clear data: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cleared existing data")
		}

		seeded, err := storage.SeedIfEmpty(ctx, db)
		if err != nil {
			return fmt.Errorf("failed to seed: %w", err)
		}
		if seeded {
			fmt.Fprintln(cmd.OutOrStdout(), "Seeded demonstration data")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Store already holds data; nothing seeded (use --clear to start over)")
		}
		return nil
	},
}
