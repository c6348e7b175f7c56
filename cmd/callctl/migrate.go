package main

import (
	"fmt"

	"call-ingest/internal/calls"
	"call-ingest/internal/config"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the calls table and indexes",
		Long:  "Applies the schema to the database named by STORAGE_URL and STORAGE_KEY. Safe to run repeatedly.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := config.StorageFromEnv()
			if err := sc.Validate(); err != nil {
				return fmt.Errorf("storage config: %w", err)
			}
			sc.AutoMigrate = true

			db, err := calls.Open(cmd.Context(), sc)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			defer db.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "Schema applied")
			return nil
		},
	}
}
