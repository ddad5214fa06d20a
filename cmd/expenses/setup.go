package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/expenses/internal/cli"
	"github.com/Veraticus/expenses/internal/storage"
)

func initCmd(a *app) *cobra.Command {
	var withSample bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create and seed the database",
		Long: `Create the database with the default categories and the SMS rules from
rules.dir (or the bundled ones). Existing databases are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if withSample {
				a.cfg.SampleEnabled = true
			}

			store, err := a.initStorage(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if !a.seeded {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Database already initialized: "+a.cfg.DatabasePath))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Initialized "+a.cfg.DatabasePath))
			return nil
		},
	}

	cmd.Flags().BoolVar(&withSample, "sample", false, "fill the new database with sample purchases")

	return cmd
}

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

This command ensures your local database has all the required
tables and indexes for the application to function properly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			slog.Info("Starting database migration", "database", a.cfg.DatabasePath)

			store, err := a.initStorage(cmd.Context(), nil)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			defer func() { _ = store.Close() }()

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("Database schema is at version %d", storage.ExpectedSchemaVersion)))
			return nil
		},
	}
}
