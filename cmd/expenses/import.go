package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/expenses/internal/cli"
	"github.com/Veraticus/expenses/internal/importer"
	"github.com/Veraticus/expenses/internal/ofx"
	"github.com/Veraticus/expenses/internal/service"
)

func importCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import purchases",
		Long:  `Import purchases from bank notification text messages or OFX/QFX statements.`,
	}

	cmd.AddCommand(importSMSCmd(a))
	cmd.AddCommand(importOFXCmd(a))

	return cmd
}

func importSMSCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sms <backup.xml>",
		Short: "Import purchases from an SMS backup",
		Long: `Import purchases from an "SMS Backup & Restore" XML export.

Only messages sent after the most recent stored purchase are considered. Each
message is matched against the SMS rules of its sender; the first matching rule
wins.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var result importer.Result
			store, err := a.initStorage(ctx, func(ctx context.Context, store service.Storage) error {
				var err error
				result, err = a.importSMS(ctx, store, args[0],
					importer.WithProgress(cli.Progress(a.progress, "Importing messages")))
				return err
			})
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d purchases from %d new messages", result.Imported, result.Scanned)))
			if result.NewVendors > 0 {
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d new vendors", result.NewVendors)))
			}
			if result.Failed > 0 {
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d messages had unreadable amounts", result.Failed)))
			}
			return nil
		},
	}
}

func importOFXCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "ofx <files...>",
		Short: "Import purchases from OFX/QFX files",
		Long: `Import debit transactions from OFX or QFX (Quicken) files exported from your bank.

Examples:
  # Import single file
  expenses import ofx ~/Downloads/chase_jan_2024.qfx

  # Import all QFX files in a directory
  expenses import ofx ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			files, err := expandFiles(args)
			if err != nil {
				return err
			}

			entries, credits, err := parseOFXFiles(ctx, ofx.NewParser(a.cfg.Location, a.cfg.DefaultCurrency), files)
			if err != nil {
				return err
			}

			if dryRun {
				f := a.formatter()
				for _, e := range entries {
					fmt.Fprintf(out, "%s  %-30s %s\n",
						f.Timestamp(e.Purchase.Timestamp), e.Vendor, f.Amount(e.Purchase.Amount, e.Purchase.Currency))
				}
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Dry run: %d purchases would be imported", len(entries))))
				return nil
			}

			var result ofx.Result
			store, err := a.initStorage(ctx, func(ctx context.Context, store service.Storage) error {
				var err error
				result, err = ofx.Store(ctx, store, entries)
				return err
			})
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d purchases from %d files", result.Imported, len(files))))
			if result.Duplicates > 0 {
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d already imported", result.Duplicates)))
			}
			if credits > 0 {
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d credits skipped", credits)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "Preview import without saving")

	return cmd
}

// parseOFXFiles parses every file, skipping the ones that cannot be read.
func parseOFXFiles(ctx context.Context, parser *ofx.Parser, files []string) ([]ofx.Entry, int, error) {
	var (
		entries []ofx.Entry
		credits int
		parsed  int
	)

	for _, path := range files {
		slog.Info("Processing file", "file", filepath.Base(path))

		f, err := os.Open(path)
		if err != nil {
			slog.Error("Failed to open file", "file", path, "error", err)
			continue
		}

		statement, err := parser.ParseFile(ctx, f)
		_ = f.Close()
		if err != nil {
			if ctx.Err() != nil {
				return nil, 0, ctx.Err()
			}
			slog.Error("Failed to parse OFX file", "file", path, "error", err)
			continue
		}

		parsed++
		if len(statement.Entries) == 0 {
			slog.Warn("No purchases found in file", "file", filepath.Base(path))
		}
		entries = append(entries, statement.Entries...)
		credits += statement.Credits
	}

	if parsed == 0 {
		return nil, 0, fmt.Errorf("none of the %d files could be parsed", len(files))
	}
	return entries, credits, nil
}
