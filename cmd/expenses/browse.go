package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/expenses/internal/report"
	"github.com/Veraticus/expenses/internal/tui"
	"github.com/Veraticus/expenses/internal/tui/themes"
	"github.com/Veraticus/expenses/internal/worker"
)

func browseCmd(a *app) *cobra.Command {
	var (
		watch    string
		interval time.Duration
		theme    string
		showHelp bool
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse monthly reports interactively",
		Long: `Open the interactive browser: one page per month, categories sorted by total.
Press Enter on a purchase to move its vendor to another category.

With --watch the SMS backup is re-imported periodically and the reports
refresh as new purchases arrive.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.initStorage(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if interval == 0 {
				interval = a.cfg.ImportInterval
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			g.Go(func() error {
				// Quitting the browser stops the importer.
				defer cancel()
				return tui.Run(ctx, report.NewWatcher(store, a.cfg.Location),
					tui.WithBackend(store),
					tui.WithFormatter(a.formatter()),
					tui.WithTheme(themes.GetTheme(theme)),
					tui.WithHelp(showHelp),
				)
			})

			if watch != "" {
				g.Go(func() error {
					return worker.Watch(ctx, interval, worker.Step{
						Name: worker.StepImport,
						Run: func(ctx context.Context) error {
							_, err := a.importSMS(ctx, store, watch)
							return err
						},
					})
				})
			}

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&watch, "watch", "", "SMS backup to re-import periodically")
	cmd.Flags().DurationVar(&interval, "interval", 0, "re-import interval (default: import.interval)")
	cmd.Flags().StringVar(&theme, "theme", "default", "color theme (default, catppuccin-mocha)")
	cmd.Flags().BoolVar(&showHelp, "help-bar", true, "show the key help bar")

	return cmd
}
