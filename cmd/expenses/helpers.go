package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/expenses/internal/cli"
	"github.com/Veraticus/expenses/internal/common"
	"github.com/Veraticus/expenses/internal/importer"
	"github.com/Veraticus/expenses/internal/model"
	"github.com/Veraticus/expenses/internal/report"
	"github.com/Veraticus/expenses/internal/rules"
	"github.com/Veraticus/expenses/internal/sample"
	"github.com/Veraticus/expenses/internal/service"
	"github.com/Veraticus/expenses/internal/storage"
	"github.com/Veraticus/expenses/internal/worker"
)

// openStorage opens the configured database and brings its schema up to date.
func (a *app) openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(a.cfg.DatabasePath, storage.WithLocation(a.cfg.Location))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initStorage opens the database and runs the bootstrap chain: a database
// without categories or rules is seeded (and filled with sample data when
// enabled) before importFn runs. importFn may be nil.
func (a *app) initStorage(ctx context.Context, importFn func(context.Context, service.Storage) error) (*storage.SQLiteStorage, error) {
	store, err := a.openStorage(ctx)
	if err != nil {
		return nil, err
	}

	seeded, err := store.Seeded(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	boot := worker.Bootstrap{
		Init: func(ctx context.Context) error {
			return a.seed(ctx, store)
		},
	}
	if a.cfg.SampleEnabled {
		boot.Sample = func(ctx context.Context) error {
			_, err := a.generateSample(ctx, store, a.cfg.SampleConfig())
			return err
		}
	}
	if importFn != nil {
		boot.Import = func(ctx context.Context) error {
			return importFn(ctx, store)
		}
	}

	if err := boot.Chain(!seeded).Run(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	a.seeded = !seeded
	return store, nil
}

// loadRules returns the rules from rules.dir, or the bundled ones when it is
// not configured.
func (a *app) loadRules() ([]model.SmsRule, error) {
	if a.cfg.RulesDir != "" {
		return rules.LoadDir(a.cfg.RulesDir)
	}
	return rules.Bundled()
}

func (a *app) seed(ctx context.Context, store service.Storage) error {
	smsRules, err := a.loadRules()
	if err != nil {
		return fmt.Errorf("failed to load sms rules: %w", err)
	}
	if len(smsRules) == 0 {
		slog.Warn("no sms rules found", "dir", a.cfg.RulesDir)
	}
	return worker.Seed(ctx, store, model.DefaultCategories(), smsRules)
}

func (a *app) generateSample(ctx context.Context, store service.Storage, cfg sample.Config) (sample.Result, error) {
	cfg.Progress = cli.Progress(a.progress, "Generating sample data")
	return sample.Generate(ctx, store, cfg)
}

// importSMS imports the backup at path. A database without any rule is
// reported as a user error since nothing could ever be imported.
func (a *app) importSMS(ctx context.Context, store service.Storage, path string, opts ...importer.Option) (importer.Result, error) {
	im := importer.New(store, importer.NewNumberParser(a.cfg.Locale), opts...)

	result, err := im.ImportSMS(ctx, importer.BackupFile{Path: path, Location: a.cfg.Location})
	if err != nil {
		return result, err
	}
	if result.Rules == 0 {
		return result, common.NewUserError("add rules with `expenses rules load <csv>` first", common.ErrNoRules)
	}
	return result, nil
}

func (a *app) formatter() *report.Formatter {
	return report.NewFormatter(a.cfg.Locale, a.cfg.Location)
}

// resolveCategory maps a category name to its id. "none" and the empty
// string clear the category.
func resolveCategory(ctx context.Context, store service.Store, name string) (*int64, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "none") {
		return nil, nil
	}

	category, err := store.GetCategoryByName(ctx, name)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NewUserError(fmt.Sprintf("unknown category %q, see `expenses categories list`", name), err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up category: %w", err)
	}
	return model.Int64(category.ID), nil
}

// parseTime accepts RFC 3339 timestamps and local "2006-01-02 15:04" or
// "2006-01-02" forms.
func parseTime(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, use RFC 3339 or YYYY-MM-DD [HH:MM]", value)
}

// expandFiles expands glob patterns, keeping plain paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			// If no glob matches, check if it's a direct file
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}
