package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS category (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					icon TEXT NOT NULL,
					color INTEGER NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS vendor (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT UNIQUE NOT NULL,
					category_id INTEGER
						REFERENCES category(id) ON DELETE SET NULL ON UPDATE CASCADE
				)`,
				`CREATE INDEX idx_vendor_category_id ON vendor(category_id)`,

				`CREATE TABLE IF NOT EXISTS purchase (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					timestamp INTEGER NOT NULL,
					amount REAL NOT NULL,
					currency TEXT NOT NULL,
					vendor_id INTEGER NOT NULL
						REFERENCES vendor(id) ON DELETE CASCADE ON UPDATE CASCADE,
					category_id INTEGER
						REFERENCES category(id) ON DELETE SET NULL ON UPDATE CASCADE
				)`,
				`CREATE INDEX idx_purchase_vendor_id ON purchase(vendor_id)`,
				`CREATE INDEX idx_purchase_category_id ON purchase(category_id)`,
				`CREATE INDEX idx_purchase_currency_timestamp ON purchase(currency, timestamp)`,

				`CREATE TABLE IF NOT EXISTS sms_rule (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					sender TEXT NOT NULL,
					regex TEXT NOT NULL,
					currency TEXT NOT NULL
				)`,
				`CREATE INDEX idx_sms_rule_sender ON sms_rule(sender)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add purchase source id for statement deduplication",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`ALTER TABLE purchase ADD COLUMN source_id TEXT`,
				`CREATE UNIQUE INDEX idx_purchase_source_id ON purchase(source_id) WHERE source_id IS NOT NULL`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	// Apply migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		// Update version
		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Debug("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	// Verify we're at the expected schema version
	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
