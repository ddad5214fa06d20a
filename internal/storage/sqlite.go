package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Veraticus/expenses/internal/model"
	"github.com/Veraticus/expenses/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

var (
	_ service.Storage       = (*SQLiteStorage)(nil)
	_ service.Recategorizer = (*SQLiteStorage)(nil)
	_ service.Transaction   = (*sqliteTransaction)(nil)
)

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	cacheExpiry time.Time
	db          *sql.DB
	loc         *time.Location
	vendorCache map[string]model.Vendor
	notifier    *notifier
	dbPath      string
	cacheMutex  sync.RWMutex
}

// Option configures a SQLiteStorage.
type Option func(*SQLiteStorage)

// WithLocation sets the time zone purchase timestamps are materialized in.
// Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *SQLiteStorage) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string, opts ...Option) (*SQLiteStorage, error) {
	// Validate input
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	// Ensure directory exists
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Open database
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite doesn't benefit from multiple connections
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStorage{
		db:          db,
		dbPath:      dbPath,
		loc:         time.Local,
		vendorCache: make(map[string]model.Vendor),
		notifier:    newNotifier(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection and all subscriptions.
func (s *SQLiteStorage) Close() error {
	s.notifier.close()
	return s.db.Close()
}

// Seeded reports whether the database holds any category or sms rule.
func (s *SQLiteStorage) Seeded(ctx context.Context) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}

	var seeded bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM category) OR EXISTS(SELECT 1 FROM sms_rule)
	`).Scan(&seeded)
	if err != nil {
		return false, fmt.Errorf("failed to check seed data: %w", err)
	}
	return seeded, nil
}

// Location returns the time zone timestamps are materialized in.
func (s *SQLiteStorage) Location() *time.Location {
	return s.loc
}

// Subscribe returns a channel that receives a Change after every committed
// write. The channel is closed when ctx is done or the storage is closed.
func (s *SQLiteStorage) Subscribe(ctx context.Context) <-chan service.Change {
	return s.notifier.subscribe(ctx)
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTransaction{
		tx:      tx,
		storage: s,
		touched: make(map[string]bool),
	}, nil
}

// write runs fn in its own transaction and publishes the touched tables once
// it commits.
func (s *SQLiteStorage) write(ctx context.Context, fn func(tx *sql.Tx) error, tables ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	s.notifier.publish(service.Change{Tables: tables})
	return nil
}

// sqliteTransaction wraps sql.Tx to implement service.Transaction.
type sqliteTransaction struct {
	tx      *sql.Tx
	storage *SQLiteStorage
	touched map[string]bool
	done    bool
}

func (t *sqliteTransaction) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return err
	}
	t.done = true

	if len(t.touched) > 0 {
		change := service.Change{}
		for _, table := range []string{service.TableCategory, service.TableVendor, service.TablePurchase, service.TableSmsRule} {
			if t.touched[table] {
				change.Tables = append(change.Tables, table)
			}
		}
		t.storage.notifier.publish(change)
	}
	if t.touched[service.TableVendor] {
		t.storage.clearVendorCache()
	}
	return nil
}

func (t *sqliteTransaction) Rollback() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	return t.tx.Rollback()
}

func (t *sqliteTransaction) touch(tables ...string) {
	for _, table := range tables {
		t.touched[table] = true
	}
}

type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
