// Package testutil provides test utilities shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/expenses/internal/model"
	"github.com/Veraticus/expenses/internal/service"
	"github.com/Veraticus/expenses/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage    *storage.SQLiteStorage
	t          *testing.T
	Categories []model.Category
}

// SetupTestDB creates a migrated database in a temporary directory and
// seeds it with cats. Timestamps are materialized in UTC.
//
// Example:
//
//	db := testutil.SetupTestDB(t, model.DefaultCategories()...)
func SetupTestDB(t *testing.T, cats ...model.Category) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Location: time.UTC}, cats...)
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	Location *time.Location
	Name     string
}

// SetupTestDBWithOptions is SetupTestDB with explicit options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions, cats ...model.Category) *TestDB {
	t.Helper()

	name := opts.Name
	if name == "" {
		name = "test.db"
	}
	var storageOpts []storage.Option
	if opts.Location != nil {
		storageOpts = append(storageOpts, storage.WithLocation(opts.Location))
	}

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), name), storageOpts...)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Register cleanup
	t.Cleanup(func() {
		_ = store.Close()
	})

	// Run migrations
	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Seed categories if provided
	seeded := make([]model.Category, 0, len(cats))
	for _, cat := range cats {
		if err := store.InsertCategory(ctx, &cat); err != nil {
			t.Fatalf("failed to seed category %q: %v", cat.Name, err)
		}
		seeded = append(seeded, cat)
	}

	return &TestDB{
		Storage:    store,
		Categories: seeded,
		t:          t,
	}
}

// MustGetCategory returns the seeded category with the given name or fails
// the test.
func (db *TestDB) MustGetCategory(name string) model.Category {
	db.t.Helper()
	for _, c := range db.Categories {
		if c.Name == name {
			return c
		}
	}
	db.t.Fatalf("category %q not seeded", name)
	return model.Category{}
}

// MustCreateVendor inserts a vendor or fails the test.
func (db *TestDB) MustCreateVendor(name string, categoryID *int64) model.Vendor {
	db.t.Helper()
	vendor := model.Vendor{Name: name, CategoryID: categoryID}
	if err := db.Storage.InsertVendor(context.Background(), &vendor); err != nil {
		db.t.Fatalf("failed to create vendor %q: %v", name, err)
	}
	return vendor
}

// MustCreatePurchase inserts a purchase or fails the test.
func (db *TestDB) MustCreatePurchase(purchase model.Purchase) model.Purchase {
	db.t.Helper()
	if _, err := db.Storage.InsertPurchase(context.Background(), &purchase); err != nil {
		db.t.Fatalf("failed to create purchase: %v", err)
	}
	return purchase
}

// MustCreateRules inserts sms rules in order or fails the test.
func (db *TestDB) MustCreateRules(rules ...model.SmsRule) {
	db.t.Helper()
	for i := range rules {
		if err := db.Storage.InsertSmsRule(context.Background(), &rules[i]); err != nil {
			db.t.Fatalf("failed to create rule for %s: %v", rules[i].Sender, err)
		}
	}
}

// WithTransaction executes the given function within a database transaction.
// The transaction is committed when fn succeeds and rolled back otherwise.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	ctx := context.Background()
	tx, err := db.Storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
