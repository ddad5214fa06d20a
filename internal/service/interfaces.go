// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/expenses/internal/model"
)

// Table names reported in change notifications.
const (
	TableCategory = "category"
	TableVendor   = "vendor"
	TablePurchase = "purchase"
	TableSmsRule  = "sms_rule"
)

// PurchaseFilter defines filtering options for purchase queries.
type PurchaseFilter struct {
	Start    *time.Time
	End      *time.Time
	Currency string
}

// Change is published after a write that touched Tables has been committed.
type Change struct {
	Tables []string
}

// Touches reports whether the change involves table.
func (c Change) Touches(table string) bool {
	for _, t := range c.Tables {
		if t == table {
			return true
		}
	}
	return false
}

// Store defines the data operations shared by storage and its transactions.
type Store interface {
	// Category operations
	InsertCategory(ctx context.Context, category *model.Category) error
	GetCategories(ctx context.Context) ([]model.Category, error)
	CategoriesByID(ctx context.Context) (map[int64]model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	// Vendor operations
	InsertVendor(ctx context.Context, vendor *model.Vendor) error
	GetVendorByName(ctx context.Context, name string) (*model.Vendor, error)
	GetVendors(ctx context.Context) ([]model.Vendor, error)
	VendorIDsByName(ctx context.Context) (map[string]int64, error)
	VendorsByID(ctx context.Context) (map[int64]model.Vendor, error)
	UpdateVendorCategory(ctx context.Context, vendorID int64, categoryID *int64) error
	DeleteVendor(ctx context.Context, id int64) error

	// Purchase operations
	InsertPurchase(ctx context.Context, purchase *model.Purchase) (bool, error)
	GetPurchases(ctx context.Context, filter PurchaseFilter) ([]model.Purchase, error)
	LatestPurchaseTime(ctx context.Context) (*time.Time, error)
	PurchaseTimeRange(ctx context.Context, currency string) (*model.TimeRange, error)
	PurchaseCurrencies(ctx context.Context) ([]string, error)
	CountPurchases(ctx context.Context) (int, error)

	// SMS rule operations
	InsertSmsRule(ctx context.Context, rule *model.SmsRule) error
	GetSmsRules(ctx context.Context) ([]model.SmsRule, error)
	SmsRulesBySender(ctx context.Context) (map[string][]model.SmsRule, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	Store

	// Database management
	Migrate(ctx context.Context) error
	Seeded(ctx context.Context) (bool, error)
	BeginTx(ctx context.Context) (Transaction, error)
	Subscribe(ctx context.Context) <-chan Change
	Close() error
}

// Transaction represents a database transaction. Changes are published when
// it commits.
type Transaction interface {
	Store
	Commit() error
	Rollback() error
}

// Recategorizer assigns vendors to categories.
type Recategorizer interface {
	SetVendorCategory(ctx context.Context, vendorID int64, categoryID *int64) error
}
