// Package sample fills a database with deterministic demo data.
package sample

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/expenses/internal/model"
	"github.com/Veraticus/expenses/internal/service"
)

// Defaults for generated data.
const (
	DefaultSeed      int64 = 1701012852
	DefaultVendors         = 50
	DefaultPurchases       = 5000
	DefaultCurrency        = "USD"

	maxAmount = 10000
	window    = 180 * 24 * time.Hour
)

var words = strings.Fields(`lorem ipsum dolor sit amet consectetur adipiscing elit
sed do eiusmod tempor incididunt ut labore et dolore magna aliqua enim ad minim
veniam quis nostrud exercitation ullamco laboris nisi aliquip ex ea commodo
consequat duis aute irure in reprehenderit voluptate velit esse cillum fugiat
nulla pariatur excepteur sint occaecat cupidatat non proident sunt culpa qui
officia deserunt mollit anim id est laborum`)

// Config controls the generator.
type Config struct {
	Base      time.Time
	Progress  func(done, total int)
	Currency  string
	Seed      int64
	Vendors   int
	Purchases int
}

// DefaultConfig returns the standard demo data set with timestamps in loc.
func DefaultConfig(loc *time.Location) Config {
	if loc == nil {
		loc = time.Local
	}
	return Config{
		Base:      time.Date(2023, 11, 11, 1, 2, 3, 456, loc),
		Currency:  DefaultCurrency,
		Seed:      DefaultSeed,
		Vendors:   DefaultVendors,
		Purchases: DefaultPurchases,
	}
}

// Result reports what was generated.
type Result struct {
	Vendors   int
	Purchases int
}

// Generate creates cfg.Vendors vendors with random stored categories and
// cfg.Purchases purchases spread over the 180 days before cfg.Base, all in
// one transaction. The same config always yields the same data.
func Generate(ctx context.Context, store service.Storage, cfg Config) (Result, error) {
	var result Result
	if cfg.Vendors <= 0 || cfg.Purchases < 0 {
		return result, fmt.Errorf("invalid sample size: %d vendors, %d purchases", cfg.Vendors, cfg.Purchases)
	}
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}

	tx, err := store.BeginTx(ctx)
	if err != nil {
		return result, err
	}
	defer func() { _ = tx.Rollback() }()

	categories, err := tx.GetCategories(ctx)
	if err != nil {
		return result, err
	}
	existing, err := tx.VendorIDsByName(ctx)
	if err != nil {
		return result, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // demo data
	total := cfg.Vendors + cfg.Purchases

	vendorIDs := make([]int64, 0, cfg.Vendors)
	for i := 0; i < cfg.Vendors; i++ {
		vendor := &model.Vendor{Name: uniqueName(vendorName(rng), existing)}
		if len(categories) > 0 {
			vendor.CategoryID = model.Int64(categories[rng.Intn(len(categories))].ID)
		}
		if err := tx.InsertVendor(ctx, vendor); err != nil {
			return result, err
		}
		existing[vendor.Name] = vendor.ID
		vendorIDs = append(vendorIDs, vendor.ID)
		result.Vendors++
		report(cfg.Progress, result.Vendors, total)
	}

	minutes := int64(window / time.Minute)
	for i := 0; i < cfg.Purchases; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		purchase := &model.Purchase{
			Timestamp: cfg.Base.Add(-time.Duration(rng.Int63n(minutes)) * time.Minute),
			Amount:    rng.Float64() * maxAmount,
			Currency:  cfg.Currency,
			VendorID:  vendorIDs[rng.Intn(len(vendorIDs))],
		}
		if _, err := tx.InsertPurchase(ctx, purchase); err != nil {
			return result, err
		}
		result.Purchases++
		report(cfg.Progress, result.Vendors+result.Purchases, total)
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("failed to commit sample data: %w", err)
	}
	slog.Info("generated sample data", "vendors", result.Vendors, "purchases", result.Purchases)
	return result, nil
}

func vendorName(rng *rand.Rand) string {
	n := 1 + rng.Intn(4)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = words[rng.Intn(len(words))]
	}
	return strings.Join(parts, " ")
}

// uniqueName appends a counter to names that are already taken.
func uniqueName(name string, taken map[string]int64) string {
	if _, ok := taken[name]; !ok {
		return name
	}
	for i := 2; ; i++ {
		candidate := name + " " + strconv.Itoa(i)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

func report(fn func(done, total int), done, total int) {
	if fn != nil {
		fn(done, total)
	}
}
