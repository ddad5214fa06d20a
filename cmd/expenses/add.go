package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/expenses/internal/cli"
	"github.com/Veraticus/expenses/internal/common"
	"github.com/Veraticus/expenses/internal/importer"
	"github.com/Veraticus/expenses/internal/model"
	"github.com/Veraticus/expenses/internal/service"
)

// manualPurchase is a purchase entered on the command line.
type manualPurchase struct {
	Timestamp time.Time
	Vendor    string
	Currency  string
	Category  string
	Amount    float64
}

func addCmd(a *app) *cobra.Command {
	var (
		vendor   string
		amount   string
		currency string
		when     string
		category string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a purchase manually",
		Long: `Record a single purchase. The vendor is created when it does not exist yet.

A category given here applies to this purchase only; use
'expenses vendors set-category' to categorize all purchases of a vendor.`,
		Example: `  expenses add --vendor "Corner Shop" --amount 12.50
  expenses add --vendor Uber --amount 23 --currency EUR --time "2024-02-03 18:30" --category Transport`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			p := manualPurchase{Vendor: strings.TrimSpace(vendor), Category: category}
			if p.Vendor == "" {
				return common.NewUserError("--vendor is required", nil)
			}

			value, err := importer.NewNumberParser(a.cfg.Locale).Parse(amount)
			if err != nil {
				return common.NewUserError(fmt.Sprintf("cannot read amount %q", amount), err)
			}
			p.Amount = value

			if currency == "" {
				currency = a.cfg.DefaultCurrency
			}
			if p.Currency, err = model.ParseCurrency(currency); err != nil {
				return common.NewUserError("invalid --currency", err)
			}

			p.Timestamp = time.Now().In(a.cfg.Location)
			if when != "" {
				if p.Timestamp, err = parseTime(when, a.cfg.Location); err != nil {
					return common.NewUserError("invalid --time", err)
				}
			}

			store, err := a.initStorage(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			purchase, err := addPurchase(ctx, store, p)
			if err != nil {
				return err
			}

			f := a.formatter()
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added %s at %s on %s",
				f.Amount(purchase.Amount, purchase.Currency), p.Vendor, f.Timestamp(purchase.Timestamp))))
			return nil
		},
	}

	cmd.Flags().StringVar(&vendor, "vendor", "", "vendor name (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount, using the configured locale's separators (required)")
	cmd.Flags().StringVar(&currency, "currency", "", "ISO 4217 currency code (default: import.default_currency)")
	cmd.Flags().StringVar(&when, "time", "", "purchase time (default: now)")
	cmd.Flags().StringVar(&category, "category", "", "category for this purchase only")
	_ = cmd.MarkFlagRequired("vendor")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

// addPurchase stores p in one transaction, creating its vendor if needed.
func addPurchase(ctx context.Context, store service.Storage, p manualPurchase) (*model.Purchase, error) {
	tx, err := store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	categoryID, err := resolveCategory(ctx, tx, p.Category)
	if err != nil {
		return nil, err
	}

	vendor, err := tx.GetVendorByName(ctx, p.Vendor)
	if errors.Is(err, common.ErrNotFound) {
		vendor = &model.Vendor{Name: p.Vendor}
		if err = tx.InsertVendor(ctx, vendor); err != nil {
			return nil, fmt.Errorf("failed to create vendor: %w", err)
		}
		slog.Info("created vendor", "vendor", vendor.Name, "id", vendor.ID)
	} else if err != nil {
		return nil, fmt.Errorf("failed to look up vendor: %w", err)
	}

	purchase := &model.Purchase{
		VendorID:   vendor.ID,
		CategoryID: categoryID,
		Amount:     p.Amount,
		Currency:   p.Currency,
		Timestamp:  p.Timestamp,
	}
	if _, err := tx.InsertPurchase(ctx, purchase); err != nil {
		return nil, fmt.Errorf("failed to add purchase: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit purchase: %w", err)
	}
	return purchase, nil
}
