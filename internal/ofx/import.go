package ofx

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/expenses/internal/model"
	"github.com/Veraticus/expenses/internal/service"
)

// Result summarizes a stored statement.
type Result struct {
	Imported   int
	Duplicates int
	NewVendors int
}

// Store writes the statement entries in a single transaction. Entries whose
// source id is already stored are counted as duplicates.
func Store(ctx context.Context, store service.Storage, entries []Entry) (Result, error) {
	var result Result

	tx, err := store.BeginTx(ctx)
	if err != nil {
		return result, err
	}
	defer func() { _ = tx.Rollback() }()

	vendors, err := tx.VendorIDsByName(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load vendors: %w", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		vendorID, ok := vendors[entry.Vendor]
		if !ok {
			vendor := &model.Vendor{Name: entry.Vendor}
			if err := tx.InsertVendor(ctx, vendor); err != nil {
				return result, err
			}
			vendorID = vendor.ID
			vendors[entry.Vendor] = vendorID
			result.NewVendors++
		}

		purchase := entry.Purchase
		purchase.VendorID = vendorID
		inserted, err := tx.InsertPurchase(ctx, &purchase)
		if err != nil {
			return result, err
		}
		if inserted {
			result.Imported++
		} else {
			result.Duplicates++
		}
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("failed to commit OFX import: %w", err)
	}

	slog.Info("stored OFX entries",
		"imported", result.Imported,
		"duplicates", result.Duplicates,
		"new_vendors", result.NewVendors)
	return result, nil
}
