package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/expenses/internal/common"
	"github.com/Veraticus/expenses/internal/model"
	"github.com/Veraticus/expenses/internal/service"
)

const vendorCacheTTL = 5 * time.Minute

// InsertVendor stores a new vendor and sets its ID. A vendor name can only be
// used once; a duplicate yields ErrUnique.
func (s *SQLiteStorage) InsertVendor(ctx context.Context, vendor *model.Vendor) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateVendor(vendor); err != nil {
		return err
	}
	if err := s.write(ctx, func(tx *sql.Tx) error {
		return insertVendorTx(ctx, tx, vendor)
	}, service.TableVendor); err != nil {
		return err
	}
	s.cacheVendor(*vendor)
	return nil
}

func insertVendorTx(ctx context.Context, q queryable, vendor *model.Vendor) error {
	result, err := q.ExecContext(ctx, `
		INSERT INTO vendor (name, category_id)
		VALUES (?, ?)
	`, vendor.Name, vendor.CategoryID)
	if err != nil {
		return fmt.Errorf("failed to insert vendor %q: %w", vendor.Name, wrapConstraint(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get vendor ID: %w", err)
	}
	vendor.ID = id
	return nil
}

// GetVendorByName retrieves a vendor by its exact name. Committed vendors are
// served from the cache when possible.
func (s *SQLiteStorage) GetVendorByName(ctx context.Context, name string) (*model.Vendor, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	if cached, ok := s.cachedVendor(name); ok {
		return &cached, nil
	}

	vendor, err := getVendorByNameTx(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	s.cacheVendor(*vendor)
	return vendor, nil
}

func getVendorByNameTx(ctx context.Context, q queryable, name string) (*model.Vendor, error) {
	vendor, err := scanVendor(q.QueryRowContext(ctx, `
		SELECT id, name, category_id
		FROM vendor
		WHERE name = ?
	`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("vendor %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

// GetVendors retrieves all vendors ordered by name.
func (s *SQLiteStorage) GetVendors(ctx context.Context) ([]model.Vendor, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getVendorsTx(ctx, s.db)
}

func getVendorsTx(ctx context.Context, q queryable) ([]model.Vendor, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, category_id
		FROM vendor
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var vendors []model.Vendor
	for rows.Next() {
		vendor, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		vendors = append(vendors, vendor)
	}

	return vendors, rows.Err()
}

// VendorIDsByName returns the id of every vendor keyed by name.
func (s *SQLiteStorage) VendorIDsByName(ctx context.Context) (map[string]int64, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	vendors, err := getVendorsTx(ctx, s.db)
	if err != nil {
		return nil, err
	}
	s.warmVendorCache(vendors)
	return vendorIDs(vendors), nil
}

func vendorIDsByNameTx(ctx context.Context, q queryable) (map[string]int64, error) {
	vendors, err := getVendorsTx(ctx, q)
	if err != nil {
		return nil, err
	}
	return vendorIDs(vendors), nil
}

func vendorIDs(vendors []model.Vendor) map[string]int64 {
	ids := make(map[string]int64, len(vendors))
	for _, v := range vendors {
		ids[v.Name] = v.ID
	}
	return ids
}

// VendorsByID returns all vendors keyed by id.
func (s *SQLiteStorage) VendorsByID(ctx context.Context) (map[int64]model.Vendor, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return vendorsByIDTx(ctx, s.db)
}

func vendorsByIDTx(ctx context.Context, q queryable) (map[int64]model.Vendor, error) {
	vendors, err := getVendorsTx(ctx, q)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.Vendor, len(vendors))
	for _, v := range vendors {
		byID[v.ID] = v
	}
	return byID, nil
}

// UpdateVendorCategory sets the default category of a vendor. A nil category
// clears it.
func (s *SQLiteStorage) UpdateVendorCategory(ctx context.Context, vendorID int64, categoryID *int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := s.write(ctx, func(tx *sql.Tx) error {
		return updateVendorCategoryTx(ctx, tx, vendorID, categoryID)
	}, service.TableVendor); err != nil {
		return err
	}
	s.clearVendorCache()
	return nil
}

// SetVendorCategory implements service.Recategorizer.
func (s *SQLiteStorage) SetVendorCategory(ctx context.Context, vendorID int64, categoryID *int64) error {
	if err := s.UpdateVendorCategory(ctx, vendorID, categoryID); err != nil {
		return err
	}
	if categoryID == nil {
		slog.Info("cleared vendor category", "vendor_id", vendorID)
	} else {
		slog.Info("recategorized vendor", "vendor_id", vendorID, "category_id", *categoryID)
	}
	return nil
}

func updateVendorCategoryTx(ctx context.Context, q queryable, vendorID int64, categoryID *int64) error {
	result, err := q.ExecContext(ctx, `
		UPDATE vendor SET category_id = ? WHERE id = ?
	`, categoryID, vendorID)
	if err != nil {
		return fmt.Errorf("failed to update vendor category: %w", wrapConstraint(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("vendor %d: %w", vendorID, common.ErrNotFound)
	}
	return nil
}

// DeleteVendor deletes a vendor together with all of its purchases.
func (s *SQLiteStorage) DeleteVendor(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := s.write(ctx, func(tx *sql.Tx) error {
		return deleteVendorTx(ctx, tx, id)
	}, service.TableVendor, service.TablePurchase); err != nil {
		return err
	}
	s.clearVendorCache()
	return nil
}

func deleteVendorTx(ctx context.Context, q queryable, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM vendor WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete vendor: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("vendor %d: %w", id, common.ErrNotFound)
	}
	return nil
}

func scanVendor(row scanner) (model.Vendor, error) {
	var (
		vendor     model.Vendor
		categoryID sql.NullInt64
	)
	if err := row.Scan(&vendor.ID, &vendor.Name, &categoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return vendor, err
		}
		return vendor, fmt.Errorf("failed to scan vendor: %w", err)
	}
	if categoryID.Valid {
		vendor.CategoryID = model.Int64(categoryID.Int64)
	}
	return vendor, nil
}

// cachedVendor returns a committed vendor looked up or inserted recently.
func (s *SQLiteStorage) cachedVendor(name string) (model.Vendor, bool) {
	s.cacheMutex.RLock()

	if time.Now().After(s.cacheExpiry) {
		// Cache expired, needs to be cleared
		// Upgrade to write lock
		s.cacheMutex.RUnlock()
		s.cacheMutex.Lock()
		defer s.cacheMutex.Unlock()

		// Double-check after acquiring write lock
		if time.Now().After(s.cacheExpiry) {
			s.vendorCache = make(map[string]model.Vendor)
		}
		return model.Vendor{}, false
	}

	vendor, ok := s.vendorCache[name]
	s.cacheMutex.RUnlock()
	if ok && vendor.CategoryID != nil {
		vendor.CategoryID = model.Int64(*vendor.CategoryID)
	}
	return vendor, ok
}

// cacheVendor adds a vendor to the cache.
func (s *SQLiteStorage) cacheVendor(vendor model.Vendor) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	if len(s.vendorCache) == 0 {
		// Set cache expiry on first entry
		s.cacheExpiry = time.Now().Add(vendorCacheTTL)
	}
	if vendor.CategoryID != nil {
		vendor.CategoryID = model.Int64(*vendor.CategoryID)
	}
	s.vendorCache[vendor.Name] = vendor
}

func (s *SQLiteStorage) warmVendorCache(vendors []model.Vendor) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	s.vendorCache = make(map[string]model.Vendor, len(vendors))
	for _, v := range vendors {
		s.vendorCache[v.Name] = v
	}
	s.cacheExpiry = time.Now().Add(vendorCacheTTL)
}

func (s *SQLiteStorage) clearVendorCache() {
	s.cacheMutex.Lock()
	s.vendorCache = make(map[string]model.Vendor)
	s.cacheMutex.Unlock()
}

// Transaction implementations for vendor operations

func (t *sqliteTransaction) InsertVendor(ctx context.Context, vendor *model.Vendor) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateVendor(vendor); err != nil {
		return err
	}
	t.touch(service.TableVendor)
	return insertVendorTx(ctx, t.tx, vendor)
}

func (t *sqliteTransaction) GetVendorByName(ctx context.Context, name string) (*model.Vendor, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return getVendorByNameTx(ctx, t.tx, name)
}

func (t *sqliteTransaction) GetVendors(ctx context.Context) ([]model.Vendor, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getVendorsTx(ctx, t.tx)
}

func (t *sqliteTransaction) VendorIDsByName(ctx context.Context) (map[string]int64, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return vendorIDsByNameTx(ctx, t.tx)
}

func (t *sqliteTransaction) VendorsByID(ctx context.Context) (map[int64]model.Vendor, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return vendorsByIDTx(ctx, t.tx)
}

func (t *sqliteTransaction) UpdateVendorCategory(ctx context.Context, vendorID int64, categoryID *int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	t.touch(service.TableVendor)
	return updateVendorCategoryTx(ctx, t.tx, vendorID, categoryID)
}

func (t *sqliteTransaction) DeleteVendor(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	t.touch(service.TableVendor, service.TablePurchase)
	return deleteVendorTx(ctx, t.tx, id)
}
