package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/expenses/internal/model"
	"github.com/Veraticus/expenses/internal/service"
)

// InsertPurchase stores a purchase and sets its ID. Purchases carrying a
// SourceID that is already stored are skipped; the boolean result reports
// whether a row was written.
func (s *SQLiteStorage) InsertPurchase(ctx context.Context, purchase *model.Purchase) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validatePurchase(purchase); err != nil {
		return false, err
	}

	var inserted bool
	err := s.write(ctx, func(tx *sql.Tx) error {
		var err error
		inserted, err = insertPurchaseTx(ctx, tx, purchase)
		return err
	}, service.TablePurchase)
	return inserted, err
}

func insertPurchaseTx(ctx context.Context, q queryable, purchase *model.Purchase) (bool, error) {
	currency, err := model.ParseCurrency(purchase.Currency)
	if err != nil {
		return false, err
	}

	var sourceID any
	if purchase.SourceID != "" {
		sourceID = purchase.SourceID
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO purchase (timestamp, amount, currency, vendor_id, category_id, source_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, purchase.Timestamp.Unix(), purchase.Amount, currency, purchase.VendorID, purchase.CategoryID, sourceID)
	if err != nil {
		return false, fmt.Errorf("failed to insert purchase: %w", wrapConstraint(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to get purchase ID: %w", err)
	}
	purchase.ID = id
	purchase.Currency = currency
	return true, nil
}

// GetPurchases retrieves purchases matching filter, oldest first. Start is
// inclusive and End exclusive.
func (s *SQLiteStorage) GetPurchases(ctx context.Context, filter service.PurchaseFilter) ([]model.Purchase, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getPurchasesTx(ctx, s.db, filter)
}

func (s *SQLiteStorage) getPurchasesTx(ctx context.Context, q queryable, filter service.PurchaseFilter) ([]model.Purchase, error) {
	query := `
		SELECT id, timestamp, amount, currency, vendor_id, category_id, source_id
		FROM purchase
		WHERE 1=1`
	var args []any

	if filter.Start != nil {
		query += " AND timestamp >= ?"
		args = append(args, filter.Start.Unix())
	}
	if filter.End != nil {
		query += " AND timestamp < ?"
		args = append(args, filter.End.Unix())
	}
	if filter.Currency != "" {
		query += " AND currency = ?"
		args = append(args, strings.ToUpper(filter.Currency))
	}
	query += " ORDER BY timestamp, id"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var purchases []model.Purchase
	for rows.Next() {
		var (
			p          model.Purchase
			ts         int64
			categoryID sql.NullInt64
			sourceID   sql.NullString
		)
		if err := rows.Scan(&p.ID, &ts, &p.Amount, &p.Currency, &p.VendorID, &categoryID, &sourceID); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		p.Timestamp = time.Unix(ts, 0).In(s.loc)
		if categoryID.Valid {
			p.CategoryID = model.Int64(categoryID.Int64)
		}
		p.SourceID = sourceID.String
		purchases = append(purchases, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchases: %w", err)
	}
	return purchases, nil
}

// LatestPurchaseTime returns the timestamp of the most recent purchase, or nil
// when there are none.
func (s *SQLiteStorage) LatestPurchaseTime(ctx context.Context) (*time.Time, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.latestPurchaseTimeTx(ctx, s.db)
}

func (s *SQLiteStorage) latestPurchaseTimeTx(ctx context.Context, q queryable) (*time.Time, error) {
	var latest sql.NullInt64
	if err := q.QueryRowContext(ctx, `SELECT MAX(timestamp) FROM purchase`).Scan(&latest); err != nil {
		return nil, fmt.Errorf("failed to query latest purchase: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	t := time.Unix(latest.Int64, 0).In(s.loc)
	return &t, nil
}

// PurchaseTimeRange returns the span between the oldest and newest purchase in
// currency, or nil when there are none. An empty currency covers all
// purchases.
func (s *SQLiteStorage) PurchaseTimeRange(ctx context.Context, currency string) (*model.TimeRange, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.purchaseTimeRangeTx(ctx, s.db, currency)
}

func (s *SQLiteStorage) purchaseTimeRangeTx(ctx context.Context, q queryable, currency string) (*model.TimeRange, error) {
	query := `SELECT MIN(timestamp), MAX(timestamp) FROM purchase`
	var args []any
	if currency != "" {
		query += ` WHERE currency = ?`
		args = append(args, strings.ToUpper(currency))
	}

	var start, end sql.NullInt64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&start, &end); err != nil {
		return nil, fmt.Errorf("failed to query purchase time range: %w", err)
	}
	if !start.Valid || !end.Valid {
		return nil, nil
	}
	return &model.TimeRange{
		Start: time.Unix(start.Int64, 0).In(s.loc),
		End:   time.Unix(end.Int64, 0).In(s.loc),
	}, nil
}

// PurchaseCurrencies returns the distinct currencies of all purchases.
func (s *SQLiteStorage) PurchaseCurrencies(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return purchaseCurrenciesTx(ctx, s.db)
}

func purchaseCurrenciesTx(ctx context.Context, q queryable) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT DISTINCT currency FROM purchase ORDER BY currency`)
	if err != nil {
		return nil, fmt.Errorf("failed to query currencies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var currencies []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan currency: %w", err)
		}
		currencies = append(currencies, c)
	}
	return currencies, rows.Err()
}

// CountPurchases returns the number of stored purchases.
func (s *SQLiteStorage) CountPurchases(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return countPurchasesTx(ctx, s.db)
}

func countPurchasesTx(ctx context.Context, q queryable) (int, error) {
	var count int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM purchase`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count purchases: %w", err)
	}
	return count, nil
}

// Transaction implementations for purchase operations

func (t *sqliteTransaction) InsertPurchase(ctx context.Context, purchase *model.Purchase) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validatePurchase(purchase); err != nil {
		return false, err
	}
	t.touch(service.TablePurchase)
	return insertPurchaseTx(ctx, t.tx, purchase)
}

func (t *sqliteTransaction) GetPurchases(ctx context.Context, filter service.PurchaseFilter) ([]model.Purchase, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getPurchasesTx(ctx, t.tx, filter)
}

func (t *sqliteTransaction) LatestPurchaseTime(ctx context.Context) (*time.Time, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.latestPurchaseTimeTx(ctx, t.tx)
}

func (t *sqliteTransaction) PurchaseTimeRange(ctx context.Context, currency string) (*model.TimeRange, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.purchaseTimeRangeTx(ctx, t.tx, currency)
}

func (t *sqliteTransaction) PurchaseCurrencies(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return purchaseCurrenciesTx(ctx, t.tx)
}

func (t *sqliteTransaction) CountPurchases(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return countPurchasesTx(ctx, t.tx)
}
