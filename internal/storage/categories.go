package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/expenses/internal/common"
	"github.com/Veraticus/expenses/internal/model"
	"github.com/Veraticus/expenses/internal/service"
)

// InsertCategory stores a category and sets its ID. A category whose ID is
// already taken is ignored, leaving the stored row untouched.
func (s *SQLiteStorage) InsertCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}
	return s.write(ctx, func(tx *sql.Tx) error {
		return insertCategoryTx(ctx, tx, category)
	}, service.TableCategory)
}

func insertCategoryTx(ctx context.Context, q queryable, category *model.Category) error {
	var id any
	if category.ID != 0 {
		id = category.ID
	}

	result, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO category (id, name, icon, color)
		VALUES (?, ?, ?, ?)
	`, id, category.Name, category.Icon.URL, int64(category.Color))
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", wrapConstraint(err))
	}

	if category.ID == 0 {
		newID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get category ID: %w", err)
		}
		category.ID = newID
	}

	slog.Debug("inserted category", "name", category.Name, "id", category.ID)
	return nil
}

// GetCategories returns all categories ordered by name.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getCategoriesTx(ctx, s.db)
}

func getCategoriesTx(ctx context.Context, q queryable) ([]model.Category, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, icon, color
		FROM category
		ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// CategoriesByID returns all categories keyed by id.
func (s *SQLiteStorage) CategoriesByID(ctx context.Context) (map[int64]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return categoriesByIDTx(ctx, s.db)
}

func categoriesByIDTx(ctx context.Context, q queryable) (map[int64]model.Category, error) {
	categories, err := getCategoriesTx(ctx, q)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	return byID, nil
}

// GetCategoryByName returns the first category with the given name, or
// common.ErrNotFound.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return getCategoryByNameTx(ctx, s.db, name)
}

func getCategoryByNameTx(ctx context.Context, q queryable, name string) (*model.Category, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, icon, color
		FROM category
		WHERE name = ? COLLATE NOCASE
		ORDER BY id
		LIMIT 1`, name)

	cat, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// DeleteCategory deletes a category. Vendors and purchases referencing it
// lose their category.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.write(ctx, func(tx *sql.Tx) error {
		return deleteCategoryTx(ctx, tx, id)
	}, service.TableCategory, service.TableVendor, service.TablePurchase)
}

func deleteCategoryTx(ctx context.Context, q queryable, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM category WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", wrapConstraint(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("category %d: %w", id, common.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(row scanner) (model.Category, error) {
	var (
		cat   model.Category
		icon  string
		color int64
	)
	if err := row.Scan(&cat.ID, &cat.Name, &icon, &color); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cat, err
		}
		return cat, fmt.Errorf("failed to scan category: %w", err)
	}
	cat.Icon = model.ParseIconRef(icon)
	cat.Color = uint32(color)
	return cat, nil
}

// Transaction implementations for category operations

func (t *sqliteTransaction) InsertCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}
	t.touch(service.TableCategory)
	return insertCategoryTx(ctx, t.tx, category)
}

func (t *sqliteTransaction) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getCategoriesTx(ctx, t.tx)
}

func (t *sqliteTransaction) CategoriesByID(ctx context.Context) (map[int64]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return categoriesByIDTx(ctx, t.tx)
}

func (t *sqliteTransaction) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return getCategoryByNameTx(ctx, t.tx, name)
}

func (t *sqliteTransaction) DeleteCategory(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	t.touch(service.TableCategory, service.TableVendor, service.TablePurchase)
	return deleteCategoryTx(ctx, t.tx, id)
}
