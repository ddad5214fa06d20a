// Package storage provides the data persistence layer for the expenses application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/expenses/internal/model"
	"github.com/mattn/go-sqlite3"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidPurchase = errors.New("invalid purchase")
	ErrInvalidVendor   = errors.New("invalid vendor")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidRule     = errors.New("invalid sms rule")
)

// Constraint errors.
var (
	ErrForeignKey = errors.New("FOREIGN KEY constraint failed")
	ErrUnique     = errors.New("UNIQUE constraint failed")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateCategory validates a category.
func validateCategory(category *model.Category) error {
	if category == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	if strings.TrimSpace(category.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCategory)
	}
	if category.ID < 0 {
		return fmt.Errorf("%w: negative id", ErrInvalidCategory)
	}
	return nil
}

// validateVendor validates a vendor.
func validateVendor(vendor *model.Vendor) error {
	if vendor == nil {
		return fmt.Errorf("%w: vendor", ErrNilParameter)
	}
	if strings.TrimSpace(vendor.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidVendor)
	}
	return nil
}

// validatePurchase validates a single purchase.
func validatePurchase(purchase *model.Purchase) error {
	if purchase == nil {
		return fmt.Errorf("%w: purchase", ErrNilParameter)
	}
	if purchase.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidPurchase)
	}
	if math.IsNaN(purchase.Amount) || math.IsInf(purchase.Amount, 0) {
		return fmt.Errorf("%w: amount %v", ErrInvalidPurchase, purchase.Amount)
	}
	if _, err := model.ParseCurrency(purchase.Currency); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPurchase, err)
	}
	return nil
}

// validateRule validates an sms rule.
func validateRule(rule *model.SmsRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if strings.TrimSpace(rule.Sender) == "" {
		return fmt.Errorf("%w: missing sender", ErrInvalidRule)
	}
	if _, err := model.NewSmsRule(rule.Sender, rule.Regex, rule.Currency); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	if _, err := model.ParseCurrency(rule.Currency); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	return nil
}

// wrapConstraint maps SQLite constraint violations onto the package sentinels.
func wrapConstraint(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintForeignKey:
		return fmt.Errorf("%w: %v", ErrForeignKey, err)
	case sqlite3.ErrConstraintUnique:
		return fmt.Errorf("%w: %v", ErrUnique, err)
	}
	return err
}
