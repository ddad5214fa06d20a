package storage

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/expenses/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name      string
		str       string
		paramName string
		wantErr   bool
	}{
		{name: "valid string", str: "test", paramName: "param"},
		{name: "empty string", str: "", paramName: "param", wantErr: true},
		{name: "whitespace only", str: "   ", paramName: "param", wantErr: true},
		{name: "string with spaces", str: "  test  ", paramName: "param"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, tt.paramName)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.paramName) {
				t.Errorf("validateString() error should contain param name %s, got %v", tt.paramName, err)
			}
		})
	}
}

func TestValidatePurchase(t *testing.T) {
	now := time.Now()
	tests := []struct {
		purchase *model.Purchase
		name     string
		errMsg   string
		wantErr  bool
	}{
		{
			name:     "valid purchase",
			purchase: &model.Purchase{Timestamp: now, Amount: 12.5, Currency: "USD", VendorID: 1},
		},
		{
			name:     "lower case currency",
			purchase: &model.Purchase{Timestamp: now, Amount: 1, Currency: "eur", VendorID: 1},
		},
		{
			name:     "zero amount",
			purchase: &model.Purchase{Timestamp: now, Currency: "USD", VendorID: 1},
		},
		{
			name:     "nil purchase",
			purchase: nil,
			wantErr:  true,
			errMsg:   "purchase",
		},
		{
			name:     "missing timestamp",
			purchase: &model.Purchase{Amount: 1, Currency: "USD", VendorID: 1},
			wantErr:  true,
			errMsg:   "missing timestamp",
		},
		{
			name:     "NaN amount",
			purchase: &model.Purchase{Timestamp: now, Amount: math.NaN(), Currency: "USD", VendorID: 1},
			wantErr:  true,
			errMsg:   "amount",
		},
		{
			name:     "infinite amount",
			purchase: &model.Purchase{Timestamp: now, Amount: math.Inf(1), Currency: "USD", VendorID: 1},
			wantErr:  true,
			errMsg:   "amount",
		},
		{
			name:     "unknown currency",
			purchase: &model.Purchase{Timestamp: now, Amount: 1, Currency: "XYZ1", VendorID: 1},
			wantErr:  true,
			errMsg:   "currency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePurchase(tt.purchase)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePurchase() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("validatePurchase() error should contain %s, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestValidateVendor(t *testing.T) {
	tests := []struct {
		vendor  *model.Vendor
		name    string
		errMsg  string
		wantErr bool
	}{
		{name: "valid vendor", vendor: &model.Vendor{Name: "Test Vendor"}},
		{name: "vendor with category", vendor: &model.Vendor{Name: "Test Vendor", CategoryID: model.Int64(3)}},
		{name: "nil vendor", vendor: nil, wantErr: true, errMsg: "vendor"},
		{name: "missing name", vendor: &model.Vendor{}, wantErr: true, errMsg: "missing name"},
		{name: "whitespace name", vendor: &model.Vendor{Name: "   "}, wantErr: true, errMsg: "missing name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateVendor(tt.vendor)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateVendor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("validateVendor() error should contain %s, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestValidateCategory(t *testing.T) {
	tests := []struct {
		category *model.Category
		name     string
		errMsg   string
		wantErr  bool
	}{
		{name: "valid category", category: &model.Category{Name: "Bar"}},
		{name: "explicit id", category: &model.Category{ID: 7, Name: "Bar"}},
		{name: "nil category", category: nil, wantErr: true, errMsg: "category"},
		{name: "missing name", category: &model.Category{}, wantErr: true, errMsg: "missing name"},
		{name: "negative id", category: &model.Category{ID: -1, Name: "Bar"}, wantErr: true, errMsg: "negative id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCategory(tt.category)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateCategory() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("validateCategory() error should contain %s, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestValidateRule(t *testing.T) {
	tests := []struct {
		rule    *model.SmsRule
		name    string
		errMsg  string
		wantErr bool
	}{
		{
			name: "valid rule",
			rule: &model.SmsRule{Sender: "BANK", Regex: `Paid (?P<AMOUNT>[\d.]+) at (?P<VENDOR>.+)`, Currency: "USD"},
		},
		{name: "nil rule", rule: nil, wantErr: true, errMsg: "rule"},
		{
			name:    "missing sender",
			rule:    &model.SmsRule{Regex: `(?P<AMOUNT>\d+) (?P<VENDOR>.+)`, Currency: "USD"},
			wantErr: true,
			errMsg:  "missing sender",
		},
		{
			name:    "missing vendor group",
			rule:    &model.SmsRule{Sender: "BANK", Regex: `(?P<AMOUNT>\d+)`, Currency: "USD"},
			wantErr: true,
			errMsg:  "VENDOR",
		},
		{
			name:    "bad regex",
			rule:    &model.SmsRule{Sender: "BANK", Regex: `(?P<AMOUNT>\d+`, Currency: "USD"},
			wantErr: true,
		},
		{
			name:    "bad currency",
			rule:    &model.SmsRule{Sender: "BANK", Regex: `(?P<AMOUNT>\d+) (?P<VENDOR>.+)`, Currency: "dollars"},
			wantErr: true,
			errMsg:  "currency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRule(tt.rule)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateRule() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("validateRule() error should contain %s, got %v", tt.errMsg, err)
			}
		})
	}
}
