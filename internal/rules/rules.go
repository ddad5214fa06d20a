// Package rules loads SMS import rules from CSV files.
package rules

import (
	"context"
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/Veraticus/expenses/internal/model"
	"github.com/Veraticus/expenses/internal/service"
)

//go:embed assets/sms_rules/*.csv
var bundled embed.FS

const bundledDir = "assets/sms_rules"

// Columns of a rule file.
const (
	ColumnSender   = "sender"
	ColumnRegex    = "regex"
	ColumnCurrency = "currency"
)

// Parse reads rules from CSV with the columns sender, regex and currency.
// Lines starting with '#' are comments, surrounding spaces are trimmed and an
// optional header row is skipped.
func Parse(r io.Reader) ([]model.SmsRule, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = 3

	var rules []model.SmsRule
	for first := true; ; first = false {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		if first && isHeader(record) {
			continue
		}

		line, _ := reader.FieldPos(0)
		rule, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func isHeader(record []string) bool {
	return strings.EqualFold(record[0], ColumnSender) &&
		strings.EqualFold(record[1], ColumnRegex) &&
		strings.EqualFold(record[2], ColumnCurrency)
}

func parseRecord(record []string) (model.SmsRule, error) {
	sender, regex := record[0], record[1]
	if sender == "" {
		return model.SmsRule{}, fmt.Errorf("%w: empty sender", model.ErrInvalidRule)
	}
	currency, err := model.ParseCurrency(record[2])
	if err != nil {
		return model.SmsRule{}, err
	}
	return model.NewSmsRule(sender, regex, currency)
}

// Bundled returns the rules shipped with the application.
func Bundled() ([]model.SmsRule, error) {
	return loadFS(bundled, bundledDir)
}

// LoadDir reads every *.csv file in dir, in name order.
func LoadDir(dir string) ([]model.SmsRule, error) {
	return loadFS(os.DirFS(dir), ".")
}

// LoadFile reads a single rule file.
func LoadFile(name string) ([]model.SmsRule, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule file: %w", err)
	}
	defer func() { _ = f.Close() }()

	rules, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return rules, nil
}

func loadFS(fsys fs.FS, dir string) ([]model.SmsRule, error) {
	matches, err := fs.Glob(fsys, path.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	var rules []model.SmsRule
	for _, name := range matches {
		f, err := fsys.Open(name)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		parsed, err := Parse(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		rules = append(rules, parsed...)
	}
	return rules, nil
}

// Store inserts rules in order and returns how many were stored.
func Store(ctx context.Context, store service.Store, rules []model.SmsRule) (int, error) {
	for i := range rules {
		if err := store.InsertSmsRule(ctx, &rules[i]); err != nil {
			return i, fmt.Errorf("failed to store rule for %s: %w", rules[i].Sender, err)
		}
	}
	return len(rules), nil
}
