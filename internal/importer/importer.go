// Package importer turns bank notification text messages into purchases.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Veraticus/expenses/internal/model"
	"github.com/Veraticus/expenses/internal/service"
)

// Result summarizes an import pass.
type Result struct {
	Since      *time.Time
	Scanned    int
	Matched    int
	Imported   int
	Failed     int
	NewVendors int
	Rules      int
}

// Importer matches messages against the stored SMS rules.
type Importer struct {
	store    service.Storage
	parser   *NumberParser
	progress func(done, total int)
}

// Option configures an Importer.
type Option func(*Importer)

// WithProgress reports how many of the new messages have been processed.
func WithProgress(fn func(done, total int)) Option {
	return func(im *Importer) {
		im.progress = fn
	}
}

// New creates an importer writing to store.
func New(store service.Storage, parser *NumberParser, opts ...Option) *Importer {
	im := &Importer{store: store, parser: parser}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ImportSMS imports every message from src that was sent after the most
// recent stored purchase. The whole pass runs in a single transaction; any
// storage error rolls it back.
func (im *Importer) ImportSMS(ctx context.Context, src MessageSource) (Result, error) {
	var result Result

	tx, err := im.store.BeginTx(ctx)
	if err != nil {
		return result, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rules, err := tx.SmsRulesBySender(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load sms rules: %w", err)
	}
	for _, r := range rules {
		result.Rules += len(r)
	}
	if result.Rules == 0 {
		slog.Warn("no sms rules configured, nothing to import")
		return result, nil
	}

	vendors, err := tx.VendorIDsByName(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load vendors: %w", err)
	}

	since, err := tx.LatestPurchaseTime(ctx)
	if err != nil {
		return result, err
	}
	result.Since = since

	all, err := src.Messages(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to read messages: %w", err)
	}
	messages := newerThan(all, since)
	result.Scanned = len(messages)

	slog.Info("importing sms", "messages", len(messages), "rules", result.Rules, "since", since)

	for i, msg := range messages {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := im.importMessage(ctx, tx, msg, rules[msg.Sender], vendors, &result); err != nil {
			return result, err
		}

		if im.progress != nil {
			im.progress(i+1, len(messages))
		}
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("failed to commit import: %w", err)
	}
	committed = true

	slog.Info("sms import finished",
		"scanned", result.Scanned,
		"imported", result.Imported,
		"failed", result.Failed,
		"new_vendors", result.NewVendors)
	return result, nil
}

// importMessage stores the purchase described by msg. The first rule whose
// pattern matches the whole body wins.
func (im *Importer) importMessage(
	ctx context.Context,
	tx service.Transaction,
	msg model.Message,
	rules []model.SmsRule,
	vendors map[string]int64,
	result *Result,
) error {
	for _, rule := range rules {
		amountText, vendorName, ok := rule.Match(msg.Body)
		if !ok {
			continue
		}
		result.Matched++

		amount, err := im.parser.Parse(amountText)
		if err != nil {
			slog.Warn("skipping message with unreadable amount",
				"sender", msg.Sender,
				"sent", msg.Sent,
				"rule_id", rule.ID,
				"error", err)
			result.Failed++
			return nil
		}

		vendorID, ok := vendors[vendorName]
		if !ok {
			vendor := &model.Vendor{Name: vendorName}
			if err := tx.InsertVendor(ctx, vendor); err != nil {
				return err
			}
			vendorID = vendor.ID
			vendors[vendorName] = vendorID
			result.NewVendors++
		}

		purchase := &model.Purchase{
			Timestamp: msg.Sent,
			Amount:    amount,
			Currency:  rule.Currency,
			VendorID:  vendorID,
		}
		if _, err := tx.InsertPurchase(ctx, purchase); err != nil {
			return err
		}
		result.Imported++
		return nil
	}

	slog.Debug("no rule matched message", "sender", msg.Sender, "sent", msg.Sent)
	return nil
}

// newerThan keeps messages sent after since, oldest first. Purchases are
// stored with second precision, so the comparison is too.
func newerThan(messages []model.Message, since *time.Time) []model.Message {
	var out []model.Message
	for _, m := range messages {
		if since != nil && !m.Sent.Truncate(time.Second).After(*since) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Sent.Before(out[j].Sent)
	})
	return out
}
